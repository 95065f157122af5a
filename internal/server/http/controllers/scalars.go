package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rhurkes/wx-storage/internal/runtime"
	"github.com/rhurkes/wx-storage/internal/scalar"
)

const scalarsPath = "/v1/scalars/"

// ScalarsController exposes the scalar store for operators.
type ScalarsController struct {
	rt *runtime.Runtime
}

// NewScalarsController creates a new scalars controller.
func NewScalarsController(rt *runtime.Runtime) *ScalarsController {
	return &ScalarsController{rt: rt}
}

// RegisterRoutes registers GET/PUT/DELETE /v1/scalars/{key}.
func (c *ScalarsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(scalarsPath, c.handleScalar)
}

func (c *ScalarsController) handleScalar(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, scalarsPath)
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}
	store := c.rt.Scalars()
	switch r.Method {
	case http.MethodGet:
		v, err := store.Get(r.Context(), key)
		if errors.Is(err, scalar.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, map[string]any{"key": key, "value": v})
	case http.MethodPut:
		var req scalarPutReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := store.Put(r.Context(), key, req.Value); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeNoContent(w)
	case http.MethodDelete:
		if err := store.Delete(r.Context(), key); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeNoContent(w)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
