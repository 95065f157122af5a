package controllers

import (
	"net/http"

	"github.com/rhurkes/wx-storage/internal/runtime"
)

// ControllerRegistry manages all admin HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	events  *EventsController
	scalars *ScalarsController
}

// NewControllerRegistry creates a new controller registry over rt.
func NewControllerRegistry(rt *runtime.Runtime) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt),
		events:  NewEventsController(rt),
		scalars: NewScalarsController(rt),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.events.RegisterRoutes(mux)
	r.scalars.RegisterRoutes(mux)
}
