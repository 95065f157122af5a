package controllers

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rhurkes/wx-storage/internal/eventlog"
	"github.com/rhurkes/wx-storage/internal/runtime"
)

// maxPageSize caps a single JSON page of events.
const maxPageSize = 10_000

// maxWait bounds long-poll requests.
const maxWait = 60 * time.Second

// maxAppendBody caps a batch append request body.
const maxAppendBody = 32 << 20

// EventsController serves read-only event inspection and manual trimming.
type EventsController struct {
	rt *runtime.Runtime
}

// NewEventsController creates a new events controller.
func NewEventsController(rt *runtime.Runtime) *EventsController {
	return &EventsController{rt: rt}
}

// RegisterRoutes registers event routes with the given mux.
//
//	GET    /v1/events?start=<micros|RFC3339>&after=<hex key>&limit=N&wait=<duration>
//	POST   /v1/events                 (JSON array, stored as one batch)
//	DELETE /v1/events?before=<micros|RFC3339>
func (c *EventsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/events", c.handleEvents)
}

func (c *EventsController) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		c.handleList(w, r)
	case http.MethodPost:
		c.handleAppend(w, r)
	case http.MethodDelete:
		c.handleTrim(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (c *EventsController) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var opts eventlog.ReadOptions
	if a := q.Get("after"); a != "" {
		k, err := parseHexKey(a)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.After = &k
	} else {
		start, ok := parseTimestamp(q.Get("start"))
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid start")
			return
		}
		opts.Start = start
	}
	opts.Limit = parseLimit(q.Get("limit"))
	if opts.Limit == 0 || opts.Limit > maxPageSize {
		opts.Limit = maxPageSize
	}

	var wait time.Duration
	if ws := q.Get("wait"); ws != "" {
		d, err := time.ParseDuration(ws)
		if err != nil || d < 0 || d > maxWait {
			writeError(w, http.StatusBadRequest, "Invalid wait")
			return
		}
		wait = d
	}

	log := c.rt.Events()
	appended := log.Appended()
	evs, err := log.Get(r.Context(), opts)
	if err == nil && len(evs) == 0 && wait > 0 && eventlog.WaitOn(r.Context(), appended, wait) {
		evs, err = log.Get(r.Context(), opts)
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, eventlog.ErrMalformedRecord) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}
	resp := eventsResponse{Events: make([]eventView, 0, len(evs))}
	for _, e := range evs {
		resp.Events = append(resp.Events, newEventView(e))
	}
	if len(evs) == opts.Limit {
		resp.Next = hexKey(evs[len(evs)-1].Key)
	}
	writeJSON(w, resp)
}

func (c *EventsController) handleAppend(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAppendBody)
	var reqs []eventPutReq
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(reqs) == 0 || len(reqs) > maxPageSize {
		writeError(w, http.StatusBadRequest, "Batch must hold 1 to 10000 events")
		return
	}
	recs := make([]eventlog.Record, len(reqs))
	for i, e := range reqs {
		if e.TimestampMicros == 0 {
			writeError(w, http.StatusBadRequest, "timestampMicros is required")
			return
		}
		recs[i] = eventlog.Record{TimestampMicros: e.TimestampMicros, Kind: e.Kind, Payload: e.Payload}
	}
	keys, err := c.rt.Events().Append(r.Context(), recs)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, eventlog.ErrEncodingConstraint) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	resp := eventsAppendResponse{Keys: make([]string, len(keys))}
	for i, k := range keys {
		resp.Keys[i] = hexKey(k)
	}
	writeJSON(w, resp)
}

func (c *EventsController) handleTrim(w http.ResponseWriter, r *http.Request) {
	before, ok := parseTimestamp(r.URL.Query().Get("before"))
	if !ok || before == 0 {
		writeError(w, http.StatusBadRequest, "before is required")
		return
	}
	if err := c.rt.Events().DeleteBefore(r.Context(), before); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeNoContent(w)
}

func hexKey(k eventlog.Key) string { return hex.EncodeToString(k[:]) }

func parseHexKey(s string) (eventlog.Key, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return eventlog.Key{}, errors.New("after must be a hex event key")
	}
	return eventlog.ParseKey(b)
}
