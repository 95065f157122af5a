package controllers

import "github.com/rhurkes/wx-storage/internal/eventlog"

// eventView is the JSON rendering of a stored event.
type eventView struct {
	Key             string `json:"key"`
	TimestampMicros uint64 `json:"timestampMicros"`
	Kind            uint16 `json:"kind"`
	Payload         []byte `json:"payload"`
}

func newEventView(e eventlog.Event) eventView {
	return eventView{
		Key:             hexKey(e.Key),
		TimestampMicros: e.Record.TimestampMicros,
		Kind:            e.Record.Kind,
		Payload:         e.Record.Payload,
	}
}

// eventsResponse lists events plus the resume key for the next page.
type eventsResponse struct {
	Events []eventView `json:"events"`
	Next   string      `json:"next,omitempty"`
}

// scalarPutReq sets a scalar value.
type scalarPutReq struct {
	Value []byte `json:"value"`
}

// eventPutReq is one event of a backfill batch.
type eventPutReq struct {
	TimestampMicros uint64 `json:"timestampMicros"`
	Kind            uint16 `json:"kind"`
	Payload         []byte `json:"payload"`
}

// eventsAppendResponse returns the keys assigned to a backfill batch.
type eventsAppendResponse struct {
	Keys []string `json:"keys"`
}
