package transports

import (
	"context"

	"github.com/rhurkes/wx-storage/internal/eventlog"
)

// EventsRequest selects where a GetEvents read starts. After takes
// precedence over Start; both zero asks for the server's default window.
type EventsRequest struct {
	Start uint64
	After *eventlog.Key
}

// Transport abstracts the request channel used by the CLI.
type Transport interface {
	PutScalar(ctx context.Context, key string, value []byte) error
	GetScalar(ctx context.Context, key string) ([]byte, error)
	PutEvent(ctx context.Context, r eventlog.Record) (eventlog.Key, error)
	GetEvents(ctx context.Context, req EventsRequest) ([]eventlog.Event, error)
}
