// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/rhurkes/wx-storage/internal/eventlog"
	grpcserver "github.com/rhurkes/wx-storage/internal/server/grpc"
	"github.com/rhurkes/wx-storage/internal/wire"
)

// GrpcTransport implements Transport over the envelope gRPC service.
type GrpcTransport struct {
	dial func(ctx context.Context) (*grpc.ClientConn, error)
}

// NewGrpcTransport constructs a new GrpcTransport using the provided dialer.
func NewGrpcTransport(dial func(ctx context.Context) (*grpc.ClientConn, error)) *GrpcTransport {
	return &GrpcTransport{dial: dial}
}

// exchange sends one envelope and returns the success payload, or the
// server's failure message as a *wire.ResponseError.
func (t *GrpcTransport) exchange(ctx context.Context, cmd wire.Command, payload []byte) ([]byte, error) {
	conn, err := t.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()
	out, err := grpcserver.NewEnvelopeClient(conn).Exchange(ctx, wrapperspb.Bytes(wire.Request(cmd, payload)))
	if err != nil {
		return nil, err
	}
	return wire.ParseResponse(out.GetValue())
}

func (t *GrpcTransport) PutScalar(ctx context.Context, key string, value []byte) error {
	_, err := t.exchange(ctx, wire.PutScalar, wire.EncodeScalarPut(key, value))
	return err
}

func (t *GrpcTransport) GetScalar(ctx context.Context, key string) ([]byte, error) {
	return t.exchange(ctx, wire.GetScalar, []byte(key))
}

// PutEvent stores r and returns the key the server assigned.
func (t *GrpcTransport) PutEvent(ctx context.Context, r eventlog.Record) (eventlog.Key, error) {
	body, err := eventlog.EncodeRecord(r)
	if err != nil {
		return eventlog.Key{}, err
	}
	out, err := t.exchange(ctx, wire.PutEvent, body)
	if err != nil {
		return eventlog.Key{}, err
	}
	return eventlog.ParseKey(out)
}

// GetEvents reads from the requested position to the end of the log.
func (t *GrpcTransport) GetEvents(ctx context.Context, req EventsRequest) ([]eventlog.Event, error) {
	var payload []byte
	switch {
	case req.After != nil:
		payload = wire.EncodeEventsAfter(req.After[:])
	case req.Start != 0:
		payload = wire.EncodeEventsFrom(req.Start)
	}
	out, err := t.exchange(ctx, wire.GetEvents, payload)
	if err != nil {
		return nil, err
	}
	return eventlog.DecodeWire(out)
}
