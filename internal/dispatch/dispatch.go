// Package dispatch decodes request envelopes, routes them to the event or
// scalar store and encodes the response envelope. Handle never fails: every
// error, including a recovered panic, becomes a status 1 response.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rhurkes/wx-storage/internal/eventlog"
	"github.com/rhurkes/wx-storage/internal/wire"
	logpkg "github.com/rhurkes/wx-storage/pkg/log"
)

var (
	// ErrUnknownCommand is returned for a command byte outside the protocol.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrEmptyRequest is returned for a zero-length request.
	ErrEmptyRequest = errors.New("empty request")
)

// EventStore is the subset of *eventlog.Log the dispatcher needs.
type EventStore interface {
	Put(ctx context.Context, r eventlog.Record) (eventlog.Key, error)
	AppendWire(ctx context.Context, dst []byte, opts eventlog.ReadOptions) ([]byte, int, error)
}

// ScalarStore is the subset of *scalar.Store the dispatcher needs.
type ScalarStore interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Observer receives one call per handled request.
type Observer interface {
	ObserveCommand(command, status string, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveCommand(string, string, time.Duration) {}

// Dispatcher routes request envelopes to the stores.
type Dispatcher struct {
	events   EventStore
	scalars  ScalarStore
	logger   logpkg.Logger
	observer Observer
	tracer   trace.Tracer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for failures.
func WithLogger(l logpkg.Logger) Option { return func(d *Dispatcher) { d.logger = l } }

// WithObserver sets the per-request metrics observer.
func WithObserver(o Observer) Option { return func(d *Dispatcher) { d.observer = o } }

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option { return func(d *Dispatcher) { d.tracer = t } }

// New returns a Dispatcher over the given stores.
func New(events EventStore, scalars ScalarStore, opts ...Option) *Dispatcher {
	d := &Dispatcher{events: events, scalars: scalars, observer: noopObserver{}}
	for _, o := range opts {
		o(d)
	}
	if d.logger == nil {
		d.logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	}
	if d.tracer == nil {
		d.tracer = otel.GetTracerProvider().Tracer("github.com/rhurkes/wx-storage/internal/dispatch")
	}
	d.logger = d.logger.WithComponent("dispatch")
	return d
}

// Handle processes one request envelope and returns the response envelope.
func (d *Dispatcher) Handle(ctx context.Context, req []byte) (resp []byte) {
	start := time.Now()
	cmd, payload, ok := wire.SplitRequest(req)
	name := "empty"
	if ok {
		name = cmd.String()
	}

	ctx, span := d.tracer.Start(ctx, "wxstore."+name,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.Int("request.bytes", len(req))),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("internal error: %v", r)
			d.logger.WithContext(ctx).Error("panic while handling request", logpkg.Str("command", name), logpkg.Err(err))
			resp = d.fail(span, err)
		}
		status := "ok"
		if len(resp) > 0 && wire.Status(resp[0]) != wire.StatusOK {
			status = "error"
		}
		span.SetAttributes(attribute.Int("response.bytes", len(resp)))
		d.observer.ObserveCommand(name, status, time.Since(start))
	}()

	if !ok {
		return d.fail(span, ErrEmptyRequest)
	}

	out, err := d.route(ctx, cmd, payload)
	if err != nil {
		d.logger.WithContext(ctx).Debug("request failed", logpkg.Str("command", name), logpkg.Err(err))
		return d.fail(span, err)
	}
	span.SetStatus(codes.Ok, "")
	return out
}

func (d *Dispatcher) fail(span trace.Span, err error) []byte {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return wire.Error(err)
}

func (d *Dispatcher) route(ctx context.Context, cmd wire.Command, payload []byte) ([]byte, error) {
	switch cmd {
	case wire.PutScalar:
		return d.putScalar(ctx, payload)
	case wire.GetScalar:
		return d.getScalar(ctx, payload)
	case wire.PutEvent:
		return d.putEvent(ctx, payload)
	case wire.GetEvents:
		return d.getEvents(ctx, payload)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCommand, byte(cmd))
	}
}

func (d *Dispatcher) putScalar(ctx context.Context, payload []byte) ([]byte, error) {
	key, value, err := wire.DecodeScalarPut(payload)
	if err != nil {
		return nil, err
	}
	if err := d.scalars.Put(ctx, key, value); err != nil {
		return nil, err
	}
	return wire.OK(nil), nil
}

func (d *Dispatcher) getScalar(ctx context.Context, payload []byte) ([]byte, error) {
	v, err := d.scalars.Get(ctx, string(payload))
	if err != nil {
		return nil, err
	}
	return wire.OK(v), nil
}

func (d *Dispatcher) putEvent(ctx context.Context, payload []byte) ([]byte, error) {
	if err := eventlog.ValidateRecord(payload); err != nil {
		return nil, err
	}
	r, err := eventlog.DecodeRecordView(payload)
	if err != nil {
		return nil, err
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int64("event.timestamp_micros", int64(r.TimestampMicros)),
		attribute.Int("event.kind", int(r.Kind)),
	)
	key, err := d.events.Put(ctx, r)
	if err != nil {
		return nil, err
	}
	return wire.OK(key[:]), nil
}

func (d *Dispatcher) getEvents(ctx context.Context, payload []byte) ([]byte, error) {
	q, err := wire.DecodeEventsQuery(payload)
	if err != nil {
		return nil, err
	}
	var opts eventlog.ReadOptions
	if q.After != nil {
		k, err := eventlog.ParseKey(q.After)
		if err != nil {
			return nil, err
		}
		opts.After = &k
	} else {
		opts.Start = q.Start
	}
	out, n, err := d.events.AppendWire(ctx, []byte{byte(wire.StatusOK)}, opts)
	if err != nil {
		return nil, err
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("events.count", n))
	return out, nil
}
