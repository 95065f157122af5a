package dispatch

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/rhurkes/wx-storage/internal/eventlog"
	"github.com/rhurkes/wx-storage/internal/scalar"
	pebblestore "github.com/rhurkes/wx-storage/internal/storage/pebble"
	"github.com/rhurkes/wx-storage/internal/wire"
)

type recordingObserver struct {
	calls []string
}

func (o *recordingObserver) ObserveCommand(command, status string, _ time.Duration) {
	o.calls = append(o.calls, command+":"+status)
}

func newDispatcherForTest(t *testing.T, opts ...Option) *Dispatcher {
	t.Helper()
	return newDispatcherWithLog(t, eventlog.Options{}, opts...)
}

func newDispatcherWithLog(t *testing.T, logOpts eventlog.Options, opts ...Option) *Dispatcher {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	events, err := eventlog.OpenLog(db, logOpts)
	require.NoError(t, err)
	scalars, err := scalar.Open(db)
	require.NoError(t, err)
	return New(events, scalars, opts...)
}

func encodeEvent(t *testing.T, ts uint64, payload string) []byte {
	t.Helper()
	b, err := eventlog.EncodeRecord(eventlog.Record{TimestampMicros: ts, Kind: 1, Payload: []byte(payload)})
	require.NoError(t, err)
	return b
}

func okPayload(t *testing.T, resp []byte) []byte {
	t.Helper()
	p, err := wire.ParseResponse(resp)
	require.NoError(t, err)
	return p
}

func failMessage(t *testing.T, resp []byte) string {
	t.Helper()
	_, err := wire.ParseResponse(resp)
	var re *wire.ResponseError
	require.True(t, errors.As(err, &re), "expected failure response, got %v", err)
	return re.Message
}

func TestEndToEndScenario(t *testing.T) {
	d := newDispatcherForTest(t)
	ctx := context.Background()

	okPayload(t, d.Handle(ctx, wire.Request(wire.PutScalar, wire.EncodeScalarPut("k", []byte("v")))))
	require.Equal(t, []byte("v"), okPayload(t, d.Handle(ctx, wire.Request(wire.GetScalar, []byte("k")))))

	k1 := okPayload(t, d.Handle(ctx, wire.Request(wire.PutEvent, encodeEvent(t, 1000, "x"))))
	k2 := okPayload(t, d.Handle(ctx, wire.Request(wire.PutEvent, encodeEvent(t, 1000, "y"))))
	require.Len(t, k1, eventlog.KeyLen)
	require.Len(t, k2, eventlog.KeyLen)

	body := okPayload(t, d.Handle(ctx, wire.Request(wire.GetEvents, wire.EncodeEventsFrom(1))))
	require.Equal(t, uint64(2), binary.BigEndian.Uint64(body))
	evs, err := eventlog.DecodeWire(body)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	require.Equal(t, uint64(1000), evs[0].Record.TimestampMicros)
	require.Equal(t, "x", string(evs[0].Record.Payload))
	require.Equal(t, uint64(1000), evs[1].Record.TimestampMicros)
	require.Equal(t, "y", string(evs[1].Record.Payload))
	require.Equal(t, k1, evs[0].Key[:])

	// Resume after the first key returns only the second event.
	body = okPayload(t, d.Handle(ctx, wire.Request(wire.GetEvents, wire.EncodeEventsAfter(k1))))
	evs, err = eventlog.DecodeWire(body)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	require.Equal(t, "y", string(evs[0].Record.Payload))
}

func TestGetEventsDefaultPayloads(t *testing.T) {
	d := newDispatcherWithLog(t, eventlog.Options{DefaultLookback: time.Hour})
	ctx := context.Background()
	okPayload(t, d.Handle(ctx, wire.Request(wire.PutEvent, encodeEvent(t, 1000, "ancient"))))
	okPayload(t, d.Handle(ctx, wire.Request(wire.PutEvent, encodeEvent(t, uint64(time.Now().UnixMicro()), "recent"))))

	for _, p := range [][]byte{nil, make([]byte, 8), make([]byte, 16)} {
		body := okPayload(t, d.Handle(ctx, wire.Request(wire.GetEvents, p)))
		evs, err := eventlog.DecodeWire(body)
		require.NoError(t, err)
		require.Len(t, evs, 1, "payload of %d bytes", len(p))
		require.Equal(t, "recent", string(evs[0].Record.Payload))
	}
}

func TestUnknownCommand(t *testing.T) {
	d := newDispatcherForTest(t)
	msg := failMessage(t, d.Handle(context.Background(), []byte{255, 1, 2}))
	require.Contains(t, msg, ErrUnknownCommand.Error())
}

func TestEmptyRequest(t *testing.T) {
	d := newDispatcherForTest(t)
	msg := failMessage(t, d.Handle(context.Background(), nil))
	require.Equal(t, ErrEmptyRequest.Error(), msg)
}

func TestGetScalarMissing(t *testing.T) {
	d := newDispatcherForTest(t)
	msg := failMessage(t, d.Handle(context.Background(), wire.Request(wire.GetScalar, []byte("absent"))))
	require.Contains(t, msg, scalar.ErrNotFound.Error())
}

func TestMalformedPayloads(t *testing.T) {
	d := newDispatcherForTest(t)
	ctx := context.Background()

	msg := failMessage(t, d.Handle(ctx, wire.Request(wire.PutScalar, []byte{0, 0})))
	require.Contains(t, msg, wire.ErrShortPayload.Error())

	msg = failMessage(t, d.Handle(ctx, wire.Request(wire.PutEvent, []byte{1, 2, 3})))
	require.Contains(t, msg, eventlog.ErrMalformedRecord.Error())

	truncated := encodeEvent(t, 5, "abc")
	msg = failMessage(t, d.Handle(ctx, wire.Request(wire.PutEvent, truncated[:len(truncated)-1])))
	require.Contains(t, msg, eventlog.ErrMalformedRecord.Error())

	msg = failMessage(t, d.Handle(ctx, wire.Request(wire.GetEvents, []byte{1, 2, 3})))
	require.Contains(t, msg, wire.ErrShortPayload.Error())
}

type panickingEvents struct{}

func (panickingEvents) Put(context.Context, eventlog.Record) (eventlog.Key, error) {
	panic("boom")
}

func (panickingEvents) AppendWire(ctx context.Context, dst []byte, _ eventlog.ReadOptions) ([]byte, int, error) {
	return dst, 0, ctx.Err()
}

func TestHandleRecoversPanic(t *testing.T) {
	obs := &recordingObserver{}
	d := New(panickingEvents{}, nil, WithObserver(obs))
	msg := failMessage(t, d.Handle(context.Background(), wire.Request(wire.PutEvent, encodeEvent(t, 1, "x"))))
	require.Contains(t, msg, "boom")
	require.Equal(t, []string{"put_event:error"}, obs.calls)
}

func TestObserverAndSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	obs := &recordingObserver{}
	d := newDispatcherForTest(t, WithObserver(obs), WithTracer(tp.Tracer("test")))
	ctx := context.Background()

	d.Handle(ctx, wire.Request(wire.PutScalar, wire.EncodeScalarPut("a", []byte("b"))))
	d.Handle(ctx, []byte{9})

	require.Equal(t, []string{"put_scalar:ok", "command(9):error"}, obs.calls)
	spans := rec.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, "wxstore.put_scalar", spans[0].Name())
	require.Equal(t, "wxstore.command(9)", spans[1].Name())
	require.Len(t, spans[1].Events(), 1)
}
