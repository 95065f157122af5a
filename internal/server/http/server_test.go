package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	cfgpkg "github.com/rhurkes/wx-storage/internal/config"
	"github.com/rhurkes/wx-storage/internal/eventlog"
	"github.com/rhurkes/wx-storage/internal/metrics"
	"github.com/rhurkes/wx-storage/internal/runtime"
	"github.com/rhurkes/wx-storage/internal/wire"
	logpkg "github.com/rhurkes/wx-storage/pkg/log"
)

func newServerForTest(t *testing.T) (*Server, *runtime.Runtime) {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Config: cfgpkg.Default(), Metrics: metrics.New(false)})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	logger, _ := logpkg.ApplyConfig(&logpkg.Config{Level: "error", Format: "text", Outputs: []string{"null"}})
	return New(rt, Options{Logger: logger}), rt
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	s, _ := newServerForTest(t)
	w := serve(s, http.MethodGet, "/v1/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, rt := newServerForTest(t)
	rt.Dispatcher().Handle(context.Background(), wire.Request(wire.GetScalar, []byte("missing")))
	w := serve(s, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `wxstore_commands_total{command="get_scalar",status="error"} 1`) {
		t.Fatalf("metrics body missing command counter:\n%s", w.Body.String())
	}
}

func TestStatsHandler(t *testing.T) {
	s, rt := newServerForTest(t)
	ctx := context.Background()
	for _, ts := range []uint64{10, 20} {
		if _, err := rt.Events().Put(ctx, eventlog.Record{TimestampMicros: ts, Payload: []byte("p")}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	w := serve(s, http.MethodGet, "/v1/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var body struct {
		Events eventlog.Stats `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Events.Count != 2 || body.Events.FirstMicros != 10 || body.Events.LastMicros != 20 {
		t.Fatalf("stats: %+v", body.Events)
	}
}

func TestEventsPagingAndTrim(t *testing.T) {
	s, rt := newServerForTest(t)
	ctx := context.Background()
	for _, ts := range []uint64{100, 200, 300} {
		if _, err := rt.Events().Put(ctx, eventlog.Record{TimestampMicros: ts, Kind: 3, Payload: []byte("p")}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	w := serve(s, http.MethodGet, "/v1/events?start=150&limit=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d %s", w.Code, w.Body.String())
	}
	var page struct {
		Events []struct {
			TimestampMicros uint64 `json:"timestampMicros"`
			Kind            uint16 `json:"kind"`
		} `json:"events"`
		Next string `json:"next"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Events) != 1 || page.Events[0].TimestampMicros != 200 || page.Events[0].Kind != 3 || page.Next == "" {
		t.Fatalf("first page: %+v", page)
	}

	w = serve(s, http.MethodGet, "/v1/events?after="+page.Next, "")
	page.Events, page.Next = nil, ""
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Events) != 1 || page.Events[0].TimestampMicros != 300 {
		t.Fatalf("second page: %+v", page)
	}

	if w := serve(s, http.MethodDelete, "/v1/events?before=250", ""); w.Code != http.StatusNoContent {
		t.Fatalf("trim status: %d", w.Code)
	}
	evs, err := rt.Events().Get(ctx, eventlog.ReadOptions{Start: 1})
	if err != nil || len(evs) != 1 {
		t.Fatalf("after trim: %v %v", evs, err)
	}

	if w := serve(s, http.MethodGet, "/v1/events?after=zz", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad key status: %d", w.Code)
	}
	if w := serve(s, http.MethodDelete, "/v1/events", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("missing before status: %d", w.Code)
	}
}

func TestScalarsHandler(t *testing.T) {
	s, _ := newServerForTest(t)
	if w := serve(s, http.MethodGet, "/v1/scalars/last_poll", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing status: %d", w.Code)
	}
	if w := serve(s, http.MethodPut, "/v1/scalars/last_poll", `{"value":"MTIz"}`); w.Code != http.StatusNoContent {
		t.Fatalf("put status: %d", w.Code)
	}
	w := serve(s, http.MethodGet, "/v1/scalars/last_poll", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status: %d", w.Code)
	}
	var body struct {
		Value []byte `json:"value"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || string(body.Value) != "123" {
		t.Fatalf("get body: %q %v", body.Value, err)
	}
	if w := serve(s, http.MethodDelete, "/v1/scalars/last_poll", ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete status: %d", w.Code)
	}
}

func TestEventsLongPoll(t *testing.T) {
	s, rt := newServerForTest(t)
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- serve(s, http.MethodGet, "/v1/events?start=400&wait=5s", "") }()

	time.Sleep(50 * time.Millisecond)
	if _, err := rt.Events().Put(context.Background(), eventlog.Record{TimestampMicros: 500, Payload: []byte("late")}); err != nil {
		t.Fatalf("put: %v", err)
	}
	w := <-done
	var page struct {
		Events []struct {
			TimestampMicros uint64 `json:"timestampMicros"`
		} `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Events) != 1 || page.Events[0].TimestampMicros != 500 {
		t.Fatalf("long poll page: %+v", page)
	}

	if w := serve(s, http.MethodGet, "/v1/events?wait=forever", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad wait status: %d", w.Code)
	}
}

func TestEventsBatchAppend(t *testing.T) {
	s, rt := newServerForTest(t)
	body := `[{"timestampMicros":20,"kind":1,"payload":"YQ=="},{"timestampMicros":10,"kind":2,"payload":"Yg=="}]`
	w := serve(s, http.MethodPost, "/v1/events", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Keys []string `json:"keys"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || len(resp.Keys) != 2 {
		t.Fatalf("decode: %v %+v", err, resp)
	}
	evs, err := rt.Events().Get(context.Background(), eventlog.ReadOptions{Start: 1})
	if err != nil || len(evs) != 2 || string(evs[0].Record.Payload) != "b" {
		t.Fatalf("stored events: %v %v", evs, err)
	}

	if w := serve(s, http.MethodPost, "/v1/events", `[]`); w.Code != http.StatusBadRequest {
		t.Fatalf("empty batch status: %d", w.Code)
	}
	if w := serve(s, http.MethodPost, "/v1/events", `[{"kind":1}]`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing timestamp status: %d", w.Code)
	}
}

func TestEventsAppendBodyLimit(t *testing.T) {
	s, rt := newServerForTest(t)
	body := `[{"timestampMicros":1,"kind":1,"payload":"` + strings.Repeat("A", 33<<20) + `"}]`
	if w := serve(s, http.MethodPost, "/v1/events", body); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status: %d", w.Code)
	}
	evs, err := rt.Events().Get(context.Background(), eventlog.ReadOptions{Start: 1})
	if err != nil || len(evs) != 0 {
		t.Fatalf("stored events: %v %v", evs, err)
	}
}
