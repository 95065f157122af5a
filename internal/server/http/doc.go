// Package httpserver provides the admin HTTP surface: health, Prometheus
// metrics, store statistics and JSON inspection of events and scalars. It is
// not the request path; clients talk to the gRPC envelope service.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Config: config.Default(), Metrics: metrics.New(true)})
//	s := httpserver.New(rt, httpserver.Options{})
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
