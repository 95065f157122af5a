// Package grpcserver exposes the dispatcher over gRPC. Each unary Exchange
// call carries one request envelope and returns one response envelope as
// google.protobuf.BytesValue; the standard health service reports engine
// health.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Config: config.Default()})
//	s := grpcserver.New(rt, grpcserver.Options{MaxConcurrentStreams: 1024})
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, "unix:///run/wx-storage.sock")
package grpcserver
