// Package runtime wires the engine, the event and scalar stores and the
// dispatcher into a single-node wx-storage instance. It owns the one engine
// handle shared by every request.
//
// Example:
//
//	rt, err := runtime.Open(runtime.Options{DataDir: "./data", Config: config.Default()})
//	if err != nil { ... }
//	defer rt.Close()
//	resp := rt.Dispatcher().Handle(ctx, req)
package runtime
