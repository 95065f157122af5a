// Package serverrun exposes the Run entrypoint used by the CLI to start the
// wx-storage runtime with its gRPC request server and admin HTTP server,
// handling lifecycle, config reload and shutdown.
//
// Example:
//
//	opts := serverrun.Options{DataDir: "./data", GRPCAddr: "unix:///run/wx.sock", HTTPAddr: ":8080", Config: config.Default()}
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = serverrun.Run(ctx, opts)
package serverrun
