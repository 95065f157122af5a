// Package client provides the `wxstore` command-line client.
//
// The CLI speaks the envelope protocol to the gRPC request server and reads
// statistics from the admin HTTP server. It is intended for operators and
// for poking at a local store during development.
//
// # Address configuration
//
// The gRPC address is read from WX_GRPC (default 127.0.0.1:50051); use
// unix:///path/to.sock for a unix socket. The admin base URL comes from the
// embedding application via a BaseURLFunc.
//
// Usage
//
//	wxstore event put --at 2024-05-01T12:00:00Z --kind 3 --data '{"wfo":"OAX"}'
//	wxstore event get --start 1714564800000000
//	wxstore event get --after AAYXX...==
//	wxstore kv put last_poll 1714564800
//	wxstore kv get last_poll
//	wxstore stats
package client
