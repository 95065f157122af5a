// Package log provides wx-storage's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Internally it is backed by log/slog via
// a bridge handler that feeds our formatter/outputs pipeline.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("server"))
//	l.Info("listening", log.Str("addr", "unix:///run/wx.sock"))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config (json or text
// formatting; console, file and null outputs; redaction and sampling).
//
// # Interop
//
// RedirectStdLog routes the standard library logger through the facade and
// PebbleLogger satisfies pebble.Logger so engine events share the same sink.
package log
