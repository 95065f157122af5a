// Package config provides loading, environment overlay and file watching for
// the wx-storage server configuration.
//
// Precedence is defaults, then file (JSON or YAML by extension), then WX_*
// environment variables, then command-line flags applied by the caller.
//
//	cfg, err := config.Load("/etc/wx-storage.yaml")
//	if err != nil { ... }
//	config.FromEnv(&cfg)
//
// Watch re-reads the file on change and hands the new Config to a callback;
// only settings that are safe to change at runtime (the default lookback
// window and the corruption policy) are applied by the server.
package config
