package config

import (
	"os"
	"strconv"
)

// FromEnv overlays WX_* environment variables onto cfg. Unparseable values
// are ignored.
func FromEnv(cfg *Config) {
	envInt("WX_DEFAULT_LOOKBACK_SECONDS", &cfg.DefaultLookbackSeconds)
	envInt("WX_RETENTION_SECONDS", &cfg.RetentionSeconds)
	envInt("WX_RETENTION_INTERVAL_SECONDS", &cfg.RetentionIntervalSeconds)
	envInt("WX_SEQUENCE_BLOCK", &cfg.SequenceBlock)
	if v := os.Getenv("WX_CORRUPTION_POLICY"); v != "" {
		cfg.CorruptionPolicy = v
	}
	if v := os.Getenv("WX_COMPRESSION"); v != "" {
		cfg.Storage.Compression = v
	}
	if v := os.Getenv("WX_FSYNC"); v != "" {
		cfg.Storage.Fsync = v
	}
	envInt("WX_FSYNC_INTERVAL_MS", &cfg.Storage.FsyncIntervalMs)
	if v := os.Getenv("WX_CACHE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Storage.CacheBytes = n
		}
	}
	envUint32("WX_MAX_CONCURRENT_STREAMS", &cfg.Server.MaxConcurrentStreams)
	envUint32("WX_STREAM_WORKERS", &cfg.Server.StreamWorkers)
	envInt("WX_MAX_MESSAGE_BYTES", &cfg.Server.MaxMessageBytes)
	if v := os.Getenv("WX_TELEMETRY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Telemetry.Enabled = b
		}
	}
	if v := os.Getenv("WX_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v := os.Getenv("WX_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("WX_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envUint32(name string, dst *uint32) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			*dst = uint32(n)
		}
	}
}
