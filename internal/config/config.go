package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	logpkg "github.com/rhurkes/wx-storage/pkg/log"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// DefaultLookbackSeconds is the window served by GetEvents requests that
	// carry no start. Zero serves from the beginning of the events namespace.
	DefaultLookbackSeconds int `json:"defaultLookbackSeconds" yaml:"defaultLookbackSeconds"`
	// RetentionSeconds drops older events periodically; zero keeps everything.
	RetentionSeconds         int    `json:"retentionSeconds" yaml:"retentionSeconds"`
	RetentionIntervalSeconds int    `json:"retentionIntervalSeconds" yaml:"retentionIntervalSeconds"`
	CorruptionPolicy         string `json:"corruptionPolicy" yaml:"corruptionPolicy"`
	SequenceBlock            int    `json:"sequenceBlock" yaml:"sequenceBlock"`

	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Server    ServerConfig    `json:"server" yaml:"server"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
	Log       logpkg.Config   `json:"log" yaml:"log"`
}

// StorageConfig captures engine tuning.
type StorageConfig struct {
	Compression     string `json:"compression" yaml:"compression"`
	Fsync           string `json:"fsync" yaml:"fsync"`
	FsyncIntervalMs int    `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs"`
	CacheBytes      int64  `json:"cacheBytes" yaml:"cacheBytes"`
}

// ServerConfig bounds the request server.
type ServerConfig struct {
	MaxConcurrentStreams uint32 `json:"maxConcurrentStreams" yaml:"maxConcurrentStreams"`
	StreamWorkers        uint32 `json:"streamWorkers" yaml:"streamWorkers"`
	MaxMessageBytes      int    `json:"maxMessageBytes" yaml:"maxMessageBytes"`
}

// TelemetryConfig enables span export.
type TelemetryConfig struct {
	Enabled      bool    `json:"enabled" yaml:"enabled"`
	OTLPEndpoint string  `json:"otlpEndpoint" yaml:"otlpEndpoint"`
	Insecure     bool    `json:"insecure" yaml:"insecure"`
	SampleRatio  float64 `json:"sampleRatio" yaml:"sampleRatio"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DefaultLookbackSeconds:   3600,
		RetentionIntervalSeconds: 300,
		CorruptionPolicy:         "abort",
		SequenceBlock:            4096,
		Storage: StorageConfig{
			Compression: "snappy",
			Fsync:       "always",
		},
		Server: ServerConfig{
			MaxConcurrentStreams: 1024,
			StreamWorkers:        0,
			MaxMessageBytes:      64 << 20,
		},
		Telemetry: TelemetryConfig{SampleRatio: 1},
		Log:       logpkg.Config{Level: "info", Format: "json"},
	}
}

// DefaultLookback returns the lookback window as a duration.
func (c Config) DefaultLookback() time.Duration {
	return time.Duration(c.DefaultLookbackSeconds) * time.Second
}

// Retention returns the retention window; zero disables retention.
func (c Config) Retention() time.Duration {
	return time.Duration(c.RetentionSeconds) * time.Second
}

// RetentionInterval returns how often retention runs.
func (c Config) RetentionInterval() time.Duration {
	return time.Duration(c.RetentionIntervalSeconds) * time.Second
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	if c.DefaultLookbackSeconds < 0 {
		return fmt.Errorf("config: defaultLookbackSeconds must be >= 0, got %d", c.DefaultLookbackSeconds)
	}
	if c.RetentionSeconds < 0 || c.RetentionIntervalSeconds < 0 {
		return fmt.Errorf("config: retention values must be >= 0")
	}
	switch c.CorruptionPolicy {
	case "", "abort", "skip":
	default:
		return fmt.Errorf("config: corruptionPolicy must be abort|skip, got %q", c.CorruptionPolicy)
	}
	switch c.Storage.Compression {
	case "", "snappy", "zstd", "none":
	default:
		return fmt.Errorf("config: storage.compression must be snappy|zstd|none, got %q", c.Storage.Compression)
	}
	if c.SequenceBlock < 0 {
		return fmt.Errorf("config: sequenceBlock must be >= 0")
	}
	if _, err := logpkg.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	if c.Server.MaxMessageBytes < 0 {
		return fmt.Errorf("config: server.maxMessageBytes must be >= 0")
	}
	return nil
}

// Load reads configuration from a JSON or YAML file (by extension). If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
