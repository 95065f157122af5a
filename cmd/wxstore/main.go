package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	clientcmd "github.com/rhurkes/wx-storage/internal/cmd/client"
	serverrun "github.com/rhurkes/wx-storage/internal/cmd/server"
	cfgpkg "github.com/rhurkes/wx-storage/internal/config"
	logpkg "github.com/rhurkes/wx-storage/pkg/log"
)

func main() {
	// Respect WX_LOG_LEVEL for CLI output before any config is loaded.
	level := os.Getenv("WX_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := clientcmd.NewRoot(apiURL)
	rootCmd.Short = "wx-storage runtime CLI"
	rootCmd.Long = "wx-storage is a single-binary event and scalar store. This CLI runs the server and talks to it."

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the wx-storage server (gRPC and admin HTTP)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			grpcAddr, _ := cmd.Flags().GetString("grpc")
			httpAddr, _ := cmd.Flags().GetString("http")

			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return err
			}
			cfgpkg.FromEnv(&cfg)
			if err := applyFlags(cmd, &cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir:    dataDir,
				GRPCAddr:   grpcAddr,
				HTTPAddr:   httpAddr,
				ConfigPath: configPath,
				Config:     cfg,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	f := serverStartCmd.Flags()
	f.String("config", os.Getenv("WX_CONFIG"), "Config file (JSON or YAML); watched for lookback and corruption policy changes")
	f.String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	f.String("grpc", ":50051", "gRPC listen address (host:port or unix:///path)")
	f.String("http", ":8080", "Admin HTTP listen address (empty disables)")
	f.Int("lookback-seconds", 0, "Default GetEvents lookback window in seconds")
	f.Int("retention-seconds", 0, "Drop events older than this many seconds (0 keeps everything)")
	f.String("corruption", "", "Corrupt record handling: abort|skip")
	f.String("compression", "", "Block compression: snappy|zstd|none")
	f.String("fsync", "", "Fsync mode: always|interval|never")
	f.Int("fsync-interval-ms", 0, "When --fsync=interval, group-commit window in ms")
	f.String("log-level", "", "Log level: debug|info|warn|error")
	f.String("log-format", "", "Log format: text|json")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyFlags overlays explicitly set flags onto cfg.
func applyFlags(cmd *cobra.Command, cfg *cfgpkg.Config) error {
	f := cmd.Flags()
	if f.Changed("lookback-seconds") {
		cfg.DefaultLookbackSeconds, _ = f.GetInt("lookback-seconds")
	}
	if f.Changed("retention-seconds") {
		cfg.RetentionSeconds, _ = f.GetInt("retention-seconds")
	}
	if f.Changed("corruption") {
		cfg.CorruptionPolicy, _ = f.GetString("corruption")
	}
	if f.Changed("compression") {
		cfg.Storage.Compression, _ = f.GetString("compression")
	}
	if f.Changed("fsync") {
		cfg.Storage.Fsync, _ = f.GetString("fsync")
	}
	if f.Changed("fsync-interval-ms") {
		cfg.Storage.FsyncIntervalMs, _ = f.GetInt("fsync-interval-ms")
	}
	if f.Changed("log-level") {
		cfg.Log.Level, _ = f.GetString("log-level")
	}
	if f.Changed("log-format") {
		cfg.Log.Format, _ = f.GetString("log-format")
	}
	if cfg.Storage.FsyncIntervalMs < 0 {
		return fmt.Errorf("--fsync-interval-ms must be >= 0")
	}
	return nil
}

func apiURL() string {
	if v := os.Getenv("WX_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
