package serverrun

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	cfgpkg "github.com/rhurkes/wx-storage/internal/config"
	"github.com/rhurkes/wx-storage/internal/metrics"
	"github.com/rhurkes/wx-storage/internal/runtime"
	grpcserver "github.com/rhurkes/wx-storage/internal/server/grpc"
	httpserver "github.com/rhurkes/wx-storage/internal/server/http"
	"github.com/rhurkes/wx-storage/internal/telemetry"
	logpkg "github.com/rhurkes/wx-storage/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// small wrapper to allow testing
var getenv = os.Getenv

type Options struct {
	DataDir  string
	GRPCAddr string
	// HTTPAddr is the admin listener; empty disables it.
	HTTPAddr string
	// ConfigPath, when set, is watched for runtime-adjustable settings.
	ConfigPath string
	Config     cfgpkg.Config
}

// newLogger builds the process logger from cfg, falling back to a text
// logger at the configured (or info) level.
func newLogger(cfg logpkg.Config) logpkg.Logger {
	if v := getenvDefault("WX_LOG_LEVEL", ""); v != "" {
		cfg.Level = v
	}
	l, err := logpkg.ApplyConfig(&cfg)
	if err == nil {
		return l
	}
	lvl := logpkg.InfoLevel
	if parsed, e := logpkg.ParseLevel(cfg.Level); e == nil {
		lvl = parsed
	}
	return logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
}

// Run starts the gRPC request server and the admin HTTP server and blocks
// until ctx is cancelled or a termination signal arrives. Failing to open
// the engine is returned immediately.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	storeDir := filepath.Join(opts.DataDir, "store")

	procLogger := newLogger(opts.Config.Log)
	logpkg.RedirectStdLog(procLogger)

	tp, err := telemetry.Setup(sctx, telemetry.Config{
		Enabled:      opts.Config.Telemetry.Enabled,
		OTLPEndpoint: opts.Config.Telemetry.OTLPEndpoint,
		Insecure:     opts.Config.Telemetry.Insecure,
		SampleRatio:  opts.Config.Telemetry.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	rt, err := runtime.Open(runtime.Options{
		DataDir: storeDir,
		Config:  opts.Config,
		Logger:  procLogger,
		Metrics: metrics.New(true),
	})
	if err != nil {
		procLogger.Error("cannot open storage engine", logpkg.Str("dir", storeDir), logpkg.Err(err))
		return err
	}
	defer rt.Close()

	procLogger.Info("Starting wx-storage server",
		logpkg.Str("grpc", opts.GRPCAddr),
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("data_dir", storeDir),
		logpkg.Int("default_lookback_seconds", opts.Config.DefaultLookbackSeconds),
		logpkg.Str("corruption_policy", opts.Config.CorruptionPolicy),
		logpkg.Str("compression", opts.Config.Storage.Compression),
		logpkg.Bool("tracing", tp.Enabled()),
	)

	gsrv := grpcserver.New(rt, grpcserver.Options{
		MaxConcurrentStreams: opts.Config.Server.MaxConcurrentStreams,
		StreamWorkers:        opts.Config.Server.StreamWorkers,
		MaxMessageBytes:      opts.Config.Server.MaxMessageBytes,
		Tracing:              tp.Enabled(),
		Logger:               procLogger,
	})

	var wg sync.WaitGroup
	serveErr := make(chan error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := gsrv.ListenAndServe(sctx, opts.GRPCAddr); err != nil && sctx.Err() == nil {
			procLogger.Error("grpc server stopped", logpkg.Err(err))
			serveErr <- err
			stop()
		}
	}()

	if opts.HTTPAddr != "" {
		hsrv := httpserver.New(rt, httpserver.Options{Tracing: tp.Enabled(), Logger: procLogger})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := hsrv.ListenAndServe(sctx, opts.HTTPAddr); err != nil && sctx.Err() == nil {
				procLogger.Error("http server stopped", logpkg.Err(err))
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		rt.RunRetention(sctx)
	}()

	if opts.ConfigPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := cfgpkg.Watch(sctx, opts.ConfigPath,
				func(c cfgpkg.Config) {
					if err := rt.Apply(c); err != nil {
						procLogger.Warn("rejected configuration reload", logpkg.Err(err))
					}
				},
				func(err error) { procLogger.Warn("configuration reload failed", logpkg.Err(err)) },
			)
			if err != nil {
				procLogger.Warn("configuration watch disabled", logpkg.Err(err))
			}
		}()
	}

	<-sctx.Done()
	// Servers drain on ctx; wait for them before the deferred engine close.
	wg.Wait()
	procLogger.Info("wx-storage server stopped")
	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}
