package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	cfgpkg "github.com/rhurkes/wx-storage/internal/config"
	"github.com/rhurkes/wx-storage/internal/dispatch"
	"github.com/rhurkes/wx-storage/internal/eventlog"
	"github.com/rhurkes/wx-storage/internal/metrics"
	"github.com/rhurkes/wx-storage/internal/scalar"
	pebblestore "github.com/rhurkes/wx-storage/internal/storage/pebble"
	logpkg "github.com/rhurkes/wx-storage/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir string
	Config  cfgpkg.Config
	Logger  logpkg.Logger
	// Metrics is optional; when nil no collectors are updated.
	Metrics *metrics.Metrics
	// Now overrides the event store clock in tests.
	Now func() time.Time
}

// Runtime owns the single engine handle and the stores built on it.
type Runtime struct {
	db       *pebblestore.DB
	mu       sync.RWMutex
	config   cfgpkg.Config
	logger   logpkg.Logger
	metrics  *metrics.Metrics
	events   *eventlog.Log
	scalars  *scalar.Store
	dispatch *dispatch.Dispatcher
}

// Open opens the engine and both namespaces. An engine that cannot be
// opened is the only error the server treats as fatal.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	}
	fsync, err := pebblestore.ParseFsyncMode(cfg.Storage.Fsync)
	if err != nil {
		return nil, err
	}
	policy, err := eventlog.ParseCorruptionPolicy(cfg.CorruptionPolicy)
	if err != nil {
		return nil, err
	}

	po := &pebble.Options{}
	var cache *pebble.Cache
	if cfg.Storage.CacheBytes > 0 {
		cache = pebble.NewCache(cfg.Storage.CacheBytes)
		po.Cache = cache
	}
	sopts := pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         fsync,
		FsyncInterval: time.Duration(cfg.Storage.FsyncIntervalMs) * time.Millisecond,
		Compression:   pebblestore.Compression(cfg.Storage.Compression),
		PebbleOptions: po,
		Logger:        logpkg.PebbleLogger{L: logger.WithComponent("pebble")},
	}
	if opts.Metrics != nil {
		sopts.Metrics = opts.Metrics
	}
	db, err := pebblestore.Open(sopts)
	if cache != nil {
		cache.Unref()
	}
	if err != nil {
		return nil, fmt.Errorf("open engine at %s: %w", opts.DataDir, err)
	}

	events, err := eventlog.OpenLog(db, eventlog.Options{
		DefaultLookback: cfg.DefaultLookback(),
		Corruption:      policy,
		SequenceBlock:   uint64(cfg.SequenceBlock),
		Logger:          logger,
		Now:             opts.Now,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	scalars, err := scalar.Open(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	dopts := []dispatch.Option{dispatch.WithLogger(logger)}
	if opts.Metrics != nil {
		dopts = append(dopts, dispatch.WithObserver(opts.Metrics))
	}
	return &Runtime{
		db:       db,
		config:   cfg,
		logger:   logger,
		metrics:  opts.Metrics,
		events:   events,
		scalars:  scalars,
		dispatch: dispatch.New(events, scalars, dopts...),
	}, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Apply installs the runtime-adjustable settings of cfg: the default
// lookback window and the corruption policy. Other fields need a restart.
func (r *Runtime) Apply(cfg cfgpkg.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	policy, err := eventlog.ParseCorruptionPolicy(cfg.CorruptionPolicy)
	if err != nil {
		return err
	}
	r.events.SetDefaultLookback(cfg.DefaultLookback())
	r.events.SetCorruptionPolicy(policy)
	r.mu.Lock()
	r.config.DefaultLookbackSeconds = cfg.DefaultLookbackSeconds
	r.config.CorruptionPolicy = cfg.CorruptionPolicy
	r.mu.Unlock()
	r.logger.Info("configuration reloaded",
		logpkg.Int("default_lookback_seconds", cfg.DefaultLookbackSeconds),
		logpkg.Str("corruption_policy", policy.String()))
	return nil
}

// RunRetention runs the event retention janitor until ctx is cancelled.
func (r *Runtime) RunRetention(ctx context.Context) {
	cfg := r.Config()
	r.events.RunRetention(ctx, cfg.Retention(), cfg.RetentionInterval())
}

// Events returns the event store.
func (r *Runtime) Events() *eventlog.Log { return r.events }

// Scalars returns the scalar store.
func (r *Runtime) Scalars() *scalar.Store { return r.scalars }

// Dispatcher returns the request dispatcher.
func (r *Runtime) Dispatcher() *dispatch.Dispatcher { return r.dispatch }

// Metrics returns the collectors, or nil when metrics are disabled.
func (r *Runtime) Metrics() *metrics.Metrics { return r.metrics }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}
