package grpcserver

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/rhurkes/wx-storage/internal/runtime"
	"github.com/rhurkes/wx-storage/pkg/id"
	logpkg "github.com/rhurkes/wx-storage/pkg/log"
)

// Options bounds the server.
type Options struct {
	// MaxConcurrentStreams caps in-flight exchanges per connection.
	MaxConcurrentStreams uint32
	// StreamWorkers sizes the fixed handler pool; zero spawns a goroutine per stream.
	StreamWorkers uint32
	// MaxMessageBytes caps request and response sizes.
	MaxMessageBytes int
	// Tracing installs the OpenTelemetry stats handler.
	Tracing bool
	Logger  logpkg.Logger
}

// Server owns the gRPC server instance and runtime.
type Server struct {
	rt     *runtime.Runtime
	grpc   *grpc.Server
	health *health.Server
	lis    net.Listener
	logger logpkg.Logger
	ids    *id.Generator
}

// New constructs a gRPC server and registers the envelope and health services.
func New(rt *runtime.Runtime, opts Options, extra ...grpc.ServerOption) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	}
	var sopts []grpc.ServerOption
	if opts.MaxConcurrentStreams > 0 {
		sopts = append(sopts, grpc.MaxConcurrentStreams(opts.MaxConcurrentStreams))
	}
	if opts.StreamWorkers > 0 {
		sopts = append(sopts, grpc.NumStreamWorkers(opts.StreamWorkers))
	}
	if opts.MaxMessageBytes > 0 {
		sopts = append(sopts, grpc.MaxRecvMsgSize(opts.MaxMessageBytes), grpc.MaxSendMsgSize(opts.MaxMessageBytes))
	}
	if opts.Tracing {
		sopts = append(sopts, grpc.StatsHandler(otelgrpc.NewServerHandler()))
	}
	sopts = append(sopts, extra...)

	s := &Server{
		rt:     rt,
		grpc:   grpc.NewServer(sopts...),
		health: health.NewServer(),
		logger: logger.WithComponent("grpc"),
		ids:    id.NewGenerator(),
	}
	RegisterEnvelopeServer(s.grpc, s)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	return s
}

// Exchange hands one request envelope to the dispatcher.
func (s *Server) Exchange(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	rid := s.ids.Next().String()
	ctx = logpkg.ContextWithRequestID(ctx, rid)
	if m := s.rt.Metrics(); m != nil {
		m.ExchangeStarted()
		defer m.ExchangeFinished()
	}
	start := time.Now()
	resp := s.rt.Dispatcher().Handle(ctx, in.GetValue())
	s.logger.WithContext(ctx).Debug("exchange",
		logpkg.Int("request_bytes", len(in.GetValue())),
		logpkg.Int("response_bytes", len(resp)),
		logpkg.Duration("elapsed", time.Since(start)))
	return wrapperspb.Bytes(resp), nil
}

// Listen binds addr: "unix:///path/to.sock" for a unix socket, anything
// else is a TCP host:port.
func Listen(addr string) (net.Listener, error) {
	if path, ok := strings.CutPrefix(addr, "unix://"); ok {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return net.Listen("unix", path)
	}
	return net.Listen("tcp", addr)
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := Listen(addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve serves on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.lis = l
	hctx, stopHealth := context.WithCancel(ctx)
	defer stopHealth()
	go healthLoop(hctx, s.rt, s.health, 5*time.Second)

	s.logger.Info("grpc listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(l) }()
	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpc.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Close stops the server and closes the listener.
func (s *Server) Close() {
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
