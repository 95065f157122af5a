package grpcserver

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rhurkes/wx-storage/internal/runtime"
)

// healthLoop keeps the standard gRPC health service in step with the engine
// until ctx is cancelled.
func healthLoop(ctx context.Context, rt *runtime.Runtime, hs *health.Server, every time.Duration) {
	set := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if err := rt.CheckHealth(ctx); err != nil && ctx.Err() == nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", status)
		hs.SetServingStatus(EnvelopeServiceName, status)
	}
	set()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			set()
		}
	}
}
