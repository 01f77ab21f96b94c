package rpc

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"gatehouse.dev/internal/obs"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter mirrors store readiness into the gRPC health service and the
// readiness gauge.
type HealthReporter struct {
	server  *health.Server
	store   Pinger
	timeout time.Duration
}

func NewHealthReporter(store Pinger) *HealthReporter {
	return &HealthReporter{
		server:  health.NewServer(),
		store:   store,
		timeout: 2 * time.Second,
	}
}

// Server returns the health service to register on a gRPC server.
func (h *HealthReporter) Server() *health.Server { return h.server }

// Update pings the store once and publishes the result.
func (h *HealthReporter) Update(ctx context.Context) bool {
	ok := true
	if h.store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := h.store.Ping(pingCtx)
		cancel()
		if err != nil {
			ok = false
			obs.Warn("store ping failed", map[string]any{"error": err.Error()})
		}
	}
	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(tokenServiceName, status)
	obs.SetReady(ok)
	return ok
}

// Run calls Update every interval until ctx is done, then marks the service
// as shutting down.
func (h *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	h.Update(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			obs.SetReady(false)
			return
		case <-ticker.C:
			h.Update(ctx)
		}
	}
}
