package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/muzz-match/internal/config"
)

// HealthCheck checks one dependency.
type HealthCheck func(ctx context.Context) error

// Health publishes dependency checks through grpc.health.v1. Each check is
// exposed as its own service name; "" is SERVING only when all pass.
type Health struct {
	srv    *health.Server
	checks map[string]HealthCheck
	log    *slog.Logger
}

func NewHealth(log *slog.Logger, checks map[string]HealthCheck) *Health {
	h := &Health{srv: health.NewServer(), checks: checks, log: log}
	h.srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Refresh runs every check and updates the published statuses.
func (h *Health) Refresh(ctx context.Context) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	overall := healthpb.HealthCheckResponse_SERVING
	for _, name := range names {
		status := healthpb.HealthCheckResponse_SERVING
		if err := h.checks[name](ctx); err != nil {
			h.log.Warn("health check failed", "check", name, "err", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
			overall = status
		}
		h.srv.SetServingStatus(name, status)
	}
	h.srv.SetServingStatus("", overall)
}

// NewGRPCServer builds the ops server: health plus reflection for grpcurl.
func NewGRPCServer(h *Health) *grpc.Server {
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, h.srv)
	reflection.Register(grpcServer)
	return grpcServer
}

// StartGRPCServer serves until ctx is cancelled, then stops gracefully.
func StartGRPCServer(ctx context.Context, cfg *config.Config, grpcServer *grpc.Server) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	return grpcServer.Serve(lis)
}
