// Package grpc serves the standard gRPC health service backed by the readiness checks.
package grpc

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"agenda/backend/internal/health"
)

// ServiceName is the name probes may ask about besides the empty overall name.
const ServiceName = "agenda.v1.Agenda"

type HealthServer struct {
	healthpb.UnimplementedHealthServer

	checks       []health.Check
	checkTimeout time.Duration
	log          *slog.Logger
	shuttingDown atomic.Bool
}

func NewHealthServer(checks []health.Check, checkTimeout time.Duration, log *slog.Logger) *HealthServer {
	if log == nil {
		log = slog.Default()
	}
	return &HealthServer{
		checks:       checks,
		checkTimeout: checkTimeout,
		log:          log.With(slog.String("component", "grpc.health")),
	}
}

func (s *HealthServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	switch req.GetService() {
	case "", ServiceName:
	default:
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}

	if s.shuttingDown.Load() {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	if failures := health.Run(ctx, s.checkTimeout, s.checks); len(failures) > 0 {
		for _, f := range failures {
			s.log.Warn("dependency unhealthy", slog.String("check", f.Name), slog.String("err", f.Err))
		}
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

// Shutdown makes every later Check report NOT_SERVING.
func (s *HealthServer) Shutdown() {
	s.shuttingDown.Store(true)
}

// NewServer builds a gRPC server with the health service registered.
func NewServer(hs *HealthServer, requestTimeout time.Duration, opts ...grpclib.ServerOption) *grpclib.Server {
	opts = append([]grpclib.ServerOption{
		grpclib.UnaryInterceptor(RequestTimeoutInterceptor(requestTimeout)),
	}, opts...)
	srv := grpclib.NewServer(opts...)
	healthpb.RegisterHealthServer(srv, hs)
	return srv
}

// RequestTimeoutInterceptor applies timeout to calls that arrive without a deadline.
func RequestTimeoutInterceptor(timeout time.Duration) grpclib.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *grpclib.UnaryServerInfo, handler grpclib.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

// Shutdown stops srv gracefully, forcing it once timeout elapses.
func Shutdown(log *slog.Logger, srv *grpclib.Server, timeout time.Duration) {
	log.Info("shutting down grpc server", slog.Duration("timeout", timeout))

	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-timer.C:
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		srv.Stop()
	}
}
