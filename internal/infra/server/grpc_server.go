package server

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/aminkhaleghi1994/todo-app/internal/adapters/transport/grpc/middleware"
	"github.com/aminkhaleghi1994/todo-app/internal/infra/config"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-check name reported for the todo API.
const ServiceName = "todo.v1.TodoAPI"

const stopTimeout = 5 * time.Second

// Probe reports whether a dependency is usable.
type Probe func(ctx context.Context) error

// NewGRPCServer builds the ops server: health, reflection and metrics
// behind the usual interceptor chain. TLS is used when both certificate
// files are configured.
func NewGRPCServer(cfg *config.Config, logger *zap.Logger) (*grpc.Server, *health.Server, error) {
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(middleware.ChainUnaryServer(logger, cfg.RateLimit, cfg.RateBurst)),
	}
	if cfg.HTTPSCertFile != "" && cfg.HTTPSKeyFile != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.HTTPSCertFile, cfg.HTTPSKeyFile)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, grpc.Creds(creds))
	}

	srv := grpc.NewServer(opts...)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	grpc_prometheus.Register(srv)
	grpc_prometheus.EnableHandlingTimeHistogram()
	reflection.Register(srv)

	return srv, hs, nil
}

// WatchHealth runs probe every interval and publishes the result under
// ServiceName until ctx is done.
func WatchHealth(ctx context.Context, hs *health.Server, probe Probe, interval time.Duration, logger *zap.Logger) {
	check := func() {
		pctx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		if err := probe(pctx); err != nil {
			logger.Warn("health probe failed", zap.Error(err))
			hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
			return
		}
		hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
			check()
		}
	}
}

// Serve runs srv on lis until ctx is cancelled, then stops gracefully,
// forcing the stop after stopTimeout.
func Serve(ctx context.Context, srv *grpc.Server, lis net.Listener, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("ctx cancelled, stopping gRPC server")

	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	select {
	case <-time.After(stopTimeout):
		srv.Stop()
	case <-done:
	}
	logger.Info("gRPC server stopped")
	return nil
}

// StartGRPCServer listens on cfg.GRPCAddress and serves until ctx is done.
func StartGRPCServer(ctx context.Context, cfg *config.Config, probe Probe, logger *zap.Logger) error {
	srv, hs, err := NewGRPCServer(cfg, logger)
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		return err
	}

	go WatchHealth(ctx, hs, probe, 10*time.Second, logger)
	return Serve(ctx, srv, lis, logger)
}
