package api

import (
	"context"
	"fmt"
	"net"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthServer exposes the standard gRPC health service for orchestrator probes.
type HealthServer struct {
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
}

// NewHealthServer binds address and registers the health and reflection services.
func NewHealthServer(address string, opts ...grpc.ServerOption) (*HealthServer, error) {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}

	serverOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(grpc_prometheus.UnaryServerInterceptor),
		grpc.ChainStreamInterceptor(grpc_prometheus.StreamServerInterceptor),
	}
	serverOpts = append(serverOpts, opts...)
	grpcServer := grpc.NewServer(serverOpts...)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	grpc_prometheus.Register(grpcServer)

	reflection.Register(grpcServer)

	return &HealthServer{grpcServer: grpcServer, health: healthSrv, listener: lis}, nil
}

// Start serves health checks until Shutdown is invoked.
func (h *HealthServer) Start() error {
	if h.grpcServer == nil || h.listener == nil {
		return fmt.Errorf("health server not initialised")
	}
	return h.grpcServer.Serve(h.listener)
}

// SetServing flips the overall serving status reported to probes.
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
}

// Shutdown attempts a graceful stop, falling back to Stop after ctx expires.
func (h *HealthServer) Shutdown(ctx context.Context) {
	if h.grpcServer == nil {
		return
	}
	h.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		h.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		h.grpcServer.Stop()
	case <-stopped:
	}
}

// Address exposes the bound listener address.
func (h *HealthServer) Address() string {
	if h.listener == nil {
		return ""
	}
	return h.listener.Addr().String()
}
