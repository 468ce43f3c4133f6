package server

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/loveknot/internal/config"
)

// HealthServiceName is the service name reported by the ops health endpoint.
const HealthServiceName = "loveknot.Matrimony"

// OpsServer is the gRPC ops endpoint: standard health checks plus reflection.
type OpsServer struct {
	GRPC   *grpc.Server
	Health *health.Server
	addr   string
}

// NewOpsServer builds the ops gRPC server. It reports NOT_SERVING until
// SetServing is called.
func NewOpsServer(cfg *config.Config) *OpsServer {
	grpcServer := grpc.NewServer()

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(HealthServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return &OpsServer{
		GRPC:   grpcServer,
		Health: healthServer,
		addr:   net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port),
	}
}

func (s *OpsServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.Health.SetServingStatus("", status)
	s.Health.SetServingStatus(HealthServiceName, status)
}

// Serve listens on the configured address and blocks.
func (s *OpsServer) Serve() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.GRPC.Serve(lis)
}

// Stop marks the service as not serving and drains in-flight calls.
func (s *OpsServer) Stop() {
	s.Health.Shutdown()
	s.GRPC.GracefulStop()
}
