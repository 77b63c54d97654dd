package health

import (
	"log/slog"
	"net"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dicekv/dicekv/server/internal/auth"
)

// ServiceName is the health service name reported alongside the overall status.
const ServiceName = "dicekv.Store"

// Server wraps a gRPC server that only exposes the health service.
type Server struct {
	grpc   *grpc.Server
	health *grpchealth.Server
}

// New builds the server. mode, header and key configure the API key
// interceptor the same way as the HTTP middleware.
func New(mode, header, key string) *Server {
	hs := grpchealth.NewServer()
	gs := grpc.NewServer(grpc.UnaryInterceptor(auth.APIKeyInterceptor(mode, header, key)))
	healthpb.RegisterHealthServer(gs, hs)

	s := &Server{grpc: gs, health: hs}
	s.set(healthpb.HealthCheckResponse_SERVING)
	return s
}

// Serve accepts connections on lis until Shutdown is called.
func (s *Server) Serve(lis net.Listener) error {
	slog.Info("health: gRPC probe listening", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// MarkNotServing flips every status to NOT_SERVING without closing
// connections.
func (s *Server) MarkNotServing() {
	s.set(healthpb.HealthCheckResponse_NOT_SERVING)
}

// Shutdown marks the server NOT_SERVING and stops it gracefully.
func (s *Server) Shutdown() {
	s.MarkNotServing()
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) set(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
