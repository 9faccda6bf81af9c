package order

import (
	"context"
	"time"

	"github.com/appetiteclub/apt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	HealthServiceName   = "tableside.order"
	healthProbeInterval = 10 * time.Second
)

// Pinger is anything whose reachability decides whether the service is
// serving.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer exposes the standard gRPC health service and keeps it in step
// with the database connection.
type HealthServer struct {
	server   *health.Server
	pinger   Pinger
	logger   apt.Logger
	interval time.Duration
	cancel   context.CancelFunc
}

func NewHealthServer(pinger Pinger, logger apt.Logger) *HealthServer {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &HealthServer{
		server:   health.NewServer(),
		pinger:   pinger,
		logger:   logger,
		interval: healthProbeInterval,
	}
}

func (s *HealthServer) RegisterGRPCService(server *grpc.Server) {
	healthpb.RegisterHealthServer(server, s.server)
}

func (s *HealthServer) Start(ctx context.Context) error {
	probeCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.probe(ctx)
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-probeCtx.Done():
				return
			case <-ticker.C:
				s.probe(probeCtx)
			}
		}
	}()
	return nil
}

func (s *HealthServer) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	s.server.Shutdown()
	return nil
}

func (s *HealthServer) probe(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.pinger != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.pinger.Ping(pingCtx)
		cancel()
		if err != nil {
			s.logger.Info("health probe failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.server.SetServingStatus("", status)
	s.server.SetServingStatus(HealthServiceName, status)
}
