package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/cabinet/internal/platform/timeouts"
	"github.com/louisbranch/cabinet/internal/services/fiscal/api"
	fiscalsqlite "github.com/louisbranch/cabinet/internal/services/fiscal/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// RuntimeConfig controls fiscal service startup and loop behavior.
type RuntimeConfig struct {
	Port          int
	DBPath        string
	PollInterval  time.Duration
	BatchSize     int
	DisableLegacy bool
}

const (
	defaultFiscalPort = 8095
	defaultFiscalDB   = "data/fiscal.db"
)

// HealthService is the health check name that reports the regeneration loop.
const HealthService = "fiscal.regeneration"

// Run opens the fiscal store, serves the run API and gRPC health, and
// regenerates stale runs until ctx is cancelled.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultFiscalPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultFiscalDB
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create fiscal storage dir: %w", err)
		}
	}

	store, err := fiscalsqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open fiscal sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close fiscal sqlite store: %v", closeErr)
		}
	}()

	service := NewService(store, Options{DisableLegacy: cfg.DisableLegacy})
	loop := NewRegenerator(service, store, RegeneratorConfig{
		PollInterval: cfg.PollInterval,
		BatchSize:    cfg.BatchSize,
	}, log.Printf)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on fiscal port %d: %w", cfg.Port, err)
	}
	defer listener.Close()
	return serve(ctx, listener, service, loop)
}

type loopRunner interface {
	Run(ctx context.Context) error
}

// serve runs the API and health service on listener alongside loop. It
// returns when ctx ends, when the loop exits, or when the server fails.
func serve(ctx context.Context, listener net.Listener, service *Service, loop loopRunner) error {
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	api.Register(grpcServer, service)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(HealthService, grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	log.Printf("fiscal server listening at %v", listener.Addr())

	loopCtx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()
	loopErr := make(chan error, 1)
	go func() {
		loopErr <- loop.Run(loopCtx)
	}()

	select {
	case err := <-serveErr:
		// The API is gone; stop reporting SERVING and end the loop.
		healthServer.Shutdown()
		grpcServer.Stop()
		cancelLoop()
		<-loopErr
		if err == nil {
			err = errors.New("fiscal server stopped")
		}
		return fmt.Errorf("serve fiscal grpc: %w", err)
	case err := <-loopErr:
		healthServer.Shutdown()
		stopGracefully(grpcServer, timeouts.Shutdown)
		<-serveErr
		return err
	}
}

func stopGracefully(server *grpc.Server, timeout time.Duration) {
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		server.Stop()
	}
}
