// Package server wires the crowdfund runtime and gRPC lifecycle.
package server

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

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Yochiyuu/stellar-crowdFunding/internal/platform/logger"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/platform/timeouts"
	crowdfundservice "github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/api/grpc/crowdfund"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/api/grpc/metadata"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/auth"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/identity"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/engine"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/ledger"
	crowdfundsqlite "github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/storage/sqlite"
)

// Options configures a Server.
type Options struct {
	// DBPath is the sqlite database file; parent directories are created.
	DBPath string
	// EngineIdentity holds escrowed donations.
	EngineIdentity identity.ID
	// Grant verifies caller identity grants.
	Grant auth.GrantConfig
	// Logger receives structured service logs. Nil discards them.
	Logger *logger.Logger
	// Now overrides the domain clock.
	Now func() time.Time
}

// Server hosts the crowdfund gRPC API and storage lifecycle.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      *crowdfundsqlite.Store
	engine     *engine.Engine
	log        *logger.Logger
}

// New creates a configured crowdfund server listening on the provided port.
func New(port int, opts Options) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port), opts)
}

// NewWithAddr creates a configured crowdfund server for the provided address.
func NewWithAddr(addr string, opts Options) (*Server, error) {
	if strings.TrimSpace(opts.DBPath) == "" {
		opts.DBPath = filepath.Join("data", "crowdfund.db")
	}
	if opts.EngineIdentity.IsZero() {
		return nil, errors.New("engine identity is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	store, err := openCrowdfundStore(opts.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	authz := auth.ContextAuthorizer{}
	ledgerSvc := ledger.New(store, authz, ledger.WithClock(opts.Now), ledger.WithLogger(opts.Logger))
	eng, err := engine.New(store, ledgerSvc, authz, opts.EngineIdentity, engine.WithClock(opts.Now), engine.WithLogger(opts.Logger))
	if err != nil {
		_ = store.Close()
		_ = listener.Close()
		return nil, fmt.Errorf("build campaign engine: %w", err)
	}
	apiService, err := crowdfundservice.NewService(ledgerSvc, eng)
	if err != nil {
		_ = store.Close()
		_ = listener.Close()
		return nil, fmt.Errorf("build crowdfund service: %w", err)
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			metadata.RequestIDInterceptor(nil),
			metadata.AccessLogInterceptor(opts.Logger.With("component", "grpc")),
			metadata.GrantInterceptor(opts.Grant),
		),
	)
	healthServer := health.NewServer()
	crowdfundservice.RegisterCrowdfundServer(grpcServer, apiService)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(crowdfundservice.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
		engine:     eng,
		log:        opts.Logger,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a crowdfund server until context cancellation.
func Run(ctx context.Context, port int, opts Options) error {
	server, err := New(port, opts)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the gRPC server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("crowdfund server listening at %v", s.listener.Addr())
	s.log.Info("crowdfund server started", "addr", s.listener.Addr().String(), "engine_identity", s.engine.Identity().String())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		if s.health != nil {
			s.health.Shutdown()
		}
		s.gracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

// gracefulStop drains in-flight RPCs, stopping hard once
// timeouts.GracefulStop elapses.
func (s *Server) gracefulStop() {
	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeouts.GracefulStop):
		log.Printf("graceful stop timed out after %v", timeouts.GracefulStop)
		s.grpcServer.Stop()
		<-stopped
	}
}

// Close releases crowdfund server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close crowdfund store: %v", err)
		}
	}
	s.log.Sync()
}

func openCrowdfundStore(path string) (*crowdfundsqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := crowdfundsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open crowdfund sqlite store: %w", err)
	}
	return store, nil
}
