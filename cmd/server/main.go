// Command server runs the policy authorization control plane and data
// plane as a single gRPC process.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/wso2/policy-authz/internal/audit"
	"github.com/wso2/policy-authz/internal/authz"
	"github.com/wso2/policy-authz/internal/cache"
	"github.com/wso2/policy-authz/internal/config"
	"github.com/wso2/policy-authz/internal/controlplane"
	"github.com/wso2/policy-authz/internal/jwks"
	"github.com/wso2/policy-authz/internal/logger"
	"github.com/wso2/policy-authz/internal/metrics"
	"github.com/wso2/policy-authz/internal/repository/sqlstore"
	"github.com/wso2/policy-authz/internal/rpc"
	"github.com/wso2/policy-authz/internal/rpc/pb"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("policy-authz server starting",
		zap.String("host", cfg.ServerHost), zap.String("port", cfg.ServerPort),
		zap.String("database_provider", cfg.Database.Provider))

	db, err := sqlstore.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := db.InitSchema(); err != nil {
		log.Fatal("failed to initialize database schema", zap.Error(err))
	}
	store := sqlstore.New(db)

	metricsBus := metrics.New()

	policyCache, err := cache.New(store, cache.WithMetrics(metricsBus), cache.WithLogger(log))
	if err != nil {
		log.Fatal("failed to construct policy cache", zap.Error(err))
	}
	if cfg.Cache.Enabled {
		spec := fmt.Sprintf("@every %ds", cfg.Cache.ReloadIntervalSecs)
		if err := policyCache.StartBackgroundRefresh(spec); err != nil {
			log.Fatal("failed to start cache background refresh", zap.Error(err))
		}
		defer policyCache.StopBackgroundRefresh()
	}

	jwksCache := jwks.New(
		time.Duration(cfg.JWKS.RefreshSecs)*time.Second,
		time.Duration(cfg.JWKS.TimeoutSecs)*time.Second,
	)

	auditBus := audit.New(store, log)

	authzSvc := authz.New(store, policyCache, jwksCache, auditBus, metricsBus, log)
	controlSvc := controlplane.New(store, policyCache, auditBus)

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(rpc.AuditInterceptor(auditBus, log)))
	pb.RegisterDataPlaneServer(grpcServer, rpc.NewDataPlaneServer(authzSvc))
	pb.RegisterControlPlaneServer(grpcServer, rpc.NewControlPlaneServer(controlSvc))

	addr := net.JoinHostPort(cfg.ServerHost, cfg.ServerPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal("failed to listen", zap.String("addr", addr), zap.Error(err))
	}
	log.Info("listening", zap.String("addr", addr))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			serverErrCh <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.Info("received signal, shutting down gracefully", zap.String("signal", sig.String()))
	case err := <-serverErrCh:
		log.Error("server error", zap.Error(err))
	}

	grpcServer.GracefulStop()
	log.Info("policy-authz server shut down")
}
