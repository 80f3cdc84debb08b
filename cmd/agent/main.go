// Command agent runs the edge-cache companion process: it polls a single
// policy store from a control-plane server and serves IsAuthorized
// locally against the synced copy.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/wso2/policy-authz/internal/agent"
	"github.com/wso2/policy-authz/internal/config"
	"github.com/wso2/policy-authz/internal/id"
	"github.com/wso2/policy-authz/internal/logger"
	"github.com/wso2/policy-authz/internal/metrics"
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

	storeId, err := id.NewPolicyStoreId(cfg.Agent.PolicyStoreId)
	if err != nil {
		log.Fatal("invalid AGENT_POLICY_STORE_ID", zap.Error(err))
	}

	log.Info("policy-authz agent starting",
		zap.String("control_plane_addr", cfg.Agent.ControlPlaneAddr),
		zap.String("store_id", storeId.String()),
		zap.Int("poll_interval_secs", cfg.Agent.PollIntervalSecs))

	conn, err := grpc.NewClient(cfg.Agent.ControlPlaneAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal("failed to dial control plane", zap.String("addr", cfg.Agent.ControlPlaneAddr), zap.Error(err))
	}
	defer conn.Close()
	client := pb.NewControlPlaneClient(conn)

	metricsBus := metrics.New()

	a, err := agent.New(agent.Config{
		StoreId:        storeId,
		PollInterval:   time.Duration(cfg.Agent.PollIntervalSecs) * time.Second,
		InitialBackoff: time.Second,
		MaxBackoff:     time.Minute,
	}, client, metricsBus, log)
	if err != nil {
		log.Fatal("failed to construct agent", zap.Error(err))
	}

	pollCtx, cancelPoll := context.WithCancel(context.Background())
	go a.Run(pollCtx)
	defer cancelPoll()

	grpcServer := grpc.NewServer()
	pb.RegisterDataPlaneServer(grpcServer, agent.NewServer(a))

	addr := net.JoinHostPort("0.0.0.0", cfg.Agent.ListenPort)
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
	log.Info("policy-authz agent shut down")
}
