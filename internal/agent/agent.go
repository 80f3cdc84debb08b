// Package agent implements the edge-cache companion process: it polls one
// policy store's policies and schema from a control plane on an interval,
// compiles them locally, and serves IsAuthorized decisions against that
// in-memory copy so a caller never pays a network hop to the control plane
// for every decision. Every successful poll atomically replaces the
// previous compiled set (state-of-the-world), mirroring the same
// replace-wholesale approach the xDS client pattern it's grounded on uses
// for resource updates. Poll failures back off exponentially, the same
// shape as that client's reconnect manager.
package agent

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/compiler"
	"github.com/wso2/policy-authz/internal/domainerr"
	"github.com/wso2/policy-authz/internal/evaluator"
	"github.com/wso2/policy-authz/internal/id"
	"github.com/wso2/policy-authz/internal/metrics"
	"github.com/wso2/policy-authz/internal/rpc/pb"
)

// Config configures one Agent instance.
type Config struct {
	StoreId        id.PolicyStoreId
	PollInterval   time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// ControlPlane is the narrow slice of pb.ControlPlaneClient the agent
// needs, kept as an interface so tests can substitute a fake without a
// live gRPC connection.
type ControlPlane interface {
	ListPolicies(ctx context.Context, req *pb.ListPoliciesRequest) (*pb.ListPoliciesResponse, error)
	GetSchema(ctx context.Context, req *pb.GetSchemaRequest) (*pb.GetSchemaResponse, error)
}

// Agent holds the locally cached compiled policy set for one store and
// refreshes it by polling a control plane. The zero value is not usable;
// construct with New.
type Agent struct {
	cfg      Config
	client   ControlPlane
	compiler *compiler.Compiler
	metrics  *metrics.Metrics
	log      *zap.Logger

	compiled atomic.Pointer[compiler.CompiledPolicySet]

	reconnectCount int
}

// New constructs an Agent for cfg.StoreId, polling client on cfg.PollInterval.
func New(cfg Config, client ControlPlane, m *metrics.Metrics, log *zap.Logger) (*Agent, error) {
	comp, err := compiler.NewCompiler()
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Agent{cfg: cfg, client: client, compiler: comp, metrics: m, log: log}, nil
}

// Run polls until ctx is cancelled. The first poll runs immediately so the
// agent can serve decisions as soon as possible; IsAuthorized fails closed
// with domainerr.ErrAgentNotSynced until that first poll succeeds.
func (a *Agent) Run(ctx context.Context) {
	a.pollOnce(ctx)
	for {
		delay := a.cfg.PollInterval
		if a.compiled.Load() == nil {
			delay = a.nextBackoff()
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
			a.pollOnce(ctx)
		}
	}
}

func (a *Agent) pollOnce(ctx context.Context) {
	set, err := a.fetch(ctx)
	if err != nil {
		a.log.Warn("control plane sync failed", zap.String("store_id", a.cfg.StoreId.String()), zap.Error(err))
		return
	}
	a.reconnectCount = 0
	a.compiled.Store(set)
	a.metrics.RecordSync(time.Now())
	a.log.Info("synced policy set", zap.String("store_id", a.cfg.StoreId.String()), zap.Int("policy_count", len(set.Policies)))
}

// nextBackoff returns the next poll delay after a failed sync, doubling
// from InitialBackoff up to MaxBackoff. Only consulted while unsynced;
// once synced, polls stay on the fixed PollInterval and a transient
// failure just waits for the next tick.
func (a *Agent) nextBackoff() time.Duration {
	delay := time.Duration(float64(a.cfg.InitialBackoff) * math.Pow(2, float64(a.reconnectCount)))
	if delay > a.cfg.MaxBackoff {
		delay = a.cfg.MaxBackoff
	}
	a.reconnectCount++
	return delay
}

func (a *Agent) fetch(ctx context.Context) (*compiler.CompiledPolicySet, error) {
	storeId := a.cfg.StoreId.String()

	statements := make(map[string]string)
	pageToken := ""
	for {
		resp, err := a.client.ListPolicies(ctx, &pb.ListPoliciesRequest{PolicyStoreId: storeId, PageToken: pageToken, PageSize: 100})
		if err != nil {
			return nil, fmt.Errorf("list policies: %w", err)
		}
		for _, p := range resp.Policies {
			statements[p.Id] = p.Statement
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	schemaResp, err := a.client.GetSchema(ctx, &pb.GetSchemaRequest{PolicyStoreId: storeId})
	if err != nil {
		return nil, fmt.Errorf("get schema: %w", err)
	}
	var schema *authzmodel.ParsedSchema
	if schemaResp.Schema != "" {
		schema, err = authzmodel.ParseSchema([]byte(schemaResp.Schema))
		if err != nil {
			return nil, fmt.Errorf("parse schema: %w", err)
		}
	}

	set, failures := a.compiler.CompilePolicySet(statements, schema)
	if len(failures) > 0 {
		return nil, fmt.Errorf("%d polic(ies) failed to compile", len(failures))
	}
	return set, nil
}

// IsAuthorized evaluates req against the locally cached compiled policy
// set. It fails closed with domainerr.ErrAgentNotSynced until the first
// successful poll has populated the cache.
func (a *Agent) IsAuthorized(req evaluator.Request) (*evaluator.Result, error) {
	set := a.compiled.Load()
	if set == nil {
		return nil, domainerr.ErrAgentNotSynced
	}
	return evaluator.Evaluate(set, req)
}
