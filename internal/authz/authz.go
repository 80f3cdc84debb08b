// Package authz is the use-case layer: it composes the policy-set cache,
// the evaluator, token validation, and the audit/metrics pipelines into
// the handful of operations the RPC surface exposes. Nothing outside this
// package knows how an IsAuthorized decision is actually produced.
package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wso2/policy-authz/internal/audit"
	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/cache"
	"github.com/wso2/policy-authz/internal/claims"
	"github.com/wso2/policy-authz/internal/compiler"
	"github.com/wso2/policy-authz/internal/domainerr"
	"github.com/wso2/policy-authz/internal/evaluator"
	"github.com/wso2/policy-authz/internal/id"
	"github.com/wso2/policy-authz/internal/jwks"
	"github.com/wso2/policy-authz/internal/jwtvalidate"
	"github.com/wso2/policy-authz/internal/metrics"
)

// IdentitySourceLoader is the narrow repository slice Service needs for
// token-based authorization, kept local to avoid importing all of
// repository.Store where only one method is used.
type IdentitySourceLoader interface {
	GetIdentitySource(ctx context.Context, storeId id.PolicyStoreId, sourceId id.IdentitySourceId) (*authzmodel.IdentitySource, error)
}

// Service implements the IsAuthorized family of use cases described by the
// data-plane RPC surface.
type Service struct {
	store  IdentitySourceLoader
	cache  *cache.Cache
	jwks   *jwks.Cache
	audit  *audit.Bus
	metric *metrics.Metrics
	log    *zap.Logger
}

// New constructs a Service. audit and log may be nil; a nil audit.Bus
// disables audit emission entirely (useful for TestAuthorization-only
// embeddings), and a nil logger is replaced with a no-op one.
func New(store IdentitySourceLoader, c *cache.Cache, jwksCache *jwks.Cache, auditBus *audit.Bus, m *metrics.Metrics, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Service{store: store, cache: c, jwks: jwksCache, audit: auditBus, metric: m, log: log}
}

// Request is the caller-facing shape of one authorization check.
type Request struct {
	StoreId   id.PolicyStoreId
	Principal authzmodel.EntityIdentifier
	Action    authzmodel.EntityIdentifier
	Resource  authzmodel.EntityIdentifier
	Context   map[string]any
	Entities  map[authzmodel.EntityIdentifier]*authzmodel.Entity
}

// TokenRequest is the caller-facing shape of a token-based authorization
// check: the principal is derived from AccessToken, not supplied directly.
type TokenRequest struct {
	StoreId          id.PolicyStoreId
	IdentitySourceId id.IdentitySourceId
	AccessToken      string
	Action           authzmodel.EntityIdentifier
	Resource         authzmodel.EntityIdentifier
	Context          map[string]any
	Entities         map[authzmodel.EntityIdentifier]*authzmodel.Entity
}

// IsAuthorized looks up (building on miss) the store's compiled policy
// set, evaluates the request against it, and emits an
// AuthorizationPerformed audit event without waiting for it to land.
// Failures before evaluation (unknown store, compilation error) are
// returned as errors, never silently folded into Deny.
func (s *Service) IsAuthorized(ctx context.Context, req Request) (*evaluator.Result, error) {
	start := time.Now()
	set, err := s.cache.Get(ctx, req.StoreId)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerr.ErrCompilationError, err)
	}

	result, err := evaluator.Evaluate(set, evaluator.Request{
		Principal: req.Principal,
		Action:    req.Action,
		Resource:  req.Resource,
		Context:   req.Context,
		Entities:  req.Entities,
	})
	if err != nil {
		return nil, err
	}

	s.metric.RecordAuthorization(result.Decision, time.Since(start).Microseconds())
	s.publishAuthorizationPerformed(ctx, req.StoreId, req, result)
	return result, nil
}

// IsAuthorizedWithToken validates AccessToken against the named identity
// source, maps its claims into a principal entity (overriding any
// caller-supplied entity sharing that id), and proceeds as IsAuthorized.
func (s *Service) IsAuthorizedWithToken(ctx context.Context, req TokenRequest) (*evaluator.Result, error) {
	source, err := s.store.GetIdentitySource(ctx, req.StoreId, req.IdentitySourceId)
	if err != nil {
		return nil, err
	}

	kf, err := s.jwks.Keyfunc(ctx, source.Config.IssuerURL, source.Config.JWKSUri)
	if err != nil {
		return nil, err
	}
	validated, err := jwtvalidate.Validate(req.AccessToken, kf, jwtvalidate.Params{
		ExpectedIssuer:    source.Config.IssuerURL,
		AcceptedClientIds: source.Config.AcceptedClientIds,
	})
	if err != nil {
		return nil, err
	}

	mapping := source.Claims
	if mapping == nil {
		mapping = &authzmodel.ClaimsMapping{PrincipalIdClaimPath: "sub", GroupClaimPath: source.Config.GroupClaimPath}
	}
	principal, err := claims.MapToEntity(validated.Raw, mapping, source.ResolvedPrincipalEntityType(), source.DefaultGroupEntityType())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerr.ErrTokenInvalid, err)
	}

	entities := make(map[authzmodel.EntityIdentifier]*authzmodel.Entity, len(req.Entities)+1)
	for k, v := range req.Entities {
		entities[k] = v
	}
	entities[principal.Identifier] = principal

	return s.IsAuthorized(ctx, Request{
		StoreId:   req.StoreId,
		Principal: principal.Identifier,
		Action:    req.Action,
		Resource:  req.Resource,
		Context:   req.Context,
		Entities:  entities,
	})
}

// BatchItem result pairs index with independent success/failure: one bad
// item must not fail the whole batch.
type BatchItem struct {
	Result *evaluator.Result
	Err    error
}

// BatchIsAuthorized evaluates every item against the same compiled policy
// set, fetched once for the whole batch rather than once per item.
func (s *Service) BatchIsAuthorized(ctx context.Context, storeId id.PolicyStoreId, items []Request) ([]BatchItem, error) {
	set, err := s.cache.Get(ctx, storeId)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerr.ErrCompilationError, err)
	}

	out := make([]BatchItem, len(items))
	for i, item := range items {
		start := time.Now()
		result, err := evaluator.Evaluate(set, evaluator.Request{
			Principal: item.Principal,
			Action:    item.Action,
			Resource:  item.Resource,
			Context:   item.Context,
			Entities:  item.Entities,
		})
		if err != nil {
			out[i] = BatchItem{Err: err}
			continue
		}
		s.metric.RecordAuthorization(result.Decision, time.Since(start).Microseconds())
		s.publishAuthorizationPerformed(ctx, storeId, item, result)
		out[i] = BatchItem{Result: result}
	}
	return out, nil
}

// ValidatePolicy checks one ad-hoc statement for syntax and (if schema is
// non-nil) schema errors, without persisting anything or touching the
// live cache.
func (s *Service) ValidatePolicy(statement string, schema *authzmodel.ParsedSchema) *compiler.Diagnostic {
	const key = "candidate"
	_, failures := s.cache.BuildEphemeral(map[string]string{key: statement}, schema)
	return failures[key]
}

// TestAuthorization compiles an ad-hoc policy set (never persisted, never
// cached) and evaluates req against it, returning both the decision and
// any per-policy compilation diagnostics.
func (s *Service) TestAuthorization(statements map[string]string, schema *authzmodel.ParsedSchema, req Request) (*evaluator.Result, map[string]*compiler.Diagnostic, error) {
	set, failures := s.cache.BuildEphemeral(statements, schema)
	result, err := evaluator.Evaluate(set, evaluator.Request{
		Principal: req.Principal,
		Action:    req.Action,
		Resource:  req.Resource,
		Context:   req.Context,
		Entities:  req.Entities,
	})
	if err != nil {
		return nil, failures, err
	}
	return result, failures, nil
}

// publishAuthorizationPerformed emits the audit event on a detached
// context so a client-cancelled request still gets its event recorded;
// the publish result is only logged, never surfaced to the caller.
func (s *Service) publishAuthorizationPerformed(ctx context.Context, storeId id.PolicyStoreId, req Request, result *evaluator.Result) {
	if s.audit == nil {
		return
	}
	event := authzmodel.Event{
		EventId:     uuid.NewString(),
		Type:        authzmodel.EventAuthorizationPerformed,
		AggregateId: storeId.String(),
		Authz: &authzmodel.AuthorizationPerformedDetail{
			Principal:            req.Principal,
			Action:               req.Action,
			Resource:             req.Resource,
			Decision:             result.Decision,
			DeterminingPolicyIds: result.DeterminingPolicyIds,
		},
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		if err := s.audit.Publish(detached, event); err != nil {
			s.log.Warn("failed to publish AuthorizationPerformed event",
				zap.String("storeId", storeId.String()), zap.Error(err))
		}
	}()
}
