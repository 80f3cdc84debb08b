// Package controlplane is the use-case layer for every policy-artifact
// mutation and lookup: policy stores, schemas, policies, templates, identity
// sources, and snapshots. It is the control-plane analogue of internal/authz:
// every mutation writes through the repository and emits the corresponding
// audit event. Policy and schema mutations, store deletion and snapshot
// rollback also invalidate the store's compiled policy set; template,
// identity-source, tag and snapshot-creation mutations do not.
package controlplane

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/cache"
	"github.com/wso2/policy-authz/internal/compiler"
	"github.com/wso2/policy-authz/internal/domainerr"
	"github.com/wso2/policy-authz/internal/id"
	"github.com/wso2/policy-authz/internal/repository"
)

// Service implements every control-plane operation described by the policy
// store domain model. Constructed once per process with its repository and
// cache, exactly as internal/authz.Service is.
type Service struct {
	store repository.Store
	cache *cache.Cache
	audit AuditPublisher
	clock func() time.Time
}

// AuditPublisher is the narrow audit.Bus slice this package needs, kept
// local to avoid an import cycle between audit and controlplane.
type AuditPublisher interface {
	Publish(ctx context.Context, event authzmodel.Event) error
}

// New constructs a Service. audit may be nil to disable audit emission
// (used by tests that only exercise the repository/cache interaction).
func New(store repository.Store, c *cache.Cache, auditBus AuditPublisher) *Service {
	return &Service{store: store, cache: c, audit: auditBus, clock: time.Now}
}

func (s *Service) publish(ctx context.Context, eventType authzmodel.EventType, aggregateId, actor string, accessKind authzmodel.AccessKind) {
	if s.audit == nil {
		return
	}
	event := authzmodel.Event{
		EventId:     uuid.NewString(),
		Type:        eventType,
		AggregateId: aggregateId,
		Actor:       actor,
		AccessKind:  accessKind,
	}
	if err := s.audit.Publish(ctx, event); err != nil {
		// Best-effort: a failed audit publish never unwinds a mutation that
		// already committed to the repository.
		_ = err
	}
}

// --- Policy store aggregate ---

// CreatePolicyStoreParams are the caller-supplied fields for a new store;
// Id, Status, Version, and timestamps are assigned by the service.
type CreatePolicyStoreParams struct {
	Id          string
	Name        string
	Description string
	Author      string
	Actor       string
}

func (s *Service) CreatePolicyStore(ctx context.Context, p CreatePolicyStoreParams) (*authzmodel.PolicyStore, error) {
	storeId, err := id.NewPolicyStoreId(p.Id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerr.ErrInvalidArgument, err)
	}
	now := s.clock()
	store := authzmodel.NewPolicyStore(storeId, p.Name, p.Author, now)
	store.Description = p.Description
	if err := s.store.CreatePolicyStore(ctx, store); err != nil {
		return nil, err
	}
	s.publish(ctx, authzmodel.EventPolicyStoreCreated, storeId.String(), p.Actor, authzmodel.AccessWrite)
	return store, nil
}

func (s *Service) GetPolicyStore(ctx context.Context, storeId id.PolicyStoreId) (*authzmodel.PolicyStore, error) {
	return s.store.GetPolicyStore(ctx, storeId)
}

func (s *Service) ListPolicyStores(ctx context.Context, page repository.Page) ([]*authzmodel.PolicyStore, repository.PageResult, error) {
	return s.store.ListPolicyStores(ctx, page)
}

func (s *Service) DeletePolicyStore(ctx context.Context, storeId id.PolicyStoreId, actor string) error {
	if err := s.store.DeletePolicyStore(ctx, storeId); err != nil {
		return err
	}
	s.cache.Invalidate(storeId)
	s.publish(ctx, authzmodel.EventPolicyStoreDeleted, storeId.String(), actor, authzmodel.AccessDelete)
	return nil
}

// UpdatePolicyStoreTags replaces a store's tag set and persists the change.
func (s *Service) UpdatePolicyStoreTags(ctx context.Context, storeId id.PolicyStoreId, tags []string, actor string) (*authzmodel.PolicyStore, error) {
	store, err := s.store.GetPolicyStore(ctx, storeId)
	if err != nil {
		return nil, err
	}
	store.SetTags(tags, s.clock())
	if err := s.store.UpdatePolicyStore(ctx, store); err != nil {
		return nil, err
	}
	s.publish(ctx, authzmodel.EventPolicyStoreTagsUpdated, storeId.String(), actor, authzmodel.AccessWrite)
	return store, nil
}

// --- Schema aggregate ---

// PutSchema validates raw against the policy store's entity/action shape
// rules and replaces the store's schema document in place. Successive calls
// with identical content are idempotent: each call stores the same row and
// emits one SchemaUpdated event. The ApiCalled/ApiCompleted pair around each
// RPC comes from rpc.AuditInterceptor, not from this service.
func (s *Service) PutSchema(ctx context.Context, storeId id.PolicyStoreId, raw []byte, actor string) (*authzmodel.Schema, error) {
	if _, err := authzmodel.ParseSchema(raw); err != nil {
		return nil, err
	}
	schema := &authzmodel.Schema{StoreId: storeId.String(), Raw: raw}
	if err := s.store.PutSchema(ctx, schema); err != nil {
		return nil, err
	}
	s.cache.Invalidate(storeId)
	s.publish(ctx, authzmodel.EventSchemaUpdated, storeId.String(), actor, authzmodel.AccessWrite)
	return schema, nil
}

func (s *Service) GetSchema(ctx context.Context, storeId id.PolicyStoreId) (*authzmodel.Schema, error) {
	return s.store.GetSchema(ctx, storeId)
}

// --- Policy aggregate ---

// CreatePolicyParams are the caller-supplied fields for a new policy.
type CreatePolicyParams struct {
	StoreId     string
	Id          string
	Statement   string
	Description string
	Actor       string
}

// CreatePolicy parses Statement before persisting, so a syntactically broken
// policy is rejected up front. The statement is not compiled or checked
// against the store's schema here; a when/unless expression that fails to
// compile surfaces as a compilation error at the next cache build.
func (s *Service) CreatePolicy(ctx context.Context, p CreatePolicyParams) (*authzmodel.Policy, error) {
	storeId, err := id.NewPolicyStoreId(p.StoreId)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerr.ErrInvalidArgument, err)
	}
	if _, diag := compiler.ParsePolicy(p.Statement); diag != nil {
		return nil, fmt.Errorf("%w: %v", domainerr.ErrInvalidPolicySyntax, diag)
	}
	now := s.clock()
	policy := &authzmodel.Policy{
		StoreId: storeId.String(), Id: p.Id, Statement: p.Statement,
		Description: p.Description, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.store.CreatePolicy(ctx, policy); err != nil {
		return nil, err
	}
	s.cache.Invalidate(storeId)
	s.publish(ctx, authzmodel.EventPolicyCreated, storeId.String(), p.Actor, authzmodel.AccessWrite)
	return policy, nil
}

func (s *Service) GetPolicy(ctx context.Context, storeId id.PolicyStoreId, policyId id.PolicyId) (*authzmodel.Policy, error) {
	return s.store.GetPolicy(ctx, storeId, policyId)
}

func (s *Service) ListPolicies(ctx context.Context, storeId id.PolicyStoreId, page repository.Page) ([]*authzmodel.Policy, repository.PageResult, error) {
	return s.store.ListPolicies(ctx, storeId, page)
}

func (s *Service) UpdatePolicy(ctx context.Context, policy *authzmodel.Policy, actor string) error {
	if _, diag := compiler.ParsePolicy(policy.Statement); diag != nil {
		return fmt.Errorf("%w: %v", domainerr.ErrInvalidPolicySyntax, diag)
	}
	policy.UpdatedAt = s.clock()
	storeId, err := id.NewPolicyStoreId(policy.StoreId)
	if err != nil {
		return fmt.Errorf("%w: %v", domainerr.ErrInvalidArgument, err)
	}
	if err := s.store.UpdatePolicy(ctx, policy); err != nil {
		return err
	}
	s.cache.Invalidate(storeId)
	s.publish(ctx, authzmodel.EventPolicyUpdated, storeId.String(), actor, authzmodel.AccessWrite)
	return nil
}

func (s *Service) DeletePolicy(ctx context.Context, storeId id.PolicyStoreId, policyId id.PolicyId, actor string) error {
	if err := s.store.DeletePolicy(ctx, storeId, policyId); err != nil {
		return err
	}
	s.cache.Invalidate(storeId)
	s.publish(ctx, authzmodel.EventPolicyDeleted, storeId.String(), actor, authzmodel.AccessWrite)
	return nil
}

// --- Policy template aggregate ---

// CreatePolicyTemplateParams are the caller-supplied fields for a new
// template; Statement must reference at least one of ?principal/?resource.
type CreatePolicyTemplateParams struct {
	StoreId     string
	Id          string
	Statement   string
	Description string
	Actor       string
}

func (s *Service) CreatePolicyTemplate(ctx context.Context, p CreatePolicyTemplateParams) (*authzmodel.PolicyTemplate, error) {
	storeId, err := id.NewPolicyStoreId(p.StoreId)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerr.ErrInvalidArgument, err)
	}
	ast, diag := compiler.ParsePolicy(p.Statement)
	if diag != nil {
		return nil, fmt.Errorf("%w: %v", domainerr.ErrInvalidPolicySyntax, diag)
	}
	if !ast.HasPlaceholders() {
		return nil, domainerr.ErrInvalidTemplate
	}
	now := s.clock()
	tmpl := &authzmodel.PolicyTemplate{
		StoreId: storeId.String(), Id: p.Id, Statement: p.Statement,
		Description: p.Description, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.store.CreateTemplate(ctx, tmpl); err != nil {
		return nil, err
	}
	s.publish(ctx, authzmodel.EventPolicyTemplateCreated, storeId.String(), p.Actor, authzmodel.AccessWrite)
	return tmpl, nil
}

func (s *Service) GetPolicyTemplate(ctx context.Context, storeId id.PolicyStoreId, templateId id.TemplateId) (*authzmodel.PolicyTemplate, error) {
	return s.store.GetTemplate(ctx, storeId, templateId)
}

func (s *Service) ListPolicyTemplates(ctx context.Context, storeId id.PolicyStoreId, page repository.Page) ([]*authzmodel.PolicyTemplate, repository.PageResult, error) {
	return s.store.ListTemplates(ctx, storeId, page)
}

func (s *Service) DeletePolicyTemplate(ctx context.Context, storeId id.PolicyStoreId, templateId id.TemplateId, actor string) error {
	if err := s.store.DeleteTemplate(ctx, storeId, templateId); err != nil {
		return err
	}
	s.publish(ctx, authzmodel.EventPolicyTemplateDeleted, storeId.String(), actor, authzmodel.AccessWrite)
	return nil
}

// --- Identity source aggregate ---

// CreateIdentitySourceParams are the caller-supplied fields for a new
// identity source.
type CreateIdentitySourceParams struct {
	StoreId string
	Id      string
	Source  *authzmodel.IdentitySource
	Actor   string
}

func (s *Service) CreateIdentitySource(ctx context.Context, p CreateIdentitySourceParams) (*authzmodel.IdentitySource, error) {
	storeId, err := id.NewPolicyStoreId(p.StoreId)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerr.ErrInvalidArgument, err)
	}
	src := p.Source
	src.StoreId, src.Id = storeId.String(), p.Id
	now := s.clock()
	src.CreatedAt, src.UpdatedAt = now, now
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domainerr.ErrInvalidArgument, err)
	}
	if err := s.store.CreateIdentitySource(ctx, src); err != nil {
		return nil, err
	}
	s.publish(ctx, authzmodel.EventIdentitySourceCreated, storeId.String(), p.Actor, authzmodel.AccessWrite)
	return src, nil
}

func (s *Service) GetIdentitySource(ctx context.Context, storeId id.PolicyStoreId, sourceId id.IdentitySourceId) (*authzmodel.IdentitySource, error) {
	return s.store.GetIdentitySource(ctx, storeId, sourceId)
}

func (s *Service) ListIdentitySources(ctx context.Context, storeId id.PolicyStoreId, page repository.Page) ([]*authzmodel.IdentitySource, repository.PageResult, error) {
	return s.store.ListIdentitySources(ctx, storeId, page)
}

func (s *Service) DeleteIdentitySource(ctx context.Context, storeId id.PolicyStoreId, sourceId id.IdentitySourceId, actor string) error {
	if err := s.store.DeleteIdentitySource(ctx, storeId, sourceId); err != nil {
		return err
	}
	s.publish(ctx, authzmodel.EventIdentitySourceDeleted, storeId.String(), actor, authzmodel.AccessWrite)
	return nil
}

// --- Snapshot aggregate ---

func (s *Service) CreateSnapshot(ctx context.Context, storeId id.PolicyStoreId, description, actor string) (*authzmodel.Snapshot, error) {
	snap, err := s.store.CreateSnapshot(ctx, storeId, description)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, authzmodel.EventSnapshotCreated, storeId.String(), actor, authzmodel.AccessWrite)
	return snap, nil
}

func (s *Service) ListSnapshots(ctx context.Context, storeId id.PolicyStoreId, page repository.Page) ([]*authzmodel.Snapshot, repository.PageResult, error) {
	return s.store.ListSnapshots(ctx, storeId, page)
}

// RollbackToSnapshot restores a store's policies and schema from snap and
// invalidates the store's compiled policy set so the next IsAuthorized picks
// up the restored state rather than a stale cached one.
func (s *Service) RollbackToSnapshot(ctx context.Context, storeId id.PolicyStoreId, snapshotId id.SnapshotId, actor string) (repository.RollbackResult, error) {
	result, err := s.store.RollbackSnapshot(ctx, storeId, snapshotId)
	if err != nil {
		return repository.RollbackResult{}, err
	}
	s.cache.Invalidate(storeId)
	s.publish(ctx, authzmodel.EventSnapshotRolledBack, storeId.String(), actor, authzmodel.AccessWrite)
	return result, nil
}
