// Package repository defines the persistence contract every durable
// aggregate is read from and written through. The sqlstore subpackage is
// the only implementation; everything above this package (cache, authz,
// rpc) depends on the Store interface, never on sqlstore directly.
package repository

import (
	"context"
	"time"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/id"
)

// Page is an opaque-cursor pagination request.
type Page struct {
	Token    string
	PageSize int
}

// PageResult carries the next opaque cursor, empty once the listing is
// exhausted.
type PageResult struct {
	NextToken string
}

// RollbackResult reports how many rows a snapshot rollback restored.
type RollbackResult struct {
	PolicyCount int
	HasSchema   bool
}

// Store is the full repository port. Every method takes a context so the
// caller can bound retries and cancellation; the sqlstore implementation
// runs each method against *sql.DB/*sql.Tx directly (no ORM).
type Store interface {
	// Policy store aggregate.
	CreatePolicyStore(ctx context.Context, store *authzmodel.PolicyStore) error
	GetPolicyStore(ctx context.Context, storeId id.PolicyStoreId) (*authzmodel.PolicyStore, error)
	ListPolicyStores(ctx context.Context, page Page) ([]*authzmodel.PolicyStore, PageResult, error)
	UpdatePolicyStore(ctx context.Context, store *authzmodel.PolicyStore) error
	DeletePolicyStore(ctx context.Context, storeId id.PolicyStoreId) error

	// Schema aggregate: one row per store, replaced in place.
	PutSchema(ctx context.Context, schema *authzmodel.Schema) error
	GetSchema(ctx context.Context, storeId id.PolicyStoreId) (*authzmodel.Schema, error)

	// Policy aggregate.
	CreatePolicy(ctx context.Context, policy *authzmodel.Policy) error
	GetPolicy(ctx context.Context, storeId id.PolicyStoreId, policyId id.PolicyId) (*authzmodel.Policy, error)
	ListPolicies(ctx context.Context, storeId id.PolicyStoreId, page Page) ([]*authzmodel.Policy, PageResult, error)
	UpdatePolicy(ctx context.Context, policy *authzmodel.Policy) error
	DeletePolicy(ctx context.Context, storeId id.PolicyStoreId, policyId id.PolicyId) error

	// Policy template aggregate.
	CreateTemplate(ctx context.Context, tmpl *authzmodel.PolicyTemplate) error
	GetTemplate(ctx context.Context, storeId id.PolicyStoreId, templateId id.TemplateId) (*authzmodel.PolicyTemplate, error)
	ListTemplates(ctx context.Context, storeId id.PolicyStoreId, page Page) ([]*authzmodel.PolicyTemplate, PageResult, error)
	DeleteTemplate(ctx context.Context, storeId id.PolicyStoreId, templateId id.TemplateId) error

	// Identity source aggregate.
	CreateIdentitySource(ctx context.Context, src *authzmodel.IdentitySource) error
	GetIdentitySource(ctx context.Context, storeId id.PolicyStoreId, sourceId id.IdentitySourceId) (*authzmodel.IdentitySource, error)
	ListIdentitySources(ctx context.Context, storeId id.PolicyStoreId, page Page) ([]*authzmodel.IdentitySource, PageResult, error)
	DeleteIdentitySource(ctx context.Context, storeId id.PolicyStoreId, sourceId id.IdentitySourceId) error

	// Snapshot aggregate.
	CreateSnapshot(ctx context.Context, storeId id.PolicyStoreId, description string) (*authzmodel.Snapshot, error)
	GetSnapshot(ctx context.Context, storeId id.PolicyStoreId, snapshotId id.SnapshotId) (*authzmodel.Snapshot, error)
	ListSnapshots(ctx context.Context, storeId id.PolicyStoreId, page Page) ([]*authzmodel.Snapshot, PageResult, error)
	RollbackSnapshot(ctx context.Context, storeId id.PolicyStoreId, snapshotId id.SnapshotId) (RollbackResult, error)

	// Audit log aggregate.
	// CurrentAuditVersion returns the highest version already recorded for
	// aggregateId (0 if none), i.e. the expectedVersion to pass to the next
	// AppendAuditEvents call; the event(s) in that call carry Version
	// current+1, current+2, ...
	CurrentAuditVersion(ctx context.Context, aggregateId string) (int, error)
	AppendAuditEvents(ctx context.Context, aggregateId string, expectedVersion int, events []authzmodel.Event) error
	ListAuditEventsByAggregate(ctx context.Context, aggregateId string, page Page) ([]authzmodel.Event, PageResult, error)
	ListAuditEventsByType(ctx context.Context, eventType authzmodel.EventType, from, to time.Time, limit int) ([]authzmodel.Event, error)
}
