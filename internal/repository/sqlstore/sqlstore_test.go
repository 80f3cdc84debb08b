package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/config"
	"github.com/wso2/policy-authz/internal/domainerr"
	"github.com/wso2/policy-authz/internal/id"
	"github.com/wso2/policy-authz/internal/repository"
)

func newTestStore(t *testing.T) *SqlStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewConnection(config.Database{
		Provider:        "sqlite",
		URL:             dbPath,
		MaxConnections:  1,
		ConnMaxLifetime: 300,
	})
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func mustStoreId(t *testing.T, raw string) id.PolicyStoreId {
	t.Helper()
	storeId, err := id.NewPolicyStoreId(raw)
	require.NoError(t, err)
	return storeId
}

func seedStore(t *testing.T, s *SqlStore, storeId id.PolicyStoreId) {
	t.Helper()
	store := authzmodel.NewPolicyStore(storeId, "test store", "tester", time.Now())
	require.NoError(t, s.CreatePolicyStore(context.Background(), store))
}

func TestCreateAndGetPolicyStoreRoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	storeId := mustStoreId(t, "store-1")

	store := authzmodel.NewPolicyStore(storeId, "orders", "alice", time.Now())
	store.Description = "orders service"
	store.SetTags([]string{"prod", "orders"}, time.Now())
	require.NoError(t, s.CreatePolicyStore(ctx, store))

	got, err := s.GetPolicyStore(ctx, storeId)
	require.NoError(t, err)
	require.Equal(t, "orders", got.Name)
	require.Equal(t, "orders service", got.Description)
	require.ElementsMatch(t, []string{"prod", "orders"}, got.Tags())
}

func TestGetPolicyStoreNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetPolicyStore(context.Background(), mustStoreId(t, "missing"))
	require.ErrorIs(t, err, domainerr.ErrPolicyStoreNotFound)
}

func TestPutSchemaIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	storeId := mustStoreId(t, "store-1")
	seedStore(t, s, storeId)

	raw1 := []byte(`{"NS":{"entityTypes":{},"actions":{}}}`)
	require.NoError(t, s.PutSchema(ctx, &authzmodel.Schema{StoreId: storeId.String(), Raw: raw1}))
	got, err := s.GetSchema(ctx, storeId)
	require.NoError(t, err)
	require.JSONEq(t, string(raw1), string(got.Raw))

	raw2 := []byte(`{"NS":{"entityTypes":{"User":{}},"actions":{}}}`)
	require.NoError(t, s.PutSchema(ctx, &authzmodel.Schema{StoreId: storeId.String(), Raw: raw2}))
	got, err = s.GetSchema(ctx, storeId)
	require.NoError(t, err)
	require.JSONEq(t, string(raw2), string(got.Raw))
}

func TestDeletePolicyStoreCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	storeId := mustStoreId(t, "store-1")
	seedStore(t, s, storeId)

	require.NoError(t, s.PutSchema(ctx, &authzmodel.Schema{StoreId: storeId.String(), Raw: []byte(`{"NS":{"entityTypes":{},"actions":{}}}`)}))
	require.NoError(t, s.CreatePolicy(ctx, &authzmodel.Policy{StoreId: storeId.String(), Id: "p1", Statement: `permit(principal, action, resource);`, CreatedAt: time.Now(), UpdatedAt: time.Now()}))

	require.NoError(t, s.DeletePolicyStore(ctx, storeId))

	_, err := s.GetPolicyStore(ctx, storeId)
	require.ErrorIs(t, err, domainerr.ErrPolicyStoreNotFound)
	_, err = s.GetSchema(ctx, storeId)
	require.ErrorIs(t, err, domainerr.ErrSchemaNotFound)
	_, err = s.GetPolicy(ctx, storeId, mustPolicyId(t, "p1"))
	require.ErrorIs(t, err, domainerr.ErrPolicyNotFound)
}

func mustPolicyId(t *testing.T, raw string) id.PolicyId {
	t.Helper()
	policyId, err := id.NewPolicyId(raw)
	require.NoError(t, err)
	return policyId
}

func TestCreatePolicyDuplicateIdFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	storeId := mustStoreId(t, "store-1")
	seedStore(t, s, storeId)

	policy := &authzmodel.Policy{StoreId: storeId.String(), Id: "p1", Statement: `permit(principal, action, resource);`, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, s.CreatePolicy(ctx, policy))
	err := s.CreatePolicy(ctx, policy)
	require.ErrorIs(t, err, domainerr.ErrDuplicatePolicyId)
}

func TestDeleteTemplateInUseFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	storeId := mustStoreId(t, "store-1")
	seedStore(t, s, storeId)

	tmpl := &authzmodel.PolicyTemplate{StoreId: storeId.String(), Id: "t1", Statement: `permit(principal == ?principal, action, resource);`, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, s.CreateTemplate(ctx, tmpl))

	policy := &authzmodel.Policy{
		StoreId: storeId.String(), Id: "p1", Statement: `permit(principal == User::"alice", action, resource);`,
		Template:  &authzmodel.TemplateLink{TemplateId: "t1", PrincipalBinding: &authzmodel.EntityIdentifier{EntityType: "User", EntityId: "alice"}},
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, s.CreatePolicy(ctx, policy))

	err := s.DeleteTemplate(ctx, storeId, mustTemplateId(t, "t1"))
	require.ErrorIs(t, err, domainerr.ErrTemplateInUse)

	require.NoError(t, s.DeletePolicy(ctx, storeId, mustPolicyId(t, "p1")))
	require.NoError(t, s.DeleteTemplate(ctx, storeId, mustTemplateId(t, "t1")))
}

func mustTemplateId(t *testing.T, raw string) id.TemplateId {
	t.Helper()
	templateId, err := id.NewTemplateId(raw)
	require.NoError(t, err)
	return templateId
}

func TestSnapshotCreateAndRollbackRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	storeId := mustStoreId(t, "store-1")
	seedStore(t, s, storeId)

	require.NoError(t, s.CreatePolicy(ctx, &authzmodel.Policy{StoreId: storeId.String(), Id: "p1", Statement: `permit(principal, action, resource);`, CreatedAt: time.Now(), UpdatedAt: time.Now()}))
	require.NoError(t, s.PutSchema(ctx, &authzmodel.Schema{StoreId: storeId.String(), Raw: []byte(`{"NS":{"entityTypes":{},"actions":{}}}`)}))

	snapshot, err := s.CreateSnapshot(ctx, storeId, "before change")
	require.NoError(t, err)
	require.Equal(t, 1, snapshot.PolicyCount)
	require.True(t, snapshot.HasSchema)

	// Mutate the store after the snapshot.
	require.NoError(t, s.CreatePolicy(ctx, &authzmodel.Policy{StoreId: storeId.String(), Id: "p2", Statement: `forbid(principal, action, resource);`, CreatedAt: time.Now(), UpdatedAt: time.Now()}))
	require.NoError(t, s.DeletePolicy(ctx, storeId, mustPolicyId(t, "p1")))

	result, err := s.RollbackSnapshot(ctx, storeId, id.SnapshotId(snapshot.Id))
	require.NoError(t, err)
	require.Equal(t, 1, result.PolicyCount)

	policies, _, err := s.ListPolicies(ctx, storeId, repository.Page{})
	require.NoError(t, err)
	require.Len(t, policies, 1)
	require.Equal(t, "p1", policies[0].Id)
}

func TestAppendAuditEventsDetectsVersionConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	aggregateId := "store-1"

	ev1 := authzmodel.Event{EventId: uuid.NewString(), Type: authzmodel.EventPolicyStoreCreated, AggregateId: aggregateId, OccurredAt: time.Now(), Version: 1}
	require.NoError(t, s.AppendAuditEvents(ctx, aggregateId, 0, []authzmodel.Event{ev1}))

	// A second writer still believing the aggregate is at version 0 conflicts.
	ev2 := authzmodel.Event{EventId: uuid.NewString(), Type: authzmodel.EventPolicyStoreUpdated, AggregateId: aggregateId, OccurredAt: time.Now(), Version: 1}
	err := s.AppendAuditEvents(ctx, aggregateId, 0, []authzmodel.Event{ev2})
	require.ErrorIs(t, err, domainerr.ErrVersionConflict)

	ev3 := authzmodel.Event{EventId: uuid.NewString(), Type: authzmodel.EventPolicyStoreUpdated, AggregateId: aggregateId, OccurredAt: time.Now(), Version: 2}
	require.NoError(t, s.AppendAuditEvents(ctx, aggregateId, 1, []authzmodel.Event{ev3}))

	events, _, err := s.ListAuditEventsByAggregate(ctx, aggregateId, repository.Page{})
	require.NoError(t, err)
	require.Len(t, events, 2)
}

func TestListPolicyStoresPaginationIsStable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		seedStore(t, s, mustStoreId(t, uuid.NewString()))
	}

	var seen []string
	token := ""
	for {
		page, result, err := s.ListPolicyStores(ctx, repository.Page{Token: token, PageSize: 2})
		require.NoError(t, err)
		for _, store := range page {
			seen = append(seen, store.Id.String())
		}
		if result.NextToken == "" {
			break
		}
		token = result.NextToken
	}
	require.Len(t, seen, 5)
}

func TestLoadPolicySetReturnsStatementsAndSchema(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	storeId := mustStoreId(t, "store-1")
	seedStore(t, s, storeId)
	require.NoError(t, s.CreatePolicy(ctx, &authzmodel.Policy{StoreId: storeId.String(), Id: "p1", Statement: `permit(principal, action, resource);`, CreatedAt: time.Now(), UpdatedAt: time.Now()}))
	require.NoError(t, s.PutSchema(ctx, &authzmodel.Schema{StoreId: storeId.String(), Raw: []byte(`{"NS":{"entityTypes":{},"actions":{}}}`)}))

	statements, schema, err := s.LoadPolicySet(ctx, storeId)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"p1": `permit(principal, action, resource);`}, statements)
	require.NotNil(t, schema)
	require.Equal(t, "NS", schema.Namespace)
}
