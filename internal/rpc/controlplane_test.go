package rpc

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wso2/policy-authz/internal/cache"
	"github.com/wso2/policy-authz/internal/config"
	"github.com/wso2/policy-authz/internal/controlplane"
	"github.com/wso2/policy-authz/internal/repository/sqlstore"
	"github.com/wso2/policy-authz/internal/rpc/pb"
)

func newTestControlPlaneServer(t *testing.T) *ControlPlaneServer {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlstore.NewConnection(config.Database{Provider: "sqlite", URL: dbPath, MaxConnections: 1, ConnMaxLifetime: 300})
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })

	store := sqlstore.New(db)
	c, err := cache.New(store)
	require.NoError(t, err)

	return NewControlPlaneServer(controlplane.New(store, c, nil))
}

func TestControlPlaneCreateAndGetPolicyStore(t *testing.T) {
	srv := newTestControlPlaneServer(t)
	ctx := context.Background()

	created, err := srv.CreatePolicyStore(ctx, &pb.CreatePolicyStoreRequest{Id: "store-1", Name: "orders", Author: "alice"})
	require.NoError(t, err)
	require.Equal(t, "orders", created.Store.Name)
	require.Equal(t, "active", created.Store.Status)

	got, err := srv.GetPolicyStore(ctx, &pb.GetPolicyStoreRequest{PolicyStoreId: "store-1"})
	require.NoError(t, err)
	require.Equal(t, "store-1", got.Store.Id)
}

func TestControlPlaneGetPolicyStoreNotFoundMapsToNotFound(t *testing.T) {
	srv := newTestControlPlaneServer(t)
	_, err := srv.GetPolicyStore(context.Background(), &pb.GetPolicyStoreRequest{PolicyStoreId: "missing"})
	requireNotFound(t, err)
}

func TestControlPlaneCreatePolicyThenListPolicies(t *testing.T) {
	srv := newTestControlPlaneServer(t)
	ctx := context.Background()

	_, err := srv.CreatePolicyStore(ctx, &pb.CreatePolicyStoreRequest{Id: "store-1", Name: "orders", Author: "alice"})
	require.NoError(t, err)

	created, err := srv.CreatePolicy(ctx, &pb.CreatePolicyRequest{
		PolicyStoreId: "store-1", Id: "p1", Statement: `permit(principal, action, resource);`,
	})
	require.NoError(t, err)
	require.Equal(t, "p1", created.Policy.Id)

	list, err := srv.ListPolicies(ctx, &pb.ListPoliciesRequest{PolicyStoreId: "store-1"})
	require.NoError(t, err)
	require.Len(t, list.Policies, 1)
}

func TestControlPlaneCreatePolicyTemplateRejectsMissingPlaceholder(t *testing.T) {
	srv := newTestControlPlaneServer(t)
	ctx := context.Background()
	_, err := srv.CreatePolicyStore(ctx, &pb.CreatePolicyStoreRequest{Id: "store-1", Name: "orders", Author: "alice"})
	require.NoError(t, err)

	_, err = srv.CreatePolicyTemplate(ctx, &pb.CreatePolicyTemplateRequest{
		PolicyStoreId: "store-1", Id: "tmpl-1", Statement: `permit(principal, action, resource);`,
	})
	requireInvalidArgument(t, err)
}

func TestControlPlaneSnapshotRoundTrip(t *testing.T) {
	srv := newTestControlPlaneServer(t)
	ctx := context.Background()
	_, err := srv.CreatePolicyStore(ctx, &pb.CreatePolicyStoreRequest{Id: "store-1", Name: "orders", Author: "alice"})
	require.NoError(t, err)
	_, err = srv.CreatePolicy(ctx, &pb.CreatePolicyRequest{PolicyStoreId: "store-1", Id: "p1", Statement: `permit(principal, action, resource);`})
	require.NoError(t, err)

	snap, err := srv.CreateSnapshot(ctx, &pb.CreateSnapshotRequest{PolicyStoreId: "store-1", Description: "before cleanup"})
	require.NoError(t, err)
	require.EqualValues(t, 1, snap.Snapshot.PolicyCount)

	_, err = srv.DeletePolicy(ctx, &pb.DeletePolicyRequest{PolicyStoreId: "store-1", PolicyId: "p1"})
	require.NoError(t, err)

	result, err := srv.RollbackToSnapshot(ctx, &pb.RollbackToSnapshotRequest{PolicyStoreId: "store-1", SnapshotId: snap.Snapshot.Id})
	require.NoError(t, err)
	require.EqualValues(t, 1, result.PolicyCount)
}
