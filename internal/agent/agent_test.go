package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wso2/policy-authz/internal/domainerr"
	"github.com/wso2/policy-authz/internal/evaluator"
	"github.com/wso2/policy-authz/internal/id"
	"github.com/wso2/policy-authz/internal/metrics"
	"github.com/wso2/policy-authz/internal/rpc/pb"
)

type fakeControlPlane struct {
	policies  []*pb.Policy
	schema    string
	failCount int
	calls     int
}

func (f *fakeControlPlane) ListPolicies(ctx context.Context, req *pb.ListPoliciesRequest) (*pb.ListPoliciesResponse, error) {
	f.calls++
	if f.calls <= f.failCount {
		return nil, errors.New("control plane unreachable")
	}
	return &pb.ListPoliciesResponse{Policies: f.policies}, nil
}

func (f *fakeControlPlane) GetSchema(ctx context.Context, req *pb.GetSchemaRequest) (*pb.GetSchemaResponse, error) {
	return &pb.GetSchemaResponse{Schema: f.schema}, nil
}

func testStoreId(t *testing.T) id.PolicyStoreId {
	t.Helper()
	storeId, err := id.NewPolicyStoreId("store-1")
	require.NoError(t, err)
	return storeId
}

func TestAgentFailsClosedBeforeFirstSync(t *testing.T) {
	cp := &fakeControlPlane{failCount: 100}
	a, err := New(Config{StoreId: testStoreId(t), PollInterval: time.Hour, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}, cp, metrics.New(), nil)
	require.NoError(t, err)

	_, err = a.IsAuthorized(evaluator.Request{})
	require.ErrorIs(t, err, domainerr.ErrAgentNotSynced)
}

func TestAgentSyncsAndServesDecisions(t *testing.T) {
	cp := &fakeControlPlane{policies: []*pb.Policy{
		{Id: "p1", Statement: `permit(principal, action, resource);`},
	}}
	m := metrics.New()
	a, err := New(Config{StoreId: testStoreId(t), PollInterval: time.Hour, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}, cp, m, nil)
	require.NoError(t, err)

	a.pollOnce(context.Background())

	result, err := a.IsAuthorized(evaluator.Request{})
	require.NoError(t, err)
	require.Contains(t, result.DeterminingPolicyIds, "p1")
	require.NotEqual(t, -1.0, m.StalenessSeconds())
}

func TestAgentRecoversAfterTransientSyncFailure(t *testing.T) {
	cp := &fakeControlPlane{failCount: 1, policies: []*pb.Policy{
		{Id: "p1", Statement: `permit(principal, action, resource);`},
	}}
	a, err := New(Config{StoreId: testStoreId(t), PollInterval: time.Hour, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}, cp, metrics.New(), nil)
	require.NoError(t, err)

	a.pollOnce(context.Background())
	_, err = a.IsAuthorized(evaluator.Request{})
	require.ErrorIs(t, err, domainerr.ErrAgentNotSynced)

	a.pollOnce(context.Background())
	_, err = a.IsAuthorized(evaluator.Request{})
	require.NoError(t, err)
}
