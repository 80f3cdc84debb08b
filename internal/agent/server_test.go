package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wso2/policy-authz/internal/metrics"
	"github.com/wso2/policy-authz/internal/rpc/pb"
)

func TestServerIsAuthorizedReturnsUnavailableBeforeSync(t *testing.T) {
	cp := &fakeControlPlane{failCount: 100}
	a, err := New(Config{StoreId: testStoreId(t), PollInterval: time.Hour, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}, cp, metrics.New(), nil)
	require.NoError(t, err)

	srv := NewServer(a)
	_, err = srv.IsAuthorized(context.Background(), &pb.IsAuthorizedRequest{})
	st, ok := status.FromError(err)
	require.True(t, ok)
	require.Equal(t, codes.Unavailable, st.Code())
}

func TestServerIsAuthorizedEvaluatesSyncedPolicySet(t *testing.T) {
	cp := &fakeControlPlane{policies: []*pb.Policy{
		{Id: "p1", Statement: `permit(principal, action, resource);`},
	}}
	a, err := New(Config{StoreId: testStoreId(t), PollInterval: time.Hour, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}, cp, metrics.New(), nil)
	require.NoError(t, err)
	a.pollOnce(context.Background())

	srv := NewServer(a)
	resp, err := srv.IsAuthorized(context.Background(), &pb.IsAuthorizedRequest{
		Principal: pb.EntityIdentifier{EntityType: "User", EntityId: "alice"},
		Action:    pb.EntityIdentifier{EntityType: "Action", EntityId: "view"},
		Resource:  pb.EntityIdentifier{EntityType: "Document", EntityId: "doc1"},
	})
	require.NoError(t, err)
	require.Equal(t, pb.Decision_ALLOW, resp.Decision)
}

func TestServerUnservedMethodsReturnUnimplemented(t *testing.T) {
	cp := &fakeControlPlane{}
	a, err := New(Config{StoreId: testStoreId(t), PollInterval: time.Hour, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}, cp, metrics.New(), nil)
	require.NoError(t, err)
	srv := NewServer(a)

	_, err = srv.BatchIsAuthorized(context.Background(), &pb.BatchIsAuthorizedRequest{})
	st, _ := status.FromError(err)
	require.Equal(t, codes.Unimplemented, st.Code())

	_, err = srv.ValidatePolicy(context.Background(), &pb.ValidatePolicyRequest{})
	st, _ = status.FromError(err)
	require.Equal(t, codes.Unimplemented, st.Code())
}
