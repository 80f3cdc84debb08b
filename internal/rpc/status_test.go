package rpc

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wso2/policy-authz/internal/domainerr"
)

func TestToStatusMapsSentinelsToExpectedCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"policy store not found", domainerr.ErrPolicyStoreNotFound, codes.NotFound},
		{"policy not found", domainerr.ErrPolicyNotFound, codes.NotFound},
		{"invalid argument", domainerr.ErrInvalidArgument, codes.InvalidArgument},
		{"invalid policy syntax", domainerr.ErrInvalidPolicySyntax, codes.InvalidArgument},
		{"schema validation failed", domainerr.ErrSchemaValidationFailed, codes.InvalidArgument},
		{"duplicate policy id", domainerr.ErrDuplicatePolicyId, codes.AlreadyExists},
		{"version conflict", domainerr.ErrVersionConflict, codes.Aborted},
		{"token invalid", domainerr.ErrTokenInvalid, codes.Unauthenticated},
		{"unknown issuer", domainerr.ErrUnknownIssuer, codes.Unavailable},
		{"jwks unavailable", domainerr.ErrJwksUnavailable, codes.Unavailable},
		{"agent not synced", domainerr.ErrAgentNotSynced, codes.Unavailable},
		{"compilation error", domainerr.ErrCompilationError, codes.FailedPrecondition},
		{"repository error", domainerr.ErrRepository, codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, ok := status.FromError(toStatus(tc.err))
			require.True(t, ok)
			require.Equal(t, tc.code, st.Code())
		})
	}
}

func TestToStatusNilIsNil(t *testing.T) {
	require.NoError(t, toStatus(nil))
}

func TestToStatusPassesThroughExistingStatus(t *testing.T) {
	original := status.Error(codes.PermissionDenied, "nope")
	require.Equal(t, original, toStatus(original))
}

func requireNotFound(t *testing.T, err error) {
	t.Helper()
	st, ok := status.FromError(err)
	require.True(t, ok)
	require.Equal(t, codes.NotFound, st.Code())
}

func requireInvalidArgument(t *testing.T, err error) {
	t.Helper()
	st, ok := status.FromError(err)
	require.True(t, ok)
	require.Equal(t, codes.InvalidArgument, st.Code())
}
