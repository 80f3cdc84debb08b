package id

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPolicyStoreId(t *testing.T) {
	psid, err := NewPolicyStoreId("ps-1")
	require.NoError(t, err)
	require.Equal(t, "ps-1", psid.String())

	_, err = NewPolicyStoreId("")
	require.ErrorIs(t, err, ErrEmpty)
}

func TestNewPolicyId(t *testing.T) {
	_, err := NewPolicyId("")
	require.ErrorIs(t, err, ErrEmpty)

	pid, err := NewPolicyId("policy-1")
	require.NoError(t, err)
	require.Equal(t, "policy-1", pid.String())
}

func TestNewIdentitySourceIdAndSnapshotId(t *testing.T) {
	_, err := NewIdentitySourceId("")
	require.ErrorIs(t, err, ErrEmpty)

	_, err = NewSnapshotId("")
	require.ErrorIs(t, err, ErrEmpty)

	tid, err := NewTemplateId("tmpl-1")
	require.NoError(t, err)
	require.Equal(t, "tmpl-1", tid.String())
}
