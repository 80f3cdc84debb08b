package cache

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/id"
)

type fakeLoader struct {
	calls      atomic.Int32
	statements map[string]string
	schema     *authzmodel.ParsedSchema
	err        error
}

func (f *fakeLoader) LoadPolicySet(ctx context.Context, storeId id.PolicyStoreId) (map[string]string, *authzmodel.ParsedSchema, error) {
	f.calls.Add(1)
	return f.statements, f.schema, f.err
}

func TestCacheGetBuildsOnceAndReusesEntry(t *testing.T) {
	loader := &fakeLoader{statements: map[string]string{
		"p1": `permit(principal, action, resource);`,
	}}
	c, err := New(loader)
	require.NoError(t, err)

	storeId := id.PolicyStoreId("ps-1")
	set1, err := c.Get(context.Background(), storeId)
	require.NoError(t, err)
	require.Len(t, set1.Policies, 1)

	set2, err := c.Get(context.Background(), storeId)
	require.NoError(t, err)
	require.Same(t, set1, set2)
	require.EqualValues(t, 1, loader.calls.Load())
}

func TestCacheInvalidateForcesRebuild(t *testing.T) {
	loader := &fakeLoader{statements: map[string]string{
		"p1": `permit(principal, action, resource);`,
	}}
	c, err := New(loader)
	require.NoError(t, err)

	storeId := id.PolicyStoreId("ps-1")
	_, err = c.Get(context.Background(), storeId)
	require.NoError(t, err)

	c.Invalidate(storeId)
	_, err = c.Get(context.Background(), storeId)
	require.NoError(t, err)
	require.EqualValues(t, 2, loader.calls.Load())
}

func TestCacheGetSurfacesCompileFailures(t *testing.T) {
	loader := &fakeLoader{statements: map[string]string{
		"bad": `nope(principal, action, resource);`,
	}}
	c, err := New(loader)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), id.PolicyStoreId("ps-1"))
	require.Error(t, err)
}

func TestCacheBuildEphemeralBypassesStoredEntries(t *testing.T) {
	loader := &fakeLoader{}
	c, err := New(loader)
	require.NoError(t, err)

	set, failures := c.BuildEphemeral(map[string]string{
		"p1": `permit(principal, action, resource);`,
	}, nil)
	require.Empty(t, failures)
	require.Len(t, set.Policies, 1)
	require.EqualValues(t, 0, loader.calls.Load())
}
