package authz

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/wso2/policy-authz/internal/audit"
	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/cache"
	"github.com/wso2/policy-authz/internal/domainerr"
	"github.com/wso2/policy-authz/internal/id"
	"github.com/wso2/policy-authz/internal/jwks"
	"github.com/wso2/policy-authz/internal/metrics"
)

type fakeLoader struct {
	statements map[string]string
	schema     *authzmodel.ParsedSchema
}

func (f *fakeLoader) LoadPolicySet(ctx context.Context, storeId id.PolicyStoreId) (map[string]string, *authzmodel.ParsedSchema, error) {
	return f.statements, f.schema, nil
}

type fakeIdentitySourceStore struct {
	sources map[string]*authzmodel.IdentitySource
}

func (f *fakeIdentitySourceStore) GetIdentitySource(ctx context.Context, storeId id.PolicyStoreId, sourceId id.IdentitySourceId) (*authzmodel.IdentitySource, error) {
	src, ok := f.sources[storeId.String()+"/"+sourceId.String()]
	if !ok {
		return nil, domainerr.ErrIdentitySourceNotFound
	}
	return src, nil
}

type recordingAuditRepo struct {
	mu     sync.Mutex
	events []authzmodel.Event
}

func (r *recordingAuditRepo) CurrentAuditVersion(ctx context.Context, aggregateId string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, ev := range r.events {
		if ev.AggregateId == aggregateId && ev.Version > max {
			max = ev.Version
		}
	}
	return max, nil
}

func (r *recordingAuditRepo) AppendAuditEvents(ctx context.Context, aggregateId string, expectedVersion int, events []authzmodel.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r *recordingAuditRepo) waitForEvent(t *testing.T) authzmodel.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		n := len(r.events)
		r.mu.Unlock()
		if n > 0 {
			r.mu.Lock()
			ev := r.events[0]
			r.mu.Unlock()
			return ev
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("no audit event was published")
	return authzmodel.Event{}
}

func newTestService(t *testing.T, statements map[string]string) (*Service, *recordingAuditRepo) {
	t.Helper()
	c, err := cache.New(&fakeLoader{statements: statements})
	require.NoError(t, err)

	repo := &recordingAuditRepo{}
	bus := audit.New(repo, nil)
	return New(nil, c, nil, bus, metrics.New(), nil), repo
}

func TestIsAuthorizedAllowsMatchingPermit(t *testing.T) {
	svc, repo := newTestService(t, map[string]string{
		"p1": `permit(principal == User::"alice", action == Action::"view", resource == Document::"doc1");`,
	})

	result, err := svc.IsAuthorized(context.Background(), Request{
		StoreId:   "store-1",
		Principal: authzmodel.EntityIdentifier{EntityType: "User", EntityId: "alice"},
		Action:    authzmodel.EntityIdentifier{EntityType: "Action", EntityId: "view"},
		Resource:  authzmodel.EntityIdentifier{EntityType: "Document", EntityId: "doc1"},
	})
	require.NoError(t, err)
	require.Equal(t, authzmodel.Allow, result.Decision)
	require.Equal(t, []string{"p1"}, result.DeterminingPolicyIds)

	ev := repo.waitForEvent(t)
	require.Equal(t, authzmodel.EventAuthorizationPerformed, ev.Type)
	require.Equal(t, authzmodel.Allow, ev.Authz.Decision)
}

func TestIsAuthorizedDeniesNonMatchingPrincipal(t *testing.T) {
	svc, _ := newTestService(t, map[string]string{
		"p1": `permit(principal == User::"alice", action == Action::"view", resource == Document::"doc1");`,
	})

	result, err := svc.IsAuthorized(context.Background(), Request{
		StoreId:   "store-1",
		Principal: authzmodel.EntityIdentifier{EntityType: "User", EntityId: "bob"},
		Action:    authzmodel.EntityIdentifier{EntityType: "Action", EntityId: "view"},
		Resource:  authzmodel.EntityIdentifier{EntityType: "Document", EntityId: "doc1"},
	})
	require.NoError(t, err)
	require.Equal(t, authzmodel.Deny, result.Decision)
}

func TestIsAuthorizedSurfacesCompilationErrorAsError(t *testing.T) {
	svc, _ := newTestService(t, map[string]string{
		"broken": `this is not a policy`,
	})

	_, err := svc.IsAuthorized(context.Background(), Request{StoreId: "store-1"})
	require.ErrorIs(t, err, domainerr.ErrCompilationError)
}

func TestBatchIsAuthorizedSharesOneCacheLookup(t *testing.T) {
	m := metrics.New()
	c, err := cache.New(&fakeLoader{statements: map[string]string{
		"p1": `permit(principal == User::"alice", action, resource);`,
	}}, cache.WithMetrics(m))
	require.NoError(t, err)
	svc := New(nil, c, nil, audit.New(&recordingAuditRepo{}, nil), metrics.New(), nil)

	items := []Request{
		{Principal: authzmodel.EntityIdentifier{EntityType: "User", EntityId: "alice"}, Action: authzmodel.EntityIdentifier{EntityType: "Action", EntityId: "view"}, Resource: authzmodel.EntityIdentifier{EntityType: "Document", EntityId: "doc1"}},
		{Principal: authzmodel.EntityIdentifier{EntityType: "User", EntityId: "bob"}, Action: authzmodel.EntityIdentifier{EntityType: "Action", EntityId: "view"}, Resource: authzmodel.EntityIdentifier{EntityType: "Document", EntityId: "doc1"}},
	}
	results, err := svc.BatchIsAuthorized(context.Background(), "store-1", items)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, authzmodel.Allow, results[0].Result.Decision)
	require.Equal(t, authzmodel.Deny, results[1].Result.Decision)

	snap := m.Snapshot()
	require.EqualValues(t, 1, snap.CacheHits+snap.CacheMisses)
}

func TestValidatePolicyReportsSyntaxDiagnostic(t *testing.T) {
	svc, _ := newTestService(t, nil)

	diag := svc.ValidatePolicy(`permit(principal, action, resource);`, nil)
	require.Nil(t, diag)

	diag = svc.ValidatePolicy(`not a policy at all`, nil)
	require.NotNil(t, diag)
}

func TestTestAuthorizationEvaluatesAdHocPoliciesWithoutCaching(t *testing.T) {
	svc, _ := newTestService(t, nil)

	result, failures, err := svc.TestAuthorization(
		map[string]string{"p1": `permit(principal == User::"alice", action, resource);`},
		nil,
		Request{
			Principal: authzmodel.EntityIdentifier{EntityType: "User", EntityId: "alice"},
			Action:    authzmodel.EntityIdentifier{EntityType: "Action", EntityId: "view"},
			Resource:  authzmodel.EntityIdentifier{EntityType: "Document", EntityId: "doc1"},
		},
	)
	require.NoError(t, err)
	require.Empty(t, failures)
	require.Equal(t, authzmodel.Allow, result.Decision)
}

func signTestToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestIsAuthorizedWithTokenFailsWithoutReachableJWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	c, err := cache.New(&fakeLoader{statements: map[string]string{
		"p1": `permit(principal in RealmRole::"admin", action == Action::"read", resource == Document::"doc1");`,
	}})
	require.NoError(t, err)

	repo := &recordingAuditRepo{}
	bus := audit.New(repo, nil)

	jwksCache := jwks.New(time.Minute, time.Second)
	identitySources := &fakeIdentitySourceStore{sources: map[string]*authzmodel.IdentitySource{
		"store-1/idsrc-1": {
			StoreId: "store-1",
			Id:      "idsrc-1",
			Kind:    authzmodel.KindOIDC,
			Config: authzmodel.IdentitySourceConfig{
				IssuerURL:         "https://issuer.example",
				AcceptedClientIds: []string{"client-1"},
			},
			Claims: &authzmodel.ClaimsMapping{
				PrincipalIdClaimPath: "sub",
				GroupClaimPath:       "realm_access.roles",
			},
		},
	}}

	svc := New(identitySources, c, jwksCache, bus, metrics.New(), nil)

	token := signTestToken(t, key, jwt.MapClaims{
		"iss": "https://issuer.example",
		"aud": "client-1",
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
		"realm_access": map[string]any{
			"roles": []any{"admin"},
		},
	})

	// No real JWKS endpoint backs this issuer, so key resolution fails
	// before claim mapping runs; the key-fetch and signature paths are
	// covered directly in the jwks and jwtvalidate package tests.
	_, err = svc.IsAuthorizedWithToken(context.Background(), TokenRequest{
		StoreId:          "store-1",
		IdentitySourceId: "idsrc-1",
		AccessToken:      token,
		Action:           authzmodel.EntityIdentifier{EntityType: "Action", EntityId: "read"},
		Resource:         authzmodel.EntityIdentifier{EntityType: "Document", EntityId: "doc1"},
	})
	require.Error(t, err)
}

func TestIsAuthorizedWithTokenFailsForUnknownIdentitySource(t *testing.T) {
	c, err := cache.New(&fakeLoader{})
	require.NoError(t, err)
	identitySources := &fakeIdentitySourceStore{sources: map[string]*authzmodel.IdentitySource{}}
	svc := New(identitySources, c, jwks.New(time.Minute, time.Second), nil, metrics.New(), nil)

	_, err = svc.IsAuthorizedWithToken(context.Background(), TokenRequest{
		StoreId:          "store-1",
		IdentitySourceId: "missing",
		AccessToken:      "whatever",
	})
	require.ErrorIs(t, err, domainerr.ErrIdentitySourceNotFound)
}
