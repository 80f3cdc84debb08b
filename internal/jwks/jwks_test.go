package jwks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// staticKeyfunc is a fake keyfunc.Keyfunc for tests that don't want to hit
// a real JWKS endpoint, mirroring the stub the platform's own JWT
// authenticator tests use.
type staticKeyfunc struct{ key any }

func (s staticKeyfunc) Keyfunc(token *jwt.Token) (any, error) { return s.key, nil }
func (s staticKeyfunc) KeyfuncCtx(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) { return s.key, nil }
}
func (s staticKeyfunc) Storage() jwkset.Storage { return nil }
func (s staticKeyfunc) VerificationKeySet(ctx context.Context) (jwt.VerificationKeySet, error) {
	return jwt.VerificationKeySet{}, nil
}

func TestCacheLookupReturnsCachedKeyfuncWithoutNetworkCall(t *testing.T) {
	c := New(time.Minute, time.Second)
	c.byIssuer["https://issuer.example.com"] = staticKeyfunc{key: "secret"}

	kf, err := c.Keyfunc(context.Background(), "https://issuer.example.com", "")
	require.NoError(t, err)
	require.NotNil(t, kf)
}

func TestCacheInvalidateForcesRefetch(t *testing.T) {
	c := New(time.Minute, time.Second)
	c.byIssuer["https://issuer.example.com"] = staticKeyfunc{key: "secret"}

	c.Invalidate("https://issuer.example.com")
	_, ok := c.lookup("https://issuer.example.com")
	require.False(t, ok)
}

func TestDiscoverJWKSURI(t *testing.T) {
	var jwksURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jwks_uri": "` + jwksURL + `"}`))
	}))
	defer srv.Close()
	jwksURL = srv.URL + "/jwks.json"

	c := New(time.Minute, time.Second)
	uri, err := c.discoverJWKSURI(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, jwksURL, uri)
}

func TestDiscoverJWKSURIMissingFieldFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(time.Minute, time.Second)
	_, err := c.discoverJWKSURI(context.Background(), srv.URL)
	require.Error(t, err)
}
