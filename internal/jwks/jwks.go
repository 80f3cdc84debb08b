// Package jwks maintains a per-issuer JSON Web Key Set cache, keyed by
// issuer, so one deployment can serve identity sources from many OIDC
// providers. Concurrent first-lookups for the same issuer are coalesced
// with singleflight so a burst of requests for a cold issuer triggers
// exactly one HTTP fetch.
package jwks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"golang.org/x/sync/singleflight"

	"github.com/wso2/policy-authz/internal/domainerr"
)

// Cache resolves a jwt.Keyfunc for a given issuer, fetching and caching its
// JWKS (via OIDC discovery if no explicit JWKS URI is known) on first use.
type Cache struct {
	mu       sync.RWMutex
	byIssuer map[string]keyfunc.Keyfunc
	group    singleflight.Group

	refreshInterval time.Duration
	discoveryClient *http.Client
}

// New constructs a Cache. refreshInterval controls how often the
// underlying jwkset storage re-polls the JWKS endpoint in the background;
// discoveryTimeout bounds the OIDC discovery HTTP call.
func New(refreshInterval, discoveryTimeout time.Duration) *Cache {
	return &Cache{
		byIssuer:        make(map[string]keyfunc.Keyfunc),
		refreshInterval: refreshInterval,
		discoveryClient: &http.Client{Timeout: discoveryTimeout},
	}
}

// Keyfunc returns the jwt.Keyfunc-compatible resolver for issuerURL,
// building and caching it on first use. If jwksURI is empty, it is
// discovered from the issuer's /.well-known/openid-configuration document.
func (c *Cache) Keyfunc(ctx context.Context, issuerURL, jwksURI string) (keyfunc.Keyfunc, error) {
	if kf, ok := c.lookup(issuerURL); ok {
		return kf, nil
	}

	v, err, _ := c.group.Do(issuerURL, func() (any, error) {
		if kf, ok := c.lookup(issuerURL); ok {
			return kf, nil
		}

		uri := jwksURI
		if uri == "" {
			discovered, err := c.discoverJWKSURI(ctx, issuerURL)
			if err != nil {
				return nil, err
			}
			uri = discovered
		}

		storage, err := jwkset.NewStorageFromHTTP(uri, jwkset.HTTPClientStorageOptions{
			Ctx:             ctx,
			RefreshInterval: c.refreshInterval,
			ValidateOptions: jwkset.JWKValidateOptions{
				// Some OIDC providers emit JWKs with metadata the stricter
				// validator rejects; signature validation still happens.
				SkipAll: true,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: building JWKS storage for %s: %v", domainerr.ErrJwksUnavailable, issuerURL, err)
		}

		kf, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: storage})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domainerr.ErrKeyFetchFailure, err)
		}

		c.mu.Lock()
		c.byIssuer[issuerURL] = kf
		c.mu.Unlock()
		return kf, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(keyfunc.Keyfunc), nil
}

func (c *Cache) lookup(issuerURL string) (keyfunc.Keyfunc, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	kf, ok := c.byIssuer[issuerURL]
	return kf, ok
}

// Invalidate drops the cached keyfunc for issuerURL, forcing the next
// Keyfunc call to rediscover and refetch it. Used after a run of
// ErrUnknownKid failures, in case the issuer rotated keys out of band.
func (c *Cache) Invalidate(issuerURL string) {
	c.mu.Lock()
	delete(c.byIssuer, issuerURL)
	c.mu.Unlock()
}

type oidcDiscoveryDocument struct {
	JWKSURI string `json:"jwks_uri"`
}

func (c *Cache) discoverJWKSURI(ctx context.Context, issuerURL string) (string, error) {
	discoveryURL := strings.TrimSuffix(issuerURL, "/") + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: building discovery request: %v", domainerr.ErrJwksUnavailable, err)
	}

	resp, err := c.discoveryClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetching %s: %v", domainerr.ErrJwksUnavailable, discoveryURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: discovery document at %s returned status %d", domainerr.ErrJwksUnavailable, discoveryURL, resp.StatusCode)
	}

	var doc oidcDiscoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("%w: decoding discovery document: %v", domainerr.ErrJwksUnavailable, err)
	}
	if doc.JWKSURI == "" {
		return "", fmt.Errorf("%w: discovery document at %s has no jwks_uri", domainerr.ErrJwksUnavailable, discoveryURL)
	}
	return doc.JWKSURI, nil
}
