// Package cache holds the per-store compiled policy set cache: lazily built
// on first lookup, explicitly invalidated when a store's policies or schema
// change, and periodically refreshed in the background
// so a direct database edit is eventually picked up without a restart.
package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/wso2/policy-authz/internal/authzmodel"
	"github.com/wso2/policy-authz/internal/compiler"
	"github.com/wso2/policy-authz/internal/id"
)

// PolicySetLoader loads everything needed to compile one store's policy
// set. The repository package implements this against the database.
type PolicySetLoader interface {
	LoadPolicySet(ctx context.Context, storeId id.PolicyStoreId) (statements map[string]string, schema *authzmodel.ParsedSchema, err error)
}

// MetricsRecorder is the narrow slice of the metrics package the cache
// needs; kept as a local interface to avoid an import cycle.
type MetricsRecorder interface {
	CacheHit()
	CacheMiss()
}

type noopMetrics struct{}

func (noopMetrics) CacheHit()  {}
func (noopMetrics) CacheMiss() {}

type entry struct {
	compiled atomic.Pointer[compiler.CompiledPolicySet]
	mu       sync.Mutex
}

// Cache is the policy-set cache for every store in the deployment. The zero
// value is not usable; construct with New.
type Cache struct {
	compiler *compiler.Compiler
	loader   PolicySetLoader
	metrics  MetricsRecorder
	log      *zap.Logger

	entries sync.Map // id.PolicyStoreId -> *entry

	cronSched *cron.Cron
	cronEntry cron.EntryID
}

// Option configures optional Cache behavior.
type Option func(*Cache)

// WithMetrics swaps in a metrics recorder. Defaults to a no-op recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithLogger swaps in a logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// New constructs a Cache backed by loader for building compiled policy
// sets on demand.
func New(loader PolicySetLoader, opts ...Option) (*Cache, error) {
	comp, err := compiler.NewCompiler()
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	c := &Cache{
		compiler: comp,
		loader:   loader,
		metrics:  noopMetrics{},
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the compiled policy set for storeId, building it on first
// access and reusing the cached copy on every subsequent call until the
// entry is invalidated or refreshed.
func (c *Cache) Get(ctx context.Context, storeId id.PolicyStoreId) (*compiler.CompiledPolicySet, error) {
	v, _ := c.entries.LoadOrStore(storeId, &entry{})
	e := v.(*entry)

	if set := e.compiled.Load(); set != nil {
		c.metrics.CacheHit()
		return set, nil
	}
	c.metrics.CacheMiss()

	e.mu.Lock()
	defer e.mu.Unlock()
	if set := e.compiled.Load(); set != nil {
		return set, nil
	}

	set, err := c.build(ctx, storeId)
	if err != nil {
		return nil, err
	}
	e.compiled.Store(set)
	return set, nil
}

// Invalidate drops the cached entry for storeId, forcing the next Get to
// rebuild it from the repository. internal/controlplane invokes this after a
// store's policies or schema change, the store is deleted, or a snapshot is
// rolled back; template mutations do not invalidate.
func (c *Cache) Invalidate(storeId id.PolicyStoreId) {
	c.entries.Delete(storeId)
}

// build loads and compiles a store's full policy set, including template
// instantiations. Every compilation failure is logged, and a single error
// reporting how many policies failed is returned; no partial set is. An
// ad-hoc ephemeral build (ValidatePolicy, TestAuthorization) should call
// BuildEphemeral instead of going through the cache at all.
func (c *Cache) build(ctx context.Context, storeId id.PolicyStoreId) (*compiler.CompiledPolicySet, error) {
	statements, schema, err := c.loader.LoadPolicySet(ctx, storeId)
	if err != nil {
		return nil, fmt.Errorf("cache: loading policy set for %s: %w", storeId, err)
	}
	set, failures := c.compiler.CompilePolicySet(statements, schema)
	if len(failures) > 0 {
		for policyId, diag := range failures {
			c.log.Warn("policy failed to compile during cache build",
				zap.String("store_id", string(storeId)),
				zap.String("policy_id", policyId),
				zap.Error(diag))
		}
		return nil, fmt.Errorf("cache: %d polic(ies) in store %s failed to compile", len(failures), storeId)
	}
	return set, nil
}

// BuildEphemeral compiles a policy set without touching the cache at all,
// used for ValidatePolicy and TestAuthorization requests that must never
// be influenced by, or leak into, the live compiled cache.
func (c *Cache) BuildEphemeral(statements map[string]string, schema *authzmodel.ParsedSchema) (*compiler.CompiledPolicySet, map[string]*compiler.Diagnostic) {
	return c.compiler.CompilePolicySet(statements, schema)
}

// StartBackgroundRefresh schedules a periodic rebuild of every currently
// cached store on the given cron spec (e.g. "@every 5m"), so a policy row
// edited directly in the database is eventually reflected without an
// explicit Invalidate call.
func (c *Cache) StartBackgroundRefresh(spec string) error {
	if c.cronSched != nil {
		return fmt.Errorf("cache: background refresh already started")
	}
	sched := cron.New()
	entryID, err := sched.AddFunc(spec, c.refreshAll)
	if err != nil {
		return fmt.Errorf("cache: invalid refresh schedule %q: %w", spec, err)
	}
	c.cronSched = sched
	c.cronEntry = entryID
	sched.Start()
	return nil
}

// StopBackgroundRefresh stops the cron scheduler started by
// StartBackgroundRefresh, if any.
func (c *Cache) StopBackgroundRefresh() {
	if c.cronSched == nil {
		return
	}
	ctx := c.cronSched.Stop()
	<-ctx.Done()
	c.cronSched = nil
}

func (c *Cache) refreshAll() {
	ctx := context.Background()
	c.entries.Range(func(key, value any) bool {
		storeId := key.(id.PolicyStoreId)
		e := value.(*entry)
		set, err := c.build(ctx, storeId)
		if err != nil {
			c.log.Warn("background cache refresh failed", zap.String("store_id", string(storeId)), zap.Error(err))
			return true
		}
		e.compiled.Store(set)
		return true
	})
}
