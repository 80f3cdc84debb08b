// Package metrics tracks the service counters as plain atomics, behind a
// noop-safe wrapper, so every other package can record a metric without
// caring whether Prometheus exposition is enabled. Register exposes the
// same atomics to Prometheus via GaugeFunc so both views stay in lockstep.
package metrics

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wso2/policy-authz/internal/authzmodel"
)

const namespace = "policy_authz"

// Metrics is the set of service-wide counters. The zero value is usable;
// construct with New for convenience.
type Metrics struct {
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	authorizationCount atomic.Int64
	authorizationAllow atomic.Int64
	authorizationDeny  atomic.Int64

	totalLatencyMicros atomic.Int64
	minLatencyMicros   atomic.Int64
	maxLatencyMicros   atomic.Int64

	lastSyncUnixMillis atomic.Int64
}

// New constructs a Metrics with the min-latency watermark initialized so
// the first observation always sets it.
func New() *Metrics {
	m := &Metrics{}
	m.minLatencyMicros.Store(math.MaxInt64)
	return m
}

// CacheHit records a policy-set cache hit.
func (m *Metrics) CacheHit() { m.cacheHits.Add(1) }

// CacheMiss records a policy-set cache miss (a build was required).
func (m *Metrics) CacheMiss() { m.cacheMisses.Add(1) }

// RecordAuthorization records the outcome and latency of one IsAuthorized
// evaluation.
func (m *Metrics) RecordAuthorization(decision authzmodel.Decision, latencyMicros int64) {
	m.authorizationCount.Add(1)
	if decision == authzmodel.Allow {
		m.authorizationAllow.Add(1)
	} else {
		m.authorizationDeny.Add(1)
	}

	m.totalLatencyMicros.Add(latencyMicros)

	for {
		cur := m.minLatencyMicros.Load()
		if latencyMicros >= cur {
			break
		}
		if m.minLatencyMicros.CompareAndSwap(cur, latencyMicros) {
			break
		}
	}
	for {
		cur := m.maxLatencyMicros.Load()
		if latencyMicros <= cur {
			break
		}
		if m.maxLatencyMicros.CompareAndSwap(cur, latencyMicros) {
			break
		}
	}
}

// RecordSync stamps the time of the agent's most recent successful
// control-plane poll, so StalenessSeconds can report how far behind the
// locally served policy set is.
func (m *Metrics) RecordSync(at time.Time) {
	m.lastSyncUnixMillis.Store(at.UnixMilli())
}

// StalenessSeconds returns how long ago RecordSync was last called, or -1
// if it has never been called (the agent hasn't completed its first sync).
func (m *Metrics) StalenessSeconds() float64 {
	last := m.lastSyncUnixMillis.Load()
	if last == 0 {
		return -1
	}
	return time.Since(time.UnixMilli(last)).Seconds()
}

// Reset zeroes every counter, including re-arming the min-latency watermark,
// but leaves the last-sync timestamp untouched since it reflects agent state
// rather than a cumulative counter.
func (m *Metrics) Reset() {
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.authorizationCount.Store(0)
	m.authorizationAllow.Store(0)
	m.authorizationDeny.Store(0)
	m.totalLatencyMicros.Store(0)
	m.minLatencyMicros.Store(math.MaxInt64)
	m.maxLatencyMicros.Store(0)
}

// Snapshot is a point-in-time copy of every counter, used by the data-plane
// GetMetrics RPC and by tests.
type Snapshot struct {
	CacheHits            int64
	CacheMisses          int64
	AuthorizationCount   int64
	AuthorizationAllow   int64
	AuthorizationDeny    int64
	TotalLatencyMicros   int64
	MinLatencyMicros     int64
	MaxLatencyMicros     int64
	AverageLatencyMicros float64
	StalenessSeconds     float64
}

// Snapshot reads every counter without resetting them.
func (m *Metrics) Snapshot() Snapshot {
	count := m.authorizationCount.Load()
	total := m.totalLatencyMicros.Load()
	min := m.minLatencyMicros.Load()
	if min == math.MaxInt64 {
		min = 0
	}
	avg := 0.0
	if count > 0 {
		avg = float64(total) / float64(count)
	}
	return Snapshot{
		CacheHits:            m.cacheHits.Load(),
		CacheMisses:          m.cacheMisses.Load(),
		AuthorizationCount:   count,
		AuthorizationAllow:   m.authorizationAllow.Load(),
		AuthorizationDeny:    m.authorizationDeny.Load(),
		TotalLatencyMicros:   total,
		MinLatencyMicros:     min,
		MaxLatencyMicros:     m.maxLatencyMicros.Load(),
		AverageLatencyMicros: avg,
		StalenessSeconds:     m.StalenessSeconds(),
	}
}

// Register exposes every atomic as a Prometheus GaugeFunc on reg, so the
// same counters driving the gRPC GetMetrics response are also scrapeable.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	gauges := []struct {
		name string
		help string
		fn   func() float64
	}{
		{"cache_hits_total", "Policy set cache hits", func() float64 { return float64(m.cacheHits.Load()) }},
		{"cache_misses_total", "Policy set cache misses", func() float64 { return float64(m.cacheMisses.Load()) }},
		{"authorization_count_total", "Authorization evaluations performed", func() float64 { return float64(m.authorizationCount.Load()) }},
		{"authorization_allow_total", "Authorization evaluations that resolved to ALLOW", func() float64 { return float64(m.authorizationAllow.Load()) }},
		{"authorization_deny_total", "Authorization evaluations that resolved to DENY", func() float64 { return float64(m.authorizationDeny.Load()) }},
		{"authorization_latency_micros_total", "Sum of authorization evaluation latency in microseconds", func() float64 { return float64(m.totalLatencyMicros.Load()) }},
		{"authorization_latency_micros_min", "Minimum observed authorization evaluation latency in microseconds", func() float64 { return float64(m.Snapshot().MinLatencyMicros) }},
		{"authorization_latency_micros_max", "Maximum observed authorization evaluation latency in microseconds", func() float64 { return float64(m.maxLatencyMicros.Load()) }},
		{"agent_staleness_seconds", "Seconds since the edge-cache agent's last successful control-plane sync, -1 if never synced", m.StalenessSeconds},
	}
	for _, g := range gauges {
		gf := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      g.name,
			Help:      g.help,
		}, g.fn)
		if err := reg.Register(gf); err != nil {
			return err
		}
	}
	return nil
}
