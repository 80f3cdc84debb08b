package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/wso2/policy-authz/internal/authzmodel"
)

func TestMetricsCacheCounters(t *testing.T) {
	m := New()
	m.CacheHit()
	m.CacheHit()
	m.CacheMiss()

	snap := m.Snapshot()
	require.EqualValues(t, 2, snap.CacheHits)
	require.EqualValues(t, 1, snap.CacheMisses)
}

func TestMetricsAuthorizationLatencyWatermarks(t *testing.T) {
	m := New()
	m.RecordAuthorization(authzmodel.Allow, 120)
	m.RecordAuthorization(authzmodel.Deny, 40)
	m.RecordAuthorization(authzmodel.Allow, 300)

	snap := m.Snapshot()
	require.EqualValues(t, 3, snap.AuthorizationCount)
	require.EqualValues(t, 2, snap.AuthorizationAllow)
	require.EqualValues(t, 1, snap.AuthorizationDeny)
	require.EqualValues(t, 40, snap.MinLatencyMicros)
	require.EqualValues(t, 300, snap.MaxLatencyMicros)
	require.EqualValues(t, 460, snap.TotalLatencyMicros)
	require.InDelta(t, 153.33, snap.AverageLatencyMicros, 0.01)
}

func TestMetricsSnapshotWithNoObservationsHasZeroMin(t *testing.T) {
	m := New()
	snap := m.Snapshot()
	require.Zero(t, snap.MinLatencyMicros)
	require.Zero(t, snap.AverageLatencyMicros)
}

func TestMetricsStalenessIsNegativeOneBeforeFirstSync(t *testing.T) {
	m := New()
	require.Equal(t, -1.0, m.StalenessSeconds())
}

func TestMetricsStalenessReflectsLastRecordSync(t *testing.T) {
	m := New()
	m.RecordSync(time.Now().Add(-5 * time.Second))
	require.InDelta(t, 5.0, m.StalenessSeconds(), 1.0)
}

func TestMetricsResetZeroesCounters(t *testing.T) {
	m := New()
	m.CacheHit()
	m.CacheMiss()
	m.RecordAuthorization(authzmodel.Allow, 120)
	m.RecordAuthorization(authzmodel.Deny, 40)

	m.Reset()

	snap := m.Snapshot()
	require.Zero(t, snap.CacheHits)
	require.Zero(t, snap.CacheMisses)
	require.Zero(t, snap.AuthorizationCount)
	require.Zero(t, snap.AuthorizationAllow)
	require.Zero(t, snap.AuthorizationDeny)
	require.Zero(t, snap.TotalLatencyMicros)
	require.Zero(t, snap.MinLatencyMicros)
	require.Zero(t, snap.MaxLatencyMicros)
	require.Zero(t, snap.AverageLatencyMicros)
}

func TestMetricsResetRearmsMinLatencyWatermark(t *testing.T) {
	m := New()
	m.RecordAuthorization(authzmodel.Allow, 40)
	m.Reset()
	m.RecordAuthorization(authzmodel.Allow, 500)

	require.EqualValues(t, 500, m.Snapshot().MinLatencyMicros)
}

func TestMetricsRegisterWiresGaugeFuncs(t *testing.T) {
	m := New()
	m.CacheHit()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}
