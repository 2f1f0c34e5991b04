package analytics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gcbaptista/go-recommendation-blender/model"
)

// mockReader is a fixed RecommendationReader for testing
type mockReader struct {
	keys    []string
	version uint64
}

func (m *mockReader) GetRecommendations(_ string) ([]string, error) { return nil, nil }
func (m *mockReader) ListKeys() []string                            { return m.keys }
func (m *mockReader) ResultVersion() uint64                         { return m.version }
func (m *mockReader) ResultUpdatedAt() time.Time                    { return time.Time{} }

func newTestService(t *testing.T, now time.Time) *Service {
	t.Helper()
	service := NewService(&mockReader{keys: []string{"a", "b"}, version: 3}, "", zaptest.NewLogger(t))
	service.now = func() time.Time { return now }
	return service
}

func TestService_TrackLookup(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	service := newTestService(t, now)

	service.TrackLookup(model.LookupEvent{Key: "a", Found: true, ValueCount: 10, ResponseTime: 50 * time.Microsecond})

	require.Len(t, service.events, 1)
	assert.Equal(t, "a", service.events[0].Key)
	assert.Equal(t, now, service.events[0].Timestamp)
}

func TestService_TrackLookupKeepsLatestEvents(t *testing.T) {
	service := newTestService(t, time.Now())

	for i := 0; i < maxEventsToKeep+10; i++ {
		service.TrackLookup(model.LookupEvent{Key: "a", Found: true})
	}
	assert.Len(t, service.events, maxEventsToKeep)
}

func TestService_GetDashboardData(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	service := newTestService(t, now)

	track := func(key string, found bool, rt time.Duration, age time.Duration) {
		service.TrackLookup(model.LookupEvent{Key: key, Found: found, ResponseTime: rt, Timestamp: now.Add(-age)})
	}
	track("a", true, 200*time.Microsecond, time.Minute)
	track("a", true, 2*time.Millisecond, 2*time.Minute)
	track("b", true, 10*time.Millisecond, 3*time.Minute)
	track("zz", false, 30*time.Millisecond, 4*time.Minute)
	// Previous day, counted only in the weekly key ranking and the change percentage
	track("b", true, time.Millisecond, 30*time.Hour)
	track("b", true, time.Millisecond, 31*time.Hour)

	dashboard, err := service.GetDashboardData()
	require.NoError(t, err)

	assert.Equal(t, 4, dashboard.TotalLookups)
	assert.InDelta(t, 100.0, dashboard.LookupsChangePercent, 0.001)
	assert.InDelta(t, 0.75, dashboard.HitRate, 0.001)
	assert.Equal(t, int64(10550), dashboard.AvgResponseTime)
	assert.Equal(t, 2, dashboard.StoredKeys)
	assert.Equal(t, uint64(3), dashboard.ResultVersion)

	require.Len(t, dashboard.LookupPerformance24h, 24)
	assert.Equal(t, 4, dashboard.LookupPerformance24h[12].LookupCount)

	require.Len(t, dashboard.PopularKeys, 3)
	assert.Equal(t, model.PopularKey{Key: "b", LookupCount: 3}, dashboard.PopularKeys[0])
	assert.Equal(t, model.PopularKey{Key: "a", LookupCount: 2}, dashboard.PopularKeys[1])
	assert.Equal(t, []model.PopularKey{{Key: "zz", LookupCount: 1, MissCount: 1}}, dashboard.MissedKeys)

	dist := dashboard.ResponseTimeDistribution
	assert.Equal(t, 1, dist.BucketUnder1ms)
	assert.Equal(t, 1, dist.Bucket1To5ms)
	assert.Equal(t, 1, dist.Bucket5To25ms)
	assert.Equal(t, 1, dist.Bucket25msPlus)
	assert.InDelta(t, 25.0, dist.Percentage25Plus, 0.001)
}

func TestService_EmptyDashboard(t *testing.T) {
	service := newTestService(t, time.Now())

	dashboard, err := service.GetDashboardData()
	require.NoError(t, err)
	assert.Zero(t, dashboard.TotalLookups)
	assert.Zero(t, dashboard.HitRate)
	assert.Zero(t, dashboard.LookupsChangePercent)
	assert.Empty(t, dashboard.PopularKeys)
}

func TestService_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	reader := &mockReader{}

	service := NewService(reader, dir, zaptest.NewLogger(t))
	service.TrackLookup(model.LookupEvent{Key: "a", Found: true, ResponseTime: time.Millisecond})
	service.TrackLookup(model.LookupEvent{Key: "b", Found: false})
	require.NoError(t, service.Save())

	restored := NewService(reader, dir, zaptest.NewLogger(t))
	require.Len(t, restored.events, 2)
	assert.Equal(t, "a", restored.events[0].Key)
	assert.Equal(t, time.Millisecond, restored.events[0].ResponseTime)
	assert.False(t, restored.events[1].Found)
}

func TestService_SaveWithoutDataDir(t *testing.T) {
	service := newTestService(t, time.Now())
	service.TrackLookup(model.LookupEvent{Key: "a"})
	assert.NoError(t, service.Save())
}
