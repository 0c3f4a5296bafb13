package analytics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "analytics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func visitAt(visitor, path, browser, ref string, ts time.Time) *Visit {
	return &Visit{
		VisitorID: visitor, SessionID: "s", IPHash: "h",
		Browser: browser, OS: "Linux", Device: "Desktop",
		Path: path, Referrer: ref, Timestamp: ts,
	}
}

func TestSaltIsPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.db")
	ctx := context.Background()

	s1, err := NewStore(path)
	require.NoError(t, err)
	salt1, err := s1.Salt(ctx)
	require.NoError(t, err)
	require.Len(t, salt1, 64)
	require.NoError(t, s1.Close())

	s2, err := NewStore(path)
	require.NoError(t, err)
	defer s2.Close()
	salt2, err := s2.Salt(ctx)
	require.NoError(t, err)
	assert.Equal(t, salt1, salt2)

	v, err := s2.GetSetting(ctx, "schema_version")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestGetStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveVisit(ctx, visitAt("v1", "/", "Chrome", "Google", day)))
	require.NoError(t, s.SaveVisit(ctx, visitAt("v1", "/projects/", "Chrome", "Google", day.Add(time.Minute))))
	require.NoError(t, s.SaveVisit(ctx, visitAt("v2", "/", "Firefox", "Direct", day.Add(-24*time.Hour))))
	require.NoError(t, s.SaveVisit(ctx, visitAt("v3", "/", "Firefox", "Direct", day.AddDate(0, 0, -30))))
	require.NoError(t, s.UpdateVisitDuration(ctx, "v1", "/", 40))

	stats, err := s.GetStats(ctx, day.AddDate(0, 0, -7), day.AddDate(0, 0, 1), Daily)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalViews)
	assert.Equal(t, 2, stats.UniqueVisitors)
	assert.Equal(t, 40, stats.AvgDuration)
	assert.Equal(t, []PageStat{{Path: "/", Views: 2}, {Path: "/projects/", Views: 1}}, stats.TopPages)
	assert.Equal(t, "/projects/", stats.LatestPages[0].Path)
	assert.ElementsMatch(t, []DimensionStat{{"Chrome", 2}, {"Firefox", 1}}, stats.BrowserStats)
	assert.Equal(t, []DailyView{{Date: "2026-03-09", Views: 1}, {Date: "2026-03-10", Views: 2}}, stats.DailyViews)
}

func TestGetStatsEmptyPeriodHasNoNilSlices(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	stats, err := s.GetStats(context.Background(), now.Add(-time.Hour), now, Hourly)
	require.NoError(t, err)
	assert.NotNil(t, stats.TopPages)
	assert.NotNil(t, stats.DailyViews)
	assert.Zero(t, stats.TotalViews)
}

func TestBotStatsAndCleanup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SaveBotVisit(ctx, &BotVisit{BotName: "Googlebot", IPHash: "h", UserAgent: "ua", Path: "/", Timestamp: now}))
	require.NoError(t, s.SaveBotVisit(ctx, &BotVisit{BotName: "Bingbot", IPHash: "h", UserAgent: "ua", Path: "/", Timestamp: now.AddDate(0, 0, -100)}))
	require.NoError(t, s.SaveVisit(ctx, visitAt("old", "/", "Chrome", "Direct", now.AddDate(0, 0, -100))))
	require.NoError(t, s.SaveVisit(ctx, visitAt("new", "/", "Chrome", "Direct", now)))

	n, err := s.CleanupOldVisits(ctx, now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	bots, err := s.GetBotStats(ctx, now.AddDate(-1, 0, 0), now.Add(time.Hour), Monthly)
	require.NoError(t, err)
	assert.Equal(t, 1, bots.TotalVisits)
	assert.Equal(t, []DimensionStat{{"Googlebot", 1}}, bots.TopBots)

	rt, err := s.GetRealtimeVisitors(ctx, now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, rt)
}
