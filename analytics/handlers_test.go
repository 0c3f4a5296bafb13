package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"

func newTestServer(t *testing.T) (*echo.Echo, *Handler) {
	t.Helper()
	h := NewHandler(newTestStore(t), nil)
	e := echo.New()
	pass := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	h.RegisterRoutes(e, e.Group(""), pass)
	return e, h
}

func collect(e *echo.Echo, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/analytics/collect", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("User-Agent", firefoxUA)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCollectRecordsVisitAndDuration(t *testing.T) {
	e, h := newTestServer(t)
	ctx := context.Background()

	rec := collect(e, `{"path":"/blog/","referrer":"https://www.google.com/"}`, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = collect(e, `{"path":"/blog/","duration_sec":12}`, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	now := time.Now()
	stats, err := h.store.GetStats(ctx, now.Add(-time.Hour), now.Add(time.Hour), Hourly)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalViews, "duration beacon must not add a view")
	assert.Equal(t, 12, stats.AvgDuration)
	assert.Equal(t, []DimensionStat{{"Google", 1}}, stats.ReferrerStats)
	assert.Equal(t, []DimensionStat{{"Firefox", 1}}, stats.BrowserStats)
}

func TestCollectSplitsBots(t *testing.T) {
	e, h := newTestServer(t)
	rec := collect(e, `{"path":"/","user_agent":"Googlebot/2.1"}`, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	now := time.Now()
	stats, err := h.store.GetStats(context.Background(), now.Add(-time.Hour), now.Add(time.Hour), Daily)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalViews)

	bots, err := h.store.GetBotStats(context.Background(), now.Add(-time.Hour), now.Add(time.Hour), Daily)
	require.NoError(t, err)
	assert.Equal(t, 1, bots.TotalVisits)
}

func TestCollectRejectsAndIgnores(t *testing.T) {
	e, h := newTestServer(t)

	assert.Equal(t, http.StatusNoContent, collect(e, `{"path":"/"}`, map[string]string{"DNT": "1"}).Code)
	assert.Equal(t, http.StatusBadRequest, collect(e, `{"path":""}`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, collect(e, `{"path":"/","duration_sec":-1}`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, collect(e, `{`, nil).Code)

	now := time.Now()
	stats, err := h.store.GetStats(context.Background(), now.Add(-time.Hour), now.Add(time.Hour), Daily)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalViews)
}

func TestCollectRateLimited(t *testing.T) {
	e, _ := newTestServer(t)
	var last int
	for i := 0; i < 61; i++ {
		last = collect(e, `{"path":"/"}`, map[string]string{"DNT": "1"}).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestGetStatsJSON(t *testing.T) {
	e, _ := newTestServer(t)
	require.Equal(t, http.StatusNoContent, collect(e, `{"path":"/projects/"}`, nil).Code)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/analytics/api/stats?period=today", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "today", resp.Period)
	assert.Equal(t, 1, resp.Stats.TotalViews)
	assert.Len(t, resp.Stats.DailyViews, 24)
	assert.Equal(t, 1, resp.Realtime)
}

func TestMaintenanceRunsCleanup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	old := time.Now().AddDate(0, 0, -400)
	require.NoError(t, s.SaveVisit(ctx, visitAt("v", "/", "Chrome", "Direct", old)))

	m, err := StartMaintenance(s, NewHandler(s, nil), 365, nil)
	require.NoError(t, err)
	defer m.Stop()

	assert.Eventually(t, func() bool {
		stats, err := s.GetStats(ctx, old.Add(-time.Hour), old.Add(time.Hour), Daily)
		return err == nil && stats.TotalViews == 0
	}, 5*time.Second, 50*time.Millisecond)
}
