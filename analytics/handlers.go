package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Handler serves the collect endpoint and the admin stats API.
type Handler struct {
	store          *Store
	log            *zap.Logger
	collectLimiter *rateLimiter
	now            func() time.Time
}

// NewHandler creates a Handler. The collect endpoint is limited to 60
// requests per IP per minute.
func NewHandler(store *Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		store:          store,
		log:            log.Named("analytics"),
		collectLimiter: newRateLimiter(60, time.Minute),
		now:            time.Now,
	}
}

// CollectRequest is the body posted by the browser widget.
type CollectRequest struct {
	Path        string `json:"path"`
	Referrer    string `json:"referrer"`
	ScreenSize  string `json:"screen_size"`
	UserAgent   string `json:"user_agent"`
	DurationSec int    `json:"duration_sec"`
}

const (
	maxPathLen       = 2048
	maxReferrerLen   = 2048
	maxScreenSizeLen = 32
	maxUserAgentLen  = 512
	maxDurationSec   = 86400
)

func (r *CollectRequest) validate() error {
	switch {
	case r.Path == "":
		return errors.New("path is required")
	case len(r.Path) > maxPathLen:
		return fmt.Errorf("path exceeds maximum length of %d", maxPathLen)
	case len(r.Referrer) > maxReferrerLen:
		return fmt.Errorf("referrer exceeds maximum length of %d", maxReferrerLen)
	case len(r.ScreenSize) > maxScreenSizeLen:
		return fmt.Errorf("screen_size exceeds maximum length of %d", maxScreenSizeLen)
	case len(r.UserAgent) > maxUserAgentLen:
		return fmt.Errorf("user_agent exceeds maximum length of %d", maxUserAgentLen)
	case r.DurationSec < 0 || r.DurationSec > maxDurationSec:
		return fmt.Errorf("duration_sec must be within 0..%d", maxDurationSec)
	}
	return nil
}

// Collect records a page view, a duration beacon or a bot visit. It always
// answers 204 for accepted input; storage failures are logged only.
func (h *Handler) Collect(c echo.Context) error {
	if !h.collectLimiter.allow(c.RealIP()) {
		return c.NoContent(http.StatusTooManyRequests)
	}
	if c.Request().Header.Get("DNT") == "1" {
		return c.NoContent(http.StatusNoContent)
	}

	var req CollectRequest
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request")
	}
	if err := req.validate(); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request")
	}

	ctx := c.Request().Context()
	salt, err := h.store.Salt(ctx)
	if err != nil {
		h.log.Error("load salt", zap.Error(err))
		return c.NoContent(http.StatusServiceUnavailable)
	}

	ua := req.UserAgent
	if ua == "" {
		ua = c.Request().UserAgent()
	}
	ip := c.RealIP()
	now := h.now().UTC()

	if bot := BotName(ua); bot != "" {
		bv := &BotVisit{
			BotName:   bot,
			IPHash:    HashIP(salt, ip),
			UserAgent: ua,
			Path:      req.Path,
			Timestamp: now,
		}
		if err := h.store.SaveBotVisit(ctx, bv); err != nil {
			h.log.Error("save bot visit", zap.Error(err))
		}
		return c.NoContent(http.StatusNoContent)
	}

	visitorID := VisitorID(salt, ip, ua)

	// A positive duration is the unload beacon of an earlier view.
	if req.DurationSec > 0 {
		if err := h.store.UpdateVisitDuration(ctx, visitorID, req.Path, req.DurationSec); err != nil {
			h.log.Error("update visit duration", zap.Error(err))
		}
		return c.NoContent(http.StatusNoContent)
	}

	browser, os, device := ParseUserAgent(ua)
	visit := &Visit{
		VisitorID:  visitorID,
		SessionID:  SessionID(visitorID, now),
		IPHash:     HashIP(salt, ip),
		Browser:    browser,
		OS:         os,
		Device:     device,
		Path:       req.Path,
		Referrer:   CleanReferrer(req.Referrer),
		ScreenSize: req.ScreenSize,
		Timestamp:  now,
	}
	if err := h.store.SaveVisit(ctx, visit); err != nil {
		h.log.Error("save visit", zap.Error(err))
	}
	return c.NoContent(http.StatusNoContent)
}

// Period is a named reporting window.
type Period struct {
	Name        string
	Days        int
	Granularity Granularity
}

// ParsePeriod maps the "period" query value to a window, defaulting to week.
func ParsePeriod(name string) Period {
	switch name {
	case "today":
		return Period{Name: name, Days: 1, Granularity: Hourly}
	case "month":
		return Period{Name: name, Days: 30, Granularity: Daily}
	case "year":
		return Period{Name: name, Days: 365, Granularity: Monthly}
	default:
		return Period{Name: "week", Days: 7, Granularity: Daily}
	}
}

// Range returns [from, to) for the period ending at now. Hourly periods
// cover the last 24 hours; the others cover whole UTC days.
func (p Period) Range(now time.Time) (from, to time.Time) {
	now = now.UTC()
	if p.Granularity == Hourly {
		return now.Truncate(time.Hour).Add(-23 * time.Hour), now.Add(time.Second)
	}
	day := 24 * time.Hour
	return now.AddDate(0, 0, -p.Days).Truncate(day), now.Add(day).Truncate(day)
}

// fillHourly returns 24 hourly buckets starting at from, zero-filling gaps.
func fillHourly(sparse []DailyView, from time.Time) []DailyView {
	views := make(map[string]int, len(sparse))
	for _, v := range sparse {
		views[v.Date] = v.Views
	}
	out := make([]DailyView, 24)
	for i := range out {
		label := fmt.Sprintf("%02d:00", from.Add(time.Duration(i)*time.Hour).Hour())
		out[i] = DailyView{Date: label, Views: views[label]}
	}
	return out
}

// StatsResponse is the JSON body of the stats endpoint.
type StatsResponse struct {
	Stats      *Stats `json:"stats"`
	Realtime   int    `json:"realtime_visitors"`
	Period     string `json:"period"`
	PeriodDays int    `json:"period_days"`
}

// Summary loads visitor stats and the realtime count for a period.
func (h *Handler) Summary(ctx context.Context, p Period) (*Stats, int, error) {
	now := h.now()
	from, to := p.Range(now)
	stats, err := h.store.GetStats(ctx, from, to, p.Granularity)
	if err != nil {
		return nil, 0, err
	}
	if p.Granularity == Hourly {
		stats.DailyViews = fillHourly(stats.DailyViews, from)
	}
	realtime, err := h.store.GetRealtimeVisitors(ctx, now.Add(-5*time.Minute))
	if err != nil {
		h.log.Warn("realtime visitors", zap.Error(err))
	}
	return stats, realtime, nil
}

// GetStats returns visitor statistics as JSON.
func (h *Handler) GetStats(c echo.Context) error {
	p := ParsePeriod(c.QueryParam("period"))
	stats, realtime, err := h.Summary(c.Request().Context(), p)
	if err != nil {
		h.log.Error("get stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	return c.JSON(http.StatusOK, StatsResponse{
		Stats:      stats,
		Realtime:   realtime,
		Period:     p.Name,
		PeriodDays: p.Days,
	})
}

// BotStatsResponse is the JSON body of the bot stats endpoint.
type BotStatsResponse struct {
	Stats      *BotStats `json:"stats"`
	Period     string    `json:"period"`
	PeriodDays int       `json:"period_days"`
}

// GetBotStats returns crawler statistics as JSON.
func (h *Handler) GetBotStats(c echo.Context) error {
	p := ParsePeriod(c.QueryParam("period"))
	from, to := p.Range(h.now())
	stats, err := h.store.GetBotStats(c.Request().Context(), from, to, p.Granularity)
	if err != nil {
		h.log.Error("get bot stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	if p.Granularity == Hourly {
		stats.DailyVisits = fillHourly(stats.DailyVisits, from)
	}
	return c.JSON(http.StatusOK, BotStatsResponse{Stats: stats, Period: p.Name, PeriodDays: p.Days})
}

// RegisterRoutes mounts the public collect endpoint on public and the JSON
// stats API under /admin/analytics/api guarded by auth.
func (h *Handler) RegisterRoutes(e *echo.Echo, public *echo.Group, auth echo.MiddlewareFunc) {
	public.POST("/api/analytics/collect", h.Collect)

	admin := e.Group("/admin/analytics/api", auth)
	admin.GET("/stats", h.GetStats)
	admin.GET("/bot-stats", h.GetBotStats)
}
