// Package analytics provides privacy-first visitor analytics.
//
// IP addresses are never stored: visits carry a salted hash of the address
// and a visitor ID derived from it. Crawlers are recorded in a separate table
// so they never inflate visitor counts. Browsers that send DNT are ignored.
package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// Visit is a single page view.
type Visit struct {
	ID          int64     `json:"-"`
	VisitorID   string    `json:"visitor_id"`
	SessionID   string    `json:"session_id"`
	IPHash      string    `json:"-"`
	Browser     string    `json:"browser"`
	OS          string    `json:"os"`
	Device      string    `json:"device"` // Desktop, Mobile or Tablet
	Path        string    `json:"path"`
	Referrer    string    `json:"referrer"`
	ScreenSize  string    `json:"screen_size"` // e.g. "1920x1080"
	Timestamp   time.Time `json:"timestamp"`
	DurationSec int       `json:"duration_sec"`
}

// BotVisit is a single crawler page view.
type BotVisit struct {
	ID        int64     `json:"-"`
	BotName   string    `json:"bot_name"`
	IPHash    string    `json:"-"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats holds aggregated visitor data for a period.
type Stats struct {
	Period         string            `json:"period"`
	UniqueVisitors int               `json:"unique_visitors"`
	TotalViews     int               `json:"total_views"`
	AvgDuration    int               `json:"avg_duration_sec"`
	TopPages       []PageStat        `json:"top_pages"`
	LatestPages    []LatestPageVisit `json:"latest_pages"`
	BrowserStats   []DimensionStat   `json:"browsers"`
	OSStats        []DimensionStat   `json:"os"`
	DeviceStats    []DimensionStat   `json:"devices"`
	ReferrerStats  []DimensionStat   `json:"referrers"`
	DailyViews     []DailyView       `json:"daily_views"`
}

// BotStats holds aggregated crawler data for a period.
type BotStats struct {
	Period      string          `json:"period"`
	TotalVisits int             `json:"total_visits"`
	TopBots     []DimensionStat `json:"top_bots"`
	TopPages    []PageStat      `json:"top_pages"`
	DailyVisits []DailyView     `json:"daily_visits"`
}

type PageStat struct {
	Path  string `json:"path"`
	Views int    `json:"views"`
}

type LatestPageVisit struct {
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
	Browser   string `json:"browser"`
}

// DimensionStat is one row of a breakdown (browser, OS, referrer...).
type DimensionStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DailyView is the view count of one bucket. Date holds the bucket label,
// which is an hour ("15:00"), a day or a month depending on the period.
type DailyView struct {
	Date  string `json:"date"`
	Views int    `json:"views"`
}

func shortHash(parts ...string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// HashIP returns a salted, truncated SHA-256 of ip.
func HashIP(salt, ip string) string {
	return shortHash(salt, ip)
}

// VisitorID derives an anonymous visitor ID from ip and user agent.
func VisitorID(salt, ip, userAgent string) string {
	return shortHash(salt, ip, userAgent)
}

// SessionID groups a visitor's views within one UTC day.
func SessionID(visitorID string, now time.Time) string {
	return shortHash(visitorID, now.UTC().Format("2006-01-02"))
}

type uaRule struct {
	needles []string
	name    string
}

// Rules are checked in order; the more specific patterns come first.
var (
	browserRules = []uaRule{
		{[]string{"firefox"}, "Firefox"},
		{[]string{"opera", "opr/"}, "Opera"},
		{[]string{"edg"}, "Edge"},
		{[]string{"chrome"}, "Chrome"},
		{[]string{"safari"}, "Safari"},
	}
	osRules = []uaRule{
		{[]string{"windows"}, "Windows"},
		{[]string{"android"}, "Android"},
		{[]string{"iphone", "ipad"}, "iOS"},
		{[]string{"macintosh", "mac os"}, "macOS"},
		{[]string{"linux"}, "Linux"},
	}
	deviceRules = []uaRule{
		{[]string{"tablet", "ipad"}, "Tablet"},
		{[]string{"mobile"}, "Mobile"},
	}
	botRules = []uaRule{
		{[]string{"googlebot"}, "Googlebot"},
		{[]string{"bingbot"}, "Bingbot"},
		{[]string{"yandex"}, "Yandex"},
		{[]string{"baidu"}, "Baidu"},
		{[]string{"duckduckbot"}, "DuckDuckBot"},
		{[]string{"facebookexternalhit"}, "Facebook"},
		{[]string{"twitterbot"}, "Twitterbot"},
		{[]string{"linkedinbot"}, "LinkedIn"},
		{[]string{"ahrefsbot"}, "Ahrefs"},
		{[]string{"semrushbot"}, "SEMrush"},
		{[]string{"mj12bot"}, "Majestic"},
		{[]string{"dotbot"}, "Moz"},
		{[]string{"slurp"}, "Yahoo Slurp"},
		{[]string{"crawler", "crawl"}, "Generic Crawler"},
		{[]string{"spider"}, "Generic Spider"},
		{[]string{"scrape"}, "Scraper"},
		{[]string{"bot"}, "Other Bot"},
	}
)

func matchRule(ua string, rules []uaRule, fallback string) string {
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(ua, n) {
				return r.name
			}
		}
	}
	return fallback
}

// ParseUserAgent extracts browser, OS and device class from a User-Agent.
func ParseUserAgent(ua string) (browser, os, device string) {
	ua = strings.ToLower(ua)
	return matchRule(ua, browserRules, "Other"),
		matchRule(ua, osRules, "Other"),
		matchRule(ua, deviceRules, "Desktop")
}

// IsBot reports whether the User-Agent looks like a crawler.
func IsBot(ua string) bool {
	return BotName(ua) != ""
}

// BotName returns the crawler name for ua, or "" when ua is not a bot.
func BotName(ua string) string {
	return matchRule(strings.ToLower(ua), botRules, "")
}

var searchEngines = []uaRule{
	{[]string{"google."}, "Google"},
	{[]string{"bing."}, "Bing"},
	{[]string{"duckduckgo."}, "DuckDuckGo"},
	{[]string{"yahoo."}, "Yahoo"},
	{[]string{"github."}, "GitHub"},
}

// CleanReferrer reduces a referrer URL to a source name: a known search
// engine, the bare host, "Direct" when empty or "Other" when unparsable.
func CleanReferrer(ref string) string {
	if ref == "" {
		return "Direct"
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "Other"
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if name := matchRule(host+".", searchEngines, ""); name != "" {
		return name
	}
	return host
}
