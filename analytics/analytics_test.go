package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		ua                  string
		browser, os, device string
	}{
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36", "Chrome", "Windows", "Desktop"},
		{"Mozilla/5.0 (Windows NT 10.0) AppleWebKit/537.36 Chrome/120.0 Safari/537.36 Edg/120.0", "Edge", "Windows", "Desktop"},
		{"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0", "Firefox", "Linux", "Desktop"},
		{"Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 Chrome/120.0 Mobile Safari/537.36", "Chrome", "Android", "Mobile"},
		{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Version/17.0 Mobile/15E148 Safari/604.1", "Safari", "iOS", "Tablet"},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/537.36 Chrome/120.0 Safari/537.36 OPR/105.0", "Opera", "macOS", "Desktop"},
		{"curl/8.0", "Other", "Other", "Desktop"},
	}
	for _, tt := range tests {
		b, o, d := ParseUserAgent(tt.ua)
		assert.Equal(t, tt.browser, b, tt.ua)
		assert.Equal(t, tt.os, o, tt.ua)
		assert.Equal(t, tt.device, d, tt.ua)
	}
}

func TestBotName(t *testing.T) {
	assert.Equal(t, "Googlebot", BotName("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"))
	assert.Equal(t, "Ahrefs", BotName("Mozilla/5.0 (compatible; AhrefsBot/7.0)"))
	assert.Equal(t, "Other Bot", BotName("SomeRandomBot/1.0"))
	assert.Equal(t, "", BotName("Mozilla/5.0 (X11; Linux x86_64) Firefox/121.0"))
	assert.True(t, IsBot("my-spider/2"))
	assert.False(t, IsBot("Mozilla/5.0 Safari"))
}

func TestCleanReferrer(t *testing.T) {
	tests := map[string]string{
		"":                                   "Direct",
		"https://www.google.com/search?q=go": "Google",
		"https://github.com/eringen":         "GitHub",
		"https://www.example.org/post/1":     "example.org",
		"http://news.ycombinator.com/":       "news.ycombinator.com",
		"android-app://com.slack":            "Other",
		"not a url":                          "Other",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanReferrer(in), in)
	}
}

func TestHashesAreSaltedAndStable(t *testing.T) {
	a := HashIP("salt-a", "203.0.113.7")
	assert.Len(t, a, 16)
	assert.Equal(t, a, HashIP("salt-a", "203.0.113.7"))
	assert.NotEqual(t, a, HashIP("salt-b", "203.0.113.7"))
	assert.NotEqual(t, VisitorID("s", "ip", "ua1"), VisitorID("s", "ip", "ua2"))

	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, SessionID("v", day), SessionID("v", day.Add(5*time.Hour)))
	assert.NotEqual(t, SessionID("v", day), SessionID("v", day.Add(24*time.Hour)))
}

func TestParsePeriod(t *testing.T) {
	assert.Equal(t, Period{Name: "today", Days: 1, Granularity: Hourly}, ParsePeriod("today"))
	assert.Equal(t, Period{Name: "year", Days: 365, Granularity: Monthly}, ParsePeriod("year"))
	assert.Equal(t, Period{Name: "week", Days: 7, Granularity: Daily}, ParsePeriod("bogus"))
}

func TestPeriodRange(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	from, to := ParsePeriod("week").Range(now)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), to)

	from, to = ParsePeriod("today").Range(now)
	assert.Equal(t, time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC), from)
	assert.True(t, to.After(now))
}

func TestFillHourly(t *testing.T) {
	from := time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC)
	out := fillHourly([]DailyView{{Date: "17:00", Views: 4}}, from)
	assert.Len(t, out, 24)
	assert.Equal(t, DailyView{Date: "16:00", Views: 0}, out[0])
	assert.Equal(t, DailyView{Date: "17:00", Views: 4}, out[1])
	assert.Equal(t, "15:00", out[23].Date)
}
