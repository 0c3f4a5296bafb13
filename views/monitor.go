package views

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
)

const (
	defaultWidgetScript = "/public/analytics.js"
	defaultCollectURL   = "/api/analytics/collect"
	defaultVitalsURL    = "/api/perf/vitals"
)

// PerformanceMonitor renders the analytics collection widget and, the first
// time the widget has been written, runs the monitoring initializer. One
// PerformanceMonitor corresponds to one mount: later renders of the same
// value never run the initializer again, and nothing is torn down.
type PerformanceMonitor struct {
	init       func() error
	scriptSrc  string
	collectURL string
	vitalsURL  string

	once    sync.Once
	mounted atomic.Bool
}

// MonitorOption configures a PerformanceMonitor.
type MonitorOption func(*PerformanceMonitor)

// WithWidgetScript overrides the widget script URL.
func WithWidgetScript(src string) MonitorOption {
	return func(m *PerformanceMonitor) { m.scriptSrc = src }
}

// WithBeaconURLs overrides the endpoints the widget reports to.
func WithBeaconURLs(collect, vitals string) MonitorOption {
	return func(m *PerformanceMonitor) {
		m.collectURL = collect
		m.vitalsURL = vitals
	}
}

// NewPerformanceMonitor returns an unmounted monitor. init is not called here.
func NewPerformanceMonitor(init func() error, opts ...MonitorOption) *PerformanceMonitor {
	m := &PerformanceMonitor{
		init:       init,
		scriptSrc:  defaultWidgetScript,
		collectURL: defaultCollectURL,
		vitalsURL:  defaultVitalsURL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mounted reports whether the initializer has been triggered.
func (m *PerformanceMonitor) Mounted() bool {
	return m.mounted.Load()
}

// Render implements templ.Component. An initializer error is returned from
// the render that triggered it and is not retried.
func (m *PerformanceMonitor) Render(ctx context.Context, w io.Writer) error {
	h := newHTMLWriter(w)
	h.raw("<script defer")
	h.attr("src", m.scriptSrc)
	h.attr("data-collect", m.collectURL)
	h.attr("data-vitals", m.vitalsURL)
	h.raw("></script>")
	if h.err != nil {
		return h.err
	}

	var initErr error
	m.once.Do(func() {
		m.mounted.Store(true)
		if m.init != nil {
			initErr = m.init()
		}
	})
	return initErr
}
