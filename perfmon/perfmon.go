// Package perfmon is the site's performance-monitoring subsystem.
//
// It keeps a Prometheus registry with HTTP latency and browser web-vital
// histograms, optionally pushes that registry to a remote-write endpoint,
// and optionally exports request traces over OTLP/HTTP.
//
// The subsystem is process-wide and initialized lazily:
//
//	if err := perfmon.Init(perfmon.Config{ServiceName: "folio"}); err != nil {
//		return err
//	}
//	defer perfmon.Shutdown(context.Background())
//
// Init runs once per process. Later calls return the first call's result and
// do not register anything again.
package perfmon

import (
	"context"
	"os"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Config defines the monitoring subsystem configuration.
type Config struct {
	ServiceName string
	Version     string
	Namespace   string // metric namespace (default "folio")
	Instance    string // instance label for remote write (default hostname)

	// Remote write is enabled when RemoteWriteURL is set.
	RemoteWriteURL      string
	RemoteWriteInterval time.Duration

	// Tracing is enabled when OTelEndpoint is set.
	OTelEndpoint string

	// Registry receives the collectors. A fresh registry is created when nil.
	Registry *prom.Registry

	Logger *zap.Logger
}

func (c *Config) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "folio"
	}
	if c.Namespace == "" {
		c.Namespace = "folio"
	}
	if c.Instance == "" {
		if host, err := os.Hostname(); err == nil {
			c.Instance = host
		} else {
			c.Instance = "unknown"
		}
	}
	if c.RemoteWriteInterval <= 0 {
		c.RemoteWriteInterval = 15 * time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

type initState struct {
	once    sync.Once
	mu      sync.RWMutex
	monitor *Monitor
	err     error
}

var global = &initState{}

// Init initializes the global monitoring subsystem.
func Init(cfg Config) error {
	global.once.Do(func() {
		m, err := New(cfg)
		if err != nil {
			global.err = err
			return
		}
		global.mu.Lock()
		global.monitor = m
		global.mu.Unlock()
	})
	return global.err
}

// Default returns the global Monitor, or nil before Init succeeded.
func Default() *Monitor {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.monitor
}

// Shutdown stops the global Monitor. It does not re-arm Init.
func Shutdown(ctx context.Context) error {
	global.mu.Lock()
	m := global.monitor
	global.monitor = nil
	global.mu.Unlock()
	if m == nil {
		return nil
	}
	return m.Close(ctx)
}
