package perfmon

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Monitor owns the metric collectors and the optional exporters.
type Monitor struct {
	cfg      Config
	registry *prom.Registry

	requestDuration *prom.HistogramVec
	inFlight        prom.Gauge
	vitalDuration   *prom.HistogramVec
	layoutShift     *prom.HistogramVec
	beacons         *prom.CounterVec

	remote        *remoteWriter
	traceShutdown func(context.Context) error
}

// New builds a Monitor and starts its exporters. Most callers use Init.
func New(cfg Config) (*Monitor, error) {
	cfg.setDefaults()
	reg := cfg.Registry
	if reg == nil {
		reg = prom.NewRegistry()
	}
	m := &Monitor{cfg: cfg, registry: reg}

	m.requestDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: cfg.Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Server-side HTTP request latency by route",
		Buckets:   prom.DefBuckets,
	}, []string{"method", "route", "status"})
	m.inFlight = prom.NewGauge(prom.GaugeOpts{
		Namespace: cfg.Namespace,
		Name:      "http_requests_in_flight",
		Help:      "Requests currently being served",
	})
	m.vitalDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: cfg.Namespace,
		Name:      "web_vital_milliseconds",
		Help:      "Timing web vitals reported by browsers",
		Buckets:   []float64{50, 100, 200, 500, 800, 1000, 1800, 2500, 3000, 4000, 6000, 10000},
	}, []string{"name", "rating"})
	m.layoutShift = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: cfg.Namespace,
		Name:      "web_vital_cls",
		Help:      "Cumulative layout shift reported by browsers",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.15, 0.25, 0.5, 1},
	}, []string{"rating"})
	m.beacons = prom.NewCounterVec(prom.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "vitals_beacons_total",
		Help:      "Web-vital beacons by outcome",
	}, []string{"result"})

	r := &registrar{reg: reg}
	m.requestDuration = register(r, m.requestDuration)
	m.inFlight = register(r, m.inFlight)
	m.vitalDuration = register(r, m.vitalDuration)
	m.layoutShift = register(r, m.layoutShift)
	m.beacons = register(r, m.beacons)
	register[prom.Collector](r, collectors.NewGoCollector())
	register[prom.Collector](r, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if r.err != nil {
		return nil, fmt.Errorf("register collectors: %w", r.err)
	}

	shutdown, err := setupTracing(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	m.traceShutdown = shutdown

	if cfg.RemoteWriteURL != "" {
		m.remote = newRemoteWriter(cfg, reg)
		m.remote.start()
	}

	cfg.Logger.Info("performance monitoring initialized",
		zap.String("service", cfg.ServiceName),
		zap.Bool("remote_write", cfg.RemoteWriteURL != ""),
		zap.Bool("tracing", cfg.OTelEndpoint != ""))
	return m, nil
}

type registrar struct {
	reg prom.Registerer
	err error
}

// register adds c to the registry. When an identical collector is already
// registered, as with several Monitors sharing one registry, the existing
// collector is returned so observations land in the registered series.
func register[T prom.Collector](r *registrar, c T) T {
	if r.err != nil {
		return c
	}
	err := r.reg.Register(c)
	if err == nil {
		return c
	}
	var are prom.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing
		}
	}
	r.err = err
	return c
}

// Registry returns the registry the Monitor's collectors live in.
func (m *Monitor) Registry() *prom.Registry {
	return m.registry
}

// ObserveRequest records one served request.
func (m *Monitor) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveVital records a validated browser measurement.
func (m *Monitor) ObserveVital(v Vital) {
	if m == nil {
		return
	}
	rating := normalizeRating(v.Rating)
	if v.Name == VitalCLS {
		m.layoutShift.WithLabelValues(rating).Observe(v.Value)
	} else {
		m.vitalDuration.WithLabelValues(v.Name, rating).Observe(v.Value)
	}
	m.beacons.WithLabelValues("accepted").Inc()
}

func (m *Monitor) rejectBeacon() {
	if m == nil {
		return
	}
	m.beacons.WithLabelValues("rejected").Inc()
}

// Close stops the remote writer and flushes pending spans.
func (m *Monitor) Close(ctx context.Context) error {
	if m.remote != nil {
		m.remote.stop()
	}
	if m.traceShutdown != nil {
		return m.traceShutdown(ctx)
	}
	return nil
}
