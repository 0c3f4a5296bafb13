package perfmon

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/eryajf/promwrite"
	prom "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
)

// remoteWriter periodically pushes the registry to a remote-write endpoint.
type remoteWriter struct {
	cfg      Config
	gatherer prom.Gatherer
	client   *promwrite.Client

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newRemoteWriter(cfg Config, g prom.Gatherer) *remoteWriter {
	ctx, cancel := context.WithCancel(context.Background())
	return &remoteWriter{
		cfg:      cfg,
		gatherer: g,
		client:   promwrite.NewClient(cfg.RemoteWriteURL),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (r *remoteWriter) start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.cfg.RemoteWriteInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := r.write(); err != nil {
					r.cfg.Logger.Error("remote write failed", zap.Error(err))
				}
			case <-r.ctx.Done():
				return
			}
		}
	}()
}

func (r *remoteWriter) stop() {
	r.cancel()
	r.wg.Wait()
}

func (r *remoteWriter) write() error {
	families, err := r.gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather: %w", err)
	}
	series := toTimeSeries(families, r.baseLabels(), time.Now())
	if len(series) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(r.ctx, 15*time.Second)
	defer cancel()
	if _, err := r.client.Write(ctx, &promwrite.WriteRequest{TimeSeries: series}); err != nil {
		return fmt.Errorf("writing time series failed: %w", err)
	}
	return nil
}

func (r *remoteWriter) baseLabels() map[string]string {
	labels := map[string]string{
		"instance": r.cfg.Instance,
		"service":  r.cfg.ServiceName,
	}
	if r.cfg.Version != "" {
		labels["version"] = r.cfg.Version
	}
	return labels
}

// toTimeSeries flattens gathered families into remote-write samples.
// Histograms and summaries contribute their _sum and _count series.
func toTimeSeries(families []*dto.MetricFamily, base map[string]string, now time.Time) []promwrite.TimeSeries {
	var out []promwrite.TimeSeries
	add := func(name string, m *dto.Metric, value float64) {
		labels := make([]promwrite.Label, 0, len(base)+len(m.GetLabel())+1)
		labels = append(labels, promwrite.Label{Name: "__name__", Value: name})
		for k, v := range base {
			labels = append(labels, promwrite.Label{Name: k, Value: v})
		}
		for _, lp := range m.GetLabel() {
			labels = append(labels, promwrite.Label{Name: lp.GetName(), Value: lp.GetValue()})
		}
		sort.Slice(labels, func(i, j int) bool { return labels[i].Name < labels[j].Name })
		out = append(out, promwrite.TimeSeries{
			Labels: labels,
			Sample: promwrite.Sample{Time: now, Value: value},
		})
	}

	for _, mf := range families {
		name := mf.GetName()
		for _, m := range mf.GetMetric() {
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				add(name, m, m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				add(name, m, m.GetGauge().GetValue())
			case dto.MetricType_UNTYPED:
				add(name, m, m.GetUntyped().GetValue())
			case dto.MetricType_HISTOGRAM:
				add(name+"_sum", m, m.GetHistogram().GetSampleSum())
				add(name+"_count", m, float64(m.GetHistogram().GetSampleCount()))
			case dto.MetricType_SUMMARY:
				add(name+"_sum", m, m.GetSummary().GetSampleSum())
				add(name+"_count", m, float64(m.GetSummary().GetSampleCount()))
			}
		}
	}
	return out
}
