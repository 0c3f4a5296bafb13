package perfmon

import (
	"context"
	"math"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobal(t *testing.T) {
	t.Helper()
	global = &initState{}
	t.Cleanup(func() {
		_ = Shutdown(context.Background())
		global = &initState{}
	})
}

func TestInitIsIdempotent(t *testing.T) {
	resetGlobal(t)
	assert.Nil(t, Default())

	require.NoError(t, Init(Config{ServiceName: "first"}))
	first := Default()
	require.NotNil(t, first)

	require.NoError(t, Init(Config{ServiceName: "second"}))
	assert.Same(t, first, Default())
	assert.Equal(t, "first", Default().cfg.ServiceName)
}

func TestShutdownClearsDefault(t *testing.T) {
	resetGlobal(t)
	require.NoError(t, Init(Config{}))
	require.NoError(t, Shutdown(context.Background()))
	assert.Nil(t, Default())
	assert.NoError(t, Shutdown(context.Background()))
}

func TestNewAppliesDefaults(t *testing.T) {
	m, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, "folio", m.cfg.Namespace)
	assert.Equal(t, 15*time.Second, m.cfg.RemoteWriteInterval)
	assert.NotEmpty(t, m.cfg.Instance)
	assert.Nil(t, m.remote)
}

func TestNewToleratesSharedRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	_, err := New(Config{Registry: reg, Namespace: "a"})
	require.NoError(t, err)
	_, err = New(Config{Registry: reg, Namespace: "b"})
	require.NoError(t, err)
}

func TestMonitorsSharingARegistryRecordIntoIt(t *testing.T) {
	reg := prom.NewRegistry()
	a, err := New(Config{Registry: reg})
	require.NoError(t, err)
	b, err := New(Config{Registry: reg})
	require.NoError(t, err)

	b.ObserveRequest("GET", "/", 200, time.Millisecond)
	b.ObserveVital(Vital{Name: VitalFCP, Value: 300, Rating: "good"})
	b.inFlight.Inc()

	assert.Equal(t, 1, testutil.CollectAndCount(reg, "folio_http_request_duration_seconds"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "folio_web_vital_milliseconds"))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.inFlight))
	assert.Same(t, a.requestDuration, b.requestDuration)
}

func TestObserveVitalRoutesByName(t *testing.T) {
	m, err := New(Config{})
	require.NoError(t, err)

	m.ObserveVital(Vital{Name: VitalLCP, Value: 1200, Rating: "good"})
	m.ObserveVital(Vital{Name: VitalCLS, Value: 0.02, Rating: "bogus"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.beacons.WithLabelValues("accepted")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.vitalDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.layoutShift))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range families {
		if mf.GetName() == "folio_web_vital_cls" {
			found = true
			labels := mf.GetMetric()[0].GetLabel()
			require.Len(t, labels, 1)
			assert.Equal(t, "unknown", labels[0].GetValue())
		}
	}
	assert.True(t, found)
}

func TestObserveRequestOnNilMonitor(t *testing.T) {
	var m *Monitor
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
		m.ObserveVital(Vital{Name: VitalLCP})
	})
}

func TestVitalValidate(t *testing.T) {
	tests := []struct {
		name  string
		vital Vital
		ok    bool
	}{
		{"lcp", Vital{Name: VitalLCP, Value: 2400}, true},
		{"cls fraction", Vital{Name: VitalCLS, Value: 0.3}, true},
		{"unknown name", Vital{Name: "XYZ", Value: 1}, false},
		{"negative", Vital{Name: VitalFCP, Value: -1}, false},
		{"nan", Vital{Name: VitalINP, Value: math.NaN()}, false},
		{"too slow", Vital{Name: VitalTTFB, Value: maxVitalMillis + 1}, false},
		{"long path", Vital{Name: VitalLCP, Value: 1, Path: string(make([]byte, maxVitalPathLen+1))}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.vital.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
