package perfmon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func restoreTracing(t *testing.T) {
	t.Helper()
	tp := otel.GetTracerProvider()
	prop := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
}

func TestTracesURL(t *testing.T) {
	tests := []struct {
		in, want string
		wantErr  bool
	}{
		{in: "http://collector:4318", want: "http://collector:4318/v1/traces"},
		{in: "http://collector:4318/", want: "http://collector:4318/v1/traces"},
		{in: "https://otel.example.com/custom/traces", want: "https://otel.example.com/custom/traces"},
		{in: "collector:4318", wantErr: true},
		{in: "/v1/traces", wantErr: true},
	}
	for _, tt := range tests {
		got, err := tracesURL(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestSetupTracingWithoutEndpointIsNoop(t *testing.T) {
	restoreTracing(t)
	before := otel.GetTracerProvider()
	shutdown, err := setupTracing(context.Background(), Config{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestSetupTracingRejectsRelativeEndpoint(t *testing.T) {
	restoreTracing(t)
	_, err := setupTracing(context.Background(), Config{OTelEndpoint: "localhost"})
	assert.Error(t, err)
}

func TestCloseExportsRequestSpans(t *testing.T) {
	restoreTracing(t)
	var exports atomic.Int32
	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			path.Store(r.URL.Path)
			exports.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m, err := New(Config{ServiceName: "folio", Version: "test", OTelEndpoint: srv.URL})
	require.NoError(t, err)

	_, span := otel.Tracer(tracerName).Start(context.Background(), "GET /")
	span.End()

	require.NoError(t, m.Close(context.Background()))
	assert.GreaterOrEqual(t, exports.Load(), int32(1))
	assert.Equal(t, "/v1/traces", path.Load())
}
