package perfmon

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Middleware times every request and opens a server span for it. Requests
// served before Init pass through untouched.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			m := Default()
			if m == nil {
				return next(c)
			}
			req := c.Request()
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))
			ctx, span := otel.Tracer(tracerName).Start(ctx, req.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", req.Method),
					attribute.String("http.route", route),
				))
			c.SetRequest(req.WithContext(ctx))

			m.inFlight.Inc()
			start := time.Now()
			panicked := true
			// Runs while a panic unwinds toward Recover as well.
			defer func() {
				m.inFlight.Dec()
				status := responseStatus(c, err, panicked)
				if err != nil {
					span.RecordError(err)
				}
				if status >= 500 {
					span.SetStatus(codes.Error, http.StatusText(status))
				}
				span.SetAttributes(attribute.Int("http.response.status_code", status))
				span.End()
				m.ObserveRequest(req.Method, route, status, time.Since(start))
			}()

			err = next(c)
			panicked = false
			return err
		}
	}
}

func responseStatus(c echo.Context, err error, panicked bool) int {
	if panicked {
		return http.StatusInternalServerError
	}
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// VitalsHandler accepts web-vital beacons from the widget.
func VitalsHandler(c echo.Context) error {
	m := Default()
	if m == nil {
		return c.NoContent(http.StatusServiceUnavailable)
	}
	if c.Request().Header.Get("DNT") == "1" {
		return c.NoContent(http.StatusNoContent)
	}
	var v Vital
	if err := c.Bind(&v); err != nil {
		m.rejectBeacon()
		return c.String(http.StatusBadRequest, "Invalid request")
	}
	if err := v.Validate(); err != nil {
		m.rejectBeacon()
		return c.String(http.StatusBadRequest, "Invalid request")
	}
	m.ObserveVital(v)
	return c.NoContent(http.StatusNoContent)
}

// MetricsHandler serves the Prometheus exposition of the global Monitor.
func MetricsHandler(c echo.Context) error {
	m := Default()
	if m == nil {
		return c.String(http.StatusServiceUnavailable, "monitoring not initialized")
	}
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
	h.ServeHTTP(c.Response(), c.Request())
	return nil
}

// RegisterRoutes mounts the vitals beacon and, when exposeMetrics is set,
// the /metrics endpoint.
func RegisterRoutes(e *echo.Echo, exposeMetrics bool) {
	e.POST("/api/perf/vitals", VitalsHandler)
	if exposeMetrics {
		e.GET("/metrics", MetricsHandler)
	}
}
