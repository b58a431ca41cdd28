// Package metrics provides Prometheus instrumentation for the scoring engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BallsRecorded counts committed deliveries, partitioned by extra type.
	BallsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrbrd_balls_recorded_total",
		Help: "Total deliveries committed to live states",
	}, []string{"extra"})

	// UndosTotal counts undone deliveries.
	UndosTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrbrd_undos_total",
		Help: "Total deliveries undone",
	})

	// WicketsTotal counts wickets, partitioned by dismissal type.
	WicketsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrbrd_wickets_total",
		Help: "Total wickets recorded",
	}, []string{"type"})

	// MilestonesTotal counts batting milestones reached.
	MilestonesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrbrd_milestones_total",
		Help: "Batting milestones reached",
	}, []string{"milestone"})

	// LiveMatches tracks how many matches are currently live.
	LiveMatches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scrbrd_live_matches",
		Help: "Number of matches currently live",
	})

	// WebSocketClients tracks connected WebSocket viewers.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scrbrd_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrbrd_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scrbrd_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
