package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the collectors of whichever service binary is running.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ewm",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ewm",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ewm",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	moderationDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ewm",
			Subsystem: "requests",
			Name:      "moderated_total",
			Help:      "Participation requests whose status was changed by the event organizer.",
		},
		[]string{"status"},
	)

	participationRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ewm",
			Subsystem: "requests",
			Name:      "created_total",
			Help:      "Participation requests created, by initial status.",
		},
		[]string{"status"},
	)

	hitsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ewm",
			Subsystem: "stats",
			Name:      "hits_recorded_total",
			Help:      "Hits persisted by the stats service.",
		},
		[]string{"app"},
	)

	statsClientCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ewm",
			Subsystem: "stats_client",
			Name:      "calls_total",
			Help:      "Calls from the main service to the stats service.",
		},
		[]string{"op", "result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		moderationDecisions,
		participationRequests,
		hitsRecorded,
		statsClientCalls,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// Routes are labelled by their chi pattern to keep cardinality bounded.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := routePattern(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

func RecordModeration(status string, n int) {
	if n > 0 {
		moderationDecisions.WithLabelValues(status).Add(float64(n))
	}
}

func RecordParticipationRequest(status string) {
	participationRequests.WithLabelValues(status).Inc()
}

func RecordHit(app string) {
	if app == "" {
		app = "unknown"
	}
	hitsRecorded.WithLabelValues(app).Inc()
}

func RecordStatsCall(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	statsClientCalls.WithLabelValues(op, result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
