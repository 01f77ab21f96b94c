package obs

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ready = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gatehouse_ready",
		Help: "1 when the service and its database are ready.",
	})

	authAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatehouse_authentication_attempts_total",
			Help: "Credential checks by internal outcome.",
		},
		[]string{"outcome"},
	)

	authzDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatehouse_authorization_decisions_total",
			Help: "Authorization decisions by internal outcome.",
		},
		[]string{"outcome"},
	)

	tokenVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatehouse_token_verifications_total",
			Help: "Token verifications by result.",
		},
		[]string{"result"},
	)

	tokensIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gatehouse_tokens_issued_total",
		Help: "Signed session tokens issued.",
	})

	initOnce sync.Once
)

// Init registers service metrics in the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration, ready,
			authAttempts, authzDecisions, tokenVerifications, tokensIssued,
		)
	})
}

// Handler serves the Prometheus exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

func SetReady(ok bool) {
	if ok {
		ready.Set(1)
		return
	}
	ready.Set(0)
}

func AuthenticationAttempt(outcome string) { authAttempts.WithLabelValues(outcome).Inc() }
func AuthorizationDecision(outcome string) { authzDecisions.WithLabelValues(outcome).Inc() }
func TokenVerification(result string)      { tokenVerifications.WithLabelValues(result).Inc() }
func TokenIssued()                         { tokensIssued.Inc() }

// Instrument records in-flight, count and latency for every request.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses identifier segments so metric labels stay bounded.
func CanonicalPath(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" {
		return "/"
	}
	parts := strings.Split(strings.Trim(raw, "/"), "/")
	// /v1/admin/{users|systems}/{id}[/{action}]
	if len(parts) >= 4 && len(parts) <= 5 && parts[0] == "v1" && parts[1] == "admin" &&
		(parts[2] == "users" || parts[2] == "systems") {
		parts[3] = ":id"
		return "/" + strings.Join(parts, "/")
	}
	return raw
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
