package httpx

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vinayak200306/primetrade-assignment/internal/domain"
)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Auth failure reasons.
const (
	authFailBadHeader      = "bad_header"
	authFailInvalidToken   = "invalid_token"
	authFailBadCredentials = "bad_credentials"
)

var (
	metricsOnce sync.Once

	requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "todo",
		Subsystem: "api",
		Name:      "http_requests_total",
		Help:      "Count of processed HTTP requests",
	}, []string{"method", "route", "status"})

	requestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "todo",
		Subsystem: "api",
		Name:      "http_request_duration_seconds",
		Help:      "Latency distribution of HTTP handlers",
		Buckets:   histogramBuckets,
	}, []string{"method", "route", "status"})

	rateLimitHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "todo",
		Subsystem: "api",
		Name:      "rate_limit_hits_total",
		Help:      "Number of rate-limited responses",
	}, []string{"route", "key"})

	taskMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "todo",
		Subsystem: "tasks",
		Name:      "mutations_total",
		Help:      "Tasks created, updated and deleted, split by personal or team scope",
	}, []string{"action", "scope"})

	authFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "todo",
		Subsystem: "auth",
		Name:      "failures_total",
		Help:      "Rejected logins and bearer tokens by reason",
	}, []string{"reason"})

	memberAdds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "todo",
		Subsystem: "teams",
		Name:      "member_adds_total",
		Help:      "Team member additions by outcome",
	}, []string{"outcome"})
)

// registerMetrics adds the collectors to the default registry once per process.
func registerMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(requestTotal, requestLatency, rateLimitHits, taskMutations, authFailures, memberAdds)
	})
}

func recordRequestMetrics(method, route string, status int, duration time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	requestTotal.With(labels).Inc()
	requestLatency.With(labels).Observe(duration.Seconds())
}

func recordRateLimitHit(route, key string) {
	rateLimitHits.With(prometheus.Labels{"route": route, "key": key}).Inc()
}

func recordTaskMutation(action string, task *domain.Task) {
	scope := "personal"
	if task != nil && task.TeamScoped() {
		scope = "team"
	}
	taskMutations.WithLabelValues(action, scope).Inc()
}

func recordAuthFailure(reason string) {
	authFailures.WithLabelValues(reason).Inc()
}

func recordMemberAdd(err error) {
	memberAdds.WithLabelValues(outcomeLabel(err, "added")).Inc()
}

// outcomeLabel names the domain error kind of err, or success when err is nil.
func outcomeLabel(err error, success string) string {
	switch {
	case err == nil:
		return success
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
