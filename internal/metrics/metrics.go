package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodflix_session_resolutions_total",
			Help: "Session resolutions by outcome (authenticated, unauthenticated, discarded)",
		},
		[]string{"outcome"},
	)

	WatchlistMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodflix_watchlist_mutations_total",
			Help: "Watchlist mutations by kind and final state",
		},
		[]string{"kind", "state"},
	)

	WatchlistSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moodflix_watchlist_entries",
			Help: "Entries currently held in the watchlist cache",
		},
	)

	GuardDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodflix_guard_decisions_total",
			Help: "Route guard decisions by kind",
		},
		[]string{"decision"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodflix_gateway_request_duration_seconds",
			Help:    "Duration of API gateway requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	MetadataBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moodflix_metadata_breaker_state",
			Help: "Metadata circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// RecordGatewayRequest observes one API gateway round trip; status 0 means no response.
func RecordGatewayRequest(method string, endpoint string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	GatewayRequestDuration.WithLabelValues(method, endpoint, label).Observe(duration.Seconds())
}
