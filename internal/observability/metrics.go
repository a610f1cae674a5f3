package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	TokensIssued     prometheus.Counter
	TokenErrors      *prometheus.CounterVec
	ActiveSession    prometheus.Gauge
	ConnectionEvents *prometheus.CounterVec
	CallTransitions  *prometheus.CounterVec
	ConnectDuration  prometheus.Histogram
	StoreMutations   *prometheus.CounterVec
	PersistErrors    prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Access tokens minted for room joins.",
		}),
		TokenErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_errors_total",
			Help:      "Token requests rejected, by reason.",
		}, []string{"reason"}),
		ActiveSession: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_session",
			Help:      "Whether a realtime session is currently active (0 or 1).",
		}),
		ConnectionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_events_total",
			Help:      "Connection lifecycle events by type.",
		}, []string{"event"}),
		CallTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_state_transitions_total",
			Help:      "Observed call state transitions by target state.",
		}, []string{"state"}),
		ConnectDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "connect_duration_seconds",
			Help:      "Time from connect request to transport connected.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		StoreMutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_mutations_total",
			Help:      "State store mutations by operation.",
		}, []string{"op"}),
		PersistErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_persist_errors_total",
			Help:      "Best-effort persistence failures. State stays in memory.",
		}),
	}
}

func (m *Metrics) ObserveConnectDuration(d time.Duration) {
	m.ConnectDuration.Observe(d.Seconds())
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
