// Package observability exposes Prometheus metrics for chat turns and logins.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/ports"
)

const namespace = "sqlchat"

// Metrics implements ports.TurnMetrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// turns counts finished turns. Labels: status
	turns *prometheus.CounterVec
	// turnDuration measures agent time per answered or failed turn.
	turnDuration *prometheus.HistogramVec
	// tokens counts streamed fragments.
	tokens prometheus.Counter
	// sqlSource counts where the displayed SQL came from. Labels: source
	sqlSource *prometheus.CounterVec
	// logins counts login attempts. Labels: status (ok, rejected)
	logins *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Chat turns by outcome",
		}, []string{"status"}),
		turnDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "turn_duration_seconds",
			Help:      "Agent time per turn in seconds",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"status"}),
		tokens: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "streamed_tokens_total",
			Help:      "Token fragments streamed to the display",
		}),
		sqlSource: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "sql_source_total",
			Help:      "Where the displayed SQL was taken from",
		}, []string{"source"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by outcome",
		}, []string{"status"}),
	}
}

// ObserveTurn implements ports.TurnMetrics.
func (m *Metrics) ObserveTurn(status string, elapsed time.Duration) {
	m.turns.WithLabelValues(status).Inc()
	if elapsed > 0 {
		m.turnDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	}
}

// ObserveTokens implements ports.TurnMetrics.
func (m *Metrics) ObserveTokens(n int) {
	if n > 0 {
		m.tokens.Add(float64(n))
	}
}

// ObserveSQLSource implements ports.TurnMetrics.
func (m *Metrics) ObserveSQLSource(source domain.SQLSource) {
	m.sqlSource.WithLabelValues(string(source)).Inc()
}

// ObserveLogin implements ports.TurnMetrics.
func (m *Metrics) ObserveLogin(status string) {
	m.logins.WithLabelValues(status).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var _ ports.TurnMetrics = (*Metrics)(nil)
