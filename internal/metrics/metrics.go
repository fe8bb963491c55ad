// Package metrics provides Prometheus instrumentation for the bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Dominance tracks the last observed stablecoin dominance percentage.
	Dominance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dombot_dominance_percent",
		Help: "Last observed stablecoin dominance as percentage of total market cap",
	})

	// ChecksTotal counts dominance evaluations, partitioned by outcome.
	ChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dombot_dominance_checks_total",
		Help: "Total dominance evaluations",
	}, []string{"outcome"})

	// AlertsTotal counts alert notifications delivered.
	AlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dombot_alerts_sent_total",
		Help: "Total dominance alert notifications delivered",
	})

	// CommandsTotal counts chat commands handled, partitioned by command.
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dombot_commands_total",
		Help: "Total chat commands handled",
	}, []string{"command"})

	// UpstreamRequestDuration tracks CoinGecko request latency by endpoint.
	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dombot_upstream_request_duration_seconds",
		Help:    "CoinGecko request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// UpstreamErrorsTotal counts failed CoinGecko requests by endpoint.
	UpstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dombot_upstream_errors_total",
		Help: "Total failed CoinGecko requests",
	}, []string{"endpoint"})

	// PersistenceErrorsTotal counts document read/write failures.
	PersistenceErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dombot_persistence_errors_total",
		Help: "Total persisted-document read/write failures",
	})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
