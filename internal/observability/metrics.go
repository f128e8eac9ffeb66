// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation status labels.
const (
	StatusOK       = "ok"
	StatusRejected = "rejected" // domain error: validation, authorization, state
	StatusFailed   = "failed"   // substrate or internal error
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Engine metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Money flow, in lamports
	FeesCollected   prometheus.Counter
	StakesReturned  prometheus.Counter
	StakesForfeited *prometheus.CounterVec
	BonusesPaid     prometheus.Counter
	PrizesPaid      prometheus.Counter
	PrizeDust       prometheus.Counter
	TreasuryOutflow prometheus.Counter

	// Notification metrics
	EventsPublished *prometheus.CounterVec
	EventSinkErrors *prometheus.CounterVec
	WSSubscribers   prometheus.Gauge
	WSDropped       prometheus.Counter

	// Service metrics
	HTTPRequestDuration *prometheus.HistogramVec
	CacheLookups        *prometheus.CounterVec
	CloserRuns          *prometheus.CounterVec
	SeasonsClosed       prometheus.Counter
}

// NewMetrics creates a Metrics instance registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "signal_arena"
	}
	factory := promauto.With(reg)

	return &Metrics{
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Engine operations by name and outcome",
		}, []string{"operation", "status"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Engine operation latency in seconds, including the ledger transaction",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		FeesCollected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "fees_collected_lamports_total",
			Help:      "Platform fees and forfeited stakes routed to the treasury",
		}),
		StakesReturned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "stakes_returned_lamports_total",
			Help:      "Stake principal released to players on correct predictions",
		}),
		StakesForfeited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "stakes_forfeited_lamports_total",
			Help:      "Stakes lost on incorrect predictions by forfeit destination",
		}, []string{"destination"}),
		BonusesPaid: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "bonuses_paid_lamports_total",
			Help:      "Bonus stakes paid from the treasury under the double policy",
		}),
		PrizesPaid: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "prizes_paid_lamports_total",
			Help:      "Prize pool shares paid to season winners",
		}),
		PrizeDust: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "prize_dust_lamports_total",
			Help:      "Prize pool remainder left in season vaults",
		}),
		TreasuryOutflow: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "treasury_withdrawn_lamports_total",
			Help:      "Amount withdrawn from the treasury by the authority",
		}),

		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Notifications published by kind",
		}, []string{"kind"}),
		EventSinkErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "sink_errors_total",
			Help:      "Notification delivery failures by sink",
		}, []string{"sink"}),
		WSSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "ws_subscribers",
			Help:      "Connected websocket subscribers",
		}),
		WSDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "ws_dropped_total",
			Help:      "Notifications dropped for slow websocket subscribers",
		}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status code",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Read-model cache lookups by result",
		}, []string{"result"}),
		CloserRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "closer",
			Name:      "runs_total",
			Help:      "Season closer ticks by outcome",
		}, []string{"status"}),
		SeasonsClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "closer",
			Name:      "seasons_closed_total",
			Help:      "Seasons distributed by the closer",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordOperation records one engine operation.
func RecordOperation(operation, status string, elapsed time.Duration) {
	DefaultMetrics.OperationsTotal.WithLabelValues(operation, status).Inc()
	DefaultMetrics.OperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordFees records platform fees routed to the treasury.
func RecordFees(amount uint64) {
	DefaultMetrics.FeesCollected.Add(float64(amount))
}

// RecordStakeReturned records released principal and any treasury bonus.
func RecordStakeReturned(principal, bonus uint64) {
	DefaultMetrics.StakesReturned.Add(float64(principal))
	DefaultMetrics.BonusesPaid.Add(float64(bonus))
}

// RecordStakeForfeited records a lost stake by destination (treasury or burn).
func RecordStakeForfeited(destination string, amount uint64) {
	DefaultMetrics.StakesForfeited.WithLabelValues(destination).Add(float64(amount))
}

// RecordPrizes records a season distribution.
func RecordPrizes(paid, dust uint64) {
	DefaultMetrics.PrizesPaid.Add(float64(paid))
	DefaultMetrics.PrizeDust.Add(float64(dust))
}

// RecordTreasuryWithdrawal records an authority withdrawal.
func RecordTreasuryWithdrawal(amount uint64) {
	DefaultMetrics.TreasuryOutflow.Add(float64(amount))
}

// RecordEventPublished increments the published counter for kind.
func RecordEventPublished(kind string) {
	DefaultMetrics.EventsPublished.WithLabelValues(kind).Inc()
}

// RecordSinkError increments the delivery failure counter for sink.
func RecordSinkError(sink string) {
	DefaultMetrics.EventSinkErrors.WithLabelValues(sink).Inc()
}

// RecordHTTPRequest records one HTTP request.
func RecordHTTPRequest(route, code string, elapsed time.Duration) {
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route, code).Observe(elapsed.Seconds())
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.CacheLookups.WithLabelValues(result).Inc()
}

// RecordCloserRun records one closer tick and the seasons it closed.
func RecordCloserRun(status string, closed int) {
	DefaultMetrics.CloserRuns.WithLabelValues(status).Inc()
	DefaultMetrics.SeasonsClosed.Add(float64(closed))
}

// SetWSSubscribers sets the connected websocket subscriber gauge.
func SetWSSubscribers(n int) {
	DefaultMetrics.WSSubscribers.Set(float64(n))
}

// RecordWSDropped increments the dropped websocket notification counter.
func RecordWSDropped() {
	DefaultMetrics.WSDropped.Inc()
}
