// Package metrics exposes Prometheus instruments for the settlement core and
// the RPC layer on a dedicated registry.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics holds every instrument. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	settlements       *prometheus.CounterVec
	rollbacks         prometheus.Counter
	confirmations     *prometheus.CounterVec
	settlementTxCount prometheus.Histogram
	rpcDuration       *prometheus.HistogramVec
}

// New creates the instruments and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabsettle",
			Name:      "settlements_computed_total",
			Help:      "Settlement computations by outcome.",
		}, []string{"outcome"}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tabsettle",
			Name:      "settlement_rollbacks_total",
			Help:      "Sessions returned to OPEN after a failed computation.",
		}),
		confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabsettle",
			Name:      "transaction_confirmations_total",
			Help:      "Transaction confirmations by outcome.",
		}, []string{"outcome"}),
		settlementTxCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tabsettle",
			Name:      "settlement_transactions",
			Help:      "Number of transactions per computed settlement.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tabsettle",
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure and code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.settlements,
		m.rollbacks,
		m.confirmations,
		m.settlementTxCount,
		m.rpcDuration,
	)
	return m
}

// Registry returns the registry the instruments live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SettlementComputed records one computation. txCount is observed only on
// success.
func (m *Metrics) SettlementComputed(outcome string, txCount int) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		m.settlementTxCount.Observe(float64(txCount))
	}
}

// SettlementRolledBack records a compensating OPEN transition.
func (m *Metrics) SettlementRolledBack() {
	if m == nil {
		return
	}
	m.rollbacks.Inc()
}

// TransactionConfirmed records one confirmation attempt.
func (m *Metrics) TransactionConfirmed(outcome string) {
	if m == nil {
		return
	}
	m.confirmations.WithLabelValues(outcome).Inc()
}

// Interceptor returns a Connect interceptor observing RPC latency.
func (m *Metrics) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			if m != nil {
				m.rpcDuration.
					WithLabelValues(req.Spec().Procedure, codeOf(err)).
					Observe(time.Since(start).Seconds())
			}
			return resp, err
		}
	}
}

func codeOf(err error) string {
	if err == nil {
		return "ok"
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr.Code().String()
	}
	return connect.CodeUnknown.String()
}
