// Package metrics exports engine activity to Prometheus. Metrics implements
// events.Observer.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/LeJamon/cpamm/internal/core/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "cpamm"

// Metrics holds the engine collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	volume     *prometheus.CounterVec
	lpTokens   *prometheus.CounterVec
	fees       *prometheus.CounterVec
}

// New creates collectors under namespace and registers them in a fresh
// registry.
func New(namespace string) (*Metrics, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "number of engine operations by result code",
		}, []string{"op", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "time to stage and commit an engine operation",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"op"}),
		volume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "volume_total",
			Help:      "asset units moved by committed operations",
		}, []string{"op", "asset", "side"}),
		lpTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lp_tokens_total",
			Help:      "LP tokens minted or burned",
		}, []string{"op"}),
		fees: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swap_fees_total",
			Help:      "swap fees collected by recipient",
		}, []string{"asset", "recipient"}),
	}

	var errs []error
	for _, c := range []prometheus.Collector{m.operations, m.latency, m.volume, m.lpTokens, m.fees} {
		errs = append(errs, m.registry.Register(c))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOperation counts an operation attempt and its latency.
func (m *Metrics) ObserveOperation(op, code string, elapsed time.Duration) {
	m.operations.WithLabelValues(op, code).Inc()
	m.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveEvent accumulates the amounts of a committed operation.
func (m *Metrics) ObserveEvent(ev events.Event) {
	if ev.AssetIn != "" && ev.AmountIn > 0 {
		m.volume.WithLabelValues(ev.Op, ev.AssetIn, "in").Add(float64(ev.AmountIn))
	}
	if ev.AssetOut != "" && ev.AmountOut > 0 {
		m.volume.WithLabelValues(ev.Op, ev.AssetOut, "out").Add(float64(ev.AmountOut))
	}
	if ev.LPAmount > 0 {
		m.lpTokens.WithLabelValues(ev.Op).Add(float64(ev.LPAmount))
	}
	if ev.Fee == 0 {
		return
	}
	pool := ev.Fee - ev.ProtocolFee - ev.ReferralFee
	m.fees.WithLabelValues(ev.AssetIn, "pool").Add(float64(pool))
	if ev.ProtocolFee > 0 {
		m.fees.WithLabelValues(ev.AssetIn, "protocol").Add(float64(ev.ProtocolFee))
	}
	if ev.ReferralFee > 0 {
		m.fees.WithLabelValues(ev.AssetIn, "referral").Add(float64(ev.ReferralFee))
	}
}

var _ events.Observer = (*Metrics)(nil)
