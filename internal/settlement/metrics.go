package settlement

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the settlement counters, registered on a caller-supplied
// registry.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	swapInput  *prometheus.CounterVec
	swapOutput *prometheus.CounterVec
	liquidity  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, errors.New("metrics: registry cannot be nil")
	}
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ammledger",
			Name:      "operations_total",
			Help:      "Settlement operations by kind and outcome.",
		}, []string{"op", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ammledger",
			Name:      "operation_duration_seconds",
			Help:      "Time spent settling one operation, store round trip included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		swapInput: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ammledger",
			Name:      "swap_input_units_total",
			Help:      "Base units paid into pools by swaps.",
		}, []string{"pool", "asset"}),
		swapOutput: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ammledger",
			Name:      "swap_output_units_total",
			Help:      "Base units paid out of pools by swaps.",
		}, []string{"pool", "asset"}),
		liquidity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ammledger",
			Name:      "liquidity_units_total",
			Help:      "Liquidity units minted or burned.",
		}, []string{"pool", "direction"}),
	}
	for _, c := range []prometheus.Collector{m.operations, m.duration, m.swapInput, m.swapOutput, m.liquidity} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.operations.WithLabelValues(op, status).Inc()
}

func (m *Metrics) timer(op string) *prometheus.Timer {
	if m == nil {
		return prometheus.NewTimer(prometheus.ObserverFunc(func(float64) {}))
	}
	return prometheus.NewTimer(m.duration.WithLabelValues(op))
}

func (m *Metrics) swap(poolID string, input, output uint64, outputIsB bool) {
	if m == nil {
		return
	}
	in, out := "a", "b"
	if !outputIsB {
		in, out = "b", "a"
	}
	m.swapInput.WithLabelValues(poolID, in).Add(float64(input))
	m.swapOutput.WithLabelValues(poolID, out).Add(float64(output))
}

func (m *Metrics) minted(poolID string, units uint64) {
	if m == nil {
		return
	}
	m.liquidity.WithLabelValues(poolID, "mint").Add(float64(units))
}

func (m *Metrics) burned(poolID string, units uint64) {
	if m == nil {
		return
	}
	m.liquidity.WithLabelValues(poolID, "burn").Add(float64(units))
}
