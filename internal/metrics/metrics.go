// Package metrics defines the Prometheus metrics exported by klingswapd.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "klingswap"

// Metrics holds every collector the ledger and RPC server update.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Operation metrics
	Operations   *prometheus.CounterVec
	SwapVolume   *prometheus.CounterVec
	FeesAccrued  prometheus.Counter
	FeesClaimed  prometheus.Counter
	LiquidityIn  prometheus.Counter
	StakedVolume prometheus.Counter

	// State gauges
	Liquidity    prometheus.Gauge
	FeeVault     prometheus.Gauge
	TokenSupply  prometheus.Gauge
	NativeSupply prometheus.Gauge
	StakeVault   prometheus.Gauge
	Tickets      prometheus.Gauge
	Invariants   *prometheus.GaugeVec

	// RPC metrics
	RPCRequests *prometheus.CounterVec
	RPCLatency  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Ledger operations by name and outcome",
		}, []string{"operation", "status"}),
		SwapVolume: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "swap_volume_total",
			Help:      "Swap input volume in base units",
		}, []string{"denom"}),
		FeesAccrued: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "fees_accrued_total",
			Help:      "Native fees moved into the fee vault",
		}),
		FeesClaimed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "fees_claimed_total",
			Help:      "Native fees paid out to the admin",
		}),
		LiquidityIn: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "liquidity_deposited_total",
			Help:      "Native units deposited by the admin",
		}),
		StakedVolume: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stake",
			Name:      "staked_volume_total",
			Help:      "Token units ever staked",
		}),
		Liquidity: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "liquidity",
			Help:      "Native units in the liquidity pool",
		}),
		FeeVault: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "fee_vault",
			Help:      "Unclaimed native fees",
		}),
		TokenSupply: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "token_supply",
			Help:      "Issued token in circulation",
		}),
		NativeSupply: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "native_supply",
			Help:      "Native asset in existence",
		}),
		StakeVault: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stake",
			Name:      "vault",
			Help:      "Token units locked in the stake vault",
		}),
		Tickets: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stake",
			Name:      "outstanding_tickets",
			Help:      "Unredeemed stake tickets",
		}),
		Invariants: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "invariant_broken",
			Help:      "1 when the named invariant failed its last check",
		}, []string{"invariant"}),
		RPCRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "JSON-RPC requests by method and result code",
		}, []string{"method", "code"}),
		RPCLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "JSON-RPC request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// State is the set of values exported as gauges.
type State struct {
	Liquidity    uint64
	FeeVault     uint64
	TokenSupply  uint64
	NativeSupply uint64
	StakeVault   uint64
	Tickets      int
}

// ObserveState updates every state gauge.
func (m *Metrics) ObserveState(s State) {
	if m == nil {
		return
	}
	m.Liquidity.Set(float64(s.Liquidity))
	m.FeeVault.Set(float64(s.FeeVault))
	m.TokenSupply.Set(float64(s.TokenSupply))
	m.NativeSupply.Set(float64(s.NativeSupply))
	m.StakeVault.Set(float64(s.StakeVault))
	m.Tickets.Set(float64(s.Tickets))
}

// ObserveOp counts one ledger operation.
func (m *Metrics) ObserveOp(op string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Operations.WithLabelValues(op, status).Inc()
}

// ObserveInvariant records the outcome of one invariant check.
func (m *Metrics) ObserveInvariant(name string, ok bool) {
	if m == nil {
		return
	}
	v := 0.0
	if !ok {
		v = 1
	}
	m.Invariants.WithLabelValues(name).Set(v)
}

// ObserveRPC records one JSON-RPC request. code is 0 on success.
func (m *Metrics) ObserveRPC(method string, code int, seconds float64) {
	if m == nil {
		return
	}
	m.RPCRequests.WithLabelValues(method, codeLabel(code)).Inc()
	m.RPCLatency.WithLabelValues(method).Observe(seconds)
}

// ObserveSwap records a swap of amount units of denom that moved fee
// native units into the fee vault.
func (m *Metrics) ObserveSwap(denom string, amount, fee uint64) {
	if m == nil {
		return
	}
	m.SwapVolume.WithLabelValues(denom).Add(float64(amount))
	m.FeesAccrued.Add(float64(fee))
}

// ObserveClaim records a fee claim.
func (m *Metrics) ObserveClaim(amount uint64) {
	if m == nil {
		return
	}
	m.FeesClaimed.Add(float64(amount))
}

// ObserveDeposit records a liquidity deposit.
func (m *Metrics) ObserveDeposit(amount uint64) {
	if m == nil {
		return
	}
	m.LiquidityIn.Add(float64(amount))
}

// ObserveStake records a new stake ticket.
func (m *Metrics) ObserveStake(amount uint64) {
	if m == nil {
		return
	}
	m.StakedVolume.Add(float64(amount))
}
