package metrics

import (
	"encoding/hex"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type StakingMetrics struct {
	operations  *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	conflicts   *prometheus.CounterVec
	locked      *prometheus.GaugeVec
	vault       *prometheus.GaugeVec
	rewardsPaid *prometheus.CounterVec
}

var (
	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nftstaking_operations_total",
				Help: "Count of staking operations by operation and outcome.",
			}, []string{"operation", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "nftstaking_operation_duration_seconds",
				Help:    "Latency of staking operations including commit.",
				Buckets: prometheus.DefBuckets,
			}, []string{"operation"}),
			conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nftstaking_state_conflicts_total",
				Help: "Number of operations discarded by optimistic concurrency validation.",
			}, []string{"operation"}),
			locked: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "nftstaking_locked_positions",
				Help: "Open positions per staking config.",
			}, []string{"config"}),
			vault: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "nftstaking_reward_vault_balance",
				Help: "Scaled reward balance held by each config vault.",
			}, []string{"config"}),
			rewardsPaid: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nftstaking_rewards_paid_total",
				Help: "Unscaled rewards paid out per config.",
			}, []string{"config"}),
		}
		prometheus.MustRegister(
			stakingRegistry.operations,
			stakingRegistry.latency,
			stakingRegistry.conflicts,
			stakingRegistry.locked,
			stakingRegistry.vault,
			stakingRegistry.rewardsPaid,
		)
	})
	return stakingRegistry
}

// ObserveOperation records the outcome and latency of one operation.
func (m *StakingMetrics) ObserveOperation(operation, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(took.Seconds())
	if outcome == "conflict" {
		m.conflicts.WithLabelValues(operation).Inc()
	}
}

// SetPool publishes the current size and vault balance of a pool.
func (m *StakingMetrics) SetPool(config [20]byte, locked uint64, vault uint64) {
	if m == nil {
		return
	}
	label := hex.EncodeToString(config[:])
	m.locked.WithLabelValues(label).Set(float64(locked))
	m.vault.WithLabelValues(label).Set(float64(vault))
}

// AddRewards accumulates paid rewards for a pool.
func (m *StakingMetrics) AddRewards(config [20]byte, amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	m.rewardsPaid.WithLabelValues(hex.EncodeToString(config[:])).Add(float64(amount))
}
