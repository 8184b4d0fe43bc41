package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LiquidityMetrics instruments the liquidity-mining engine.
type LiquidityMetrics struct {
	deposits       prometheus.Counter
	depositVolume  prometheus.Counter
	added          prometheus.Counter
	removed        prometheus.Counter
	rewardsClaimed prometheus.Counter
	rewardsPaid    prometheus.Counter
	poolListed     prometheus.Gauge
}

var (
	liquidityOnce     sync.Once
	liquidityRegistry *LiquidityMetrics
)

// Liquidity returns the process-wide liquidity metrics set.
func Liquidity() *LiquidityMetrics {
	liquidityOnce.Do(func() {
		liquidityRegistry = &LiquidityMetrics{
			deposits: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "liquidity_deposits_total",
				Help: "Count of accepted pre-listing ETH deposits.",
			}),
			depositVolume: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "liquidity_deposit_volume_wei",
				Help: "Cumulative deposited ETH in wei.",
			}),
			added: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "liquidity_added_total",
				Help: "Count of post-listing liquidity adds.",
			}),
			removed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "liquidity_removed_total",
				Help: "Count of liquidity removals.",
			}),
			rewardsClaimed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "liquidity_rewards_claimed_total",
				Help: "Count of successful reward claims.",
			}),
			rewardsPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "liquidity_rewards_paid_wei",
				Help: "Cumulative reward tokens paid out in wei.",
			}),
			poolListed: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "liquidity_pool_listed",
				Help: "1 once the pool has been listed.",
			}),
		}
		prometheus.MustRegister(
			liquidityRegistry.deposits,
			liquidityRegistry.depositVolume,
			liquidityRegistry.added,
			liquidityRegistry.removed,
			liquidityRegistry.rewardsClaimed,
			liquidityRegistry.rewardsPaid,
			liquidityRegistry.poolListed,
		)
	})
	return liquidityRegistry
}

func approxWei(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

func (m *LiquidityMetrics) ObserveDeposit(amount *big.Int) {
	if m == nil {
		return
	}
	m.deposits.Inc()
	m.depositVolume.Add(approxWei(amount))
}

func (m *LiquidityMetrics) ObservePoolListed() {
	if m == nil {
		return
	}
	m.poolListed.Set(1)
}

func (m *LiquidityMetrics) ObserveLiquidityAdded(amount *big.Int) {
	if m == nil {
		return
	}
	m.added.Inc()
	m.depositVolume.Add(approxWei(amount))
}

func (m *LiquidityMetrics) ObserveLiquidityRemoved(amount *big.Int) {
	if m == nil {
		return
	}
	m.removed.Inc()
}

func (m *LiquidityMetrics) ObserveRewardsClaimed(amount *big.Int) {
	if m == nil {
		return
	}
	m.rewardsClaimed.Inc()
	m.rewardsPaid.Add(approxWei(amount))
}

// StakingMetrics instruments the staking engine.
type StakingMetrics struct {
	staked   prometheus.Counter
	unstaked prometheus.Counter
	volume   prometheus.Counter
}

var (
	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

// Staking returns the process-wide staking metrics set.
func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			staked: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_locks_created_total",
				Help: "Count of stake locks created.",
			}),
			unstaked: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_locks_withdrawn_total",
				Help: "Count of stake locks withdrawn.",
			}),
			volume: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_volume_wei",
				Help: "Cumulative staked token amount in wei.",
			}),
		}
		prometheus.MustRegister(stakingRegistry.staked, stakingRegistry.unstaked, stakingRegistry.volume)
	})
	return stakingRegistry
}

func (m *StakingMetrics) ObserveStaked(amount *big.Int) {
	if m == nil {
		return
	}
	m.staked.Inc()
	m.volume.Add(approxWei(amount))
}

func (m *StakingMetrics) ObserveUnstaked() {
	if m == nil {
		return
	}
	m.unstaked.Inc()
}

// ClaimingMetrics instruments the vesting claim engine.
type ClaimingMetrics struct {
	claims prometheus.Counter
	paid   prometheus.Counter
}

var (
	claimingOnce     sync.Once
	claimingRegistry *ClaimingMetrics
)

// Claiming returns the process-wide claiming metrics set.
func Claiming() *ClaimingMetrics {
	claimingOnce.Do(func() {
		claimingRegistry = &ClaimingMetrics{
			claims: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "claiming_claims_total",
				Help: "Count of successful vesting claims.",
			}),
			paid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "claiming_paid_wei",
				Help: "Cumulative claimed token amount in wei.",
			}),
		}
		prometheus.MustRegister(claimingRegistry.claims, claimingRegistry.paid)
	})
	return claimingRegistry
}

func (m *ClaimingMetrics) ObserveClaim(amount *big.Int) {
	if m == nil {
		return
	}
	m.claims.Inc()
	m.paid.Add(approxWei(amount))
}
