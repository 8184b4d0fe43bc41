package staking

import "math/big"

// BpsDenominator is the fixed denominator for APY basis points.
const BpsDenominator = 10_000

// DaysPerYear anchors the APY pro-rating.
const DaysPerYear = 365

// Tier is one rung of the lock ladder: funds locked for LockDays earn
// APYBps, pro-rated over the lock length.
type Tier struct {
	LockDays uint64
	APYBps   uint64
}

// DefaultTiers is the production ladder.
func DefaultTiers() []Tier {
	return []Tier{
		{LockDays: 30, APYBps: 600},
		{LockDays: 90, APYBps: 1200},
		{LockDays: 180, APYBps: 1800},
		{LockDays: 365, APYBps: 2400},
	}
}

// Reward computes the fixed reward for an amount held through the full lock:
// amount * apy * lockDays / (10_000 * 365), truncated.
func (t Tier) Reward(amount *big.Int) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0)
	}
	reward := new(big.Int).Mul(amount, new(big.Int).SetUint64(t.APYBps))
	reward.Mul(reward, new(big.Int).SetUint64(t.LockDays))
	return reward.Quo(reward, big.NewInt(BpsDenominator*DaysPerYear))
}

// StakeLock is one time-locked position. Withdrawn is a one-way transition.
type StakeLock struct {
	Amount    *big.Int
	Tier      uint64
	StakedAt  int64
	UnlockAt  int64
	Withdrawn bool
}

// Clone returns a deep copy of the lock.
func (l *StakeLock) Clone() *StakeLock {
	if l == nil {
		return nil
	}
	clone := &StakeLock{Tier: l.Tier, StakedAt: l.StakedAt, UnlockAt: l.UnlockAt, Withdrawn: l.Withdrawn, Amount: big.NewInt(0)}
	if l.Amount != nil {
		clone.Amount = new(big.Int).Set(l.Amount)
	}
	return clone
}
