package claiming

import "math/big"

// BpsDenominator is the fixed denominator for vesting basis points.
const BpsDenominator = 10_000

// VestingMonthSeconds is one vesting tranche interval.
const VestingMonthSeconds int64 = 30 * 24 * 60 * 60

// Allocation is a presale buyer's claim balance. Total may shrink when the
// buyer spends allocation through the liquidity-mining deposit path.
type Allocation struct {
	Total   *big.Int
	Claimed *big.Int
}

// Normalize replaces nil amounts with zero.
func (a *Allocation) Normalize() *Allocation {
	if a == nil {
		return &Allocation{Total: big.NewInt(0), Claimed: big.NewInt(0)}
	}
	if a.Total == nil {
		a.Total = big.NewInt(0)
	}
	if a.Claimed == nil {
		a.Claimed = big.NewInt(0)
	}
	return a
}

// Clone returns a deep copy of the allocation.
func (a *Allocation) Clone() *Allocation {
	if a == nil {
		return (&Allocation{}).Normalize()
	}
	clone := &Allocation{Total: big.NewInt(0), Claimed: big.NewInt(0)}
	if a.Total != nil {
		clone.Total = new(big.Int).Set(a.Total)
	}
	if a.Claimed != nil {
		clone.Claimed = new(big.Int).Set(a.Claimed)
	}
	return clone
}

// Remaining is the unclaimed part of the allocation.
func (a *Allocation) Remaining() *big.Int {
	a = a.Normalize()
	out := new(big.Int).Sub(a.Total, a.Claimed)
	if out.Sign() < 0 {
		return big.NewInt(0)
	}
	return out
}

// VestingSchedule unlocks InitialUnlockBps of an allocation at StartAt and a
// further MonthlyUnlockBps per elapsed 30-day tranche, capping at the total.
type VestingSchedule struct {
	StartAt          int64
	InitialUnlockBps uint64
	MonthlyUnlockBps uint64
}

// Vested returns the amount of total unlocked at the given time, truncated
// per the basis-point arithmetic.
func (s VestingSchedule) Vested(total *big.Int, now int64) *big.Int {
	if total == nil || total.Sign() <= 0 || now < s.StartAt {
		return big.NewInt(0)
	}
	months := uint64(0)
	if s.StartAt > 0 && now > s.StartAt {
		months = uint64((now - s.StartAt) / VestingMonthSeconds)
	}
	bps := s.InitialUnlockBps + months*s.MonthlyUnlockBps
	if bps >= BpsDenominator {
		return new(big.Int).Set(total)
	}
	vested := new(big.Int).Mul(total, new(big.Int).SetUint64(bps))
	return vested.Quo(vested, big.NewInt(BpsDenominator))
}
