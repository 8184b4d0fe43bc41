package liquidity

import (
	"math/big"
	"time"
)

// SecondsPerDay converts unix timestamps into the day indices the ledger is
// keyed by. Day indices count from the unix epoch, so index 0 never occurs
// for live traffic and doubles as the "no link" sentinel in checkpoints.
const SecondsPerDay = 24 * 60 * 60

// WithdrawLockSeconds is the cooldown between pool listing and the first
// legal liquidity removal.
const WithdrawLockSeconds int64 = 7 * 24 * 60 * 60

// DayIndex maps a unix timestamp onto the epoch-day grid.
func DayIndex(unix int64) uint64 {
	if unix <= 0 {
		return 0
	}
	return uint64(unix) / SecondsPerDay
}

// DayString renders a day index for event attributes.
func DayString(day uint64) string {
	return time.Unix(int64(day*SecondsPerDay), 0).UTC().Format("2006-01-02")
}

// Checkpoint records the cumulative deposited amount effective from a given
// day forward until superseded by a later checkpoint. Prev and Next link the
// sparse set of recorded days into an ascending chain; zero means no link.
type Checkpoint struct {
	Amount *big.Int
	Prev   uint64
	Next   uint64
}

// Clone returns a deep copy of the checkpoint.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return &Checkpoint{Amount: big.NewInt(0)}
	}
	clone := &Checkpoint{Prev: c.Prev, Next: c.Next, Amount: big.NewInt(0)}
	if c.Amount != nil {
		clone.Amount = new(big.Int).Set(c.Amount)
	}
	return clone
}

// Space identifies one checkpoint series: either a depositor's own series or
// the pool-wide total series. Every mutation touches exactly one subject
// space plus the total space.
type Space struct {
	Subject [20]byte
	Total   bool
}

// SubjectSpace returns the checkpoint space for a depositor.
func SubjectSpace(addr [20]byte) Space { return Space{Subject: addr} }

// TotalSpace is the single pool-wide series.
var TotalSpace = Space{Total: true}

// Position is one discrete deposit or liquidity-add event. Positions are
// append-only and index-addressed; Removed is a one-way transition.
type Position struct {
	Amount         *big.Int
	DepositedAt    int64
	LiquidityShare *big.Int
	Removed        bool
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := &Position{DepositedAt: p.DepositedAt, Removed: p.Removed, Amount: big.NewInt(0), LiquidityShare: big.NewInt(0)}
	if p.Amount != nil {
		clone.Amount = new(big.Int).Set(p.Amount)
	}
	if p.LiquidityShare != nil {
		clone.LiquidityShare = new(big.Int).Set(p.LiquidityShare)
	}
	return clone
}

// RewardProgram is the singleton reward window configuration. DailyReward
// divides the pool evenly across the period with intentional truncation.
type RewardProgram struct {
	StartDay   uint64
	PeriodDays uint64
	TotalPool  *big.Int
}

// Configured reports whether the program has been set.
func (p *RewardProgram) Configured() bool {
	return p != nil && p.StartDay != 0 && p.PeriodDays != 0
}

// DailyReward returns TotalPool / PeriodDays, truncated.
func (p *RewardProgram) DailyReward() *big.Int {
	if !p.Configured() || p.TotalPool == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Quo(p.TotalPool, new(big.Int).SetUint64(p.PeriodDays))
}

// EndDay is the exclusive end of the reward window.
func (p *RewardProgram) EndDay() uint64 {
	if !p.Configured() {
		return 0
	}
	return p.StartDay + p.PeriodDays
}

// Clone returns a deep copy of the program.
func (p *RewardProgram) Clone() *RewardProgram {
	if p == nil {
		return nil
	}
	clone := &RewardProgram{StartDay: p.StartDay, PeriodDays: p.PeriodDays, TotalPool: big.NewInt(0)}
	if p.TotalPool != nil {
		clone.TotalPool = new(big.Int).Set(p.TotalPool)
	}
	return clone
}

// ClaimCursor resumes the accrual integral for a subject without re-scanning
// from the program start. It is persisted only by a successful claim.
type ClaimCursor struct {
	LastClaimDay           uint64
	LastCheckpointDay      uint64
	LastTotalCheckpointDay uint64
}

// Pool captures the one-way listing lifecycle and the totals needed to
// prorate pre-listing positions out of the pool-wide minted share.
type Pool struct {
	Listed         bool
	ListedAt       int64
	ListedDay      uint64
	EthTotal       *big.Int
	ListedEthTotal *big.Int
	MintedShares   *big.Int
}

// Normalize replaces nil totals with zero.
func (p *Pool) Normalize() *Pool {
	if p == nil {
		return &Pool{EthTotal: big.NewInt(0), ListedEthTotal: big.NewInt(0), MintedShares: big.NewInt(0)}
	}
	if p.EthTotal == nil {
		p.EthTotal = big.NewInt(0)
	}
	if p.ListedEthTotal == nil {
		p.ListedEthTotal = big.NewInt(0)
	}
	if p.MintedShares == nil {
		p.MintedShares = big.NewInt(0)
	}
	return p
}

// Clone returns a deep copy of the pool state.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return (&Pool{}).Normalize()
	}
	clone := &Pool{Listed: p.Listed, ListedAt: p.ListedAt, ListedDay: p.ListedDay}
	clone.EthTotal = copyBigInt(p.EthTotal)
	clone.ListedEthTotal = copyBigInt(p.ListedEthTotal)
	clone.MintedShares = copyBigInt(p.MintedShares)
	return clone
}

func copyBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
