package staking

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"minepool/core/types"
	nativecommon "minepool/native/common"
	"minepool/observability/metrics"
)

// ModuleName is the pause-guard identifier for the staking module.
const ModuleName = "staking"

const (
	EventTypeStaked   = "staking.staked"
	EventTypeUnstaked = "staking.unstaked"
)

// State is the slice of persistent state the staking engine operates on.
type State interface {
	StakeLockCount(addr [20]byte) (uint64, error)
	SetStakeLockCount(addr [20]byte, count uint64) error
	StakeLock(addr [20]byte, index uint64) (*StakeLock, bool, error)
	PutStakeLock(addr [20]byte, index uint64, lock *StakeLock) error

	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
	AppendEvent(evt *types.Event)
}

// Engine implements the time-locked tiered-APY staking program. Principal is
// held in the module vault; rewards are paid from the same vault, which the
// operator funds up front.
type Engine struct {
	state     State
	tiers     []Tier
	vault     [20]byte
	pauses    nativecommon.PauseView
	telemetry *metrics.StakingMetrics
}

// NewEngine constructs a staking engine with the supplied tier ladder.
func NewEngine(vault [20]byte, tiers []Tier) *Engine {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	return &Engine{vault: vault, tiers: tiers, telemetry: metrics.Staking()}
}

// SetState wires the engine to the persistence layer.
func (e *Engine) SetState(state State) { e.state = state }

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// Tiers returns a copy of the configured ladder.
func (e *Engine) Tiers() []Tier {
	if e == nil {
		return nil
	}
	return append([]Tier(nil), e.tiers...)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	return nativecommon.Guard(e.pauses, ModuleName)
}

// Stake moves amount from the subject's wallet into the vault and opens a
// lock on the chosen tier. Returns the lock index.
func (e *Engine) Stake(subject [20]byte, amount *big.Int, tierIndex uint64, now int64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if subject == ([20]byte{}) {
		return 0, ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	if tierIndex >= uint64(len(e.tiers)) {
		return 0, ErrInvalidTier
	}
	subjectAcc, err := e.state.GetAccount(subject)
	if err != nil {
		return 0, err
	}
	subjectAcc = subjectAcc.Normalize()
	if subjectAcc.BalanceToken.Cmp(amount) < 0 {
		return 0, ErrInsufficientBalance
	}
	vaultAcc, err := e.state.GetAccount(e.vault)
	if err != nil {
		return 0, err
	}
	vaultAcc = vaultAcc.Normalize()
	subjectAcc.BalanceToken = new(big.Int).Sub(subjectAcc.BalanceToken, amount)
	vaultAcc.BalanceToken = new(big.Int).Add(vaultAcc.BalanceToken, amount)
	if err := e.state.PutAccount(subject, subjectAcc); err != nil {
		return 0, err
	}
	if err := e.state.PutAccount(e.vault, vaultAcc); err != nil {
		return 0, err
	}
	return e.bond(subject, amount, tierIndex, now)
}

// BondVested opens a lock for principal that already sits in the vault; the
// claiming module uses it to stake vested allocations without a wallet
// round-trip.
func (e *Engine) BondVested(subject [20]byte, amount *big.Int, tierIndex uint64, now int64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if subject == ([20]byte{}) {
		return ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if tierIndex >= uint64(len(e.tiers)) {
		return ErrInvalidTier
	}
	_, err := e.bond(subject, amount, tierIndex, now)
	return err
}

func (e *Engine) bond(subject [20]byte, amount *big.Int, tierIndex uint64, now int64) (uint64, error) {
	tier := e.tiers[tierIndex]
	lock := &StakeLock{
		Amount:   new(big.Int).Set(amount),
		Tier:     tierIndex,
		StakedAt: now,
		UnlockAt: now + int64(tier.LockDays)*24*60*60,
	}
	count, err := e.state.StakeLockCount(subject)
	if err != nil {
		return 0, err
	}
	if err := e.state.PutStakeLock(subject, count, lock); err != nil {
		return 0, err
	}
	if err := e.state.SetStakeLockCount(subject, count+1); err != nil {
		return 0, err
	}
	e.state.AppendEvent(&types.Event{Type: EventTypeStaked, Attributes: map[string]string{
		"subject":  hex.EncodeToString(subject[:]),
		"lock":     strconv.FormatUint(count, 10),
		"amount":   amount.String(),
		"tier":     strconv.FormatUint(tierIndex, 10),
		"unlockAt": strconv.FormatInt(lock.UnlockAt, 10),
	}})
	e.telemetry.ObserveStaked(amount)
	return count, nil
}

// Unstake pays out principal plus the tier reward once the lock elapsed.
func (e *Engine) Unstake(subject [20]byte, index uint64, now int64) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if subject == ([20]byte{}) {
		return nil, ErrZeroAddress
	}
	lock, ok, err := e.state.StakeLock(subject, index)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidLock
	}
	if lock.Withdrawn {
		return nil, ErrStakeWithdrawn
	}
	if now < lock.UnlockAt {
		return nil, ErrStakeLocked
	}
	// Locks persist across restarts; the configured ladder may have shrunk
	// since this one was opened.
	if lock.Tier >= uint64(len(e.tiers)) {
		return nil, ErrInvalidTier
	}
	tier := e.tiers[lock.Tier]
	payout := new(big.Int).Add(lock.Amount, tier.Reward(lock.Amount))
	vaultAcc, err := e.state.GetAccount(e.vault)
	if err != nil {
		return nil, err
	}
	vaultAcc = vaultAcc.Normalize()
	if vaultAcc.BalanceToken.Cmp(payout) < 0 {
		return nil, ErrInsufficientBalance
	}
	subjectAcc, err := e.state.GetAccount(subject)
	if err != nil {
		return nil, err
	}
	subjectAcc = subjectAcc.Normalize()
	vaultAcc.BalanceToken = new(big.Int).Sub(vaultAcc.BalanceToken, payout)
	subjectAcc.BalanceToken = new(big.Int).Add(subjectAcc.BalanceToken, payout)
	if err := e.state.PutAccount(e.vault, vaultAcc); err != nil {
		return nil, err
	}
	if err := e.state.PutAccount(subject, subjectAcc); err != nil {
		return nil, err
	}
	withdrawn := lock.Clone()
	withdrawn.Withdrawn = true
	if err := e.state.PutStakeLock(subject, index, withdrawn); err != nil {
		return nil, err
	}
	e.state.AppendEvent(&types.Event{Type: EventTypeUnstaked, Attributes: map[string]string{
		"subject": hex.EncodeToString(subject[:]),
		"lock":    strconv.FormatUint(index, 10),
		"payout":  payout.String(),
	}})
	e.telemetry.ObserveUnstaked()
	return payout, nil
}

// Locks lists the subject's stake history.
func (e *Engine) Locks(subject [20]byte) ([]*StakeLock, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	count, err := e.state.StakeLockCount(subject)
	if err != nil {
		return nil, err
	}
	out := make([]*StakeLock, 0, count)
	for i := uint64(0); i < count; i++ {
		lock, ok, err := e.state.StakeLock(subject, i)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInvalidLock
		}
		out = append(out, lock)
	}
	return out, nil
}
