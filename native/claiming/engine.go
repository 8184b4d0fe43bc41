package claiming

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"minepool/core/types"
	nativecommon "minepool/native/common"
	"minepool/observability/metrics"
)

// ModuleName is the pause-guard identifier for the claiming module.
const ModuleName = "claiming"

const (
	EventTypeAllocationSet = "claiming.allocation_set"
	EventTypeClaimed       = "claiming.claimed"
	EventTypeStakedVested  = "claiming.staked_vested"
)

// State is the slice of persistent state the claiming engine operates on.
type State interface {
	Allocation(addr [20]byte) (*Allocation, bool, error)
	PutAllocation(addr [20]byte, alloc *Allocation) error

	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
	AppendEvent(evt *types.Event)
}

// Staker lets vested tokens flow straight into a stake lock. Principal is
// moved into the staking vault before the bond is opened.
type Staker interface {
	BondVested(subject [20]byte, amount *big.Int, tierIndex uint64, now int64) error
}

// Engine pays out presale allocations on the monthly vesting schedule and
// exposes the allocation registry the liquidity module debits deposits
// against.
type Engine struct {
	state        State
	schedule     VestingSchedule
	vault        [20]byte
	stakingVault [20]byte
	staker       Staker
	pauses       nativecommon.PauseView
	telemetry    *metrics.ClaimingMetrics
}

// NewEngine constructs a claiming engine. vault custodies the unvested
// presale supply.
func NewEngine(vault [20]byte, schedule VestingSchedule) *Engine {
	return &Engine{vault: vault, schedule: schedule, telemetry: metrics.Claiming()}
}

// SetState wires the engine to the persistence layer.
func (e *Engine) SetState(state State) { e.state = state }

// SetStaker wires the staking module for StakeFromClaim.
func (e *Engine) SetStaker(staker Staker, stakingVault [20]byte) {
	e.staker = staker
	e.stakingVault = stakingVault
}

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// Schedule returns the configured vesting schedule.
func (e *Engine) Schedule() VestingSchedule {
	if e == nil {
		return VestingSchedule{}
	}
	return e.schedule
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	return nativecommon.Guard(e.pauses, ModuleName)
}

// SetAllocation records a buyer's presale allocation. Existing claimed
// progress is preserved.
func (e *Engine) SetAllocation(subject [20]byte, total *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if subject == ([20]byte{}) {
		return ErrZeroAddress
	}
	if total == nil || total.Sign() < 0 {
		return ErrInvalidAmount
	}
	existing, ok, err := e.state.Allocation(subject)
	if err != nil {
		return err
	}
	alloc := (&Allocation{}).Normalize()
	if ok {
		alloc = existing.Clone()
	}
	alloc.Total = new(big.Int).Set(total)
	if err := e.state.PutAllocation(subject, alloc); err != nil {
		return err
	}
	e.state.AppendEvent(&types.Event{Type: EventTypeAllocationSet, Attributes: map[string]string{
		"subject": hex.EncodeToString(subject[:]),
		"total":   total.String(),
	}})
	return nil
}

// AllocationOf returns a copy of the subject's allocation.
func (e *Engine) AllocationOf(subject [20]byte) (*Allocation, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	alloc, ok, err := e.state.Allocation(subject)
	if err != nil {
		return nil, err
	}
	if !ok {
		return (&Allocation{}).Normalize(), nil
	}
	return alloc.Clone(), nil
}

// ClaimableAt reports the amount a claim would pay at the given time.
func (e *Engine) ClaimableAt(subject [20]byte, now int64) (*big.Int, error) {
	alloc, err := e.AllocationOf(subject)
	if err != nil {
		return nil, err
	}
	return e.claimable(alloc, now), nil
}

func (e *Engine) claimable(alloc *Allocation, now int64) *big.Int {
	alloc = alloc.Normalize()
	vested := e.schedule.Vested(alloc.Total, now)
	out := new(big.Int).Sub(vested, alloc.Claimed)
	if out.Sign() < 0 {
		return big.NewInt(0)
	}
	return out
}

// Claim transfers the vested, unclaimed balance from the vault to the
// subject's wallet.
func (e *Engine) Claim(subject [20]byte, now int64) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if subject == ([20]byte{}) {
		return nil, ErrZeroAddress
	}
	alloc, ok, err := e.state.Allocation(subject)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoAllocation
	}
	alloc = alloc.Clone()
	amount := e.claimable(alloc, now)
	if amount.Sign() <= 0 {
		return nil, ErrNothingToClaim
	}
	vaultAcc, err := e.state.GetAccount(e.vault)
	if err != nil {
		return nil, err
	}
	vaultAcc = vaultAcc.Normalize()
	if vaultAcc.BalanceToken.Cmp(amount) < 0 {
		return nil, ErrInsufficientBalance
	}
	subjectAcc, err := e.state.GetAccount(subject)
	if err != nil {
		return nil, err
	}
	subjectAcc = subjectAcc.Normalize()
	vaultAcc.BalanceToken = new(big.Int).Sub(vaultAcc.BalanceToken, amount)
	subjectAcc.BalanceToken = new(big.Int).Add(subjectAcc.BalanceToken, amount)
	if err := e.state.PutAccount(e.vault, vaultAcc); err != nil {
		return nil, err
	}
	if err := e.state.PutAccount(subject, subjectAcc); err != nil {
		return nil, err
	}
	alloc.Claimed = new(big.Int).Add(alloc.Claimed, amount)
	if err := e.state.PutAllocation(subject, alloc); err != nil {
		return nil, err
	}
	e.state.AppendEvent(&types.Event{Type: EventTypeClaimed, Attributes: map[string]string{
		"subject": hex.EncodeToString(subject[:]),
		"amount":  amount.String(),
	}})
	e.telemetry.ObserveClaim(amount)
	return amount, nil
}

// StakeFromClaim moves vested, unclaimed tokens straight into a stake lock
// without touching the subject's wallet balance.
func (e *Engine) StakeFromClaim(subject [20]byte, amount *big.Int, tierIndex uint64, now int64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if subject == ([20]byte{}) {
		return ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if e.staker == nil {
		return ErrNoStaker
	}
	alloc, ok, err := e.state.Allocation(subject)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoAllocation
	}
	alloc = alloc.Clone()
	if e.claimable(alloc, now).Cmp(amount) < 0 {
		return ErrExceedsVested
	}
	vaultAcc, err := e.state.GetAccount(e.vault)
	if err != nil {
		return err
	}
	vaultAcc = vaultAcc.Normalize()
	if vaultAcc.BalanceToken.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	stakingAcc, err := e.state.GetAccount(e.stakingVault)
	if err != nil {
		return err
	}
	stakingAcc = stakingAcc.Normalize()
	// The bond validates the tier and the staking pause; nothing here is
	// written until the staking module accepts it.
	if err := e.staker.BondVested(subject, amount, tierIndex, now); err != nil {
		return err
	}
	vaultAcc.BalanceToken = new(big.Int).Sub(vaultAcc.BalanceToken, amount)
	stakingAcc.BalanceToken = new(big.Int).Add(stakingAcc.BalanceToken, amount)
	if err := e.state.PutAccount(e.vault, vaultAcc); err != nil {
		return err
	}
	if err := e.state.PutAccount(e.stakingVault, stakingAcc); err != nil {
		return err
	}
	alloc.Claimed = new(big.Int).Add(alloc.Claimed, amount)
	if err := e.state.PutAllocation(subject, alloc); err != nil {
		return err
	}
	e.state.AppendEvent(&types.Event{Type: EventTypeStakedVested, Attributes: map[string]string{
		"subject": hex.EncodeToString(subject[:]),
		"amount":  amount.String(),
		"tier":    strconv.FormatUint(tierIndex, 10),
	}})
	return nil
}

// GetClaimableAmount implements the liquidity module's ClaimRegistry: the
// unclaimed remainder of the subject's allocation, independent of vesting
// progress (deposits spend future allocation, not vested tokens).
func (e *Engine) GetClaimableAmount(addr [20]byte) (*big.Int, error) {
	alloc, err := e.AllocationOf(addr)
	if err != nil {
		return nil, err
	}
	return alloc.Remaining(), nil
}

// SetClaimableAmount implements the liquidity module's ClaimRegistry by
// shrinking the unclaimed remainder to the given value.
func (e *Engine) SetClaimableAmount(addr [20]byte, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if addr == ([20]byte{}) {
		return ErrZeroAddress
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	alloc, ok, err := e.state.Allocation(addr)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoAllocation
	}
	alloc = alloc.Clone()
	alloc.Total = new(big.Int).Add(alloc.Claimed, amount)
	return e.state.PutAllocation(addr, alloc)
}
