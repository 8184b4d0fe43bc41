package liquidity

import (
	"math/big"

	"minepool/core/types"
	nativecommon "minepool/native/common"
	"minepool/observability/metrics"
)

// ModuleName is the pause-guard identifier for the liquidity module.
const ModuleName = "liquidity"

// State is the slice of persistent state the engine operates on. Every
// operation is all-or-nothing: validation and collaborator reads happen
// before the first write.
type State interface {
	LedgerState

	PositionCount(addr [20]byte) (uint64, error)
	SetPositionCount(addr [20]byte, count uint64) error
	Position(addr [20]byte, index uint64) (*Position, bool, error)
	PutPosition(addr [20]byte, index uint64, pos *Position) error

	TotalDeposited(addr [20]byte) (*big.Int, error)
	SetTotalDeposited(addr [20]byte, amount *big.Int) error

	RewardProgram() (*RewardProgram, bool, error)
	SetRewardProgram(program *RewardProgram) error
	ClaimCursor(addr [20]byte) (*ClaimCursor, error)
	SetClaimCursor(addr [20]byte, cursor *ClaimCursor) error
	LiquidityPool() (*Pool, error)
	SetLiquidityPool(pool *Pool) error

	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
	AppendEvent(evt *types.Event)
}

// ClaimRegistry debits a depositor's presale allocation by the USD value of
// an ETH deposit. Implemented by the claiming module.
type ClaimRegistry interface {
	GetClaimableAmount(addr [20]byte) (*big.Int, error)
	SetClaimableAmount(addr [20]byte, amount *big.Int) error
}

// Engine orchestrates the liquidity-mining state transitions: pre-listing
// ETH deposits, the one-way pool listing, post-listing combined liquidity
// adds, time-locked removals and daily reward claims.
type Engine struct {
	state     State
	ledger    *Ledger
	registry  ClaimRegistry
	oracle    PriceOracle
	exchange  Exchange
	vault     [20]byte
	treasury  [20]byte
	pauses    nativecommon.PauseView
	telemetry *metrics.LiquidityMetrics
}

// NewEngine constructs an engine bound to the module vault (ETH custody and
// reward pool) and the token treasury that funds the listing.
func NewEngine(vault, treasury [20]byte) *Engine {
	return &Engine{vault: vault, treasury: treasury, telemetry: metrics.Liquidity()}
}

// SetState wires the engine to the persistence layer.
func (e *Engine) SetState(state State) {
	e.state = state
	e.ledger = NewLedger(state)
}

func (e *Engine) SetRegistry(registry ClaimRegistry) { e.registry = registry }
func (e *Engine) SetOracle(oracle PriceOracle)       { e.oracle = oracle }
func (e *Engine) SetExchange(exchange Exchange)      { e.exchange = exchange }

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil || e.ledger == nil {
		return ErrNilState
	}
	return nativecommon.Guard(e.pauses, ModuleName)
}

// ConfigureProgram sets the reward window. Configure-once: reconfiguration
// after the program is set would retroactively change accrued rewards.
func (e *Engine) ConfigureProgram(startDay, periodDays uint64, totalPool *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if startDay == 0 || periodDays == 0 {
		return ErrProgramNotConfigured
	}
	if totalPool == nil || totalPool.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if existing, ok, err := e.state.RewardProgram(); err != nil {
		return err
	} else if ok && existing.Configured() {
		return ErrProgramConfigured
	}
	return e.state.SetRewardProgram(&RewardProgram{
		StartDay:   startDay,
		PeriodDays: periodDays,
		TotalPool:  new(big.Int).Set(totalPool),
	})
}

// Deposit accepts a pre-listing ETH deposit, debiting the subject's
// claimable allocation by the oracle-priced USD value. Returns the new
// position index.
func (e *Engine) Deposit(subject [20]byte, amount *big.Int, now int64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if subject == ([20]byte{}) {
		return 0, ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	if e.registry == nil || e.oracle == nil {
		return 0, ErrNilState
	}
	pool, err := e.state.LiquidityPool()
	if err != nil {
		return 0, err
	}
	pool = pool.Normalize()
	if pool.Listed {
		return 0, ErrAlreadyListed
	}
	price, decimals, err := e.oracle.FetchPrice()
	if err != nil {
		return 0, err
	}
	value := new(big.Int).Mul(amount, price)
	value.Quo(value, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	claimable, err := e.registry.GetClaimableAmount(subject)
	if err != nil {
		return 0, err
	}
	if claimable == nil || claimable.Cmp(value) < 0 {
		return 0, ErrInsufficientAllocation
	}
	subjectAcc, err := e.state.GetAccount(subject)
	if err != nil {
		return 0, err
	}
	subjectAcc = subjectAcc.Normalize()
	if subjectAcc.BalanceETH.Cmp(amount) < 0 {
		return 0, ErrInsufficientBalance
	}
	vaultAcc, err := e.state.GetAccount(e.vault)
	if err != nil {
		return 0, err
	}
	vaultAcc = vaultAcc.Normalize()

	// Validation complete; apply writes. The registry debit can still be
	// refused (the claiming module may be paused), so it lands before any
	// balance moves.
	if err := e.registry.SetClaimableAmount(subject, new(big.Int).Sub(claimable, value)); err != nil {
		return 0, err
	}
	subjectAcc.BalanceETH = new(big.Int).Sub(subjectAcc.BalanceETH, amount)
	vaultAcc.BalanceETH = new(big.Int).Add(vaultAcc.BalanceETH, amount)
	if err := e.state.PutAccount(subject, subjectAcc); err != nil {
		return 0, err
	}
	if err := e.state.PutAccount(e.vault, vaultAcc); err != nil {
		return 0, err
	}
	index, err := e.appendPosition(subject, &Position{Amount: new(big.Int).Set(amount), DepositedAt: now, LiquidityShare: big.NewInt(0)})
	if err != nil {
		return 0, err
	}
	day := DayIndex(now)
	if err := e.recordDelta(subject, day, new(big.Int).Set(amount)); err != nil {
		return 0, err
	}
	if err := e.addTotalDeposited(subject, amount); err != nil {
		return 0, err
	}
	pool.EthTotal = new(big.Int).Add(pool.EthTotal, amount)
	if err := e.state.SetLiquidityPool(pool); err != nil {
		return 0, err
	}
	e.state.AppendEvent(newDepositEvent(subject, index, amount, day))
	e.telemetry.ObserveDeposit(amount)
	return index, nil
}

// ListPool performs the one-way listing transition: quote the token amount
// matching the accumulated ETH against the pair reserves, supply both assets
// and record the minted share total.
func (e *Engine) ListPool(now int64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if e.exchange == nil {
		return ErrNilState
	}
	pool, err := e.state.LiquidityPool()
	if err != nil {
		return err
	}
	pool = pool.Normalize()
	if pool.Listed {
		return ErrAlreadyListed
	}
	if pool.EthTotal.Sign() <= 0 {
		return ErrNothingToList
	}
	tokenReserve, ethReserve, err := e.exchange.Reserves()
	if err != nil {
		return err
	}
	tokenAmount, err := e.exchange.Quote(pool.EthTotal, ethReserve, tokenReserve)
	if err != nil {
		return err
	}
	treasuryAcc, err := e.state.GetAccount(e.treasury)
	if err != nil {
		return err
	}
	treasuryAcc = treasuryAcc.Normalize()
	if treasuryAcc.BalanceToken.Cmp(tokenAmount) < 0 {
		return ErrInsufficientBalance
	}
	vaultAcc, err := e.state.GetAccount(e.vault)
	if err != nil {
		return err
	}
	vaultAcc = vaultAcc.Normalize()
	if vaultAcc.BalanceETH.Cmp(pool.EthTotal) < 0 {
		return ErrInsufficientBalance
	}
	usedToken, usedEth, minted, err := e.exchange.AddLiquidity(tokenAmount, pool.EthTotal)
	if err != nil {
		return err
	}
	treasuryAcc.BalanceToken = new(big.Int).Sub(treasuryAcc.BalanceToken, usedToken)
	vaultAcc.BalanceETH = new(big.Int).Sub(vaultAcc.BalanceETH, usedEth)
	if err := e.state.PutAccount(e.treasury, treasuryAcc); err != nil {
		return err
	}
	if err := e.state.PutAccount(e.vault, vaultAcc); err != nil {
		return err
	}
	pool.Listed = true
	pool.ListedAt = now
	pool.ListedDay = DayIndex(now)
	pool.ListedEthTotal = new(big.Int).Set(pool.EthTotal)
	pool.MintedShares = minted
	if err := e.state.SetLiquidityPool(pool); err != nil {
		return err
	}
	e.state.AppendEvent(newPoolListedEvent(pool, usedToken))
	e.telemetry.ObservePoolListed()
	return nil
}

// AddLiquidity is the post-listing path: the subject supplies both assets
// and the minted share is recorded on the position itself.
func (e *Engine) AddLiquidity(subject [20]byte, tokenAmount, ethAmount *big.Int, now int64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if subject == ([20]byte{}) {
		return 0, ErrZeroAddress
	}
	if tokenAmount == nil || ethAmount == nil || tokenAmount.Sign() <= 0 || ethAmount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	if e.exchange == nil {
		return 0, ErrNilState
	}
	pool, err := e.state.LiquidityPool()
	if err != nil {
		return 0, err
	}
	pool = pool.Normalize()
	if !pool.Listed {
		return 0, ErrNotListed
	}
	subjectAcc, err := e.state.GetAccount(subject)
	if err != nil {
		return 0, err
	}
	subjectAcc = subjectAcc.Normalize()
	if subjectAcc.BalanceToken.Cmp(tokenAmount) < 0 || subjectAcc.BalanceETH.Cmp(ethAmount) < 0 {
		return 0, ErrInsufficientBalance
	}
	usedToken, usedEth, minted, err := e.exchange.AddLiquidity(tokenAmount, ethAmount)
	if err != nil {
		return 0, err
	}
	subjectAcc.BalanceToken = new(big.Int).Sub(subjectAcc.BalanceToken, usedToken)
	subjectAcc.BalanceETH = new(big.Int).Sub(subjectAcc.BalanceETH, usedEth)
	if err := e.state.PutAccount(subject, subjectAcc); err != nil {
		return 0, err
	}
	index, err := e.appendPosition(subject, &Position{Amount: new(big.Int).Set(usedEth), DepositedAt: now, LiquidityShare: minted})
	if err != nil {
		return 0, err
	}
	day := DayIndex(now)
	if err := e.recordDelta(subject, day, new(big.Int).Set(usedEth)); err != nil {
		return 0, err
	}
	if err := e.addTotalDeposited(subject, usedEth); err != nil {
		return 0, err
	}
	pool.EthTotal = new(big.Int).Add(pool.EthTotal, usedEth)
	if err := e.state.SetLiquidityPool(pool); err != nil {
		return 0, err
	}
	e.state.AppendEvent(newAddedEvent(subject, index, usedEth, usedToken, minted))
	e.telemetry.ObserveLiquidityAdded(usedEth)
	return index, nil
}

// RemoveLiquidity withdraws a position's proportional AMM share after the
// 7-day listing lock. Pre-listing positions prorate out of the pool-wide
// minted total; post-listing positions burn their own recorded share.
func (e *Engine) RemoveLiquidity(subject [20]byte, index uint64, now int64) (tokenOut, ethOut *big.Int, err error) {
	if err := e.ready(); err != nil {
		return nil, nil, err
	}
	if subject == ([20]byte{}) {
		return nil, nil, ErrZeroAddress
	}
	if e.exchange == nil {
		return nil, nil, ErrNilState
	}
	pool, err := e.state.LiquidityPool()
	if err != nil {
		return nil, nil, err
	}
	pool = pool.Normalize()
	if !pool.Listed {
		return nil, nil, ErrNotListed
	}
	if now < pool.ListedAt+WithdrawLockSeconds {
		return nil, nil, ErrWithdrawLocked
	}
	pos, ok, err := e.state.Position(subject, index)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrInvalidPosition
	}
	if pos.Removed {
		return nil, nil, ErrPositionRemoved
	}
	share := copyBigInt(pos.LiquidityShare)
	if share.Sign() == 0 {
		if pool.ListedEthTotal.Sign() == 0 {
			return nil, nil, ErrNotListed
		}
		share = new(big.Int).Mul(pool.MintedShares, pos.Amount)
		share.Quo(share, pool.ListedEthTotal)
	}
	tokenOut, ethOut, err = e.exchange.RemoveLiquidity(share)
	if err != nil {
		return nil, nil, err
	}
	subjectAcc, err := e.state.GetAccount(subject)
	if err != nil {
		return nil, nil, err
	}
	subjectAcc = subjectAcc.Normalize()
	subjectAcc.BalanceToken = new(big.Int).Add(subjectAcc.BalanceToken, tokenOut)
	subjectAcc.BalanceETH = new(big.Int).Add(subjectAcc.BalanceETH, ethOut)
	if err := e.state.PutAccount(subject, subjectAcc); err != nil {
		return nil, nil, err
	}
	removed := pos.Clone()
	removed.Removed = true
	if err := e.state.PutPosition(subject, index, removed); err != nil {
		return nil, nil, err
	}
	day := DayIndex(now)
	if err := e.recordDelta(subject, day, new(big.Int).Neg(pos.Amount)); err != nil {
		return nil, nil, err
	}
	if err := e.addTotalDeposited(subject, new(big.Int).Neg(pos.Amount)); err != nil {
		return nil, nil, err
	}
	pool.EthTotal = new(big.Int).Sub(pool.EthTotal, pos.Amount)
	if err := e.state.SetLiquidityPool(pool); err != nil {
		return nil, nil, err
	}
	e.state.AppendEvent(newRemovedEvent(subject, index, share, tokenOut, ethOut))
	e.telemetry.ObserveLiquidityRemoved(pos.Amount)
	return tokenOut, ethOut, nil
}

// ClaimRewards accrues and pays out the subject's unclaimed daily rewards.
// The resumption cursor is persisted only after the payout succeeds.
func (e *Engine) ClaimRewards(subject [20]byte, now int64) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if subject == ([20]byte{}) {
		return nil, ErrZeroAddress
	}
	program, ok, err := e.state.RewardProgram()
	if err != nil {
		return nil, err
	}
	if !ok || !program.Configured() {
		return nil, ErrProgramNotConfigured
	}
	cursor, err := e.state.ClaimCursor(subject)
	if err != nil {
		return nil, err
	}
	accrual, err := e.ledger.Accrue(subject, program, cursor, DayIndex(now))
	if err != nil {
		return nil, err
	}
	if accrual.Reward.Sign() <= 0 {
		return nil, ErrNoRewards
	}
	vaultAcc, err := e.state.GetAccount(e.vault)
	if err != nil {
		return nil, err
	}
	vaultAcc = vaultAcc.Normalize()
	if vaultAcc.BalanceToken.Cmp(accrual.Reward) < 0 {
		return nil, ErrInsufficientBalance
	}
	subjectAcc, err := e.state.GetAccount(subject)
	if err != nil {
		return nil, err
	}
	subjectAcc = subjectAcc.Normalize()
	vaultAcc.BalanceToken = new(big.Int).Sub(vaultAcc.BalanceToken, accrual.Reward)
	subjectAcc.BalanceToken = new(big.Int).Add(subjectAcc.BalanceToken, accrual.Reward)
	if err := e.state.PutAccount(e.vault, vaultAcc); err != nil {
		return nil, err
	}
	if err := e.state.PutAccount(subject, subjectAcc); err != nil {
		return nil, err
	}
	persisted := accrual.Cursor
	if err := e.state.SetClaimCursor(subject, &persisted); err != nil {
		return nil, err
	}
	e.state.AppendEvent(newRewardsClaimedEvent(subject, accrual.Reward, accrual.FromDay, accrual.ToDay))
	e.telemetry.ObserveRewardsClaimed(accrual.Reward)
	return accrual.Reward, nil
}

// PendingRewards reports the reward a claim would pay right now, without
// mutating the claim cursor. The accrual pass can still persist start-day
// anchor checkpoints, so callers serialize it with mutating operations.
func (e *Engine) PendingRewards(subject [20]byte, now int64) (*big.Int, error) {
	if e == nil || e.state == nil || e.ledger == nil {
		return nil, ErrNilState
	}
	program, ok, err := e.state.RewardProgram()
	if err != nil {
		return nil, err
	}
	if !ok || !program.Configured() {
		return big.NewInt(0), nil
	}
	cursor, err := e.state.ClaimCursor(subject)
	if err != nil {
		return nil, err
	}
	accrual, err := e.ledger.Accrue(subject, program, cursor, DayIndex(now))
	if err != nil {
		if err == ErrRewardsNotStarted {
			return big.NewInt(0), nil
		}
		return nil, err
	}
	return accrual.Reward, nil
}

// Positions lists the subject's deposit history.
func (e *Engine) Positions(subject [20]byte) ([]*Position, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	count, err := e.state.PositionCount(subject)
	if err != nil {
		return nil, err
	}
	out := make([]*Position, 0, count)
	for i := uint64(0); i < count; i++ {
		pos, ok, err := e.state.Position(subject, i)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInvalidPosition
		}
		out = append(out, pos)
	}
	return out, nil
}

// PoolInfo returns a copy of the lifecycle/pool state.
func (e *Engine) PoolInfo() (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pool, err := e.state.LiquidityPool()
	if err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}

func (e *Engine) appendPosition(subject [20]byte, pos *Position) (uint64, error) {
	count, err := e.state.PositionCount(subject)
	if err != nil {
		return 0, err
	}
	if err := e.state.PutPosition(subject, count, pos); err != nil {
		return 0, err
	}
	if err := e.state.SetPositionCount(subject, count+1); err != nil {
		return 0, err
	}
	return count, nil
}

func (e *Engine) recordDelta(subject [20]byte, day uint64, delta *big.Int) error {
	startDay := uint64(0)
	if program, ok, err := e.state.RewardProgram(); err != nil {
		return err
	} else if ok {
		startDay = program.StartDay
	}
	return e.ledger.Record(subject, day, delta, startDay)
}

func (e *Engine) addTotalDeposited(subject [20]byte, delta *big.Int) error {
	total, err := e.state.TotalDeposited(subject)
	if err != nil {
		return err
	}
	if total == nil {
		total = big.NewInt(0)
	}
	next := new(big.Int).Add(total, delta)
	if next.Sign() < 0 {
		return ErrLedgerUnderflow
	}
	return e.state.SetTotalDeposited(subject, next)
}
