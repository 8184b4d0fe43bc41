package liquidity

import "errors"

var (
	ErrNilState               = errors.New("liquidity: state not configured")
	ErrZeroAddress            = errors.New("liquidity: zero address")
	ErrInvalidAmount          = errors.New("liquidity: amount must be positive")
	ErrInvalidPosition        = errors.New("liquidity: position index out of range")
	ErrPositionRemoved        = errors.New("liquidity: position already removed")
	ErrLedgerUnderflow        = errors.New("liquidity: checkpoint amount underflow")
	ErrProgramNotConfigured   = errors.New("liquidity: reward program not configured")
	ErrProgramConfigured      = errors.New("liquidity: reward program already configured")
	ErrRewardsNotStarted      = errors.New("liquidity: reward program not started")
	ErrNoRewards              = errors.New("liquidity: nothing to claim")
	ErrNotListed              = errors.New("liquidity: pool not listed")
	ErrAlreadyListed          = errors.New("liquidity: pool already listed")
	ErrNothingToList          = errors.New("liquidity: no deposits to list")
	ErrWithdrawLocked         = errors.New("liquidity: withdraw locked for 7 days after listing")
	ErrInsufficientAllocation = errors.New("liquidity: insufficient claimable allocation")
	ErrInsufficientBalance    = errors.New("liquidity: insufficient balance")
	ErrOracleUnavailable      = errors.New("liquidity: price oracle unavailable")
	ErrExchangeUnavailable    = errors.New("liquidity: exchange unavailable")
)
