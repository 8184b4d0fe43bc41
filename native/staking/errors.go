package staking

import "errors"

var (
	ErrNilState            = errors.New("staking: state not configured")
	ErrZeroAddress         = errors.New("staking: zero address")
	ErrInvalidAmount       = errors.New("staking: amount must be positive")
	ErrInvalidTier         = errors.New("staking: tier index out of range")
	ErrInvalidLock         = errors.New("staking: lock index out of range")
	ErrStakeLocked         = errors.New("staking: lock period not elapsed")
	ErrStakeWithdrawn      = errors.New("staking: lock already withdrawn")
	ErrInsufficientBalance = errors.New("staking: insufficient balance")
)
