package claiming

import "errors"

var (
	ErrNilState            = errors.New("claiming: state not configured")
	ErrZeroAddress         = errors.New("claiming: zero address")
	ErrInvalidAmount       = errors.New("claiming: amount must be positive")
	ErrNoAllocation        = errors.New("claiming: no allocation")
	ErrNothingToClaim      = errors.New("claiming: nothing vested to claim")
	ErrExceedsVested       = errors.New("claiming: amount exceeds vested balance")
	ErrInsufficientBalance = errors.New("claiming: vault balance insufficient")
	ErrNoStaker            = errors.New("claiming: staking module not wired")
)
