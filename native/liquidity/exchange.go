package liquidity

import (
	"math/big"
	"sync"
)

// Exchange is the narrow AMM contract the engine drives. A failure from any
// call fails the whole operation; the engine never applies partial state
// around a failed exchange call.
type Exchange interface {
	// Reserves reports the current token and ETH reserves of the pair.
	Reserves() (token, eth *big.Int, err error)
	// Quote prices amountA of reserveA's asset in reserveB's asset.
	Quote(amountA, reserveA, reserveB *big.Int) (*big.Int, error)
	// AddLiquidity supplies both assets and reports the consumed amounts and
	// minted share.
	AddLiquidity(tokenAmount, ethAmount *big.Int) (usedToken, usedEth, minted *big.Int, err error)
	// RemoveLiquidity burns a share and returns the withdrawn assets.
	RemoveLiquidity(share *big.Int) (tokenOut, ethOut *big.Int, err error)
}

// DevExchange is a constant-product pair used by dev mode and tests. It
// mirrors the external AMM's observable behaviour closely enough to exercise
// every engine path without a live pair.
type DevExchange struct {
	mu           sync.Mutex
	tokenReserve *big.Int
	ethReserve   *big.Int
	totalShares  *big.Int
}

// NewDevExchange seeds the pair with initial reserves. The seed liquidity
// counts as outstanding shares (one share per ETH), so later minters only
// ever own their proportional slice.
func NewDevExchange(tokenReserve, ethReserve *big.Int) *DevExchange {
	return &DevExchange{
		tokenReserve: copyBigInt(tokenReserve),
		ethReserve:   copyBigInt(ethReserve),
		totalShares:  copyBigInt(ethReserve),
	}
}

func (x *DevExchange) Reserves() (*big.Int, *big.Int, error) {
	if x == nil {
		return nil, nil, ErrExchangeUnavailable
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	return new(big.Int).Set(x.tokenReserve), new(big.Int).Set(x.ethReserve), nil
}

func (x *DevExchange) Quote(amountA, reserveA, reserveB *big.Int) (*big.Int, error) {
	if x == nil {
		return nil, ErrExchangeUnavailable
	}
	if amountA == nil || amountA.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if reserveA == nil || reserveB == nil || reserveA.Sign() <= 0 || reserveB.Sign() <= 0 {
		return nil, ErrExchangeUnavailable
	}
	out := new(big.Int).Mul(amountA, reserveB)
	return out.Quo(out, reserveA), nil
}

func (x *DevExchange) AddLiquidity(tokenAmount, ethAmount *big.Int) (*big.Int, *big.Int, *big.Int, error) {
	if x == nil {
		return nil, nil, nil, ErrExchangeUnavailable
	}
	if tokenAmount == nil || ethAmount == nil || tokenAmount.Sign() <= 0 || ethAmount.Sign() <= 0 {
		return nil, nil, nil, ErrInvalidAmount
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	var minted *big.Int
	if x.totalShares.Sign() == 0 {
		// Bootstrap: shares equal the supplied ETH.
		minted = new(big.Int).Set(ethAmount)
	} else {
		minted = new(big.Int).Mul(ethAmount, x.totalShares)
		minted.Quo(minted, x.ethReserve)
	}
	if minted.Sign() <= 0 {
		return nil, nil, nil, ErrInvalidAmount
	}
	x.tokenReserve.Add(x.tokenReserve, tokenAmount)
	x.ethReserve.Add(x.ethReserve, ethAmount)
	x.totalShares.Add(x.totalShares, minted)
	return new(big.Int).Set(tokenAmount), new(big.Int).Set(ethAmount), minted, nil
}

func (x *DevExchange) RemoveLiquidity(share *big.Int) (*big.Int, *big.Int, error) {
	if x == nil {
		return nil, nil, ErrExchangeUnavailable
	}
	if share == nil || share.Sign() <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.totalShares.Sign() == 0 || share.Cmp(x.totalShares) > 0 {
		return nil, nil, ErrExchangeUnavailable
	}
	tokenOut := new(big.Int).Mul(x.tokenReserve, share)
	tokenOut.Quo(tokenOut, x.totalShares)
	ethOut := new(big.Int).Mul(x.ethReserve, share)
	ethOut.Quo(ethOut, x.totalShares)
	x.tokenReserve.Sub(x.tokenReserve, tokenOut)
	x.ethReserve.Sub(x.ethReserve, ethOut)
	x.totalShares.Sub(x.totalShares, share)
	return tokenOut, ethOut, nil
}
