package types

import "math/big"

// Account holds the balances tracked by the settlement ledger: the presale
// token (wei denominated) and the ETH collateral used for liquidity mining.
type Account struct {
	Nonce        uint64   `json:"nonce"`
	BalanceToken *big.Int `json:"balanceToken"`
	BalanceETH   *big.Int `json:"balanceEth"`
}

// Normalize replaces nil balances with zero so callers can do arithmetic
// without nil checks.
func (a *Account) Normalize() *Account {
	if a == nil {
		return &Account{BalanceToken: big.NewInt(0), BalanceETH: big.NewInt(0)}
	}
	if a.BalanceToken == nil {
		a.BalanceToken = big.NewInt(0)
	}
	if a.BalanceETH == nil {
		a.BalanceETH = big.NewInt(0)
	}
	return a
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return (&Account{}).Normalize()
	}
	clone := &Account{Nonce: a.Nonce, BalanceToken: big.NewInt(0), BalanceETH: big.NewInt(0)}
	if a.BalanceToken != nil {
		clone.BalanceToken = new(big.Int).Set(a.BalanceToken)
	}
	if a.BalanceETH != nil {
		clone.BalanceETH = new(big.Int).Set(a.BalanceETH)
	}
	return clone
}
