package state

import (
	"math/big"

	"minepool/core/types"
)

var accountPrefix = []byte("account/")

type storedAccount struct {
	Nonce        uint64
	BalanceToken *big.Int
	BalanceETH   *big.Int
}

// GetAccount loads an account, returning a zero-balance account when the
// address has never been touched.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	var stored storedAccount
	ok, err := m.kvGet(storageKey(accountPrefix, addr[:]), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return (&types.Account{}).Normalize(), nil
	}
	return (&types.Account{
		Nonce:        stored.Nonce,
		BalanceToken: stored.BalanceToken,
		BalanceETH:   stored.BalanceETH,
	}).Normalize(), nil
}

// PutAccount persists an account.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	account = account.Normalize()
	return m.kvPut(storageKey(accountPrefix, addr[:]), &storedAccount{
		Nonce:        account.Nonce,
		BalanceToken: account.BalanceToken,
		BalanceETH:   account.BalanceETH,
	})
}
