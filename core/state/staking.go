package state

import (
	"fmt"
	"math/big"

	"minepool/native/staking"
)

var (
	stakeLockPrefix  = []byte("staking/lock/")
	stakeLocksPrefix = []byte("staking/locks/")
)

type storedStakeLock struct {
	Amount    *big.Int
	Tier      uint64
	StakedAt  uint64
	UnlockAt  uint64
	Withdrawn bool
}

// StakeLockCount returns the number of locks recorded for the subject.
func (m *Manager) StakeLockCount(addr [20]byte) (uint64, error) {
	var count uint64
	ok, err := m.kvGet(storageKey(stakeLocksPrefix, addr[:]), &count)
	if err != nil || !ok {
		return 0, err
	}
	return count, nil
}

// SetStakeLockCount persists the subject's lock count.
func (m *Manager) SetStakeLockCount(addr [20]byte, count uint64) error {
	return m.kvPut(storageKey(stakeLocksPrefix, addr[:]), count)
}

// StakeLock loads one lock by index.
func (m *Manager) StakeLock(addr [20]byte, index uint64) (*staking.StakeLock, bool, error) {
	var stored storedStakeLock
	ok, err := m.kvGet(storageKey(stakeLockPrefix, addr[:], be64(index)), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	lock := &staking.StakeLock{
		Amount:    stored.Amount,
		Tier:      stored.Tier,
		StakedAt:  int64(stored.StakedAt),
		UnlockAt:  int64(stored.UnlockAt),
		Withdrawn: stored.Withdrawn,
	}
	if lock.Amount == nil {
		lock.Amount = big.NewInt(0)
	}
	return lock, true, nil
}

// PutStakeLock persists one lock.
func (m *Manager) PutStakeLock(addr [20]byte, index uint64, lock *staking.StakeLock) error {
	if lock == nil {
		return fmt.Errorf("state: nil stake lock")
	}
	clone := lock.Clone()
	stakedAt := uint64(0)
	if clone.StakedAt > 0 {
		stakedAt = uint64(clone.StakedAt)
	}
	unlockAt := uint64(0)
	if clone.UnlockAt > 0 {
		unlockAt = uint64(clone.UnlockAt)
	}
	return m.kvPut(storageKey(stakeLockPrefix, addr[:], be64(index)), &storedStakeLock{
		Amount:    clone.Amount,
		Tier:      clone.Tier,
		StakedAt:  stakedAt,
		UnlockAt:  unlockAt,
		Withdrawn: clone.Withdrawn,
	})
}
