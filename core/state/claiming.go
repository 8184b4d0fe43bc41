package state

import (
	"fmt"
	"math/big"

	"minepool/native/claiming"
)

var allocationPrefix = []byte("claiming/allocation/")

type storedAllocation struct {
	Total   *big.Int
	Claimed *big.Int
}

// Allocation loads the subject's presale allocation.
func (m *Manager) Allocation(addr [20]byte) (*claiming.Allocation, bool, error) {
	var stored storedAllocation
	ok, err := m.kvGet(storageKey(allocationPrefix, addr[:]), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return (&claiming.Allocation{Total: stored.Total, Claimed: stored.Claimed}).Normalize(), true, nil
}

// PutAllocation persists the subject's presale allocation.
func (m *Manager) PutAllocation(addr [20]byte, alloc *claiming.Allocation) error {
	if alloc == nil {
		return fmt.Errorf("state: nil allocation")
	}
	clone := alloc.Clone()
	return m.kvPut(storageKey(allocationPrefix, addr[:]), &storedAllocation{
		Total:   clone.Total,
		Claimed: clone.Claimed,
	})
}
