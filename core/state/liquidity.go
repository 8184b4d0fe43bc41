package state

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"minepool/native/liquidity"
)

var (
	liqCheckpointPrefix = []byte("liquidity/checkpoint/")
	liqBoundsPrefix     = []byte("liquidity/bounds/")
	liqPositionPrefix   = []byte("liquidity/position/")
	liqPositionsPrefix  = []byte("liquidity/positions/")
	liqDepositedPrefix  = []byte("liquidity/deposited/")
	liqCursorPrefix     = []byte("liquidity/cursor/")
	liqProgramKey       = []byte("liquidity/program")
	liqPoolKey          = []byte("liquidity/pool")

	totalSpaceTag = []byte("total")
)

func be64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func spaceTag(space liquidity.Space) []byte {
	if space.Total {
		return totalSpaceTag
	}
	return space.Subject[:]
}

type storedCheckpoint struct {
	Amount *big.Int
	Prev   uint64
	Next   uint64
}

// Checkpoint loads the checkpoint recorded for the space on the given day.
// Absence (ok == false) means the day was never recorded, which is distinct
// from a recorded zero amount.
func (m *Manager) Checkpoint(space liquidity.Space, day uint64) (*liquidity.Checkpoint, bool, error) {
	var stored storedCheckpoint
	ok, err := m.kvGet(storageKey(liqCheckpointPrefix, spaceTag(space), be64(day)), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	cp := &liquidity.Checkpoint{Amount: stored.Amount, Prev: stored.Prev, Next: stored.Next}
	if cp.Amount == nil {
		cp.Amount = big.NewInt(0)
	}
	return cp, true, nil
}

// PutCheckpoint persists a checkpoint.
func (m *Manager) PutCheckpoint(space liquidity.Space, day uint64, cp *liquidity.Checkpoint) error {
	if cp == nil {
		return fmt.Errorf("state: nil checkpoint")
	}
	amount := cp.Amount
	if amount == nil {
		amount = big.NewInt(0)
	}
	return m.kvPut(storageKey(liqCheckpointPrefix, spaceTag(space), be64(day)), &storedCheckpoint{
		Amount: amount,
		Prev:   cp.Prev,
		Next:   cp.Next,
	})
}

type storedBounds struct {
	First uint64
	Last  uint64
}

// CheckpointBounds returns the first and last recorded day for the space.
func (m *Manager) CheckpointBounds(space liquidity.Space) (uint64, uint64, error) {
	var stored storedBounds
	ok, err := m.kvGet(storageKey(liqBoundsPrefix, spaceTag(space)), &stored)
	if err != nil || !ok {
		return 0, 0, err
	}
	return stored.First, stored.Last, nil
}

// SetCheckpointBounds persists the space cursors.
func (m *Manager) SetCheckpointBounds(space liquidity.Space, first, last uint64) error {
	return m.kvPut(storageKey(liqBoundsPrefix, spaceTag(space)), &storedBounds{First: first, Last: last})
}

type storedPosition struct {
	Amount         *big.Int
	DepositedAt    uint64
	LiquidityShare *big.Int
	Removed        bool
}

// PositionCount returns the number of positions recorded for the subject.
func (m *Manager) PositionCount(addr [20]byte) (uint64, error) {
	var count uint64
	ok, err := m.kvGet(storageKey(liqPositionsPrefix, addr[:]), &count)
	if err != nil || !ok {
		return 0, err
	}
	return count, nil
}

// SetPositionCount persists the subject's position count.
func (m *Manager) SetPositionCount(addr [20]byte, count uint64) error {
	return m.kvPut(storageKey(liqPositionsPrefix, addr[:]), count)
}

// Position loads one position by index.
func (m *Manager) Position(addr [20]byte, index uint64) (*liquidity.Position, bool, error) {
	var stored storedPosition
	ok, err := m.kvGet(storageKey(liqPositionPrefix, addr[:], be64(index)), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	pos := &liquidity.Position{
		Amount:         stored.Amount,
		DepositedAt:    int64(stored.DepositedAt),
		LiquidityShare: stored.LiquidityShare,
		Removed:        stored.Removed,
	}
	if pos.Amount == nil {
		pos.Amount = big.NewInt(0)
	}
	if pos.LiquidityShare == nil {
		pos.LiquidityShare = big.NewInt(0)
	}
	return pos, true, nil
}

// PutPosition persists one position.
func (m *Manager) PutPosition(addr [20]byte, index uint64, pos *liquidity.Position) error {
	if pos == nil {
		return fmt.Errorf("state: nil position")
	}
	clone := pos.Clone()
	depositedAt := uint64(0)
	if pos.DepositedAt > 0 {
		depositedAt = uint64(pos.DepositedAt)
	}
	return m.kvPut(storageKey(liqPositionPrefix, addr[:], be64(index)), &storedPosition{
		Amount:         clone.Amount,
		DepositedAt:    depositedAt,
		LiquidityShare: clone.LiquidityShare,
		Removed:        clone.Removed,
	})
}

// TotalDeposited returns the subject's live deposited total.
func (m *Manager) TotalDeposited(addr [20]byte) (*big.Int, error) {
	total := new(big.Int)
	ok, err := m.kvGet(storageKey(liqDepositedPrefix, addr[:]), total)
	if err != nil || !ok {
		return big.NewInt(0), err
	}
	return total, nil
}

// SetTotalDeposited persists the subject's live deposited total.
func (m *Manager) SetTotalDeposited(addr [20]byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return m.kvPut(storageKey(liqDepositedPrefix, addr[:]), amount)
}

type storedProgram struct {
	StartDay   uint64
	PeriodDays uint64
	TotalPool  *big.Int
}

// RewardProgram loads the singleton reward window configuration.
func (m *Manager) RewardProgram() (*liquidity.RewardProgram, bool, error) {
	var stored storedProgram
	ok, err := m.kvGet(storageKey(liqProgramKey), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	program := &liquidity.RewardProgram{StartDay: stored.StartDay, PeriodDays: stored.PeriodDays, TotalPool: stored.TotalPool}
	if program.TotalPool == nil {
		program.TotalPool = big.NewInt(0)
	}
	return program, true, nil
}

// SetRewardProgram persists the reward window configuration.
func (m *Manager) SetRewardProgram(program *liquidity.RewardProgram) error {
	if program == nil {
		return fmt.Errorf("state: nil reward program")
	}
	clone := program.Clone()
	return m.kvPut(storageKey(liqProgramKey), &storedProgram{
		StartDay:   clone.StartDay,
		PeriodDays: clone.PeriodDays,
		TotalPool:  clone.TotalPool,
	})
}

type storedCursor struct {
	LastClaimDay           uint64
	LastCheckpointDay      uint64
	LastTotalCheckpointDay uint64
}

// ClaimCursor loads the subject's accrual resumption cursor.
func (m *Manager) ClaimCursor(addr [20]byte) (*liquidity.ClaimCursor, error) {
	var stored storedCursor
	ok, err := m.kvGet(storageKey(liqCursorPrefix, addr[:]), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &liquidity.ClaimCursor{}, nil
	}
	return &liquidity.ClaimCursor{
		LastClaimDay:           stored.LastClaimDay,
		LastCheckpointDay:      stored.LastCheckpointDay,
		LastTotalCheckpointDay: stored.LastTotalCheckpointDay,
	}, nil
}

// SetClaimCursor persists the subject's accrual resumption cursor.
func (m *Manager) SetClaimCursor(addr [20]byte, cursor *liquidity.ClaimCursor) error {
	if cursor == nil {
		return fmt.Errorf("state: nil claim cursor")
	}
	return m.kvPut(storageKey(liqCursorPrefix, addr[:]), &storedCursor{
		LastClaimDay:           cursor.LastClaimDay,
		LastCheckpointDay:      cursor.LastCheckpointDay,
		LastTotalCheckpointDay: cursor.LastTotalCheckpointDay,
	})
}

type storedPool struct {
	Listed         bool
	ListedAt       uint64
	ListedDay      uint64
	EthTotal       *big.Int
	ListedEthTotal *big.Int
	MintedShares   *big.Int
}

// LiquidityPool loads the listing lifecycle state, zero-valued when unset.
func (m *Manager) LiquidityPool() (*liquidity.Pool, error) {
	var stored storedPool
	ok, err := m.kvGet(storageKey(liqPoolKey), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return (&liquidity.Pool{}).Normalize(), nil
	}
	pool := &liquidity.Pool{
		Listed:         stored.Listed,
		ListedAt:       int64(stored.ListedAt),
		ListedDay:      stored.ListedDay,
		EthTotal:       stored.EthTotal,
		ListedEthTotal: stored.ListedEthTotal,
		MintedShares:   stored.MintedShares,
	}
	return pool.Normalize(), nil
}

// SetLiquidityPool persists the listing lifecycle state.
func (m *Manager) SetLiquidityPool(pool *liquidity.Pool) error {
	if pool == nil {
		return fmt.Errorf("state: nil pool")
	}
	clone := pool.Clone()
	listedAt := uint64(0)
	if clone.ListedAt > 0 {
		listedAt = uint64(clone.ListedAt)
	}
	return m.kvPut(storageKey(liqPoolKey), &storedPool{
		Listed:         clone.Listed,
		ListedAt:       listedAt,
		ListedDay:      clone.ListedDay,
		EthTotal:       clone.EthTotal,
		ListedEthTotal: clone.ListedEthTotal,
		MintedShares:   clone.MintedShares,
	})
}
