package liquidity

import (
	"math/big"

	"minepool/core/types"
)

type cpKey struct {
	space Space
	day   uint64
}

type boundsVal struct {
	first uint64
	last  uint64
}

type posKey struct {
	addr  [20]byte
	index uint64
}

// mockState is an in-memory State for engine and ledger tests.
type mockState struct {
	checkpoints map[cpKey]*Checkpoint
	bounds      map[Space]boundsVal
	positions   map[posKey]*Position
	counts      map[[20]byte]uint64
	deposited   map[[20]byte]*big.Int
	program     *RewardProgram
	cursors     map[[20]byte]*ClaimCursor
	pool        *Pool
	accounts    map[[20]byte]*types.Account
	events      []*types.Event
}

func newMockState() *mockState {
	return &mockState{
		checkpoints: make(map[cpKey]*Checkpoint),
		bounds:      make(map[Space]boundsVal),
		positions:   make(map[posKey]*Position),
		counts:      make(map[[20]byte]uint64),
		deposited:   make(map[[20]byte]*big.Int),
		cursors:     make(map[[20]byte]*ClaimCursor),
		accounts:    make(map[[20]byte]*types.Account),
	}
}

func (m *mockState) Checkpoint(space Space, day uint64) (*Checkpoint, bool, error) {
	cp, ok := m.checkpoints[cpKey{space, day}]
	if !ok {
		return nil, false, nil
	}
	return cp.Clone(), true, nil
}

func (m *mockState) PutCheckpoint(space Space, day uint64, cp *Checkpoint) error {
	m.checkpoints[cpKey{space, day}] = cp.Clone()
	return nil
}

func (m *mockState) CheckpointBounds(space Space) (uint64, uint64, error) {
	b := m.bounds[space]
	return b.first, b.last, nil
}

func (m *mockState) SetCheckpointBounds(space Space, first, last uint64) error {
	m.bounds[space] = boundsVal{first, last}
	return nil
}

func (m *mockState) PositionCount(addr [20]byte) (uint64, error) {
	return m.counts[addr], nil
}

func (m *mockState) SetPositionCount(addr [20]byte, count uint64) error {
	m.counts[addr] = count
	return nil
}

func (m *mockState) Position(addr [20]byte, index uint64) (*Position, bool, error) {
	pos, ok := m.positions[posKey{addr, index}]
	if !ok {
		return nil, false, nil
	}
	return pos.Clone(), true, nil
}

func (m *mockState) PutPosition(addr [20]byte, index uint64, pos *Position) error {
	m.positions[posKey{addr, index}] = pos.Clone()
	return nil
}

func (m *mockState) TotalDeposited(addr [20]byte) (*big.Int, error) {
	if total, ok := m.deposited[addr]; ok {
		return new(big.Int).Set(total), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) SetTotalDeposited(addr [20]byte, amount *big.Int) error {
	m.deposited[addr] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) RewardProgram() (*RewardProgram, bool, error) {
	if m.program == nil {
		return nil, false, nil
	}
	return m.program.Clone(), true, nil
}

func (m *mockState) SetRewardProgram(program *RewardProgram) error {
	m.program = program.Clone()
	return nil
}

func (m *mockState) ClaimCursor(addr [20]byte) (*ClaimCursor, error) {
	if cursor, ok := m.cursors[addr]; ok {
		clone := *cursor
		return &clone, nil
	}
	return &ClaimCursor{}, nil
}

func (m *mockState) SetClaimCursor(addr [20]byte, cursor *ClaimCursor) error {
	clone := *cursor
	m.cursors[addr] = &clone
	return nil
}

func (m *mockState) LiquidityPool() (*Pool, error) {
	if m.pool == nil {
		return (&Pool{}).Normalize(), nil
	}
	return m.pool.Clone(), nil
}

func (m *mockState) SetLiquidityPool(pool *Pool) error {
	m.pool = pool.Clone()
	return nil
}

func (m *mockState) GetAccount(addr [20]byte) (*types.Account, error) {
	if acc, ok := m.accounts[addr]; ok {
		return acc.Clone(), nil
	}
	return (&types.Account{}).Normalize(), nil
}

func (m *mockState) PutAccount(addr [20]byte, account *types.Account) error {
	m.accounts[addr] = account.Clone()
	return nil
}

func (m *mockState) AppendEvent(evt *types.Event) {
	m.events = append(m.events, evt)
}

// mockRegistry is an in-memory ClaimRegistry. setErr makes the debit fail,
// standing in for a paused claiming module.
type mockRegistry struct {
	claimable map[[20]byte]*big.Int
	setErr    error
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{claimable: make(map[[20]byte]*big.Int)}
}

func (r *mockRegistry) set(addr [20]byte, amount int64) {
	r.claimable[addr] = big.NewInt(amount)
}

func (r *mockRegistry) GetClaimableAmount(addr [20]byte) (*big.Int, error) {
	if amount, ok := r.claimable[addr]; ok {
		return new(big.Int).Set(amount), nil
	}
	return big.NewInt(0), nil
}

func (r *mockRegistry) SetClaimableAmount(addr [20]byte, amount *big.Int) error {
	if r.setErr != nil {
		return r.setErr
	}
	r.claimable[addr] = new(big.Int).Set(amount)
	return nil
}

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}
