package staking

import (
	"errors"
	"math/big"
	"testing"

	"minepool/core/types"
	nativecommon "minepool/native/common"
)

var stakingVault = testAddr(0xAA)

func testAddr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

type mockState struct {
	counts   map[[20]byte]uint64
	locks    map[[20]byte]map[uint64]*StakeLock
	accounts map[[20]byte]*types.Account
	events   []*types.Event
}

func newMockState() *mockState {
	return &mockState{
		counts:   make(map[[20]byte]uint64),
		locks:    make(map[[20]byte]map[uint64]*StakeLock),
		accounts: make(map[[20]byte]*types.Account),
	}
}

func (m *mockState) StakeLockCount(addr [20]byte) (uint64, error) { return m.counts[addr], nil }

func (m *mockState) SetStakeLockCount(addr [20]byte, count uint64) error {
	m.counts[addr] = count
	return nil
}

func (m *mockState) StakeLock(addr [20]byte, index uint64) (*StakeLock, bool, error) {
	lock, ok := m.locks[addr][index]
	if !ok {
		return nil, false, nil
	}
	return lock.Clone(), true, nil
}

func (m *mockState) PutStakeLock(addr [20]byte, index uint64, lock *StakeLock) error {
	if m.locks[addr] == nil {
		m.locks[addr] = make(map[uint64]*StakeLock)
	}
	m.locks[addr][index] = lock.Clone()
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

func (m *mockState) AppendEvent(evt *types.Event) { m.events = append(m.events, evt) }

func (m *mockState) fundToken(addr [20]byte, amount int64) {
	acc, _ := m.GetAccount(addr)
	acc.BalanceToken = big.NewInt(amount)
	_ = m.PutAccount(addr, acc)
}

func (m *mockState) tokenBalance(addr [20]byte) *big.Int {
	acc, _ := m.GetAccount(addr)
	return acc.Normalize().BalanceToken
}

func newTestEngine(state *mockState) *Engine {
	engine := NewEngine(stakingVault, nil)
	engine.SetState(state)
	return engine
}

func TestTierReward(t *testing.T) {
	cases := []struct {
		tier   Tier
		amount int64
		want   int64
	}{
		// 10000 at 6% over 30 days: 10000*600*30/3650000 = 49.
		{Tier{LockDays: 30, APYBps: 600}, 10_000, 49},
		// 10000 at 24% over a full year pays the whole APY.
		{Tier{LockDays: 365, APYBps: 2400}, 10_000, 2400},
		{Tier{LockDays: 90, APYBps: 1200}, 10_000, 295},
		{Tier{LockDays: 30, APYBps: 600}, 0, 0},
	}
	for _, tc := range cases {
		got := tc.tier.Reward(big.NewInt(tc.amount))
		if got.Cmp(big.NewInt(tc.want)) != 0 {
			t.Errorf("Reward(%d days, %d bps, %d) = %s, want %d", tc.tier.LockDays, tc.tier.APYBps, tc.amount, got, tc.want)
		}
	}
}

func TestStakeOpensLock(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	subject := testAddr(1)
	state.fundToken(subject, 10_000)

	index, err := engine.Stake(subject, big.NewInt(4000), 1, 1000)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	if index != 0 {
		t.Fatalf("index = %d, want 0", index)
	}
	if got := state.tokenBalance(subject); got.Cmp(big.NewInt(6000)) != 0 {
		t.Fatalf("subject balance = %s, want 6000", got)
	}
	if got := state.tokenBalance(stakingVault); got.Cmp(big.NewInt(4000)) != 0 {
		t.Fatalf("vault balance = %s, want 4000", got)
	}
	lock, ok, _ := state.StakeLock(subject, 0)
	if !ok {
		t.Fatal("lock missing")
	}
	if lock.UnlockAt != 1000+90*24*60*60 {
		t.Fatalf("unlockAt = %d", lock.UnlockAt)
	}
	if len(state.events) != 1 || state.events[0].Type != EventTypeStaked {
		t.Fatalf("events = %+v", state.events)
	}
}

func TestStakeValidation(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	subject := testAddr(1)
	state.fundToken(subject, 100)

	if _, err := engine.Stake([20]byte{}, big.NewInt(1), 0, 0); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("zero address: %v", err)
	}
	if _, err := engine.Stake(subject, big.NewInt(0), 0, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount: %v", err)
	}
	if _, err := engine.Stake(subject, big.NewInt(1), 9, 0); !errors.Is(err, ErrInvalidTier) {
		t.Fatalf("bad tier: %v", err)
	}
	if _, err := engine.Stake(subject, big.NewInt(200), 0, 0); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("thin balance: %v", err)
	}
}

func TestUnstakePaysPrincipalPlusReward(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	subject := testAddr(1)
	state.fundToken(subject, 10_000)
	// Rewards come from the prefunded vault.
	state.fundToken(stakingVault, 1000)

	index, err := engine.Stake(subject, big.NewInt(10_000), 0, 0)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}

	unlockAt := int64(30 * 24 * 60 * 60)
	if _, err := engine.Unstake(subject, index, unlockAt-1); !errors.Is(err, ErrStakeLocked) {
		t.Fatalf("early unstake: %v", err)
	}
	payout, err := engine.Unstake(subject, index, unlockAt)
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	// 10000 principal + 49 tier reward.
	if payout.Cmp(big.NewInt(10_049)) != 0 {
		t.Fatalf("payout = %s, want 10049", payout)
	}
	if got := state.tokenBalance(subject); got.Cmp(big.NewInt(10_049)) != 0 {
		t.Fatalf("subject balance = %s", got)
	}
	if _, err := engine.Unstake(subject, index, unlockAt+1); !errors.Is(err, ErrStakeWithdrawn) {
		t.Fatalf("double unstake: %v", err)
	}
}

func TestUnstakeUnknownLock(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	if _, err := engine.Unstake(testAddr(1), 3, 0); !errors.Is(err, ErrInvalidLock) {
		t.Fatalf("err = %v, want ErrInvalidLock", err)
	}
}

func TestUnstakeLockBeyondCurrentLadder(t *testing.T) {
	state := newMockState()
	engine := NewEngine(stakingVault, []Tier{{LockDays: 30, APYBps: 600}})
	engine.SetState(state)
	subject := testAddr(1)
	state.fundToken(stakingVault, 10_000)

	// A lock persisted under a longer ladder than the engine now carries.
	_ = state.PutStakeLock(subject, 0, &StakeLock{
		Amount: big.NewInt(1000),
		Tier:   3,
	})
	_ = state.SetStakeLockCount(subject, 1)

	if _, err := engine.Unstake(subject, 0, 1); !errors.Is(err, ErrInvalidTier) {
		t.Fatalf("err = %v, want ErrInvalidTier", err)
	}
	if bal := state.tokenBalance(subject); bal.Sign() != 0 {
		t.Fatalf("subject balance = %s, want 0", bal)
	}
}

func TestBondVestedSkipsWallet(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	subject := testAddr(1)
	// Principal already sits in the vault; the subject's wallet is empty.
	state.fundToken(stakingVault, 5000)

	if err := engine.BondVested(subject, big.NewInt(5000), 3, 100); err != nil {
		t.Fatalf("bond: %v", err)
	}
	if got := state.tokenBalance(subject); got.Sign() != 0 {
		t.Fatalf("subject balance = %s, want untouched 0", got)
	}
	lock, ok, _ := state.StakeLock(subject, 0)
	if !ok || lock.Amount.Cmp(big.NewInt(5000)) != 0 || lock.Tier != 3 {
		t.Fatalf("lock = %+v", lock)
	}
}

func TestLocksListsHistory(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	subject := testAddr(1)
	state.fundToken(subject, 1000)

	for i := 0; i < 3; i++ {
		if _, err := engine.Stake(subject, big.NewInt(100), 0, int64(i)); err != nil {
			t.Fatalf("stake %d: %v", i, err)
		}
	}
	locks, err := engine.Locks(subject)
	if err != nil {
		t.Fatalf("locks: %v", err)
	}
	if len(locks) != 3 {
		t.Fatalf("len = %d, want 3", len(locks))
	}
	for i, lock := range locks {
		if lock.StakedAt != int64(i) {
			t.Fatalf("lock %d stakedAt = %d", i, lock.StakedAt)
		}
	}
}

func TestStakePaused(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	engine.SetPauses(nativecommon.PauseSet{ModuleName: true})
	if _, err := engine.Stake(testAddr(1), big.NewInt(1), 0, 0); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("err = %v, want ErrModulePaused", err)
	}
}
