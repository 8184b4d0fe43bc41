package liquidity

import (
	"errors"
	"math/big"
	"testing"
)

func testProgram(startDay, periodDays uint64, pool int64) *RewardProgram {
	return &RewardProgram{StartDay: startDay, PeriodDays: periodDays, TotalPool: big.NewInt(pool)}
}

func TestAccrueUnconfiguredProgramIsZero(t *testing.T) {
	ledger := NewLedger(newMockState())
	accrual, err := ledger.Accrue(addr(1), nil, nil, 200)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if accrual.Reward.Sign() != 0 {
		t.Fatalf("reward = %s, want 0", accrual.Reward)
	}
}

func TestAccrueRejectsBeforeStart(t *testing.T) {
	ledger := NewLedger(newMockState())
	program := testProgram(100, 10, 1000)

	for _, today := range []uint64{99, 100} {
		if _, err := ledger.Accrue(addr(1), program, nil, today); !errors.Is(err, ErrRewardsNotStarted) {
			t.Fatalf("today=%d: err = %v, want ErrRewardsNotStarted", today, err)
		}
	}
	if _, err := ledger.Accrue(addr(1), program, nil, 101); err != nil {
		t.Fatalf("today=101: %v", err)
	}
}

func TestAccrueSoleDepositor(t *testing.T) {
	state := newMockState()
	ledger := NewLedger(state)
	subject := addr(1)
	program := testProgram(100, 10, 1000)

	// Deposit before the window opens; the anchor mirrors it.
	if err := ledger.Record(subject, 99, big.NewInt(50), program.StartDay); err != nil {
		t.Fatalf("record: %v", err)
	}

	accrual, err := ledger.Accrue(subject, program, nil, 105)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	// Sole depositor earns the full daily reward for days 100..104.
	if accrual.Reward.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("reward = %s, want 500", accrual.Reward)
	}
	if accrual.FromDay != 100 || accrual.ToDay != 105 {
		t.Fatalf("window = [%d, %d), want [100, 105)", accrual.FromDay, accrual.ToDay)
	}
	if accrual.Cursor.LastClaimDay != 105 {
		t.Fatalf("cursor = %+v, want LastClaimDay 105", accrual.Cursor)
	}
}

func TestAccrueCapsAtProgramEnd(t *testing.T) {
	state := newMockState()
	ledger := NewLedger(state)
	subject := addr(1)
	program := testProgram(100, 10, 1000)

	if err := ledger.Record(subject, 99, big.NewInt(50), program.StartDay); err != nil {
		t.Fatalf("record: %v", err)
	}

	// Long after the window closed: only the 10 program days pay.
	accrual, err := ledger.Accrue(subject, program, nil, 500)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if accrual.Reward.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("reward = %s, want full pool 1000", accrual.Reward)
	}
	if accrual.ToDay != 110 {
		t.Fatalf("toDay = %d, want 110", accrual.ToDay)
	}
}

func TestAccrueIsIdempotentAndResumes(t *testing.T) {
	state := newMockState()
	ledger := NewLedger(state)
	subject := addr(1)
	program := testProgram(100, 10, 1000)

	if err := ledger.Record(subject, 99, big.NewInt(50), program.StartDay); err != nil {
		t.Fatalf("record: %v", err)
	}

	first, err := ledger.Accrue(subject, program, nil, 105)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	// Same day, cursor persisted: nothing more accrues.
	again, err := ledger.Accrue(subject, program, &first.Cursor, 105)
	if err != nil {
		t.Fatalf("accrue again: %v", err)
	}
	if again.Reward.Sign() != 0 {
		t.Fatalf("repeat reward = %s, want 0", again.Reward)
	}
	// Two days later only the new days pay.
	resumed, err := ledger.Accrue(subject, program, &first.Cursor, 107)
	if err != nil {
		t.Fatalf("accrue resumed: %v", err)
	}
	if resumed.Reward.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("resumed reward = %s, want 200", resumed.Reward)
	}
	if resumed.FromDay != 105 || resumed.ToDay != 107 {
		t.Fatalf("window = [%d, %d), want [105, 107)", resumed.FromDay, resumed.ToDay)
	}
}

func TestAccrueSplitsProportionally(t *testing.T) {
	state := newMockState()
	ledger := NewLedger(state)
	a, b := addr(1), addr(2)
	program := testProgram(100, 10, 1000)

	if err := ledger.Record(a, 99, big.NewInt(60), program.StartDay); err != nil {
		t.Fatalf("record a: %v", err)
	}
	if err := ledger.Record(b, 99, big.NewInt(40), program.StartDay); err != nil {
		t.Fatalf("record b: %v", err)
	}

	accrualA, err := ledger.Accrue(a, program, nil, 105)
	if err != nil {
		t.Fatalf("accrue a: %v", err)
	}
	accrualB, err := ledger.Accrue(b, program, nil, 105)
	if err != nil {
		t.Fatalf("accrue b: %v", err)
	}
	// 100/day split 60:40 over five days.
	if accrualA.Reward.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("a reward = %s, want 300", accrualA.Reward)
	}
	if accrualB.Reward.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("b reward = %s, want 200", accrualB.Reward)
	}
}

func TestAccrueReactsToMidWindowRemoval(t *testing.T) {
	state := newMockState()
	ledger := NewLedger(state)
	a, b := addr(1), addr(2)
	program := testProgram(100, 10, 1000)

	if err := ledger.Record(a, 99, big.NewInt(60), program.StartDay); err != nil {
		t.Fatalf("record a: %v", err)
	}
	if err := ledger.Record(b, 99, big.NewInt(40), program.StartDay); err != nil {
		t.Fatalf("record b: %v", err)
	}
	// B withdraws everything on day 103.
	if err := ledger.Record(b, 103, big.NewInt(-40), program.StartDay); err != nil {
		t.Fatalf("remove b: %v", err)
	}

	accrualA, err := ledger.Accrue(a, program, nil, 105)
	if err != nil {
		t.Fatalf("accrue a: %v", err)
	}
	// Days 100-102 pay 60/day, days 103-104 pay the whole 100/day.
	if accrualA.Reward.Cmp(big.NewInt(380)) != 0 {
		t.Fatalf("a reward = %s, want 380", accrualA.Reward)
	}

	accrualB, err := ledger.Accrue(b, program, nil, 105)
	if err != nil {
		t.Fatalf("accrue b: %v", err)
	}
	// B's recorded zero from day 103 on contributes nothing.
	if accrualB.Reward.Cmp(big.NewInt(120)) != 0 {
		t.Fatalf("b reward = %s, want 120", accrualB.Reward)
	}
}

func TestAccrueSkipsEmptyPoolDays(t *testing.T) {
	state := newMockState()
	ledger := NewLedger(state)
	subject := addr(1)
	program := testProgram(100, 10, 1000)

	if err := ledger.Record(subject, 99, big.NewInt(50), program.StartDay); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Everything leaves on day 102 and returns on day 104.
	if err := ledger.Record(subject, 102, big.NewInt(-50), program.StartDay); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := ledger.Record(subject, 104, big.NewInt(50), program.StartDay); err != nil {
		t.Fatalf("redeposit: %v", err)
	}

	accrual, err := ledger.Accrue(subject, program, nil, 106)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	// Days 100, 101 pay; 102, 103 are empty-pool days; 104, 105 pay again.
	if accrual.Reward.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("reward = %s, want 400", accrual.Reward)
	}
}

func TestAccrueMidWindowJoin(t *testing.T) {
	state := newMockState()
	ledger := NewLedger(state)
	a, b := addr(1), addr(2)
	// 120 over 2 days: 60/day.
	program := testProgram(100, 2, 120)

	// A deposits 2 on the start day, B deposits 1 a day later.
	if err := ledger.Record(a, 100, big.NewInt(2), program.StartDay); err != nil {
		t.Fatalf("record a: %v", err)
	}
	if err := ledger.Record(b, 101, big.NewInt(1), program.StartDay); err != nil {
		t.Fatalf("record b: %v", err)
	}

	accrualA, err := ledger.Accrue(a, program, nil, 102)
	if err != nil {
		t.Fatalf("accrue a: %v", err)
	}
	accrualB, err := ledger.Accrue(b, program, nil, 102)
	if err != nil {
		t.Fatalf("accrue b: %v", err)
	}
	// Day 100 pays A alone (60); day 101 splits 2:1 → 40 and 20.
	if accrualA.Reward.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("a reward = %s, want 100", accrualA.Reward)
	}
	if accrualB.Reward.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("b reward = %s, want 20", accrualB.Reward)
	}
}

func TestAccrueSkipsSubjectPreHistory(t *testing.T) {
	state := newMockState()
	ledger := NewLedger(state)
	early, late := addr(1), addr(2)
	program := testProgram(100, 10, 1000)

	if err := ledger.Record(early, 99, big.NewInt(50), program.StartDay); err != nil {
		t.Fatalf("record early: %v", err)
	}
	// The late subject first appears on day 103.
	if err := ledger.Record(late, 103, big.NewInt(50), program.StartDay); err != nil {
		t.Fatalf("record late: %v", err)
	}

	accrual, err := ledger.Accrue(late, program, nil, 105)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	// Days 100-102 predate the subject's history; days 103-104 split evenly.
	if accrual.Reward.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("reward = %s, want 100", accrual.Reward)
	}
}

func TestAccrueBackfillsPreProgramHistory(t *testing.T) {
	state := newMockState()
	ledger := NewLedger(state)
	subject := addr(1)

	// Deposit recorded while no program exists: no anchor is mirrored.
	if err := ledger.Record(subject, 50, big.NewInt(50), 0); err != nil {
		t.Fatalf("record: %v", err)
	}
	program := testProgram(100, 10, 1000)

	accrual, err := ledger.Accrue(subject, program, nil, 103)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if accrual.Reward.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("reward = %s, want 300", accrual.Reward)
	}
	// The pass wrote the missing anchors.
	for _, space := range []Space{SubjectSpace(subject), TotalSpace} {
		if _, ok, _ := state.Checkpoint(space, 100); !ok {
			t.Fatalf("anchor missing for %+v", space)
		}
	}
}

func TestAccrueTruncatesPerDay(t *testing.T) {
	state := newMockState()
	ledger := NewLedger(state)
	a, b := addr(1), addr(2)
	// 1000 / 7 days = 142 per day, truncated.
	program := testProgram(100, 7, 1000)

	if err := ledger.Record(a, 99, big.NewInt(1), program.StartDay); err != nil {
		t.Fatalf("record a: %v", err)
	}
	if err := ledger.Record(b, 99, big.NewInt(2), program.StartDay); err != nil {
		t.Fatalf("record b: %v", err)
	}

	accrualA, err := ledger.Accrue(a, program, nil, 102)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	// 142*1/3 = 47 per day, truncated, over two days.
	if accrualA.Reward.Cmp(big.NewInt(94)) != 0 {
		t.Fatalf("reward = %s, want 94", accrualA.Reward)
	}
}
