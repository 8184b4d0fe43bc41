package liquidity

import (
	"errors"
	"math/big"
)

// ErrStaleDay guards the ledger against a clock that moved backwards; every
// recorded day must be >= the space's last recorded day.
var ErrStaleDay = errors.New("liquidity: day precedes last checkpoint")

// LedgerState is the slice of state the checkpoint ledger reads and writes.
// Recorded-ness is expressed through the ok return of Checkpoint: an absent
// day defers to the caller's last resolved day, while a present zero-amount
// checkpoint is a genuine zero balance.
type LedgerState interface {
	Checkpoint(space Space, day uint64) (*Checkpoint, bool, error)
	PutCheckpoint(space Space, day uint64, cp *Checkpoint) error
	// CheckpointBounds returns the first and last recorded day for the
	// space; both are zero when the space has never been touched.
	CheckpointBounds(space Space) (first, last uint64, err error)
	SetCheckpointBounds(space Space, first, last uint64) error
}

// Ledger maintains the sparse per-day checkpoint chains. Each space (one per
// subject plus the pool-wide total) carries its own first/last cursors, so a
// single mutation always touches two independent chains.
type Ledger struct {
	state LedgerState
}

// NewLedger binds the ledger to its backing state.
func NewLedger(state LedgerState) *Ledger {
	return &Ledger{state: state}
}

// Record applies the signed delta to both the subject's series and the total
// series for the given day. startDay is the reward program anchor (zero when
// the program is not configured yet); deposits landing on or before it keep
// the anchor slot in sync. Both series are staged before either is written,
// so a rejection on one side leaves the other untouched.
func (l *Ledger) Record(subject [20]byte, day uint64, delta *big.Int, startDay uint64) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	subjectStage, err := l.stage(SubjectSpace(subject), day, delta, startDay)
	if err != nil {
		return err
	}
	totalStage, err := l.stage(TotalSpace, day, delta, startDay)
	if err != nil {
		return err
	}
	if err := l.commit(subjectStage); err != nil {
		return err
	}
	return l.commit(totalStage)
}

// stagedRecord holds one space's validated mutation before any write lands.
type stagedRecord struct {
	space     Space
	day       uint64
	first     uint64
	last      uint64
	cp        *Checkpoint
	linked    *Checkpoint
	linkedDay uint64
	anchorDay uint64
}

func (l *Ledger) stage(space Space, day uint64, delta *big.Int, startDay uint64) (*stagedRecord, error) {
	first, last, err := l.state.CheckpointBounds(space)
	if err != nil {
		return nil, err
	}
	st := &stagedRecord{space: space, day: day, first: first, last: last}
	switch {
	case last == 0:
		// First ever touch for this space.
		st.cp = &Checkpoint{Amount: big.NewInt(0)}
		st.first, st.last = day, day
	case day == last:
		existing, ok, err := l.state.Checkpoint(space, day)
		if err != nil {
			return nil, err
		}
		if !ok {
			existing = &Checkpoint{Amount: big.NewInt(0)}
		}
		st.cp = existing.Clone()
	case day > last:
		// Carry the last known amount forward and link the chain.
		prev, ok, err := l.state.Checkpoint(space, last)
		if err != nil {
			return nil, err
		}
		if !ok {
			prev = &Checkpoint{Amount: big.NewInt(0)}
		}
		st.cp = &Checkpoint{Amount: copyBigInt(prev.Amount), Prev: last}
		st.linked = prev.Clone()
		st.linked.Next = day
		st.linkedDay = last
		st.last = day
	default:
		return nil, ErrStaleDay
	}
	amount := new(big.Int).Add(copyBigInt(st.cp.Amount), delta)
	if amount.Sign() < 0 {
		return nil, ErrLedgerUnderflow
	}
	st.cp.Amount = amount
	// While deposits precede the program start, the anchor slot mirrors the
	// latest state so the accrual integral has a day-zero reading.
	if startDay != 0 && day < startDay {
		st.anchorDay = startDay
	}
	return st, nil
}

func (l *Ledger) commit(st *stagedRecord) error {
	if st.linked != nil {
		if err := l.state.PutCheckpoint(st.space, st.linkedDay, st.linked); err != nil {
			return err
		}
	}
	if err := l.state.PutCheckpoint(st.space, st.day, st.cp); err != nil {
		return err
	}
	if err := l.state.SetCheckpointBounds(st.space, st.first, st.last); err != nil {
		return err
	}
	if st.anchorDay != 0 {
		return l.state.PutCheckpoint(st.space, st.anchorDay, st.cp.Clone())
	}
	return nil
}

// EffectiveAmount resolves the cumulative amount for a space on a day. When
// the day itself is unrecorded it falls back to the caller's last resolved
// day; ok is false when neither yields a reading.
func (l *Ledger) EffectiveAmount(space Space, day, fallbackDay uint64) (*big.Int, uint64, bool, error) {
	if l == nil || l.state == nil {
		return nil, 0, false, ErrNilState
	}
	cp, ok, err := l.state.Checkpoint(space, day)
	if err != nil {
		return nil, 0, false, err
	}
	if ok {
		return copyBigInt(cp.Amount), day, true, nil
	}
	if fallbackDay == 0 {
		return nil, 0, false, nil
	}
	cp, ok, err = l.state.Checkpoint(space, fallbackDay)
	if err != nil {
		return nil, 0, false, err
	}
	if !ok {
		return nil, 0, false, nil
	}
	return copyBigInt(cp.Amount), fallbackDay, true, nil
}

// BackfillStartDay copies the last checkpoint recorded on or before the
// program start day into the start-day slot. Required when a space's first
// activity predates program configuration; idempotent once the anchor exists.
func (l *Ledger) BackfillStartDay(space Space, startDay uint64) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if startDay == 0 {
		return ErrProgramNotConfigured
	}
	if _, ok, err := l.state.Checkpoint(space, startDay); err != nil {
		return err
	} else if ok {
		return nil
	}
	first, _, err := l.state.CheckpointBounds(space)
	if err != nil {
		return err
	}
	if first == 0 || first > startDay {
		return nil
	}
	day := first
	for {
		cp, ok, err := l.state.Checkpoint(space, day)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if cp.Next == 0 || cp.Next > startDay {
			return l.state.PutCheckpoint(space, startDay, cp.Clone())
		}
		day = cp.Next
	}
}
