package liquidity

import "math/big"

// Accrual is the result of one accrual pass: the reward earned over
// [FromDay, ToDay) plus the resumption cursor the caller persists once the
// payout succeeds. Nothing is persisted by the pass itself.
type Accrual struct {
	Reward  *big.Int
	FromDay uint64
	ToDay   uint64
	Cursor  ClaimCursor
}

// Accrue integrates dailyReward * subjectAmount(day) / totalAmount(day) over
// the unclaimed window. The division truncates per day; remainders are not
// carried between days. Repeated calls with no intervening state change are
// idempotent, and the pass resumes from the persisted cursor instead of
// re-scanning from the program start.
func (l *Ledger) Accrue(subject [20]byte, program *RewardProgram, cursor *ClaimCursor, today uint64) (*Accrual, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	if cursor == nil {
		cursor = &ClaimCursor{}
	}
	zero := &Accrual{Reward: big.NewInt(0), Cursor: *cursor}
	if !program.Configured() {
		return zero, nil
	}
	if today <= program.StartDay {
		return nil, ErrRewardsNotStarted
	}
	// A space whose first activity predates program configuration has no
	// reading at the anchor day until it is backfilled.
	if err := l.BackfillStartDay(TotalSpace, program.StartDay); err != nil {
		return nil, err
	}
	if err := l.BackfillStartDay(SubjectSpace(subject), program.StartDay); err != nil {
		return nil, err
	}

	endDay := program.EndDay()
	if today < endDay {
		endDay = today
	}
	fromDay := program.StartDay
	if cursor.LastClaimDay != 0 {
		fromDay = cursor.LastClaimDay
	}
	if fromDay >= endDay {
		return zero, nil
	}

	dailyReward := program.DailyReward()
	subjectSpace := SubjectSpace(subject)
	lastTotalDay := cursor.LastTotalCheckpointDay
	lastSubjectDay := cursor.LastCheckpointDay
	reward := big.NewInt(0)
	for day := fromDay; day < endDay; day++ {
		total, resolved, ok, err := l.EffectiveAmount(TotalSpace, day, lastTotalDay)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		lastTotalDay = resolved
		if total.Sign() == 0 {
			// Empty pool: nothing distributable, no division by zero.
			continue
		}
		amount, resolved, ok, err := l.EffectiveAmount(subjectSpace, day, lastSubjectDay)
		if err != nil {
			return nil, err
		}
		if !ok {
			// The subject has no history yet; distinct from a recorded
			// zero balance, which resolves and contributes nothing.
			continue
		}
		lastSubjectDay = resolved
		if amount.Sign() == 0 {
			continue
		}
		share := new(big.Int).Mul(dailyReward, amount)
		share.Quo(share, total)
		reward.Add(reward, share)
	}
	return &Accrual{
		Reward:  reward,
		FromDay: fromDay,
		ToDay:   endDay,
		Cursor: ClaimCursor{
			LastClaimDay:           endDay,
			LastCheckpointDay:      lastSubjectDay,
			LastTotalCheckpointDay: lastTotalDay,
		},
	}, nil
}
