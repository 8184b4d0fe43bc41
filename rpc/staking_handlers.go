package rpc

import (
	"encoding/json"
	"time"
)

type stakeParams struct {
	Subject string `json:"subject"`
	Amount  string `json:"amount"`
	Tier    uint64 `json:"tier"`
}

func (s *Server) handleStake(params json.RawMessage) (interface{}, *rpcError) {
	var p stakeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	subject, err := parseAddress(p.Subject)
	if err != nil {
		return nil, invalidParams(err)
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return nil, invalidParams(err)
	}
	index, err := s.staking.Stake(subject, amount, p.Tier, time.Now().Unix())
	if err != nil {
		return nil, serverError(err)
	}
	return map[string]interface{}{"lock": index}, nil
}

type unstakeParams struct {
	Subject string `json:"subject"`
	Lock    uint64 `json:"lock"`
}

func (s *Server) handleUnstake(params json.RawMessage) (interface{}, *rpcError) {
	var p unstakeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	subject, err := parseAddress(p.Subject)
	if err != nil {
		return nil, invalidParams(err)
	}
	payout, err := s.staking.Unstake(subject, p.Lock, time.Now().Unix())
	if err != nil {
		return nil, serverError(err)
	}
	return map[string]interface{}{"payout": payout.String()}, nil
}

func (s *Server) handleLocks(params json.RawMessage) (interface{}, *rpcError) {
	var p subjectParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	subject, err := parseAddress(p.Subject)
	if err != nil {
		return nil, invalidParams(err)
	}
	locks, err := s.staking.Locks(subject)
	if err != nil {
		return nil, serverError(err)
	}
	out := make([]map[string]interface{}, 0, len(locks))
	for i, lock := range locks {
		out = append(out, map[string]interface{}{
			"index":     i,
			"amount":    lock.Amount.String(),
			"tier":      lock.Tier,
			"stakedAt":  lock.StakedAt,
			"unlockAt":  lock.UnlockAt,
			"withdrawn": lock.Withdrawn,
		})
	}
	return out, nil
}

func (s *Server) handleTiers(json.RawMessage) (interface{}, *rpcError) {
	tiers := s.staking.Tiers()
	out := make([]map[string]interface{}, 0, len(tiers))
	for i, tier := range tiers {
		out = append(out, map[string]interface{}{
			"index":    i,
			"lockDays": tier.LockDays,
			"apyBps":   tier.APYBps,
		})
	}
	return out, nil
}
