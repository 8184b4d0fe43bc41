package rpc

import (
	"encoding/json"
	"time"
)

func (s *Server) handleSetAllocation(params json.RawMessage) (interface{}, *rpcError) {
	var p subjectAmountParams
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
	if err := s.claiming.SetAllocation(subject, amount); err != nil {
		return nil, serverError(err)
	}
	return map[string]interface{}{"total": amount.String()}, nil
}

func (s *Server) handleClaim(params json.RawMessage) (interface{}, *rpcError) {
	var p subjectParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	subject, err := parseAddress(p.Subject)
	if err != nil {
		return nil, invalidParams(err)
	}
	amount, err := s.claiming.Claim(subject, time.Now().Unix())
	if err != nil {
		return nil, serverError(err)
	}
	return map[string]interface{}{"claimed": amount.String()}, nil
}

func (s *Server) handleStakeFromClaim(params json.RawMessage) (interface{}, *rpcError) {
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
	if err := s.claiming.StakeFromClaim(subject, amount, p.Tier, time.Now().Unix()); err != nil {
		return nil, serverError(err)
	}
	return map[string]interface{}{"staked": amount.String()}, nil
}

func (s *Server) handleAllocation(params json.RawMessage) (interface{}, *rpcError) {
	var p subjectParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	subject, err := parseAddress(p.Subject)
	if err != nil {
		return nil, invalidParams(err)
	}
	alloc, err := s.claiming.AllocationOf(subject)
	if err != nil {
		return nil, serverError(err)
	}
	now := time.Now().Unix()
	claimable, err := s.claiming.ClaimableAt(subject, now)
	if err != nil {
		return nil, serverError(err)
	}
	return map[string]interface{}{
		"total":     alloc.Total.String(),
		"claimed":   alloc.Claimed.String(),
		"claimable": claimable.String(),
	}, nil
}
