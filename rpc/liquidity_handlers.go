package rpc

import (
	"encoding/json"
	"fmt"
	"time"

	"minepool/native/liquidity"
)

type configureProgramParams struct {
	StartDay   uint64 `json:"startDay"`
	PeriodDays uint64 `json:"periodDays"`
	TotalPool  string `json:"totalPool"`
}

func (s *Server) handleConfigureProgram(params json.RawMessage) (interface{}, *rpcError) {
	var p configureProgramParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	pool, err := parseAmount(p.TotalPool)
	if err != nil {
		return nil, invalidParams(err)
	}
	if err := s.liquidity.ConfigureProgram(p.StartDay, p.PeriodDays, pool); err != nil {
		return nil, serverError(err)
	}
	return map[string]interface{}{"startDay": p.StartDay, "periodDays": p.PeriodDays}, nil
}

type subjectAmountParams struct {
	Subject string `json:"subject"`
	Amount  string `json:"amount"`
}

func (s *Server) handleDeposit(params json.RawMessage) (interface{}, *rpcError) {
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
	index, err := s.liquidity.Deposit(subject, amount, time.Now().Unix())
	if err != nil {
		return nil, serverError(err)
	}
	return map[string]interface{}{"position": index}, nil
}

func (s *Server) handleListPool(json.RawMessage) (interface{}, *rpcError) {
	if err := s.liquidity.ListPool(time.Now().Unix()); err != nil {
		return nil, serverError(err)
	}
	pool, err := s.liquidity.PoolInfo()
	if err != nil {
		return nil, serverError(err)
	}
	return poolView(pool), nil
}

type addLiquidityParams struct {
	Subject     string `json:"subject"`
	TokenAmount string `json:"tokenAmount"`
	EthAmount   string `json:"ethAmount"`
}

func (s *Server) handleAddLiquidity(params json.RawMessage) (interface{}, *rpcError) {
	var p addLiquidityParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	subject, err := parseAddress(p.Subject)
	if err != nil {
		return nil, invalidParams(err)
	}
	tokenAmount, err := parseAmount(p.TokenAmount)
	if err != nil {
		return nil, invalidParams(err)
	}
	ethAmount, err := parseAmount(p.EthAmount)
	if err != nil {
		return nil, invalidParams(err)
	}
	index, err := s.liquidity.AddLiquidity(subject, tokenAmount, ethAmount, time.Now().Unix())
	if err != nil {
		return nil, serverError(err)
	}
	return map[string]interface{}{"position": index}, nil
}

type positionParams struct {
	Subject  string `json:"subject"`
	Position uint64 `json:"position"`
}

func (s *Server) handleRemoveLiquidity(params json.RawMessage) (interface{}, *rpcError) {
	var p positionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	subject, err := parseAddress(p.Subject)
	if err != nil {
		return nil, invalidParams(err)
	}
	tokenOut, ethOut, err := s.liquidity.RemoveLiquidity(subject, p.Position, time.Now().Unix())
	if err != nil {
		return nil, serverError(err)
	}
	return map[string]interface{}{"tokenOut": tokenOut.String(), "ethOut": ethOut.String()}, nil
}

type subjectParams struct {
	Subject string `json:"subject"`
}

func (s *Server) handleClaimRewards(params json.RawMessage) (interface{}, *rpcError) {
	var p subjectParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	subject, err := parseAddress(p.Subject)
	if err != nil {
		return nil, invalidParams(err)
	}
	reward, err := s.liquidity.ClaimRewards(subject, time.Now().Unix())
	if err != nil {
		return nil, serverError(err)
	}
	return map[string]interface{}{"reward": reward.String()}, nil
}

func (s *Server) handlePendingRewards(params json.RawMessage) (interface{}, *rpcError) {
	var p subjectParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	subject, err := parseAddress(p.Subject)
	if err != nil {
		return nil, invalidParams(err)
	}
	pending, err := s.liquidity.PendingRewards(subject, time.Now().Unix())
	if err != nil {
		return nil, serverError(err)
	}
	return map[string]interface{}{"pending": pending.String()}, nil
}

func (s *Server) handlePositions(params json.RawMessage) (interface{}, *rpcError) {
	var p subjectParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	subject, err := parseAddress(p.Subject)
	if err != nil {
		return nil, invalidParams(err)
	}
	positions, err := s.liquidity.Positions(subject)
	if err != nil {
		return nil, serverError(err)
	}
	out := make([]map[string]interface{}, 0, len(positions))
	for i, pos := range positions {
		out = append(out, map[string]interface{}{
			"index":          fmt.Sprintf("%d", i),
			"amount":         pos.Amount.String(),
			"depositedAt":    pos.DepositedAt,
			"liquidityShare": pos.LiquidityShare.String(),
			"removed":        pos.Removed,
		})
	}
	return out, nil
}

func (s *Server) handlePoolInfo(json.RawMessage) (interface{}, *rpcError) {
	pool, err := s.liquidity.PoolInfo()
	if err != nil {
		return nil, serverError(err)
	}
	return poolView(pool), nil
}

func poolView(pool *liquidity.Pool) map[string]interface{} {
	pool = pool.Normalize()
	return map[string]interface{}{
		"listed":         pool.Listed,
		"listedAt":       pool.ListedAt,
		"listedDay":      pool.ListedDay,
		"ethTotal":       pool.EthTotal.String(),
		"listedEthTotal": pool.ListedEthTotal.String(),
		"mintedShares":   pool.MintedShares.String(),
	}
}
