package rpc

import (
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"minepool/core/state"
	"minepool/native/claiming"
	"minepool/native/liquidity"
	"minepool/native/staking"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	ratePerSecond   = 10
	rateBurst       = 20
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

// Server exposes the module engines over JSON-RPC. Mutating operations are
// serialized behind a single mutex: every call either completes or fails
// with no partial state, and calls touching the shared total ledger never
// interleave.
type Server struct {
	logger    *slog.Logger
	manager   *state.Manager
	liquidity *liquidity.Engine
	staking   *staking.Engine
	claiming  *claiming.Engine
	authToken string

	opMu sync.Mutex

	limitMu  sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewServer wires the RPC surface to the engines.
func NewServer(logger *slog.Logger, manager *state.Manager, liq *liquidity.Engine, stk *staking.Engine, clm *claiming.Engine, authToken string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:    logger,
		manager:   manager,
		liquidity: liq,
		staking:   stk,
		claiming:  clm,
		authToken: strings.TrimSpace(authToken),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Handler returns the http handler serving the RPC endpoint plus health and
// metrics routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.allow(r) {
		s.writeError(w, nil, codeRateLimited, "rate limit exceeded")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		s.writeError(w, nil, codeInvalidRequest, "unable to read request")
		return
	}
	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, nil, codeParseError, "invalid JSON payload")
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		s.writeError(w, req.ID, codeInvalidRequest, "unsupported jsonrpc version")
		return
	}
	method, ok := s.methods()[req.Method]
	if !ok {
		s.writeError(w, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method))
		return
	}
	if method.mutating && !s.authorized(r) {
		s.writeError(w, req.ID, codeUnauthorized, "missing or invalid bearer token")
		return
	}
	if method.mutating || method.serialized {
		s.opMu.Lock()
		defer s.opMu.Unlock()
	}
	result, rpcErr := method.handler(req.Params)
	if rpcErr != nil {
		s.logger.Warn("rpc call failed", "method", req.Method, "code", rpcErr.Code, "err", rpcErr.Message)
		s.writeResponse(w, rpcResponse{JSONRPC: jsonRPCVersion, ID: req.ID, Error: rpcErr})
		return
	}
	if method.mutating {
		for _, evt := range s.manager.DrainEvents() {
			s.logger.Info("event", "type", evt.Type, "attributes", evt.Attributes)
		}
	}
	s.writeResponse(w, rpcResponse{JSONRPC: jsonRPCVersion, ID: req.ID, Result: result})
}

// mutating methods require the bearer token and the operation mutex.
// serialized methods take the mutex without requiring auth: the pending
// query's accrual pass can persist start-day anchor checkpoints, so it must
// not interleave with a mutation.
type method struct {
	mutating   bool
	serialized bool
	handler    func(params json.RawMessage) (interface{}, *rpcError)
}

func (s *Server) methods() map[string]method {
	return map[string]method{
		"liquidity_configureProgram": {mutating: true, handler: s.handleConfigureProgram},
		"liquidity_deposit":          {mutating: true, handler: s.handleDeposit},
		"liquidity_listPool":         {mutating: true, handler: s.handleListPool},
		"liquidity_addLiquidity":     {mutating: true, handler: s.handleAddLiquidity},
		"liquidity_removeLiquidity":  {mutating: true, handler: s.handleRemoveLiquidity},
		"liquidity_claimRewards":     {mutating: true, handler: s.handleClaimRewards},
		"liquidity_pending":          {serialized: true, handler: s.handlePendingRewards},
		"liquidity_positions":        {handler: s.handlePositions},
		"liquidity_pool":             {handler: s.handlePoolInfo},
		"staking_stake":              {mutating: true, handler: s.handleStake},
		"staking_unstake":            {mutating: true, handler: s.handleUnstake},
		"staking_locks":              {handler: s.handleLocks},
		"staking_tiers":              {handler: s.handleTiers},
		"claiming_setAllocation":     {mutating: true, handler: s.handleSetAllocation},
		"claiming_claim":             {mutating: true, handler: s.handleClaim},
		"claiming_stakeFromClaim":    {mutating: true, handler: s.handleStakeFromClaim},
		"claiming_allocation":        {handler: s.handleAllocation},
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) == 1
}

func (s *Server) allow(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	s.limitMu.Lock()
	limiter, ok := s.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), rateBurst)
		s.limiters[host] = limiter
	}
	s.limitMu.Unlock()
	return limiter.Allow()
}

func (s *Server) writeError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	s.writeResponse(w, rpcResponse{JSONRPC: jsonRPCVersion, ID: id, Error: &rpcError{Code: code, Message: message}})
}

func (s *Server) writeResponse(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("write rpc response", "err", err)
	}
}

func parseAddress(value string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil || len(raw) != 20 {
		return out, fmt.Errorf("invalid address %q", value)
	}
	copy(out[:], raw)
	return out, nil
}

func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

func invalidParams(err error) *rpcError {
	return &rpcError{Code: codeInvalidParams, Message: err.Error()}
}

func serverError(err error) *rpcError {
	return &rpcError{Code: codeServerError, Message: err.Error()}
}
