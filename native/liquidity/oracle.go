package liquidity

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"
)

// PriceOracle resolves the ETH price used to debit a depositor's claimable
// allocation by the USD-equivalent value of the deposit.
type PriceOracle interface {
	// FetchPrice returns the ETH/USD price scaled by 10^decimals.
	FetchPrice() (price *big.Int, decimals uint8, err error)
}

// StaticOracle serves a fixed price; used in dev mode and tests.
type StaticOracle struct {
	Price    *big.Int
	Decimals uint8
}

func (o *StaticOracle) FetchPrice() (*big.Int, uint8, error) {
	if o == nil || o.Price == nil || o.Price.Sign() <= 0 {
		return nil, 0, ErrOracleUnavailable
	}
	return new(big.Int).Set(o.Price), o.Decimals, nil
}

// HTTPOracle polls a JSON price feed. Responses are cached for the configured
// TTL so bursts of deposits do not hammer the upstream.
type HTTPOracle struct {
	url    string
	client *http.Client
	ttl    time.Duration

	mu        sync.Mutex
	price     *big.Int
	decimals  uint8
	fetchedAt time.Time
}

// NewHTTPOracle builds an oracle against the given feed URL.
func NewHTTPOracle(url string, ttl time.Duration) *HTTPOracle {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &HTTPOracle{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: 10 * time.Second},
		ttl:    ttl,
	}
}

type oracleResponse struct {
	Price    string `json:"price"`
	Decimals uint8  `json:"decimals"`
}

func (o *HTTPOracle) FetchPrice() (*big.Int, uint8, error) {
	if o == nil || o.url == "" {
		return nil, 0, ErrOracleUnavailable
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.price != nil && time.Since(o.fetchedAt) < o.ttl {
		return new(big.Int).Set(o.price), o.decimals, nil
	}
	resp, err := o.client.Get(o.url)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("%w: status %d", ErrOracleUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	var payload oracleResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	price, ok := new(big.Int).SetString(strings.TrimSpace(payload.Price), 10)
	if !ok || price.Sign() <= 0 {
		return nil, 0, fmt.Errorf("%w: invalid price %q", ErrOracleUnavailable, payload.Price)
	}
	o.price = price
	o.decimals = payload.Decimals
	o.fetchedAt = time.Now()
	return new(big.Int).Set(price), payload.Decimals, nil
}
