package dex

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"
)

// StateAPIClient reads pool state from a hosted state API. It is the last
// fallback source for the resolver when RPC reads are unavailable.
type StateAPIClient struct {
	http *resty.Client
}

type poolStateResponse struct {
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Tick         int32  `json:"tick"`
	Liquidity    string `json:"liquidity"`
}

// NewStateAPIClient builds a client for the API at baseURL.
func NewStateAPIClient(baseURL string) *StateAPIClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(250 * time.Millisecond)
	return &StateAPIClient{http: client}
}

// PoolState fetches the state of poolID. A 404 answer is authoritative
// non-existence and is reported as errPoolNotFound.
func (c *StateAPIClient) PoolState(ctx context.Context, poolID common.Hash) (rawPoolState, error) {
	var body poolStateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get(fmt.Sprintf("/v1/pools/%s", poolID.Hex()))
	if err != nil {
		return rawPoolState{}, fmt.Errorf("state api: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return rawPoolState{}, errPoolNotFound
	}
	if resp.IsError() {
		return rawPoolState{}, fmt.Errorf("state api: unexpected status %d", resp.StatusCode())
	}

	sqrt, ok := new(big.Int).SetString(body.SqrtPriceX96, 10)
	if !ok {
		return rawPoolState{}, fmt.Errorf("state api: bad sqrt_price_x96 %q", body.SqrtPriceX96)
	}
	liquidity, ok := new(big.Int).SetString(body.Liquidity, 10)
	if !ok {
		return rawPoolState{}, fmt.Errorf("state api: bad liquidity %q", body.Liquidity)
	}

	return rawPoolState{sqrtPriceX96: sqrt, liquidity: liquidity, tick: body.Tick}, nil
}
