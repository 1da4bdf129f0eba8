package dex

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-resty/resty/v2"
)

// HTTPRelay submits transactions to a relay service that holds the session
// keys and broadcasts on the user's behalf.
type HTTPRelay struct {
	http *resty.Client
	from common.Address
}

type relaySubmitRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

type relaySubmitResponse struct {
	TxHash string `json:"tx_hash"`
}

// NewHTTPRelay builds a relay client for the service at baseURL, submitting
// on behalf of from.
func NewHTTPRelay(baseURL string, from common.Address) *HTTPRelay {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)
	return &HTTPRelay{http: client, from: from}
}

// Submit posts the transaction to the relay. Submissions are never retried
// here: a transaction may have been broadcast even when the response is an
// error, and a blind retry could double-spend the nonce.
func (r *HTTPRelay) Submit(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	if value == nil {
		value = big.NewInt(0)
	}

	var body relaySubmitResponse
	resp, err := r.http.R().
		SetContext(ctx).
		SetBody(relaySubmitRequest{
			From:  r.from.Hex(),
			To:    to.Hex(),
			Data:  hexutil.Encode(data),
			Value: value.String(),
		}).
		SetResult(&body).
		Post("/v1/transactions")
	if err != nil {
		return common.Hash{}, fmt.Errorf("relay submit: %w", err)
	}
	if resp.IsError() {
		return common.Hash{}, fmt.Errorf("relay submit: unexpected status %d: %s", resp.StatusCode(), resp.String())
	}

	txHash, err := hexutil.Decode(body.TxHash)
	if err != nil || len(txHash) != common.HashLength {
		return common.Hash{}, fmt.Errorf("relay submit: bad tx hash %q", body.TxHash)
	}
	return common.BytesToHash(txHash), nil
}
