package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapEngine/internal/model"
	"swapEngine/internal/registry"
)

// Quoter simulates exact-input swaps against the quoter contract.
type Quoter struct {
	caller ContractCaller
	dep    registry.Deployment
	logger *zap.Logger
}

// NewQuoter builds a quoter bound to the chain deployment.
func NewQuoter(caller ContractCaller, dep registry.Deployment, logger *zap.Logger) *Quoter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Quoter{caller: caller, dep: dep, logger: logger}
}

type quotePoolKey struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         *big.Int
	TickSpacing *big.Int
	Hooks       common.Address
}

type quoteExactSingleParams struct {
	PoolKey     quotePoolKey
	ZeroForOne  bool
	ExactAmount *big.Int
	HookData    []byte
}

// QuoteExactInputSingle simulates swapping amountIn through the pool and
// returns the output amount. A revert or zero output is an error; the
// aggregator treats it as a skipped tier.
func (q *Quoter) QuoteExactInputSingle(ctx context.Context, desc model.PoolDescriptor, zeroForOne bool, amountIn *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amountIn must be positive")
	}

	quoterABI, err := QuoterABI()
	if err != nil {
		return nil, fmt.Errorf("parse quoter abi: %w", err)
	}

	params := quoteExactSingleParams{
		PoolKey: quotePoolKey{
			Currency0:   desc.Token0.Address,
			Currency1:   desc.Token1.Address,
			Fee:         big.NewInt(int64(desc.Fee)),
			TickSpacing: big.NewInt(int64(desc.Fee.TickSpacing())),
			Hooks:       desc.Hooks,
		},
		ZeroForOne:  zeroForOne,
		ExactAmount: amountIn,
		HookData:    []byte{},
	}

	data, err := quoterABI.Pack("quoteExactInputSingle", params)
	if err != nil {
		return nil, fmt.Errorf("pack quote: %w", err)
	}

	to := q.dep.Quoter
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := q.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("quote simulation reverted: %w", err)
	}

	values, err := quoterABI.Unpack("quoteExactInputSingle", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack quote: %w", err)
	}
	amountOut, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("amountOut: %w", err)
	}
	if amountOut.Sign() == 0 {
		return nil, fmt.Errorf("quote returned zero output")
	}

	q.logger.Debug("quote simulated",
		zap.String("fee", desc.Fee.String()),
		zap.Bool("zero_for_one", zeroForOne),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", amountOut.String()),
	)

	return amountOut, nil
}
