package dex

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapEngine/internal/chain"
	"swapEngine/internal/model"
	"swapEngine/internal/registry"
)

// Relay broadcasts transactions on behalf of the session owner. Signing
// and submission live in the relay collaborator, outside this engine.
type Relay interface {
	Submit(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error)
}

// ChainBackend implements the allowance/approval surface the orchestrator
// needs, reading through the chain client and writing through the relay.
type ChainBackend struct {
	chain         *chain.Client
	relay         Relay
	dep           registry.Deployment
	logger        *zap.Logger
	confirmPoll   time.Duration
	confirmWindow time.Duration
}

// NewChainBackend wires the backend to a chain client and relay.
func NewChainBackend(chainClient *chain.Client, relay Relay, dep registry.Deployment, logger *zap.Logger) *ChainBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainBackend{
		chain:         chainClient,
		relay:         relay,
		dep:           dep,
		logger:        logger,
		confirmPoll:   time.Second,
		confirmWindow: 90 * time.Second,
	}
}

// ERC20Allowance reads the token's allowance from owner to spender.
func (b *ChainBackend) ERC20Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := parsed.Pack("allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("pack allowance: %w", err)
	}
	msg := ethereum.CallMsg{To: &token, Data: data}
	resp, err := b.chain.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call allowance: %w", err)
	}
	values, err := parsed.Unpack("allowance", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack allowance: %w", err)
	}
	return asBigInt(values[0])
}

// DelegatedAllowance reads the delegated-allowance contract's grant of
// (owner, token, spender).
func (b *ChainBackend) DelegatedAllowance(ctx context.Context, owner, token, spender common.Address) (model.Allowance, error) {
	parsed, err := Permit2ABI()
	if err != nil {
		return model.Allowance{}, fmt.Errorf("parse permit2 abi: %w", err)
	}
	data, err := parsed.Pack("allowance", owner, token, spender)
	if err != nil {
		return model.Allowance{}, fmt.Errorf("pack allowance: %w", err)
	}
	to := b.dep.Permit2
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := b.chain.CallContract(ctx, msg, nil)
	if err != nil {
		return model.Allowance{}, fmt.Errorf("call allowance: %w", err)
	}
	values, err := parsed.Unpack("allowance", resp)
	if err != nil {
		return model.Allowance{}, fmt.Errorf("unpack allowance: %w", err)
	}
	amount, err := asBigInt(values[0])
	if err != nil {
		return model.Allowance{}, fmt.Errorf("amount: %w", err)
	}
	expiration, err := asBigInt(values[1])
	if err != nil {
		return model.Allowance{}, fmt.Errorf("expiration: %w", err)
	}

	return model.Allowance{
		Owner:      owner,
		Spender:    spender,
		Token:      token,
		Amount:     amount,
		Expiration: expiration.Uint64(),
	}, nil
}

// ApproveERC20 submits a direct ERC-20 approval through the relay.
func (b *ChainBackend) ApproveERC20(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return common.Hash{}, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := parsed.Pack("approve", spender, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack approve: %w", err)
	}
	txHash, err := b.relay.Submit(ctx, token, data, big.NewInt(0))
	if err != nil {
		return common.Hash{}, fmt.Errorf("submit erc20 approval: %w", err)
	}
	b.logger.Info("erc20 approval submitted",
		zap.String("token", token.Hex()),
		zap.String("spender", spender.Hex()),
		zap.String("tx", txHash.Hex()),
	)
	return txHash, nil
}

// ApproveDelegated submits a delegated-allowance approval through the relay.
func (b *ChainBackend) ApproveDelegated(ctx context.Context, token, spender common.Address, amount *big.Int, expiration uint64) (common.Hash, error) {
	parsed, err := Permit2ABI()
	if err != nil {
		return common.Hash{}, fmt.Errorf("parse permit2 abi: %w", err)
	}
	data, err := parsed.Pack("approve", token, spender, amount, new(big.Int).SetUint64(expiration))
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack approve: %w", err)
	}
	txHash, err := b.relay.Submit(ctx, b.dep.Permit2, data, big.NewInt(0))
	if err != nil {
		return common.Hash{}, fmt.Errorf("submit delegated approval: %w", err)
	}
	b.logger.Info("delegated approval submitted",
		zap.String("token", token.Hex()),
		zap.String("spender", spender.Hex()),
		zap.String("tx", txHash.Hex()),
	)
	return txHash, nil
}

// WaitConfirmed blocks until txHash is mined successfully or the
// confirmation window elapses.
func (b *ChainBackend) WaitConfirmed(ctx context.Context, txHash common.Hash) error {
	_, err := b.chain.WaitMined(ctx, txHash, b.confirmPoll, b.confirmWindow)
	return err
}

// FreshNonce reads the pending nonce for owner. Called after every
// confirmed submission so no stale nonce is ever reused.
func (b *ChainBackend) FreshNonce(ctx context.Context, owner common.Address) (uint64, error) {
	return b.chain.PendingNonceAt(ctx, owner)
}

// SubmitTransaction hands the final encoded swap to the relay.
func (b *ChainBackend) SubmitTransaction(ctx context.Context, tx model.EncodedTransaction) (common.Hash, error) {
	return b.relay.Submit(ctx, tx.To, tx.Data, tx.Value)
}
