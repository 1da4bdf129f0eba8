package dex

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapEngine/internal/chain"
	"swapEngine/internal/model"
	"swapEngine/internal/registry"
)

// errPoolNotFound marks a source that answered authoritatively that the
// pool does not exist, as opposed to a transport failure.
var errPoolNotFound = errors.New("pool not found")

// ContractCaller is the read-only call surface of chain.Client.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Resolver classifies on-chain pool state for candidate (tokenA, tokenB,
// feeTier) triples. The primary source is the state-view contract; if it is
// unreachable the resolver falls back to direct pool contract reads and
// then to the hosted state API. A transport failure is never reported as
// pool non-existence.
type Resolver struct {
	caller     ContractCaller
	dep        registry.Deployment
	stateAPI   *StateAPIClient
	logger     *zap.Logger
	maxRetries int
	backoff    time.Duration
}

// NewResolver builds a resolver. stateAPI may be nil when no hosted
// fallback is configured.
func NewResolver(caller ContractCaller, dep registry.Deployment, stateAPI *StateAPIClient, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		caller:     caller,
		dep:        dep,
		stateAPI:   stateAPI,
		logger:     logger,
		maxRetries: 2,
		backoff:    200 * time.Millisecond,
	}
}

// SetRetryPolicy overrides the retry budget for primary-source reads.
func (r *Resolver) SetRetryPolicy(maxRetries int, backoff time.Duration) {
	if maxRetries >= 0 {
		r.maxRetries = maxRetries
	}
	if backoff > 0 {
		r.backoff = backoff
	}
}

type rawPoolState struct {
	sqrtPriceX96 *big.Int
	liquidity    *big.Int
	tick         int32
}

// Resolve reads and classifies the state of the pool for the pair and tier.
// Native-asset inputs are mapped to their wrapped form first, since pools
// trade the routable representation.
func (r *Resolver) Resolve(ctx context.Context, tokenA, tokenB model.Token, fee model.FeeTier) (model.PoolState, error) {
	if !fee.Valid() {
		return model.PoolState{}, fmt.Errorf("invalid fee tier %d", uint32(fee))
	}

	desc := model.NewPoolDescriptor(r.dep.Routable(tokenA), r.dep.Routable(tokenB), fee)
	poolID, err := PoolID(desc)
	if err != nil {
		return model.PoolState{}, err
	}

	raw, err := r.readWithFallback(ctx, desc, poolID)
	if errors.Is(err, errPoolNotFound) {
		return model.PoolState{Exists: false, Initialized: false}, nil
	}
	if err != nil {
		return model.PoolState{}, fmt.Errorf("resolve pool %s/%s %s: %w", desc.Token0.Symbol, desc.Token1.Symbol, fee, err)
	}

	return classify(raw), nil
}

func classify(raw rawPoolState) model.PoolState {
	state := model.PoolState{
		Exists:       true,
		SqrtPriceX96: raw.sqrtPriceX96,
		Liquidity:    raw.liquidity,
		Tick:         raw.tick,
	}
	if raw.sqrtPriceX96 == nil || raw.sqrtPriceX96.Sign() == 0 {
		return state
	}
	if raw.liquidity == nil || raw.liquidity.Sign() == 0 {
		return state
	}
	state.Initialized = true
	return state
}

func (r *Resolver) readWithFallback(ctx context.Context, desc model.PoolDescriptor, poolID common.Hash) (rawPoolState, error) {
	raw, primaryErr := r.readStateView(ctx, poolID)
	if primaryErr == nil {
		if raw.sqrtPriceX96.Sign() != 0 || raw.liquidity.Sign() != 0 {
			return raw, nil
		}
		// All-zero state-view data is ambiguous: the pool may be
		// registered but uninitialized, or it may not exist at all.
		// Only a registry source can tell the two apart.
		exists, err := r.poolExists(ctx, desc, poolID)
		if err != nil {
			r.logger.Warn("pool existence check failed", zap.String("pool_id", poolID.Hex()), zap.Error(err))
			return rawPoolState{}, err
		}
		if !exists {
			return rawPoolState{}, errPoolNotFound
		}
		return raw, nil
	}

	r.logger.Warn("state view read failed, trying direct pool read",
		zap.String("pool_id", poolID.Hex()),
		zap.Error(primaryErr),
	)

	raw, directErr := r.readDirect(ctx, desc)
	if directErr == nil || errors.Is(directErr, errPoolNotFound) {
		return raw, directErr
	}

	if r.stateAPI != nil {
		r.logger.Warn("direct pool read failed, trying state api",
			zap.String("pool_id", poolID.Hex()),
			zap.Error(directErr),
		)
		raw, apiErr := r.stateAPI.PoolState(ctx, poolID)
		if apiErr == nil || errors.Is(apiErr, errPoolNotFound) {
			return raw, apiErr
		}
		return rawPoolState{}, fmt.Errorf("all sources failed: %w", apiErr)
	}

	return rawPoolState{}, fmt.Errorf("all sources failed: %w", directErr)
}

// readStateView queries the state-view contract for slot0 and liquidity.
func (r *Resolver) readStateView(ctx context.Context, poolID common.Hash) (rawPoolState, error) {
	viewABI, err := StateViewABI()
	if err != nil {
		return rawPoolState{}, fmt.Errorf("parse state view abi: %w", err)
	}

	var raw rawPoolState
	err = chain.WithRetry(ctx, r.maxRetries, r.backoff, func(ctx context.Context) error {
		values, err := r.call(ctx, r.dep.StateView, viewABI, "getSlot0", poolID)
		if err != nil {
			return err
		}
		sqrt, err := asBigInt(values[0])
		if err != nil {
			return fmt.Errorf("sqrtPriceX96: %w", err)
		}
		tickBig, err := asBigInt(values[1])
		if err != nil {
			return fmt.Errorf("tick: %w", err)
		}
		tick, err := int24FromBig(tickBig)
		if err != nil {
			return fmt.Errorf("tick: %w", err)
		}

		values, err = r.call(ctx, r.dep.StateView, viewABI, "getLiquidity", poolID)
		if err != nil {
			return err
		}
		liquidity, err := asBigInt(values[0])
		if err != nil {
			return fmt.Errorf("liquidity: %w", err)
		}

		raw = rawPoolState{sqrtPriceX96: sqrt, liquidity: liquidity, tick: tick}
		return nil
	})
	return raw, err
}

// readDirect resolves the pool address through the factory, then reads
// slot0 and liquidity from the pool contract itself.
func (r *Resolver) readDirect(ctx context.Context, desc model.PoolDescriptor) (rawPoolState, error) {
	pool, err := r.poolAddress(ctx, desc)
	if err != nil {
		return rawPoolState{}, err
	}
	if pool == (common.Address{}) {
		return rawPoolState{}, errPoolNotFound
	}

	poolABI, err := PoolABI()
	if err != nil {
		return rawPoolState{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := r.call(ctx, pool, poolABI, "slot0")
	if err != nil {
		return rawPoolState{}, err
	}
	sqrt, err := asBigInt(values[0])
	if err != nil {
		return rawPoolState{}, fmt.Errorf("sqrtPriceX96: %w", err)
	}
	tickBig, err := asBigInt(values[1])
	if err != nil {
		return rawPoolState{}, fmt.Errorf("tick: %w", err)
	}
	tick, err := int24FromBig(tickBig)
	if err != nil {
		return rawPoolState{}, fmt.Errorf("tick: %w", err)
	}

	values, err = r.call(ctx, pool, poolABI, "liquidity")
	if err != nil {
		return rawPoolState{}, err
	}
	liquidity, err := asBigInt(values[0])
	if err != nil {
		return rawPoolState{}, fmt.Errorf("liquidity: %w", err)
	}

	return rawPoolState{sqrtPriceX96: sqrt, liquidity: liquidity, tick: tick}, nil
}

// poolExists asks a registry source whether the pool was ever created.
func (r *Resolver) poolExists(ctx context.Context, desc model.PoolDescriptor, poolID common.Hash) (bool, error) {
	pool, err := r.poolAddress(ctx, desc)
	if err == nil {
		return pool != (common.Address{}), nil
	}

	if r.stateAPI != nil {
		if _, apiErr := r.stateAPI.PoolState(ctx, poolID); apiErr == nil {
			return true, nil
		} else if errors.Is(apiErr, errPoolNotFound) {
			return false, nil
		}
	}
	return false, err
}

func (r *Resolver) poolAddress(ctx context.Context, desc model.PoolDescriptor) (common.Address, error) {
	factoryABI, err := FactoryABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse factory abi: %w", err)
	}
	values, err := r.call(ctx, r.dep.PoolFactory, factoryABI, "getPool",
		desc.Token0.Address, desc.Token1.Address, big.NewInt(int64(desc.Fee)))
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

func (r *Resolver) call(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := r.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}
