package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapEngine/internal/model"
	"swapEngine/internal/registry"
)

var (
	testTokenA = model.Token{ChainID: 1, Address: common.HexToAddress("0x1111111111111111111111111111111111111111"), Decimals: 18, Symbol: "AAA"}
	testTokenB = model.Token{ChainID: 1, Address: common.HexToAddress("0x2222222222222222222222222222222222222222"), Decimals: 6, Symbol: "BBB"}
)

func testDeployment() registry.Deployment {
	return registry.Deployment{
		ChainID:       1,
		StateView:     common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		PoolFactory:   common.HexToAddress("0x00000000000000000000000000000000000000bb"),
		Quoter:        common.HexToAddress("0x00000000000000000000000000000000000000cc"),
		WrappedNative: model.Token{ChainID: 1, Address: common.HexToAddress("0x00000000000000000000000000000000000000ee"), Decimals: 18, Symbol: "WETH"},
	}
}

// fakeCaller routes eth_call by target address and method selector.
type fakeCaller struct {
	handlers map[string]func(data []byte) ([]byte, error)
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{handlers: make(map[string]func([]byte) ([]byte, error))}
}

func (f *fakeCaller) handle(to common.Address, selector []byte, fn func([]byte) ([]byte, error)) {
	f.handlers[to.Hex()+common.Bytes2Hex(selector)] = fn
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, fmt.Errorf("malformed call")
	}
	fn, ok := f.handlers[msg.To.Hex()+common.Bytes2Hex(msg.Data[:4])]
	if !ok {
		return nil, fmt.Errorf("no handler for call to %s", msg.To.Hex())
	}
	return fn(msg.Data)
}

func newTestResolver(t *testing.T, caller ContractCaller, api *StateAPIClient) *Resolver {
	t.Helper()
	r := NewResolver(caller, testDeployment(), api, zap.NewNop())
	r.maxRetries = 0
	r.backoff = time.Millisecond
	return r
}

func packSlot0(t *testing.T, sqrt *big.Int, tick int64) []byte {
	t.Helper()
	viewABI, err := StateViewABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	out, err := viewABI.Methods["getSlot0"].Outputs.Pack(sqrt, big.NewInt(tick), big.NewInt(0), big.NewInt(0))
	if err != nil {
		t.Fatalf("pack slot0: %v", err)
	}
	return out
}

func packLiquidity(t *testing.T, liquidity *big.Int) []byte {
	t.Helper()
	viewABI, err := StateViewABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	out, err := viewABI.Methods["getLiquidity"].Outputs.Pack(liquidity)
	if err != nil {
		t.Fatalf("pack liquidity: %v", err)
	}
	return out
}

func packPoolAddress(t *testing.T, pool common.Address) []byte {
	t.Helper()
	factoryABI, err := FactoryABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	out, err := factoryABI.Methods["getPool"].Outputs.Pack(pool)
	if err != nil {
		t.Fatalf("pack pool address: %v", err)
	}
	return out
}

func methodID(t *testing.T, parsedName, method string) []byte {
	t.Helper()
	switch parsedName {
	case "stateView":
		parsed, err := StateViewABI()
		if err != nil {
			t.Fatalf("abi: %v", err)
		}
		return parsed.Methods[method].ID
	case "factory":
		parsed, err := FactoryABI()
		if err != nil {
			t.Fatalf("abi: %v", err)
		}
		return parsed.Methods[method].ID
	case "pool":
		parsed, err := PoolABI()
		if err != nil {
			t.Fatalf("abi: %v", err)
		}
		return parsed.Methods[method].ID
	default:
		t.Fatalf("unknown abi %s", parsedName)
		return nil
	}
}

func TestResolveInitializedPool(t *testing.T) {
	caller := newFakeCaller()
	dep := testDeployment()

	sqrt := new(big.Int).Lsh(big.NewInt(1), 96)
	caller.handle(dep.StateView, methodID(t, "stateView", "getSlot0"), func([]byte) ([]byte, error) {
		return packSlot0(t, sqrt, -15), nil
	})
	caller.handle(dep.StateView, methodID(t, "stateView", "getLiquidity"), func([]byte) ([]byte, error) {
		return packLiquidity(t, big.NewInt(1_000_000)), nil
	})

	resolver := newTestResolver(t, caller, nil)
	state, err := resolver.Resolve(context.Background(), testTokenA, testTokenB, model.FeeMedium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !state.Exists || !state.Initialized {
		t.Fatalf("expected initialized pool, got %+v", state)
	}
	if state.SqrtPriceX96.Cmp(sqrt) != 0 {
		t.Fatalf("sqrt mismatch")
	}
	if state.Tick != -15 {
		t.Fatalf("tick mismatch: %d", state.Tick)
	}
}

func TestResolveNonExistentPool(t *testing.T) {
	caller := newFakeCaller()
	dep := testDeployment()

	caller.handle(dep.StateView, methodID(t, "stateView", "getSlot0"), func([]byte) ([]byte, error) {
		return packSlot0(t, big.NewInt(0), 0), nil
	})
	caller.handle(dep.StateView, methodID(t, "stateView", "getLiquidity"), func([]byte) ([]byte, error) {
		return packLiquidity(t, big.NewInt(0)), nil
	})
	caller.handle(dep.PoolFactory, methodID(t, "factory", "getPool"), func([]byte) ([]byte, error) {
		return packPoolAddress(t, common.Address{}), nil
	})

	resolver := newTestResolver(t, caller, nil)
	state, err := resolver.Resolve(context.Background(), testTokenA, testTokenB, model.FeeLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Exists || state.Initialized {
		t.Fatalf("expected non-existent pool, got %+v", state)
	}
}

func TestResolveRegisteredButUninitialized(t *testing.T) {
	caller := newFakeCaller()
	dep := testDeployment()
	pool := common.HexToAddress("0x00000000000000000000000000000000000000dd")

	caller.handle(dep.StateView, methodID(t, "stateView", "getSlot0"), func([]byte) ([]byte, error) {
		return packSlot0(t, big.NewInt(0), 0), nil
	})
	caller.handle(dep.StateView, methodID(t, "stateView", "getLiquidity"), func([]byte) ([]byte, error) {
		return packLiquidity(t, big.NewInt(0)), nil
	})
	caller.handle(dep.PoolFactory, methodID(t, "factory", "getPool"), func([]byte) ([]byte, error) {
		return packPoolAddress(t, pool), nil
	})

	resolver := newTestResolver(t, caller, nil)
	state, err := resolver.Resolve(context.Background(), testTokenA, testTokenB, model.FeeLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !state.Exists {
		t.Fatalf("registered pool should exist: %+v", state)
	}
	if state.Initialized {
		t.Fatalf("zero-liquidity pool should not be initialized")
	}
}

func TestResolveFallsBackToDirectRead(t *testing.T) {
	caller := newFakeCaller()
	dep := testDeployment()
	pool := common.HexToAddress("0x00000000000000000000000000000000000000dd")

	// Primary source unavailable.
	caller.handle(dep.StateView, methodID(t, "stateView", "getSlot0"), func([]byte) ([]byte, error) {
		return nil, fmt.Errorf("rpc timeout")
	})
	caller.handle(dep.PoolFactory, methodID(t, "factory", "getPool"), func([]byte) ([]byte, error) {
		return packPoolAddress(t, pool), nil
	})

	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	sqrt := new(big.Int).Lsh(big.NewInt(2), 96)
	caller.handle(pool, methodID(t, "pool", "slot0"), func([]byte) ([]byte, error) {
		return poolABI.Methods["slot0"].Outputs.Pack(sqrt, big.NewInt(7), uint16(0), uint16(0), uint16(0), uint8(0), true)
	})
	caller.handle(pool, methodID(t, "pool", "liquidity"), func([]byte) ([]byte, error) {
		return poolABI.Methods["liquidity"].Outputs.Pack(big.NewInt(555))
	})

	resolver := newTestResolver(t, caller, nil)
	state, err := resolver.Resolve(context.Background(), testTokenA, testTokenB, model.FeeHigh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !state.Initialized {
		t.Fatalf("fallback read should classify initialized: %+v", state)
	}
	if state.Liquidity.Cmp(big.NewInt(555)) != 0 {
		t.Fatalf("liquidity mismatch: %s", state.Liquidity)
	}
}

func TestResolveAllSourcesFailIsError(t *testing.T) {
	caller := newFakeCaller()
	dep := testDeployment()

	caller.handle(dep.StateView, methodID(t, "stateView", "getSlot0"), func([]byte) ([]byte, error) {
		return nil, fmt.Errorf("rpc down")
	})
	caller.handle(dep.PoolFactory, methodID(t, "factory", "getPool"), func([]byte) ([]byte, error) {
		return nil, fmt.Errorf("rpc down")
	})

	resolver := newTestResolver(t, caller, nil)
	_, err := resolver.Resolve(context.Background(), testTokenA, testTokenB, model.FeeLow)
	if err == nil {
		t.Fatalf("transport failure must not be classified as non-existence")
	}
}

func TestResolveUsesRoutableTokens(t *testing.T) {
	caller := newFakeCaller()
	dep := testDeployment()
	native := model.Token{ChainID: 1, Decimals: 18, Symbol: "ETH"}

	var calledWithWrapped bool
	factoryABI, err := FactoryABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}

	caller.handle(dep.StateView, methodID(t, "stateView", "getSlot0"), func([]byte) ([]byte, error) {
		return packSlot0(t, big.NewInt(0), 0), nil
	})
	caller.handle(dep.StateView, methodID(t, "stateView", "getLiquidity"), func([]byte) ([]byte, error) {
		return packLiquidity(t, big.NewInt(0)), nil
	})
	caller.handle(dep.PoolFactory, methodID(t, "factory", "getPool"), func(data []byte) ([]byte, error) {
		values, err := factoryABI.Methods["getPool"].Inputs.Unpack(data[4:])
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if addr, ok := v.(common.Address); ok && bytes.Equal(addr.Bytes(), dep.WrappedNative.Address.Bytes()) {
				calledWithWrapped = true
			}
		}
		return packPoolAddress(t, common.Address{}), nil
	})

	resolver := newTestResolver(t, caller, nil)
	if _, err := resolver.Resolve(context.Background(), native, testTokenB, model.FeeLow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !calledWithWrapped {
		t.Fatalf("native input should resolve through the wrapped token")
	}
}
