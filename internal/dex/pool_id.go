package dex

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"swapEngine/internal/model"
)

var (
	poolIDArgs     abi.Arguments
	poolIDArgsOnce sync.Once
	poolIDArgsErr  error
)

func poolIDArguments() (abi.Arguments, error) {
	poolIDArgsOnce.Do(func() {
		addressType, err := abi.NewType("address", "", nil)
		if err != nil {
			poolIDArgsErr = err
			return
		}
		uint24Type, err := abi.NewType("uint24", "", nil)
		if err != nil {
			poolIDArgsErr = err
			return
		}
		int24Type, err := abi.NewType("int24", "", nil)
		if err != nil {
			poolIDArgsErr = err
			return
		}
		poolIDArgs = abi.Arguments{
			{Name: "currency0", Type: addressType},
			{Name: "currency1", Type: addressType},
			{Name: "fee", Type: uint24Type},
			{Name: "tickSpacing", Type: int24Type},
			{Name: "hooks", Type: addressType},
		}
	})
	return poolIDArgs, poolIDArgsErr
}

// PoolID derives the deterministic pool identifier for a hook-less router:
// the keccak hash of the ABI-encoded sorted pool key.
func PoolID(desc model.PoolDescriptor) (common.Hash, error) {
	if desc.Token1.SortsBefore(desc.Token0) {
		return common.Hash{}, fmt.Errorf("descriptor tokens not in canonical order")
	}
	args, err := poolIDArguments()
	if err != nil {
		return common.Hash{}, fmt.Errorf("pool id arguments: %w", err)
	}
	packed, err := args.Pack(
		desc.Token0.Address,
		desc.Token1.Address,
		big.NewInt(int64(desc.Fee)),
		big.NewInt(int64(desc.Fee.TickSpacing())),
		desc.Hooks,
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack pool key: %w", err)
	}
	return crypto.Keccak256Hash(packed), nil
}
