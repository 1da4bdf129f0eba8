package router

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"swapEngine/internal/dex"
	"swapEngine/internal/model"
	"swapEngine/internal/registry"
)

// Kind selects which router family the encoder targets.
type Kind int

const (
	// KindPath targets the path-based router (single exactInput call).
	KindPath Kind = iota
	// KindCommands targets the action-based router (command stream).
	KindCommands
)

// Encoder builds the final transaction payload for a resolved swap intent.
// Encoding is pure: no I/O, and byte-identical output for identical input.
type Encoder struct {
	dep registry.Deployment
}

// NewEncoder builds an encoder for the chain deployment.
func NewEncoder(dep registry.Deployment) *Encoder {
	return &Encoder{dep: dep}
}

// Encode produces the EncodedTransaction for the intent. Value is non-zero
// only when the swap input is the native asset, and then equals AmountIn.
func (e *Encoder) Encode(intent model.SwapIntent, kind Kind) (model.EncodedTransaction, error) {
	if err := validateIntent(intent); err != nil {
		return model.EncodedTransaction{}, err
	}

	switch kind {
	case KindPath:
		return e.encodePath(intent)
	case KindCommands:
		return e.encodeCommands(intent)
	default:
		return model.EncodedTransaction{}, fmt.Errorf("unknown router kind %d", kind)
	}
}

func validateIntent(intent model.SwapIntent) error {
	if intent.AmountIn == nil || intent.AmountIn.Sign() <= 0 {
		return fmt.Errorf("amountIn must be positive")
	}
	if intent.AmountOutMin == nil || intent.AmountOutMin.Sign() < 0 {
		return fmt.Errorf("amountOutMin must be non-negative")
	}
	if intent.Recipient == (common.Address{}) {
		return fmt.Errorf("recipient is required")
	}
	if intent.Deadline == 0 {
		return fmt.Errorf("deadline is required")
	}
	if !intent.Fee.Valid() {
		return fmt.Errorf("invalid fee tier %d", uint32(intent.Fee))
	}
	return nil
}

func (e *Encoder) swapPath(intent model.SwapIntent) ([]byte, error) {
	routableIn := e.dep.Routable(intent.TokenIn)
	routableOut := e.dep.Routable(intent.TokenOut)
	return EncodePath(
		[]common.Address{routableIn.Address, routableOut.Address},
		[]model.FeeTier{intent.Fee},
	)
}

func (e *Encoder) encodePath(intent model.SwapIntent) (model.EncodedTransaction, error) {
	path, err := e.swapPath(intent)
	if err != nil {
		return model.EncodedTransaction{}, err
	}

	routerABI, err := dex.SwapRouterABI()
	if err != nil {
		return model.EncodedTransaction{}, fmt.Errorf("parse router abi: %w", err)
	}

	params := struct {
		Path             []byte
		Recipient        common.Address
		Deadline         *big.Int
		AmountIn         *big.Int
		AmountOutMinimum *big.Int
	}{
		Path:             path,
		Recipient:        intent.Recipient,
		Deadline:         new(big.Int).SetUint64(intent.Deadline),
		AmountIn:         intent.AmountIn,
		AmountOutMinimum: intent.AmountOutMin,
	}

	data, err := routerABI.Pack("exactInput", params)
	if err != nil {
		return model.EncodedTransaction{}, fmt.Errorf("pack exactInput: %w", err)
	}

	return model.EncodedTransaction{
		To:    e.dep.SwapRouter,
		Data:  data,
		Value: attachedValue(intent),
	}, nil
}

func (e *Encoder) encodeCommands(intent model.SwapIntent) (model.EncodedTransaction, error) {
	commands, inputs, err := e.buildCommands(intent)
	if err != nil {
		return model.EncodedTransaction{}, err
	}

	routerABI, err := dex.UniversalRouterABI()
	if err != nil {
		return model.EncodedTransaction{}, fmt.Errorf("parse router abi: %w", err)
	}

	data, err := routerABI.Pack("execute", commands, inputs, new(big.Int).SetUint64(intent.Deadline))
	if err != nil {
		return model.EncodedTransaction{}, fmt.Errorf("pack execute: %w", err)
	}

	return model.EncodedTransaction{
		To:    e.dep.UniversalRouter,
		Data:  data,
		Value: attachedValue(intent),
	}, nil
}

// buildCommands assembles the command bytes and their parameter blobs in
// the router's required relative order.
func (e *Encoder) buildCommands(intent model.SwapIntent) ([]byte, [][]byte, error) {
	routableIn := e.dep.Routable(intent.TokenIn)
	routableOut := e.dep.Routable(intent.TokenOut)

	path, err := e.swapPath(intent)
	if err != nil {
		return nil, nil, err
	}

	var commands []byte
	var inputs [][]byte

	appendCommand := func(cmd Command, blob []byte) {
		commands = append(commands, byte(cmd))
		inputs = append(inputs, blob)
	}

	if intent.TokenIn.IsNative() {
		blob, err := packValues(
			[]string{"address", "uint256"},
			RecipientRouter, intent.AmountIn,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("pack wrap: %w", err)
		}
		appendCommand(CmdWrapNative, blob)
	}

	blob, err := packValues(
		[]string{"address", "address", "uint160"},
		routableIn.Address, e.dep.UniversalRouter, intent.AmountIn,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("pack delegated transfer: %w", err)
	}
	appendCommand(CmdDelegatedTransfer, blob)

	// The router was funded by the preceding transfer, so the swap itself
	// never pulls from the user.
	swapRecipient := intent.Recipient
	if intent.TokenOut.IsNative() {
		swapRecipient = RecipientRouter
	}
	blob, err = packValues(
		[]string{"address", "uint256", "uint256", "bytes", "bool"},
		swapRecipient, intent.AmountIn, intent.AmountOutMin, path, false,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("pack swap: %w", err)
	}
	appendCommand(CmdSwapExactIn, blob)

	if intent.TokenOut.IsNative() {
		blob, err = packValues(
			[]string{"address", "uint256"},
			intent.Recipient, big.NewInt(0),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("pack unwrap: %w", err)
		}
		appendCommand(CmdUnwrapNative, blob)
	}

	// Residue goes back to the recipient; after an unwrap the stranded
	// balance, if any, is the wrapped-native token.
	sweepToken := routableOut.Address
	if intent.TokenOut.IsNative() {
		sweepToken = e.dep.WrappedNative.Address
	}
	blob, err = packValues(
		[]string{"address", "address", "uint256"},
		sweepToken, intent.Recipient, big.NewInt(0),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("pack sweep: %w", err)
	}
	appendCommand(CmdSweep, blob)

	return commands, inputs, nil
}

func attachedValue(intent model.SwapIntent) *big.Int {
	if intent.TokenIn.IsNative() {
		return new(big.Int).Set(intent.AmountIn)
	}
	return big.NewInt(0)
}

var (
	abiTypesMu sync.Mutex
	abiTypes   = make(map[string]abi.Type)
)

func packValues(typeNames []string, values ...interface{}) ([]byte, error) {
	if len(typeNames) != len(values) {
		return nil, fmt.Errorf("type/value count mismatch")
	}
	args := make(abi.Arguments, len(typeNames))
	for i, name := range typeNames {
		typ, err := cachedType(name)
		if err != nil {
			return nil, err
		}
		args[i] = abi.Argument{Type: typ}
	}
	return args.Pack(values...)
}

func cachedType(name string) (abi.Type, error) {
	abiTypesMu.Lock()
	defer abiTypesMu.Unlock()
	if typ, ok := abiTypes[name]; ok {
		return typ, nil
	}
	typ, err := abi.NewType(name, "", nil)
	if err != nil {
		return abi.Type{}, fmt.Errorf("abi type %s: %w", name, err)
	}
	abiTypes[name] = typ
	return typ, nil
}
