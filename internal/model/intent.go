package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SwapIntent is the fully-resolved input to the command encoder. It is
// created once per confirmed swap action and never reused.
type SwapIntent struct {
	TokenIn      Token
	TokenOut     Token
	AmountIn     *big.Int
	AmountOutMin *big.Int
	Recipient    common.Address
	Deadline     uint64
	Fee          FeeTier
}

// EncodedTransaction is the final artifact handed to the transaction relay.
// Value is non-zero only when the swap input is the native asset.
type EncodedTransaction struct {
	To    common.Address
	Data  []byte
	Value *big.Int
}
