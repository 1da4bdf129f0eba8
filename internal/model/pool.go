package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PoolDescriptor identifies a unique pool. Token0 and Token1 are always
// address-sorted; Hooks is the zero address for hook-less pools.
type PoolDescriptor struct {
	Token0 Token
	Token1 Token
	Fee    FeeTier
	Hooks  common.Address
}

// NewPoolDescriptor builds a descriptor with the canonical token ordering.
func NewPoolDescriptor(tokenA, tokenB Token, fee FeeTier) PoolDescriptor {
	if tokenB.SortsBefore(tokenA) {
		tokenA, tokenB = tokenB, tokenA
	}
	return PoolDescriptor{Token0: tokenA, Token1: tokenB, Fee: fee}
}

// ZeroForOne reports the swap direction for the given input token: true when
// the input is token0.
func (d PoolDescriptor) ZeroForOne(tokenIn Token) bool {
	return tokenIn.Address == d.Token0.Address
}

// PoolState is the observed on-chain state of one pool, fetched per query
// and never reused across requests.
type PoolState struct {
	Exists       bool
	Initialized  bool
	SqrtPriceX96 *big.Int
	Liquidity    *big.Int
	Tick         int32
}
