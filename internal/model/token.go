// Package model defines the core value types of the swap engine: tokens,
// pools, quotes, allowances, and the encoded transaction artifacts.
package model

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// Token identifies one tradeable asset on one chain. The zero address is
// the sentinel for the chain's native asset.
type Token struct {
	ChainID  uint64
	Address  common.Address
	Decimals uint8
	Symbol   string
}

// IsNative reports whether the token is the chain's native asset.
func (t Token) IsNative() bool {
	return t.Address == (common.Address{})
}

// SortsBefore reports whether t precedes other in the canonical pool
// ordering, which compares raw address bytes.
func (t Token) SortsBefore(other Token) bool {
	return bytes.Compare(t.Address.Bytes(), other.Address.Bytes()) < 0
}

// Equal reports whether two tokens are the same asset on the same chain.
func (t Token) Equal(other Token) bool {
	return t.ChainID == other.ChainID && t.Address == other.Address
}
