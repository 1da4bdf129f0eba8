package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Allowance is a delegated spending grant read from chain state. Expiration
// is a unix timestamp; zero means the grant does not expire (plain ERC-20
// allowances).
type Allowance struct {
	Owner      common.Address
	Spender    common.Address
	Token      common.Address
	Amount     *big.Int
	Expiration uint64
}

// Covers reports whether the grant is sufficient for amount at time now.
func (a Allowance) Covers(amount *big.Int, now uint64) bool {
	if a.Amount == nil || amount == nil {
		return false
	}
	if a.Amount.Cmp(amount) < 0 {
		return false
	}
	if a.Expiration != 0 && a.Expiration <= now {
		return false
	}
	return true
}
