package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Quote is the immutable result of one aggregation call. Seq orders quotes
// within a session; a quote with a lower Seq than one already observed is
// superseded and must be discarded by the caller.
type Quote struct {
	Seq         uint64
	AmountOut   *big.Int
	Fee         FeeTier
	Pool        PoolDescriptor
	PriceImpact decimal.Decimal
	RouteLabel  string
}
