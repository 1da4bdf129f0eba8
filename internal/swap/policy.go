package swap

import (
	"fmt"
	"math/big"
)

// MaxSlippageBps is the upper bound callers must clamp tolerance to
// before invoking the policy functions (50%).
const MaxSlippageBps = 5000

// MinimumOut computes the minimum acceptable output for a quoted amount
// and a slippage tolerance in basis points:
//
//	amountOut - floor(amountOut * slippageBps / 10000)
//
// It is a pure arithmetic primitive and does not clamp its input; callers
// validate tolerance with ValidateTolerance first.
func MinimumOut(amountOut *big.Int, slippageBps int64) *big.Int {
	cut := new(big.Int).Mul(amountOut, big.NewInt(slippageBps))
	cut.Quo(cut, big.NewInt(10000))
	return new(big.Int).Sub(amountOut, cut)
}

// Deadline computes the transaction expiry from the current unix time and
// a window in minutes.
func Deadline(nowSeconds uint64, windowMinutes uint64) uint64 {
	return nowSeconds + windowMinutes*60
}

// ValidateTolerance rejects out-of-range slippage before any on-chain
// call is made.
func ValidateTolerance(slippageBps int64) error {
	if slippageBps < 0 || slippageBps > MaxSlippageBps {
		return fmt.Errorf("%w: %d bps not in [0, %d]", ErrSlippageOutOfRange, slippageBps, MaxSlippageBps)
	}
	return nil
}

// ValidateDeadline rejects deadlines that are not in the future.
func ValidateDeadline(deadline, nowSeconds uint64) error {
	if deadline <= nowSeconds {
		return fmt.Errorf("%w: deadline %d, now %d", ErrDeadlineNotFuture, deadline, nowSeconds)
	}
	return nil
}
