package swap

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Policy validation failures, rejected before any on-chain call.
var (
	ErrSlippageOutOfRange = errors.New("slippage tolerance out of range")
	ErrDeadlineNotFuture  = errors.New("deadline is not in the future")
)

// ApprovalError is an approval step that failed on-chain or was not
// confirmed within the expected window. It is fatal to the current swap
// attempt; the engine never retries a failed approval.
type ApprovalError struct {
	Step   string
	TxHash common.Hash
	Err    error
}

func (e *ApprovalError) Error() string {
	if e.TxHash != (common.Hash{}) {
		return fmt.Sprintf("approval step %s failed (tx %s): %v", e.Step, e.TxHash.Hex(), e.Err)
	}
	return fmt.Sprintf("approval step %s failed: %v", e.Step, e.Err)
}

func (e *ApprovalError) Unwrap() error { return e.Err }

// SubmitError is a final swap submission that failed, commonly because
// price movement exceeded the minimum output. Hint carries the
// plain-language suggestion surfaced to the user.
type SubmitError struct {
	Err  error
	Hint string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("swap transaction failed: %v (%s)", e.Err, e.Hint)
}

func (e *SubmitError) Unwrap() error { return e.Err }

func newSubmitError(err error) *SubmitError {
	return &SubmitError{
		Err:  err,
		Hint: "try increasing your slippage tolerance or retry the swap",
	}
}
