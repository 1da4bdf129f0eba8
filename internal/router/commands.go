// Package router builds the opaque instruction stream a DEX router
// executes to perform a swap.
package router

import "github.com/ethereum/go-ethereum/common"

// Command is a one-byte router opcode. Each command is followed by an
// ABI-encoded parameter blob in the matching position of the inputs array.
type Command byte

const (
	// CmdSwapExactIn performs an exact-input swap along a packed path.
	CmdSwapExactIn Command = 0x00
	// CmdDelegatedTransfer moves tokens from the user's delegated-allowance
	// custody into the router for this call.
	CmdDelegatedTransfer Command = 0x02
	// CmdSweep returns any residual token balance left in the router to
	// the recipient.
	CmdSweep Command = 0x04
	// CmdWrapNative wraps the attached native value into its ERC-20 form.
	CmdWrapNative Command = 0x0b
	// CmdUnwrapNative unwraps the router's wrapped-native balance and pays
	// it out as the native asset.
	CmdUnwrapNative Command = 0x0c
)

// Sentinel recipient addresses understood by the router.
var (
	// RecipientSender redirects an output to the caller.
	RecipientSender = common.HexToAddress("0x0000000000000000000000000000000000000001")
	// RecipientRouter keeps an intermediate output inside the router.
	RecipientRouter = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func (c Command) String() string {
	switch c {
	case CmdSwapExactIn:
		return "SWAP_EXACT_IN"
	case CmdDelegatedTransfer:
		return "DELEGATED_TRANSFER"
	case CmdSweep:
		return "SWEEP"
	case CmdWrapNative:
		return "WRAP_NATIVE"
	case CmdUnwrapNative:
		return "UNWRAP_NATIVE"
	default:
		return "UNKNOWN"
	}
}
