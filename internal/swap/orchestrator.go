// Package swap orchestrates the allowance/approval sequence that must
// complete, in order and confirmed on-chain, before a swap is submitted.
package swap

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapEngine/internal/model"
	"swapEngine/internal/registry"
	"swapEngine/internal/router"
)

// State names one position in the approval sequence.
type State int

const (
	StateIdle State = iota
	StateCheckingERC20Allowance
	StateApprovingERC20
	StateCheckingDelegatedAllowance
	StateApprovingDelegated
	StateReady
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateCheckingERC20Allowance:
		return "CheckingErc20Allowance"
	case StateApprovingERC20:
		return "ApprovingErc20"
	case StateCheckingDelegatedAllowance:
		return "CheckingDelegatedAllowance"
	case StateApprovingDelegated:
		return "ApprovingDelegated"
	case StateReady:
		return "Ready"
	case StateSubmitted:
		return "Submitted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Backend is the on-chain collaborator surface the orchestrator drives.
type Backend interface {
	ERC20Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	DelegatedAllowance(ctx context.Context, owner, token, spender common.Address) (model.Allowance, error)
	ApproveERC20(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error)
	ApproveDelegated(ctx context.Context, token, spender common.Address, amount *big.Int, expiration uint64) (common.Hash, error)
	WaitConfirmed(ctx context.Context, txHash common.Hash) error
	FreshNonce(ctx context.Context, owner common.Address) (uint64, error)
	SubmitTransaction(ctx context.Context, tx model.EncodedTransaction) (common.Hash, error)
}

var (
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	maxUint160 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 160), big.NewInt(1))
)

// delegatedApprovalHorizon is the expiration window granted to the
// delegated-allowance contract: long enough to avoid repeated approvals,
// finite so a forgotten grant eventually lapses.
const delegatedApprovalHorizon = 30 * 24 * time.Hour

// Result captures everything a swap attempt produced: the states walked,
// the approval transactions confirmed along the way, and the final
// submission.
type Result struct {
	Visited   []State
	Approvals []common.Hash
	Encoded   model.EncodedTransaction
	TxHash    common.Hash
}

// Orchestrator walks one swap attempt through the approval state machine.
// It assumes a single in-flight attempt per session; guarding against
// concurrent re-invocation is the caller's responsibility.
type Orchestrator struct {
	backend Backend
	encoder *router.Encoder
	dep     registry.Deployment
	logger  *zap.Logger
	now     func() time.Time
}

// NewOrchestrator builds an orchestrator over the backend and encoder.
func NewOrchestrator(backend Backend, encoder *router.Encoder, dep registry.Deployment, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		backend: backend,
		encoder: encoder,
		dep:     dep,
		logger:  logger,
		now:     time.Now,
	}
}

// Execute runs the state machine from Idle to Submitted for one intent.
// Once an approval is broadcast the attempt cannot be cancelled; a
// failure at any step aborts with a typed error and no retry.
func (o *Orchestrator) Execute(ctx context.Context, owner common.Address, intent model.SwapIntent, kind router.Kind) (Result, error) {
	res := Result{}
	state := StateIdle

	for {
		res.Visited = append(res.Visited, state)
		if state == StateSubmitted {
			return res, nil
		}

		next, err := o.step(ctx, state, owner, intent, kind, &res)
		if err != nil {
			return res, err
		}

		o.logger.Debug("approval state transition",
			zap.String("from", state.String()),
			zap.String("to", next.String()),
		)
		state = next
	}
}

func (o *Orchestrator) step(ctx context.Context, state State, owner common.Address, intent model.SwapIntent, kind router.Kind, res *Result) (State, error) {
	switch state {
	case StateIdle:
		return o.stepIdle(intent)
	case StateCheckingERC20Allowance:
		return o.stepCheckERC20(ctx, owner, intent)
	case StateApprovingERC20:
		return o.stepApproveERC20(ctx, owner, intent, res)
	case StateCheckingDelegatedAllowance:
		return o.stepCheckDelegated(ctx, owner, intent, kind)
	case StateApprovingDelegated:
		return o.stepApproveDelegated(ctx, owner, intent, kind, res)
	case StateReady:
		return o.stepSubmit(ctx, intent, kind, res)
	default:
		return state, fmt.Errorf("no transition from state %s", state)
	}
}

func (o *Orchestrator) stepIdle(intent model.SwapIntent) (State, error) {
	if intent.AmountIn == nil || intent.AmountIn.Sign() <= 0 {
		return StateIdle, fmt.Errorf("amountIn must be positive")
	}
	if err := ValidateDeadline(intent.Deadline, uint64(o.now().Unix())); err != nil {
		return StateIdle, err
	}
	// The native asset needs no allowance: its value rides on the
	// transaction itself.
	if intent.TokenIn.IsNative() {
		return StateReady, nil
	}
	return StateCheckingERC20Allowance, nil
}

func (o *Orchestrator) stepCheckERC20(ctx context.Context, owner common.Address, intent model.SwapIntent) (State, error) {
	allowance, err := o.backend.ERC20Allowance(ctx, intent.TokenIn.Address, owner, o.dep.Permit2)
	if err != nil {
		return StateCheckingERC20Allowance, fmt.Errorf("read erc20 allowance: %w", err)
	}
	if allowance.Cmp(intent.AmountIn) >= 0 {
		return StateCheckingDelegatedAllowance, nil
	}
	return StateApprovingERC20, nil
}

func (o *Orchestrator) stepApproveERC20(ctx context.Context, owner common.Address, intent model.SwapIntent, res *Result) (State, error) {
	txHash, err := o.backend.ApproveERC20(ctx, intent.TokenIn.Address, o.dep.Permit2, maxUint256)
	if err != nil {
		return StateApprovingERC20, &ApprovalError{Step: "erc20", Err: err}
	}
	if err := o.confirmAndRefresh(ctx, owner, txHash); err != nil {
		return StateApprovingERC20, &ApprovalError{Step: "erc20", TxHash: txHash, Err: err}
	}
	res.Approvals = append(res.Approvals, txHash)
	return StateCheckingDelegatedAllowance, nil
}

func (o *Orchestrator) stepCheckDelegated(ctx context.Context, owner common.Address, intent model.SwapIntent, kind router.Kind) (State, error) {
	allowance, err := o.backend.DelegatedAllowance(ctx, owner, intent.TokenIn.Address, o.spender(kind))
	if err != nil {
		return StateCheckingDelegatedAllowance, fmt.Errorf("read delegated allowance: %w", err)
	}
	if allowance.Covers(intent.AmountIn, uint64(o.now().Unix())) {
		return StateReady, nil
	}
	return StateApprovingDelegated, nil
}

func (o *Orchestrator) stepApproveDelegated(ctx context.Context, owner common.Address, intent model.SwapIntent, kind router.Kind, res *Result) (State, error) {
	expiration := uint64(o.now().Add(delegatedApprovalHorizon).Unix())
	txHash, err := o.backend.ApproveDelegated(ctx, intent.TokenIn.Address, o.spender(kind), maxUint160, expiration)
	if err != nil {
		return StateApprovingDelegated, &ApprovalError{Step: "delegated", Err: err}
	}
	if err := o.confirmAndRefresh(ctx, owner, txHash); err != nil {
		return StateApprovingDelegated, &ApprovalError{Step: "delegated", TxHash: txHash, Err: err}
	}
	res.Approvals = append(res.Approvals, txHash)
	return StateReady, nil
}

func (o *Orchestrator) stepSubmit(ctx context.Context, intent model.SwapIntent, kind router.Kind, res *Result) (State, error) {
	encoded, err := o.encoder.Encode(intent, kind)
	if err != nil {
		return StateReady, err
	}
	res.Encoded = encoded

	txHash, err := o.backend.SubmitTransaction(ctx, encoded)
	if err != nil {
		return StateReady, newSubmitError(err)
	}
	res.TxHash = txHash

	o.logger.Info("swap submitted",
		zap.String("tx", txHash.Hex()),
		zap.String("to", encoded.To.Hex()),
		zap.String("value", encoded.Value.String()),
	)
	return StateSubmitted, nil
}

// confirmAndRefresh waits for the approval to be mined and then re-reads
// the owner's nonce. Allowance state read before confirmation can be
// stale, and a nonce fetched before confirmation must never be reused.
func (o *Orchestrator) confirmAndRefresh(ctx context.Context, owner common.Address, txHash common.Hash) error {
	if err := o.backend.WaitConfirmed(ctx, txHash); err != nil {
		return fmt.Errorf("confirmation: %w", err)
	}
	if _, err := o.backend.FreshNonce(ctx, owner); err != nil {
		return fmt.Errorf("refresh nonce: %w", err)
	}
	return nil
}

func (o *Orchestrator) spender(kind router.Kind) common.Address {
	if kind == router.KindPath {
		return o.dep.SwapRouter
	}
	return o.dep.UniversalRouter
}
