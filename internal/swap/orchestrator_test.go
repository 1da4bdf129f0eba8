package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapEngine/internal/model"
	"swapEngine/internal/registry"
	"swapEngine/internal/router"
)

var (
	orchWETH = model.Token{ChainID: 1, Address: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), Decimals: 18, Symbol: "WETH"}
	orchETH  = model.Token{ChainID: 1, Decimals: 18, Symbol: "ETH"}
	orchUSDC = model.Token{ChainID: 1, Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Decimals: 6, Symbol: "USDC"}

	orchOwner     = common.HexToAddress("0x5555555555555555555555555555555555555555")
	orchRecipient = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

func orchDeployment() registry.Deployment {
	return registry.Deployment{
		ChainID:         1,
		UniversalRouter: common.HexToAddress("0x66a9893cC07D91D95644AEDD05D03f95e1dBA8Af"),
		SwapRouter:      common.HexToAddress("0xE592427A0AEce92De3Edee1F18E0157C05861564"),
		Permit2:         common.HexToAddress("0x000000000022D473030F116dDEE9F6B43aC78BA3"),
		WrappedNative:   orchWETH,
	}
}

const testNow = uint64(1_750_000_000)

func orchIntent(tokenIn model.Token) model.SwapIntent {
	return model.SwapIntent{
		TokenIn:      tokenIn,
		TokenOut:     orchUSDC,
		AmountIn:     big.NewInt(1_000_000),
		AmountOutMin: big.NewInt(990_000),
		Recipient:    orchRecipient,
		Deadline:     testNow + 1200,
		Fee:          model.FeeMedium,
	}
}

type fakeBackend struct {
	erc20Allowance     *big.Int
	delegatedAllowance model.Allowance

	approveERC20Err     error
	approveDelegatedErr error
	waitErr             error
	submitErr           error

	calls  []string
	nextTx int
	nonce  uint64
}

func (f *fakeBackend) record(call string) { f.calls = append(f.calls, call) }

func (f *fakeBackend) newTxHash() common.Hash {
	f.nextTx++
	return common.BigToHash(big.NewInt(int64(f.nextTx)))
}

func (f *fakeBackend) ERC20Allowance(_ context.Context, _, _, _ common.Address) (*big.Int, error) {
	f.record("erc20Allowance")
	if f.erc20Allowance == nil {
		return big.NewInt(0), nil
	}
	return f.erc20Allowance, nil
}

func (f *fakeBackend) DelegatedAllowance(_ context.Context, _, _, _ common.Address) (model.Allowance, error) {
	f.record("delegatedAllowance")
	return f.delegatedAllowance, nil
}

func (f *fakeBackend) ApproveERC20(_ context.Context, _, _ common.Address, _ *big.Int) (common.Hash, error) {
	f.record("approveERC20")
	if f.approveERC20Err != nil {
		return common.Hash{}, f.approveERC20Err
	}
	return f.newTxHash(), nil
}

func (f *fakeBackend) ApproveDelegated(_ context.Context, _, _ common.Address, _ *big.Int, _ uint64) (common.Hash, error) {
	f.record("approveDelegated")
	if f.approveDelegatedErr != nil {
		return common.Hash{}, f.approveDelegatedErr
	}
	return f.newTxHash(), nil
}

func (f *fakeBackend) WaitConfirmed(_ context.Context, _ common.Hash) error {
	f.record("waitConfirmed")
	return f.waitErr
}

func (f *fakeBackend) FreshNonce(_ context.Context, _ common.Address) (uint64, error) {
	f.record("freshNonce")
	f.nonce++
	return f.nonce, nil
}

func (f *fakeBackend) SubmitTransaction(_ context.Context, _ model.EncodedTransaction) (common.Hash, error) {
	f.record("submitTransaction")
	if f.submitErr != nil {
		return common.Hash{}, f.submitErr
	}
	return f.newTxHash(), nil
}

func newTestOrchestrator(backend Backend) *Orchestrator {
	dep := orchDeployment()
	o := NewOrchestrator(backend, router.NewEncoder(dep), dep, zap.NewNop())
	o.now = func() time.Time { return time.Unix(int64(testNow), 0) }
	return o
}

func TestSufficientDelegatedAllowanceSkipsApprovals(t *testing.T) {
	backend := &fakeBackend{
		erc20Allowance: big.NewInt(10_000_000),
		delegatedAllowance: model.Allowance{
			Amount:     big.NewInt(10_000_000),
			Expiration: testNow + 86400,
		},
	}

	res, err := newTestOrchestrator(backend).Execute(context.Background(), orchOwner, orchIntent(orchWETH), router.KindCommands)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStates := []State{StateIdle, StateCheckingERC20Allowance, StateCheckingDelegatedAllowance, StateReady, StateSubmitted}
	assertStates(t, res.Visited, wantStates)

	if len(res.Approvals) != 0 {
		t.Fatalf("no approvals should be submitted, got %d", len(res.Approvals))
	}
	if res.TxHash == (common.Hash{}) {
		t.Fatalf("swap tx hash missing")
	}
}

func TestNativeInputSkipsToReady(t *testing.T) {
	backend := &fakeBackend{}

	res, err := newTestOrchestrator(backend).Execute(context.Background(), orchOwner, orchIntent(orchETH), router.KindCommands)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertStates(t, res.Visited, []State{StateIdle, StateReady, StateSubmitted})

	for _, call := range backend.calls {
		if call == "erc20Allowance" || call == "delegatedAllowance" {
			t.Fatalf("native input must not read allowances, saw %s", call)
		}
	}
	if res.Encoded.Value.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("native swap must attach amountIn as value, got %s", res.Encoded.Value)
	}
}

func TestInsufficientAllowancesRunBothApprovals(t *testing.T) {
	backend := &fakeBackend{
		erc20Allowance:     big.NewInt(0),
		delegatedAllowance: model.Allowance{Amount: big.NewInt(0)},
	}

	res, err := newTestOrchestrator(backend).Execute(context.Background(), orchOwner, orchIntent(orchWETH), router.KindCommands)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStates := []State{
		StateIdle,
		StateCheckingERC20Allowance,
		StateApprovingERC20,
		StateCheckingDelegatedAllowance,
		StateApprovingDelegated,
		StateReady,
		StateSubmitted,
	}
	assertStates(t, res.Visited, wantStates)

	if len(res.Approvals) != 2 {
		t.Fatalf("expected two approvals, got %d", len(res.Approvals))
	}

	// Every approval must be confirmed and followed by a nonce refresh
	// before the next on-chain read.
	wantCalls := []string{
		"erc20Allowance",
		"approveERC20", "waitConfirmed", "freshNonce",
		"delegatedAllowance",
		"approveDelegated", "waitConfirmed", "freshNonce",
		"submitTransaction",
	}
	assertCalls(t, backend.calls, wantCalls)
}

func TestExpiredDelegatedAllowanceTriggersApproval(t *testing.T) {
	backend := &fakeBackend{
		erc20Allowance: big.NewInt(10_000_000),
		delegatedAllowance: model.Allowance{
			Amount:     big.NewInt(10_000_000),
			Expiration: testNow, // already lapsed
		},
	}

	res, err := newTestOrchestrator(backend).Execute(context.Background(), orchOwner, orchIntent(orchWETH), router.KindCommands)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Approvals) != 1 {
		t.Fatalf("expected one delegated approval, got %d", len(res.Approvals))
	}
}

func TestApprovalFailureAborts(t *testing.T) {
	backend := &fakeBackend{
		erc20Allowance:  big.NewInt(0),
		approveERC20Err: fmt.Errorf("execution reverted"),
	}

	_, err := newTestOrchestrator(backend).Execute(context.Background(), orchOwner, orchIntent(orchWETH), router.KindCommands)

	var approvalErr *ApprovalError
	if !errors.As(err, &approvalErr) {
		t.Fatalf("expected ApprovalError, got %v", err)
	}
	if approvalErr.Step != "erc20" {
		t.Fatalf("step mismatch: %s", approvalErr.Step)
	}
	for _, call := range backend.calls {
		if call == "submitTransaction" {
			t.Fatalf("swap must not be submitted after an approval failure")
		}
	}
}

func TestConfirmationTimeoutAborts(t *testing.T) {
	backend := &fakeBackend{
		erc20Allowance: big.NewInt(0),
		waitErr:        fmt.Errorf("not confirmed within window"),
	}

	_, err := newTestOrchestrator(backend).Execute(context.Background(), orchOwner, orchIntent(orchWETH), router.KindCommands)

	var approvalErr *ApprovalError
	if !errors.As(err, &approvalErr) {
		t.Fatalf("expected ApprovalError, got %v", err)
	}
	if approvalErr.TxHash == (common.Hash{}) {
		t.Fatalf("timeout error should carry the tx hash")
	}
}

func TestSubmitFailureIsTyped(t *testing.T) {
	backend := &fakeBackend{submitErr: fmt.Errorf("execution reverted: Too little received")}

	_, err := newTestOrchestrator(backend).Execute(context.Background(), orchOwner, orchIntent(orchETH), router.KindCommands)

	var submitErr *SubmitError
	if !errors.As(err, &submitErr) {
		t.Fatalf("expected SubmitError, got %v", err)
	}
	if submitErr.Hint == "" {
		t.Fatalf("submit error should carry a user hint")
	}
}

func TestPastDeadlineRejectedBeforeAnyCall(t *testing.T) {
	backend := &fakeBackend{}
	intent := orchIntent(orchWETH)
	intent.Deadline = testNow - 1

	_, err := newTestOrchestrator(backend).Execute(context.Background(), orchOwner, intent, router.KindCommands)
	if !errors.Is(err, ErrDeadlineNotFuture) {
		t.Fatalf("expected ErrDeadlineNotFuture, got %v", err)
	}
	if len(backend.calls) != 0 {
		t.Fatalf("no backend calls expected, saw %v", backend.calls)
	}
}

func assertStates(t *testing.T, got, want []State) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("state trace mismatch: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("state %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func assertCalls(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("call trace mismatch:\ngot  %v\nwant %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call %d: got %s, want %s", i, got[i], want[i])
		}
	}
}
