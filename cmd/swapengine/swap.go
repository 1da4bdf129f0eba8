package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapEngine/internal/chain"
	"swapEngine/internal/config"
	"swapEngine/internal/dex"
	"swapEngine/internal/model"
	"swapEngine/internal/registry"
	"swapEngine/internal/router"
	"swapEngine/internal/swap"
)

func runSwap(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSwap(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if err := swap.ValidateTolerance(int64(cfg.SlippageBps)); err != nil {
		return err
	}

	kind, err := parseRouterKind(cfg.Router)
	if err != nil {
		return err
	}

	dep, err := registry.DeploymentFor(cfg.ChainID)
	if err != nil {
		return err
	}
	if cfg.StateAPIURL != "" {
		dep.StateAPIURL = cfg.StateAPIURL
	}

	tokens := registry.NewTokenRegistry(cfg.ChainID)

	tokenInFlag, _ := cmd.Flags().GetString("token-in")
	tokenIn, err := lookupToken(tokens, tokenInFlag)
	if err != nil {
		return fmt.Errorf("token-in: %w", err)
	}
	tokenOutFlag, _ := cmd.Flags().GetString("token-out")
	tokenOut, err := lookupToken(tokens, tokenOutFlag)
	if err != nil {
		return fmt.Errorf("token-out: %w", err)
	}
	amountFlag, _ := cmd.Flags().GetString("amount")
	amountIn, err := parseAmount(amountFlag)
	if err != nil {
		return err
	}

	owner, err := parseOwner(cfg.Owner)
	if err != nil {
		return fmt.Errorf("owner: %w", err)
	}
	recipient := owner
	if cfg.Recipient != "" {
		recipient, err = parseOwner(cfg.Recipient)
		if err != nil {
			return fmt.Errorf("recipient: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	aggregator := newAggregator(chainClient, dep, cfg.Config, logger)

	best, err := aggregator.BestQuote(ctx, tokenIn, tokenOut, amountIn)
	if err != nil {
		return err
	}

	intent := model.SwapIntent{
		TokenIn:      tokenIn,
		TokenOut:     tokenOut,
		AmountIn:     amountIn,
		AmountOutMin: swap.MinimumOut(best.AmountOut, int64(cfg.SlippageBps)),
		Recipient:    recipient,
		Deadline:     swap.Deadline(uint64(time.Now().Unix()), cfg.DeadlineMinutes),
		Fee:          best.Fee,
	}

	logger.Info("swap start",
		zap.String("route", best.RouteLabel),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out_min", intent.AmountOutMin.String()),
		zap.Uint64("slippage_bps", cfg.SlippageBps),
		zap.Uint64("deadline", intent.Deadline),
	)

	// Without a relay there is nothing to sign with; encode and print the
	// payload instead of executing.
	if cfg.RelayURL == "" {
		encoded, err := router.NewEncoder(dep).Encode(intent, kind)
		if err != nil {
			return err
		}
		fmt.Printf("to:    %s\n", encoded.To.Hex())
		fmt.Printf("value: %s\n", encoded.Value)
		fmt.Printf("data:  %s\n", hexutil.Encode(encoded.Data))
		return nil
	}

	relay := dex.NewHTTPRelay(cfg.RelayURL, owner)
	backend := dex.NewChainBackend(chainClient, relay, dep, logger)
	orchestrator := swap.NewOrchestrator(backend, router.NewEncoder(dep), dep, logger)

	result, err := orchestrator.Execute(ctx, owner, intent, kind)
	if err != nil {
		return err
	}

	for _, approval := range result.Approvals {
		fmt.Printf("approval: %s\n", approval.Hex())
	}
	fmt.Printf("swap tx:  %s\n", result.TxHash.Hex())

	record := model.SwapRecord{
		ChainID:      cfg.ChainID,
		Owner:        owner.Hex(),
		TokenIn:      tokenIn.Symbol,
		TokenOut:     tokenOut.Symbol,
		AmountIn:     amountIn.String(),
		AmountOutMin: intent.AmountOutMin.String(),
		Fee:          uint32(best.Fee),
		TxHash:       result.TxHash.Hex(),
		SubmittedAt:  time.Now().UTC(),
	}

	sinks, closeSinks := auditSinks(ctx, cfg.Config, logger)
	defer closeSinks()
	for _, sink := range sinks {
		if err := sink.PutSwaps([]model.SwapRecord{record}); err != nil {
			logger.Warn("write swap audit", zap.Error(err))
		}
	}

	return nil
}
