package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"swapEngine/internal/chain"
	"swapEngine/internal/config"
	"swapEngine/internal/dex"
	"swapEngine/internal/registry"
	"swapEngine/internal/router"
)

func runAllowance(cmd *cobra.Command, _ []string) error {
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

	kind, err := parseRouterKind(cfg.Router)
	if err != nil {
		return err
	}

	dep, err := registry.DeploymentFor(cfg.ChainID)
	if err != nil {
		return err
	}

	tokens := registry.NewTokenRegistry(cfg.ChainID)
	tokenFlag, _ := cmd.Flags().GetString("token")
	token, err := lookupToken(tokens, tokenFlag)
	if err != nil {
		return fmt.Errorf("token: %w", err)
	}
	if token.IsNative() {
		return fmt.Errorf("the native asset carries no allowances")
	}

	owner, err := parseOwner(cfg.Owner)
	if err != nil {
		return fmt.Errorf("owner: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	// Reads only, no relay.
	backend := dex.NewChainBackend(chainClient, nil, dep, logger)

	erc20, err := backend.ERC20Allowance(ctx, token.Address, owner, dep.Permit2)
	if err != nil {
		return fmt.Errorf("read erc20 allowance: %w", err)
	}

	spender := dep.UniversalRouter
	if kind == router.KindPath {
		spender = dep.SwapRouter
	}
	delegated, err := backend.DelegatedAllowance(ctx, owner, token.Address, spender)
	if err != nil {
		return fmt.Errorf("read delegated allowance: %w", err)
	}

	fmt.Printf("token:               %s (%s)\n", token.Symbol, token.Address.Hex())
	fmt.Printf("erc20 allowance:     %s\n", erc20)
	fmt.Printf("delegated allowance: %s\n", delegated.Amount)
	if delegated.Expiration != 0 {
		fmt.Printf("delegated expires:   %s\n", time.Unix(int64(delegated.Expiration), 0).UTC().Format(time.RFC3339))
	}

	return nil
}
