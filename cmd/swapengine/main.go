package main

import (
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"swapEngine/internal/model"
	"swapEngine/internal/registry"
	"swapEngine/internal/router"
)

func main() {
	root := &cobra.Command{
		Use:          "swapengine",
		Short:        "DEX swap execution engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Find the best quote for a token pair",
		RunE:  runQuote,
	}
	addEngineFlags(quoteCmd)
	quoteCmd.Flags().String("token-in", "", "input token (symbol or address)")
	quoteCmd.Flags().String("token-out", "", "output token (symbol or address)")
	quoteCmd.Flags().String("amount", "", "input amount in base units")

	root.AddCommand(quoteCmd)

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Quote, approve, and submit a swap",
		RunE:  runSwap,
	}
	addEngineFlags(swapCmd)
	swapCmd.Flags().String("token-in", "", "input token (symbol or address)")
	swapCmd.Flags().String("token-out", "", "output token (symbol or address)")
	swapCmd.Flags().String("amount", "", "input amount in base units")
	swapCmd.Flags().String("owner", "", "owner address")
	swapCmd.Flags().String("recipient", "", "recipient address (defaults to owner)")
	swapCmd.Flags().String("relay-url", "", "transaction relay URL (empty prints the encoded payload)")
	swapCmd.Flags().Uint64("slippage-bps", 50, "slippage tolerance in basis points")
	swapCmd.Flags().Uint64("deadline-minutes", 20, "deadline window in minutes")
	swapCmd.Flags().String("router", "commands", "router family (path, commands)")

	root.AddCommand(swapCmd)

	allowanceCmd := &cobra.Command{
		Use:   "allowance",
		Short: "Show token and delegated allowances for an owner",
		RunE:  runAllowance,
	}
	addEngineFlags(allowanceCmd)
	allowanceCmd.Flags().String("owner", "", "owner address")
	allowanceCmd.Flags().String("token", "", "token (symbol or address)")
	allowanceCmd.Flags().String("router", "commands", "router family (path, commands)")

	root.AddCommand(allowanceCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "chain RPC URL")
	cmd.Flags().Uint64("chain-id", 1, "chain id")
	cmd.Flags().String("state-api-url", "", "hosted pool state API URL")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for audit history")
	cmd.Flags().String("audit-dir", "./data", "directory for JSONL audit files")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts for reads")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func lookupToken(tokens *registry.TokenRegistry, input string) (model.Token, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return model.Token{}, fmt.Errorf("token is required")
	}
	if strings.HasPrefix(trimmed, "0x") {
		if !common.IsHexAddress(trimmed) {
			return model.Token{}, fmt.Errorf("invalid token address %q", input)
		}
		return tokens.ByAddress(common.HexToAddress(trimmed))
	}
	return tokens.BySymbol(trimmed)
}

func parseOwner(input string) (common.Address, error) {
	trimmed := strings.TrimSpace(input)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("invalid address %q", input)
	}
	return common.HexToAddress(trimmed), nil
}

func parseAmount(input string) (*big.Int, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be a positive base-unit integer, got %q", input)
	}
	return amount, nil
}

func parseRouterKind(input string) (router.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "path":
		return router.KindPath, nil
	case "commands", "":
		return router.KindCommands, nil
	default:
		return 0, fmt.Errorf("unknown router family %q (want path or commands)", input)
	}
}
