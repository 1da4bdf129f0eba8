package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapEngine/internal/chain"
	"swapEngine/internal/config"
	"swapEngine/internal/dex"
	"swapEngine/internal/model"
	"swapEngine/internal/quote"
	"swapEngine/internal/registry"
	"swapEngine/internal/storage"
	"swapEngine/internal/storage/postgres"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	aggregator := newAggregator(chainClient, dep, cfg, logger)

	logger.Info("quote start",
		zap.String("token_in", tokenIn.Symbol),
		zap.String("token_out", tokenOut.Symbol),
		zap.String("amount_in", amountIn.String()),
	)

	best, err := aggregator.BestQuote(ctx, tokenIn, tokenOut, amountIn)
	if err != nil {
		return err
	}

	fmt.Printf("route:        %s\n", best.RouteLabel)
	fmt.Printf("amount out:   %s\n", best.AmountOut)
	fmt.Printf("fee tier:     %s\n", best.Fee)
	fmt.Printf("price impact: %s\n", best.PriceImpact)

	record := model.QuoteRecord{
		ChainID:     cfg.ChainID,
		Seq:         best.Seq,
		TokenIn:     tokenIn.Symbol,
		TokenOut:    tokenOut.Symbol,
		AmountIn:    amountIn.String(),
		AmountOut:   best.AmountOut.String(),
		Fee:         uint32(best.Fee),
		PriceImpact: best.PriceImpact.String(),
		Route:       best.RouteLabel,
		QuotedAt:    time.Now().UTC(),
	}

	sinks, closeSinks := auditSinks(ctx, cfg, logger)
	defer closeSinks()
	for _, sink := range sinks {
		if err := sink.PutQuotes([]model.QuoteRecord{record}); err != nil {
			logger.Warn("write quote audit", zap.Error(err))
		}
	}

	return nil
}

// newAggregator wires the pool state resolver and the quoter simulator
// over one chain client.
func newAggregator(chainClient *chain.Client, dep registry.Deployment, cfg config.Config, logger *zap.Logger) *quote.Aggregator {
	var stateAPI *dex.StateAPIClient
	if dep.StateAPIURL != "" {
		stateAPI = dex.NewStateAPIClient(dep.StateAPIURL)
	}

	resolver := dex.NewResolver(chainClient, dep, stateAPI, logger)
	resolver.SetRetryPolicy(cfg.MaxRetries, cfg.RetryBackoff)

	quoter := dex.NewQuoter(chainClient, dep, logger)

	return quote.NewAggregator(resolver, quoter, dep, logger)
}

// auditSinks returns every configured audit sink. The JSONL sink is
// always on; Postgres joins when a DSN is configured.
func auditSinks(ctx context.Context, cfg config.Config, logger *zap.Logger) ([]storage.AuditSink, func()) {
	sinks := []storage.AuditSink{storage.NewJsonlStorage(cfg.AuditDir)}
	closeFn := func() {}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			logger.Warn("postgres audit disabled", zap.Error(err))
		} else {
			sinks = append(sinks, store)
			closeFn = store.Close
		}
	}

	return sinks, closeFn
}
