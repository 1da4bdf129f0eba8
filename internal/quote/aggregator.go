// Package quote discovers the best available exchange quote for a token
// pair across the candidate fee tiers.
package quote

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swapEngine/internal/model"
	"swapEngine/internal/registry"
)

// Resolver classifies pool state for a candidate triple.
type Resolver interface {
	Resolve(ctx context.Context, tokenA, tokenB model.Token, fee model.FeeTier) (model.PoolState, error)
}

// Simulator runs an exact-input swap simulation against one pool.
type Simulator interface {
	QuoteExactInputSingle(ctx context.Context, desc model.PoolDescriptor, zeroForOne bool, amountIn *big.Int) (*big.Int, error)
}

// NoPoolAvailableError reports that no candidate tier produced a usable
// quote. It carries the attempted tiers and the last diagnostic for
// observability.
type NoPoolAvailableError struct {
	TokenIn        string
	TokenOut       string
	Tiers          []model.FeeTier
	LastDiagnostic string
}

func (e *NoPoolAvailableError) Error() string {
	return fmt.Sprintf("no pool available for %s/%s across %d tiers: %s", e.TokenIn, e.TokenOut, len(e.Tiers), e.LastDiagnostic)
}

// Aggregator fans out over every candidate fee tier and keeps the quote
// with the numerically largest output.
type Aggregator struct {
	resolver Resolver
	sim      Simulator
	dep      registry.Deployment
	logger   *zap.Logger
	seq      atomic.Uint64
}

// NewAggregator builds an aggregator over the resolver and simulator.
func NewAggregator(resolver Resolver, sim Simulator, dep registry.Deployment, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{resolver: resolver, sim: sim, dep: dep, logger: logger}
}

type tierOutcome struct {
	fee        model.FeeTier
	desc       model.PoolDescriptor
	state      model.PoolState
	amountOut  *big.Int
	diagnostic string
}

func (o tierOutcome) ok() bool { return o.amountOut != nil }

// BestQuote tries every candidate tier and returns the one yielding the
// maximum output. Ties keep the first tier in priority order. If every
// tier is skipped or fails, the result is a NoPoolAvailableError, never a
// quote from a failed tier. Each call is stamped with a monotonically
// increasing sequence number; callers must discard responses whose
// sequence is below the latest one they have issued.
func (a *Aggregator) BestQuote(ctx context.Context, tokenIn, tokenOut model.Token, amountIn *big.Int) (model.Quote, error) {
	seq := a.seq.Add(1)

	if amountIn == nil || amountIn.Sign() <= 0 {
		return model.Quote{}, fmt.Errorf("amountIn must be positive")
	}

	routableIn := a.dep.Routable(tokenIn)
	routableOut := a.dep.Routable(tokenOut)
	if routableIn.Address == routableOut.Address {
		return model.Quote{}, fmt.Errorf("tokenIn and tokenOut resolve to the same pool asset")
	}

	tiers := model.AllFeeTiers()
	outcomes := make([]tierOutcome, len(tiers))

	// Tier probes are independent reads with no shared state; run them in
	// parallel and classify each result instead of failing the group.
	g, gctx := errgroup.WithContext(ctx)
	for i, fee := range tiers {
		i, fee := i, fee
		g.Go(func() error {
			outcomes[i] = a.probeTier(gctx, routableIn, routableOut, fee, amountIn)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Quote{}, err
	}

	var best *tierOutcome
	lastDiagnostic := "no tiers attempted"
	for i := range outcomes {
		o := &outcomes[i]
		if !o.ok() {
			if o.diagnostic != "" {
				lastDiagnostic = o.diagnostic
			}
			continue
		}
		if best == nil || o.amountOut.Cmp(best.amountOut) > 0 {
			best = o
		}
	}

	if best == nil {
		return model.Quote{}, &NoPoolAvailableError{
			TokenIn:        tokenIn.Symbol,
			TokenOut:       tokenOut.Symbol,
			Tiers:          tiers,
			LastDiagnostic: lastDiagnostic,
		}
	}

	q := model.Quote{
		Seq:         seq,
		AmountOut:   best.amountOut,
		Fee:         best.fee,
		Pool:        best.desc,
		PriceImpact: priceImpact(best.desc, best.state, routableIn, amountIn, best.amountOut),
		RouteLabel:  fmt.Sprintf("%s/%s %s", tokenIn.Symbol, tokenOut.Symbol, best.fee),
	}

	a.logger.Info("best quote",
		zap.Uint64("seq", seq),
		zap.String("route", q.RouteLabel),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", q.AmountOut.String()),
		zap.String("price_impact", q.PriceImpact.String()),
	)

	return q, nil
}

func (a *Aggregator) probeTier(ctx context.Context, tokenIn, tokenOut model.Token, fee model.FeeTier, amountIn *big.Int) tierOutcome {
	outcome := tierOutcome{fee: fee}

	state, err := a.resolver.Resolve(ctx, tokenIn, tokenOut, fee)
	if err != nil {
		outcome.diagnostic = fmt.Sprintf("%s: resolve failed: %v", fee, err)
		a.logger.Debug("tier resolve failed", zap.String("fee", fee.String()), zap.Error(err))
		return outcome
	}
	if !state.Initialized {
		outcome.diagnostic = fmt.Sprintf("%s: pool not initialized", fee)
		a.logger.Debug("tier skipped, pool not initialized", zap.String("fee", fee.String()), zap.Bool("exists", state.Exists))
		return outcome
	}

	desc := model.NewPoolDescriptor(tokenIn, tokenOut, fee)
	amountOut, err := a.sim.QuoteExactInputSingle(ctx, desc, desc.ZeroForOne(tokenIn), amountIn)
	if err != nil {
		outcome.diagnostic = fmt.Sprintf("%s: simulation failed: %v", fee, err)
		a.logger.Debug("tier simulation failed", zap.String("fee", fee.String()), zap.Error(err))
		return outcome
	}

	outcome.desc = desc
	outcome.state = state
	outcome.amountOut = amountOut
	return outcome
}

var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

// priceImpact derives an advisory impact figure from the realized
// input/output ratio against the pool's spot price. It is not a faithful
// AMM curvature computation and is never used for safety decisions.
func priceImpact(desc model.PoolDescriptor, state model.PoolState, tokenIn model.Token, amountIn, amountOut *big.Int) decimal.Decimal {
	if state.SqrtPriceX96 == nil || state.SqrtPriceX96.Sign() == 0 {
		return decimal.Zero
	}

	priceX192 := new(big.Int).Mul(state.SqrtPriceX96, state.SqrtPriceX96)

	expected := new(big.Int)
	if desc.ZeroForOne(tokenIn) {
		expected.Mul(amountIn, priceX192)
		expected.Quo(expected, q192)
	} else {
		expected.Mul(amountIn, q192)
		expected.Quo(expected, priceX192)
	}
	if expected.Sign() == 0 {
		return decimal.Zero
	}

	actual := decimal.NewFromBigInt(amountOut, 0)
	baseline := decimal.NewFromBigInt(expected, 0)
	impact := decimal.NewFromInt(1).Sub(actual.DivRound(baseline, 8))
	if impact.IsNegative() {
		return decimal.Zero
	}
	return impact
}
