package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapEngine/internal/model"
)

// Store provides Postgres persistence for quote and swap history.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutQuotes inserts a batch of quote records.
func (s *Store) PutQuotes(quotes []model.QuoteRecord) error {
	if len(quotes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, q := range quotes {
		batch.Queue(`
			INSERT INTO quote_history (
				chain_id, seq, token_in, token_out, amount_in, amount_out,
				fee, price_impact, route, quoted_at, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		`,
			int64(q.ChainID),
			int64(q.Seq),
			q.TokenIn,
			q.TokenOut,
			q.AmountIn,
			q.AmountOut,
			int64(q.Fee),
			q.PriceImpact,
			q.Route,
			q.QuotedAt,
		)
	}
	return s.sendBatch(batch, len(quotes))
}

// PutSwaps inserts a batch of swap records.
func (s *Store) PutSwaps(swaps []model.SwapRecord) error {
	if len(swaps) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, sw := range swaps {
		batch.Queue(`
			INSERT INTO swap_history (
				chain_id, owner, token_in, token_out, amount_in, amount_out_min,
				fee, tx_hash, submitted_at, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
			ON CONFLICT (chain_id, tx_hash) DO NOTHING
		`,
			int64(sw.ChainID),
			sw.Owner,
			sw.TokenIn,
			sw.TokenOut,
			sw.AmountIn,
			sw.AmountOutMin,
			int64(sw.Fee),
			sw.TxHash,
			sw.SubmittedAt,
		)
	}
	return s.sendBatch(batch, len(swaps))
}

func (s *Store) sendBatch(batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(context.Background(), batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
