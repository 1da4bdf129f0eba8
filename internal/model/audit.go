package model

import "time"

// QuoteRecord is the storage form of a best quote returned to the user.
// Amounts are decimal strings in base units.
type QuoteRecord struct {
	ChainID     uint64    `json:"chain_id"`
	Seq         uint64    `json:"seq"`
	TokenIn     string    `json:"token_in"`
	TokenOut    string    `json:"token_out"`
	AmountIn    string    `json:"amount_in"`
	AmountOut   string    `json:"amount_out"`
	Fee         uint32    `json:"fee"`
	PriceImpact string    `json:"price_impact"`
	Route       string    `json:"route"`
	QuotedAt    time.Time `json:"quoted_at"`
}

// SwapRecord is the storage form of a submitted swap.
type SwapRecord struct {
	ChainID      uint64    `json:"chain_id"`
	Owner        string    `json:"owner"`
	TokenIn      string    `json:"token_in"`
	TokenOut     string    `json:"token_out"`
	AmountIn     string    `json:"amount_in"`
	AmountOutMin string    `json:"amount_out_min"`
	Fee          uint32    `json:"fee"`
	TxHash       string    `json:"tx_hash"`
	SubmittedAt  time.Time `json:"submitted_at"`
}
