package storage

import "swapEngine/internal/model"

// AuditSink persists quote and swap history.
type AuditSink interface {
	PutQuotes(quotes []model.QuoteRecord) error
	PutSwaps(swaps []model.SwapRecord) error
}
