package interfaces

import (
	"context"

	"growdash/internal/types"
)

// TradeStore is the persistence boundary. SaveTrades must be idempotent on
// the trade hash: re-inserting an already-stored trade is a silent no-op and
// counts as skipped, which is what makes repeated uploads of overlapping
// exports safe.
type TradeStore interface {
	// SaveTrades inserts the given trades, skipping any whose hash already
	// exists, and reports how many were actually inserted.
	SaveTrades(ctx context.Context, trades []types.Trade) (inserted int, err error)

	// ListTrades returns stored trades newest first.
	ListTrades(ctx context.Context, limit, offset int) ([]types.Trade, error)

	// AllTrades returns the full ledger ordered by (traded_at, insertion id)
	// ascending, the order the matching engine depends on.
	AllTrades(ctx context.Context) ([]types.Trade, error)
}
