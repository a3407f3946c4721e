// Package analytics computes realized-performance metrics from the canonical
// trade ledger: FIFO lot matching into closed positions, then aggregation
// into the dashboard snapshot. Everything here is a pure in-memory
// computation over the full trade set; no state survives between calls.
package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"growdash/internal/types"
)

// instrumentKey is the unit of position tracking. Two trades offset each
// other only when their keys are equal.
type instrumentKey struct {
	Symbol     string
	Strike     string // formatted to 2 decimals, or ""
	OptionType string
	Expiry     string // ISO date, or ""
}

// openLot is a quantity opened at one price and time, owned exclusively by
// the queue it sits in. Quantity is mutated down as it is matched and the lot
// is removed exactly when it reaches zero.
type openLot struct {
	quantity int
	price    float64
	openedAt time.Time
}

// MatchTrades replays the ledger in time order and closes positions FIFO:
// a BUY consumes the instrument's oldest open short lots, a SELL its oldest
// open long lots, and any unmatched remainder opens a new lot on its own
// side. The input order among equal timestamps is the tie-break, so callers
// must pass trades in stored order; the sort here is stable for that reason.
func MatchTrades(trades []types.Trade) types.MatchResult {
	ordered := make([]types.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TradedAt.Before(ordered[j].TradedAt)
	})

	openLongs := map[instrumentKey][]*openLot{}
	openShorts := map[instrumentKey][]*openLot{}
	closed := []types.ClosedPosition{}
	strikeQuantity := map[string]int{}

	for _, trade := range ordered {
		if trade.Quantity <= 0 {
			continue
		}
		side := strings.ToUpper(trade.Side)
		if side != types.SideBuy && side != types.SideSell {
			continue
		}

		optionType := normalizeOptionType(trade.OptionType, trade.Symbol)
		strikeKey := types.OptionUnknown
		if trade.Strike != nil {
			strikeKey = fmt.Sprintf("%.2f", *trade.Strike)
		}
		strikeQuantity[strikeKey] += trade.Quantity

		key := keyFor(trade, optionType)

		var against, same map[instrumentKey][]*openLot
		if side == types.SideBuy {
			against, same = openShorts, openLongs
		} else {
			against, same = openLongs, openShorts
		}

		remaining := trade.Quantity
		queue := against[key]
		for remaining > 0 && len(queue) > 0 {
			lot := queue[0]
			matched := min(remaining, lot.quantity)

			var pnl float64
			if side == types.SideBuy {
				pnl = (lot.price - trade.Price) * float64(matched)
			} else {
				pnl = (trade.Price - lot.price) * float64(matched)
			}

			holding := trade.TradedAt.Sub(lot.openedAt).Minutes()
			if holding < 0 {
				holding = 0
			}

			closed = append(closed, types.ClosedPosition{
				ClosedAt:       trade.TradedAt,
				PnL:            pnl,
				OptionType:     optionType,
				Strike:         strikeKey,
				HoldingMinutes: holding,
			})

			lot.quantity -= matched
			remaining -= matched
			if lot.quantity == 0 {
				queue = queue[1:]
			}
		}
		against[key] = queue

		if remaining > 0 {
			same[key] = append(same[key], &openLot{
				quantity: remaining,
				price:    trade.Price,
				openedAt: trade.TradedAt,
			})
		}
	}

	return types.MatchResult{
		Closed:         closed,
		StrikeQuantity: strikeQuantity,
		TotalTrades:    len(ordered),
	}
}

func keyFor(trade types.Trade, optionType string) instrumentKey {
	key := instrumentKey{
		Symbol:     trade.Symbol,
		OptionType: optionType,
	}
	if trade.Strike != nil {
		key.Strike = fmt.Sprintf("%.2f", *trade.Strike)
	}
	if trade.Expiry != nil {
		key.Expiry = trade.Expiry.Format("2006-01-02")
	}
	return key
}

// normalizeOptionType prefers an explicit CE/PE, then a CE/PE symbol suffix,
// else UNKNOWN. Kept separate from the parser's inference so matching never
// depends on ingestion having run symbol rules.
func normalizeOptionType(optionType, symbol string) string {
	upper := strings.ToUpper(strings.TrimSpace(optionType))
	if upper == types.OptionCall || upper == types.OptionPut {
		return upper
	}
	upperSymbol := strings.ToUpper(symbol)
	switch {
	case strings.HasSuffix(upperSymbol, types.OptionCall):
		return types.OptionCall
	case strings.HasSuffix(upperSymbol, types.OptionPut):
		return types.OptionPut
	}
	return types.OptionUnknown
}
