package analytics

import (
	"testing"
	"time"

	"growdash/internal/types"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 26, hour, minute, 0, 0, time.UTC)
}

func floatPtr(v float64) *float64 { return &v }

func buyTrade(symbol string, qty int, price float64, t time.Time) types.Trade {
	return types.Trade{Symbol: symbol, Side: types.SideBuy, Quantity: qty, Price: price, TradedAt: t}
}

func sellTrade(symbol string, qty int, price float64, t time.Time) types.Trade {
	return types.Trade{Symbol: symbol, Side: types.SideSell, Quantity: qty, Price: price, TradedAt: t}
}

func TestMatchSimpleRoundTrip(t *testing.T) {
	trades := []types.Trade{
		buyTrade("NIFTY 22500 CE", 50, 100, at(10, 0)),
		sellTrade("NIFTY 22500 CE", 50, 120, at(10, 40)),
	}

	result := MatchTrades(trades)

	if len(result.Closed) != 1 {
		t.Fatalf("Expected 1 closed position, got %d", len(result.Closed))
	}

	pos := result.Closed[0]
	if pos.PnL != 1000 {
		t.Errorf("Expected PnL 1000, got %f", pos.PnL)
	}
	if pos.HoldingMinutes != 40 {
		t.Errorf("Expected holding 40 minutes, got %f", pos.HoldingMinutes)
	}
	if pos.OptionType != types.OptionCall {
		t.Errorf("Expected option type CE, got %s", pos.OptionType)
	}
	if result.TotalTrades != 2 {
		t.Errorf("Expected 2 total trades, got %d", result.TotalTrades)
	}
}

func TestMatchFIFOOrder(t *testing.T) {
	// Two buys at different prices; the sell must close the oldest lot first.
	trades := []types.Trade{
		buyTrade("NIFTY 22500 CE", 50, 100, at(10, 0)),
		buyTrade("NIFTY 22500 CE", 50, 110, at(10, 10)),
		sellTrade("NIFTY 22500 CE", 50, 120, at(10, 30)),
	}

	result := MatchTrades(trades)

	if len(result.Closed) != 1 {
		t.Fatalf("Expected 1 closed position, got %d", len(result.Closed))
	}
	// Against the first lot: (120 - 100) * 50.
	if result.Closed[0].PnL != 1000 {
		t.Errorf("Expected FIFO PnL 1000, got %f", result.Closed[0].PnL)
	}
	if result.Closed[0].HoldingMinutes != 30 {
		t.Errorf("Expected holding 30 minutes, got %f", result.Closed[0].HoldingMinutes)
	}
}

func TestMatchPartialFill(t *testing.T) {
	// One sell sweeps two buy lots plus opens a short remainder.
	trades := []types.Trade{
		buyTrade("NIFTY 22500 CE", 30, 100, at(10, 0)),
		buyTrade("NIFTY 22500 CE", 30, 110, at(10, 10)),
		sellTrade("NIFTY 22500 CE", 70, 120, at(10, 30)),
	}

	result := MatchTrades(trades)

	if len(result.Closed) != 2 {
		t.Fatalf("Expected 2 closed positions, got %d", len(result.Closed))
	}
	if result.Closed[0].PnL != 600 {
		t.Errorf("Expected first closure PnL 600, got %f", result.Closed[0].PnL)
	}
	if result.Closed[1].PnL != 300 {
		t.Errorf("Expected second closure PnL 300, got %f", result.Closed[1].PnL)
	}

	// The leftover 10 should open a short, closeable by a later buy.
	followUp := append(trades, buyTrade("NIFTY 22500 CE", 10, 115, at(11, 0)))
	result = MatchTrades(followUp)
	if len(result.Closed) != 3 {
		t.Fatalf("Expected 3 closed positions after covering, got %d", len(result.Closed))
	}
	// Short opened at 120, covered at 115: (120 - 115) * 10.
	if result.Closed[2].PnL != 50 {
		t.Errorf("Expected short cover PnL 50, got %f", result.Closed[2].PnL)
	}
}

func TestMatchShortFirst(t *testing.T) {
	trades := []types.Trade{
		sellTrade("BANKNIFTY 48000 PE", 25, 300, at(9, 30)),
		buyTrade("BANKNIFTY 48000 PE", 25, 250, at(14, 0)),
	}

	result := MatchTrades(trades)

	if len(result.Closed) != 1 {
		t.Fatalf("Expected 1 closed position, got %d", len(result.Closed))
	}
	if result.Closed[0].PnL != 1250 {
		t.Errorf("Expected short PnL 1250, got %f", result.Closed[0].PnL)
	}
	if result.Closed[0].OptionType != types.OptionPut {
		t.Errorf("Expected option type PE, got %s", result.Closed[0].OptionType)
	}
}

func TestMatchSortsByTimestamp(t *testing.T) {
	// Out-of-order input must be replayed chronologically.
	trades := []types.Trade{
		sellTrade("NIFTY 22500 CE", 50, 120, at(11, 0)),
		buyTrade("NIFTY 22500 CE", 50, 100, at(10, 0)),
	}

	result := MatchTrades(trades)

	if len(result.Closed) != 1 {
		t.Fatalf("Expected 1 closed position, got %d", len(result.Closed))
	}
	if result.Closed[0].PnL != 1000 {
		t.Errorf("Expected PnL 1000 from chronological replay, got %f", result.Closed[0].PnL)
	}
}

func TestMatchSeparatesInstrumentKeys(t *testing.T) {
	// Same symbol, different strikes: lots must never cross-match.
	trades := []types.Trade{
		{Symbol: "NIFTY", Side: types.SideBuy, Quantity: 50, Price: 100, TradedAt: at(10, 0), Strike: floatPtr(22500), OptionType: types.OptionCall},
		{Symbol: "NIFTY", Side: types.SideSell, Quantity: 50, Price: 120, TradedAt: at(10, 30), Strike: floatPtr(22600), OptionType: types.OptionCall},
	}

	result := MatchTrades(trades)

	if len(result.Closed) != 0 {
		t.Errorf("Expected no closures across different strikes, got %d", len(result.Closed))
	}
}

func TestMatchSkipsInvalidTrades(t *testing.T) {
	trades := []types.Trade{
		{Symbol: "NIFTY", Side: "HOLD", Quantity: 50, Price: 100, TradedAt: at(10, 0)},
		{Symbol: "NIFTY", Side: types.SideBuy, Quantity: 0, Price: 100, TradedAt: at(10, 5)},
		buyTrade("NIFTY", 50, 100, at(10, 10)),
		sellTrade("NIFTY", 50, 110, at(10, 40)),
	}

	result := MatchTrades(trades)

	if len(result.Closed) != 1 {
		t.Fatalf("Expected 1 closed position, got %d", len(result.Closed))
	}
	if result.Closed[0].PnL != 500 {
		t.Errorf("Expected PnL 500, got %f", result.Closed[0].PnL)
	}
}

func TestMatchQuantityConservation(t *testing.T) {
	trades := []types.Trade{
		buyTrade("NIFTY 22500 CE", 100, 100, at(10, 0)),
		sellTrade("NIFTY 22500 CE", 40, 110, at(10, 20)),
		sellTrade("NIFTY 22500 CE", 40, 105, at(10, 40)),
	}

	result := MatchTrades(trades)

	if len(result.Closed) != 2 {
		t.Fatalf("Expected 2 closed positions, got %d", len(result.Closed))
	}
	if result.Closed[0].PnL != 400 {
		t.Errorf("Expected first closure PnL 400, got %f", result.Closed[0].PnL)
	}
	if result.Closed[1].PnL != 200 {
		t.Errorf("Expected second closure PnL 200, got %f", result.Closed[1].PnL)
	}

	// 20 units remain open; a final sell closes exactly them.
	followUp := append(trades, sellTrade("NIFTY 22500 CE", 30, 100, at(11, 0)))
	result = MatchTrades(followUp)
	if len(result.Closed) != 3 {
		t.Fatalf("Expected 3 closed positions, got %d", len(result.Closed))
	}
	if result.Closed[2].PnL != 0 {
		t.Errorf("Expected final closure PnL 0, got %f", result.Closed[2].PnL)
	}
}

func TestMatchStrikeQuantityTally(t *testing.T) {
	trades := []types.Trade{
		{Symbol: "NIFTY", Side: types.SideBuy, Quantity: 50, Price: 100, TradedAt: at(10, 0), Strike: floatPtr(22500)},
		{Symbol: "NIFTY", Side: types.SideSell, Quantity: 50, Price: 110, TradedAt: at(10, 30), Strike: floatPtr(22500)},
		buyTrade("RELIANCE", 10, 2900, at(11, 0)),
	}

	result := MatchTrades(trades)

	if result.StrikeQuantity["22500.00"] != 100 {
		t.Errorf("Expected strike tally 100, got %d", result.StrikeQuantity["22500.00"])
	}
	if result.StrikeQuantity[types.OptionUnknown] != 10 {
		t.Errorf("Expected UNKNOWN tally 10, got %d", result.StrikeQuantity[types.OptionUnknown])
	}
}

func TestMatchHoldingNeverNegative(t *testing.T) {
	// Equal timestamps: input order is the tie-break, holding clamps at zero.
	trades := []types.Trade{
		buyTrade("NIFTY 22500 CE", 50, 100, at(10, 0)),
		sellTrade("NIFTY 22500 CE", 50, 110, at(10, 0)),
	}

	result := MatchTrades(trades)

	if len(result.Closed) != 1 {
		t.Fatalf("Expected 1 closed position, got %d", len(result.Closed))
	}
	if result.Closed[0].HoldingMinutes != 0 {
		t.Errorf("Expected holding 0 minutes, got %f", result.Closed[0].HoldingMinutes)
	}
}

func TestNormalizeOptionType(t *testing.T) {
	cases := []struct {
		optionType string
		symbol     string
		want       string
	}{
		{"CE", "ANYTHING", types.OptionCall},
		{"pe", "ANYTHING", types.OptionPut},
		{"", "NIFTY 22500 CE", types.OptionCall},
		{"", "NIFTY 22500 PE", types.OptionPut},
		{"", "RELIANCE", types.OptionUnknown},
		{"X", "RELIANCE", types.OptionUnknown},
	}

	for _, tc := range cases {
		if got := normalizeOptionType(tc.optionType, tc.symbol); got != tc.want {
			t.Errorf("normalizeOptionType(%q, %q) = %q, want %q", tc.optionType, tc.symbol, got, tc.want)
		}
	}
}
