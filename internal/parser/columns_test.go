package parser

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeCol(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Trade Type", "tradetype"},
		{"trade_type", "tradetype"},
		{"TradeType", "tradetype"},
		{"  Qty. ", "qty"},
		{"Order Executed Time", "orderexecutedtime"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := normalizeCol(tc.in); got != tc.want {
			t.Errorf("normalizeCol(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMapColumnsResolvesAliases(t *testing.T) {
	header := []string{"Symbol", "Trade Type", "Qty", "Average Price", "Order Executed Time", "Order ID"}
	m := mapColumns(header)

	wantIdx := map[string]int{
		colSymbol:   0,
		colSide:     1,
		colQuantity: 2,
		colPrice:    3,
		colDatetime: 4,
		colOrderID:  5,
	}
	for field, want := range wantIdx {
		idx, ok := m[field]
		if !ok {
			t.Errorf("Expected %s to resolve", field)
			continue
		}
		if idx != want {
			t.Errorf("Expected %s at index %d, got %d", field, want, idx)
		}
	}
}

func TestMapColumnsFirstAliasWins(t *testing.T) {
	// "tradingsymbol" precedes "symbol" in the alias list.
	header := []string{"symbol", "tradingsymbol"}
	m := mapColumns(header)

	if m[colSymbol] != 1 {
		t.Errorf("Expected tradingsymbol (index 1) to win, got %d", m[colSymbol])
	}
}

func TestMapColumnsNoFuzzyMatching(t *testing.T) {
	m := mapColumns([]string{"symbols", "pricing"})

	if m.has(colSymbol) {
		t.Error("Expected 'symbols' not to resolve to symbol")
	}
	if m.has(colPrice) {
		t.Error("Expected 'pricing' not to resolve to price")
	}
}

func TestCheckRequired(t *testing.T) {
	m := mapColumns([]string{"symbol", "trade type"})

	err := m.checkRequired()
	if err == nil {
		t.Fatal("Expected missing-columns error")
	}

	var mce *MissingColumnsError
	if !errors.As(err, &mce) {
		t.Fatalf("Expected MissingColumnsError, got %T", err)
	}
	if len(mce.Missing) != 2 {
		t.Errorf("Expected 2 missing columns, got %v", mce.Missing)
	}
	if !strings.Contains(err.Error(), "quantity") || !strings.Contains(err.Error(), "price") {
		t.Errorf("Expected quantity and price named in error, got %q", err.Error())
	}
}

func TestCellShortRow(t *testing.T) {
	m := mapColumns([]string{"symbol", "qty", "price"})
	row := []string{"NIFTY"}

	if got := m.cell(row, colQuantity); got != "" {
		t.Errorf("Expected empty cell for short row, got %q", got)
	}
}
