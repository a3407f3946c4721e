package parser

import (
	"fmt"
	"strings"
	"time"

	"growdash/internal/types"
)

// parseFlatTradebook handles the common case: one header row followed by one
// trade per row. Row-level defects (blank symbol, unrecognizable side,
// non-numeric quantity or price) skip the row silently; a missing required
// column or an unresolvable timestamp aborts the whole attempt so the
// dispatcher can fall back to the statement path.
func parseFlatTradebook(content string) ([]types.Trade, error) {
	rows, err := readRows(content)
	if err != nil {
		return nil, err
	}

	// Drop fully-empty rows up front.
	filtered := rows[:0]
	for _, row := range rows {
		if !rowIsBlank(row) {
			filtered = append(filtered, row)
		}
	}
	rows = filtered

	if len(rows) == 0 {
		return []types.Trade{}, nil
	}

	header := rows[0]
	// A row wider than the header means this is not a single flat table
	// (statement exports stack blocks of differing shape).
	for i, row := range rows[1:] {
		if len(row) > len(header) {
			return nil, fmt.Errorf("unable to parse CSV: row %d has %d fields, header has %d", i+2, len(row), len(header))
		}
	}

	colMap := mapColumns(header)
	if err := colMap.checkRequired(); err != nil {
		return nil, err
	}

	trades := []types.Trade{}
	for i, row := range rows[1:] {
		symbol := colMap.cell(row, colSymbol)
		if symbol == "" {
			continue
		}

		side := normalizeSide(colMap.cell(row, colSide))
		if side == "" {
			continue
		}

		quantityNum, okQty := parseNumeric(colMap.cell(row, colQuantity))
		price, okPrice := parseNumeric(colMap.cell(row, colPrice))
		if !okQty || !okPrice {
			continue
		}
		quantity := int(abs(quantityNum))
		if quantity <= 0 {
			continue
		}

		tradedAt, ok := resolveTimestamp(colMap, row)
		if !ok {
			return nil, &UnparsableTimestampError{Row: i + 2}
		}

		strike, optionType := ExtractOptionMeta(symbol)
		if colMap.has(colStrike) {
			if explicit, ok := parseNumeric(colMap.cell(row, colStrike)); ok {
				strike = &explicit
			}
		}
		if colMap.has(colOptionType) {
			explicit := strings.ToUpper(colMap.cell(row, colOptionType))
			if explicit == types.OptionCall || explicit == types.OptionPut {
				optionType = explicit
			}
		}

		expiry := ExtractExpiryFromSymbol(symbol)
		if colMap.has(colExpiry) {
			if explicit, ok := parseExpiryCell(colMap.cell(row, colExpiry)); ok {
				expiry = &explicit
			}
		}

		payload := make(map[string]any, len(header))
		for idx, name := range header {
			var value any
			if idx < len(row) && row[idx] != "" {
				value = row[idx]
			}
			payload[name] = value
		}

		trades = append(trades, NewTrade(TradeParams{
			OrderID:    colMap.cell(row, colOrderID),
			Symbol:     symbol,
			Exchange:   colMap.cell(row, colExchange),
			Segment:    colMap.cell(row, colSegment),
			Side:       side,
			Quantity:   quantity,
			Price:      price,
			TradedAt:   tradedAt,
			Strike:     strike,
			OptionType: optionType,
			Expiry:     expiry,
			RawPayload: payload,
		}))
	}

	return trades, nil
}

// normalizeSide classifies by first letter: anything starting with B is a
// buy, S a sell; everything else is unusable and skips the row.
func normalizeSide(raw string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(upper, "B"):
		return types.SideBuy
	case strings.HasPrefix(upper, "S"):
		return types.SideSell
	}
	return ""
}

// resolveTimestamp applies the documented precedence: a combined datetime
// column wins if it parses, then separate date+time columns, then a
// date-only column.
func resolveTimestamp(colMap columnMap, row []string) (time.Time, bool) {
	if colMap.has(colDatetime) {
		if t, ok := parseDateTime(colMap.cell(row, colDatetime)); ok {
			return t, true
		}
	}
	if colMap.has(colDate) && colMap.has(colTime) {
		date, okDate := parseDate(colMap.cell(row, colDate))
		clock, okClock := parseClock(colMap.cell(row, colTime))
		if okDate && okClock {
			return combine(date, clock), true
		}
	}
	if colMap.has(colDate) {
		if t, ok := parseDate(colMap.cell(row, colDate)); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseExpiryCell accepts either a date or a full datetime in an explicit
// expiry column, keeping the date part.
func parseExpiryCell(value string) (time.Time, bool) {
	if t, ok := parseDate(value); ok {
		return t, true
	}
	if t, ok := parseDateTime(value); ok {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
