package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// Canonical field names resolvable from a tradebook header.
const (
	colOrderID    = "order_id"
	colSymbol     = "symbol"
	colExchange   = "exchange"
	colSegment    = "segment"
	colSide       = "side"
	colQuantity   = "quantity"
	colPrice      = "price"
	colDatetime   = "datetime"
	colDate       = "date"
	colTime       = "time"
	colStrike     = "strike"
	colOptionType = "option_type"
	colExpiry     = "expiry"
)

// columnAliases maps each canonical field to its accepted header spellings,
// in priority order. The first alias whose normalized form matches a header
// wins. This table is a compatibility surface: brokers name the same column
// differently across export formats, and changing an entry changes which
// files parse.
var columnAliases = map[string][]string{
	colOrderID:    {"orderid", "order id", "orderno", "order number", "exchange order id"},
	colSymbol:     {"tradingsymbol", "symbol", "instrument", "scrip", "security"},
	colExchange:   {"exchange"},
	colSegment:    {"segment", "product", "product type"},
	colSide:       {"side", "trade type", "transaction type", "type", "action"},
	colQuantity:   {"quantity", "qty", "filled quantity", "traded qty"},
	colPrice:      {"price", "average price", "trade price", "executed price"},
	colDatetime:   {"datetime", "trade time", "order executed time", "timestamp"},
	colDate:       {"date", "trade date"},
	colTime:       {"time"},
	colStrike:     {"strike", "strike price"},
	colOptionType: {"option type", "optiontype", "type cepe"},
	colExpiry:     {"expiry", "expiry date"},
}

// requiredColumns must all resolve for the flat-table path to proceed.
var requiredColumns = []string{colSymbol, colSide, colQuantity, colPrice}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeCol lowercases a header cell and strips everything that is not a
// letter or digit, so "Trade Type", "trade_type" and "TradeType" compare
// equal.
func normalizeCol(name string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "")
}

// columnMap maps canonical field names to the raw header index they resolved
// to. Absent fields are simply not present.
type columnMap map[string]int

// mapColumns resolves raw headers against the alias table. No fuzzy matching:
// equality of normalized forms only.
func mapColumns(headers []string) columnMap {
	normalized := make(map[string]int, len(headers))
	for idx, h := range headers {
		key := normalizeCol(h)
		if key == "" {
			continue
		}
		if _, seen := normalized[key]; !seen {
			normalized[key] = idx
		}
	}

	mapped := make(columnMap)
	for canonical, aliases := range columnAliases {
		for _, alias := range aliases {
			if idx, ok := normalized[normalizeCol(alias)]; ok {
				mapped[canonical] = idx
				break
			}
		}
	}
	return mapped
}

// has reports whether the canonical field resolved to a header.
func (m columnMap) has(name string) bool {
	_, ok := m[name]
	return ok
}

// cell returns the row value for a canonical field, trimmed. Missing column
// or short row yields "".
func (m columnMap) cell(row []string, name string) string {
	idx, ok := m[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// MissingColumnsError is raised when a flat tradebook lacks any of the
// required columns. Fatal for the flat path; the dispatcher then tries the
// realized-statement path.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("CSV is missing required columns for parsing: %s", strings.Join(e.Missing, ", "))
}

// checkRequired returns a MissingColumnsError naming every unresolved
// required field, or nil when all are present.
func (m columnMap) checkRequired() error {
	var missing []string
	for _, name := range requiredColumns {
		if !m.has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Missing: missing}
	}
	return nil
}
