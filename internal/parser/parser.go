// Package parser turns raw brokerage tradebook exports, in whichever CSV
// layout the broker chose, into canonical trade records. Two paths exist: a
// flat single-table tradebook and, as fallback, a realized-P&L statement made
// of stacked header/data blocks.
package parser

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"growdash/internal/types"
)

// hashTimeLayout is the ISO-8601 form the dedup hash is computed over. All
// parse paths produce whole-second timestamps, so second precision is exact.
const hashTimeLayout = "2006-01-02T15:04:05"

// ErrNotUTF8 is returned for byte content that is not valid UTF-8. Fatal:
// no parse path is attempted.
var ErrNotUTF8 = errors.New("tradebook file is not valid UTF-8")

// UnparsableTimestampError means no timestamp-resolution strategy succeeded
// for a flat-table row. Fatal for the whole flat-table attempt.
type UnparsableTimestampError struct {
	Row int
}

func (e *UnparsableTimestampError) Error() string {
	return fmt.Sprintf("unable to parse trade timestamp on row %d; ensure the CSV has Date/Time columns", e.Row)
}

// ParseTradebook is the ingestion entrypoint. It tries the flat-table path
// first; on a parse failure it remembers the error and falls back to the
// realized-statement path. The remembered flat error is surfaced only when
// both paths yield nothing. Empty but well-formed input is an empty result,
// not an error.
func ParseTradebook(fileBytes []byte) ([]types.Trade, error) {
	content, err := decodeContent(fileBytes)
	if err != nil {
		return nil, err
	}

	trades, flatErr := parseFlatTradebook(content)
	if flatErr == nil && len(trades) > 0 {
		return trades, nil
	}

	statementTrades := parseRealizedStatement(content)
	if len(statementTrades) > 0 {
		return statementTrades, nil
	}

	if flatErr != nil {
		return nil, flatErr
	}
	return []types.Trade{}, nil
}

// decodeContent validates UTF-8 and strips a leading BOM, mirroring a
// utf-8-sig decode.
func decodeContent(fileBytes []byte) (string, error) {
	fileBytes = bytes.TrimPrefix(fileBytes, []byte{0xEF, 0xBB, 0xBF})
	if !utf8.Valid(fileBytes) {
		return "", ErrNotUTF8
	}
	return string(fileBytes), nil
}

// readRows parses CSV content into a cell matrix without enforcing a uniform
// field count; each path applies its own shape rules.
func readRows(content string) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to parse CSV: %w", err)
	}
	for _, row := range rows {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
	}
	return rows, nil
}

func rowIsBlank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

// parseNumeric reads a numeric cell after stripping thousands separators.
// Returns (0, false) for empty or non-numeric values.
func parseNumeric(value string) (float64, bool) {
	text := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if text == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// TradeParams carries everything NewTrade needs; optional fields are left
// zero/nil.
type TradeParams struct {
	OrderID    string
	Symbol     string
	Exchange   string
	Segment    string
	Side       string
	Quantity   int
	Price      float64
	TradedAt   time.Time
	Strike     *float64
	OptionType string
	Expiry     *time.Time
	RawPayload map[string]any
}

// NewTrade assembles the canonical record. The dedup hash is a pure
// function of (order id, symbol, side, quantity, price, traded-at): repeat
// uploads of the same fill always produce the same hash, which is what makes
// storage inserts idempotent.
func NewTrade(p TradeParams) types.Trade {
	basis := fmt.Sprintf("%s|%s|%s|%d|%.8f|%s",
		p.OrderID, p.Symbol, p.Side, p.Quantity, p.Price, p.TradedAt.Format(hashTimeLayout))
	sum := sha256.Sum256([]byte(basis))

	payload := p.RawPayload
	if payload == nil {
		payload = map[string]any{}
	}

	return types.Trade{
		TradeHash:  hex.EncodeToString(sum[:]),
		OrderID:    p.OrderID,
		Symbol:     p.Symbol,
		Exchange:   p.Exchange,
		Segment:    p.Segment,
		Side:       p.Side,
		Quantity:   p.Quantity,
		Price:      p.Price,
		TradedAt:   p.TradedAt,
		Strike:     p.Strike,
		OptionType: p.OptionType,
		Expiry:     p.Expiry,
		RawPayload: payload,
	}
}
