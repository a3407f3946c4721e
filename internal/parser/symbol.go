package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"growdash/internal/types"
)

// Option metadata is inferred from free-text instrument symbols like
// "NIFTY 28 MAR 24 24500 CE" or "BANKNIFTY24500CALL". Explicit strike /
// option-type / expiry columns, when present and parseable, override whatever
// these rules infer.
var (
	// Number immediately followed by CE/PE, evaluated on the
	// whitespace-stripped uppercase symbol.
	strikeSuffixRe = regexp.MustCompile(`(\d+(?:\.\d+)?)(CE|PE)\b`)

	// Number followed by the word CALL/PUT, evaluated on the original
	// (whitespace-preserved) uppercase symbol.
	strikeWordRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(CALL|PUT)\b`)

	// "<day> <3-letter month> <2-or-4-digit year>" expiry token.
	expiryTokenRe = regexp.MustCompile(`\b(\d{1,2})\s+([A-Za-z]{3})\s+(\d{2,4})\b`)
)

// ExtractOptionMeta returns the strike and option type encoded in a symbol,
// or (nil, "") when none is found. First matching rule wins.
func ExtractOptionMeta(symbol string) (*float64, string) {
	if symbol == "" {
		return nil, ""
	}

	upper := strings.ToUpper(symbol)
	compact := strings.Join(strings.Fields(upper), "")

	if m := strikeSuffixRe.FindStringSubmatch(compact); m != nil {
		strike, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return &strike, m[2]
		}
	}

	if m := strikeWordRe.FindStringSubmatch(upper); m != nil {
		strike, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			optionType := types.OptionCall
			if m[2] == "PUT" {
				optionType = types.OptionPut
			}
			return &strike, optionType
		}
	}

	return nil, ""
}

// ExtractExpiryFromSymbol looks for a "<day> <Mon> <year>" token in the
// symbol. Two-digit years are read as 2000+year. An unparsable token (e.g.
// "31 FEB 24") yields nil rather than an error.
func ExtractExpiryFromSymbol(symbol string) *time.Time {
	if symbol == "" {
		return nil
	}

	m := expiryTokenRe.FindStringSubmatch(strings.ToUpper(symbol))
	if m == nil {
		return nil
	}

	day, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}

	// time.Parse matches month abbreviations case-insensitively, so the
	// uppercased token parses as-is.
	token := fmt.Sprintf("%02d %s %d", day, m[2], year)
	parsed, err := time.Parse("02 Jan 2006", token)
	if err != nil {
		return nil
	}
	return &parsed
}

// normalizeOptionType resolves the option type used for classification:
// explicit CE/PE wins, then a CE/PE symbol suffix, else UNKNOWN.
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
