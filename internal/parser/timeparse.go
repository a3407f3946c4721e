package parser

import (
	"strings"
	"time"
)

// Broker exports carry timestamps in a handful of known shapes. Each helper
// walks its layout list in order and returns the first successful parse; all
// results are naive (no timezone).

// datetimeLayouts cover combined date+time columns (Zerodha "Order Executed
// Time", Upstox "Trade Time", generic ISO exports).
var datetimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02/01/2006 15:04:05",
	"02 Jan 2006 15:04:05",
}

// dateLayouts cover date-only columns, month-first for ambiguous forms to
// match the flat-table path's documented behavior.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// statementDateLayouts are day-first: realized-statement exports write
// "28-03-2024" style dates.
var statementDateLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"2006-01-02",
}

var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
}

func parseWith(layouts []string, value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDateTime(value string) (time.Time, bool) {
	if t, ok := parseWith(datetimeLayouts, value); ok {
		return t, true
	}
	// A combined column sometimes holds a bare date.
	return parseWith(dateLayouts, value)
}

func parseDate(value string) (time.Time, bool) {
	return parseWith(dateLayouts, value)
}

func parseStatementDate(value string) (time.Time, bool) {
	return parseWith(statementDateLayouts, value)
}

func parseClock(value string) (time.Time, bool) {
	return parseWith(timeLayouts, value)
}

// combine stitches a clock reading onto a calendar date.
func combine(date, clock time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC)
}
