package parser

import (
	"fmt"
	"time"

	"growdash/internal/types"
)

// Realized-P&L statements are not one table: they stack several blocks, each
// with its own header row, separated by blank lines and closed by total /
// summary / disclaimer rows. Every data row is one already-realized trade, so
// it expands to a synthetic BUY/SELL pair.

// statementStopTokens end a data block (and, like everything here, compare
// after normalization, so "Total ", "TOTAL:" and "total" are the same).
var statementStopTokens = map[string]bool{
	"total":                       true,
	"summary":                     true,
	"charges":                     true,
	"disclaimer":                  true,
	"realisedtradestradelevel":    true,
	"realisedtradescontractlevel": true,
}

// repeated section labels that can appear in the symbol column of a block.
var statementLabelTokens = map[string]bool{
	"scripname": true,
	"futures":   true,
	"options":   true,
}

// statementHeader holds the resolved column indexes of one block header.
type statementHeader struct {
	symbol    int
	quantity  int
	buyDate   int // -1 when absent
	sellDate  int // -1 when absent
	buyPrice  int
	sellPrice int
	format    string // "trade_level" or "contract_level"
}

// matchStatementHeader decides whether a row is header-shaped: it must
// resolve scrip name, quantity, a buy price and a sell price. Separate buy
// and sell date columns upgrade the block to trade_level.
func matchStatementHeader(row []string) (statementHeader, bool) {
	index := map[string]int{}
	for idx, cell := range row {
		if key := normalizeCol(cell); key != "" {
			index[key] = idx
		}
	}

	pick := func(keys ...string) int {
		for _, key := range keys {
			if idx, ok := index[key]; ok {
				return idx
			}
		}
		return -1
	}

	h := statementHeader{
		symbol:    pick("scripname"),
		quantity:  pick("quantity"),
		buyDate:   pick("buydate"),
		sellDate:  pick("selldate"),
		buyPrice:  pick("buyprice", "avgbuyprice"),
		sellPrice: pick("sellprice", "avgsellprice"),
	}
	if h.symbol < 0 || h.quantity < 0 || h.buyPrice < 0 || h.sellPrice < 0 {
		return statementHeader{}, false
	}

	h.format = "contract_level"
	if h.buyDate >= 0 && h.sellDate >= 0 {
		h.format = "trade_level"
	}
	return h, true
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseRealizedStatement scans the whole document: every row is a header
// candidate; once a header matches, the rows beneath it are data until a
// blank row or stop token. Never fatal; a document with no recognizable
// block simply yields no trades.
func parseRealizedStatement(content string) []types.Trade {
	rows, err := readRows(content)
	if err != nil {
		return nil
	}

	trades := []types.Trade{}
	rowIndex := 0
	for rowIndex < len(rows) {
		headerRow := rows[rowIndex]
		header, ok := matchStatementHeader(headerRow)
		if !ok {
			rowIndex++
			continue
		}

		dataIndex := rowIndex + 1
		for dataIndex < len(rows) {
			dataRow := rows[dataIndex]
			if rowIsBlank(dataRow) {
				break
			}

			symbol := cellAt(dataRow, header.symbol)
			symbolToken := normalizeCol(symbol)
			if symbol == "" || statementLabelTokens[symbolToken] {
				dataIndex++
				continue
			}
			if statementStopTokens[symbolToken] {
				break
			}

			pair, ok := synthesizePair(header, headerRow, dataRow, symbol)
			if !ok {
				dataIndex++
				continue
			}
			trades = append(trades, pair...)
			dataIndex++
		}

		rowIndex = dataIndex
	}

	return trades
}

// synthesizePair turns one realized-trade line into a BUY and a SELL
// canonical record. Missing dates fall back to the inferred expiry, then to
// today; block exports carry no intraday times, so entries are pinned to the
// 09:15 open and exits to 15:15, and an exit that would not come after its
// entry is pushed one minute past it.
func synthesizePair(header statementHeader, headerRow, dataRow []string, symbol string) ([]types.Trade, bool) {
	quantityNum, okQty := parseNumeric(cellAt(dataRow, header.quantity))
	buyPrice, okBuy := parseNumeric(cellAt(dataRow, header.buyPrice))
	sellPrice, okSell := parseNumeric(cellAt(dataRow, header.sellPrice))
	if !okQty || !okBuy || !okSell {
		return nil, false
	}
	quantity := int(abs(quantityNum))
	if quantity <= 0 {
		return nil, false
	}

	strike, optionType := ExtractOptionMeta(symbol)
	expiry := ExtractExpiryFromSymbol(symbol)

	segment := ""
	if optionType == types.OptionCall || optionType == types.OptionPut {
		segment = "OPTIONS"
	}

	fallbackDate := time.Now()
	if expiry != nil {
		fallbackDate = *expiry
	}

	buyDate, okBuyDate := parseStatementDate(cellAt(dataRow, header.buyDate))
	if header.buyDate < 0 || !okBuyDate {
		buyDate = fallbackDate
	}
	sellDate, okSellDate := parseStatementDate(cellAt(dataRow, header.sellDate))
	if header.sellDate < 0 || !okSellDate {
		sellDate = buyDate
	}

	buyAt := time.Date(buyDate.Year(), buyDate.Month(), buyDate.Day(), 9, 15, 0, 0, time.UTC)
	sellAt := time.Date(sellDate.Year(), sellDate.Month(), sellDate.Day(), 15, 15, 0, 0, time.UTC)
	if !sellAt.After(buyAt) {
		sellAt = buyAt.Add(time.Minute)
	}

	payload := func(side string) map[string]any {
		p := make(map[string]any, len(headerRow)+2)
		for idx, name := range headerRow {
			if name == "" {
				name = fmt.Sprintf("col_%d", idx)
			}
			p[name] = cellAt(dataRow, idx)
		}
		p["source_format"] = header.format
		p["synthetic_side"] = side
		return p
	}

	base := TradeParams{
		Symbol:     symbol,
		Segment:    segment,
		Quantity:   quantity,
		Strike:     strike,
		OptionType: optionType,
		Expiry:     expiry,
	}

	buy := base
	buy.Side = types.SideBuy
	buy.Price = buyPrice
	buy.TradedAt = buyAt
	buy.RawPayload = payload(types.SideBuy)

	sell := base
	sell.Side = types.SideSell
	sell.Price = sellPrice
	sell.TradedAt = sellAt
	sell.RawPayload = payload(types.SideSell)

	return []types.Trade{NewTrade(buy), NewTrade(sell)}, true
}
