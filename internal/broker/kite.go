// Package broker pulls executed trades straight from the brokerage API as an
// alternative to CSV uploads. Records are converted through the same
// canonical constructor as parsed files, so broker imports dedup against
// prior uploads of the same fills.
package broker

import (
	"context"
	"errors"
	"strings"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"growdash/internal/logger"
	"growdash/internal/parser"
	"growdash/internal/types"
)

type Params struct{ APIKey, AccessToken, Exchange string }

// Kite imports the day's tradebook over the Zerodha Kite Connect REST API.
type Kite struct {
	p  Params
	kc *kiteconnect.Client
}

func NewKite(p Params) (*Kite, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, errors.New("missing API key/access token")
	}

	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)

	return &Kite{p: p, kc: kc}, nil
}

// ImportTrades fetches today's fills and converts them to canonical trades.
// Fills with a zero quantity or an unrecognizable transaction type are
// skipped, matching the row-skip rules of the CSV paths.
func (k *Kite) ImportTrades(ctx context.Context) ([]types.Trade, error) {
	logger.Debug(ctx, "Fetching tradebook from broker", "exchange", k.p.Exchange)

	fills, err := k.kc.GetTrades()
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch tradebook from broker", err)
		return nil, err
	}

	trades := make([]types.Trade, 0, len(fills))
	for _, fill := range fills {
		trade, ok := convertFill(fill)
		if !ok {
			continue
		}
		trades = append(trades, trade)
	}

	logger.Info(ctx, "Broker tradebook fetched", "fills", len(fills), "trades", len(trades))
	return trades, nil
}

// convertFill maps a broker fill onto the canonical trade record, inferring
// option metadata from the trading symbol the same way the CSV paths do.
func convertFill(fill kiteconnect.Trade) (types.Trade, bool) {
	symbol := strings.TrimSpace(fill.TradingSymbol)
	if symbol == "" {
		return types.Trade{}, false
	}

	var side string
	switch strings.ToUpper(strings.TrimSpace(fill.TransactionType)) {
	case types.SideBuy:
		side = types.SideBuy
	case types.SideSell:
		side = types.SideSell
	default:
		return types.Trade{}, false
	}

	quantity := int(fill.Quantity)
	if quantity <= 0 {
		return types.Trade{}, false
	}

	strike, optionType := parser.ExtractOptionMeta(symbol)
	if optionType == "" {
		optionType = types.OptionUnknown
	}
	expiry := parser.ExtractExpiryFromSymbol(symbol)

	segment := ""
	if optionType == types.OptionCall || optionType == types.OptionPut {
		segment = "OPTIONS"
	}

	payload := map[string]any{
		"source":           "kite",
		"trade_id":         fill.TradeID,
		"order_id":         fill.OrderID,
		"product":          fill.Product,
		"instrument_token": fill.InstrumentToken,
	}

	return parser.NewTrade(parser.TradeParams{
		OrderID:    fill.OrderID,
		Symbol:     symbol,
		Exchange:   fill.Exchange,
		Segment:    segment,
		Side:       side,
		Quantity:   quantity,
		Price:      fill.AveragePrice,
		TradedAt:   fill.FillTimestamp.Time,
		Strike:     strike,
		OptionType: optionType,
		Expiry:     expiry,
		RawPayload: payload,
	}), true
}
