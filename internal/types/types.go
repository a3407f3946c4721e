package types

import "time"

// Trade sides accepted by the ledger. Anything else is rejected at the
// ingestion boundary.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Option classification. UNKNOWN is used when neither an explicit column nor
// the symbol text identifies the contract as a call or put.
const (
	OptionCall    = "CE"
	OptionPut     = "PE"
	OptionUnknown = "UNKNOWN"
)

// Trade is one canonical ledger entry produced by ingestion. Immutable once
// built; TradeHash is a pure function of the identifying fields and is what
// storage dedupes on.
type Trade struct {
	TradeHash  string     `json:"trade_hash"`
	OrderID    string     `json:"order_id,omitempty"`
	Symbol     string     `json:"symbol"`
	Exchange   string     `json:"exchange,omitempty"`
	Segment    string     `json:"segment,omitempty"`
	Side       string     `json:"side"`
	Quantity   int        `json:"quantity"`
	Price      float64    `json:"price"`
	TradedAt   time.Time  `json:"traded_at"`
	Strike     *float64   `json:"strike,omitempty"`
	OptionType string     `json:"option_type,omitempty"`
	Expiry     *time.Time `json:"expiry,omitempty"`

	// RawPayload preserves the original row for audit. Values are JSON-safe
	// (strings or nil).
	RawPayload map[string]any `json:"raw_payload,omitempty"`
}

// ClosedPosition is one FIFO-matched lot closure.
type ClosedPosition struct {
	ClosedAt       time.Time
	PnL            float64
	OptionType     string
	Strike         string
	HoldingMinutes float64
}

// MatchResult is the matching engine's output: every closure in the order it
// happened plus the quantity tally per strike bucket used by the
// most-traded-strike ranking.
type MatchResult struct {
	Closed         []ClosedPosition
	StrikeQuantity map[string]int
	TotalTrades    int
}

// UploadSummary reports an ingestion attempt.
type UploadSummary struct {
	TotalRows    int `json:"total_rows"`
	ImportedRows int `json:"imported_rows"`
	SkippedRows  int `json:"skipped_rows"`
}

type SummaryMetrics struct {
	TotalProfitLoss float64  `json:"total_profit_loss"`
	WinRate         float64  `json:"win_rate"`
	AverageProfit   float64  `json:"average_profit"`
	AverageLoss     float64  `json:"average_loss"`
	RiskRewardRatio *float64 `json:"risk_reward_ratio"`
	MaxDrawdown     float64  `json:"max_drawdown"`
}

type DailyPnlPoint struct {
	Date string  `json:"date"`
	Pnl  float64 `json:"pnl"`
}

type MonthlyPnlPoint struct {
	Month string  `json:"month"`
	Pnl   float64 `json:"pnl"`
}

type CePePoint struct {
	OptionType string  `json:"option_type"`
	Pnl        float64 `json:"pnl"`
}

type StrikePoint struct {
	Strike   string `json:"strike"`
	Quantity int    `json:"quantity"`
}

type HoldingTime struct {
	AverageMinutes float64 `json:"average_minutes"`
	MedianMinutes  float64 `json:"median_minutes"`
	MinMinutes     float64 `json:"min_minutes"`
	MaxMinutes     float64 `json:"max_minutes"`
}

type TradeStats struct {
	TotalTrades int `json:"total_trades"`
	ClosedLots  int `json:"closed_lots"`
}

// Analytics is the full snapshot consumed by the dashboard and the copilot.
// Recomputed from scratch on every request; monetary and minute figures are
// rounded to 2 decimals here and nowhere else.
type Analytics struct {
	Summary          SummaryMetrics    `json:"summary"`
	DailyPnl         []DailyPnlPoint   `json:"daily_pnl"`
	MonthlyPnl       []MonthlyPnlPoint `json:"monthly_pnl"`
	CeVsPe           []CePePoint       `json:"ce_vs_pe"`
	MostTradedStrike []StrikePoint     `json:"most_traded_strike"`
	HoldingTime      HoldingTime       `json:"holding_time"`
	TradeStats       TradeStats        `json:"trade_stats"`
}

// Advice is the copilot's answer to a trader question.
type Advice struct {
	Provider    string   `json:"provider"`
	Model       string   `json:"model,omitempty"`
	Answer      string   `json:"answer"`
	ActionItems []string `json:"action_items"`
	RiskFlags   []string `json:"risk_flags"`
	Disclaimer  string   `json:"disclaimer"`
}

// Headline is one scraped market news item fed into copilot context.
type Headline struct {
	Source string `json:"source"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}
