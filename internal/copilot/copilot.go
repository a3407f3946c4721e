// Package copilot turns the analytics snapshot plus a trader question into
// natural-language guidance. A rule-based pass always runs; when an OpenAI
// key is configured its answer text is replaced by the model's, falling back
// silently so the dashboard stays usable when the external call fails.
package copilot

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"growdash/internal/interfaces"
	"growdash/internal/logger"
	"growdash/internal/store"
	"growdash/internal/types"
)

const disclaimerText = "AI guidance is educational, based on your uploaded historical trades, and not investment advice. " +
	"Always validate with your own risk rules."

// Service implements interfaces.Advisor.
type Service struct {
	cfg       *store.Config
	headlines interfaces.HeadlineProvider // optional
}

var _ interfaces.Advisor = (*Service)(nil)

// New builds the copilot. headlines may be nil.
func New(cfg *store.Config, headlines interfaces.HeadlineProvider) *Service {
	return &Service{cfg: cfg, headlines: headlines}
}

// Advise answers the question. Errors are returned only for unusable input;
// external-model failures degrade to the rule-based answer.
func (s *Service) Advise(ctx context.Context, question string, analytics types.Analytics) (types.Advice, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return types.Advice{}, interfaces.ErrEmptyQuestion
	}

	base := buildRuleBasedGuidance(question, analytics)
	advice := types.Advice{
		Provider:    "rule_based",
		Answer:      base.answer,
		ActionItems: base.actionItems,
		RiskFlags:   base.riskFlags,
		Disclaimer:  disclaimerText,
	}

	if s.cfg.LLM.Provider != "OPENAI" || os.Getenv("OPENAI_API_KEY") == "" {
		return advice, nil
	}

	answer, err := s.queryOpenAI(ctx, question, analytics, base)
	if err != nil {
		logger.Warn(ctx, "OpenAI copilot call failed, keeping rule-based answer", "error", err)
		return advice, nil
	}

	advice.Provider = "openai"
	advice.Model = s.cfg.LLM.Model
	advice.Answer = answer
	return advice, nil
}

type guidance struct {
	answer      string
	actionItems []string
	riskFlags   []string
}

// buildRuleBasedGuidance derives deterministic coaching from the snapshot.
// Thresholds are deliberately coarse; this is a floor under the LLM, not a
// strategy engine.
func buildRuleBasedGuidance(question string, analytics types.Analytics) guidance {
	summary := analytics.Summary

	var actionItems, riskFlags []string

	if analytics.TradeStats.TotalTrades < 20 {
		actionItems = append(actionItems, "Collect at least 20-30 closed trades before changing strategy aggressively.")
	}
	if summary.WinRate < 45 {
		actionItems = append(actionItems, "Tighten your entry filter; avoid low-conviction setups to improve hit rate.")
		riskFlags = append(riskFlags, "Win rate below 45% indicates selection quality risk.")
	}
	if summary.AverageLoss > summary.AverageProfit {
		actionItems = append(actionItems, "Use a stricter stop-loss and partial profit booking to improve average R-multiple.")
		riskFlags = append(riskFlags, "Average loss is larger than average profit.")
	}
	if summary.RiskRewardRatio != nil && *summary.RiskRewardRatio < 1.0 {
		actionItems = append(actionItems, "Target trades with at least 1:1.2 risk-reward profile before execution.")
		riskFlags = append(riskFlags, "Risk-reward ratio is below 1.")
	}
	threshold := abs(summary.TotalProfitLoss)
	if threshold < 1.0 {
		threshold = 1.0
	}
	if summary.MaxDrawdown > threshold*0.6 {
		actionItems = append(actionItems, "Reduce position size by 20-30% until equity curve stabilizes.")
		riskFlags = append(riskFlags, "Drawdown is too high relative to realized PnL.")
	}
	if len(actionItems) == 0 {
		actionItems = append(actionItems, "Keep current process but review setup quality weekly with a trade journal.")
	}

	answer := fmt.Sprintf(
		"Based on your uploaded trades: total PnL is %.2f, win rate is %.2f%%, "+
			"max drawdown is %.2f, and average holding time is %.2f minutes. "+
			"%s For your question '%s', focus first on execution consistency, "+
			"risk-per-trade limits, and eliminating low edge entries.",
		summary.TotalProfitLoss, summary.WinRate, summary.MaxDrawdown,
		analytics.HoldingTime.AverageMinutes, optionBiasText(analytics.CeVsPe), question,
	)

	return guidance{
		answer:      answer,
		actionItems: capped(actionItems, 5),
		riskFlags:   capped(riskFlags, 5),
	}
}

func optionBiasText(ceVsPe []types.CePePoint) string {
	if len(ceVsPe) == 0 {
		return "CE/PE split is not yet available."
	}
	ranked := make([]types.CePePoint, len(ceVsPe))
	copy(ranked, ceVsPe)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Pnl > ranked[j].Pnl })
	leader := ranked[0]
	return fmt.Sprintf("Best side currently is %s with realized PnL %.2f.", leader.OptionType, leader.Pnl)
}

func capped(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
