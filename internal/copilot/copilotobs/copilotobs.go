package copilotobs

import (
	"context"

	"growdash/internal/interfaces"
	"growdash/internal/logger"
	"growdash/internal/trace"
	"growdash/internal/types"
)

// observableAdvisor wraps an Advisor with tracing and logging.
type observableAdvisor struct {
	advisor interfaces.Advisor
}

var _ interfaces.Advisor = (*observableAdvisor)(nil)

// Wrap wraps an advisor with observability middleware.
func Wrap(advisor interfaces.Advisor) interfaces.Advisor {
	return &observableAdvisor{advisor: advisor}
}

func (oa *observableAdvisor) Advise(ctx context.Context, question string, analytics types.Analytics) (types.Advice, error) {
	ctx, span := trace.StartSpan(ctx, "copilot.Advise")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Requesting copilot advice",
		"total_trades", analytics.TradeStats.TotalTrades,
		"closed_lots", analytics.TradeStats.ClosedLots,
	)

	advice, err := oa.advisor.Advise(ctx, question, analytics)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to generate copilot advice", err)
		return types.Advice{}, err
	}

	logger.InfoSkip(ctx, 1, "Copilot advice generated",
		"provider", advice.Provider,
		"action_items", len(advice.ActionItems),
		"risk_flags", len(advice.RiskFlags),
	)

	return advice, nil
}
