package analytics

import (
	"math"
	"sort"

	"growdash/internal/types"
)

// Compute runs the full pipeline: match the ledger, aggregate the closures.
func Compute(trades []types.Trade) types.Analytics {
	if len(trades) == 0 {
		return emptyAnalytics()
	}
	return Aggregate(MatchTrades(trades))
}

// Aggregate is a pure function of the matching result. Calling it twice on
// the same input yields the same snapshot; all rounding happens here, at the
// output boundary.
func Aggregate(result types.MatchResult) types.Analytics {
	dailyPnl := map[string]float64{}
	monthlyPnl := map[string]float64{}
	ceVsPe := map[string]float64{}
	holdingSamples := []float64{}

	var totalPnl float64
	var wins, losses []float64

	for _, pos := range result.Closed {
		totalPnl += pos.PnL
		dailyPnl[pos.ClosedAt.Format("2006-01-02")] += pos.PnL
		monthlyPnl[pos.ClosedAt.Format("2006-01")] += pos.PnL
		ceVsPe[pos.OptionType] += pos.PnL

		if pos.PnL > 0 {
			wins = append(wins, pos.PnL)
		} else if pos.PnL < 0 {
			losses = append(losses, -pos.PnL)
		}
		holdingSamples = append(holdingSamples, pos.HoldingMinutes)
	}

	// Max drawdown: replay closures in closing order against a running
	// equity curve and track the largest peak-to-trough decline.
	byClose := make([]types.ClosedPosition, len(result.Closed))
	copy(byClose, result.Closed)
	sort.SliceStable(byClose, func(i, j int) bool {
		return byClose[i].ClosedAt.Before(byClose[j].ClosedAt)
	})
	var equity, peak, maxDrawdown float64
	for _, pos := range byClose {
		equity += pos.PnL
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}

	totalClosed := len(result.Closed)
	winRate := 0.0
	if totalClosed > 0 {
		winRate = float64(len(wins)) / float64(totalClosed) * 100.0
	}
	averageProfit := mean(wins)
	averageLoss := mean(losses)
	var riskReward *float64
	if averageLoss > 0 {
		rr := round2(averageProfit / averageLoss)
		riskReward = &rr
	}

	holding := types.HoldingTime{}
	if len(holdingSamples) > 0 {
		holding.AverageMinutes = round2(mean(holdingSamples))
		holding.MedianMinutes = round2(median(holdingSamples))
		minH, maxH := holdingSamples[0], holdingSamples[0]
		for _, h := range holdingSamples[1:] {
			if h < minH {
				minH = h
			}
			if h > maxH {
				maxH = h
			}
		}
		holding.MinMinutes = round2(minH)
		holding.MaxMinutes = round2(maxH)
	}

	return types.Analytics{
		Summary: types.SummaryMetrics{
			TotalProfitLoss: round2(totalPnl),
			WinRate:         round2(winRate),
			AverageProfit:   round2(averageProfit),
			AverageLoss:     round2(averageLoss),
			RiskRewardRatio: riskReward,
			MaxDrawdown:     round2(maxDrawdown),
		},
		DailyPnl:         sortedDaily(dailyPnl),
		MonthlyPnl:       sortedMonthly(monthlyPnl),
		CeVsPe:           sortedCeVsPe(ceVsPe),
		MostTradedStrike: rankStrikes(result.StrikeQuantity),
		HoldingTime:      holding,
		TradeStats: types.TradeStats{
			TotalTrades: result.TotalTrades,
			ClosedLots:  totalClosed,
		},
	}
}

func emptyAnalytics() types.Analytics {
	return types.Analytics{
		DailyPnl:         []types.DailyPnlPoint{},
		MonthlyPnl:       []types.MonthlyPnlPoint{},
		CeVsPe:           []types.CePePoint{},
		MostTradedStrike: []types.StrikePoint{},
	}
}

func sortedDaily(buckets map[string]float64) []types.DailyPnlPoint {
	keys := sortedKeys(buckets)
	out := make([]types.DailyPnlPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.DailyPnlPoint{Date: k, Pnl: round2(buckets[k])})
	}
	return out
}

func sortedMonthly(buckets map[string]float64) []types.MonthlyPnlPoint {
	keys := sortedKeys(buckets)
	out := make([]types.MonthlyPnlPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.MonthlyPnlPoint{Month: k, Pnl: round2(buckets[k])})
	}
	return out
}

func sortedCeVsPe(buckets map[string]float64) []types.CePePoint {
	keys := sortedKeys(buckets)
	out := make([]types.CePePoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.CePePoint{OptionType: k, Pnl: round2(buckets[k])})
	}
	return out
}

// rankStrikes orders strike buckets by matched quantity, drops the UNKNOWN
// bucket, and keeps the top 10. Quantity counts every considered trade, not
// only closed ones; the ranking measures activity, not outcome.
func rankStrikes(strikeQuantity map[string]int) []types.StrikePoint {
	points := make([]types.StrikePoint, 0, len(strikeQuantity))
	for strike, quantity := range strikeQuantity {
		if strike == types.OptionUnknown {
			continue
		}
		points = append(points, types.StrikePoint{Strike: strike, Quantity: quantity})
	}
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].Quantity != points[j].Quantity {
			return points[i].Quantity > points[j].Quantity
		}
		return points[i].Strike < points[j].Strike
	})
	if len(points) > 10 {
		points = points[:10]
	}
	return points
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
