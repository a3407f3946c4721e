package copilot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"growdash/internal/trace"
	"growdash/internal/types"
)

// queryOpenAI asks chat completions for an answer grounded in the analytics
// snapshot, optionally enriched with recent market headlines.
func (s *Service) queryOpenAI(ctx context.Context, question string, analytics types.Analytics, base guidance) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-copilot-call")
	defer span.End()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", errors.New("OPENAI_API_KEY missing")
	}

	topStrikes := analytics.MostTradedStrike
	if len(topStrikes) > 5 {
		topStrikes = topStrikes[:5]
	}
	promptPayload := map[string]any{
		"question": question,
		"analytics": map[string]any{
			"summary":            analytics.Summary,
			"trade_stats":        analytics.TradeStats,
			"ce_vs_pe":           analytics.CeVsPe,
			"most_traded_strike": topStrikes,
			"holding_time":       analytics.HoldingTime,
		},
		"base_guidance": map[string]any{
			"answer":       base.answer,
			"action_items": base.actionItems,
			"risk_flags":   base.riskFlags,
		},
	}
	if headlines := s.collectHeadlines(ctx); len(headlines) > 0 {
		promptPayload["market_headlines"] = headlines
	}
	pb, _ := json.Marshal(promptPayload)

	prompt := "Analyze the trading dashboard context and answer the user's question. " +
		"Return concise, practical guidance in plain text.\n\n" + string(pb)

	body := map[string]any{
		"model": s.cfg.LLM.Model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are a trading performance coach. Use only the provided analytics context, be concise, and avoid guaranteed-return language."},
			{"role": "user", "content": prompt},
		},
		"temperature": s.cfg.LLM.Temperature,
		"max_tokens":  s.cfg.LLM.MaxTokens,
	}
	bb, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(bb))
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", errors.New("no choices")
	}

	out := strings.TrimSpace(r.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("no text returned by model")
	}
	return out, nil
}

// collectHeadlines gathers a few recent headlines per configured topic.
// Failures are logged by the provider; an empty result just means the prompt
// goes out without news context.
func (s *Service) collectHeadlines(ctx context.Context) []types.Headline {
	if s.headlines == nil || !s.cfg.News.Enabled {
		return nil
	}
	var out []types.Headline
	for _, topic := range s.cfg.News.Topics {
		items, err := s.headlines.Headlines(ctx, topic, s.cfg.News.MaxHeadlines)
		if err != nil {
			continue
		}
		out = append(out, items...)
		if len(out) >= s.cfg.News.MaxHeadlines {
			out = out[:s.cfg.News.MaxHeadlines]
			break
		}
	}
	return out
}
