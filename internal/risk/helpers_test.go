package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/polysense/riskagent/internal/contracts"
	"github.com/polysense/riskagent/pkg/logger"
)

// completerFunc adapts a function to the llm.Completer interface
type completerFunc func(ctx context.Context, system, user string) (string, error)

func (f completerFunc) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

// testCfg returns a fast pipeline config for tests
func testCfg() Config {
	return Config{
		BatchSize:             5,
		MaxConcurrentBatches:  4,
		PerBatchTimeout:       500 * time.Millisecond,
		ReconciliationTimeout: 500 * time.Millisecond,
		TotalTimeout:          2 * time.Second,
		MaxRetries:            0,
		RetryDelay:            time.Millisecond,
	}
}

func price(v float64) *float64 { return &v }

func testMarkets(n int) []contracts.Market {
	markets := make([]contracts.Market, 0, n)
	for i := 0; i < n; i++ {
		markets = append(markets, contracts.Market{
			ID:           fmt.Sprintf("mkt-%d", i),
			Title:        fmt.Sprintf("Market %d", i),
			CurrentPrice: price(0.5),
		})
	}
	return markets
}

func testInput(n int) *contracts.RiskAnalysisInput {
	return &contracts.RiskAnalysisInput{
		ResearchSummary: "Aggregate polling moved toward candidate A this week.",
		KeyFindings:     []string{"Candidate A gained 4 points", "Turnout models favor A"},
		Sentiment:       contracts.SentimentBullish,
		MainEvent:       contracts.MainEvent{Title: "Test Event"},
		Markets:         testMarkets(n),
	}
}

// marketIDsFromPrompt extracts the market ids listed in a batch or
// reconciliation prompt, in order.
func marketIDsFromPrompt(user string) []string {
	var ids []string
	for _, line := range strings.Split(user, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- id: ") {
			ids = append(ids, strings.TrimPrefix(trimmed, "- id: "))
		} else if strings.HasPrefix(trimmed, "- market_id: ") {
			ids = append(ids, strings.TrimPrefix(trimmed, "- market_id: "))
		}
	}
	return ids
}

// echoSignals builds a well-formed model response covering every market
// mentioned in the prompt with the given signal and confidence.
func echoSignals(user string, signal contracts.Signal, confidence contracts.Confidence, withOverall bool) string {
	ids := marketIDsFromPrompt(user)

	signals := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		signals = append(signals, map[string]string{
			"market_id":    id,
			"market_title": "Title for " + id,
			"signal":       string(signal),
			"confidence":   string(confidence),
			"rationale":    "Based on the polling gains finding.",
		})
	}

	body := map[string]interface{}{"signals": signals}
	if withOverall {
		body["overall_analysis"] = "Overall the research supports the bullish thesis across all markets."
	}

	out, _ := json.Marshal(body)
	return string(out)
}

// healthyCompleter answers both batch and reconciliation prompts with
// well-formed buy/medium responses.
func healthyCompleter() completerFunc {
	return func(ctx context.Context, system, user string) (string, error) {
		isReconcile := strings.Contains(system, "reconciliation")
		return echoSignals(user, contracts.SignalBuy, contracts.ConfidenceMedium, isReconcile), nil
	}
}

func nopLogger() *logger.Logger {
	return logger.Nop()
}
