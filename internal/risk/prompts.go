package risk

import (
	"fmt"
	"strings"

	"github.com/polysense/riskagent/internal/contracts"
)

// batchSystemPrompt instructs the model during per-batch analysis.
const batchSystemPrompt = `You are a JSON-only response bot for prediction-market trading signal analysis. ` +
	`Return ONLY valid JSON, no markdown fences, no explanation outside the JSON object.`

// reconcileSystemPrompt instructs the model during reconciliation.
const reconcileSystemPrompt = `You are a JSON-only response bot for trading signal reconciliation. ` +
	`Return ONLY valid JSON, no markdown fences, no explanation outside the JSON object.`

// formatBatchPrompt builds the user prompt for one batch: the shared
// research context plus this batch's markets with current prices.
func formatBatchPrompt(input *contracts.RiskAnalysisInput, batch []contracts.Market) string {
	var b strings.Builder

	b.WriteString("Analyze the following prediction markets against the research below and produce a trading signal for each.\n\n")

	b.WriteString("## Main event\n")
	b.WriteString(input.MainEvent.Title)
	b.WriteString("\n")
	if input.MainEvent.Description != "" {
		b.WriteString(input.MainEvent.Description)
		b.WriteString("\n")
	}

	b.WriteString("\n## Research summary\n")
	b.WriteString(input.ResearchSummary)
	b.WriteString("\n\n## Key findings\n")
	for i, f := range input.KeyFindings {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f)
	}
	fmt.Fprintf(&b, "\n## Research sentiment\n%s\n", input.Sentiment)

	b.WriteString("\n## Markets to analyze\n")
	for _, m := range batch {
		fmt.Fprintf(&b, "- id: %s\n  title: %s\n", m.ID, m.Title)
		if m.CurrentPrice != nil {
			fmt.Fprintf(&b, "  current_price: %.3f\n", *m.CurrentPrice)
		}
		if m.Description != "" {
			fmt.Fprintf(&b, "  description: %s\n", m.Description)
		}
	}

	b.WriteString(`
## Decision policy
- "buy" when the market looks underpriced relative to the research.
- "sell" when it looks overpriced.
- "hold" when the evidence is ambiguous or the market is fairly priced.
- confidence ("high"/"medium"/"low") reflects how directly the findings bear on that specific market.
- rationale must cite at least one specific finding.

## Output format
Respond with exactly this JSON structure, one entry per market listed above:
{
  "signals": [
    {
      "market_id": "...",
      "market_title": "...",
      "signal": "buy|sell|hold",
      "confidence": "high|medium|low",
      "rationale": "..."
    }
  ]
}
`)

	return b.String()
}

// formatReconciliationPrompt builds the user prompt for the cross-batch
// consistency pass over all signals.
func formatReconciliationPrompt(input *contracts.RiskAnalysisInput, signals []contracts.MarketSignal) string {
	var b strings.Builder

	b.WriteString("The following trading signals were produced by independent batch analyses of markets belonging to one event. ")
	b.WriteString("Review them together for cross-batch logical consistency and repair any inconsistencies.\n\n")

	b.WriteString("## Main event\n")
	b.WriteString(input.MainEvent.Title)
	b.WriteString("\n")
	if input.MainEvent.Description != "" {
		b.WriteString(input.MainEvent.Description)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n## Research sentiment\n%s\n", input.Sentiment)

	b.WriteString("\n## Signals\n")
	for _, s := range signals {
		fmt.Fprintf(&b, "- market_id: %s\n  title: %s\n  signal: %s\n  confidence: %s\n  rationale: %s\n",
			s.MarketID, s.MarketTitle, s.Signal, s.Confidence, s.Rationale)
		if s.CurrentPrice != nil {
			fmt.Fprintf(&b, "  current_price: %.3f\n", *s.CurrentPrice)
		}
	}

	b.WriteString(`
## Consistency rules
- Cumulative or date-indexed markets about the same underlying claim must not weaken as the cutoff extends: a later date must never carry a strictly weaker signal than an earlier one when the claim is monotonic.
- Mutually exclusive outcomes should not all carry strong "buy" signals.
- When you adjust a signal, explain the adjustment in its rationale.

## Output format
Respond with exactly this JSON structure, keeping exactly one entry per market above (same market_id values):
{
  "signals": [
    {
      "market_id": "...",
      "market_title": "...",
      "signal": "buy|sell|hold",
      "confidence": "high|medium|low",
      "rationale": "..."
    }
  ],
  "overall_analysis": "2-4 paragraph summary of the event-level picture"
}
`)

	return b.String()
}
