package risk

import (
	"fmt"

	"github.com/polysense/riskagent/internal/contracts"
)

// reconcileFallbackPreamble opens the synthesized overall analysis when
// reconciliation could not run.
const reconcileFallbackPreamble = "Cross-batch reconciliation was unavailable"

// FallbackBatch builds conservative default signals for every market in
// the batch: hold with low confidence. Deterministic, no external calls.
func FallbackBatch(batch []contracts.Market, batchIndex int, reason string) BatchResult {
	signals := make([]contracts.MarketSignal, 0, len(batch))
	for _, m := range batch {
		signals = append(signals, contracts.MarketSignal{
			MarketID:    m.ID,
			MarketTitle: m.Title,
			Signal:      contracts.SignalHold,
			Confidence:  contracts.ConfidenceLow,
			Rationale: fmt.Sprintf("Analysis unavailable (%s). Holding until analysis can be completed.",
				reason),
			CurrentPrice: m.CurrentPrice,
		})
	}

	return BatchResult{
		BatchIndex: batchIndex,
		Signals:    signals,
	}
}

// FallbackSignal builds the conservative default for a single market.
// Used when assembly finds a market no batch result covered.
func FallbackSignal(m contracts.Market, reason string) contracts.MarketSignal {
	res := FallbackBatch([]contracts.Market{m}, 0, reason)
	return res.Signals[0]
}

// FallbackReconciliation passes batch signals through unchanged and
// synthesizes the overall analysis from signal counts. No model call.
func FallbackReconciliation(signals []contracts.MarketSignal, sentiment contracts.Sentiment, reason string) ([]contracts.MarketSignal, string) {
	buy, sell, hold := contracts.SignalCounts(signals)

	overall := fmt.Sprintf(
		"%s (%s). The %d signals below come from independent batch analysis and have not been "+
			"checked for cross-market consistency: %d buy, %d sell, %d hold. Research sentiment is %s. "+
			"Manual review is recommended before acting on these signals.",
		reconcileFallbackPreamble, reason, len(signals), buy, sell, hold, sentiment)

	return signals, overall
}
