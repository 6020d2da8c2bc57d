package risk

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/polysense/riskagent/internal/contracts"
	"github.com/polysense/riskagent/internal/llm"
	"github.com/polysense/riskagent/pkg/logger"
)

// BatchResult is the output of one batch analysis
type BatchResult struct {
	BatchIndex int
	Signals    []contracts.MarketSignal
	Err        error
}

// Success reports whether the batch produced usable signals
func (r BatchResult) Success() bool {
	return r.Err == nil && len(r.Signals) > 0
}

// Analyzer runs one judgment call per batch and parses the result into
// the signal schema. Malformed responses fail rather than guess.
type Analyzer struct {
	completer llm.Completer
	cfg       Config
	logger    *logger.Logger
}

// NewAnalyzer creates a batch analyzer
func NewAnalyzer(completer llm.Completer, cfg Config, log *logger.Logger) *Analyzer {
	return &Analyzer{
		completer: completer,
		cfg:       cfg,
		logger:    log,
	}
}

// rawSignal is the wire shape of one signal in the model response
type rawSignal struct {
	MarketID    string `json:"market_id"`
	MarketTitle string `json:"market_title"`
	Signal      string `json:"signal"`
	Confidence  string `json:"confidence"`
	Rationale   string `json:"rationale"`
}

type batchResponse struct {
	Signals []rawSignal `json:"signals"`
}

// AnalyzeBatch analyzes one batch of markets under the per-batch timeout.
// All failure modes (timeout, transport, malformed response) surface as a
// single ErrAnalysisFailed condition.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, input *contracts.RiskAnalysisInput, batch []contracts.Market, batchIndex int) BatchResult {
	callCtx, cancel := context.WithTimeout(ctx, a.cfg.PerBatchTimeout)
	defer cancel()

	prompt := formatBatchPrompt(input, batch)

	raw, err := a.completer.Complete(callCtx, batchSystemPrompt, prompt)
	if err != nil {
		return BatchResult{
			BatchIndex: batchIndex,
			Err:        fmt.Errorf("%w: batch %d judgment call: %v", ErrAnalysisFailed, batchIndex, err),
		}
	}

	signals, err := parseBatchSignals(raw, batch)
	if err != nil {
		return BatchResult{
			BatchIndex: batchIndex,
			Err:        fmt.Errorf("%w: batch %d: %v", ErrAnalysisFailed, batchIndex, err),
		}
	}

	a.logger.WithFields(map[string]interface{}{
		"batch_index": batchIndex,
		"signals":     len(signals),
	}).Debug("Batch analyzed")

	return BatchResult{
		BatchIndex: batchIndex,
		Signals:    signals,
	}
}

// parseBatchSignals strictly parses a model response for the given batch.
// The response must cover every batch market exactly once; signals come
// back in batch order with input titles and prices attached.
func parseBatchSignals(raw string, batch []contracts.Market) ([]contracts.MarketSignal, error) {
	obj, err := llm.ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var parsed batchResponse
	if err := json.Unmarshal(obj, &parsed); err != nil {
		return nil, fmt.Errorf("response does not match signal schema: %w", err)
	}

	byID := make(map[string]rawSignal, len(parsed.Signals))
	for _, sig := range parsed.Signals {
		if sig.MarketID == "" {
			return nil, fmt.Errorf("response contains a signal without market_id")
		}
		if _, dup := byID[sig.MarketID]; dup {
			return nil, fmt.Errorf("response contains duplicate signal for market %q", sig.MarketID)
		}
		byID[sig.MarketID] = sig
	}

	signals := make([]contracts.MarketSignal, 0, len(batch))
	for _, m := range batch {
		sig, ok := byID[m.ID]
		if !ok {
			return nil, fmt.Errorf("response missing signal for market %q", m.ID)
		}
		signals = append(signals, normalizeSignal(sig, m))
	}

	return signals, nil
}

// normalizeSignal clamps enum values the model got creative with and
// attaches the input market's title and price. Structural problems are
// handled by the caller; here only value-level cleanup happens.
func normalizeSignal(sig rawSignal, m contracts.Market) contracts.MarketSignal {
	signal := contracts.Signal(sig.Signal)
	if !signal.Valid() {
		signal = contracts.SignalHold
	}

	confidence := contracts.Confidence(sig.Confidence)
	if !confidence.Valid() {
		confidence = contracts.ConfidenceLow
	}

	rationale := sig.Rationale
	if rationale == "" {
		rationale = "No rationale provided by analysis."
	}

	return contracts.MarketSignal{
		MarketID:     m.ID,
		MarketTitle:  m.Title,
		Signal:       signal,
		Confidence:   confidence,
		Rationale:    rationale,
		CurrentPrice: m.CurrentPrice,
	}
}
