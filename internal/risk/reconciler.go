package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/polysense/riskagent/internal/contracts"
	"github.com/polysense/riskagent/internal/llm"
	"github.com/polysense/riskagent/pkg/logger"
)

// Reconciler reviews all batch signals together for cross-batch logical
// consistency (the canonical case: monotonicity across date-indexed
// markets of one cumulative claim) and produces the overall analysis.
// On failure it degrades to passing the batch signals through unchanged.
type Reconciler struct {
	completer llm.Completer
	cfg       Config
	logger    *logger.Logger
}

// NewReconciler creates a reconciler
func NewReconciler(completer llm.Completer, cfg Config, log *logger.Logger) *Reconciler {
	return &Reconciler{
		completer: completer,
		cfg:       cfg,
		logger:    log,
	}
}

type reconcileResponse struct {
	Signals         []rawSignal `json:"signals"`
	OverallAnalysis string      `json:"overall_analysis"`
}

// Reconcile runs the consistency pass over the concatenated batch
// signals. Retries like the batch analyzer; after exhaustion it returns
// the input signals unchanged with a synthesized summary. Signals are
// never dropped or reordered.
func (r *Reconciler) Reconcile(ctx context.Context, input *contracts.RiskAnalysisInput, signals []contracts.MarketSignal) ([]contracts.MarketSignal, string) {
	prompt := formatReconciliationPrompt(input, signals)

	var lastErr error
	delay := r.cfg.RetryDelay

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		reconciled, overall, err := r.attempt(ctx, prompt, signals)
		if err == nil {
			r.logger.WithFields(map[string]interface{}{
				"signals":  len(reconciled),
				"attempts": attempt + 1,
			}).Debug("Reconciliation completed")
			return reconciled, overall
		}
		lastErr = err

		if attempt == r.cfg.MaxRetries {
			break
		}

		r.logger.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   delay,
			"error":   err.Error(),
		}).Warn("Retrying reconciliation")

		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
		case <-time.After(delay):
		}
		if ctx.Err() != nil {
			break
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}

	r.logger.WithError(lastErr).Warn("Reconciliation failed, passing batch signals through unchanged")
	return FallbackReconciliation(signals, input.Sentiment, fmt.Sprintf("%v", lastErr))
}

// attempt runs a single reconciliation call under the reconciliation
// timeout and strictly validates the result. Any response that does not
// yield exactly one well-formed signal per input market is treated as
// total failure; partial adoption is never attempted.
func (r *Reconciler) attempt(ctx context.Context, prompt string, signals []contracts.MarketSignal) ([]contracts.MarketSignal, string, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.ReconciliationTimeout)
	defer cancel()

	raw, err := r.completer.Complete(callCtx, reconcileSystemPrompt, prompt)
	if err != nil {
		return nil, "", fmt.Errorf("%w: judgment call: %v", ErrReconciliationFailed, err)
	}

	obj, err := llm.ExtractJSONObject(raw)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrReconciliationFailed, err)
	}

	var parsed reconcileResponse
	if err := json.Unmarshal(obj, &parsed); err != nil {
		return nil, "", fmt.Errorf("%w: response does not match schema: %v", ErrReconciliationFailed, err)
	}

	if parsed.OverallAnalysis == "" {
		return nil, "", fmt.Errorf("%w: response missing overall_analysis", ErrReconciliationFailed)
	}

	byID := make(map[string]rawSignal, len(parsed.Signals))
	for _, sig := range parsed.Signals {
		if sig.MarketID == "" {
			return nil, "", fmt.Errorf("%w: response contains a signal without market_id", ErrReconciliationFailed)
		}
		if _, dup := byID[sig.MarketID]; dup {
			return nil, "", fmt.Errorf("%w: duplicate signal for market %q", ErrReconciliationFailed, sig.MarketID)
		}
		byID[sig.MarketID] = sig
	}

	// Adopt the model's signal/confidence/rationale but keep the input
	// order, titles, and prices. Missing coverage fails the attempt.
	reconciled := make([]contracts.MarketSignal, 0, len(signals))
	for _, orig := range signals {
		sig, ok := byID[orig.MarketID]
		if !ok {
			return nil, "", fmt.Errorf("%w: response missing signal for market %q", ErrReconciliationFailed, orig.MarketID)
		}
		reconciled = append(reconciled, normalizeSignal(sig, contracts.Market{
			ID:           orig.MarketID,
			Title:        orig.MarketTitle,
			CurrentPrice: orig.CurrentPrice,
		}))
	}

	return reconciled, parsed.OverallAnalysis, nil
}
