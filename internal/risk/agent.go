package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/polysense/riskagent/internal/contracts"
	"github.com/polysense/riskagent/internal/llm"
	"github.com/polysense/riskagent/pkg/logger"
)

// Agent composes the signal pipeline: Batching -> Analyzing ->
// Reconciling -> Done, under one whole-pipeline deadline. It owns the
// intermediate state of a single run; nothing is shared across runs and
// the config is read-only, so one Agent serves concurrent requests.
type Agent struct {
	analyzer   *Analyzer
	scheduler  *Scheduler
	reconciler *Reconciler
	cfg        Config
	logger     *logger.Logger
}

// NewAgent creates the pipeline. An invalid config (non-positive batch
// size or concurrency) is rejected here, at startup, not at run time.
func NewAgent(completer llm.Completer, cfg Config, log *logger.Logger) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("risk agent config: %w", err)
	}

	analyzer := NewAnalyzer(completer, cfg, log)

	return &Agent{
		analyzer:   analyzer,
		scheduler:  NewScheduler(analyzer, cfg, log),
		reconciler: NewReconciler(completer, cfg, log),
		cfg:        cfg,
		logger:     log,
	}, nil
}

// Run executes one full pipeline run. The only error it can return is
// ErrInvalidInput; every runtime failure degrades into a complete,
// schema-valid signal set with conservative entries instead.
func (a *Agent) Run(ctx context.Context, input *contracts.RiskAnalysisInput) (*contracts.RiskAnalysisOutput, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	startTime := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, a.cfg.TotalTimeout)
	defer cancel()

	// Batching
	batches := SplitMarkets(input.Markets, a.cfg.BatchSize)

	a.logger.WithFields(map[string]interface{}{
		"event":   input.MainEvent.Title,
		"markets": len(input.Markets),
		"batches": len(batches),
	}).Info("Starting risk analysis run")

	// Analyzing
	results := a.scheduler.RunAll(runCtx, input, batches)
	signals := a.collectSignals(input, results)

	// Reconciling
	var overall string
	if runCtx.Err() != nil {
		// Deadline already spent: skip the reconciliation call entirely
		// and assemble the degraded output. Observable via this log.
		a.logger.WithFields(map[string]interface{}{
			"event":   input.MainEvent.Title,
			"elapsed": time.Since(startTime),
		}).Warn("Pipeline deadline exceeded, assembling best-effort output")
		signals, overall = FallbackReconciliation(signals, input.Sentiment, "pipeline deadline exceeded")
	} else {
		signals, overall = a.reconciler.Reconcile(runCtx, input, signals)
	}

	// Done
	output := &contracts.RiskAnalysisOutput{
		EventTitle:      input.MainEvent.Title,
		Signals:         signals,
		OverallAnalysis: overall,
		Timestamp:       time.Now().UTC(),
		Disclaimer:      contracts.Disclaimer,
	}

	if err := checkCoverage(input, output.Signals); err != nil {
		// Hard invariant: one signal per input market, in input order.
		// Reaching this means a component misbehaved; rebuild the set
		// from fallbacks rather than returning a malformed response.
		a.logger.WithError(err).Error("Signal coverage invariant violated, rebuilding from fallbacks")
		repaired := make([]contracts.MarketSignal, 0, len(input.Markets))
		for _, m := range input.Markets {
			repaired = append(repaired, FallbackSignal(m, "internal signal coverage error"))
		}
		output.Signals = repaired
	}

	buy, sell, hold := contracts.SignalCounts(output.Signals)
	a.logger.WithFields(map[string]interface{}{
		"event":    input.MainEvent.Title,
		"signals":  len(output.Signals),
		"buy":      buy,
		"sell":     sell,
		"hold":     hold,
		"duration": time.Since(startTime),
	}).Info("Risk analysis run completed")

	return output, nil
}

// collectSignals flattens batch results in batch order and repairs any
// market left uncovered with a fallback signal, so the signal list
// always matches the input market list one-to-one, in order.
func (a *Agent) collectSignals(input *contracts.RiskAnalysisInput, results []BatchResult) []contracts.MarketSignal {
	byID := make(map[string]contracts.MarketSignal, len(input.Markets))
	for _, res := range results {
		for _, sig := range res.Signals {
			byID[sig.MarketID] = sig
		}
	}

	signals := make([]contracts.MarketSignal, 0, len(input.Markets))
	for _, m := range input.Markets {
		sig, ok := byID[m.ID]
		if !ok {
			sig = FallbackSignal(m, "no batch result produced for this market")
		}
		signals = append(signals, sig)
	}

	return signals
}

// checkCoverage verifies the one-signal-per-market invariant
func checkCoverage(input *contracts.RiskAnalysisInput, signals []contracts.MarketSignal) error {
	if len(signals) != len(input.Markets) {
		return fmt.Errorf("signal count %d does not match market count %d", len(signals), len(input.Markets))
	}
	for i, m := range input.Markets {
		if signals[i].MarketID != m.ID {
			return fmt.Errorf("signal %d has market id %q, want %q", i, signals[i].MarketID, m.ID)
		}
	}
	return nil
}
