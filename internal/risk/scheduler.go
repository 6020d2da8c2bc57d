package risk

import (
	"context"
	"sync"

	"github.com/polysense/riskagent/internal/contracts"
	"github.com/polysense/riskagent/pkg/logger"
)

// Scheduler fans batches out to the retrying analyzer, admission-limited
// to MaxConcurrentBatches in flight. Results land in slots indexed by
// batch position, so no ordering work and no locks are needed: the
// returned list is always in original batch order regardless of
// completion order.
type Scheduler struct {
	analyzer *Analyzer
	cfg      Config
	logger   *logger.Logger
}

// NewScheduler creates a batch scheduler
func NewScheduler(analyzer *Analyzer, cfg Config, log *logger.Logger) *Scheduler {
	return &Scheduler{
		analyzer: analyzer,
		cfg:      cfg,
		logger:   log,
	}
}

// RunAll analyzes all batches concurrently and returns their results in
// input order. The retrying analyzer never fails, so this has no failure
// path of its own; when ctx expires, batches still waiting for a slot
// (or cut off mid-flight) are filled in with fallback signals.
func (s *Scheduler) RunAll(ctx context.Context, input *contracts.RiskAnalysisInput, batches [][]contracts.Market) []BatchResult {
	results := make([]BatchResult, len(batches))
	sem := make(chan struct{}, s.cfg.MaxConcurrentBatches)

	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(idx int, batch []contracts.Market) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = FallbackBatch(batch, idx, "pipeline deadline exceeded before batch started")
				return
			}

			if ctx.Err() != nil {
				results[idx] = FallbackBatch(batch, idx, "pipeline deadline exceeded before batch started")
				return
			}

			results[idx] = s.analyzer.AnalyzeBatchWithRetry(ctx, input, batch, idx)
		}(i, batch)
	}
	wg.Wait()

	return results
}
