package risk

import (
	"context"
	"time"

	"github.com/polysense/riskagent/internal/contracts"
)

// AnalyzeBatchWithRetry retries a failed batch analysis up to
// cfg.MaxRetries additional attempts with doubling backoff, then falls
// back to conservative default signals. It never fails: a batch's total
// analysis failure degrades its signals, it does not abort the run.
func (a *Analyzer) AnalyzeBatchWithRetry(ctx context.Context, input *contracts.RiskAnalysisInput, batch []contracts.Market, batchIndex int) BatchResult {
	var last BatchResult

	delay := a.cfg.RetryDelay

	for attempt := 0; attempt <= a.cfg.MaxRetries; attempt++ {
		last = a.AnalyzeBatch(ctx, input, batch, batchIndex)
		if last.Success() {
			return last
		}

		if attempt == a.cfg.MaxRetries {
			break
		}

		a.logger.WithFields(map[string]interface{}{
			"batch_index": batchIndex,
			"attempt":     attempt + 1,
			"delay":       delay,
			"error":       last.Err.Error(),
		}).Warn("Retrying batch analysis")

		select {
		case <-ctx.Done():
			return FallbackBatch(batch, batchIndex, "pipeline deadline exceeded")
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}

	reason := "analysis unavailable"
	if last.Err != nil {
		reason = last.Err.Error()
	}

	a.logger.WithFields(map[string]interface{}{
		"batch_index": batchIndex,
		"markets":     len(batch),
		"error":       reason,
	}).Warn("Batch analysis exhausted retries, using fallback signals")

	return FallbackBatch(batch, batchIndex, reason)
}
