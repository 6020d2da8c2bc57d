package risk

import (
	"fmt"
	"time"

	"github.com/polysense/riskagent/pkg/config"
)

// maxRetryDelay caps the backoff between analysis attempts
const maxRetryDelay = 10 * time.Second

// Config holds the knobs for one pipeline run. It is immutable once the
// agent is constructed; per-request overrides produce a copy.
type Config struct {
	BatchSize             int
	MaxConcurrentBatches  int
	PerBatchTimeout       time.Duration
	ReconciliationTimeout time.Duration
	TotalTimeout          time.Duration
	MaxRetries            int
	RetryDelay            time.Duration
}

// ConfigFrom builds a pipeline config from the application config
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		BatchSize:             cfg.Pipeline.BatchSize,
		MaxConcurrentBatches:  cfg.Pipeline.MaxConcurrentBatches,
		PerBatchTimeout:       cfg.Pipeline.PerBatchTimeout,
		ReconciliationTimeout: cfg.Pipeline.ReconciliationTimeout,
		TotalTimeout:          cfg.Pipeline.TotalTimeout,
		MaxRetries:            cfg.Pipeline.MaxRetries,
		RetryDelay:            cfg.Pipeline.RetryDelay,
	}
}

// Validate reports configuration errors. Called at construction time;
// an invalid batch size is a startup error, never a call-time one.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.MaxConcurrentBatches <= 0 {
		return fmt.Errorf("max concurrent batches must be positive, got %d", c.MaxConcurrentBatches)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	}
	if c.PerBatchTimeout <= 0 {
		return fmt.Errorf("per-batch timeout must be positive, got %v", c.PerBatchTimeout)
	}
	if c.ReconciliationTimeout <= 0 {
		return fmt.Errorf("reconciliation timeout must be positive, got %v", c.ReconciliationTimeout)
	}
	if c.TotalTimeout <= 0 {
		return fmt.Errorf("total timeout must be positive, got %v", c.TotalTimeout)
	}
	return nil
}

// WithTotalTimeout returns a copy with the whole-pipeline deadline
// replaced. Zero leaves the config unchanged.
func (c Config) WithTotalTimeout(timeout time.Duration) Config {
	if timeout > 0 {
		c.TotalTimeout = timeout
	}
	return c
}
