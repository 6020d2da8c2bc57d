package risk

import "errors"

var (
	// ErrInvalidInput is the only error that crosses the request boundary.
	// Every other failure degrades into conservative output instead.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAnalysisFailed marks a batch judgment call that timed out,
	// failed in transport, or returned an unparseable response.
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrReconciliationFailed marks the same failure modes at the
	// reconciliation step.
	ErrReconciliationFailed = errors.New("reconciliation failed")
)
