package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/polysense/riskagent/internal/contracts"
	"github.com/polysense/riskagent/internal/llm"
	"github.com/polysense/riskagent/internal/risk"
	"github.com/polysense/riskagent/pkg/logger"
)

// RiskHandler handles risk analysis API endpoints
type RiskHandler struct {
	completer llm.Completer
	cfg       risk.Config
	logger    *logger.Logger
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(completer llm.Completer, cfg risk.Config, log *logger.Logger) *RiskHandler {
	return &RiskHandler{
		completer: completer,
		cfg:       cfg,
		logger:    log,
	}
}

// Analyze runs the risk signal pipeline over a research payload
// POST /api/risk?model=&timeout=
func (h *RiskHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input contracts.RiskAnalysisInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	completer := h.completer
	if model := r.URL.Query().Get("model"); model != "" {
		if client, ok := completer.(*llm.Client); ok {
			completer = client.WithModel(model)
		}
	}

	cfg := h.cfg
	if raw := r.URL.Query().Get("timeout"); raw != "" {
		timeout, err := parseTimeout(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'timeout' parameter (expected duration or seconds)")
			return
		}
		cfg = cfg.WithTotalTimeout(timeout)
	}

	agent, err := risk.NewAgent(completer, cfg, h.logger)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build risk agent")
		respondError(w, http.StatusInternalServerError, "Failed to initialize analysis")
		return
	}

	output, err := agent.Run(ctx, &input)
	if err != nil {
		// Only invalid input crosses the pipeline boundary.
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, output)
}

// parseTimeout accepts a Go duration string or a bare number of seconds.
func parseTimeout(raw string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(raw, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %q", raw)
	}
	return d, nil
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
