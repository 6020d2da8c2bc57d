package contracts

import (
	"fmt"
	"time"
)

// Disclaimer is appended verbatim to every analysis output.
const Disclaimer = "This analysis is generated automatically from pre-supplied research " +
	"and is not financial advice. Prediction markets are volatile; signals may be " +
	"degraded when analysis capacity is unavailable. Always do your own research " +
	"before trading."

// Sentiment is the overall research sentiment for the event
type Sentiment string

const (
	SentimentVeryBearish Sentiment = "very_bearish"
	SentimentBearish     Sentiment = "bearish"
	SentimentNeutral     Sentiment = "neutral"
	SentimentBullish     Sentiment = "bullish"
	SentimentVeryBullish Sentiment = "very_bullish"
)

// Valid reports whether s is one of the known sentiment values
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentVeryBearish, SentimentBearish, SentimentNeutral,
		SentimentBullish, SentimentVeryBullish:
		return true
	}
	return false
}

// Signal is the trading recommendation for one market
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// Valid reports whether s is one of the known signal values
func (s Signal) Valid() bool {
	return s == SignalBuy || s == SignalSell || s == SignalHold
}

// Confidence expresses how directly the research bears on a market
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is one of the known confidence values
func (c Confidence) Valid() bool {
	return c == ConfidenceHigh || c == ConfidenceMedium || c == ConfidenceLow
}

// MainEvent identifies the news event the markets belong to
type MainEvent struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Market is one prediction market under the main event.
// CurrentPrice, when present, is a probability in [0, 1].
type Market struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	CurrentPrice *float64 `json:"current_price,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// RiskAnalysisInput is the full request payload for one pipeline run
type RiskAnalysisInput struct {
	ResearchSummary string    `json:"research_summary"`
	KeyFindings     []string  `json:"key_findings"`
	Sentiment       Sentiment `json:"sentiment"`
	MainEvent       MainEvent `json:"main_event"`
	Markets         []Market  `json:"markets"`
}

// Validate rejects invalid inputs before any work starts.
// This is the only failure that ever crosses the request boundary.
func (in *RiskAnalysisInput) Validate() error {
	if len(in.Markets) == 0 {
		return fmt.Errorf("markets must not be empty")
	}
	if len(in.KeyFindings) == 0 {
		return fmt.Errorf("key_findings must not be empty")
	}
	if !in.Sentiment.Valid() {
		return fmt.Errorf("invalid sentiment %q", in.Sentiment)
	}

	seen := make(map[string]bool, len(in.Markets))
	for i, m := range in.Markets {
		if m.ID == "" {
			return fmt.Errorf("market at index %d has empty id", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate market id %q", m.ID)
		}
		seen[m.ID] = true

		if m.CurrentPrice != nil {
			if p := *m.CurrentPrice; p < 0.0 || p > 1.0 {
				return fmt.Errorf("market %q current_price %v outside [0, 1]", m.ID, p)
			}
		}
	}

	return nil
}

// MarketSignal is the finalized recommendation for one market.
// CurrentPrice is carried from the input so the reconciler can see it.
type MarketSignal struct {
	MarketID     string     `json:"market_id"`
	MarketTitle  string     `json:"market_title"`
	Signal       Signal     `json:"signal"`
	Confidence   Confidence `json:"confidence"`
	Rationale    string     `json:"rationale"`
	CurrentPrice *float64   `json:"current_price,omitempty"`
}

// RiskAnalysisOutput is the complete response for one pipeline run
type RiskAnalysisOutput struct {
	EventTitle      string         `json:"event_title"`
	Signals         []MarketSignal `json:"signals"`
	OverallAnalysis string         `json:"overall_analysis"`
	Timestamp       time.Time      `json:"timestamp"`
	Disclaimer      string         `json:"disclaimer"`
}

// SignalCounts tallies signals by recommendation
func SignalCounts(signals []MarketSignal) (buy, sell, hold int) {
	for _, s := range signals {
		switch s.Signal {
		case SignalBuy:
			buy++
		case SignalSell:
			sell++
		case SignalHold:
			hold++
		}
	}
	return buy, sell, hold
}
