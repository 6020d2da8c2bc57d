package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/polysense/riskagent/internal/contracts"
	"github.com/polysense/riskagent/internal/llm"
	"github.com/polysense/riskagent/internal/risk"
	"github.com/polysense/riskagent/pkg/config"
	"github.com/polysense/riskagent/pkg/logger"
	"github.com/polysense/riskagent/pkg/redis"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the risk signal pipeline over a research payload",
	Long: `Run the full risk signal pipeline once and print the result as JSON.

The research payload is read from --input, from stdin with --stdin, or a
built-in sample payload is used when neither is given.

Examples:
  riskagent analyze --input research.json
  cat research.json | riskagent analyze --stdin
  riskagent analyze --input research.json --model gpt-5.1 --timeout 60s --output signals.json`,
	RunE: runAnalyze,
}

var (
	analyzeInput   string
	analyzeStdin   bool
	analyzeModel   string
	analyzeTimeout time.Duration
	analyzeOutput  string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "research payload JSON file")
	analyzeCmd.Flags().BoolVar(&analyzeStdin, "stdin", false, "read the research payload from stdin")
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "override the judgment model")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 0, "override the whole-pipeline deadline (e.g. 60s)")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "", "write the result to a file instead of stdout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Read the research payload
	input, err := readAnalyzeInput(log)
	if err != nil {
		return err
	}

	// 4. Connect to redis (optional judgment cache)
	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without judgment cache")
		redisClient = redis.Disabled()
	}
	defer redisClient.Close()

	// 5. Create judgment client and pipeline config
	completer := llm.NewClient(cfg, log, redis.NewCache(redisClient, "riskagent"))
	if analyzeModel != "" {
		completer = completer.WithModel(analyzeModel)
	}

	pipelineCfg := risk.ConfigFrom(cfg).WithTotalTimeout(analyzeTimeout)

	// 6. Run the pipeline
	agent, err := risk.NewAgent(completer, pipelineCfg, log)
	if err != nil {
		return fmt.Errorf("build agent: %w", err)
	}

	output, err := agent.Run(cmd.Context(), input)
	if err != nil {
		return err
	}

	// 7. Write the result
	return writeAnalyzeOutput(output)
}

// readAnalyzeInput loads the research payload from the selected source.
// Falls back to a built-in sample when no source is given.
func readAnalyzeInput(log *logger.Logger) (*contracts.RiskAnalysisInput, error) {
	var raw []byte
	var err error

	switch {
	case analyzeInput != "":
		raw, err = os.ReadFile(analyzeInput)
		if err != nil {
			return nil, fmt.Errorf("read input file: %w", err)
		}
	case analyzeStdin:
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
	default:
		log.Info("No input source given, using the built-in sample payload")
		return sampleInput(), nil
	}

	var input contracts.RiskAnalysisInput
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("decode research payload: %w", err)
	}
	return &input, nil
}

func writeAnalyzeOutput(output *contracts.RiskAnalysisOutput) error {
	pretty, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	pretty = append(pretty, '\n')

	if analyzeOutput != "" {
		if err := os.WriteFile(analyzeOutput, pretty, 0o644); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
		fmt.Printf("Result written to %s\n", analyzeOutput)
		return nil
	}

	_, err = os.Stdout.Write(pretty)
	return err
}

// sampleInput is a small election payload for trying the pipeline
// without preparing a research file.
func sampleInput() *contracts.RiskAnalysisInput {
	p := func(v float64) *float64 { return &v }

	return &contracts.RiskAnalysisInput{
		ResearchSummary: "Polling aggregates shifted 4 points toward candidate A over the last week. " +
			"Early-vote returns in the three largest swing counties lean the same way.",
		KeyFindings: []string{
			"Candidate A gained 4 points in the polling aggregate over seven days",
			"Early-vote returns in swing counties outperform candidate A's 2022 baseline",
			"Prediction-market prices have not yet moved with the polling shift",
		},
		Sentiment: contracts.SentimentBullish,
		MainEvent: contracts.MainEvent{
			Title:       "2026 Gubernatorial Election",
			Description: "Winner of the 2026 gubernatorial race",
		},
		Markets: []contracts.Market{
			{ID: "gov-2026-a", Title: "Candidate A wins", CurrentPrice: p(0.46)},
			{ID: "gov-2026-b", Title: "Candidate B wins", CurrentPrice: p(0.51)},
			{ID: "gov-2026-turnout-60", Title: "Turnout above 60%", CurrentPrice: p(0.33)},
		},
	}
}
