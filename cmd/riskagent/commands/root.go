package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "riskagent",
	Short: "Prediction-market risk signal generator",
	Long: `riskagent turns pre-built event research into per-market trading signals.

Research (summary, key findings, sentiment) plus the event's markets go in,
a buy/sell/hold signal with confidence and rationale per market comes out.
Markets are analyzed in concurrent batches and reconciled for cross-market
consistency; when analysis capacity is unavailable the pipeline degrades to
conservative hold signals instead of failing.

Examples:
  riskagent analyze --input research.json
  cat research.json | riskagent analyze --stdin --model gpt-5.1 --timeout 60s
  riskagent api --port 8091`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
