package commands

import (
	"github.com/spf13/cobra"
)

// Build info - set by ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

var (
	// Global flags
	endpoint  string
	apiKey    string
	threshold int
	timeoutMs int
	format    string
	verbose   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fraudcheck",
	Short: "Check ad-bid requests against Forensiq",
	Long: `fraudcheck sends bid fields to the Forensiq check API and prints the
verdict and whether the bidder would bid.

Settings are read from the environment (FORENSIQ_KEY, FORENSIQ_ENDPOINT, ...)
and an optional .env file; flags override them.

Examples:
  fraudcheck check --ip 203.0.113.7 --seller news.example.com
  fraudcheck check --ip 203.0.113.7 --seller news.example.com --count 5 --format json
  fraudcheck version`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Forensiq check URL (overrides FORENSIQ_ENDPOINT)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "key", "", "Forensiq API key (overrides FORENSIQ_KEY)")
	rootCmd.PersistentFlags().IntVar(&threshold, "threshold", 0, "Risk threshold (overrides FORENSIQ_THRESHOLD)")
	rootCmd.PersistentFlags().IntVar(&timeoutMs, "timeout-ms", 0, "Request timeout in milliseconds (overrides FORENSIQ_TIMEOUT_MS)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log provider failures and pool activity to stderr")
}
