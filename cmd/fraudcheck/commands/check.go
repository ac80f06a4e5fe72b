package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbd888/bidguard/internal/cli"
	"github.com/mbd888/bidguard/internal/config"
	"github.com/mbd888/bidguard/internal/forensiq"
	"github.com/mbd888/bidguard/internal/logging"
)

var (
	checkReq   forensiq.Request
	checkCount int
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Score one bid request",
	Long: `Score a bid request and print the verdict.

--ip and --seller are required. With --count N the request is sent N times
and the call/latency totals are printed as well.

Examples:
  fraudcheck check --ip 203.0.113.7 --seller news.example.com
  fraudcheck check --ip 203.0.113.7 --seller news.example.com --url http://news.example.com/a --ua "Mozilla/5.0"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outFormat, err := cli.ParseFormat(format)
		if err != nil {
			return err
		}
		if checkCount < 1 {
			return fmt.Errorf("--count must be at least 1")
		}

		cfg := config.FromEnv()
		applyFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		level := "error"
		if verbose {
			level = "debug"
		}
		logger := logging.NewWithWriter(cmd.ErrOrStderr(), level, "text")

		client, err := forensiq.New(cfg.Provider(), forensiq.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}
		defer client.Maintain()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(checkCount)*cfg.RequestTimeout+time.Second)
		defer cancel()

		sum := cli.Summary{}
		for i := 0; i < checkCount; i++ {
			res, err := client.Evaluate(ctx, checkReq)
			if err != nil {
				return err
			}
			sum.Verdicts = append(sum.Verdicts, cli.NewVerdict(res))
		}
		sum.Stats = client.Stats().Snapshot()

		return cli.PrintSummary(cmd.OutOrStdout(), sum, outFormat)
	},
}

// applyFlags overlays explicitly set global flags on cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.ForensiqEndpoint = endpoint
	}
	if flags.Changed("key") {
		cfg.ForensiqKey = apiKey
	}
	if flags.Changed("threshold") {
		cfg.RiskThreshold = threshold
	}
	if flags.Changed("timeout-ms") {
		cfg.RequestTimeout = time.Duration(timeoutMs) * time.Millisecond
	}
}

func init() {
	checkCmd.Flags().StringVar(&checkReq.ClientIP, "ip", "", "Client IP address (required)")
	checkCmd.Flags().StringVar(&checkReq.SellerDomain, "seller", "", "Seller domain (required)")
	checkCmd.Flags().StringVar(&checkReq.PublisherURL, "url", "", "Publisher page URL")
	checkCmd.Flags().StringVar(&checkReq.UserAgent, "ua", "", "Client user agent")
	checkCmd.Flags().StringVar(&checkReq.CreativeID, "crid", "", "Creative ID")
	checkCmd.Flags().StringVar(&checkReq.RequestType, "rt", forensiq.DefaultRequestType, "Request type")
	checkCmd.Flags().IntVar(&checkCount, "count", 1, "Number of times to send the request")
	rootCmd.AddCommand(checkCmd)
}
