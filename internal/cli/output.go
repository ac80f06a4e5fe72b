// Package cli renders fraud check results for the command-line tool.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/mbd888/bidguard/internal/forensiq"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// Verdict is one check as printed by the CLI.
type Verdict struct {
	Bid             bool   `json:"bid" yaml:"bid"`
	Outcome         string `json:"outcome" yaml:"outcome"`
	Seller          string `json:"seller" yaml:"seller"`
	IP              string `json:"ip" yaml:"ip"`
	RiskScore       *int   `json:"riskScore,omitempty" yaml:"riskScore,omitempty"`
	ProviderTimeMs  int    `json:"providerTimeMs,omitempty" yaml:"providerTimeMs,omitempty"`
	RoundTripMillis int64  `json:"roundTripMillis" yaml:"roundTripMillis"`
	Reason          string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Summary is the aggregate printed after a batch of checks.
type Summary struct {
	Verdicts []Verdict              `json:"verdicts" yaml:"verdicts"`
	Stats    forensiq.StatsSnapshot `json:"stats" yaml:"stats"`
}

// NewVerdict flattens a Result for display.
func NewVerdict(res *forensiq.Result) Verdict {
	return Verdict{
		Bid:             res.ShouldBid(),
		Outcome:         res.Outcome.String(),
		Seller:          res.SellerDomain,
		IP:              res.IP,
		RiskScore:       res.RiskScore,
		ProviderTimeMs:  res.ProviderTimeMs,
		RoundTripMillis: res.RoundTripMillis,
		Reason:          res.Reason,
	}
}

// ParseFormat validates a --format value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// PrintSummary outputs verdicts and stats in the specified format
func PrintSummary(w io.Writer, sum Summary, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, sum)
	case FormatYAML:
		return printYAML(w, sum)
	case FormatTable:
		if err := printVerdicts(w, sum.Verdicts); err != nil {
			return err
		}
		return printStats(w, sum.Stats)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(w io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printVerdicts(w io.Writer, verdicts []Verdict) error {
	table := tablewriter.NewWriter(w)
	table.Header("Bid", "Outcome", "Seller", "IP", "Risk", "Round Trip", "Reason")

	for _, v := range verdicts {
		risk := "-"
		if v.RiskScore != nil {
			risk = strconv.Itoa(*v.RiskScore)
		}
		reason := v.Reason
		if len(reason) > 40 {
			reason = reason[:37] + "..."
		}
		if err := table.Append(
			strconv.FormatBool(v.Bid),
			v.Outcome,
			v.Seller,
			v.IP,
			risk,
			fmt.Sprintf("%dms", v.RoundTripMillis),
			reason,
		); err != nil {
			return err
		}
	}

	return table.Render()
}

func printStats(w io.Writer, s forensiq.StatsSnapshot) error {
	table := tablewriter.NewWriter(w)
	table.Header("Calls", "Total Latency", "Avg Latency")
	if err := table.Append(
		strconv.FormatUint(s.Calls, 10),
		fmt.Sprintf("%dms", s.LatencyMillis),
		fmt.Sprintf("%.1fms", s.AvgLatencyMillis),
	); err != nil {
		return err
	}
	return table.Render()
}
