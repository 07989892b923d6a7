package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/newthinker/folio/internal/marketdata"
	"github.com/newthinker/folio/internal/report"
)

const defaultCommandTimeout = 60 * time.Second

var (
	analyzeRange   string
	analyzeJSON    bool
	analyzeSeries  bool
	analyzeTimeout = defaultCommandTimeout
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze TICKER",
	Short: "Compute technical indicators for a ticker",
	Long:  "Fetch daily history for TICKER and print RSI, MACD, SMA and Bollinger Band readings",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	ranges := make([]string, len(marketdata.Ranges))
	for i, r := range marketdata.Ranges {
		ranges[i] = string(r)
	}

	analyzeCmd.Flags().StringVarP(&analyzeRange, "range", "r", "",
		"history range: "+strings.Join(ranges, ", ")+" (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print JSON instead of a table")
	analyzeCmd.Flags().BoolVar(&analyzeSeries, "series", false, "include per-bar series in JSON output")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", defaultCommandTimeout, "overall timeout")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var rng marketdata.Range
	if analyzeRange != "" {
		r, err := marketdata.ParseRange(analyzeRange)
		if err != nil {
			return err
		}
		rng = r
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.log.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()

	a, err := e.svc.Analyze(ctx, args[0], rng)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		if !analyzeSeries {
			a.Indicators = a.Indicators.WithoutSeries()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}

	if err := report.Analysis(out, a.Indicators, a.Signals, a.Currency); err != nil {
		return err
	}
	if len(a.Missing) > 0 {
		fmt.Fprintf(out, "\nNot enough history (%s) for: %s\n", a.Range, strings.Join(a.Missing, ", "))
	}
	return nil
}
