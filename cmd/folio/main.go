package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "folio - portfolio valuation and technical indicators",
	Long: `folio values multi-currency stock portfolios in USD and computes
technical indicators (RSI, MACD, SMA, Bollinger Bands) with signal readings.
Tickers ending in .BA, .SA and .MX are priced in ARS, BRL and MXN.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
