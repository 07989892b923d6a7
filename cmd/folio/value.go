package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/folio/internal/positions"
	"github.com/newthinker/folio/internal/report"
)

var (
	valueJSON    bool
	valueTimeout = defaultCommandTimeout
)

var valueCmd = &cobra.Command{
	Use:   "value [positions.yaml]",
	Short: "Value a portfolio in USD",
	Long: `Fetch current quotes and value every position in USD.
The positions file defaults to positions_file from the config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValue,
}

func init() {
	valueCmd.Flags().BoolVar(&valueJSON, "json", false, "print JSON instead of a table")
	valueCmd.Flags().DurationVar(&valueTimeout, "timeout", defaultCommandTimeout, "overall timeout")
	rootCmd.AddCommand(valueCmd)
}

func runValue(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.log.Sync()

	path := e.cfg.PositionsFile
	if len(args) == 1 {
		path = args[0]
	}

	ps, err := positions.Load(path)
	if err != nil {
		return err
	}
	e.log.Debug("positions loaded", zap.String("file", path), zap.Int("count", len(ps)))

	ctx, cancel := context.WithTimeout(cmd.Context(), valueTimeout)
	defer cancel()

	v, err := e.svc.Value(ctx, ps)
	if err != nil {
		return fmt.Errorf("valuing portfolio: %w", err)
	}

	out := cmd.OutOrStdout()
	if valueJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	if err := report.Portfolio(out, v.Portfolio); err != nil {
		return err
	}
	if v.SnapshotPath != "" {
		fmt.Fprintf(out, "\nSnapshot: %s\n", v.SnapshotPath)
	}
	return nil
}
