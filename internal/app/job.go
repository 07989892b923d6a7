package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/newthinker/folio/internal/positions"
)

// ValuationJob values a positions file on each run, archiving the result
// when the archive is enabled.
type ValuationJob struct {
	svc  *Service
	path string
}

// NewValuationJob creates a job valuing the positions file at path
func NewValuationJob(svc *Service, path string) *ValuationJob {
	return &ValuationJob{svc: svc, path: path}
}

func (j *ValuationJob) Name() string { return "valuation" }

// Run reloads the positions file so edits apply without a restart.
func (j *ValuationJob) Run(ctx context.Context) error {
	held, err := positions.Load(j.path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", j.path, err)
	}

	v, err := j.svc.Value(ctx, held)
	if err != nil {
		return err
	}

	j.svc.logger.Info("scheduled valuation",
		zap.Int("positions", len(held)),
		zap.Float64("total_value", v.Portfolio.TotalValue),
		zap.String("snapshot", v.SnapshotPath),
	)
	return nil
}
