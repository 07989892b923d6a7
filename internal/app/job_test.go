package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/folio/internal/archive"
	"github.com/newthinker/folio/internal/config"
)

func TestValuationJob_Run(t *testing.T) {
	p := newMockProvider()
	p.prices["AAPL"] = 180

	dir := t.TempDir()
	file := filepath.Join(dir, "positions.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
positions:
  - ticker: AAPL
    quantity: 2
    purchase_price: 100
`), 0o644))

	fs, err := archive.NewLocalFS(filepath.Join(dir, "archive"))
	require.NoError(t, err)
	arch := archive.NewArchiver(fs)

	cfg := config.Defaults()
	cfg.Archive.Enabled = true
	svc, err := New(cfg, Deps{Provider: p, Archiver: arch}, nil)
	require.NoError(t, err)

	job := NewValuationJob(svc, file)
	assert.Equal(t, "valuation", job.Name())
	require.NoError(t, job.Run(context.Background()))

	paths, err := arch.List(context.Background(), archive.KindValuation, time.Now())
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestValuationJob_MissingFile(t *testing.T) {
	svc, err := New(config.Defaults(), Deps{Provider: newMockProvider()}, nil)
	require.NoError(t, err)

	job := NewValuationJob(svc, filepath.Join(t.TempDir(), "missing.yaml"))
	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}
