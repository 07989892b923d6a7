package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/folio/internal/core"
)

// Snapshot kinds, also used as the top-level directory
const (
	KindValuation = "valuations"
	KindAnalysis  = "analyses"
)

const dayLayout = "2006-01-02"

// Snapshot is an archived result
type Snapshot struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	TakenAt time.Time       `json:"taken_at"`
	Payload json.RawMessage `json:"payload"`
}

// Archiver writes snapshots as <kind>/<yyyy-mm-dd>/<uuid>.json
type Archiver struct {
	store Storage
	now   func() time.Time
}

// NewArchiver creates an archiver over store
func NewArchiver(store Storage) *Archiver {
	return &Archiver{store: store, now: time.Now}
}

// SnapshotPath returns the storage path for a snapshot
func SnapshotPath(kind string, takenAt time.Time, id string) string {
	return path.Join(kind, takenAt.UTC().Format(dayLayout), id+".json")
}

// Save archives payload and returns its path
func (a *Archiver) Save(ctx context.Context, kind string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", core.WrapError(core.ErrArchiveFailed, fmt.Errorf("encoding %s payload: %w", kind, err))
	}

	snap := Snapshot{
		ID:      uuid.NewString(),
		Kind:    kind,
		TakenAt: a.now().UTC(),
		Payload: raw,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", core.WrapError(core.ErrArchiveFailed, err)
	}

	p := SnapshotPath(kind, snap.TakenAt, snap.ID)
	if err := a.store.Write(ctx, p, data); err != nil {
		return "", core.WrapError(core.ErrArchiveFailed, fmt.Errorf("writing %s: %w", p, err))
	}
	return p, nil
}

// List returns the snapshot paths of kind taken on day
func (a *Archiver) List(ctx context.Context, kind string, day time.Time) ([]string, error) {
	paths, err := a.store.List(ctx, path.Join(kind, day.UTC().Format(dayLayout)))
	if err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, err)
	}
	return paths, nil
}

// Load reads a snapshot and decodes its payload into out when out is not nil
func (a *Archiver) Load(ctx context.Context, p string, out any) (*Snapshot, error) {
	data, err := a.store.Read(ctx, p)
	if err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, fmt.Errorf("reading %s: %w", p, err))
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, fmt.Errorf("decoding %s: %w", p, err))
	}
	if out != nil {
		if err := json.Unmarshal(snap.Payload, out); err != nil {
			return nil, core.WrapError(core.ErrArchiveFailed, fmt.Errorf("decoding %s payload: %w", p, err))
		}
	}
	return &snap, nil
}
