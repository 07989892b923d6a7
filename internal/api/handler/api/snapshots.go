package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/newthinker/folio/internal/api/response"
	"github.com/newthinker/folio/internal/archive"
	"github.com/newthinker/folio/internal/core"
)

// SnapshotStore defines the interface needed from archive.Archiver.
type SnapshotStore interface {
	List(ctx context.Context, kind string, day time.Time) ([]string, error)
	Load(ctx context.Context, p string, out any) (*archive.Snapshot, error)
}

// SnapshotsHandler serves archived valuations and analyses.
type SnapshotsHandler struct {
	store SnapshotStore
	now   func() time.Time
}

// NewSnapshotsHandler creates a new snapshots handler.
func NewSnapshotsHandler(store SnapshotStore) *SnapshotsHandler {
	return &SnapshotsHandler{store: store, now: time.Now}
}

func parseKind(kind string) (string, error) {
	switch kind {
	case archive.KindValuation, archive.KindAnalysis:
		return kind, nil
	}
	return "", core.WrapError(core.ErrInvalidRequest,
		fmt.Errorf("kind must be %s or %s, got %q", archive.KindValuation, archive.KindAnalysis, kind))
}

// List returns the snapshot paths of {kind} for the date query parameter
// (YYYY-MM-DD, default today UTC).
func (h *SnapshotsHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r.PathValue("kind"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	day := h.now().UTC()
	if date := r.URL.Query().Get("date"); date != "" {
		day, err = time.Parse("2006-01-02", date)
		if err != nil {
			response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrInvalidRequest, err))
			return
		}
	}

	paths, err := h.store.List(r.Context(), kind, day)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"kind":      kind,
		"date":      day.Format("2006-01-02"),
		"snapshots": paths,
		"count":     len(paths),
	})
}

// Get returns one snapshot by {kind}/{day}/{id}.
func (h *SnapshotsHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r.PathValue("kind"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}
	day, err := time.Parse("2006-01-02", r.PathValue("day"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrInvalidRequest, err))
		return
	}
	id := r.PathValue("id")
	if id == "" || id != path.Base(id) {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrInvalidRequest, errors.New("invalid snapshot id")))
		return
	}

	snap, err := h.store.Load(r.Context(), archive.SnapshotPath(kind, day, id), nil)
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	response.JSON(w, http.StatusOK, snap)
}
