package api

import (
	"context"
	"net/http"

	"github.com/newthinker/folio/internal/api/response"
	"github.com/newthinker/folio/internal/app"
	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/marketdata"
)

// AnalysisApp defines the interface needed from app.Service.
type AnalysisApp interface {
	Analyze(ctx context.Context, ticker string, rng marketdata.Range) (*app.Analysis, error)
}

// AnalysisHandler handles indicator analysis requests.
type AnalysisHandler struct {
	app AnalysisApp
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(app AnalysisApp) *AnalysisHandler {
	return &AnalysisHandler{app: app}
}

// Analyze computes indicators and signals for the {ticker} path value.
// The optional range query parameter selects the history window.
// Per-bar series are only included with series=true.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rng, err := marketdata.ParseRange(q.Get("range"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrInvalidRequest, err))
		return
	}

	a, err := h.app.Analyze(r.Context(), r.PathValue("ticker"), rng)
	if err != nil {
		response.FromError(w, err)
		return
	}

	if q.Get("series") != "true" {
		trimmed := *a
		trimmed.Indicators = a.Indicators.WithoutSeries()
		a = &trimmed
	}

	response.JSON(w, http.StatusOK, a)
}
