package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/newthinker/folio/internal/api/response"
	"github.com/newthinker/folio/internal/app"
	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/positions"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// ValuationApp defines the interface needed from app.Service.
type ValuationApp interface {
	Value(ctx context.Context, positions []core.Position) (*app.Valuation, error)
}

// PortfolioHandler handles portfolio valuation requests.
type PortfolioHandler struct {
	app ValuationApp
	// positionsFile is valued by GET requests; empty disables them
	positionsFile string
}

// NewPortfolioHandler creates a new portfolio handler.
func NewPortfolioHandler(app ValuationApp, positionsFile string) *PortfolioHandler {
	return &PortfolioHandler{app: app, positionsFile: positionsFile}
}

// ValueRequest is the request body for valuing positions.
type ValueRequest struct {
	Positions []positions.Entry `json:"positions"`
}

// Value values the positions in the request body.
func (h *PortfolioHandler) Value(w http.ResponseWriter, r *http.Request) {
	var req ValueRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrInvalidRequest, err))
		return
	}

	ps, err := positions.Convert(req.Positions)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	h.respond(w, r, ps)
}

// ValueFile values the configured positions file.
func (h *PortfolioHandler) ValueFile(w http.ResponseWriter, r *http.Request) {
	if h.positionsFile == "" {
		response.Error(w, http.StatusNotFound,
			core.WrapError(core.ErrNoData, errors.New("no positions file configured")))
		return
	}

	ps, err := positions.Load(h.positionsFile)
	if err != nil {
		if errors.Is(err, core.ErrInvalidPosition) {
			response.Error(w, http.StatusUnprocessableEntity, err)
			return
		}
		response.Error(w, http.StatusInternalServerError,
			core.WrapError(core.ErrConfigInvalid, fmt.Errorf("loading positions: %w", err)))
		return
	}

	h.respond(w, r, ps)
}

func (h *PortfolioHandler) respond(w http.ResponseWriter, r *http.Request, ps []core.Position) {
	v, err := h.app.Value(r.Context(), ps)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, v)
}
