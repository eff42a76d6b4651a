package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/types"
)

// TrendDependencies defines the interface for trend operations.
type TrendDependencies interface {
	Trend(ctx context.Context, name string) ([]types.TrendPoint, error)
}

// TrendHandler serves a user's weekly score series.
type TrendHandler struct {
	deps TrendDependencies
}

// NewTrendHandler creates a new trend handler.
func NewTrendHandler(deps TrendDependencies) *TrendHandler {
	return &TrendHandler{deps: deps}
}

// HandleGetTrend handles GET /trend/{name} requests.
func (h *TrendHandler) HandleGetTrend(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_trend"
	if !allow(w, r, http.MethodGet) {
		return
	}
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	pts, err := h.deps.Trend(r.Context(), name)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, pts)
}
