package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/scoring"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/types"
)

const maxWeightsBody = 4 << 10

// WeightsDependencies defines the interface for reading and replacing weights.
type WeightsDependencies interface {
	Weights() scoring.Weights
	SetWeights(ctx context.Context, w scoring.Weights) error
}

// WeightsHandler exposes the active weight configuration.
type WeightsHandler struct {
	deps WeightsDependencies
}

// NewWeightsHandler creates a new weights handler.
func NewWeightsHandler(deps WeightsDependencies) *WeightsHandler {
	return &WeightsHandler{deps: deps}
}

// HandleWeights handles GET and PUT /weights. PUT replaces all five weights;
// omitted fields count as 0.
func (h *WeightsHandler) HandleWeights(w http.ResponseWriter, r *http.Request) {
	const op = "api.weights"
	if !allow(w, r, http.MethodGet, http.MethodPut) {
		return
	}
	if r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, types.FromWeights(h.deps.Weights()))
		return
	}

	var body types.Weights
	dec := json.NewDecoder(io.LimitReader(r.Body, maxWeightsBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.SetWeights(r.Context(), body.Domain()); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.FromWeights(h.deps.Weights()))
}
