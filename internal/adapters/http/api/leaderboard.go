package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/scoring"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
	Leaderboard(ctx context.Context, n int, w scoring.Weights) ([]Entry, error)
	Weights() scoring.Weights
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps         LeaderboardDependencies
	defaultLimit int
	maxLimit     int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, defaultLimit, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N. Any of the weight
// parameters (messages, models, gpts, projects, tools) override the active
// weights for this request only.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if !allow(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()

	n := h.defaultLimit
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("limit %q", raw)))
			return
		}
		n = v
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}

	weights, adHoc, err := weightOverrides(q, h.deps.Weights())
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	var entries []Entry
	if adHoc {
		entries, err = h.deps.Leaderboard(r.Context(), n, weights)
	} else {
		entries, err = h.deps.TopN(r.Context(), n)
	}
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// weightOverrides applies weight query parameters on top of base.
func weightOverrides(q url.Values, base scoring.Weights) (scoring.Weights, bool, error) {
	fields := []struct {
		key string
		dst *float64
	}{
		{"messages", &base.Messages},
		{"models", &base.Models},
		{"gpts", &base.GPTs},
		{"projects", &base.Projects},
		{"tools", &base.Tools},
	}
	found := false
	for _, f := range fields {
		raw := strings.TrimSpace(q.Get(f.key))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return base, false, fmt.Errorf("weight %s=%q is not a number", f.key, raw)
		}
		*f.dst = v
		found = true
	}
	return base, found, nil
}
