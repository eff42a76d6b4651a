package api

import (
	"context"
	"net/http"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/types"
)

// RecordsDependencies defines the interface for reading the processed dataset.
type RecordsDependencies interface {
	Records(ctx context.Context) ([]types.ProcessedRecord, error)
}

// RecordsHandler serves the processed dataset.
type RecordsHandler struct {
	deps RecordsDependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps RecordsDependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

// HandleGetRecords handles GET /records, optionally filtered with ?name=.
func (h *RecordsHandler) HandleGetRecords(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_records"
	if !allow(w, r, http.MethodGet) {
		return
	}
	recs, err := h.deps.Records(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if name := r.URL.Query().Get("name"); name != "" {
		filtered := make([]types.ProcessedRecord, 0)
		for _, rec := range recs {
			if rec.Name == name {
				filtered = append(filtered, rec)
			}
		}
		recs = filtered
	}
	writeJSON(w, http.StatusOK, recs)
}
