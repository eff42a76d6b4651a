package source

import (
	"context"
	"fmt"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
)

// Static serves a fixed in-memory dataset.
type Static struct {
	records []model.ActivityRecord
}

// NewStatic wraps records. The slice is copied.
func NewStatic(records []model.ActivityRecord) *Static {
	cp := make([]model.ActivityRecord, len(records))
	copy(cp, records)
	return &Static{records: cp}
}

// Load returns a copy of the dataset.
func (s *Static) Load(_ context.Context) ([]model.ActivityRecord, error) {
	cp := make([]model.ActivityRecord, len(s.records))
	copy(cp, s.records)
	return cp, nil
}

func (s *Static) String() string { return fmt.Sprintf("static:%d", len(s.records)) }
