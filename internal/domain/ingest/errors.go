package ingest

import "errors"

// Sentinel kinds for ingest errors.
var (
	// ErrInvalidPeriod marks a row without a usable period_end; it is the only
	// row-level condition that cannot be defaulted.
	ErrInvalidPeriod = errors.New("invalid period_end")
)
