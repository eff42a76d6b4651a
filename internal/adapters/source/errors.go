package source

import "errors"

// Sentinel kinds for source errors.
var (
	ErrLoad          = errors.New("load records")
	ErrUnknownFormat = errors.New("unknown records format")
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidTable  = errors.New("invalid table name")
)
