package cli

import "errors"

var (
	// ErrInvalidParseMode is returned for a --parse-mode other than strict or repair.
	ErrInvalidParseMode = errors.New("invalid parse mode")
	// ErrInvalidFlag is returned when a numeric flag is out of range.
	ErrInvalidFlag = errors.New("invalid flag value")
	// ErrMismatch is returned by verify when the server disagrees with the local computation.
	ErrMismatch = errors.New("leaderboard mismatch")
	// ErrUnexpectedStatus is returned when the server answers with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected status")
)
