package scoring

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidWeights is the configuration error raised when a weight set
	// is out of bounds or does not sum to 100. No scoring happens after it.
	ErrInvalidWeights = errors.New("invalid weight configuration")
)
