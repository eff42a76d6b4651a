package watcher

import "errors"

var (
	// ErrNoPath is returned when the watcher is created without a file path.
	ErrNoPath = errors.New("watch path required")
	// ErrNoReload is returned when the watcher is created without a reload func.
	ErrNoReload = errors.New("reload func required")
)
