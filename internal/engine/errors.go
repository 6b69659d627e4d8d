package engine

import "errors"

// Errors returned by document operations.
var (
	// ErrReadOnly indicates a write on a read-only document.
	ErrReadOnly = errors.New("document is read-only")

	// ErrSnapshotNotFound indicates an unknown snapshot ID.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrLayerNotFound indicates an unknown layer name.
	ErrLayerNotFound = errors.New("layer not found")
)
