package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrStale indicates the document changed while an operation was in flight.
	ErrStale = errors.New("document changed during operation")

	// ErrInvalidSpans indicates spans that break the data-model invariants.
	ErrInvalidSpans = errors.New("invalid spans")

	// ErrInvalidSegments indicates a segmentation that breaks the collection invariants.
	ErrInvalidSegments = errors.New("invalid segments")
)
