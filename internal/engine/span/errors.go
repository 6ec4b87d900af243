package span

import "errors"

// Errors returned by span validation.
var (
	// ErrInvalidRange indicates a range that is empty, inverted or negative.
	ErrInvalidRange = errors.New("invalid range")

	// ErrEmptyEntity indicates a span without an entity label.
	ErrEmptyEntity = errors.New("span entity is empty")

	// ErrUnknownOrigin indicates a span origin other than user or api.
	ErrUnknownOrigin = errors.New("unknown span origin")

	// ErrSegmentOrder indicates a segment whose order differs from its index.
	ErrSegmentOrder = errors.New("segment order out of sequence")

	// ErrSegmentGap indicates overlapping or non-adjacent segments.
	ErrSegmentGap = errors.New("segments overlap or leave a gap")
)
