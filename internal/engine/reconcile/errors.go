package reconcile

import "errors"

// Errors returned by Resolve.
var (
	// ErrInvalidDecision indicates the arbiter answered with an unknown decision.
	ErrInvalidDecision = errors.New("invalid arbiter decision")

	// ErrNoArbiter indicates a conflict was found but no arbiter was supplied.
	ErrNoArbiter = errors.New("no arbiter for conflicting spans")
)
