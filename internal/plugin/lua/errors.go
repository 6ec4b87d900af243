package lua

import "errors"

// Errors for Lua state and script operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a script runs past its deadline.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrNoDecideFunc is returned when a script doesn't define decide.
	ErrNoDecideFunc = errors.New("script does not define a decide function")

	// ErrNoDecision is returned when decide returns something other than a string.
	ErrNoDecision = errors.New("decide returned no decision")
)
