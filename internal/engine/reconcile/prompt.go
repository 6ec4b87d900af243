package reconcile

import (
	"context"
	"fmt"

	"github.com/dshills/spanstorm/internal/engine/span"
)

// Decision is the arbiter's answer to a conflict.
type Decision string

const (
	// KeepExisting keeps the user spans and discards the incoming span.
	KeepExisting Decision = "existing"

	// AcceptAPI replaces every overlapping span with the incoming one.
	AcceptAPI Decision = "api"
)

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	return d == KeepExisting || d == AcceptAPI
}

// ParseDecision converts a string to a Decision.
func ParseDecision(s string) (Decision, error) {
	d := Decision(s)
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDecision, s)
	}
	return d, nil
}

// Candidate is the incoming span under review.
type Candidate struct {
	Span    span.Span
	Snippet string
}

// Conflict is an existing span the candidate overlaps.
type Conflict struct {
	Span    span.Span
	Source  span.Origin
	Snippet string
}

// Prompt describes one true conflict. Prompts are built for a single
// arbiter call and never stored.
type Prompt struct {
	Candidate Candidate
	Conflicts []Conflict

	// Index is the 1-based position of this conflict.
	Index int

	// Total is the number of incoming spans that overlapped a user span
	// when resolution started.
	Total int
}

// Arbiter decides conflicts.
type Arbiter interface {
	Decide(ctx context.Context, p Prompt) (Decision, error)
}

// ArbiterFunc adapts a function to the Arbiter interface.
type ArbiterFunc func(ctx context.Context, p Prompt) (Decision, error)

// Decide implements Arbiter.
func (f ArbiterFunc) Decide(ctx context.Context, p Prompt) (Decision, error) {
	return f(ctx, p)
}

// Fixed returns an arbiter that always answers d.
func Fixed(d Decision) Arbiter {
	return ArbiterFunc(func(context.Context, Prompt) (Decision, error) {
		return d, nil
	})
}
