package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/spanstorm/internal/engine/span"
)

// Input is the state to reconcile.
type Input struct {
	// Text is the full document text, used to cut snippets.
	Text string

	// Incoming are the freshly computed spans, in review order.
	Incoming []span.Span

	// UserSpans are the spans a person placed.
	UserSpans []span.Span

	// APISpans are previously accepted analysis spans.
	APISpans []span.Span
}

// Result is the reconciled state.
type Result struct {
	UserSpans        []span.Span
	APISpans         []span.Span
	ConflictsHandled int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used to trace decisions.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// Resolver reconciles incoming spans against existing ones.
type Resolver struct {
	log *zap.Logger
}

// NewResolver creates a resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve reconciles in using a default resolver.
func Resolve(ctx context.Context, in Input, arbiter Arbiter) (Result, error) {
	return NewResolver().Resolve(ctx, in, arbiter)
}

// Resolve reconciles in, asking arbiter about every true conflict in
// incoming order. On error the returned Result holds the resolutions
// made before the failure.
func (r *Resolver) Resolve(ctx context.Context, in Input, arbiter Arbiter) (Result, error) {
	res := Result{
		UserSpans: span.CloneSpans(in.UserSpans),
		APISpans:  span.CloneSpans(in.APISpans),
	}
	if res.UserSpans == nil {
		res.UserSpans = []span.Span{}
	}
	if res.APISpans == nil {
		res.APISpans = []span.Span{}
	}

	total := countConflicts(in.Incoming, in.UserSpans)
	if total > 0 && arbiter == nil {
		return res, ErrNoArbiter
	}
	runes := []rune(in.Text)
	index := 0

	for _, c := range in.Incoming {
		userHits := overlapping(res.UserSpans, c)
		apiHits := overlapping(res.APISpans, c)

		switch {
		case len(userHits) > 0:
			if err := ctx.Err(); err != nil {
				return res, err
			}
			index++
			prompt := buildPrompt(runes, c, res.UserSpans, userHits, res.APISpans, apiHits, index, total)

			decision, err := arbiter.Decide(ctx, prompt)
			if err != nil {
				r.log.Debug("arbiter failed", zap.Int("index", index), zap.Error(err))
				return res, fmt.Errorf("conflict %d of %d: %w", index, total, err)
			}
			if !decision.Valid() {
				return res, fmt.Errorf("conflict %d of %d: %w: %q", index, total, ErrInvalidDecision, decision)
			}

			if decision == AcceptAPI {
				res.UserSpans = without(res.UserSpans, userHits)
				res.APISpans = append(without(res.APISpans, apiHits), c)
			}
			res.ConflictsHandled++
			r.log.Debug("conflict resolved",
				zap.Int("index", index),
				zap.Int("total", total),
				zap.Stringer("candidate", c),
				zap.String("decision", string(decision)),
			)

		case len(apiHits) > 0:
			r.log.Debug("duplicate api span skipped", zap.Stringer("candidate", c))

		default:
			res.APISpans = append(res.APISpans, c)
		}
	}

	return res, nil
}

// countConflicts counts incoming spans that overlap at least one user span.
func countConflicts(incoming, user []span.Span) int {
	n := 0
	for _, c := range incoming {
		if len(overlapping(user, c)) > 0 {
			n++
		}
	}
	return n
}

// overlapping returns the indices of spans overlapping c.
func overlapping(spans []span.Span, c span.Span) []int {
	var hits []int
	for i, s := range spans {
		if span.Overlaps(s, c) {
			hits = append(hits, i)
		}
	}
	return hits
}

// without returns spans minus the given indices, preserving order.
func without(spans []span.Span, drop []int) []span.Span {
	if len(drop) == 0 {
		return spans
	}
	skip := make(map[int]struct{}, len(drop))
	for _, i := range drop {
		skip[i] = struct{}{}
	}
	out := make([]span.Span, 0, len(spans)-len(drop))
	for i, s := range spans {
		if _, ok := skip[i]; !ok {
			out = append(out, s)
		}
	}
	return out
}

func buildPrompt(runes []rune, c span.Span, user []span.Span, userHits []int, api []span.Span, apiHits []int, index, total int) Prompt {
	p := Prompt{
		Candidate: Candidate{Span: c, Snippet: snippet(runes, c.Range)},
		Conflicts: make([]Conflict, 0, len(userHits)+len(apiHits)),
		Index:     index,
		Total:     total,
	}
	for _, i := range userHits {
		p.Conflicts = append(p.Conflicts, Conflict{Span: user[i], Source: span.OriginUser, Snippet: snippet(runes, user[i].Range)})
	}
	for _, i := range apiHits {
		p.Conflicts = append(p.Conflicts, Conflict{Span: api[i], Source: span.OriginAPI, Snippet: snippet(runes, api[i].Range)})
	}
	return p
}

func snippet(runes []rune, r span.Range) string {
	start, end := r.Start, r.End
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}
