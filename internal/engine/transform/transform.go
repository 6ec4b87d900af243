package transform

import (
	"fmt"
	"strings"

	"github.com/dshills/spanstorm/internal/engine/span"
)

// InsertPolicy decides what an insertion exactly at a range's start does.
type InsertPolicy uint8

const (
	// ShiftAtStart moves the range right, so typing just before a span
	// does not extend it.
	ShiftAtStart InsertPolicy = iota

	// GrowAtStart extends the range to cover the inserted text.
	GrowAtStart
)

// String returns the policy name used in configuration.
func (p InsertPolicy) String() string {
	if p == GrowAtStart {
		return "grow"
	}
	return "shift"
}

// ParseInsertPolicy converts a configuration value to an InsertPolicy.
func ParseInsertPolicy(s string) (InsertPolicy, error) {
	switch strings.ToLower(s) {
	case "", "shift":
		return ShiftAtStart, nil
	case "grow":
		return GrowAtStart, nil
	default:
		return ShiftAtStart, fmt.Errorf("unknown insert policy %q", s)
	}
}

// InsertRange returns r after n code points are inserted at pos.
func InsertRange(r span.Range, pos, n int, policy InsertPolicy) span.Range {
	if n <= 0 {
		return r
	}
	before := pos <= r.Start
	if policy == GrowAtStart {
		before = pos < r.Start
	}
	switch {
	case before:
		return r.Shift(n)
	case pos < r.End:
		return span.Range{Start: r.Start, End: r.End + n}
	default:
		return r
	}
}

// DeleteRange returns r after n code points are removed at pos.
// It reports false when the deletion consumes the whole range.
func DeleteRange(r span.Range, pos, n int) (span.Range, bool) {
	if n <= 0 {
		return r, true
	}
	delEnd := pos + n

	if delEnd <= r.Start {
		return r.Shift(-n), true
	}
	if pos >= r.End {
		return r, true
	}

	overlapStart := max(r.Start, pos)
	overlapEnd := min(r.End, delEnd)
	start := r.Start
	end := r.End - (overlapEnd - overlapStart)
	if pos < r.Start {
		shift := min(n, r.Start-pos)
		start -= shift
		end -= shift
	}
	if end <= start {
		return span.Range{}, false
	}
	return span.Range{Start: start, End: end}, true
}

// AdjustForInsert applies an insertion to every item.
func AdjustForInsert[T span.Ranged[T]](items []T, pos, n int, policy InsertPolicy) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.WithBounds(InsertRange(it.Bounds(), pos, n, policy))
	}
	return out
}

// AdjustForDelete applies a deletion to every item, dropping the items
// the deletion consumes.
func AdjustForDelete[T span.Ranged[T]](items []T, pos, n int) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if r, ok := DeleteRange(it.Bounds(), pos, n); ok {
			out = append(out, it.WithBounds(r))
		}
	}
	return out
}

// ApplyEdits threads items through edits in order.
func ApplyEdits[T span.Ranged[T]](items []T, edits []Edit, policy InsertPolicy) []T {
	out := append([]T(nil), items...)
	for _, e := range edits {
		switch e.Kind {
		case EditInsert:
			out = AdjustForInsert(out, e.Pos, e.Len, policy)
		case EditDelete:
			out = AdjustForDelete(out, e.Pos, e.Len)
		}
	}
	return out
}

// Transformer resolves and applies operation batches.
type Transformer struct {
	Resolver Resolver
	Policy   InsertPolicy
}

// Apply computes the items after ops. It reports false when the result
// holds exactly the input ranges, in which case callers should not
// notify anyone.
func Apply[T span.Ranged[T]](t Transformer, ops []Operation, items []T) ([]T, bool) {
	next := ApplyEdits(items, t.Resolver.Edits(ops), t.Policy)
	return next, !span.SameBounds(items, next)
}
