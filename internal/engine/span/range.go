package span

import (
	"fmt"
	"sort"
)

// Range represents a half-open interval of linear offsets: [Start, End).
type Range struct {
	Start int `yaml:"start" json:"start"` // Inclusive start offset
	End   int `yaml:"end" json:"end"`     // Exclusive end offset
}

// NewRange creates a new Range from start and end offsets.
func NewRange(start, end int) Range {
	return Range{Start: start, End: end}
}

// String returns a human-readable representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("[%d:%d)", r.Start, r.End)
}

// Len returns the length of the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// IsValid reports whether 0 <= Start < End.
// Tracked ranges are never empty; a range that collapses is dropped.
func (r Range) IsValid() bool {
	return r.Start >= 0 && r.Start < r.End
}

// Contains returns true if the given offset is within the range.
func (r Range) Contains(offset int) bool {
	return offset >= r.Start && offset < r.End
}

// ContainsRange returns true if the given range is entirely within this range.
func (r Range) ContainsRange(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Overlaps returns true if this range overlaps with another range.
// Touching endpoints do not overlap.
func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

// Shift returns a new range shifted by the given delta.
func (r Range) Shift(delta int) Range {
	return Range{
		Start: r.Start + delta,
		End:   r.End + delta,
	}
}

// Bounds implements Ranged.
func (r Range) Bounds() Range {
	return r
}

// WithBounds implements Ranged.
func (r Range) WithBounds(b Range) Range {
	return b
}

// Ranged is satisfied by any tracked value that has a position in the
// document and can be rebuilt at a new position with its payload intact.
type Ranged[T any] interface {
	Bounds() Range
	WithBounds(Range) T
}

// Bounds collects the ranges of a tracked collection.
func Bounds[T Ranged[T]](items []T) []Range {
	out := make([]Range, len(items))
	for i, it := range items {
		out[i] = it.Bounds()
	}
	return out
}

// SameBounds reports whether two collections describe the same set of
// ranges: same count and same (start, end) pairs once sorted.
// Payloads are not compared.
func SameBounds[A Ranged[A], B Ranged[B]](a []A, b []B) bool {
	if len(a) != len(b) {
		return false
	}
	ra := sortedBounds(Bounds(a))
	rb := sortedBounds(Bounds(b))
	for i := range ra {
		if ra[i] != rb[i] {
			return false
		}
	}
	return true
}

func sortedBounds(rs []Range) []Range {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Start != rs[j].Start {
			return rs[i].Start < rs[j].Start
		}
		return rs[i].End < rs[j].End
	})
	return rs
}

// Slice returns the runes of text covered by r, clamped to the text.
func Slice(text string, r Range) string {
	return sliceRunes([]rune(text), r.Start, r.End)
}

func sliceRunes(runes []rune, start, end int) string {
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
