package span

import "fmt"

// Origin records who created a span.
type Origin string

const (
	// OriginUser marks a span placed by a person.
	OriginUser Origin = "user"

	// OriginAPI marks a span produced by automated analysis.
	OriginAPI Origin = "api"
)

// Valid reports whether o is a known origin.
func (o Origin) Valid() bool {
	return o == OriginUser || o == OriginAPI
}

// Span is an entity annotation over a stretch of document text.
type Span struct {
	Range `yaml:",inline"`

	// Entity is the category label (e.g. "PER"). Never empty.
	Entity string `yaml:"entity" json:"entity"`

	// Origin records whether a person or the analysis service created the span.
	Origin Origin `yaml:"origin" json:"origin"`

	// Score is the analysis confidence; only meaningful for OriginAPI.
	Score *float64 `yaml:"score,omitempty" json:"score,omitempty"`

	// ID is an optional stable identity.
	ID string `yaml:"id,omitempty" json:"id,omitempty"`
}

// NewSpan creates a span without score or id.
func NewSpan(start, end int, entity string, origin Origin) Span {
	return Span{
		Range:  Range{Start: start, End: end},
		Entity: entity,
		Origin: origin,
	}
}

// WithBounds implements Ranged.
func (s Span) WithBounds(r Range) Span {
	s.Range = r
	return s
}

// String returns a human-readable representation of the span.
func (s Span) String() string {
	return fmt.Sprintf("%s%s/%s", s.Entity, s.Range, s.Origin)
}

// Key returns the structural identity of the span.
func (s Span) Key() string {
	return fmt.Sprintf("%d:%d:%s", s.Start, s.End, s.Entity)
}

// SameSpan reports whether a and b denote the same annotation.
// Spans carrying ids compare by id; otherwise by (start, end, entity).
func SameSpan(a, b Span) bool {
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}
	return a.Start == b.Start && a.End == b.End && a.Entity == b.Entity
}

// Validate checks the span invariants.
func (s Span) Validate() error {
	if !s.Range.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidRange, s.Range)
	}
	if s.Entity == "" {
		return ErrEmptyEntity
	}
	if !s.Origin.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownOrigin, s.Origin)
	}
	return nil
}

// CloneSpans returns a copy of spans that shares no backing array.
func CloneSpans(spans []Span) []Span {
	if spans == nil {
		return nil
	}
	out := make([]Span, len(spans))
	copy(out, spans)
	return out
}
