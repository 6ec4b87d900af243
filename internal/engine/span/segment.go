package span

import (
	"fmt"
	"sort"
)

// Segment is a structural grouping of text, typically a sentence.
type Segment struct {
	Range `yaml:",inline"`

	// ID is the stable identity of the segment.
	ID string `yaml:"id" json:"id"`

	// Order is the position among sibling segments.
	// It is kept equal to the slice index after every structural change.
	Order int `yaml:"order" json:"order"`

	// Text is an optional cached slice of the document.
	Text *string `yaml:"text,omitempty" json:"text,omitempty"`

	// Translations maps a language code to the translated segment text.
	Translations map[string]string `yaml:"translations,omitempty" json:"translations,omitempty"`
}

// WithBounds implements Ranged.
func (s Segment) WithBounds(r Range) Segment {
	s.Range = r
	return s
}

// String returns a human-readable representation of the segment.
func (s Segment) String() string {
	return fmt.Sprintf("#%d(%s)%s", s.Order, s.ID, s.Range)
}

// Content returns the cached text, or the slice of doc the segment covers.
func (s Segment) Content(doc string) string {
	if s.Text != nil {
		return *s.Text
	}
	return Slice(doc, s.Range)
}

// Clone returns a deep copy of the segment.
func (s Segment) Clone() Segment {
	if s.Text != nil {
		t := *s.Text
		s.Text = &t
	}
	if s.Translations != nil {
		m := make(map[string]string, len(s.Translations))
		for k, v := range s.Translations {
			m[k] = v
		}
		s.Translations = m
	}
	return s
}

// CloneSegments deep-copies a segment collection.
func CloneSegments(segments []Segment) []Segment {
	if segments == nil {
		return nil
	}
	out := make([]Segment, len(segments))
	for i, s := range segments {
		out[i] = s.Clone()
	}
	return out
}

// IndexOf returns the slice index of the segment with the given id, or -1.
func IndexOf(segments []Segment, id string) int {
	for i, s := range segments {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Renumber sets every segment's Order to its slice index.
func Renumber(segments []Segment) {
	for i := range segments {
		segments[i].Order = i
	}
}

// SortSegments orders segments by start offset.
func SortSegments(segments []Segment) {
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})
}

// ValidateSegments checks the ordered-collection invariant: segments are
// valid ranges, sorted by start, pairwise non-overlapping, separated by at
// most one border character, and numbered by position.
func ValidateSegments(segments []Segment) error {
	for i, s := range segments {
		if !s.Range.IsValid() {
			return fmt.Errorf("%w: segment %s", ErrInvalidRange, s)
		}
		if s.Order != i {
			return fmt.Errorf("%w: segment %s at index %d", ErrSegmentOrder, s.ID, i)
		}
		if i == 0 {
			continue
		}
		prev := segments[i-1]
		gap := s.Start - prev.End
		if gap < 0 || gap > 1 {
			return fmt.Errorf("%w: %s then %s", ErrSegmentGap, prev, s)
		}
	}
	return nil
}
