package segment

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dshills/spanstorm/internal/engine/span"
)

// IDGenerator produces fresh segment ids.
type IDGenerator func() string

// NewID generates a random segment id.
func NewID() string {
	return uuid.NewString()
}

// Splitter splits segments using a configurable id generator.
type Splitter struct {
	NewID IDGenerator
}

// Split splits the segment id at position using random ids.
func Split(segments []span.Segment, id string, position int, fullText string) ([]span.Segment, error) {
	return Splitter{NewID: NewID}.Split(segments, id, position, fullText)
}

// Split carves segment id into [start, position) and the rest.
//
// The first half keeps the id and order. The second half gets a fresh id
// and starts after the character at position when that character is a
// space or newline. Translations are not carried over. The result is
// renumbered by position. A nil slice with a nil error means position is
// not strictly inside the segment.
func (s Splitter) Split(segments []span.Segment, id string, position int, fullText string) ([]span.Segment, error) {
	i := span.IndexOf(segments, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSegmentNotFound, id)
	}
	seg := segments[i]
	if position <= seg.Start || position >= seg.End {
		return nil, nil
	}

	runes := []rune(fullText)
	secondStart := position
	if isBorder(runes, position) {
		secondStart = position + 1
	}

	newID := s.NewID
	if newID == nil {
		newID = NewID
	}

	first := span.Segment{
		Range: span.Range{Start: seg.Start, End: position},
		ID:    seg.ID,
		Order: seg.Order,
	}
	second := span.Segment{
		Range: span.Range{Start: secondStart, End: seg.End},
		ID:    newID(),
		Order: seg.Order + 1,
	}
	if seg.Text != nil {
		first.Text = textPtr(span.Slice(fullText, first.Range))
		second.Text = textPtr(span.Slice(fullText, second.Range))
	}

	out := make([]span.Segment, 0, len(segments)+1)
	for _, other := range segments[:i] {
		out = append(out, other.Clone())
	}
	out = append(out, first)
	if second.Start < second.End {
		out = append(out, second)
	}
	for _, other := range segments[i+1:] {
		out = append(out, other.Clone())
	}
	span.Renumber(out)
	return out, nil
}

// Join fuses segments id1 and id2. It returns nil when either id is
// unknown or the two are not consecutive.
//
// The joined segment keeps id1 and the order of the first segment and
// ends where the second one ended. The result is re-sorted by start and
// renumbered.
func Join(segments []span.Segment, id1, id2 string) []span.Segment {
	i1 := span.IndexOf(segments, id1)
	i2 := span.IndexOf(segments, id2)
	if i1 < 0 || i2 < 0 || i1 == i2 {
		return nil
	}
	seg1, seg2 := segments[i1], segments[i2]
	if !Consecutive(seg1, seg2) {
		return nil
	}

	joined := span.Segment{
		Range: span.Range{Start: seg1.Start, End: seg2.End},
		ID:    seg1.ID,
		Order: seg1.Order,
	}
	gap := seg1.End < seg2.Start
	if seg1.Text != nil && seg2.Text != nil {
		text := *seg1.Text
		if gap {
			text += " "
		}
		text += *seg2.Text
		joined.Text = &text
	}
	joined.Translations = mergeTranslations(seg1.Translations, seg2.Translations)

	out := make([]span.Segment, 0, len(segments)-1)
	for i, s := range segments {
		switch i {
		case i1:
			out = append(out, joined)
		case i2:
		default:
			out = append(out, s.Clone())
		}
	}
	span.SortSegments(out)
	span.Renumber(out)
	return out
}

// Consecutive reports whether b follows a directly or after a single
// border character.
func Consecutive(a, b span.Segment) bool {
	return a.End <= b.Start && b.Start-a.End <= 1
}

// mergeTranslations concatenates per-language text, separating the two
// halves with a space when both are non-empty. An empty result is nil.
func mergeTranslations(a, b map[string]string) map[string]string {
	out := make(map[string]string)
	for lang := range a {
		out[lang] = joinText(a[lang], b[lang])
	}
	for lang := range b {
		if _, done := out[lang]; !done {
			out[lang] = joinText(a[lang], b[lang])
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func joinText(a, b string) string {
	if a != "" && b != "" {
		return a + " " + b
	}
	return a + b
}

func isBorder(runes []rune, pos int) bool {
	if pos < 0 || pos >= len(runes) {
		return false
	}
	return runes[pos] == ' ' || runes[pos] == '\n'
}

func textPtr(s string) *string {
	return &s
}
