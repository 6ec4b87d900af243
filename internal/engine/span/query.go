package span

// Overlaps reports whether two spans share at least one offset.
// Touching endpoints do not overlap.
func Overlaps(a, b Span) bool {
	return a.Start < b.End && b.Start < a.End
}

// SpanAtCursor returns the first span containing offset.
func SpanAtCursor(spans []Span, offset int) (Span, bool) {
	for _, s := range spans {
		if s.Start <= offset && offset < s.End {
			return s, true
		}
	}
	return Span{}, false
}

// SpansInSelection returns every span overlapping [start, end), in order.
func SpansInSelection(spans []Span, start, end int) []Span {
	return Overlapping(spans, Range{Start: start, End: end})
}

// Overlapping returns every item overlapping r, preserving order.
func Overlapping[T Ranged[T]](items []T, r Range) []T {
	var out []T
	for _, it := range items {
		if it.Bounds().Overlaps(r) {
			out = append(out, it)
		}
	}
	return out
}

// SegmentAt returns the index of the segment containing offset, or -1.
func SegmentAt(segments []Segment, offset int) int {
	for i, s := range segments {
		if s.Contains(offset) {
			return i
		}
	}
	return -1
}
