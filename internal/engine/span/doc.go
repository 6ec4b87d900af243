// Package span defines the tracked-range data model of the annotation
// engine: half-open ranges, entity spans and text segments, along with
// the small set of query predicates shared by every other engine package.
//
// All offsets are linear offsets into the flattened document text and are
// counted in Unicode code points. A Range is half-open: [Start, End).
//
// Basic usage:
//
//	spans := []span.Span{
//	    span.NewSpan(0, 5, "PER", span.OriginUser),
//	    span.NewSpan(10, 16, "LOC", span.OriginAPI),
//	}
//
//	// What is under the cursor?
//	if s, ok := span.SpanAtCursor(spans, 3); ok {
//	    fmt.Println(s.Entity) // "PER"
//	}
//
//	// What does a selection touch?
//	hits := span.SpansInSelection(spans, 4, 12) // both spans
//
// Span and Segment both satisfy the Ranged constraint, so the transform
// package can move either kind of collection through the same edits.
package span
