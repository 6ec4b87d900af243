// Package engine keeps entity annotations and segments attached to a
// changing document.
//
// The engine package serves as the facade over several sub-packages:
//
//   - span: ranges, spans, segments and annotation queries
//   - coord: the document tree and its global coordinate index
//   - transform: edit operations and the range transformer
//   - segment: splitting and joining segments
//   - reconcile: merging analysis results with user annotations
//
// # Thread Safety
//
// All Engine operations are thread-safe. The engine uses a read-write
// mutex to allow concurrent reads while serializing writes. Reconcile
// does not hold the lock while the arbiter is deciding; if the document
// changes in the meantime the result is discarded with ErrStale.
//
// # Basic Usage
//
//	e := engine.New(engine.WithText("Anna met Bob.\nThey left."))
//	e.SetSpans([]span.Span{span.NewSpan(0, 4, "PER", span.OriginUser)}, nil)
//
//	// The user typed two characters at the start of the document.
//	changed := e.ApplyBatch(engine.Batch{
//	    Ops: []transform.Operation{transform.Insert(0, "A ")},
//	})
//
//	s, ok := e.SpanAt(3) // PER[2:6)/user
package engine
