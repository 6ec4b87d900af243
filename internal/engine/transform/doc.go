// Package transform keeps tracked ranges (entity spans, segment
// boundaries) attached to the same stretch of text while the text is
// edited.
//
// The editing surface reports each document change as a batch of
// primitive Operations. Operations that carry tree positions (node
// splits, merges, removals) are resolved through a coord.Index into
// linear Edits; every Edit is then applied to the tracked collection in
// batch order, each one seeing the result of the previous one.
//
//	tr := transform.Transformer{
//	    Resolver: transform.Resolver{Index: idx, Cursor: 12, HasCursor: true},
//	    Policy:   transform.ShiftAtStart,
//	}
//	next, changed := transform.Apply(tr, []transform.Operation{
//	    transform.Insert(5, "x"),
//	    transform.Split(coord.Path{0, 0}, 9),
//	}, spans)
//
// A range whose length drops to zero or below is removed from the
// result. Resolution never fails: unknown paths resolve to offset 0 and
// structural operations that carry no text change resolve to nothing.
//
// Collection wraps a caller-owned slice with get/set access and an
// adjusted hook that fires once per batch, and only when the batch
// actually moved something.
package transform
