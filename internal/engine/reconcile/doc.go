// Package reconcile merges freshly computed entity spans into the spans
// a person has already placed.
//
// Incoming spans are processed one at a time in the order given:
//
//   - A span overlapping no existing span is accepted as an API span.
//   - A span overlapping only existing API spans is a repeat and is dropped.
//   - A span overlapping at least one user span is a true conflict. The
//     Arbiter is asked to decide between the existing spans and the
//     incoming one, and the next conflict is only presented once the
//     previous decision is known.
//
// Usage:
//
//	res, err := reconcile.Resolve(ctx, reconcile.Input{
//	    Text:      doc,
//	    Incoming:  nerSpans,
//	    UserSpans: user,
//	    APISpans:  accepted,
//	}, reconcile.ArbiterFunc(func(ctx context.Context, p reconcile.Prompt) (reconcile.Decision, error) {
//	    return askUser(p)
//	}))
//
// An arbiter error aborts the remaining prompts. Resolve then returns the
// state reached so far together with the error.
package reconcile
