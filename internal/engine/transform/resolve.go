package transform

import (
	"fmt"

	"github.com/dshills/spanstorm/internal/engine/coord"
)

// EditKind distinguishes the two linear primitives.
type EditKind uint8

const (
	// EditInsert grows the text.
	EditInsert EditKind = iota

	// EditDelete shrinks the text.
	EditDelete
)

// Edit is an operation resolved into linear-offset space.
type Edit struct {
	Kind EditKind
	Pos  int
	Len  int
}

// String returns a human-readable representation of the edit.
func (e Edit) String() string {
	if e.Kind == EditInsert {
		return fmt.Sprintf("+%d@%d", e.Len, e.Pos)
	}
	return fmt.Sprintf("-%d@%d", e.Len, e.Pos)
}

// Resolver converts operations into linear edits.
// Index is the coordinate index of the document the batch was produced
// against. Cursor is the collapsed selection after the edit, used to
// place newline deletions whose tree position is no longer reliable.
type Resolver struct {
	Index     *coord.Index
	Cursor    int
	HasCursor bool
}

// NewlineUnit returns the block separator length of the index.
func (r Resolver) NewlineUnit() int {
	if r.Index == nil {
		return coord.DefaultNewlineUnit
	}
	return r.Index.NewlineUnit()
}

// Resolve converts op to a linear edit. It reports false when the
// operation has no effect on linear offsets.
func (r Resolver) Resolve(op Operation) (Edit, bool) {
	unit := r.NewlineUnit()

	switch op.Kind {
	case InsertText:
		if op.Length <= 0 {
			return Edit{}, false
		}
		return Edit{Kind: EditInsert, Pos: op.Offset, Len: op.Length}, true

	case RemoveText:
		if op.Length <= 0 {
			return Edit{}, false
		}
		return Edit{Kind: EditDelete, Pos: op.Offset, Len: op.Length}, true

	case SplitNode:
		if !op.TextLevel {
			return Edit{}, false
		}
		return Edit{Kind: EditInsert, Pos: r.point(op.Path, op.PathOffset), Len: unit}, true

	case MergeNode:
		if !op.TextLevel {
			return Edit{}, false
		}
		pos := r.point(op.Path, op.PathOffset)
		if pos <= 0 && r.HasCursor {
			// The merged node lost its path; the cursor sits where the
			// separator used to start.
			pos = r.Cursor
		}
		return Edit{Kind: EditDelete, Pos: pos, Len: unit}, true

	case RemoveNode:
		if !op.BlockLevel || op.Text != "" {
			return Edit{}, false
		}
		var pos int
		if r.HasCursor {
			pos = r.Cursor - unit
		} else {
			pos = r.point(append(op.Path.Clone(), 0), 0) - unit
		}
		if pos < 0 {
			pos = 0
		}
		return Edit{Kind: EditDelete, Pos: pos, Len: unit}, true
	}

	return Edit{}, false
}

func (r Resolver) point(path coord.Path, offset int) int {
	if r.Index == nil {
		return 0
	}
	return r.Index.PointToGlobal(path, offset)
}

// Normalize drops redundant operations from a batch. A literal newline
// insert at the linear position of a text-level split describes the same
// line break and is suppressed so the newline is counted once. Each
// split consumes at most one such insert.
func (r Resolver) Normalize(ops []Operation) []Operation {
	splits := make(map[int]int)
	for _, op := range ops {
		if op.Kind == SplitNode && op.TextLevel {
			splits[r.point(op.Path, op.PathOffset)]++
		}
	}
	if len(splits) == 0 {
		return ops
	}

	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if op.Kind == InsertText && isLiteralNewline(op.Text) && splits[op.Offset] > 0 {
			splits[op.Offset]--
			continue
		}
		out = append(out, op)
	}
	return out
}

// Edits normalizes and resolves a batch, preserving order.
func (r Resolver) Edits(ops []Operation) []Edit {
	ops = r.Normalize(ops)
	edits := make([]Edit, 0, len(ops))
	for _, op := range ops {
		if e, ok := r.Resolve(op); ok {
			edits = append(edits, e)
		}
	}
	return edits
}
