package transform

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// OpsFromDiff derives a batch of text operations that turns oldText into
// newText. Offsets are expressed in the coordinates each operation sees
// when the batch is applied in order.
func OpsFromDiff(oldText, newText string) []Operation {
	if oldText == newText {
		return nil
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldText, newText, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var ops []Operation
	pos := 0
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			pos += n
		case diffmatchpatch.DiffInsert:
			ops = append(ops, Insert(pos, d.Text))
			pos += n
		case diffmatchpatch.DiffDelete:
			ops = append(ops, Remove(pos, n))
		}
	}
	return ops
}
