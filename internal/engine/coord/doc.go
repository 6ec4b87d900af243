// Package coord maps positions in a tree-shaped rich-text document to a
// single linear offset space and back.
//
// A document is a list of block nodes. Text lives only in leaves; blocks
// are separated by an implicit newline that belongs to no leaf. The Index
// flattens the leaves in document order and assigns each one a closed
// interval [GStart, GEnd] of linear offsets, inserting one newline unit
// every time the enclosing block changes.
//
//	doc := []coord.Node{
//	    coord.Block(coord.Text("Hello ")),
//	    coord.Block(coord.Text("world")),
//	}
//	idx := coord.Build(doc)
//	idx.PointToGlobal(coord.Path{1, 0}, 2) // 9: "Hello " + "\n" + "wo"
//	idx.GlobalToPoint(9)                   // {[1 0] 2}
//
// The index has no incremental update. Rebuild it from scratch whenever
// the leaf structure changes; cost is linear in the number of leaves.
package coord
