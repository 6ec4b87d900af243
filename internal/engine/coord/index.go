package coord

import (
	"sort"
	"strings"
)

// DefaultNewlineUnit is the linear length of the separator between blocks.
const DefaultNewlineUnit = 1

// Leaf is the index record of one text leaf.
// The leaf occupies the closed interval [GStart, GEnd] so that the
// position just after its last character resolves to the leaf itself.
type Leaf struct {
	Path   Path
	Text   string
	GStart int
	GEnd   int
	Length int
}

// Option configures Build.
type Option func(*Index)

// WithNewlineUnit sets the linear length of the implicit block separator.
func WithNewlineUnit(n int) Option {
	return func(idx *Index) {
		if n > 0 {
			idx.newlineUnit = n
		}
	}
}

// Index maps tree positions to linear offsets and back.
// An Index is immutable once built and safe for concurrent reads.
type Index struct {
	leaves      []Leaf
	byPath      map[string]int
	newlineUnit int
}

// Build walks every leaf of doc in document order and records its
// linear interval.
func Build(doc []Node, opts ...Option) *Index {
	idx := &Index{
		byPath:      make(map[string]int),
		newlineUnit: DefaultNewlineUnit,
	}
	for _, opt := range opts {
		opt(idx)
	}

	b := builder{idx: idx}
	for i, n := range doc {
		b.walk(n, Path{i}, Path{i})
	}
	return idx
}

type builder struct {
	idx       *Index
	g         int
	lastBlock string
	started   bool
}

// walk visits n at path; block is the path of the enclosing block.
func (b *builder) walk(n Node, path, block Path) {
	if n.IsLeaf() {
		b.record(n, path, block)
		return
	}
	for i, child := range n.Children {
		childPath := append(path.Clone(), i)
		childBlock := block
		if !child.IsLeaf() && !child.Inline {
			childBlock = childPath
		}
		b.walk(child, childPath, childBlock)
	}
}

func (b *builder) record(n Node, path, block Path) {
	key := block.String()
	if b.started && key != b.lastBlock {
		b.g += b.idx.newlineUnit
	}
	b.started = true
	b.lastBlock = key

	length := n.Len()
	b.idx.byPath[path.String()] = len(b.idx.leaves)
	b.idx.leaves = append(b.idx.leaves, Leaf{
		Path:   path.Clone(),
		Text:   n.Text,
		GStart: b.g,
		GEnd:   b.g + length,
		Length: length,
	})
	b.g += length
}

// PointToGlobal converts a leaf path and in-leaf offset to a linear offset.
// Unknown paths resolve to 0.
func (idx *Index) PointToGlobal(path Path, offset int) int {
	i, ok := idx.byPath[path.String()]
	if !ok {
		return 0
	}
	return idx.leaves[i].GStart + offset
}

// GlobalToPoint converts a linear offset to a tree position.
// The first leaf whose closed interval contains g wins; the offset is
// clamped into the leaf. When no leaf contains g the position falls back
// to the end of the last leaf. An empty index yields the zero Point.
func (idx *Index) GlobalToPoint(g int) Point {
	if len(idx.leaves) == 0 {
		return Point{}
	}

	i := sort.Search(len(idx.leaves), func(i int) bool {
		return idx.leaves[i].GEnd >= g
	})
	if i < len(idx.leaves) && idx.leaves[i].GStart <= g {
		leaf := idx.leaves[i]
		return Point{Path: leaf.Path.Clone(), Offset: clamp(g-leaf.GStart, 0, leaf.Length)}
	}

	last := idx.leaves[len(idx.leaves)-1]
	return Point{Path: last.Path.Clone(), Offset: last.Length}
}

// LeafAt returns the leaf record for path.
func (idx *Index) LeafAt(path Path) (Leaf, bool) {
	i, ok := idx.byPath[path.String()]
	if !ok {
		return Leaf{}, false
	}
	return idx.leaves[i], true
}

// Leaves returns a copy of the leaf records in document order.
func (idx *Index) Leaves() []Leaf {
	out := make([]Leaf, len(idx.leaves))
	copy(out, idx.leaves)
	return out
}

// LeafCount returns the number of indexed leaves.
func (idx *Index) LeafCount() int {
	return len(idx.leaves)
}

// NewlineUnit returns the configured block separator length.
func (idx *Index) NewlineUnit() int {
	return idx.newlineUnit
}

// Len returns the total linear length of the document.
func (idx *Index) Len() int {
	if len(idx.leaves) == 0 {
		return 0
	}
	return idx.leaves[len(idx.leaves)-1].GEnd
}

// Text returns the flattened document text, rendering each block
// separator as newline characters.
func (idx *Index) Text() string {
	var sb strings.Builder
	sep := strings.Repeat("\n", idx.newlineUnit)
	pos := 0
	for _, leaf := range idx.leaves {
		for pos < leaf.GStart {
			sb.WriteString(sep)
			pos += idx.newlineUnit
		}
		sb.WriteString(leaf.Text)
		pos = leaf.GEnd
	}
	return sb.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
