package coord

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Node is an element of the document tree.
// A node without children is a text leaf. An element is a block unless
// it is marked Inline, in which case its leaves belong to the nearest
// enclosing block.
type Node struct {
	Text     string `yaml:"text,omitempty" json:"text,omitempty"`
	Children []Node `yaml:"children,omitempty" json:"children,omitempty"`
	Inline   bool   `yaml:"inline,omitempty" json:"inline,omitempty"`
}

// Text creates a leaf.
func Text(s string) Node {
	return Node{Text: s}
}

// Block creates a block element.
func Block(children ...Node) Node {
	return Node{Children: children}
}

// InlineElement creates an inline element such as a link.
func InlineElement(children ...Node) Node {
	return Node{Children: children, Inline: true}
}

// IsLeaf reports whether n is a text leaf.
func (n Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Len returns the leaf length in code points.
func (n Node) Len() int {
	return utf8.RuneCountInString(n.Text)
}

// FromText builds a document with one block per line of text.
func FromText(text string) []Node {
	lines := strings.Split(text, "\n")
	doc := make([]Node, len(lines))
	for i, line := range lines {
		doc[i] = Block(Text(line))
	}
	return doc
}

// Path addresses a node by child indices from the document root.
type Path []int

// String returns the path as a dotted key, e.g. "0.2.1".
func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, idx := range p {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strconv.Itoa(idx))
	}
	return sb.String()
}

// Equal reports whether two paths address the same node.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the path.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// ParsePath parses a dotted key produced by Path.String.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}
	parts := strings.Split(s, ".")
	p := make(Path, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, s)
		}
		p[i] = n
	}
	return p, nil
}

// Point is a tree position: a leaf path and a code-point offset in it.
type Point struct {
	Path   Path
	Offset int
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%s:%d)", p.Path, p.Offset)
}
