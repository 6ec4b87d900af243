package transform

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dshills/spanstorm/internal/engine/coord"
)

// Kind tags an Operation.
type Kind uint8

const (
	// InsertText inserts Length code points at Offset.
	InsertText Kind = iota

	// RemoveText removes Length code points starting at Offset.
	RemoveText

	// SplitNode splits a node at a tree position. Only a text-level split
	// inserts a newline.
	SplitNode

	// MergeNode merges a node into its previous sibling. Only a text-level
	// merge removes a newline.
	MergeNode

	// RemoveNode removes a node. Only removing an empty block removes a newline.
	RemoveNode
)

// String returns the operation kind name.
func (k Kind) String() string {
	switch k {
	case InsertText:
		return "insert_text"
	case RemoveText:
		return "remove_text"
	case SplitNode:
		return "split_node"
	case MergeNode:
		return "merge_node"
	case RemoveNode:
		return "remove_node"
	default:
		return "unknown"
	}
}

// ParseKind converts a kind name back to a Kind.
func ParseKind(s string) (Kind, error) {
	for k := InsertText; k <= RemoveNode; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Operation is one primitive edit reported by the editing surface.
//
// InsertText and RemoveText carry linear Offset and Length. The node
// kinds carry a tree position (Path, PathOffset) that is resolved
// through a coord.Index.
type Operation struct {
	Kind Kind

	// Offset and Length are the linear position and size of a text edit.
	Offset int
	Length int

	// Text is the inserted text for InsertText, or the text of the
	// removed node for RemoveNode.
	Text string

	// Path and PathOffset locate node operations in the tree.
	Path       coord.Path
	PathOffset int

	// TextLevel marks a split or merge inside text (Enter, Backspace at
	// line start) as opposed to a purely structural one.
	TextLevel bool

	// BlockLevel marks a RemoveNode of a whole block.
	BlockLevel bool
}

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op.Kind {
	case InsertText:
		return fmt.Sprintf("insert %d at %d", op.Length, op.Offset)
	case RemoveText:
		return fmt.Sprintf("remove %d at %d", op.Length, op.Offset)
	case SplitNode, MergeNode:
		level := "block"
		if op.TextLevel {
			level = "text"
		}
		return fmt.Sprintf("%s %s-level at (%s:%d)", op.Kind, level, op.Path, op.PathOffset)
	case RemoveNode:
		level := "leaf"
		if op.BlockLevel {
			level = "block"
		}
		return fmt.Sprintf("%s %s-level at %s", op.Kind, level, op.Path)
	default:
		return "unknown operation"
	}
}

// Insert creates an InsertText operation for text at offset.
func Insert(offset int, text string) Operation {
	return Operation{
		Kind:   InsertText,
		Offset: offset,
		Length: utf8.RuneCountInString(text),
		Text:   text,
	}
}

// InsertLen creates an InsertText operation of n code points at offset.
func InsertLen(offset, n int) Operation {
	return Operation{Kind: InsertText, Offset: offset, Length: n}
}

// Remove creates a RemoveText operation of n code points at offset.
func Remove(offset, n int) Operation {
	return Operation{Kind: RemoveText, Offset: offset, Length: n}
}

// Split creates a text-level SplitNode at the given leaf position.
func Split(path coord.Path, offset int) Operation {
	return Operation{Kind: SplitNode, Path: path, PathOffset: offset, TextLevel: true}
}

// SplitBlock creates a structural SplitNode of an element.
func SplitBlock(path coord.Path) Operation {
	return Operation{Kind: SplitNode, Path: path}
}

// Merge creates a text-level MergeNode. The leaf position names the end
// of the text that precedes the separator being removed.
func Merge(path coord.Path, offset int) Operation {
	return Operation{Kind: MergeNode, Path: path, PathOffset: offset, TextLevel: true}
}

// MergeBlock creates a structural MergeNode of an element.
func MergeBlock(path coord.Path) Operation {
	return Operation{Kind: MergeNode, Path: path}
}

// RemoveBlock creates a block-level RemoveNode; text is the removed
// block's content.
func RemoveBlock(path coord.Path, text string) Operation {
	return Operation{Kind: RemoveNode, Path: path, Text: text, BlockLevel: true}
}

// RemoveLeaf creates a leaf-level RemoveNode.
func RemoveLeaf(path coord.Path) Operation {
	return Operation{Kind: RemoveNode, Path: path}
}

// isLiteralNewline reports whether text is nothing but line breaks.
func isLiteralNewline(text string) bool {
	return text != "" && strings.Trim(text, "\r\n") == ""
}
