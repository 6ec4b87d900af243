// Package workspace reads and writes spanstorm workspace files.
//
// A workspace is a YAML document holding the annotated text, its
// optional tree structure, the user and analysis spans and the
// segmentation:
//
//	text: "Anna met Bob."
//	user_spans:
//	  - {start: 0, end: 4, entity: PER, origin: user}
//	api_spans: []
//	segments:
//	  - {start: 0, end: 13, id: s1, order: 0}
package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/dshills/spanstorm/internal/engine/coord"
	"github.com/dshills/spanstorm/internal/engine/span"
)

// Errors returned by workspace operations.
var (
	// ErrNotFound indicates the workspace file doesn't exist.
	ErrNotFound = errors.New("workspace not found")

	// ErrInvalid indicates the workspace content breaks a data-model invariant.
	ErrInvalid = errors.New("invalid workspace")
)

// ParseError reports a workspace file that is not valid YAML.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Workspace is the persisted state of one annotated document.
type Workspace struct {
	// Text is the flattened document text.
	Text string `yaml:"text"`

	// Tree is the optional block structure. When empty the text is
	// treated as one block per line.
	Tree []coord.Node `yaml:"tree,omitempty"`

	UserSpans []span.Span    `yaml:"user_spans,omitempty"`
	APISpans  []span.Span    `yaml:"api_spans,omitempty"`
	Segments  []span.Segment `yaml:"segments,omitempty"`
}

// Load reads and validates the workspace at path.
func Load(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading workspace %s: %w", path, err)
	}

	ws, err := Decode(bytes.NewReader(data))
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return ws, nil
}

// Decode reads a workspace from r and validates it.
func Decode(r io.Reader) (*Workspace, error) {
	ws := &Workspace{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(ws); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ParseError{Path: "<reader>", Err: err}
	}
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return ws, nil
}

// Save writes the workspace to path, creating parent directories.
func (w *Workspace) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := w.Encode(&buf); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Encode writes the workspace as YAML.
func (w *Workspace) Encode(out io.Writer) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(w); err != nil {
		return fmt.Errorf("encoding workspace: %w", err)
	}
	return enc.Close()
}

// Document returns the tree used to build the coordinate index.
func (w *Workspace) Document() []coord.Node {
	if len(w.Tree) > 0 {
		return w.Tree
	}
	return coord.FromText(w.Text)
}

// SetText replaces the text. An explicit tree no longer matches new
// text, so it is dropped in favor of the line structure.
func (w *Workspace) SetText(text string) {
	w.Text = text
	w.Tree = nil
}

// Validate checks every span and the segmentation against the text.
func (w *Workspace) Validate() error {
	n := utf8.RuneCountInString(w.Text)

	check := func(kind string, spans []span.Span, origin span.Origin) error {
		for i, s := range spans {
			if err := s.Validate(); err != nil {
				return fmt.Errorf("%w: %s[%d]: %v", ErrInvalid, kind, i, err)
			}
			if s.Origin != origin {
				return fmt.Errorf("%w: %s[%d] has origin %q", ErrInvalid, kind, i, s.Origin)
			}
			if s.End > n {
				return fmt.Errorf("%w: %s[%d] %s exceeds text length %d", ErrInvalid, kind, i, s.Range, n)
			}
		}
		return nil
	}
	if err := check("user_spans", w.UserSpans, span.OriginUser); err != nil {
		return err
	}
	if err := check("api_spans", w.APISpans, span.OriginAPI); err != nil {
		return err
	}

	if err := span.ValidateSegments(w.Segments); err != nil {
		return fmt.Errorf("%w: segments: %v", ErrInvalid, err)
	}
	if k := len(w.Segments); k > 0 && w.Segments[k-1].End > n {
		return fmt.Errorf("%w: segments exceed text length %d", ErrInvalid, n)
	}
	return nil
}
