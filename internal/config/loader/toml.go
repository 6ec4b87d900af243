package loader

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// IncludeKey names the top-level key that pulls in a base file. The
// including file overrides whatever the base sets.
const IncludeKey = "@include"

// ErrIncludeDepthExceeded indicates too many nested @include directives.
var ErrIncludeDepthExceeded = errors.New("include depth exceeded")

// ParseError reports a configuration file that is not valid TOML or
// carries a malformed directive.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s:%d:%d: %v", e.Path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FileLoader reads a TOML file together with the chain of files it
// includes.
type FileLoader struct {
	fs       FileSystem
	maxDepth int
}

// NewFileLoader creates a loader allowing at most maxDepth files in an
// include chain.
func NewFileLoader(fsys FileSystem, maxDepth int) *FileLoader {
	return &FileLoader{fs: fsys, maxDepth: maxDepth}
}

// Load reads path and its includes. Read errors are wrapped, so a
// missing file satisfies errors.Is(err, fs.ErrNotExist).
func (l *FileLoader) Load(path string) (map[string]any, error) {
	return l.load(path, l.maxDepth)
}

func (l *FileLoader) load(path string, depth int) (map[string]any, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncludeDepthExceeded, path)
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	raw, err := decodeTOML(path, data)
	if err != nil {
		return nil, err
	}

	inc, ok := raw[IncludeKey]
	if !ok {
		return raw, nil
	}
	delete(raw, IncludeKey)

	name, ok := inc.(string)
	if !ok || name == "" {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("%s must be a file name, got %T", IncludeKey, inc)}
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(filepath.Dir(path), name)
	}

	base, err := l.load(name, depth-1)
	if err != nil {
		return nil, fmt.Errorf("loading include %s: %w", name, err)
	}
	return DeepMerge(base, raw), nil
}

func decodeTOML(path string, data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		pe := &ParseError{Path: path, Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		return nil, pe
	}
	return raw, nil
}

// DeepMerge lays src over dst and returns dst, allocating it when nil.
// Nested tables merge key by key; any other value in src replaces the
// one in dst.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		sub, isTable := v.(map[string]any)
		if cur, ok := dst[k].(map[string]any); ok && isTable {
			dst[k] = DeepMerge(cur, sub)
			continue
		}
		dst[k] = v
	}
	return dst
}
