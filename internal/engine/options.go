package engine

import (
	"go.uber.org/zap"

	"github.com/dshills/spanstorm/internal/engine/coord"
	"github.com/dshills/spanstorm/internal/engine/segment"
	"github.com/dshills/spanstorm/internal/engine/transform"
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithDocument sets the initial document tree.
func WithDocument(doc []coord.Node) Option {
	return func(e *Engine) {
		e.doc = doc
	}
}

// WithText sets the initial document to one block per line of text.
func WithText(text string) Option {
	return func(e *Engine) {
		e.doc = coord.FromText(text)
	}
}

// WithNewlineUnit sets the linear length of a block boundary.
func WithNewlineUnit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.newlineUnit = n
		}
	}
}

// WithInsertPolicy sets how insertions at a range start are treated.
func WithInsertPolicy(p transform.InsertPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithIDGenerator sets the generator for ids of split-off segments.
func WithIDGenerator(gen segment.IDGenerator) Option {
	return func(e *Engine) {
		if gen != nil {
			e.splitter.NewID = gen
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
