package engine

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/spanstorm/internal/engine/coord"
	"github.com/dshills/spanstorm/internal/engine/reconcile"
	"github.com/dshills/spanstorm/internal/engine/segment"
	"github.com/dshills/spanstorm/internal/engine/span"
	"github.com/dshills/spanstorm/internal/engine/transform"
)

// Batch is one editor transaction.
type Batch struct {
	// Ops are the operations in the order they were applied.
	Ops []transform.Operation

	// Cursor is the collapsed selection after the transaction, if known.
	Cursor *int

	// Document is the tree after the transaction. When set it replaces
	// the current document once the annotations have been moved.
	Document []coord.Node
}

// Engine holds a document together with its user spans, analysis spans
// and segments, and keeps them aligned as the document is edited.
//
// All operations are thread-safe and can be called from multiple goroutines.
type Engine struct {
	// writeMu serializes mutations. Adjustment hooks run while it is
	// held, so hooks may read from the engine but must not modify it.
	writeMu sync.Mutex

	// mu guards the document, index, text and version.
	mu sync.RWMutex

	doc   []coord.Node
	index *coord.Index
	text  string

	// version increases on every change to the document or collections.
	version uint64

	user     *transform.Collection[span.Span]
	api      *transform.Collection[span.Span]
	segments *transform.Collection[span.Segment]

	// Configuration
	newlineUnit int
	policy      transform.InsertPolicy
	splitter    segment.Splitter
	resolver    *reconcile.Resolver
	logger      *zap.Logger
}

// New creates a new Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		newlineUnit: coord.DefaultNewlineUnit,
		policy:      transform.ShiftAtStart,
		splitter:    segment.Splitter{NewID: segment.NewID},
		logger:      zap.NewNop(),
		user:        transform.NewCollection[span.Span](nil),
		api:         transform.NewCollection[span.Span](nil),
		segments:    transform.NewCollection[span.Segment](nil),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.resolver = reconcile.NewResolver(reconcile.WithLogger(e.logger))
	e.rebuild(e.doc)
	return e
}

// rebuild replaces the document and its index. Caller holds mu or owns
// e exclusively.
func (e *Engine) rebuild(doc []coord.Node) {
	e.doc = doc
	e.index = coord.Build(doc, coord.WithNewlineUnit(e.newlineUnit))
	e.text = e.index.Text()
	e.version++
}

// SetDocument replaces the document tree without moving annotations.
func (e *Engine) SetDocument(doc []coord.Node) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rebuild(doc)
	e.logger.Debug("document set",
		zap.Int("leaves", e.index.LeafCount()),
		zap.Int("length", e.index.Len()))
}

// Document returns the current document tree.
func (e *Engine) Document() []coord.Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc
}

// Text returns the flattened document text.
func (e *Engine) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.text
}

// Len returns the linear length of the document.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.Len()
}

// Index returns the coordinate index of the current document.
// The index is immutable; it is replaced, not modified, on change.
func (e *Engine) Index() *coord.Index {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index
}

// Policy returns the insert policy.
func (e *Engine) Policy() transform.InsertPolicy {
	return e.policy
}

// SetSpans replaces both span collections after validating them.
func (e *Engine) SetSpans(user, api []span.Span) error {
	if err := validateSpans(user, span.OriginUser); err != nil {
		return err
	}
	if err := validateSpans(api, span.OriginAPI); err != nil {
		return err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.user.Set(user)
	e.api.Set(api)
	e.bump()
	return nil
}

func validateSpans(spans []span.Span, origin span.Origin) error {
	for i, s := range spans {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: span %d: %v", ErrInvalidSpans, i, err)
		}
		if s.Origin != origin {
			return fmt.Errorf("%w: span %d has origin %q, want %q", ErrInvalidSpans, i, s.Origin, origin)
		}
	}
	return nil
}

// SetSegments replaces the segmentation after validating it.
func (e *Engine) SetSegments(segments []span.Segment) error {
	if err := span.ValidateSegments(segments); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSegments, err)
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.segments.Set(span.CloneSegments(segments))
	e.bump()
	return nil
}

// UserSpans returns a copy of the user spans.
func (e *Engine) UserSpans() []span.Span {
	return e.user.Get()
}

// APISpans returns a copy of the analysis spans.
func (e *Engine) APISpans() []span.Span {
	return e.api.Get()
}

// Segments returns a deep copy of the segments.
func (e *Engine) Segments() []span.Segment {
	return span.CloneSegments(e.segments.Get())
}

// OnUserSpansAdjusted registers a hook fired when an edit moves user spans.
func (e *Engine) OnUserSpansAdjusted(fn transform.AdjustedFunc[span.Span]) {
	e.user.OnAdjusted(fn)
}

// OnAPISpansAdjusted registers a hook fired when an edit moves analysis spans.
func (e *Engine) OnAPISpansAdjusted(fn transform.AdjustedFunc[span.Span]) {
	e.api.OnAdjusted(fn)
}

// OnSegmentsAdjusted registers a hook fired when an edit moves segments.
func (e *Engine) OnSegmentsAdjusted(fn transform.AdjustedFunc[span.Segment]) {
	e.segments.OnAdjusted(fn)
}

// ApplyBatch moves every collection through the batch, resolved against
// the current document, and then installs b.Document if set. It reports
// whether any collection changed.
func (e *Engine) ApplyBatch(b Batch) bool {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.mu.RLock()
	res := transform.Resolver{Index: e.index}
	e.mu.RUnlock()
	if b.Cursor != nil {
		res.Cursor = *b.Cursor
		res.HasCursor = true
	}
	edits := res.Edits(b.Ops)

	if b.Document != nil {
		e.mu.Lock()
		e.rebuild(b.Document)
		e.mu.Unlock()
	} else {
		e.bump()
	}

	userChanged := e.user.ApplyEdits(edits, e.policy)
	apiChanged := e.api.ApplyEdits(edits, e.policy)
	var text string
	if b.Document != nil {
		text = e.Text()
	}
	segChanged := e.segments.Update(func(items []span.Segment) []span.Segment {
		next := transform.ApplyEdits(items, edits, e.policy)
		// Collapsed segments were dropped; keep Order equal to the index.
		span.Renumber(next)
		if b.Document != nil {
			resliceText(next, text)
		}
		return next
	})
	if b.Document != nil && !segChanged {
		// Bounds held but the text under them may have changed.
		if segs := e.segments.Get(); resliceText(segs, text) {
			e.segments.Set(segs)
		}
	}

	e.logger.Debug("batch applied",
		zap.Int("ops", len(b.Ops)),
		zap.Int("edits", len(edits)),
		zap.Bool("user_changed", userChanged),
		zap.Bool("api_changed", apiChanged),
		zap.Bool("segments_changed", segChanged))
	return userChanged || apiChanged || segChanged
}

// resliceText refreshes the cached text of segments that carry one and
// reports whether any cached text differed.
func resliceText(segments []span.Segment, text string) bool {
	changed := false
	for i := range segments {
		if segments[i].Text == nil {
			continue
		}
		t := span.Slice(text, segments[i].Range)
		if *segments[i].Text != t {
			changed = true
		}
		segments[i].Text = &t
	}
	return changed
}

// bump records a change to the collections.
func (e *Engine) bump() {
	e.mu.Lock()
	e.version++
	e.mu.Unlock()
}

// SplitSegment splits segment id at position. It reports false when
// position is not strictly inside the segment.
func (e *Engine) SplitSegment(id string, position int) (bool, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	next, err := e.splitter.Split(e.segments.Get(), id, position, e.Text())
	if err != nil {
		return false, err
	}
	if next == nil {
		return false, nil
	}
	e.segments.Set(next)
	e.bump()
	e.logger.Debug("segment split", zap.String("id", id), zap.Int("position", position))
	return true, nil
}

// JoinSegments merges two consecutive segments. It reports false when
// either id is unknown or the segments are not consecutive.
func (e *Engine) JoinSegments(id1, id2 string) bool {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	next := segment.Join(e.segments.Get(), id1, id2)
	if next == nil {
		return false
	}
	e.segments.Set(next)
	e.bump()
	e.logger.Debug("segments joined", zap.String("first", id1), zap.String("second", id2))
	return true
}

// Reconcile merges incoming analysis spans into the collections, asking
// arbiter about every overlap with a user span. The engine lock is not
// held while the arbiter decides. On an arbiter error or cancellation
// the decisions made so far are kept and the error is returned.
func (e *Engine) Reconcile(ctx context.Context, incoming []span.Span, arbiter reconcile.Arbiter) (reconcile.Result, error) {
	if err := validateSpans(incoming, span.OriginAPI); err != nil {
		return reconcile.Result{}, err
	}

	e.writeMu.Lock()
	in := reconcile.Input{
		Text:      e.Text(),
		Incoming:  incoming,
		UserSpans: e.user.Get(),
		APISpans:  e.api.Get(),
	}
	version := e.currentVersion()
	e.writeMu.Unlock()

	res, resolveErr := e.resolver.Resolve(ctx, in, arbiter)

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if e.currentVersion() != version {
		return res, ErrStale
	}
	e.user.Set(res.UserSpans)
	e.api.Set(res.APISpans)
	e.bump()

	e.logger.Info("reconciled",
		zap.Int("incoming", len(incoming)),
		zap.Int("conflicts", res.ConflictsHandled),
		zap.Int("user_spans", len(res.UserSpans)),
		zap.Int("api_spans", len(res.APISpans)),
		zap.Error(resolveErr))
	return res, resolveErr
}

func (e *Engine) currentVersion() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// SpanAt returns the first span containing offset, searching user spans
// before analysis spans.
func (e *Engine) SpanAt(offset int) (span.Span, bool) {
	if s, ok := span.SpanAtCursor(e.user.Get(), offset); ok {
		return s, true
	}
	return span.SpanAtCursor(e.api.Get(), offset)
}

// SpansIn returns user and analysis spans overlapping [start, end), user
// spans first.
func (e *Engine) SpansIn(start, end int) []span.Span {
	out := span.SpansInSelection(e.user.Get(), start, end)
	return append(out, span.SpansInSelection(e.api.Get(), start, end)...)
}

// SegmentAt returns the segment containing offset.
func (e *Engine) SegmentAt(offset int) (span.Segment, bool) {
	segs := e.segments.Get()
	i := span.SegmentAt(segs, offset)
	if i < 0 {
		return span.Segment{}, false
	}
	return segs[i].Clone(), true
}

// Locate maps a linear offset to a tree position.
func (e *Engine) Locate(offset int) coord.Point {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.GlobalToPoint(offset)
}

// Offset maps a tree position to a linear offset.
func (e *Engine) Offset(path coord.Path, offset int) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.PointToGlobal(path, offset)
}
