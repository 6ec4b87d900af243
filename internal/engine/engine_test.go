package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/dshills/spanstorm/internal/engine/coord"
	"github.com/dshills/spanstorm/internal/engine/reconcile"
	"github.com/dshills/spanstorm/internal/engine/segment"
	"github.com/dshills/spanstorm/internal/engine/span"
	"github.com/dshills/spanstorm/internal/engine/transform"
)

const twoLines = "Anna met Bob.\nThey left."

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e := New(append([]Option{WithText(twoLines), WithLogger(zaptest.NewLogger(t))}, opts...)...)
	if err := e.SetSpans(
		[]span.Span{span.NewSpan(0, 4, "PER", span.OriginUser)},
		[]span.Span{span.NewSpan(9, 12, "PER", span.OriginAPI)},
	); err != nil {
		t.Fatal(err)
	}
	if err := e.SetSegments([]span.Segment{
		{Range: span.NewRange(0, 13), ID: "s1", Order: 0},
		{Range: span.NewRange(14, 24), ID: "s2", Order: 1},
	}); err != nil {
		t.Fatal(err)
	}
	return e
}

func intPtr(v int) *int { return &v }

func bounds[T span.Ranged[T]](items []T) []span.Range {
	return span.Bounds(items)
}

func equalRanges(a, b []span.Range) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ============================================================================
// Document
// ============================================================================

func TestNew(t *testing.T) {
	e := New()
	if e.Len() != 0 || e.Text() != "" {
		t.Errorf("empty engine: Len=%d Text=%q", e.Len(), e.Text())
	}
	if e.Policy() != transform.ShiftAtStart {
		t.Errorf("Policy = %v, want shift", e.Policy())
	}
}

func TestNewWithText(t *testing.T) {
	e := New(WithText(twoLines))
	if e.Text() != twoLines {
		t.Errorf("Text = %q, want %q", e.Text(), twoLines)
	}
	if e.Len() != 24 {
		t.Errorf("Len = %d, want 24", e.Len())
	}
	if got := e.Index().LeafCount(); got != 2 {
		t.Errorf("LeafCount = %d, want 2", got)
	}
}

func TestNewlineUnit(t *testing.T) {
	e := New(WithText("ab\ncd"), WithNewlineUnit(2))
	if e.Len() != 6 {
		t.Errorf("Len = %d, want 6", e.Len())
	}
	if got := e.Offset(coord.Path{1, 0}, 0); got != 4 {
		t.Errorf("Offset = %d, want 4", got)
	}
}

func TestLocate(t *testing.T) {
	e := New(WithText(twoLines))

	p := e.Locate(15)
	if !p.Path.Equal(coord.Path{1, 0}) || p.Offset != 1 {
		t.Errorf("Locate(15) = %v, want 1.0:1", p)
	}
	if got := e.Offset(coord.Path{1, 0}, 1); got != 15 {
		t.Errorf("Offset = %d, want 15", got)
	}
	if got := e.Offset(coord.Path{7}, 1); got != 0 {
		t.Errorf("Offset(unknown) = %d, want 0", got)
	}
}

func TestSetDocumentKeepsSpans(t *testing.T) {
	e := newTestEngine(t)
	e.SetDocument(coord.FromText("Completely different"))

	if e.Text() != "Completely different" {
		t.Errorf("Text = %q", e.Text())
	}
	if len(e.UserSpans()) != 1 || len(e.APISpans()) != 1 {
		t.Error("SetDocument should not touch annotations")
	}
}

// ============================================================================
// Batches
// ============================================================================

func TestApplyBatch_Insert(t *testing.T) {
	e := newTestEngine(t)

	var hooked [][]span.Span
	e.OnUserSpansAdjusted(func(next []span.Span) {
		hooked = append(hooked, next)
	})

	changed := e.ApplyBatch(Batch{
		Ops:      []transform.Operation{transform.Insert(0, "A ")},
		Document: coord.FromText("A " + twoLines),
	})
	if !changed {
		t.Fatal("ApplyBatch reported no change")
	}

	tests := []struct {
		name string
		got  []span.Range
		want []span.Range
	}{
		{"user", bounds(e.UserSpans()), []span.Range{span.NewRange(2, 6)}},
		{"api", bounds(e.APISpans()), []span.Range{span.NewRange(11, 14)}},
		{"segments", bounds(e.Segments()), []span.Range{span.NewRange(2, 15), span.NewRange(16, 26)}},
	}
	for _, tt := range tests {
		if !equalRanges(tt.got, tt.want) {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if len(hooked) != 1 || hooked[0][0].Range != span.NewRange(2, 6) {
		t.Errorf("hook calls = %v", hooked)
	}
	if s, ok := e.SpanAt(3); !ok || s.Origin != span.OriginUser {
		t.Errorf("SpanAt(3) = %v, %v", s, ok)
	}
	if got := span.Slice(e.Text(), e.APISpans()[0].Range); got != "Bob" {
		t.Errorf("api span text = %q, want Bob", got)
	}
}

func TestApplyBatch_NoChange(t *testing.T) {
	e := newTestEngine(t)

	calls := 0
	e.OnUserSpansAdjusted(func([]span.Span) { calls++ })
	e.OnSegmentsAdjusted(func([]span.Segment) { calls++ })

	if e.ApplyBatch(Batch{Ops: []transform.Operation{transform.Insert(24, "!")}}) {
		t.Error("insert at document end should change nothing")
	}
	if e.ApplyBatch(Batch{Ops: []transform.Operation{transform.SplitBlock(coord.Path{0})}}) {
		t.Error("structural split should change nothing")
	}
	if calls != 0 {
		t.Errorf("hooks fired %d times, want 0", calls)
	}
}

func TestApplyBatch_ReslicesCachedSegmentText(t *testing.T) {
	e := newTestEngine(t)
	first, second := "Anna met Bob.", "They left."
	if err := e.SetSegments([]span.Segment{
		{Range: span.NewRange(0, 13), ID: "s1", Order: 0, Text: &first},
		{Range: span.NewRange(14, 24), ID: "s2", Order: 1, Text: &second},
	}); err != nil {
		t.Fatal(err)
	}

	// Bounds move.
	edited := "Anna really met Bob.\nThey left."
	if !e.ApplyBatch(Batch{
		Ops:      []transform.Operation{transform.Insert(4, " really")},
		Document: coord.FromText(edited),
	}) {
		t.Fatal("expected a change")
	}
	segs := e.Segments()
	if got := *segs[0].Text; got != "Anna really met Bob." {
		t.Errorf("first segment text = %q", got)
	}
	if got := *segs[1].Text; got != "They left." {
		t.Errorf("second segment text = %q", got)
	}

	// Bounds hold, text under them changes.
	replaced := "Anna really met Tom.\nThey left."
	e.ApplyBatch(Batch{
		Ops:      []transform.Operation{transform.Remove(16, 3), transform.Insert(16, "Tom")},
		Document: coord.FromText(replaced),
	})
	segs = e.Segments()
	if segs[0].Range != span.NewRange(0, 20) {
		t.Fatalf("first segment = %s, want [0:20)", segs[0].Range)
	}
	if got := segs[0].Content(e.Text()); got != "Anna really met Tom." {
		t.Errorf("first segment text after replace = %q", got)
	}
}

func TestApplyBatch_TextSplit(t *testing.T) {
	e := newTestEngine(t)

	// Pressing Enter after "Anna" reports both the split and a literal newline.
	changed := e.ApplyBatch(Batch{
		Ops: []transform.Operation{
			transform.Split(coord.Path{0, 0}, 4),
			transform.Insert(4, "\n"),
		},
		Document: []coord.Node{
			coord.Block(coord.Text("Anna")),
			coord.Block(coord.Text(" met Bob.")),
			coord.Block(coord.Text("They left.")),
		},
	})
	if !changed {
		t.Fatal("ApplyBatch reported no change")
	}

	if got := bounds(e.UserSpans()); !equalRanges(got, []span.Range{span.NewRange(0, 4)}) {
		t.Errorf("user = %v, want [0:4)", got)
	}
	if got := span.Slice(e.Text(), e.APISpans()[0].Range); got != "Bob" {
		t.Errorf("api span text = %q, want Bob (newline counted once)", got)
	}
	if got := bounds(e.Segments()); !equalRanges(got, []span.Range{span.NewRange(0, 14), span.NewRange(15, 25)}) {
		t.Errorf("segments = %v", got)
	}
}

func TestApplyBatch_Merge(t *testing.T) {
	tests := []struct {
		name   string
		op     transform.Operation
		cursor *int
	}{
		{"resolved position", transform.Merge(coord.Path{0, 0}, 13), nil},
		{"cursor fallback", transform.Merge(coord.Path{1}, 0), intPtr(13)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			e.ApplyBatch(Batch{Ops: []transform.Operation{tt.op}, Cursor: tt.cursor})

			want := []span.Range{span.NewRange(0, 13), span.NewRange(13, 23)}
			if got := bounds(e.Segments()); !equalRanges(got, want) {
				t.Errorf("segments = %v, want %v", got, want)
			}
		})
	}
}

func TestApplyBatch_RemoveCollapsesAndRenumbers(t *testing.T) {
	e := newTestEngine(t)

	// Delete the whole first line including its newline.
	e.ApplyBatch(Batch{Ops: []transform.Operation{transform.Remove(0, 14)}})

	if len(e.UserSpans()) != 0 || len(e.APISpans()) != 0 {
		t.Errorf("spans inside the deletion should be dropped: %v %v", e.UserSpans(), e.APISpans())
	}
	segs := e.Segments()
	if len(segs) != 1 || segs[0].ID != "s2" || segs[0].Order != 0 || segs[0].Range != span.NewRange(0, 10) {
		t.Errorf("segments = %v", segs)
	}
}

func TestApplyBatch_RemoveEmptyBlock(t *testing.T) {
	e := New(WithDocument([]coord.Node{
		coord.Block(coord.Text("ab")),
		coord.Block(coord.Text("")),
		coord.Block(coord.Text("cd")),
	}))
	if err := e.SetSpans(nil, []span.Span{span.NewSpan(4, 6, "X", span.OriginAPI)}); err != nil {
		t.Fatal(err)
	}

	e.ApplyBatch(Batch{
		Ops:    []transform.Operation{transform.RemoveBlock(coord.Path{1}, "")},
		Cursor: intPtr(3),
	})
	if got := e.APISpans()[0].Range; got != span.NewRange(3, 5) {
		t.Errorf("api span = %v, want [3:5)", got)
	}
}

func TestApplyBatch_GrowPolicy(t *testing.T) {
	e := New(WithText("abc"), WithInsertPolicy(transform.GrowAtStart))
	if err := e.SetSpans([]span.Span{span.NewSpan(1, 3, "X", span.OriginUser)}, nil); err != nil {
		t.Fatal(err)
	}

	e.ApplyBatch(Batch{Ops: []transform.Operation{transform.Insert(1, "zz")}})
	if got := e.UserSpans()[0].Range; got != span.NewRange(1, 5) {
		t.Errorf("span = %v, want [1:5)", got)
	}
}

// ============================================================================
// Segments
// ============================================================================

func TestSplitJoinSegments(t *testing.T) {
	n := 0
	e := newTestEngine(t, WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}))

	ok, err := e.SplitSegment("s1", 8)
	if err != nil || !ok {
		t.Fatalf("SplitSegment = %v, %v", ok, err)
	}
	segs := e.Segments()
	want := []span.Range{span.NewRange(0, 8), span.NewRange(9, 13), span.NewRange(14, 24)}
	if !equalRanges(bounds(segs), want) {
		t.Fatalf("segments = %v, want %v", segs, want)
	}
	if segs[1].ID != "new-1" || segs[1].Order != 1 || segs[2].Order != 2 {
		t.Errorf("segments = %v", segs)
	}

	if s, ok := e.SegmentAt(10); !ok || s.ID != "new-1" {
		t.Errorf("SegmentAt(10) = %v, %v", s, ok)
	}

	if !e.JoinSegments("s1", "new-1") {
		t.Fatal("JoinSegments failed")
	}
	if got := bounds(e.Segments()); !equalRanges(got, []span.Range{span.NewRange(0, 13), span.NewRange(14, 24)}) {
		t.Errorf("segments after join = %v", got)
	}
}

func TestSplitSegment_Edges(t *testing.T) {
	e := newTestEngine(t)

	if ok, err := e.SplitSegment("s1", 0); ok || err != nil {
		t.Errorf("split at start = %v, %v; want false, nil", ok, err)
	}
	if ok, err := e.SplitSegment("s1", 13); ok || err != nil {
		t.Errorf("split at end = %v, %v; want false, nil", ok, err)
	}
	if _, err := e.SplitSegment("nope", 3); !errors.Is(err, segment.ErrSegmentNotFound) {
		t.Errorf("err = %v, want ErrSegmentNotFound", err)
	}
	if e.JoinSegments("s1", "nope") {
		t.Error("join with unknown id should fail")
	}
	if e.JoinSegments("s2", "s1") {
		t.Error("join in reverse order should fail")
	}
}

func TestSetSegments_Invalid(t *testing.T) {
	e := New(WithText(twoLines))
	err := e.SetSegments([]span.Segment{
		{Range: span.NewRange(0, 5), ID: "a", Order: 0},
		{Range: span.NewRange(3, 9), ID: "b", Order: 1},
	})
	if !errors.Is(err, ErrInvalidSegments) {
		t.Errorf("err = %v, want ErrInvalidSegments", err)
	}
}

// ============================================================================
// Reconcile
// ============================================================================

const sentence = "Anna met Bob in Prague last May."

func reconcileEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(WithText(sentence), WithLogger(zaptest.NewLogger(t)))
	if err := e.SetSpans([]span.Span{span.NewSpan(9, 15, "ORG", span.OriginUser)}, nil); err != nil {
		t.Fatal(err)
	}
	return e
}

func incomingSpans() []span.Span {
	return []span.Span{
		span.NewSpan(0, 4, "PER", span.OriginAPI),
		span.NewSpan(9, 12, "PER", span.OriginAPI),
	}
}

func TestReconcile(t *testing.T) {
	e := reconcileEngine(t)

	res, err := e.Reconcile(context.Background(), incomingSpans(), reconcile.Fixed(reconcile.AcceptAPI))
	if err != nil {
		t.Fatalf("Reconcile error = %v", err)
	}
	if res.ConflictsHandled != 1 {
		t.Errorf("ConflictsHandled = %d, want 1", res.ConflictsHandled)
	}
	if len(e.UserSpans()) != 0 {
		t.Errorf("user spans = %v, want none", e.UserSpans())
	}
	if got := e.SpansIn(0, len(sentence)); len(got) != 2 {
		t.Errorf("SpansIn = %v, want 2 api spans", got)
	}
}

func TestReconcile_KeepExisting(t *testing.T) {
	e := reconcileEngine(t)

	_, err := e.Reconcile(context.Background(), incomingSpans(), reconcile.Fixed(reconcile.KeepExisting))
	if err != nil {
		t.Fatal(err)
	}
	if len(e.UserSpans()) != 1 || len(e.APISpans()) != 1 {
		t.Errorf("user=%v api=%v", e.UserSpans(), e.APISpans())
	}
	if s, ok := e.SpanAt(10); !ok || s.Entity != "ORG" {
		t.Errorf("SpanAt(10) = %v, want the user ORG span", s)
	}
}

func TestReconcile_ArbiterErrorKeepsPartial(t *testing.T) {
	e := reconcileEngine(t)
	boom := errors.New("boom")

	_, err := e.Reconcile(context.Background(), incomingSpans(),
		reconcile.ArbiterFunc(func(context.Context, reconcile.Prompt) (reconcile.Decision, error) {
			return "", boom
		}))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if got := e.APISpans(); len(got) != 1 || got[0].Range != span.NewRange(0, 4) {
		t.Errorf("api spans = %v, want the span placed before the failure", got)
	}
	if len(e.UserSpans()) != 1 {
		t.Errorf("user spans = %v, want unchanged", e.UserSpans())
	}
}

func TestReconcile_Stale(t *testing.T) {
	e := reconcileEngine(t)

	_, err := e.Reconcile(context.Background(), incomingSpans(),
		reconcile.ArbiterFunc(func(context.Context, reconcile.Prompt) (reconcile.Decision, error) {
			e.ApplyBatch(Batch{Ops: []transform.Operation{transform.Insert(0, "X")}})
			return reconcile.AcceptAPI, nil
		}))
	if !errors.Is(err, ErrStale) {
		t.Fatalf("err = %v, want ErrStale", err)
	}
	if got := e.UserSpans(); len(got) != 1 || got[0].Range != span.NewRange(10, 16) {
		t.Errorf("user spans = %v, want only the batch applied", got)
	}
	if len(e.APISpans()) != 0 {
		t.Errorf("api spans = %v, want none", e.APISpans())
	}
}

func TestReconcile_InvalidIncoming(t *testing.T) {
	e := reconcileEngine(t)
	_, err := e.Reconcile(context.Background(),
		[]span.Span{span.NewSpan(0, 4, "PER", span.OriginUser)}, reconcile.Fixed(reconcile.AcceptAPI))
	if !errors.Is(err, ErrInvalidSpans) {
		t.Errorf("err = %v, want ErrInvalidSpans", err)
	}
}

func TestSetSpans_Invalid(t *testing.T) {
	e := New(WithText(sentence))
	tests := []struct {
		name      string
		user, api []span.Span
	}{
		{"collapsed", []span.Span{span.NewSpan(3, 3, "X", span.OriginUser)}, nil},
		{"empty entity", []span.Span{span.NewSpan(0, 3, "", span.OriginUser)}, nil},
		{"api in user list", []span.Span{span.NewSpan(0, 3, "X", span.OriginAPI)}, nil},
		{"user in api list", nil, []span.Span{span.NewSpan(0, 3, "X", span.OriginUser)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := e.SetSpans(tt.user, tt.api); !errors.Is(err, ErrInvalidSpans) {
				t.Errorf("err = %v, want ErrInvalidSpans", err)
			}
		})
	}
}

// ============================================================================
// Concurrency
// ============================================================================

func TestConcurrentAccess(t *testing.T) {
	e := newTestEngine(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				e.ApplyBatch(Batch{Ops: []transform.Operation{transform.Insert(0, "x")}})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = e.Text()
				_, _ = e.SpanAt(j)
				_ = e.SpansIn(0, j+1)
				_ = e.Locate(j)
			}
		}()
	}
	wg.Wait()

	if got := e.UserSpans()[0].Range; got != span.NewRange(200, 204) {
		t.Errorf("user span = %v, want [200:204)", got)
	}
}
