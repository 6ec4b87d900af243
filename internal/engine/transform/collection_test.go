package transform

import (
	"testing"

	"github.com/dshills/spanstorm/internal/engine/span"
)

func TestCollectionApplyNotifiesOnChange(t *testing.T) {
	c := NewCollection([]span.Span{span.NewSpan(5, 10, "PER", span.OriginUser)})

	calls := 0
	var seen []span.Span
	c.OnAdjusted(func(next []span.Span) {
		calls++
		seen = next
	})

	if !c.Apply(Transformer{}, []Operation{Insert(0, "ab")}) {
		t.Fatal("expected change")
	}
	if calls != 1 {
		t.Fatalf("hook called %d times, want 1", calls)
	}
	if seen[0].Range != span.NewRange(7, 12) {
		t.Errorf("hook saw %s", seen[0].Range)
	}
	if got := c.Get(); got[0].Range != span.NewRange(7, 12) {
		t.Errorf("Get() = %v", got)
	}
}

func TestCollectionSkipsNoopBatch(t *testing.T) {
	c := NewCollection([]span.Span{span.NewSpan(5, 10, "PER", span.OriginUser)})
	calls := 0
	c.OnAdjusted(func([]span.Span) { calls++ })

	if c.Apply(Transformer{}, []Operation{Insert(20, "tail")}) {
		t.Error("insert after every range should not report a change")
	}
	if c.Apply(Transformer{}, []Operation{Insert(6, "x"), Remove(6, 1)}) {
		t.Error("insert then delete of the same text should not report a change")
	}
	if calls != 0 {
		t.Errorf("hook called %d times, want 0", calls)
	}
}

func TestCollectionGetReturnsCopy(t *testing.T) {
	c := NewCollection([]span.Range{span.NewRange(0, 3)})
	got := c.Get()
	got[0] = span.NewRange(9, 12)
	if c.Get()[0] != span.NewRange(0, 3) {
		t.Error("mutating Get() result should not affect collection")
	}

	c.Set([]span.Range{span.NewRange(1, 2), span.NewRange(4, 5)})
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCollectionUpdate(t *testing.T) {
	c := NewCollection([]span.Segment{
		{Range: span.NewRange(0, 4), ID: "a", Order: 0},
		{Range: span.NewRange(5, 9), ID: "b", Order: 1},
	})
	var seen []span.Segment
	c.OnAdjusted(func(next []span.Segment) { seen = next })

	changed := c.Update(func(items []span.Segment) []span.Segment {
		next := AdjustForDelete(items, 0, 5)
		span.Renumber(next)
		return next
	})
	if !changed {
		t.Fatal("Update() reported no change")
	}
	if len(seen) != 1 || seen[0].ID != "b" || seen[0].Order != 0 || seen[0].Range != span.NewRange(0, 4) {
		t.Errorf("hook saw %v", seen)
	}
}
