package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/spanstorm/internal/engine/reconcile"
	"github.com/dshills/spanstorm/internal/engine/span"
)

// Bridge converts engine values into Lua tables.
type Bridge struct {
	L *lua.LState
}

// NewBridge creates a new Bridge for the given Lua state.
func NewBridge(L *lua.LState) *Bridge {
	return &Bridge{L: L}
}

// PromptTable converts a conflict prompt into the table passed to decide.
// Lists are 1-based.
func (b *Bridge) PromptTable(p reconcile.Prompt) *lua.LTable {
	t := b.L.NewTable()
	t.RawSetString("index", lua.LNumber(p.Index))
	t.RawSetString("total", lua.LNumber(p.Total))

	cand := b.SpanTable(p.Candidate.Span)
	cand.RawSetString("snippet", lua.LString(p.Candidate.Snippet))
	t.RawSetString("candidate", cand)

	conflicts := b.L.NewTable()
	for i, c := range p.Conflicts {
		ct := b.SpanTable(c.Span)
		ct.RawSetString("source", lua.LString(c.Source))
		ct.RawSetString("snippet", lua.LString(c.Snippet))
		conflicts.RawSetInt(i+1, ct)
	}
	t.RawSetString("conflicts", conflicts)

	return t
}

// SpanTable converts a span. Score and id are omitted when unset.
func (b *Bridge) SpanTable(s span.Span) *lua.LTable {
	t := b.L.NewTable()
	t.RawSetString("start", lua.LNumber(s.Start))
	t.RawSetString("end", lua.LNumber(s.End))
	t.RawSetString("entity", lua.LString(s.Entity))
	t.RawSetString("origin", lua.LString(s.Origin))
	if s.Score != nil {
		t.RawSetString("score", lua.LNumber(*s.Score))
	}
	if s.ID != "" {
		t.RawSetString("id", lua.LString(s.ID))
	}
	return t
}
