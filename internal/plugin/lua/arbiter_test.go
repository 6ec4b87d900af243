package lua

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/dshills/spanstorm/internal/engine/reconcile"
	"github.com/dshills/spanstorm/internal/engine/span"
)

const scoreScript = `
function decide(p)
    if p.candidate.score ~= nil and p.candidate.score >= 0.9 then
        return "api"
    end
    return "existing"
end
`

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "decide.lua")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testPrompt(score *float64) reconcile.Prompt {
	cand := span.NewSpan(9, 12, "PER", span.OriginAPI)
	cand.Score = score
	return reconcile.Prompt{
		Candidate: reconcile.Candidate{Span: cand, Snippet: "Bob"},
		Conflicts: []reconcile.Conflict{{
			Span:    span.NewSpan(9, 15, "ORG", span.OriginUser),
			Source:  span.OriginUser,
			Snippet: "Bob in",
		}},
		Index: 1,
		Total: 2,
	}
}

func TestScriptArbiter_Decide(t *testing.T) {
	path := writeScript(t, t.TempDir(), scoreScript)
	arb, err := NewScriptArbiter(path, WithArbiterLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("NewScriptArbiter() error = %v", err)
	}
	defer arb.Close()

	high, low := 0.95, 0.4
	tests := []struct {
		name  string
		score *float64
		want  reconcile.Decision
	}{
		{"high score", &high, reconcile.AcceptAPI},
		{"low score", &low, reconcile.KeepExisting},
		{"no score", nil, reconcile.KeepExisting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := arb.Decide(context.Background(), testPrompt(tt.score))
			if err != nil {
				t.Fatalf("Decide() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Decide() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScriptArbiter_PromptShape(t *testing.T) {
	path := writeScript(t, t.TempDir(), `
function decide(p)
    local c = p.conflicts[1]
    assert(p.index == 1 and p.total == 2)
    assert(p.candidate.start == 9 and p.candidate["end"] == 12)
    assert(p.candidate.snippet == "Bob" and p.candidate.origin == "api")
    assert(#p.conflicts == 1)
    assert(c.entity == "ORG" and c.source == "user" and c.snippet == "Bob in")
    return "api"
end
`)
	arb, err := NewScriptArbiter(path)
	if err != nil {
		t.Fatal(err)
	}
	defer arb.Close()

	if _, err := arb.Decide(context.Background(), testPrompt(nil)); err != nil {
		t.Errorf("Decide() error = %v", err)
	}
}

func TestScriptArbiter_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := NewScriptArbiter(writeScript(t, dir, `x = 1`)); !errors.Is(err, ErrNoDecideFunc) {
		t.Errorf("err = %v, want ErrNoDecideFunc", err)
	}
	if _, err := NewScriptArbiter(writeScript(t, dir, `function decide(`)); err == nil {
		t.Error("syntax error should fail to load")
	}
	if _, err := NewScriptArbiter(filepath.Join(dir, "missing.lua")); err == nil {
		t.Error("missing script should fail to load")
	}

	tests := []struct {
		name    string
		script  string
		wantErr error
	}{
		{"nil result", `function decide(p) return nil end`, ErrNoDecision},
		{"unknown decision", `function decide(p) return "both" end`, reconcile.ErrInvalidDecision},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arb, err := NewScriptArbiter(writeScript(t, t.TempDir(), tt.script))
			if err != nil {
				t.Fatal(err)
			}
			defer arb.Close()

			_, err = arb.Decide(context.Background(), testPrompt(nil))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestScriptArbiter_WithResolver(t *testing.T) {
	path := writeScript(t, t.TempDir(), scoreScript)
	arb, err := NewScriptArbiter(path)
	if err != nil {
		t.Fatal(err)
	}
	defer arb.Close()

	high := 0.99
	incoming := span.NewSpan(9, 12, "PER", span.OriginAPI)
	incoming.Score = &high

	res, err := reconcile.Resolve(context.Background(), reconcile.Input{
		Text:      "Anna met Bob in Prague last May.",
		Incoming:  []span.Span{incoming},
		UserSpans: []span.Span{span.NewSpan(9, 15, "ORG", span.OriginUser)},
	}, arb)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(res.UserSpans) != 0 || len(res.APISpans) != 1 || res.ConflictsHandled != 1 {
		t.Errorf("Resolve() = %+v", res)
	}
}

func TestScriptArbiter_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, `function decide(p) return "existing" end`)
	arb, err := NewScriptArbiter(path)
	if err != nil {
		t.Fatal(err)
	}
	defer arb.Close()

	writeScript(t, dir, `function decide(p) return "api" end`)
	if err := arb.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got, _ := arb.Decide(context.Background(), testPrompt(nil)); got != reconcile.AcceptAPI {
		t.Errorf("after reload Decide() = %q, want api", got)
	}

	// A broken script keeps the previous one active.
	writeScript(t, dir, `function decide(`)
	if err := arb.Reload(); err == nil {
		t.Error("Reload() of broken script should fail")
	}
	if got, _ := arb.Decide(context.Background(), testPrompt(nil)); got != reconcile.AcceptAPI {
		t.Errorf("after failed reload Decide() = %q, want api", got)
	}
}

func TestScriptWatcher(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, `function decide(p) return "existing" end`)
	arb, err := NewScriptArbiter(path)
	if err != nil {
		t.Fatal(err)
	}
	defer arb.Close()

	w, err := arb.Watch(10 * time.Millisecond)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	reloaded := make(chan error, 4)
	w.OnReload(func(err error) { reloaded <- err })

	// Replace the file the way editors do.
	tmp := filepath.Join(dir, "decide.lua.new")
	if err := os.WriteFile(tmp, []byte(`function decide(p) return "api" end`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case err := <-reloaded:
			done = err == nil
		case <-deadline:
			t.Fatal("script was not reloaded")
		}
	}

	if got, _ := arb.Decide(context.Background(), testPrompt(nil)); got != reconcile.AcceptAPI {
		t.Errorf("Decide() = %q, want api", got)
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
