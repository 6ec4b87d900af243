package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dshills/spanstorm/internal/engine/reconcile"
	"github.com/dshills/spanstorm/internal/engine/span"
)

func testPrompt() reconcile.Prompt {
	return reconcile.Prompt{
		Candidate: reconcile.Candidate{Span: span.NewSpan(0, 8, "ORG", span.OriginAPI), Snippet: "Anna met"},
		Conflicts: []reconcile.Conflict{{Span: span.NewSpan(0, 4, "PER", span.OriginUser), Source: span.OriginUser, Snippet: "Anna"}},
		Index:     1,
		Total:     1,
	}
}

func TestAskArbiterAnswers(t *testing.T) {
	tests := []struct {
		input string
		want  reconcile.Decision
	}{
		{"e\n", reconcile.KeepExisting},
		{"keep\n", reconcile.KeepExisting},
		{" A \n", reconcile.AcceptAPI},
		{"what\napi\n", reconcile.AcceptAPI},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out strings.Builder
			a := newAskArbiter(strings.NewReader(tt.input), &out)
			defer a.stop()

			got, err := a.Decide(context.Background(), testPrompt())
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decide = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAskArbiterReaderExitsAfterCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pr.Close()

	a := newAskArbiter(pr, io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Decide(ctx, testPrompt()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Decide error = %v, want context.Canceled", err)
	}

	// Nobody receives this line any more; the reader must still return.
	if _, err := pw.Write([]byte("e\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case <-a.readerDone:
	case <-time.After(5 * time.Second):
		t.Fatal("reader goroutine did not exit after cancellation")
	}
}
