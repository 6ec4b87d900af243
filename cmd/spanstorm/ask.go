package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dshills/spanstorm/internal/engine/reconcile"
)

// errNoAnswer is returned when input ends before a conflict is decided.
var errNoAnswer = errors.New("input closed before the conflict was decided")

// askArbiter asks the person at the terminal about each conflict.
type askArbiter struct {
	in    io.Reader
	out   io.Writer
	once  sync.Once
	lines chan string

	stopOnce sync.Once
	done     chan struct{}

	// readerDone is closed when the reader goroutine exits.
	readerDone chan struct{}
}

func newAskArbiter(in io.Reader, out io.Writer) *askArbiter {
	return &askArbiter{
		in:         in,
		out:        out,
		lines:      make(chan string),
		done:       make(chan struct{}),
		readerDone: make(chan struct{}),
	}
}

// read feeds input lines to Decide. It starts on the first conflict so
// runs without conflicts never touch stdin.
func (a *askArbiter) read() {
	defer close(a.readerDone)
	defer close(a.lines)

	scanner := bufio.NewScanner(a.in)
	for scanner.Scan() {
		select {
		case a.lines <- scanner.Text():
		case <-a.done:
			return
		}
	}
}

// stop releases the reader. A reader blocked inside a read returns after
// the next line arrives.
func (a *askArbiter) stop() {
	a.stopOnce.Do(func() { close(a.done) })
}

// Decide implements reconcile.Arbiter.
func (a *askArbiter) Decide(ctx context.Context, p reconcile.Prompt) (reconcile.Decision, error) {
	a.once.Do(func() { go a.read() })

	fmt.Fprint(a.out, renderPrompt(p))
	for {
		fmt.Fprint(a.out, "Keep [e]xisting or accept [a]pi? ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(a.out)
			a.stop()
			return "", ctx.Err()
		case line, ok = <-a.lines:
		}
		if !ok {
			fmt.Fprintln(a.out)
			return "", errNoAnswer
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "e", "existing", "k", "keep":
			return reconcile.KeepExisting, nil
		case "a", "api", "accept":
			return reconcile.AcceptAPI, nil
		}
	}
}

func renderPrompt(p reconcile.Prompt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nConflict %d of %d\n", p.Index, p.Total)
	fmt.Fprintf(&b, "  incoming  %-8s %s %q\n", p.Candidate.Span.Entity, p.Candidate.Span.Range, p.Candidate.Snippet)
	for _, c := range p.Conflicts {
		fmt.Fprintf(&b, "  %-9s %-8s %s %q\n", c.Source, c.Span.Entity, c.Span.Range, c.Snippet)
	}
	return b.String()
}
