package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/dshills/spanstorm/internal/analysis"
	"github.com/dshills/spanstorm/internal/config"
	"github.com/dshills/spanstorm/internal/engine"
	"github.com/dshills/spanstorm/internal/engine/coord"
	"github.com/dshills/spanstorm/internal/engine/reconcile"
	"github.com/dshills/spanstorm/internal/engine/span"
	"github.com/dshills/spanstorm/internal/engine/transform"
	"github.com/dshills/spanstorm/internal/logging"
	"github.com/dshills/spanstorm/internal/plugin/lua"
	"github.com/dshills/spanstorm/internal/workspace"
)

// newFlagSet returns a flag set for a subcommand with the shared
// -workspace flag registered.
func (c *cli) newFlagSet(name string, wsPath *string) *flag.FlagSet {
	fs := flag.NewFlagSet("spanstorm "+name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.StringVar(wsPath, "workspace", "", "Path to the workspace file (required)")
	fs.StringVar(wsPath, "w", "", "Path to the workspace file (shorthand)")
	return fs
}

// parse parses args and checks required string flags.
func parse(fs *flag.FlagSet, args []string, required map[string]*string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	for name, v := range required {
		if *v == "" {
			fmt.Fprintf(fs.Output(), "missing required flag -%s\n", name)
			fs.Usage()
			return errUsage
		}
	}
	return nil
}

// open loads a workspace and builds an engine over it.
func (c *cli) open(path string) (*workspace.Workspace, *engine.Engine, error) {
	ws, err := workspace.Load(path)
	if err != nil {
		return nil, nil, err
	}

	e := engine.New(
		engine.WithDocument(ws.Document()),
		engine.WithNewlineUnit(c.cfg.Engine.NewlineUnit),
		engine.WithInsertPolicy(c.cfg.InsertPolicy()),
		engine.WithLogger(c.logger),
	)
	if err := e.SetSpans(ws.UserSpans, ws.APISpans); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := e.SetSegments(ws.Segments); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return ws, e, nil
}

// save copies the engine's collections back into ws and writes it.
func save(ws *workspace.Workspace, e *engine.Engine, path string) error {
	ws.UserSpans = e.UserSpans()
	ws.APISpans = e.APISpans()
	ws.Segments = e.Segments()
	return ws.Save(path)
}

func runReconcile(ctx context.Context, c *cli, args []string) error {
	var wsPath, incomingPath string
	arbiterMode := c.cfg.Reconcile.Arbiter
	script := c.cfg.Reconcile.Script

	fs := c.newFlagSet("reconcile", &wsPath)
	fs.StringVar(&incomingPath, "incoming", "", "Path to an analysis response (required)")
	fs.StringVar(&arbiterMode, "arbiter", arbiterMode, "Conflict arbiter: ask, existing, api or lua")
	fs.StringVar(&script, "script", script, "Lua arbiter script")
	if err := parse(fs, args, map[string]*string{"workspace": &wsPath, "incoming": &incomingPath}); err != nil {
		return err
	}

	body, err := os.ReadFile(incomingPath)
	if err != nil {
		return fmt.Errorf("reading analysis response: %w", err)
	}
	incoming, err := analysis.DecodeEntities(body, span.OriginAPI)
	if err != nil {
		return fmt.Errorf("%s: %w", incomingPath, err)
	}

	ws, e, err := c.open(wsPath)
	if err != nil {
		return err
	}

	arbiter, closeArbiter, err := c.arbiter(ctx, arbiterMode, script)
	if err != nil {
		return err
	}
	defer closeArbiter()

	res, resolveErr := e.Reconcile(ctx, incoming, arbiter)
	if errors.Is(resolveErr, engine.ErrStale) {
		return resolveErr
	}
	if err := save(ws, e, wsPath); err != nil {
		return err
	}

	fmt.Fprintf(c.stdout, "%d incoming, %d conflicts decided, %d user spans, %d api spans\n",
		len(incoming), res.ConflictsHandled, len(res.UserSpans), len(res.APISpans))
	if resolveErr != nil {
		return fmt.Errorf("reconcile stopped early, decisions so far were saved: %w", resolveErr)
	}
	return nil
}

// arbiter builds the arbiter for mode. The returned func releases it.
func (c *cli) arbiter(ctx context.Context, mode, script string) (reconcile.Arbiter, func(), error) {
	noop := func() {}
	switch mode {
	case config.ArbiterAsk:
		a := newAskArbiter(c.stdin, c.stdout)
		return a, a.stop, nil
	case config.ArbiterExisting:
		return reconcile.Fixed(reconcile.KeepExisting), noop, nil
	case config.ArbiterAPI:
		return reconcile.Fixed(reconcile.AcceptAPI), noop, nil
	case config.ArbiterLua:
		if script == "" {
			return nil, nil, errors.New("the lua arbiter needs a script")
		}
	default:
		return nil, nil, fmt.Errorf("unknown arbiter %q", mode)
	}

	logger := logging.L(ctx).Named("lua")
	a, err := lua.NewScriptArbiter(script, lua.WithArbiterLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	if !c.cfg.Reconcile.WatchScript {
		return a, func() { a.Close() }, nil
	}

	w, err := a.Watch(lua.DefaultReloadDelay)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	w.OnReload(func(err error) {
		if err != nil {
			logger.Warn("script reload failed, keeping previous version",
				zap.String("path", a.Path()), zap.Error(err))
		}
	})
	return a, func() {
		w.Close()
		a.Close()
	}, nil
}

func runSplit(ctx context.Context, c *cli, args []string) error {
	var wsPath, id string
	var at int
	fs := c.newFlagSet("split", &wsPath)
	fs.StringVar(&id, "segment", "", "Segment id (required)")
	fs.IntVar(&at, "at", -1, "Offset to split at (required)")
	if err := parse(fs, args, map[string]*string{"workspace": &wsPath, "segment": &id}); err != nil {
		return err
	}
	if at < 0 {
		fmt.Fprintln(c.stderr, "missing required flag -at")
		fs.Usage()
		return errUsage
	}

	ws, e, err := c.open(wsPath)
	if err != nil {
		return err
	}
	ok, err := e.SplitSegment(id, at)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("offset %d is not inside segment %s", at, id)
	}
	if err := save(ws, e, wsPath); err != nil {
		return err
	}
	logging.L(ctx).Debug("saved workspace", zap.String("path", wsPath))
	printSegments(c, e.Segments())
	return nil
}

func runJoin(ctx context.Context, c *cli, args []string) error {
	var wsPath, first, second string
	fs := c.newFlagSet("join", &wsPath)
	fs.StringVar(&first, "first", "", "Id of the first segment (required)")
	fs.StringVar(&second, "second", "", "Id of the following segment (required)")
	if err := parse(fs, args, map[string]*string{"workspace": &wsPath, "first": &first, "second": &second}); err != nil {
		return err
	}

	ws, e, err := c.open(wsPath)
	if err != nil {
		return err
	}
	if !e.JoinSegments(first, second) {
		return fmt.Errorf("segments %s and %s are not consecutive", first, second)
	}
	if err := save(ws, e, wsPath); err != nil {
		return err
	}
	logging.L(ctx).Debug("saved workspace", zap.String("path", wsPath))
	printSegments(c, e.Segments())
	return nil
}

func runEdit(ctx context.Context, c *cli, args []string) error {
	var wsPath, textPath string
	fs := c.newFlagSet("edit", &wsPath)
	fs.StringVar(&textPath, "text", "", "File holding the new document text (required)")
	if err := parse(fs, args, map[string]*string{"workspace": &wsPath, "text": &textPath}); err != nil {
		return err
	}

	data, err := os.ReadFile(textPath)
	if err != nil {
		return fmt.Errorf("reading new text: %w", err)
	}
	newText := string(data)

	ws, e, err := c.open(wsPath)
	if err != nil {
		return err
	}
	ops := transform.OpsFromDiff(e.Text(), newText)
	changed := e.ApplyBatch(engine.Batch{Ops: ops, Document: coord.FromText(newText)})
	ws.SetText(newText)
	if err := save(ws, e, wsPath); err != nil {
		return err
	}

	logging.L(ctx).Debug("applied edit", zap.Int("ops", len(ops)), zap.Bool("annotations_moved", changed))
	fmt.Fprintf(c.stdout, "%d operations, annotations moved: %t\n", len(ops), changed)
	return nil
}

func runLocate(_ context.Context, c *cli, args []string) error {
	var wsPath string
	offset := -1
	fs := c.newFlagSet("locate", &wsPath)
	fs.IntVar(&offset, "offset", -1, "Linear offset (required)")
	if err := parse(fs, args, map[string]*string{"workspace": &wsPath}); err != nil {
		return err
	}
	if offset < 0 {
		fmt.Fprintln(c.stderr, "missing required flag -offset")
		fs.Usage()
		return errUsage
	}

	_, e, err := c.open(wsPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.stdout, "point:   %s\n", e.Locate(offset))
	if s, ok := e.SpanAt(offset); ok {
		fmt.Fprintf(c.stdout, "span:    %s %q\n", s, span.Slice(e.Text(), s.Range))
	} else {
		fmt.Fprintln(c.stdout, "span:    none")
	}
	if seg, ok := e.SegmentAt(offset); ok {
		fmt.Fprintf(c.stdout, "segment: %s %s\n", seg.ID, seg.Range)
	} else {
		fmt.Fprintln(c.stdout, "segment: none")
	}
	return nil
}

func runTranslate(ctx context.Context, c *cli, args []string) error {
	var wsPath, id, lang, responsePath string
	fs := c.newFlagSet("translate", &wsPath)
	fs.StringVar(&id, "segment", "", "Segment id (required)")
	fs.StringVar(&lang, "lang", "", "Target language name (required)")
	fs.StringVar(&responsePath, "response", "", "Path to a translation response (required)")
	if err := parse(fs, args, map[string]*string{
		"workspace": &wsPath, "segment": &id, "lang": &lang, "response": &responsePath,
	}); err != nil {
		return err
	}

	if _, err := analysis.FloresCode(lang); err != nil {
		return err
	}
	body, err := os.ReadFile(responsePath)
	if err != nil {
		return fmt.Errorf("reading translation response: %w", err)
	}
	text, err := analysis.DecodeTranslation(body)
	if err != nil {
		return fmt.Errorf("%s: %w", responsePath, err)
	}

	ws, e, err := c.open(wsPath)
	if err != nil {
		return err
	}
	next, err := analysis.ApplyTranslation(e.Segments(), id, lang, text)
	if err != nil {
		return err
	}
	if err := e.SetSegments(next); err != nil {
		return err
	}
	if err := save(ws, e, wsPath); err != nil {
		return err
	}
	logging.L(ctx).Debug("stored translation", zap.String("segment", id), zap.String("lang", lang))
	return nil
}

func runPayload(_ context.Context, c *cli, args []string) error {
	var wsPath, id, lang, src string
	fs := c.newFlagSet("payload", &wsPath)
	fs.StringVar(&id, "segment", "", "Segment to translate; without it an entity request is printed")
	fs.StringVar(&lang, "lang", "", "Target language name for translation requests")
	fs.StringVar(&src, "src", "eng_Latn", "FLORES code of the source language")
	if err := parse(fs, args, map[string]*string{"workspace": &wsPath}); err != nil {
		return err
	}

	_, e, err := c.open(wsPath)
	if err != nil {
		return err
	}

	var body []byte
	if id == "" {
		body, err = analysis.EntityRequest(e.Text())
	} else {
		if lang == "" {
			fmt.Fprintln(c.stderr, "-segment requires -lang")
			fs.Usage()
			return errUsage
		}
		var tgt string
		tgt, err = analysis.FloresCode(lang)
		if err != nil {
			return err
		}
		seg, ok := findSegment(e.Segments(), id)
		if !ok {
			return fmt.Errorf("segment %s not found", id)
		}
		body, err = analysis.TranslateRequest(seg.Content(e.Text()), src, tgt)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, string(body))
	return nil
}

func findSegment(segments []span.Segment, id string) (span.Segment, bool) {
	i := span.IndexOf(segments, id)
	if i < 0 {
		return span.Segment{}, false
	}
	return segments[i], true
}

func printSegments(c *cli, segments []span.Segment) {
	for _, s := range segments {
		fmt.Fprintf(c.stdout, "%d %s %s\n", s.Order, s.ID, s.Range)
	}
}
