package lua

import (
	"context"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/spanstorm/internal/engine/reconcile"
)

// decideFunc is the global a script must define.
const decideFunc = "decide"

// ScriptArbiter implements reconcile.Arbiter by calling a Lua script.
type ScriptArbiter struct {
	path      string
	logger    *zap.Logger
	stateOpts []StateOption

	// mu serializes Decide, which builds tables on the state outside
	// the state's own lock.
	mu    sync.Mutex
	state *State
}

// ArbiterOption configures a ScriptArbiter.
type ArbiterOption func(*ScriptArbiter)

// WithArbiterLogger sets the logger for reloads and script output.
func WithArbiterLogger(l *zap.Logger) ArbiterOption {
	return func(a *ScriptArbiter) {
		a.logger = l
	}
}

// WithStateOptions passes options to every State the arbiter creates.
func WithStateOptions(opts ...StateOption) ArbiterOption {
	return func(a *ScriptArbiter) {
		a.stateOpts = append(a.stateOpts, opts...)
	}
}

// NewScriptArbiter loads the script at path.
func NewScriptArbiter(path string, opts ...ArbiterOption) (*ScriptArbiter, error) {
	a := &ScriptArbiter{
		path:   path,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	state, err := a.load()
	if err != nil {
		return nil, err
	}
	a.state = state
	return a, nil
}

// Path returns the script path.
func (a *ScriptArbiter) Path() string {
	return a.path
}

// load creates a fresh state running the script.
func (a *ScriptArbiter) load() (*State, error) {
	opts := append([]StateOption{WithLogger(a.logger)}, a.stateOpts...)
	state := NewState(opts...)

	if err := state.DoFile(a.path); err != nil {
		state.Close()
		return nil, fmt.Errorf("loading %s: %w", a.path, err)
	}
	if state.GetGlobal(decideFunc).Type() != lua.LTFunction {
		state.Close()
		return nil, fmt.Errorf("%w: %s", ErrNoDecideFunc, a.path)
	}
	return state, nil
}

// Reload re-reads the script. On failure the previous script stays active.
func (a *ScriptArbiter) Reload() error {
	state, err := a.load()
	if err != nil {
		a.logger.Warn("script reload failed", zap.String("path", a.path), zap.Error(err))
		return err
	}

	a.mu.Lock()
	old := a.state
	a.state = state
	a.mu.Unlock()

	if old != nil {
		old.Close()
	}
	a.logger.Info("script reloaded", zap.String("path", a.path))
	return nil
}

// Decide implements reconcile.Arbiter.
func (a *ScriptArbiter) Decide(ctx context.Context, p reconcile.Prompt) (reconcile.Decision, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == nil {
		return "", ErrStateClosed
	}

	arg := NewBridge(a.state.L).PromptTable(p)
	results, err := a.state.Call(ctx, decideFunc, arg)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", decideFunc, err)
	}
	if len(results) == 0 || results[0].Type() != lua.LTString {
		return "", ErrNoDecision
	}

	d, err := reconcile.ParseDecision(results[0].String())
	if err != nil {
		return "", err
	}
	a.logger.Debug("script decision",
		zap.Int("index", p.Index),
		zap.Int("total", p.Total),
		zap.String("candidate", p.Candidate.Span.String()),
		zap.String("decision", string(d)))
	return d, nil
}

// Close releases the active state.
func (a *ScriptArbiter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == nil {
		return nil
	}
	err := a.state.Close()
	a.state = nil
	return err
}
