package lua

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultReloadDelay coalesces bursts of writes from editors.
const DefaultReloadDelay = 100 * time.Millisecond

// ScriptWatcher reloads a ScriptArbiter when its script file changes.
type ScriptWatcher struct {
	arbiter *ScriptArbiter
	target  string
	delay   time.Duration
	logger  *zap.Logger

	watcher *fsnotify.Watcher

	mu       sync.Mutex
	timer    *time.Timer
	onReload func(error)
	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// Watch starts reloading the script whenever it is written, created or
// renamed into place. The script's directory is watched so editors that
// replace the file are handled. delay <= 0 uses DefaultReloadDelay.
func (a *ScriptArbiter) Watch(delay time.Duration) (*ScriptWatcher, error) {
	if delay <= 0 {
		delay = DefaultReloadDelay
	}

	target, err := filepath.Abs(a.path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(target)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &ScriptWatcher{
		arbiter: a,
		target:  target,
		delay:   delay,
		logger:  a.logger,
		watcher: fsw,
		closeCh: make(chan struct{}),
	}

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// OnReload registers a callback invoked after every reload attempt with
// its result.
func (w *ScriptWatcher) OnReload(fn func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = fn
}

// Close stops watching.
func (w *ScriptWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	w.closedWg.Wait()
	return w.watcher.Close()
}

// processLoop handles incoming fsnotify events.
func (w *ScriptWatcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.target {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("script watcher error", zap.Error(err))
		}
	}
}

// schedule starts or restarts the reload timer.
func (w *ScriptWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.reload)
}

func (w *ScriptWatcher) reload() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	fn := w.onReload
	w.mu.Unlock()

	err := w.arbiter.Reload()
	if fn != nil {
		fn(err)
	}
}
