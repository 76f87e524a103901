// Package watch hot-reloads JSON documents (rules, behavior trees) from
// disk.
//
// A watcher owns an fsnotify instance over a set of files. Each change
// is debounced, re-read and parsed; only a successfully parsed document
// reaches the registered callbacks, so consumers keep their previous
// state across broken edits. Callback registration returns an opaque
// token whose Close removes exactly that callback.
package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/calloway/automata-core/internal/value"
)

// debounceDelay coalesces the burst of write events editors and atomic
// saves produce for a single logical change.
const debounceDelay = 200 * time.Millisecond

// ChangeFunc receives the parsed document of a changed file.
type ChangeFunc func(path string, doc value.Value)

// ErrorFunc receives read or parse failures.
type ErrorFunc func(path string, err error)

// Logger is the logging interface the watcher needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Token identifies one registered callback. Close unregisters it.
type Token struct {
	w  *Watcher
	id uint64
}

// Close removes the callback this token was issued for. Closing twice
// is harmless.
func (t *Token) Close() {
	if t == nil || t.w == nil {
		return
	}
	t.w.mu.Lock()
	delete(t.w.onChange, t.id)
	delete(t.w.onError, t.id)
	t.w.mu.Unlock()
	t.w = nil
}

// Watcher watches JSON files and dispatches parsed documents on change.
//
// Thread Safety: all methods are safe for concurrent use.
type Watcher struct {
	mu       sync.Mutex
	files    map[string]struct{}
	onChange map[uint64]ChangeFunc
	onError  map[uint64]ErrorFunc
	nextID   uint64

	fsw     *fsnotify.Watcher
	pending map[string]*time.Timer
	done    chan struct{}
	wg      sync.WaitGroup
	started bool

	logger Logger
}

// New creates a watcher. Call Add for each file, then Start.
func New(logger Logger) (*Watcher, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	return &Watcher{
		files:    make(map[string]struct{}),
		onChange: make(map[uint64]ChangeFunc),
		onError:  make(map[uint64]ErrorFunc),
		fsw:      fsw,
		pending:  make(map[string]*time.Timer),
		done:     make(chan struct{}),
		logger:   logger,
	}, nil
}

// Add registers a file for watching.
func (w *Watcher) Add(path string) error {
	if err := w.fsw.Add(path); err != nil {
		return fmt.Errorf("watching %q: %w", path, err)
	}
	w.mu.Lock()
	w.files[path] = struct{}{}
	w.mu.Unlock()
	return nil
}

// OnChange registers a change callback and returns its removal token.
func (w *Watcher) OnChange(fn ChangeFunc) *Token {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	w.onChange[w.nextID] = fn
	return &Token{w: w, id: w.nextID}
}

// OnError registers an error callback and returns its removal token.
func (w *Watcher) OnError(fn ErrorFunc) *Token {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	w.onError[w.nextID] = fn
	return &Token{w: w, id: w.nextID}
}

// Start launches the event loop.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true
	w.wg.Add(1)
	go w.loop()
}

// Stop shuts the watcher down and joins the event loop.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		_ = w.fsw.Close()
		return
	}
	w.started = false
	close(w.done)
	w.mu.Unlock()

	w.wg.Wait()
	_ = w.fsw.Close()
}

// Reload forces an immediate re-read and dispatch of one file.
func (w *Watcher) Reload(path string) {
	w.dispatch(path)
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.debounce(ev.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// debounce schedules a dispatch, resetting any pending timer for the
// same path.
func (w *Watcher) debounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.dispatch(path)
	})
}

// dispatch reads and parses a file, fanning the document (or the error)
// out to the registered callbacks.
func (w *Watcher) dispatch(path string) {
	doc, err := readDocument(path)

	w.mu.Lock()
	changeFns := make([]ChangeFunc, 0, len(w.onChange))
	for _, fn := range w.onChange {
		changeFns = append(changeFns, fn)
	}
	errorFns := make([]ErrorFunc, 0, len(w.onError))
	for _, fn := range w.onError {
		errorFns = append(errorFns, fn)
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("config reload failed", "path", path, "error", err)
		for _, fn := range errorFns {
			fn(path, err)
		}
		return
	}

	w.logger.Info("config reloaded", "path", path)
	for _, fn := range changeFns {
		fn(path, doc)
	}
}

func readDocument(path string) (value.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return value.Null(), fmt.Errorf("reading %q: %w", path, err)
	}
	var doc value.Value
	if err := json.Unmarshal(data, &doc); err != nil {
		return value.Null(), fmt.Errorf("parsing %q: %w", path, err)
	}
	return doc, nil
}
