// Package watch ingests manuals and fault tables dropped into a folder.
//
// Files are ingested once they have been quiet for the settle delay, so a
// large copy produces one ingestion instead of one per write event.
// Removing a file removes the document of the same name.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
	"github.com/custodia-labs/troubleshoot/internal/logger"
)

// DefaultSettle is how long a file must be quiet before it is ingested.
const DefaultSettle = 500 * time.Millisecond

// ActionKind is what the watcher does with a file.
type ActionKind int

const (
	// ActionIngest (re)ingests the file.
	ActionIngest ActionKind = iota

	// ActionRemove drops the document named after the file.
	ActionRemove
)

// Action is a pending change for one path.
type Action struct {
	Kind ActionKind
	Path string
}

// Result reports the outcome of one action.
type Result struct {
	Action Action
	Report *driving.IngestReport
	Err    error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle sets the quiet period before a changed file is ingested.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithFilter restricts ingestion to names the filter accepts.
func WithFilter(accept func(name string) bool) Option {
	return func(w *Watcher) {
		if accept != nil {
			w.accept = accept
		}
	}
}

// WithInitialScan ingests files already present when Run starts.
func WithInitialScan(enabled bool) Option {
	return func(w *Watcher) {
		w.scan = enabled
	}
}

// WithResults receives the outcome of every action. The callback runs on
// the watcher goroutine.
func WithResults(fn func(Result)) Option {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// Watcher watches one directory, non-recursively.
type Watcher struct {
	dir      string
	ingest   driving.IngestService
	settle   time.Duration
	accept   func(string) bool
	scan     bool
	onResult func(Result)

	mu      sync.Mutex
	pending map[string]pendingAction
}

type pendingAction struct {
	kind ActionKind
	at   time.Time
}

// New creates a watcher for dir.
func New(dir string, ingest driving.IngestService, opts ...Option) *Watcher {
	w := &Watcher{
		dir:     dir,
		ingest:  ingest,
		settle:  DefaultSettle,
		accept:  func(string) bool { return true },
		pending: make(map[string]pendingAction),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: %w: not a directory", w.dir, domain.ErrInvalidArgument)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("Watching %s", w.dir)

	if w.scan {
		if err := w.initialScan(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if action := w.handleFsEvent(event); action != nil {
				w.queue(*action, time.Now())
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case now := <-ticker.C:
			for _, action := range w.due(now) {
				w.apply(ctx, action)
			}
		}
	}
}

// handleFsEvent maps an fsnotify event to an action, or nil to ignore it.
func (w *Watcher) handleFsEvent(event fsnotify.Event) *Action {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || !w.accept(name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &Action{Kind: ActionRemove, Path: event.Name}

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		return &Action{Kind: ActionIngest, Path: event.Name}

	default:
		return nil
	}
}

func (w *Watcher) initialScan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("scan %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !w.accept(e.Name()) {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		w.apply(ctx, Action{Kind: ActionIngest, Path: filepath.Join(w.dir, e.Name())})
	}
	return nil
}

// queue records the latest action for a path and restarts its settle timer.
func (w *Watcher) queue(action Action, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[action.Path] = pendingAction{kind: action.Kind, at: at}
}

// due removes and returns actions that have settled by now.
func (w *Watcher) due(now time.Time) []Action {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []Action
	for path, p := range w.pending {
		if now.Sub(p.at) >= w.settle {
			ready = append(ready, Action{Kind: p.kind, Path: path})
			delete(w.pending, path)
		}
	}
	return ready
}

func (w *Watcher) apply(ctx context.Context, action Action) {
	result := Result{Action: action}

	switch action.Kind {
	case ActionIngest:
		result.Report, result.Err = w.ingest.IngestFile(ctx, action.Path)
		if result.Err != nil {
			logger.Warn("Ingest %s failed: %v", action.Path, result.Err)
		} else {
			logger.Info("Ingested %s", action.Path)
		}

	case ActionRemove:
		err := w.ingest.RemoveDocument(ctx, filepath.Base(action.Path))
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			result.Err = err
			logger.Warn("Remove %s failed: %v", action.Path, err)
		}
	}

	if w.onResult != nil {
		w.onResult(result)
	}
}
