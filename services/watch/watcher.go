package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sceneminds/sceneminds/services/realtime"
)

// joinTimeout bounds how long Stop waits for the event goroutine.
const joinTimeout = 5 * time.Second

// Reindexer updates the retrieval index when source files change.
// The index implementation itself lives outside this package.
type Reindexer interface {
	// ReindexFile re-chunks and re-embeds one file, returning the number
	// of chunks written.
	ReindexFile(ctx context.Context, path string) (int, error)

	// RemoveFile drops a deleted file from the index.
	RemoveFile(ctx context.Context, path string) error
}

// Broadcaster delivers a push message to all subscribers.
type Broadcaster interface {
	Broadcast(msg any)
}

// Scheduler hands work from watcher goroutines to the owning dispatch
// goroutine. Submit reports whether the task was accepted.
type Scheduler interface {
	Submit(task func()) bool
}

// FileWatcherOptions configures a FileWatcher.
type FileWatcherOptions struct {
	// QuietPeriod is how long a burst must be silent before settling.
	QuietPeriod time.Duration

	// Extensions are the file suffixes worth reindexing, e.g. ".gd".
	Extensions []string

	// IgnoreDirs are path segments that disqualify a file, e.g. ".godot".
	IgnoreDirs []string

	// PendingCapacity bounds the set of files awaiting a settle.
	PendingCapacity int
}

// FileWatcher watches a project tree and reindexes changed source files.
//
// # Description
//
// One fsnotify goroutine per active watch receives raw OS events, filters
// them for relevance, and records survivors in a bounded pending set. A
// debouncer keyed by the watch root settles the burst; the settle task is
// handed to the Scheduler, which drains the pending set, reindexes each
// file, and broadcasts a file_changed message per file.
//
// # Lifecycle
//
// idle -> watching -> stopped. Start on an active watcher first stops the
// previous watch. Stop is idempotent.
type FileWatcher struct {
	indexer  Reindexer
	hub      Broadcaster
	sched    Scheduler
	opts     FileWatcherOptions
	debounce *Debouncer
	pending  *PendingChangeSet

	// lifecycle serializes Start and Stop against each other, so two
	// concurrent Starts cannot both arm a watch and orphan one of them.
	lifecycle sync.Mutex

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	root     string
	done     chan struct{}
	exited   chan struct{}
	watching bool
}

// NewFileWatcher creates a file watcher. Call Start to begin watching.
func NewFileWatcher(indexer Reindexer, hub Broadcaster, sched Scheduler, opts FileWatcherOptions) *FileWatcher {
	w := &FileWatcher{
		indexer: indexer,
		hub:     hub,
		sched:   sched,
		opts:    opts,
		pending: NewPendingChangeSet(opts.PendingCapacity),
	}
	w.debounce = NewDebouncer(opts.QuietPeriod, w.onSettle)
	return w
}

// Start begins watching root recursively.
//
// Fails with ErrRootMissing if root does not exist. If the watcher is
// already active the previous watch is fully stopped first, so at most
// one event goroutine exists per watcher. Any failure after the fsnotify
// watcher is created rolls it back; no partial state is left behind.
func (w *FileWatcher) Start(root string) error {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()
	w.stop()

	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving watch root: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("%w: %s", ErrRootMissing, abs)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	if err := addRecursive(watcher, abs, w.opts.IgnoreDirs); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", abs, err)
	}

	w.mu.Lock()
	w.watcher = watcher
	w.root = abs
	w.done = make(chan struct{})
	w.exited = make(chan struct{})
	w.watching = true
	w.mu.Unlock()

	go w.processEvents(watcher, abs, w.done, w.exited)

	slog.Info("Started file watcher", "root", abs)
	return nil
}

// Stop stops the active watch, cancels this watcher's pending debounce
// check, and waits (bounded) for the event goroutine to exit. Safe to
// call multiple times and on a never-started watcher.
func (w *FileWatcher) Stop() {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()
	w.stop()
}

func (w *FileWatcher) stop() {
	w.mu.Lock()
	if !w.watching {
		w.mu.Unlock()
		return
	}
	watcher := w.watcher
	root := w.root
	done := w.done
	exited := w.exited
	w.watcher = nil
	w.watching = false
	w.mu.Unlock()

	close(done)
	watcher.Close()
	w.debounce.Cancel(root)
	w.pending.Drain()

	select {
	case <-exited:
	case <-time.After(joinTimeout):
		slog.Warn("File watcher goroutine did not exit in time", "root", root)
	}

	slog.Info("Stopped file watcher", "root", root)
}

// IsWatching reports whether a watch is active.
func (w *FileWatcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

// Root returns the watched root, or "" when idle.
func (w *FileWatcher) Root() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.watching {
		return ""
	}
	return w.root
}

// processEvents is the per-watch event goroutine.
func (w *FileWatcher) processEvents(watcher *fsnotify.Watcher, root string, done, exited chan struct{}) {
	defer close(exited)

	for {
		select {
		case <-done:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(watcher, root, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", "root", root, "error", err)
		}
	}
}

func (w *FileWatcher) handleEvent(watcher *fsnotify.Watcher, root string, event fsnotify.Event) {
	// New directories must be added to the watch before relevance
	// filtering, or changes under them are never seen.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !ignored(event.Name, w.opts.IgnoreDirs) {
				if err := watcher.Add(event.Name); err != nil {
					slog.Debug("Failed to watch new directory", "path", event.Name, "error", err)
				}
			}
			return
		}
	}

	if !w.relevant(event.Name) {
		return
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		path := event.Name
		if !w.sched.Submit(func() {
			if err := w.indexer.RemoveFile(context.Background(), path); err != nil {
				slog.Warn("Failed to remove file from index", "path", path, "error", err)
			}
		}) {
			slog.Debug("Dropped index removal, dispatcher not running", "path", path)
		}
		return
	}

	w.pending.Record(event.Name)
	w.debounce.Record(root)
}

// relevant applies the extension and ignored-segment filters.
func (w *FileWatcher) relevant(path string) bool {
	if !slices.Contains(w.opts.Extensions, filepath.Ext(path)) {
		return false
	}
	return !ignored(path, w.opts.IgnoreDirs)
}

// onSettle runs on a debounce timer goroutine once the burst for root
// has been quiet long enough. The actual reindex and broadcast happen on
// the dispatch goroutine.
func (w *FileWatcher) onSettle(root string) {
	paths := w.pending.Drain()
	if len(paths) == 0 {
		return
	}

	if !w.sched.Submit(func() { w.reindexAndBroadcast(paths) }) {
		slog.Warn("Dropped settled file changes, dispatcher not running",
			"root", root,
			"files", len(paths))
	}
}

func (w *FileWatcher) reindexAndBroadcast(paths []string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			slog.Debug("Changed file no longer exists, skipping", "path", path)
			continue
		}

		chunks, err := w.indexer.ReindexFile(context.Background(), path)
		if err != nil {
			slog.Error("Failed to reindex file", "path", path, "error", err)
			continue
		}

		slog.Info("Reindexed file", "path", path, "chunks", chunks)
		w.hub.Broadcast(realtime.NewFileChanged(path, chunks))
	}
}

// ignored reports whether any path segment matches an ignored directory.
func ignored(path string, ignoreDirs []string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if slices.Contains(ignoreDirs, part) {
			return true
		}
	}
	return false
}

// addRecursive walks root and watches every non-ignored directory.
func addRecursive(watcher *fsnotify.Watcher, root string, ignoreDirs []string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep walking
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignored(path, ignoreDirs) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
