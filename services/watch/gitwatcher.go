package watch

import (
	"context"
	"fmt"
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

// StatusSource recomputes working-tree status on demand. The status
// computation itself lives outside this package.
type StatusSource interface {
	Status(ctx context.Context) (realtime.GitStatusData, error)
}

// noiseSuffixes and noiseNames are working-tree files that change often
// without affecting git status.
var (
	noiseSuffixes = []string{".pyc", ".pyo", ".swp", ".tmp"}
	noiseNames    = []string{".DS_Store", "Thumbs.db"}
)

// GitWatcher watches a repository and broadcasts debounced status updates.
//
// A change to .git/index (stage/unstage/commit) or to any working-tree
// file counts as relevant; everything else under .git is plumbing noise
// and is dropped. On settle the watcher refetches status through its
// StatusSource and broadcasts a git_status_update message.
//
// Same lifecycle rules as FileWatcher: Start on an active watcher stops
// the previous watch, Stop is idempotent and bounded.
type GitWatcher struct {
	status   StatusSource
	hub      Broadcaster
	sched    Scheduler
	debounce *Debouncer

	// lifecycle serializes Start and Stop, same as FileWatcher.
	lifecycle sync.Mutex

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	root     string
	done     chan struct{}
	exited   chan struct{}
	watching bool
}

// NewGitWatcher creates a git watcher with the given quiet period.
func NewGitWatcher(status StatusSource, hub Broadcaster, sched Scheduler, quiet time.Duration) *GitWatcher {
	w := &GitWatcher{
		status: status,
		hub:    hub,
		sched:  sched,
	}
	w.debounce = NewDebouncer(quiet, w.onSettle)
	return w
}

// Start begins watching the repository at root.
//
// Fails with ErrRootMissing if root does not exist and ErrNotARepository
// if it has no .git directory. Rolls back the fsnotify watcher on any
// later failure.
func (w *GitWatcher) Start(root string) error {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()
	w.stop()

	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving repository root: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("%w: %s", ErrRootMissing, abs)
	}
	if _, err := os.Stat(filepath.Join(abs, ".git")); err != nil {
		return fmt.Errorf("%w: %s", ErrNotARepository, abs)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	// Watch the working tree plus .git itself so index writes are seen.
	if err := addRecursive(watcher, abs, []string{".git"}); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", abs, err)
	}
	if err := watcher.Add(filepath.Join(abs, ".git")); err != nil {
		watcher.Close()
		return fmt.Errorf("watching .git: %w", err)
	}

	w.mu.Lock()
	w.watcher = watcher
	w.root = abs
	w.done = make(chan struct{})
	w.exited = make(chan struct{})
	w.watching = true
	w.mu.Unlock()

	go w.processEvents(watcher, abs, w.done, w.exited)

	slog.Info("Started git watcher", "repo", abs)
	return nil
}

// Stop stops the active watch and cancels its pending debounce check.
// Safe to call multiple times.
func (w *GitWatcher) Stop() {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()
	w.stop()
}

func (w *GitWatcher) stop() {
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

	select {
	case <-exited:
	case <-time.After(joinTimeout):
		slog.Warn("Git watcher goroutine did not exit in time", "repo", root)
	}

	slog.Info("Stopped git watcher", "repo", root)
}

// IsWatching reports whether a watch is active.
func (w *GitWatcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

// Root returns the watched repository root, or "" when idle.
func (w *GitWatcher) Root() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.watching {
		return ""
	}
	return w.root
}

func (w *GitWatcher) processEvents(watcher *fsnotify.Watcher, root string, done, exited chan struct{}) {
	defer close(exited)

	for {
		select {
		case <-done:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				continue
			}
			if relevantToStatus(root, event.Name) {
				w.debounce.Record(root)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Git watcher error", "repo", root, "error", err)
		}
	}
}

// relevantToStatus reports whether a change to path can affect git status.
func relevantToStatus(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")

	// Index writes mean staging changed.
	if len(parts) == 2 && parts[0] == ".git" && parts[1] == "index" {
		return true
	}
	// Anything else under .git is plumbing.
	if slices.Contains(parts, ".git") {
		return false
	}

	base := filepath.Base(path)
	if slices.Contains(noiseNames, base) {
		return false
	}
	return !slices.Contains(noiseSuffixes, filepath.Ext(path))
}

func (w *GitWatcher) onSettle(root string) {
	if !w.sched.Submit(w.broadcastStatus) {
		slog.Warn("Dropped git status update, dispatcher not running", "repo", root)
	}
}

func (w *GitWatcher) broadcastStatus() {
	data, err := w.status.Status(context.Background())
	if err != nil {
		slog.Error("Failed to refetch git status", "error", err)
		return
	}

	w.hub.Broadcast(realtime.NewGitStatusUpdate(data))
	slog.Info("Broadcast git status update", "files", len(data.Files))
}
