// Package watch monitors a project tree for filesystem and git working-tree
// changes, coalesces event bursts, and hands settled changes to the realtime
// layer for broadcast.
//
// Two watcher variants share the same debounce engine: FileWatcher reindexes
// changed source files, GitWatcher refetches working-tree status. Both own a
// single fsnotify event goroutine per active watch and never block it on
// downstream work.
package watch

import "errors"

// Sentinel errors for watcher lifecycle operations.
var (
	// ErrRootMissing is returned by Start when the watch root does not exist.
	ErrRootMissing = errors.New("watch root does not exist")

	// ErrNotARepository is returned by GitWatcher.Start when the root has
	// no .git directory.
	ErrNotARepository = errors.New("not a git repository")
)
