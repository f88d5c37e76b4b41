package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/sceneminds/sceneminds/services/realtime"
)

// reindexChunkSize approximates the chunking granularity of the real
// index backend so chunks_updated is meaningful to clients.
const reindexChunkSize = 2048

// chunkCountIndexer satisfies watch.Reindexer without a vector store
// attached. It reports how many chunks a file would produce; the actual
// embedding backend replaces it when one is configured.
type chunkCountIndexer struct{}

func (chunkCountIndexer) ReindexFile(ctx context.Context, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	chunks := int(info.Size()/reindexChunkSize) + 1
	slog.Debug("Index backend not configured, counted chunks only", "path", path, "chunks", chunks)
	return chunks, nil
}

func (chunkCountIndexer) RemoveFile(ctx context.Context, path string) error {
	slog.Debug("Index backend not configured, skipping removal", "path", path)
	return nil
}

// unconfiguredCompleter satisfies realtime.Completer when no model
// backend is set up; every request fails with a clear message.
type unconfiguredCompleter struct{}

func (unconfiguredCompleter) Complete(ctx context.Context, req realtime.CompletionRequest) (string, error) {
	return "", errors.New("completion backend not configured")
}
