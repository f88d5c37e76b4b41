package gitstatus

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	// statusCacheTTL bounds how stale a cached status may be. Status is
	// refetched constantly by polling clients and the git watcher; two
	// seconds of staleness is invisible next to human-scale edits.
	statusCacheTTL = 2 * time.Second

	// maxDiffFileSize guards the diff endpoint against huge files.
	maxDiffFileSize = 10 * 1024 * 1024
)

// Service runs git operations against one repository root.
//
// Safe for concurrent use; the status cache is mutex-guarded and git
// subprocesses are independent.
type Service struct {
	root string

	mu       sync.Mutex
	cached   *Status
	cachedAt time.Time
}

// New creates a service for the repository at root. Fails with
// ErrNotARepository if root is not version-controlled.
func New(root string) (*Service, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving repository root: %w", err)
	}
	if _, err := os.Stat(filepath.Join(abs, ".git")); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, abs)
	}
	return &Service{root: abs}, nil
}

// Root returns the repository root.
func (s *Service) Root() string { return s.root }

// git runs one git subcommand and returns its stdout.
func (s *Service) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.root

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return stdout.String(), nil
}

// Status returns working-tree status, served from cache when fresh.
func (s *Service) Status(ctx context.Context) (Status, error) {
	s.mu.Lock()
	if s.cached != nil && time.Since(s.cachedAt) < statusCacheTTL {
		status := *s.cached
		s.mu.Unlock()
		return status, nil
	}
	s.mu.Unlock()

	status, err := s.fetchStatus(ctx)
	if err != nil {
		return Status{}, err
	}

	s.mu.Lock()
	s.cached = &status
	s.cachedAt = time.Now()
	s.mu.Unlock()

	return status, nil
}

// InvalidateCache drops the cached status after a status-changing
// operation. Read-only operations (log, branches, diff) keep the cache.
func (s *Service) InvalidateCache(operation string) {
	switch operation {
	case "add", "commit", "restore", "checkout", "reset", "revert", "unknown":
		s.mu.Lock()
		s.cached = nil
		s.mu.Unlock()
	}
}

func (s *Service) fetchStatus(ctx context.Context) (Status, error) {
	out, err := s.git(ctx, "status", "--porcelain=v1", "-z", "-b")
	if err != nil {
		return Status{}, err
	}
	branch, files := parsePorcelain(out)
	return Status{
		Branch:  branch,
		Files:   files,
		IsClean: len(files) == 0,
	}, nil
}

// Diff returns HEAD vs working-tree content for one file plus the
// unified diff text.
func (s *Service) Diff(ctx context.Context, filePath string) (Diff, error) {
	// HEAD version; empty for files not yet committed.
	original, err := s.git(ctx, "show", "HEAD:"+filePath)
	if err != nil {
		original = ""
	}

	var current string
	full := filepath.Join(s.root, filePath)
	if info, err := os.Stat(full); err == nil {
		if info.Size() > maxDiffFileSize {
			return Diff{}, fmt.Errorf("file too large for diff: %s (%d bytes)", filePath, info.Size())
		}
		raw, err := os.ReadFile(full)
		if err != nil {
			return Diff{}, fmt.Errorf("reading %s: %w", filePath, err)
		}
		if utf8.Valid(raw) {
			current = string(raw)
		} else {
			current = "[Binary file - cannot display content]"
		}
	}

	diffText, err := s.git(ctx, "diff", "HEAD", "--", filePath)
	if err != nil {
		diffText = ""
	}

	return Diff{
		FilePath:        filePath,
		OriginalContent: original,
		NewContent:      current,
		DiffText:        diffText,
	}, nil
}

// Add stages the given files.
func (s *Service) Add(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, files...)
	if _, err := s.git(ctx, args...); err != nil {
		return err
	}
	s.InvalidateCache("add")
	return nil
}

// Unstage removes the given files from the index (git restore --staged).
func (s *Service) Unstage(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"restore", "--staged", "--"}, files...)
	if _, err := s.git(ctx, args...); err != nil {
		return err
	}
	s.InvalidateCache("restore")
	return nil
}

// Commit creates a commit from the staged changes, optionally staging
// files first, and returns the new commit hash.
func (s *Service) Commit(ctx context.Context, message string, files []string) (string, error) {
	if len(files) > 0 {
		if err := s.Add(ctx, files); err != nil {
			return "", err
		}
	}
	if _, err := s.git(ctx, "commit", "-m", message); err != nil {
		return "", err
	}
	hash, err := s.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	s.InvalidateCache("commit")
	return strings.TrimSpace(hash), nil
}

// Branches lists local branches.
func (s *Service) Branches(ctx context.Context) ([]Branch, error) {
	out, err := s.git(ctx, "branch", "--format=%(refname:short)\t%(HEAD)")
	if err != nil {
		return nil, err
	}

	var branches []Branch
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, marker, _ := strings.Cut(line, "\t")
		branches = append(branches, Branch{
			Name:      name,
			IsCurrent: marker == "*",
		})
	}
	return branches, nil
}

// Checkout switches to branch, optionally creating it first.
func (s *Service) Checkout(ctx context.Context, branch string, createNew bool) error {
	args := []string{"checkout"}
	if createNew {
		args = append(args, "-b")
	}
	args = append(args, branch)
	if _, err := s.git(ctx, args...); err != nil {
		return err
	}
	s.InvalidateCache("checkout")
	return nil
}

// Log returns up to maxCount commits, newest first.
func (s *Service) Log(ctx context.Context, maxCount int) ([]CommitInfo, error) {
	out, err := s.git(ctx, "log",
		fmt.Sprintf("--max-count=%d", maxCount),
		"--pretty=format:%H%x00%s%x00%an <%ae>%x00%aI%x01")
	if err != nil {
		return nil, err
	}

	var commits []CommitInfo
	for _, record := range strings.Split(out, "\x01") {
		record = strings.TrimLeft(record, "\n")
		if record == "" {
			continue
		}
		parts := strings.SplitN(record, "\x00", 4)
		if len(parts) != 4 {
			continue
		}
		commits = append(commits, CommitInfo{
			Hash:      parts[0],
			ShortHash: shortHash(parts[0]),
			Message:   parts[1],
			Author:    parts[2],
			Date:      parts[3],
		})
	}
	return commits, nil
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
