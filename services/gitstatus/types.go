// Package gitstatus computes working-tree status and runs staging,
// commit, branch, and history operations by shelling out to the git CLI.
//
// Status fetches are cached for a short TTL; mutating operations
// invalidate the cache so the next fetch is fresh.
package gitstatus

import "errors"

// ErrNotARepository is returned by New when the root has no .git.
var ErrNotARepository = errors.New("not a git repository")

// FileStatus is one changed path in the working tree or index.
type FileStatus struct {
	Path   string `json:"path"`
	Status string `json:"status"`
	Staged bool   `json:"staged"`
}

// Status is the full working-tree status.
type Status struct {
	Branch  string       `json:"branch"`
	Files   []FileStatus `json:"files"`
	IsClean bool         `json:"is_clean"`
}

// Delta is a status response containing only what changed relative to a
// client's previously observed status.
type Delta struct {
	Branch         string       `json:"branch"`
	Added          []FileStatus `json:"added"`
	Removed        []FileStatus `json:"removed"`
	Changed        []FileStatus `json:"changed"`
	UnchangedCount int          `json:"unchanged_count"`
	IsFullRefresh  bool         `json:"is_full_refresh"`
}

// Diff is the per-file diff response.
type Diff struct {
	FilePath        string `json:"file_path"`
	OriginalContent string `json:"original_content"`
	NewContent      string `json:"new_content"`
	DiffText        string `json:"diff_text"`
	DiffCompressed  bool   `json:"diff_compressed,omitempty"`
}

// Branch is one local branch.
type Branch struct {
	Name      string `json:"name"`
	IsCurrent bool   `json:"is_current"`
}

// CommitInfo is one entry of the commit log.
type CommitInfo struct {
	Hash      string `json:"hash"`
	ShortHash string `json:"short_hash"`
	Message   string `json:"message"`
	Author    string `json:"author"`
	Date      string `json:"date"`
}
