package gitstatus

import "strings"

// parsePorcelain parses `git status --porcelain=v1 -z -b` output.
//
// The first NUL-separated record is the branch header ("## main...").
// Each following record is "XY path" where X is the index state and Y
// the working-tree state. A path staged with further unstaged edits
// yields two entries, matching how the editor sidebar renders them.
// Rename records carry the original path as an extra NUL-separated
// field, which is skipped.
func parsePorcelain(out string) (branch string, files []FileStatus) {
	records := strings.Split(out, "\x00")

	skipNext := false
	for i, record := range records {
		if skipNext {
			skipNext = false
			continue
		}
		if record == "" {
			continue
		}

		if i == 0 && strings.HasPrefix(record, "## ") {
			branch = parseBranchHeader(record)
			continue
		}

		if len(record) < 4 {
			continue
		}
		index, tree := record[0], record[1]
		path := record[3:]

		// Renames ("R  new" followed by the old path record).
		if index == 'R' || tree == 'R' {
			skipNext = true
		}

		if index == '?' && tree == '?' {
			files = append(files, FileStatus{Path: path, Status: "??", Staged: false})
			continue
		}
		if index != ' ' {
			files = append(files, FileStatus{Path: path, Status: string(index), Staged: true})
		}
		if tree != ' ' {
			files = append(files, FileStatus{Path: path, Status: string(tree), Staged: false})
		}
	}
	return branch, files
}

// parseBranchHeader extracts the branch name from a "## " header.
// Detached HEAD renders as "## HEAD (no branch)".
func parseBranchHeader(record string) string {
	header := strings.TrimPrefix(record, "## ")
	if strings.HasPrefix(header, "HEAD") {
		return "HEAD (detached)"
	}
	// "main...origin/main [ahead 1]" -> "main"
	branch, _, _ := strings.Cut(header, "...")
	return branch
}

// CalculateDelta compares a fresh status against a client's previous
// one and returns only the differences. File identity is (path, staged);
// a status-code change for the same identity counts as changed.
func CalculateDelta(current, previous Status) Delta {
	type key struct {
		path   string
		staged bool
	}

	prev := make(map[key]FileStatus, len(previous.Files))
	for _, f := range previous.Files {
		prev[key{f.Path, f.Staged}] = f
	}

	delta := Delta{Branch: current.Branch}
	seen := make(map[key]bool, len(current.Files))

	for _, f := range current.Files {
		k := key{f.Path, f.Staged}
		seen[k] = true

		old, existed := prev[k]
		switch {
		case !existed:
			delta.Added = append(delta.Added, f)
		case old.Status != f.Status:
			delta.Changed = append(delta.Changed, f)
		default:
			delta.UnchangedCount++
		}
	}

	for _, f := range previous.Files {
		if !seen[key{f.Path, f.Staged}] {
			delta.Removed = append(delta.Removed, f)
		}
	}
	return delta
}

// FullRefreshDelta wraps a full status in delta form, used when a
// client has no cached baseline.
func FullRefreshDelta(status Status) Delta {
	return Delta{
		Branch:        status.Branch,
		Added:         status.Files,
		Removed:       []FileStatus{},
		Changed:       []FileStatus{},
		IsFullRefresh: true,
	}
}
