package server

import (
	"context"

	"github.com/sceneminds/sceneminds/services/gitstatus"
	"github.com/sceneminds/sceneminds/services/realtime"
)

// StatusSource adapts gitstatus.Service to the git watcher's refetch
// interface, converting domain status into the push-message payload.
type StatusSource struct {
	git *gitstatus.Service
}

// NewStatusSource wraps a git service.
func NewStatusSource(git *gitstatus.Service) *StatusSource {
	return &StatusSource{git: git}
}

// Status implements watch.StatusSource.
func (s *StatusSource) Status(ctx context.Context) (realtime.GitStatusData, error) {
	status, err := s.git.Status(ctx)
	if err != nil {
		return realtime.GitStatusData{}, err
	}

	files := make([]realtime.GitFileStatus, len(status.Files))
	for i, f := range status.Files {
		files[i] = realtime.GitFileStatus{
			Path:   f.Path,
			Status: f.Status,
			Staged: f.Staged,
		}
	}
	return realtime.GitStatusData{
		Branch:  status.Branch,
		Files:   files,
		IsClean: status.IsClean,
	}, nil
}
