package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sceneminds/sceneminds/services/watch"
)

// WatchHandlers controls the filesystem and git watchers.
type WatchHandlers struct {
	files      *watch.FileWatcher
	git        *watch.GitWatcher
	extensions []string
	ignoreDirs []string
}

// NewWatchHandlers creates the watcher control handlers. The extension
// and ignore lists are echoed in status responses so clients can show
// what is being watched.
func NewWatchHandlers(files *watch.FileWatcher, git *watch.GitWatcher, extensions, ignoreDirs []string) *WatchHandlers {
	return &WatchHandlers{
		files:      files,
		git:        git,
		extensions: extensions,
		ignoreDirs: ignoreDirs,
	}
}

func startError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, watch.ErrRootMissing), errors.Is(err, watch.ErrNotARepository):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// HandleFileWatchStart serves POST /watcher/start.
func (h *WatchHandlers) HandleFileWatchStart(c *gin.Context) {
	var req WatchStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.files.Start(req.Path); err != nil {
		startError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "watching": req.Path})
}

// HandleFileWatchStop serves POST /watcher/stop.
func (h *WatchHandlers) HandleFileWatchStop(c *gin.Context) {
	h.files.Stop()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleFileWatchStatus serves GET /watcher/status.
func (h *WatchHandlers) HandleFileWatchStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"watching":            h.files.IsWatching(),
		"path":                h.files.Root(),
		"extensions":          h.extensions,
		"ignored_directories": h.ignoreDirs,
	})
}

// HandleGitWatchStart serves POST /gitwatcher/start.
func (h *WatchHandlers) HandleGitWatchStart(c *gin.Context) {
	var req WatchStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.git.Start(req.Path); err != nil {
		startError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "watching": req.Path})
}

// HandleGitWatchStop serves POST /gitwatcher/stop.
func (h *WatchHandlers) HandleGitWatchStop(c *gin.Context) {
	h.git.Stop()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleGitWatchStatus serves GET /gitwatcher/status.
func (h *WatchHandlers) HandleGitWatchStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"watching": h.git.IsWatching(),
		"path":     h.git.Root(),
	})
}
