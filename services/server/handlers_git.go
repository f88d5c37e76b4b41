package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sceneminds/sceneminds/services/gitstatus"
	"github.com/sceneminds/sceneminds/services/session"
)

// GitHandlers serves the git REST surface.
type GitHandlers struct {
	git      *gitstatus.Service
	sessions *session.Store
}

// NewGitHandlers creates the git handler set.
func NewGitHandlers(git *gitstatus.Service, sessions *session.Store) *GitHandlers {
	return &GitHandlers{git: git, sessions: sessions}
}

// HandleStatus serves GET /git/status. With a client_id query parameter
// the response is a delta against that client's previous snapshot; the
// first request (or an expired session) gets the full status flagged
// is_full_refresh.
func (h *GitHandlers) HandleStatus(c *gin.Context) {
	status, err := h.git.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	clientID := c.Query("client_id")
	if clientID == "" {
		c.JSON(http.StatusOK, status)
		return
	}

	previous, ok := h.sessions.Get(clientID)
	h.sessions.Put(clientID, status)

	if !ok {
		c.JSON(http.StatusOK, gitstatus.FullRefreshDelta(status))
		return
	}
	c.JSON(http.StatusOK, gitstatus.CalculateDelta(status, previous))
}

// HandleDiff serves GET /git/diff?file=.
func (h *GitHandlers) HandleDiff(c *gin.Context) {
	file := c.Query("file")
	if file == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file query parameter is required"})
		return
	}

	diff, err := h.git.Diff(c.Request.Context(), file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, diff)
}

// HandleAdd serves POST /git/add.
func (h *GitHandlers) HandleAdd(c *gin.Context) {
	var req GitAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.git.Add(c.Request.Context(), req.Files); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Staged %d file(s)", len(req.Files)),
	})
}

// HandleRestore serves POST /git/restore (unstage).
func (h *GitHandlers) HandleRestore(c *gin.Context) {
	var req GitRestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.git.Unstage(c.Request.Context(), req.Files); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Unstaged %d file(s)", len(req.Files)),
	})
}

// HandleCommit serves POST /git/commit.
func (h *GitHandlers) HandleCommit(c *gin.Context) {
	var req GitCommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hash, err := h.git.Commit(c.Request.Context(), req.Message, req.Files)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     hash,
		"commit_hash": hash,
	})
}

// HandleBranches serves GET /git/branches.
func (h *GitHandlers) HandleBranches(c *gin.Context) {
	branches, err := h.git.Branches(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var current string
	for _, b := range branches {
		if b.IsCurrent {
			current = b.Name
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"branches":       branches,
		"current_branch": current,
	})
}

// HandleCheckout serves POST /git/checkout.
func (h *GitHandlers) HandleCheckout(c *gin.Context) {
	var req GitCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.git.Checkout(c.Request.Context(), req.Branch, req.CreateNew); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Checked out branch: " + req.Branch,
		"branch":  req.Branch,
	})
}

// HandleLog serves GET /git/log?max_count=.
func (h *GitHandlers) HandleLog(c *gin.Context) {
	maxCount := 20
	if v := c.Query("max_count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_count must be between 1 and 100"})
			return
		}
		maxCount = n
	}

	commits, err := h.git.Log(c.Request.Context(), maxCount)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"commits": commits})
}
