package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sceneminds/sceneminds/services/gitstatus"
	"github.com/sceneminds/sceneminds/services/realtime"
	"github.com/sceneminds/sceneminds/services/session"
	"github.com/sceneminds/sceneminds/services/watch"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// echoHost answers every editor_action with a success result, simulating
// a connected editor plugin.
type echoHost struct {
	bridge *realtime.Bridge
}

func (h *echoHost) WriteJSON(v any) error {
	env, ok := v.(realtime.CommandEnvelope)
	if !ok {
		return nil
	}
	go h.bridge.Resolve(env.RequestID, map[string]any{
		"status": "success",
		"action": env.Action,
	})
	return nil
}

// silentHost accepts frames and never answers, forcing timeouts.
type silentHost struct{}

func (silentHost) WriteJSON(any) error { return nil }

func editorRouter(bridge *realtime.Bridge) *gin.Engine {
	router := gin.New()
	h := NewEditorHandlers(bridge)
	router.POST("/editor/node/create", h.HandleCreateNode)
	router.GET("/editor/scene/tree", h.HandleGetSceneTree)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func getJSON(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestEditorHandlerNoHost(t *testing.T) {
	bridge := realtime.NewBridge(time.Second)
	router := editorRouter(bridge)

	rec := postJSON(t, router, "/editor/node/create", gin.H{
		"parent_path": "/root",
		"node_class":  "Sprite2D",
		"node_name":   "Player",
	})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "editor not connected")
}

func TestEditorHandlerTimeout(t *testing.T) {
	bridge := realtime.NewBridge(30 * time.Millisecond)
	bridge.AttachHost(silentHost{})
	router := editorRouter(bridge)

	rec := getJSON(router, "/editor/scene/tree")

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "timed out")
}

func TestEditorHandlerForwardsAndReturnsResult(t *testing.T) {
	bridge := realtime.NewBridge(time.Second)
	bridge.AttachHost(&echoHost{bridge: bridge})
	router := editorRouter(bridge)

	rec := postJSON(t, router, "/editor/node/create", gin.H{
		"parent_path": "/root",
		"node_class":  "Sprite2D",
		"node_name":   "Player",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var result map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "success", result["status"])
	assert.Equal(t, "create_node", result["action"])
}

func TestEditorHandlerRejectsInvalidBody(t *testing.T) {
	bridge := realtime.NewBridge(time.Second)
	bridge.AttachHost(&echoHost{bridge: bridge})
	router := editorRouter(bridge)

	// node_name missing.
	rec := postJSON(t, router, "/editor/node/create", gin.H{
		"parent_path": "/root",
		"node_class":  "Sprite2D",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	root := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	run("init", "-b", "main")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test")
	require.NoError(t, os.WriteFile(filepath.Join(root, "player.gd"), []byte("extends Node\n"), 0o644))
	run("add", "player.gd")
	run("commit", "-m", "initial")

	return root
}

func gitRouter(t *testing.T, root string) *gin.Engine {
	t.Helper()
	svc, err := gitstatus.New(root)
	require.NoError(t, err)
	sessions := session.NewStore(session.Options{TTL: time.Minute, Cap: 10})

	router := gin.New()
	h := NewGitHandlers(svc, sessions)
	router.GET("/git/status", h.HandleStatus)
	router.GET("/git/diff", h.HandleDiff)
	router.GET("/git/log", h.HandleLog)
	router.POST("/git/add", h.HandleAdd)
	return router
}

func TestGitStatusFullAndDelta(t *testing.T) {
	root := initRepo(t)
	router := gitRouter(t, root)

	// Without client_id the full status is returned.
	rec := getJSON(router, "/git/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var status gitstatus.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "main", status.Branch)
	assert.True(t, status.IsClean)

	// First request with a client_id is a full refresh.
	rec = getJSON(router, "/git/status?client_id=editor-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var delta gitstatus.Delta
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &delta))
	assert.True(t, delta.IsFullRefresh)

	// The second request is a delta against the cached snapshot.
	rec = getJSON(router, "/git/status?client_id=editor-1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &delta))
	assert.False(t, delta.IsFullRefresh)
	assert.Empty(t, delta.Added)
}

func TestGitDiffRequiresFileParam(t *testing.T) {
	router := gitRouter(t, initRepo(t))

	rec := getJSON(router, "/git/diff")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGitLogBoundsMaxCount(t *testing.T) {
	router := gitRouter(t, initRepo(t))

	rec := getJSON(router, "/git/log?max_count=500")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = getJSON(router, "/git/log?max_count=5")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGitAddRequiresFiles(t *testing.T) {
	router := gitRouter(t, initRepo(t))

	rec := postJSON(t, router, "/git/add", gin.H{"files": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type noopIndexer struct{}

func (noopIndexer) ReindexFile(ctx context.Context, path string) (int, error) { return 0, nil }
func (noopIndexer) RemoveFile(ctx context.Context, path string) error         { return nil }

type noopScheduler struct{}

func (noopScheduler) Submit(task func()) bool {
	task()
	return true
}

func watchRouter(hub *realtime.Hub) (*gin.Engine, *watch.FileWatcher) {
	files := watch.NewFileWatcher(noopIndexer{}, hub, noopScheduler{}, watch.FileWatcherOptions{
		QuietPeriod:     100 * time.Millisecond,
		Extensions:      []string{".gd"},
		IgnoreDirs:      []string{".git"},
		PendingCapacity: 100,
	})
	git := watch.NewGitWatcher(nil, hub, noopScheduler{}, 100*time.Millisecond)

	router := gin.New()
	h := NewWatchHandlers(files, git, []string{".gd"}, []string{".git"})
	router.POST("/watcher/start", h.HandleFileWatchStart)
	router.POST("/watcher/stop", h.HandleFileWatchStop)
	router.GET("/watcher/status", h.HandleFileWatchStatus)
	router.POST("/gitwatcher/start", h.HandleGitWatchStart)
	return router, files
}

func TestWatcherStartMissingRoot(t *testing.T) {
	router, _ := watchRouter(realtime.NewHub(realtime.HubOptions{
		IdleTimeout:  time.Minute,
		ReapInterval: time.Minute,
	}))

	rec := postJSON(t, router, "/watcher/start", gin.H{"path": filepath.Join(t.TempDir(), "gone")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWatcherStartStopStatus(t *testing.T) {
	router, files := watchRouter(realtime.NewHub(realtime.HubOptions{
		IdleTimeout:  time.Minute,
		ReapInterval: time.Minute,
	}))
	defer files.Stop()

	root := t.TempDir()
	rec := postJSON(t, router, "/watcher/start", gin.H{"path": root})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = getJSON(router, "/watcher/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, true, status["watching"])

	rec = postJSON(t, router, "/watcher/stop", gin.H{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, files.IsWatching())
}

func TestGitWatcherStartNonRepo(t *testing.T) {
	router, _ := watchRouter(realtime.NewHub(realtime.HubOptions{
		IdleTimeout:  time.Minute,
		ReapInterval: time.Minute,
	}))

	rec := postJSON(t, router, "/gitwatcher/start", gin.H{"path": t.TempDir()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusSourceConversion(t *testing.T) {
	root := initRepo(t)
	svc, err := gitstatus.New(root)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "player.gd"), []byte("changed\n"), 0o644))

	data, err := NewStatusSource(svc).Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "main", data.Branch)
	assert.False(t, data.IsClean)
	require.Len(t, data.Files, 1)
	assert.Equal(t, "player.gd", data.Files[0].Path)
	assert.Equal(t, "M", data.Files[0].Status)
}

func TestHealthEndpoint(t *testing.T) {
	router := gin.New()
	router.GET("/health", handleHealth)

	rec := getJSON(router, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
