package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sceneminds/sceneminds/services/realtime"
)

// Handlers bundles every handler group the router needs.
type Handlers struct {
	Editor   *EditorHandlers
	Git      *GitHandlers
	Watch    *WatchHandlers
	Realtime *realtime.Handlers
}

// RegisterRoutes registers the full API with the given router group.
//
// Endpoints:
//
//	GET  /v1/health
//	GET  /v1/ws                     - subscriber websocket
//	GET  /v1/ws/editor              - host (editor plugin) websocket
//	POST /v1/editor/node/create|delete|rename|reparent
//	POST /v1/editor/property/get|set
//	POST /v1/editor/resource/attach|create
//	POST /v1/editor/spawn/grid|random|path
//	GET  /v1/editor/scene/tree
//	POST /v1/editor/scene/instantiate|save
//	POST /v1/editor/script/attach
//	POST /v1/editor/signal/connect
//	GET  /v1/editor/selection, POST /v1/editor/selection/set
//	GET  /v1/editor/changes, POST /v1/editor/undo|clear-changes
//	GET  /v1/git/status|diff|branches|log
//	POST /v1/git/add|restore|commit|checkout
//	POST /v1/watcher/start|stop, GET /v1/watcher/status
//	POST /v1/gitwatcher/start|stop, GET /v1/gitwatcher/status
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.GET("/health", handleHealth)

	rg.GET("/ws", h.Realtime.HandleSubscriber)
	rg.GET("/ws/editor", h.Realtime.HandleHost)

	editor := rg.Group("/editor")
	{
		editor.POST("/node/create", h.Editor.HandleCreateNode)
		editor.POST("/node/delete", h.Editor.HandleDeleteNode)
		editor.POST("/node/rename", h.Editor.HandleRenameNode)
		editor.POST("/node/reparent", h.Editor.HandleReparentNode)

		editor.POST("/property/get", h.Editor.HandleGetProperty)
		editor.POST("/property/set", h.Editor.HandleSetProperty)

		editor.POST("/resource/attach", h.Editor.HandleAttachResource)
		editor.POST("/resource/create", h.Editor.HandleCreateResource)

		editor.POST("/spawn/grid", h.Editor.HandleSpawnGrid)
		editor.POST("/spawn/random", h.Editor.HandleSpawnRandom)
		editor.POST("/spawn/path", h.Editor.HandleSpawnAlongPath)

		editor.GET("/scene/tree", h.Editor.HandleGetSceneTree)
		editor.POST("/scene/instantiate", h.Editor.HandleInstantiateScene)
		editor.POST("/scene/save", h.Editor.HandleSaveScene)

		editor.POST("/script/attach", h.Editor.HandleAttachScript)
		editor.POST("/signal/connect", h.Editor.HandleConnectSignal)

		editor.GET("/selection", h.Editor.HandleGetSelection)
		editor.POST("/selection/set", h.Editor.HandleSetSelection)

		editor.GET("/changes", h.Editor.HandleGetPendingChanges)
		editor.POST("/undo", h.Editor.HandleUndoLast)
		editor.POST("/clear-changes", h.Editor.HandleClearChanges)
	}

	git := rg.Group("/git")
	{
		git.GET("/status", h.Git.HandleStatus)
		git.GET("/diff", h.Git.HandleDiff)
		git.POST("/add", h.Git.HandleAdd)
		git.POST("/restore", h.Git.HandleRestore)
		git.POST("/commit", h.Git.HandleCommit)
		git.GET("/branches", h.Git.HandleBranches)
		git.POST("/checkout", h.Git.HandleCheckout)
		git.GET("/log", h.Git.HandleLog)
	}

	watcher := rg.Group("/watcher")
	{
		watcher.POST("/start", h.Watch.HandleFileWatchStart)
		watcher.POST("/stop", h.Watch.HandleFileWatchStop)
		watcher.GET("/status", h.Watch.HandleFileWatchStatus)
	}

	gitWatcher := rg.Group("/gitwatcher")
	{
		gitWatcher.POST("/start", h.Watch.HandleGitWatchStart)
		gitWatcher.POST("/stop", h.Watch.HandleGitWatchStop)
		gitWatcher.GET("/status", h.Watch.HandleGitWatchStatus)
	}
}

// RegisterMetrics exposes the Prometheus scrape endpoint on the root
// router, outside the /v1 group.
func RegisterMetrics(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
