package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sceneminds/sceneminds/services/realtime"
)

// EditorHandlers forwards editor REST requests through the command
// bridge to the host plugin.
type EditorHandlers struct {
	bridge *realtime.Bridge
}

// NewEditorHandlers creates the editor handler set.
func NewEditorHandlers(bridge *realtime.Bridge) *EditorHandlers {
	return &EditorHandlers{bridge: bridge}
}

// forward sends one action to the host and writes the correlated result,
// mapping bridge failures to distinct HTTP statuses so clients can tell
// "host gone" from "host slow".
func (h *EditorHandlers) forward(c *gin.Context, action string, data any) {
	result, err := h.bridge.Send(c.Request.Context(), action, data, 0)
	if err != nil {
		switch {
		case errors.Is(err, realtime.ErrHostNotConnected):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "editor not connected"})
		case errors.Is(err, realtime.ErrRequestTimeout):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "editor request timed out"})
		case errors.Is(err, realtime.ErrHostDisconnected):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled, editor disconnected"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// bindAndForward decodes the request body into req, then forwards it
// verbatim as the action payload.
func bindAndForward[T any](h *EditorHandlers, c *gin.Context, action string) {
	var req T
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.forward(c, action, req)
}

func (h *EditorHandlers) HandleCreateNode(c *gin.Context) {
	bindAndForward[CreateNodeRequest](h, c, "create_node")
}

func (h *EditorHandlers) HandleDeleteNode(c *gin.Context) {
	bindAndForward[DeleteNodeRequest](h, c, "delete_node")
}

func (h *EditorHandlers) HandleRenameNode(c *gin.Context) {
	bindAndForward[RenameNodeRequest](h, c, "rename_node")
}

func (h *EditorHandlers) HandleReparentNode(c *gin.Context) {
	bindAndForward[ReparentNodeRequest](h, c, "reparent_node")
}

func (h *EditorHandlers) HandleGetProperty(c *gin.Context) {
	bindAndForward[GetPropertyRequest](h, c, "get_property")
}

func (h *EditorHandlers) HandleSetProperty(c *gin.Context) {
	bindAndForward[SetPropertyRequest](h, c, "set_property")
}

func (h *EditorHandlers) HandleAttachResource(c *gin.Context) {
	bindAndForward[AttachResourceRequest](h, c, "attach_resource")
}

func (h *EditorHandlers) HandleCreateResource(c *gin.Context) {
	bindAndForward[CreateResourceRequest](h, c, "create_resource")
}

func (h *EditorHandlers) HandleSpawnGrid(c *gin.Context) {
	bindAndForward[SpawnGridRequest](h, c, "spawn_grid")
}

func (h *EditorHandlers) HandleSpawnRandom(c *gin.Context) {
	bindAndForward[SpawnRandomRequest](h, c, "spawn_random_in_area")
}

func (h *EditorHandlers) HandleSpawnAlongPath(c *gin.Context) {
	bindAndForward[SpawnAlongPathRequest](h, c, "spawn_along_path")
}

func (h *EditorHandlers) HandleGetSceneTree(c *gin.Context) {
	h.forward(c, "get_scene_tree", gin.H{})
}

func (h *EditorHandlers) HandleInstantiateScene(c *gin.Context) {
	bindAndForward[InstantiateSceneRequest](h, c, "instantiate_scene")
}

func (h *EditorHandlers) HandleSaveScene(c *gin.Context) {
	h.forward(c, "save_scene", gin.H{})
}

func (h *EditorHandlers) HandleAttachScript(c *gin.Context) {
	var req AttachScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// The host expects create_content, present even when empty.
	h.forward(c, "attach_script", gin.H{
		"node_path":      req.NodePath,
		"script_path":    req.ScriptPath,
		"create_content": req.ScriptContent,
	})
}

func (h *EditorHandlers) HandleConnectSignal(c *gin.Context) {
	bindAndForward[ConnectSignalRequest](h, c, "connect_signal")
}

func (h *EditorHandlers) HandleGetSelection(c *gin.Context) {
	h.forward(c, "get_selection", gin.H{})
}

func (h *EditorHandlers) HandleSetSelection(c *gin.Context) {
	bindAndForward[SetSelectionRequest](h, c, "set_selection")
}

func (h *EditorHandlers) HandleGetPendingChanges(c *gin.Context) {
	h.forward(c, "get_pending_changes", gin.H{})
}

func (h *EditorHandlers) HandleUndoLast(c *gin.Context) {
	h.forward(c, "undo_last", gin.H{})
}

func (h *EditorHandlers) HandleClearChanges(c *gin.Context) {
	h.forward(c, "clear_pending_changes", gin.H{})
}
