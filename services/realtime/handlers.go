package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Completer produces inline code completions. The model backend lives
// outside this package.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is the cursor context for one completion.
type CompletionRequest struct {
	FilePath     string `json:"file_path"`
	FileContent  string `json:"file_content"`
	CursorLine   int    `json:"cursor_line"`
	CursorColumn int    `json:"cursor_column"`
}

// clientFrame is one inbound frame from a subscriber connection.
type clientFrame struct {
	Type string `json:"type"`
	CompletionRequest
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The editor makes local cross-origin requests.
		return true
	},
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
}

// Handlers exposes the websocket endpoints.
type Handlers struct {
	hub       *Hub
	bridge    *Bridge
	completer Completer
}

// NewHandlers wires the websocket endpoints to their collaborators.
func NewHandlers(hub *Hub, bridge *Bridge, completer Completer) *Handlers {
	return &Handlers{hub: hub, bridge: bridge, completer: completer}
}

// HandleSubscriber serves GET /ws: registers the connection in the hub,
// announces the session id, then services ping and completion frames
// until the client goes away.
func (h *Handlers) HandleSubscriber(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Failed to upgrade subscriber websocket", "error", err)
		return
	}

	conn := NewConn(ws)
	h.hub.Add(conn)
	defer func() {
		h.hub.Remove(conn)
		conn.Close()
	}()

	sessionID := uuid.New().String()
	if err := conn.WriteJSON(map[string]any{
		"action":    "session_created",
		"sessionId": sessionID,
	}); err != nil {
		return
	}

	for {
		var frame clientFrame
		if err := ws.ReadJSON(&frame); err != nil {
			slog.Info("Subscriber disconnected", "conn", conn.ID(), "error", err.Error())
			return
		}
		h.hub.Touch(conn)

		switch frame.Type {
		case "ping":
			if err := conn.WriteJSON(map[string]string{"type": TypePong}); err != nil {
				return
			}

		case "completion":
			h.handleCompletion(c.Request.Context(), conn, frame.CompletionRequest)

		default:
			if err := conn.WriteJSON(NewError("Unknown message type: " + frame.Type)); err != nil {
				return
			}
		}
	}
}

func (h *Handlers) handleCompletion(ctx context.Context, conn *Conn, req CompletionRequest) {
	completion, err := h.completer.Complete(ctx, req)
	if err != nil {
		slog.Warn("Completion failed", "path", req.FilePath, "error", err)
		conn.WriteJSON(NewError("Completion failed: " + err.Error()))
		return
	}

	conn.WriteJSON(CompletionSuggestion{
		Type:       TypeCompletionSuggestion,
		Completion: completion,
		MultiLine:  strings.Contains(completion, "\n"),
	})
}

// HandleHost serves GET /ws/editor: the single authoritative host
// connection. Inbound frames carrying a request_id resolve pending
// commands; closing the socket cancels everything in flight.
func (h *Handlers) HandleHost(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Failed to upgrade host websocket", "error", err)
		return
	}
	defer ws.Close()

	conn := NewConn(ws)
	h.bridge.AttachHost(conn)
	defer h.bridge.DetachHost(conn)

	for {
		var resp HostResponse
		if err := ws.ReadJSON(&resp); err != nil {
			slog.Info("Host connection closed", "error", err.Error())
			return
		}

		if resp.RequestID == "" {
			slog.Debug("Ignoring host frame without request_id")
			continue
		}
		h.bridge.Resolve(resp.RequestID, resp.Result)
	}
}
