package realtime

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type cannedCompleter struct {
	completion string
	err        error
}

func (c cannedCompleter) Complete(context.Context, CompletionRequest) (string, error) {
	return c.completion, c.err
}

// wsTestServer starts a live server exposing both websocket endpoints.
func wsTestServer(t *testing.T, completer Completer) (*httptest.Server, *Hub, *Bridge) {
	t.Helper()

	hub := NewHub(HubOptions{IdleTimeout: time.Minute, ReapInterval: time.Minute})
	bridge := NewBridge(time.Second)
	h := NewHandlers(hub, bridge, completer)

	router := gin.New()
	router.GET("/ws", h.HandleSubscriber)
	router.GET("/ws/editor", h.HandleHost)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, hub, bridge
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]any
	require.NoError(t, ws.ReadJSON(&frame))
	return frame
}

func TestSubscriberSessionAndPing(t *testing.T) {
	srv, hub, _ := wsTestServer(t, cannedCompleter{})
	ws := dial(t, srv, "/ws")

	greeting := readFrame(t, ws)
	assert.Equal(t, "session_created", greeting["action"])
	assert.NotEmpty(t, greeting["sessionId"])

	require.Eventually(t, func() bool { return hub.Count() == 1 },
		time.Second, 5*time.Millisecond)

	require.NoError(t, ws.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, TypePong, readFrame(t, ws)["type"])
}

func TestSubscriberUnknownFrameType(t *testing.T) {
	srv, _, _ := wsTestServer(t, cannedCompleter{})
	ws := dial(t, srv, "/ws")
	readFrame(t, ws) // greeting

	require.NoError(t, ws.WriteJSON(map[string]string{"type": "telepathy"}))

	frame := readFrame(t, ws)
	assert.Equal(t, TypeError, frame["type"])
	assert.Contains(t, frame["message"], "telepathy")
}

func TestSubscriberCompletion(t *testing.T) {
	srv, _, _ := wsTestServer(t, cannedCompleter{completion: "return health\nend"})
	ws := dial(t, srv, "/ws")
	readFrame(t, ws) // greeting

	require.NoError(t, ws.WriteJSON(map[string]any{
		"type":        "completion",
		"file_path":   "player.gd",
		"cursor_line": 10,
	}))

	frame := readFrame(t, ws)
	assert.Equal(t, TypeCompletionSuggestion, frame["type"])
	assert.Equal(t, "return health\nend", frame["completion"])
	assert.Equal(t, true, frame["multi_line"])
}

func TestSubscriberCompletionFailure(t *testing.T) {
	srv, _, _ := wsTestServer(t, cannedCompleter{err: errors.New("backend offline")})
	ws := dial(t, srv, "/ws")
	readFrame(t, ws) // greeting

	require.NoError(t, ws.WriteJSON(map[string]string{"type": "completion"}))

	frame := readFrame(t, ws)
	assert.Equal(t, TypeError, frame["type"])
	assert.Contains(t, frame["message"], "backend offline")
}

func TestSubscriberDisconnectLeavesHub(t *testing.T) {
	srv, hub, _ := wsTestServer(t, cannedCompleter{})
	ws := dial(t, srv, "/ws")
	readFrame(t, ws)

	require.Eventually(t, func() bool { return hub.Count() == 1 },
		time.Second, 5*time.Millisecond)

	ws.Close()

	require.Eventually(t, func() bool { return hub.Count() == 0 },
		time.Second, 5*time.Millisecond, "closed subscriber must be removed from the hub")
}

func TestHostCommandRoundTrip(t *testing.T) {
	srv, _, bridge := wsTestServer(t, cannedCompleter{})
	ws := dial(t, srv, "/ws/editor")

	require.Eventually(t, bridge.HostConnected, time.Second, 5*time.Millisecond)

	// The host side: answer the first command that arrives.
	go func() {
		var env CommandEnvelope
		if err := ws.ReadJSON(&env); err != nil {
			return
		}
		ws.WriteJSON(HostResponse{
			RequestID: env.RequestID,
			Result:    map[string]any{"status": "success"},
		})
	}()

	result, err := bridge.Send(context.Background(), "save_scene", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "success", result["status"])
}

func TestHostDisconnectCancelsInflight(t *testing.T) {
	srv, _, bridge := wsTestServer(t, cannedCompleter{})
	ws := dial(t, srv, "/ws/editor")

	require.Eventually(t, bridge.HostConnected, time.Second, 5*time.Millisecond)

	errs := make(chan error, 1)
	go func() {
		_, err := bridge.Send(context.Background(), "get_scene_tree", nil, time.Minute)
		errs <- err
	}()

	require.Eventually(t, func() bool { return bridge.PendingCount() == 1 },
		time.Second, 5*time.Millisecond)

	ws.Close()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrHostDisconnected)
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight command survived host disconnect")
	}
	require.Eventually(t, func() bool { return !bridge.HostConnected() },
		time.Second, 5*time.Millisecond)
}
