package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tetris/game/engine"
)

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		id:        sessionID + "-client",
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestNewHub(t *testing.T) {
	hub := NewHub(zap.NewNop())

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if cap(hub.broadcast) != engine.WebSocketBufferSize {
		t.Errorf("Expected broadcast buffer %d, got %d", engine.WebSocketBufferSize, cap(hub.broadcast))
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)

	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered in session")
	}
	if hub.ClientCount("TEST-SESSION") != 1 {
		t.Errorf("Expected 1 client in session, got %d", hub.ClientCount("TEST-SESSION"))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Error("Expected send channel to be closed")
	}

	// A second unregister must not close the channel again.
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := NewHub(zap.NewNop())
	sessionID := "multi-client-session"

	client1 := newTestClient(hub, sessionID)
	client2 := newTestClient(hub, sessionID)

	hub.registerClient(client1)
	hub.registerClient(client2)

	if hub.ClientCount(sessionID) != 2 {
		t.Errorf("Expected 2 clients in session, got %d", hub.ClientCount(sessionID))
	}

	hub.unregisterClient(client1)

	if hub.ClientCount(sessionID) != 1 {
		t.Errorf("Expected 1 client remaining in session, got %d", hub.ClientCount(sessionID))
	}
	if !hub.sessions[sessionID][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastToSession(t *testing.T) {
	hub := startHub(t)
	sessionID := "broadcast-test"

	client := newTestClient(hub, sessionID)
	other := newTestClient(hub, "other-session")
	hub.register <- client
	hub.register <- other

	hub.BroadcastToSession(sessionID, &engine.GameState{Score: 100, Level: 2, Status: engine.StatusRunning})

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.SessionID != sessionID {
			t.Errorf("Expected sessionID %s, got %s", sessionID, message.SessionID)
		}
		if message.Event != EventStateUpdate {
			t.Errorf("Expected event 'state_update', got %s", message.Event)
		}
		if message.GameState.Score != 100 || message.GameState.Level != 2 {
			t.Error("GameState not correctly transmitted")
		}
	case <-time.After(time.Second):
		t.Fatal("No message received within timeout")
	}

	select {
	case <-other.send:
		t.Error("Client of another session received the broadcast")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub(zap.NewNop())

	hub.BroadcastEvent("event-test", "line_clear", "test-data")

	select {
	case message := <-hub.broadcast:
		if message.SessionID != "event-test" {
			t.Errorf("Expected sessionID 'event-test', got %s", message.SessionID)
		}
		if message.Event != "line_clear" {
			t.Errorf("Expected event 'line_clear', got %s", message.Event)
		}
		if message.Data != "test-data" {
			t.Errorf("Expected data 'test-data', got %v", message.Data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No broadcast message queued")
	}
}

func TestHubStoppedDropsBroadcasts(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		for i := 0; i < engine.WebSocketBufferSize+10; i++ {
			hub.BroadcastEvent("gone", "tick", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BroadcastEvent blocked after the hub stopped")
	}
}

func newWSServer(t *testing.T, hub *Hub, initial *engine.GameState) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")
		if sessionID == "" {
			sessionID = "default"
		}
		hub.ServeWS(w, r, sessionID, initial)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	return message
}

func TestWebSocketUpgrade(t *testing.T) {
	hub := startHub(t)
	wsURL := newWSServer(t, hub, nil) + "?session_id=ws-test"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}

	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 1 })

	conn.Close()

	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 0 })
}

func TestWebSocketInitialAndBroadcastState(t *testing.T) {
	hub := startHub(t)
	initial := &engine.GameState{Score: 0, Level: 1, Status: engine.StatusRunning}
	wsURL := newWSServer(t, hub, initial) + "?session_id=msg-test"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	first := readMessage(t, conn)
	if first.Event != EventStateUpdate || first.GameState == nil || first.GameState.Level != 1 {
		t.Fatalf("Expected initial state frame, got %+v", first)
	}

	waitFor(t, func() bool { return hub.ClientCount("msg-test") == 1 })
	hub.BroadcastToSession("msg-test", &engine.GameState{Score: 200, Lines: 2, Level: 1})

	message := readMessage(t, conn)
	if message.SessionID != "msg-test" {
		t.Errorf("Expected sessionID 'msg-test', got %s", message.SessionID)
	}
	if message.GameState.Score != 200 || message.GameState.Lines != 2 {
		t.Error("GameState score/lines not correctly received")
	}
}

func TestWebSocketInboundCommands(t *testing.T) {
	hub := NewHub(zap.NewNop())

	var mu sync.Mutex
	var received []string
	hub.SetCommandHandler(func(ctx context.Context, sessionID, command string) error {
		if command == "jump" {
			return errors.New("unknown command: jump")
		}
		mu.Lock()
		received = append(received, sessionID+":"+command)
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	wsURL := newWSServer(t, hub, nil) + "?session_id=CMD1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(Inbound{Command: "left"}); err != nil {
		t.Fatalf("Failed to write command: %v", err)
	}
	if err := conn.WriteJSON(Inbound{Command: "rotate"}); err != nil {
		t.Fatalf("Failed to write command: %v", err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	})
	mu.Lock()
	if received[0] != "cmd1:left" || received[1] != "cmd1:rotate" {
		t.Errorf("Unexpected commands %v", received)
	}
	mu.Unlock()

	if err := conn.WriteJSON(Inbound{Command: "jump"}); err != nil {
		t.Fatalf("Failed to write command: %v", err)
	}
	message := readMessage(t, conn)
	if message.Event != EventError || !strings.Contains(message.Data.(string), "unknown command") {
		t.Errorf("Expected error frame, got %+v", message)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("Failed to write frame: %v", err)
	}
	message = readMessage(t, conn)
	if message.Event != EventError {
		t.Errorf("Expected error frame for malformed input, got %+v", message)
	}
}

func TestWebSocketWithoutHandler(t *testing.T) {
	hub := startHub(t)
	wsURL := newWSServer(t, hub, nil) + "?session_id=ro"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(Inbound{Command: "left"}); err != nil {
		t.Fatalf("Failed to write command: %v", err)
	}
	message := readMessage(t, conn)
	if message.Event != EventError || message.Data != ErrNoCommandHandler.Error() {
		t.Errorf("Expected no-handler error, got %+v", message)
	}
}
