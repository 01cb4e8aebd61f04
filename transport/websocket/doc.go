// Package websocket provides WebSocket transport for the game server.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - State and event broadcasting
//   - Inbound command frames
//
// Architecture:
//
// A central Hub owns every connection. Each client has a read pump and a
// write pump goroutine; the Hub's Run loop is the only place that registers,
// unregisters or closes a client's send channel.
//
// Message Protocol:
//
//   - Incoming: {"command": "rotate"}
//   - Outgoing: {"session_id": "ab12", "event": "state_update", "game_state": {...}}
//   - Outgoing events: {"session_id": "ab12", "event": "line_clear", "data": {...}}
//   - Errors: {"session_id": "ab12", "event": "error", "data": "unknown command: jump"}
//
// Any number of connections may watch the same session. They all see the
// same game, and commands from any of them go through the same service
// queue.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	hub.SetCommandHandler(func(ctx context.Context, id, cmd string) error {
//		_, err := gameService.Command(ctx, id, cmd)
//		return err
//	})
//	go hub.Run(ctx)
//
//	hub.ServeWS(w, r, sessionID, state)
package websocket
