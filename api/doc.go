// Package api provides the HTTP REST API for the game server.
//
// Endpoints:
//
// Health:
//   - GET /api/health
//
// Session Management:
//   - POST /api/sessions - Create a session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session and stop its gravity loop
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current GameState
//   - POST /api/sessions/{id}/command - {"command": "rotate"}
//   - POST /api/sessions/{id}/bulk-command - {"commands": ["left", "drop"], "reset": false}
//   - POST /api/sessions/{id}/reset
//   - GET /api/sessions/{id}/history - ?page=1&limit=20&order=desc
//   - GET /api/sessions/{id}/suggest - Best placement and the commands that reach it
//
// Configuration:
//   - GET /api/configs
//   - GET /api/configs/{name}
//   - POST /api/configs - Save a GameConfig; config_id defaults to the slugged name
//
// WebSocket:
//   - GET /ws?session={id} - Live state_update and event frames; accepts {"command": ...}
//
// Commands are left, right, tick, soft_drop (down), hard_drop (drop),
// rotate, hold, pause and reset. A command that cannot be applied is not an
// error: the response carries "accepted": false.
//
// Errors are returned as JSON with a matching status code:
//
//	{"error": "session zz99: session not found"}
//
// 404 for unknown sessions and configs, 400 for bad bodies, unknown commands
// and invalid configs, 409 for duplicate session IDs.
//
// Sessions whose config sets "gravity" get a server-side tick loop when they
// are created and again after each reset.
package api
