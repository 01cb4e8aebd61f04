// Package mcp exposes the game to AI agents over the Model Context Protocol.
//
// Client is a thin proxy: every tool call becomes a REST request against a
// running API server, and the JSON reply is rendered as text an agent can
// read. The board is drawn with the active piece as '@' and its landing
// position as '+'.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, command, bulk_command, reset_game
//   - command_history, suggest_move
//   - list_configs, game_instructions, describe_cell
//
// Transport Modes:
//
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: the Client is an http.Handler for POSTed JSON-RPC messages
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	apiServer.Handle("/mcp", client)
package mcp
