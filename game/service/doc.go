// Package service provides the business logic layer for the falling-block
// game server.
//
// The service package implements:
//   - Multi-session game management
//   - Command parsing, pause gating and dispatch
//   - Event collection and forwarding
//   - Command history tracking
//   - Placement suggestions
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Engines are not synchronised, so every call that touches
// one goes through the service mutex. This also gives each session a single
// ordered command stream no matter how many clients or the gravity ticker
// send commands at once.
//
// Usage:
//
//	sessionMgr := session.NewManager(logger)
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr, logger)
//
//	sessionInfo, err := gameService.CreateSession(ctx, "turn-based")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Command(ctx, sessionInfo.ID, "rotate")
//
// Session Management:
//
// Sessions are identified by unique 4-character IDs and maintain independent
// game state. While a game is paused only pause and reset are applied; once
// it is over only reset is.
package service
