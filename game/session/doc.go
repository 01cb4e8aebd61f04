// Package session provides in-memory session management for the game server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Idle session expiry
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters from crypto/rand; callers may also
// pick their own. Lookups ignore case, so "AB12" and "ab12" name the same
// session.
//
// Usage:
//
//	manager := session.NewManager(logger)
//
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//	sessions := manager.List()
//
// Sessions are never written to disk. A server restart drops every game.
package session
