// Package gravity drives server-side falling for sessions whose config
// enables gravity.
//
// One goroutine per session waits the engine's current tick interval, sends
// a tick through the game service and broadcasts the new state. The loop
// ends on game over, when the session disappears, or on Stop. Paused games
// keep their loop but the service rejects the ticks.
package gravity
