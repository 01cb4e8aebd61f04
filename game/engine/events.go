package engine

// EventType names something that happened inside the engine
type EventType string

const (
	EventPieceLocked EventType = "piece_locked"
	EventLineClear   EventType = "line_clear"
	EventLevelUp     EventType = "level_up"
	EventHardDrop    EventType = "hard_drop"
	EventHold        EventType = "hold"
	EventPause       EventType = "pause"
	EventResume      EventType = "resume"
	EventGameOver    EventType = "game_over"
	EventReset       EventType = "reset"
)

// Game over reasons carried on EventGameOver
const (
	GameOverTopOut       = "top_out"
	GameOverSpawnBlocked = "spawn_blocked"
)

// Event is delivered to listeners after the engine state has changed.
// Fields that do not apply to a given type are zero.
type Event struct {
	Type     EventType `json:"type"`
	Piece    PieceType `json:"-"`
	Lines    int       `json:"lines,omitempty"`
	Points   int       `json:"points,omitempty"`
	Level    int       `json:"level,omitempty"`
	Distance int       `json:"distance,omitempty"`
	Reason   string    `json:"reason,omitempty"`
}

// Listener receives engine events synchronously, on the goroutine that
// issued the command. Listeners must not call back into the engine.
type Listener func(Event)
