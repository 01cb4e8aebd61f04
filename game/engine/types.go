package engine

import (
	"fmt"
	"time"
)

// PieceType identifies one of the seven tetrominoes. The zero value is
// NoPiece, which doubles as the empty board cell.
type PieceType uint8

const (
	NoPiece PieceType = iota
	PieceI
	PieceJ
	PieceL
	PieceO
	PieceS
	PieceT
	PieceZ
)

const (
	BoardWidth  = 10
	BoardHeight = 20
	MaskSize    = 4

	// Spawn anchor for every new or respawned piece
	SpawnX = BoardWidth/2 - 2
	SpawnY = 0

	InitialLevel        = 1
	LinesPerLevel       = 10
	InitialTickInterval = 500 * time.Millisecond
	MinTickInterval     = 100 * time.Millisecond
	TickIntervalStep    = 50 * time.Millisecond

	// Validation constants
	MaxLayoutRows       = BoardHeight - MaskSize
	MaxBulkCommands     = 50
	WebSocketBufferSize = 256
)

// Status is the engine's state machine position.
type Status string

const (
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusGameOver Status = "game_over"
)

// Command is a named inbound engine operation, as received from adapters.
type Command string

const (
	CommandLeft     Command = "left"
	CommandRight    Command = "right"
	CommandTick     Command = "tick"
	CommandSoftDrop Command = "soft_drop"
	CommandHardDrop Command = "hard_drop"
	CommandRotate   Command = "rotate"
	CommandHold     Command = "hold"
	CommandPause    Command = "pause"
	CommandReset    Command = "reset"
)

// AllCommands lists the canonical command names in display order.
var AllCommands = []Command{
	CommandLeft, CommandRight, CommandTick, CommandSoftDrop,
	CommandHardDrop, CommandRotate, CommandHold, CommandPause, CommandReset,
}

var commandAliases = map[string]Command{
	"down": CommandSoftDrop,
	"drop": CommandHardDrop,
}

// ParseCommand resolves a wire name (or alias) to a Command.
func ParseCommand(name string) (Command, error) {
	if alias, ok := commandAliases[name]; ok {
		return alias, nil
	}
	for _, c := range AllCommands {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown command %q", name)
}

// Position represents x,y board coordinates (x = column, y = row)
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// GameConfig describes a game preset loaded from JSON
type GameConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Seed for the piece randomizer; zero means seed from the clock
	Seed uint64 `json:"seed,omitempty"`
	// Gravity asks the server to drive ticks on its own
	Gravity bool `json:"gravity"`
	// Layout is an optional starting stack, aligned to the bottom of the board
	Layout []string `json:"layout,omitempty"`
}

// PieceState is the read-only view of a piece handed to adapters
type PieceState struct {
	Type  string     `json:"type"`
	Color string     `json:"color"`
	X     int        `json:"x"`
	Y     int        `json:"y"`
	Mask  []string   `json:"mask"`
	Cells []Position `json:"cells"`
}

// GameState is an immutable snapshot of the engine after a command
type GameState struct {
	Board          []string    `json:"board"`
	Current        *PieceState `json:"current"`
	Ghost          *Position   `json:"ghost,omitempty"`
	Next           *PieceState `json:"next"`
	Held           *PieceState `json:"held,omitempty"`
	CanHold        bool        `json:"can_hold"`
	Score          int         `json:"score"`
	Level          int         `json:"level"`
	Lines          int         `json:"lines"`
	Status         Status      `json:"status"`
	Paused         bool        `json:"paused"`
	GameOver       bool        `json:"game_over"`
	TickIntervalMs int64       `json:"tick_interval_ms"`
	PiecesPlaced   int         `json:"pieces_placed"`
	ConfigName     string      `json:"config_name"`

	// Computed helper views (not required for core game logic)
	ColumnHeights []int  `json:"column_heights,omitempty"`
	Holes         int    `json:"holes"`
	StackRisk     string `json:"stack_risk,omitempty"`
}
