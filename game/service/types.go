package service

import (
	"time"

	"github.com/wricardo/mcp-training/tetris/game/autoplay"
	"github.com/wricardo/mcp-training/tetris/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	CommandCount   int                `json:"command_count"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// CommandResult contains the result of a single command
type CommandResult struct {
	Command   string            `json:"command"`
	Accepted  bool              `json:"accepted"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message,omitempty"`
	Events    []GameEvent       `json:"events,omitempty"`
}

// BulkCommandResult contains the result of multiple commands
type BulkCommandResult struct {
	// Summary
	CommandsExecuted  int               `json:"commands_executed"`
	CommandsAccepted  int               `json:"commands_accepted"`
	RequestedCommands int               `json:"requested_commands"`
	Success           bool              `json:"success"`
	GameState         *engine.GameState `json:"game_state"`
	Events            []GameEvent       `json:"events"`
	StoppedReason     string            `json:"stopped_reason,omitempty"`    // Human-readable reason
	StopReasonCode    string            `json:"stop_reason_code,omitempty"`  // game_over|paused
	StoppedOnCommand  int               `json:"stopped_on_command,omitempty"` // 1-based index of the command that caused stop
	Truncated         bool              `json:"truncated,omitempty"`
	Limit             int               `json:"limit,omitempty"`

	ScoreDelta int `json:"score_delta"`
	LinesDelta int `json:"lines_delta"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	GameOver  bool   `json:"game_over"`
	Message   string `json:"message,omitempty"`
	StackRisk string `json:"stack_risk,omitempty"`
}

// StepInfo is a compact record for each executed command in a bulk call
type StepInfo struct {
	Idx      int    `json:"idx"`
	Command  string `json:"command"`
	Accepted bool   `json:"accepted"`
	Piece    string `json:"piece"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Score    int    `json:"score"`
	Lines    int    `json:"lines"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"` // line_clear, level_up, hold, hard_drop, piece_locked, game_over, pause, resume, reset
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Lines     int       `json:"lines,omitempty"`
	Points    int       `json:"points,omitempty"`
	Level     int       `json:"level,omitempty"`
	Distance  int       `json:"distance,omitempty"`
	Piece     string    `json:"piece,omitempty"`
}

// CommandHistoryEntry records one command applied to a session
type CommandHistoryEntry struct {
	Index     int           `json:"index"`
	Command   string        `json:"command"`
	Accepted  bool          `json:"accepted"`
	Timestamp time.Time     `json:"timestamp"`
	Piece     string        `json:"piece"`
	Score     int           `json:"score"`
	Lines     int           `json:"lines"`
	Level     int           `json:"level"`
	Status    engine.Status `json:"status"`
}

// HistoryOptions configures command history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated command history
type HistoryResponse struct {
	Commands      []CommandHistoryEntry `json:"commands"`
	TotalCommands int                   `json:"total_commands"`
	Page          int                   `json:"page"`
	PageSize      int                   `json:"page_size"`
	TotalPages    int                   `json:"total_pages"`
	HasNext       bool                  `json:"has_next"`
	HasPrevious   bool                  `json:"has_previous"`
}

// SuggestResult carries the planner's recommended placement
type SuggestResult struct {
	Plan      *autoplay.Plan    `json:"plan,omitempty"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message,omitempty"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Gravity     bool   `json:"gravity"`
	LayoutRows  int    `json:"layout_rows"`
}
