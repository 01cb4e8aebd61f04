package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/tetris/game/engine"
	"github.com/wricardo/mcp-training/tetris/game/service"
)

const (
	ServerName    = "Tetris"
	ServerVersion = "1.0.0"

	currentCell = '@'
	ghostCell   = '+'
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Tetris - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Place falling tetrominoes on a 10x20 board. Completed rows clear and score points.
The game ends when a new piece cannot spawn.

AVAILABLE TOOLS:
- create_session: Create a new game session (optionally from a config preset)
- list_sessions / get_session: Inspect sessions
- game_state: Board, active piece, next and held pieces, score
- command: One command (left, right, rotate, soft_drop, hard_drop, hold, tick, pause, reset)
- bulk_command: Up to 50 commands in one call
- reset_game: Start over
- command_history: Past commands for a session
- suggest_move: Ask the built-in planner for the best placement
- list_configs: Available presets
- game_instructions: Full rules
- describe_cell: What occupies a board cell

NOTE: Sessions created from gravity presets keep falling on their own between calls.`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Config preset to use, see list_configs (optional, defaults to classic)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, pieces, score and status",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "command",
		Description: "Apply one command to the active piece",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"command": map[string]interface{}{
					"type":        "string",
					"description": "One of: " + commandNames(),
				},
			},
			Required: []string{"session_id", "command"},
		},
	}, c.handleCommand)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_command",
		Description: fmt.Sprintf("Apply up to %d commands in order; stops early on game over", engine.MaxBulkCommands),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"commands": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Commands to apply, e.g. [\"rotate\", \"left\", \"hard_drop\"]",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset the game before applying the commands",
				},
			},
			Required: []string{"session_id", "commands"},
		},
	}, c.handleBulkCommand)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the session to a fresh game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "command_history",
		Description: "Get the paginated command history of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "number",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Entries per page (default 20)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"description": "asc or desc (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleCommandHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "suggest_move",
		Description: "Ask the planner for the best placement of the active piece",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleSuggest)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game config presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules, scoring and command reference",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe what occupies a board cell (row 0 is the top)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"row": map[string]interface{}{
					"type":        "number",
					"description": fmt.Sprintf("Row, 0-%d from the top", engine.BoardHeight-1),
				},
				"col": map[string]interface{}{
					"type":        "number",
					"description": fmt.Sprintf("Column, 0-%d from the left", engine.BoardWidth-1),
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// ServeHTTP answers a single JSON-RPC message posted to the MCP endpoint
func (c *Client) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	response := c.mcpServer.HandleMessage(r.Context(), body)
	if response == nil {
		// notifications carry no reply
		w.WriteHeader(http.StatusAccepted)
		return
	}

	data, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// apiCall makes an HTTP call to the REST API
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	id, _ := args["session_id"].(string)
	if id == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(id) + suffix, nil
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]string{}
	if configID, _ := args["config_id"].(string); configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                    `json:"count"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, http.MethodGet, "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(response.Sessions) == 0 {
		return mcp.NewToolResultText("No active sessions"), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Active sessions (%d):\n", response.Count)
	for _, s := range response.Sessions {
		line := fmt.Sprintf("- %s (config: %s, commands: %d", s.ID, s.ConfigName, s.CommandCount)
		if s.GameState != nil {
			line += fmt.Sprintf(", score: %d, status: %s", s.GameState.Score, s.GameState.Status)
		}
		sb.WriteString(line + ")\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	command, _ := args["command"].(string)
	if command == "" {
		return mcp.NewToolResultError("command is required"), nil
	}

	var result service.CommandResult
	body := map[string]string{"command": command}
	if err := c.apiCall(ctx, http.MethodPost, path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCommandResult(&result)), nil
}

func (c *Client) handleBulkCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/bulk-command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	raw, _ := args["commands"].([]interface{})
	commands := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			commands = append(commands, s)
		}
	}
	if len(commands) == 0 {
		return mcp.NewToolResultError("commands must be a non-empty array of strings"), nil
	}
	reset, _ := args["reset"].(bool)

	var result service.BulkCommandResult
	body := map[string]interface{}{
		"commands": commands,
		"reset":    reset,
	}
	if err := c.apiCall(ctx, http.MethodPost, path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkCommandResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/reset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, http.MethodPost, path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := response.Message
	if response.State != nil {
		text += "\n\n" + formatGameState(response.State)
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleCommandHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	query := url.Values{}
	if page, ok := intArg(args, "page"); ok && page > 0 {
		query.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok && limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}
	if order, _ := args["order"].(string); order != "" {
		query.Set("order", order)
	}
	suffix := "/history"
	if len(query) > 0 {
		suffix += "?" + query.Encode()
	}

	path, err := sessionPath(args, suffix)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleSuggest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/suggest")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.SuggestResult
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSuggestion(&result)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, http.MethodGet, "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(configs) == 0 {
		return mcp.NewToolResultText("No configs available"), nil
	}

	var sb strings.Builder
	sb.WriteString("Available configs:\n")
	for _, cfg := range configs {
		mode := "turn-based"
		if cfg.Gravity {
			mode = "gravity"
		}
		fmt.Fprintf(&sb, "- %s: %s [%s", cfg.ConfigID, cfg.Name, mode)
		if cfg.LayoutRows > 0 {
			fmt.Fprintf(&sb, ", %d preset rows", cfg.LayoutRows)
		}
		sb.WriteString("]")
		if cfg.Description != "" {
			sb.WriteString(" - " + cfg.Description)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required numbers"), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := describeCell(&state, row, col)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func commandNames() string {
	names := make([]string, len(engine.AllCommands))
	for i, c := range engine.AllCommands {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

const gameInstructions = `Tetris - Complete Instructions

GAME OBJECTIVE:
Steer falling tetrominoes into a 10 wide, 20 tall well. Fill whole rows to
clear them. The game is over when a new piece cannot enter the board.

BOARD LEGEND:
- '.' empty cell
- I J L O S T Z: settled blocks of that piece
- '@' the active piece
- '+' the ghost: where the active piece lands on hard_drop
Row 0 is the top of the board, column 0 the left wall.

COMMANDS:
- left / right: shift one column
- rotate: rotate clockwise (no wall kicks)
- soft_drop (alias down): move down one row, locks the piece if it cannot
- hard_drop (alias drop): drop to the ghost and lock at once
- hold: swap the active piece with the held one, once per piece
- tick: one gravity step, same as soft_drop
- pause: toggle pause; every other command is ignored while paused
- reset: start a new game

SCORING:
- 1 line: 100 x level
- 2 lines: 300 x level
- 3 lines: 500 x level
- 4 lines: 800 x level
- hard_drop: 2 points per row fallen
The level rises every 10 lines and gravity speeds up with it.

STRATEGY TIPS:
- Keep the stack low and flat; stack_risk in game_state warns you early.
- Avoid covering empty cells; holes are hard to clear.
- Leave one column open for an I piece to clear four lines at once.
- Use suggest_move when unsure, then send its commands with bulk_command.
- Gravity presets keep ticking between calls; plan with bulk_command and
  finish each piece with hard_drop.

Good luck!`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	text := fmt.Sprintf("Session: %s\nConfig: %s\nCommands: %d\n", session.ID, session.ConfigName, session.CommandCount)
	if session.GameConfig != nil {
		mode := "turn-based"
		if session.GameConfig.Gravity {
			mode = "gravity"
		}
		text += fmt.Sprintf("Mode: %s\n", mode)
	}
	if session.GameState != nil {
		text += "\n" + formatGameState(session.GameState)
	}
	return text
}

// renderBoard overlays the ghost and the active piece on the settled rows
func renderBoard(state *engine.GameState) []string {
	grid := make([][]byte, len(state.Board))
	for i, row := range state.Board {
		grid[i] = []byte(row)
	}
	set := func(x, y int, ch byte) {
		if y >= 0 && y < len(grid) && x >= 0 && x < len(grid[y]) {
			grid[y][x] = ch
		}
	}

	if cur := state.Current; cur != nil && !state.GameOver {
		if state.Ghost != nil {
			dy := state.Ghost.Y - cur.Y
			for _, cell := range cur.Cells {
				y := cell.Y + dy
				if y >= 0 && y < len(grid) && cell.X >= 0 && cell.X < len(grid[y]) && grid[y][cell.X] == '.' {
					grid[y][cell.X] = ghostCell
				}
			}
		}
		for _, cell := range cur.Cells {
			set(cell.X, cell.Y, currentCell)
		}
	}

	rows := make([]string, len(grid))
	for i, row := range grid {
		rows[i] = string(row)
	}
	return rows
}

func pieceLabel(p *engine.PieceState) string {
	if p == nil {
		return "none"
	}
	return p.Type
}

func formatGameState(state *engine.GameState) string {
	var sb strings.Builder

	switch {
	case state.GameOver:
		sb.WriteString("💀 GAME OVER\n")
	case state.Paused:
		sb.WriteString("⏸ PAUSED\n")
	}

	fmt.Fprintf(&sb, "Score: %d | Level: %d | Lines: %d | Pieces: %d\n",
		state.Score, state.Level, state.Lines, state.PiecesPlaced)
	if state.Current != nil {
		fmt.Fprintf(&sb, "Current: %s at (%d,%d)\n", state.Current.Type, state.Current.X, state.Current.Y)
	}
	hold := pieceLabel(state.Held)
	if !state.CanHold {
		hold += " (used)"
	}
	fmt.Fprintf(&sb, "Next: %s | Held: %s\n", pieceLabel(state.Next), hold)
	if state.StackRisk != "" {
		fmt.Fprintf(&sb, "Stack: %s\n", state.StackRisk)
	}
	if state.Holes > 0 {
		fmt.Fprintf(&sb, "Holes: %d\n", state.Holes)
	}

	sb.WriteString("\n")
	for i, row := range renderBoard(state) {
		fmt.Fprintf(&sb, "%2d |%s|\n", i, row)
	}
	sb.WriteString("   +" + strings.Repeat("-", engine.BoardWidth) + "+\n")

	return sb.String()
}

func formatEvents(events []service.GameEvent) string {
	var sb strings.Builder
	for _, ev := range events {
		if ev.Type == string(engine.EventPieceLocked) {
			continue
		}
		msg := ev.Message
		if msg == "" {
			msg = ev.Type
		}
		fmt.Fprintf(&sb, "• %s\n", msg)
	}
	return sb.String()
}

func formatCommandResult(result *service.CommandResult) string {
	var sb strings.Builder
	if result.Accepted {
		fmt.Fprintf(&sb, "✓ %s accepted\n", result.Command)
	} else {
		fmt.Fprintf(&sb, "✗ %s rejected\n", result.Command)
	}
	if result.Message != "" {
		sb.WriteString(result.Message + "\n")
	}
	sb.WriteString(formatEvents(result.Events))
	if result.GameState != nil {
		sb.WriteString("\n" + formatGameState(result.GameState))
	}
	return sb.String()
}

func formatBulkCommandResult(result *service.BulkCommandResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Executed %d/%d commands (%d accepted)\n",
		result.CommandsExecuted, result.RequestedCommands, result.CommandsAccepted)
	if result.Truncated {
		fmt.Fprintf(&sb, "Truncated to %d commands\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&sb, "Stopped at command %d: %s\n", result.StoppedOnCommand, result.StoppedReason)
	}
	fmt.Fprintf(&sb, "Score +%d | Lines +%d\n", result.ScoreDelta, result.LinesDelta)
	sb.WriteString(formatEvents(result.Events))

	if len(result.Steps) > 0 {
		sb.WriteString("\nSteps:\n")
		for _, step := range result.Steps {
			mark := "✓"
			if !step.Accepted {
				mark = "✗"
			}
			fmt.Fprintf(&sb, "%2d. %s %-9s %s at (%d,%d)\n", step.Idx, mark, step.Command, step.Piece, step.X, step.Y)
		}
	}

	if result.GameState != nil {
		sb.WriteString("\n" + formatGameState(result.GameState))
	}
	return sb.String()
}

func formatHistory(history *service.HistoryResponse) string {
	if history.TotalCommands == 0 {
		return "No commands yet"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Command history (page %d/%d, %d total):\n",
		history.Page, history.TotalPages, history.TotalCommands)
	for _, entry := range history.Commands {
		mark := "✓"
		if !entry.Accepted {
			mark = "✗"
		}
		fmt.Fprintf(&sb, "#%d %s %s [%s] score=%d lines=%d level=%d\n",
			entry.Index, mark, entry.Command, entry.Piece, entry.Score, entry.Lines, entry.Level)
	}
	if history.HasNext {
		sb.WriteString("(more on the next page)\n")
	}
	return sb.String()
}

func formatSuggestion(result *service.SuggestResult) string {
	if result.Plan == nil {
		msg := result.Message
		if msg == "" {
			msg = "No placement available"
		}
		return msg
	}

	plan := result.Plan
	var sb strings.Builder
	fmt.Fprintf(&sb, "Suggested placement for %s: column %d, row %d, %d rotation(s)",
		plan.Piece, plan.X, plan.Y, plan.Rotations)
	if plan.UseHold {
		sb.WriteString(" after hold")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Clears %d line(s), leaves %d hole(s), height %d, bumpiness %d\n",
		plan.LinesCleared, plan.Holes, plan.AggregateHeight, plan.Bumpiness)

	cmds := make([]string, len(plan.Commands))
	for i, c := range plan.Commands {
		cmds[i] = string(c)
	}
	fmt.Fprintf(&sb, "Commands: %s\n", strings.Join(cmds, ", "))
	return sb.String()
}

func describeCell(state *engine.GameState, row, col int) (string, error) {
	if row < 0 || row >= len(state.Board) || col < 0 || col >= engine.BoardWidth {
		return "", fmt.Errorf("cell (%d, %d) is out of bounds; rows are 0-%d and columns 0-%d",
			row, col, len(state.Board)-1, engine.BoardWidth-1)
	}

	rendered := renderBoard(state)
	ch := rendered[row][col]
	settled := state.Board[row][col]

	var description string
	switch {
	case ch == currentCell:
		description = fmt.Sprintf("Active %s piece", state.Current.Type)
	case ch == ghostCell:
		description = fmt.Sprintf("Empty; the active %s piece lands here on hard_drop", state.Current.Type)
	case settled == '.':
		description = "Empty"
	default:
		description = fmt.Sprintf("Settled block from a %c piece", settled)
	}

	height := 0
	if col < len(state.ColumnHeights) {
		height = state.ColumnHeights[col]
	}

	return fmt.Sprintf(`Cell at row %d, column %d:
━━━━━━━━━━━━━━━━━━━━━━━━
Character: %c
Occupied: %v
Description: %s
Column height: %d`,
		row, col, ch, settled != '.', description, height), nil
}
