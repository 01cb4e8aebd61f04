package autoplay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tetris/game/engine"
)

type sessionResponse struct {
	ID         string            `json:"id"`
	ConfigName string            `json:"config_name"`
	GameState  *engine.GameState `json:"game_state"`
}

type commandResponse struct {
	Accepted  bool              `json:"accepted"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
}

type bulkResponse struct {
	CommandsExecuted int               `json:"commands_executed"`
	GameState        *engine.GameState `json:"game_state"`
	StopReasonCode   string            `json:"stop_reason_code"`
}

type resetResponse struct {
	Message string            `json:"message"`
	State   *engine.GameState `json:"state"`
}

type suggestResponse struct {
	Plan      *Plan             `json:"plan"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
}

// Client plays against a running server through its REST API
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client is bound to
func (c *Client) SessionID() string {
	return c.sessionID
}

// UseSession binds the client to an existing session
func (c *Client) UseSession(id string) {
	c.sessionID = id
}

// CreateSession starts a new game and binds the client to it
func (c *Client) CreateSession(ctx context.Context, configName string) (*engine.GameState, error) {
	var session sessionResponse
	body := map[string]string{}
	if configName != "" {
		body["config_id"] = configName
	}
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	c.sessionID = session.ID
	return session.GameState, nil
}

// GetState fetches the current snapshot
func (c *Client) GetState(ctx context.Context) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &state, nil
}

// Command sends one command and reports whether it was accepted
func (c *Client) Command(ctx context.Context, command string) (*engine.GameState, bool, error) {
	var resp commandResponse
	req := map[string]string{"command": command}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/command"), req, &resp); err != nil {
		return nil, false, fmt.Errorf("command %s: %w", command, err)
	}
	return resp.GameState, resp.Accepted, nil
}

// BulkCommand sends a batch of commands in one request
func (c *Client) BulkCommand(ctx context.Context, commands []string) (*engine.GameState, error) {
	var resp bulkResponse
	req := map[string]interface{}{"commands": commands}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/bulk-command"), req, &resp); err != nil {
		return nil, fmt.Errorf("bulk command: %w", err)
	}
	return resp.GameState, nil
}

// Reset restarts the bound session
func (c *Client) Reset(ctx context.Context) (*engine.GameState, error) {
	var resp resetResponse
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/reset"), nil, &resp); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return resp.State, nil
}

// Suggest asks the server for its best placement. The plan is nil when no
// safe placement exists.
func (c *Client) Suggest(ctx context.Context) (*Plan, error) {
	var resp suggestResponse
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/suggest"), nil, &resp); err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	return resp.Plan, nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + c.sessionID + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s - %s", resp.Status, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// PlayRemote plays the bound session using the server's own suggestions,
// one bulk request per piece.
func PlayRemote(ctx context.Context, c *Client, maxPieces int, logger *zap.Logger) (*engine.GameState, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	state, err := c.GetState(ctx)
	if err != nil {
		return nil, err
	}
	if state.Paused {
		if state, _, err = c.Command(ctx, string(engine.CommandPause)); err != nil {
			return nil, err
		}
	}

	for placed := 0; !state.GameOver && (maxPieces == 0 || placed < maxPieces); placed++ {
		plan, err := c.Suggest(ctx)
		if err != nil {
			return state, err
		}

		commands := []string{string(engine.CommandHardDrop)}
		if plan != nil {
			commands = make([]string, len(plan.Commands))
			for i, cmd := range plan.Commands {
				commands[i] = string(cmd)
			}
		}

		if state, err = c.BulkCommand(ctx, commands); err != nil {
			return state, err
		}

		logger.Debug("remote placement",
			zap.String("session", c.sessionID),
			zap.Strings("commands", commands),
			zap.Int("score", state.Score),
			zap.Int("lines", state.Lines))
	}

	return state, nil
}
