package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tetris/game/engine"
	"github.com/wricardo/mcp-training/tetris/game/service"
	"github.com/wricardo/mcp-training/tetris/game/session"
)

var errNotFound = errors.New("session not found")

// MockSessionManager implements service.SessionManager for testing. Every
// engine deals O pieces so results are predictable.
type MockSessionManager struct {
	sessions map[string]*service.Session
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(config, engine.WithRandomizer(engine.NewSequenceRandomizer(engine.PieceO)))
	if err != nil {
		return nil, err
	}

	session := service.NewSession(id, eng, config)
	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, errNotFound
	}
	return session, nil
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return errNotFound
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
	saved   map[string]*engine.GameConfig
}

func NewMockConfigManager() *MockConfigManager {
	defaultConfig := &engine.GameConfig{
		Name:        "test",
		Description: "Test configuration",
	}
	wellConfig := &engine.GameConfig{
		Name:        "well",
		Description: "Two rows waiting for an O",
		Layout: []string{
			"..JJJJJJJJ",
			"..JJJJJJJJ",
		},
	}

	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			"test":    defaultConfig,
			"default": defaultConfig,
			"well":    wellConfig,
		},
		saved: make(map[string]*engine.GameConfig),
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, errors.New("config not found")
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for name, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:    name + ".json",
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
			Gravity:     config.Gravity,
			LayoutRows:  len(config.Layout),
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["default"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return err
	}
	m.saved[name] = config
	m.configs[name] = config
	return nil
}

func newTestService(t *testing.T, opts ...service.Option) (service.GameService, string) {
	t.Helper()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager(), zap.NewNop(), opts...)
	info, err := svc.CreateSession(context.Background(), "test")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return svc, info.ID
}

// Test cases
func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager(), zap.NewNop())

	tests := []struct {
		name       string
		configName string
		wantErr    bool
	}{
		{"create with default config", "", false},
		{"create with specific config", "well", false},
		{"create with invalid config", "nonexistent", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.CreateSession(ctx, tt.configName)
			if (err != nil) != tt.wantErr {
				t.Errorf("CreateSession() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if session == nil || session.GameState == nil {
				t.Fatal("CreateSession() returned nil session or state")
			}
			if session.GameState.Status != engine.StatusRunning {
				t.Errorf("Expected running game, got %s", session.GameState.Status)
			}
		})
	}
}

func TestGameService_CreateSessionReportsConfigID(t *testing.T) {
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager(), zap.NewNop())

	info, err := svc.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if info.ConfigName != "test" && info.ConfigName != "default" {
		t.Errorf("Expected default config id, got %q", info.ConfigName)
	}
}

func TestGameService_Command(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	tests := []struct {
		name         string
		sessionID    string
		command      string
		wantErr      bool
		wantAccepted bool
	}{
		{"move left", id, "left", false, true},
		{"rotate", id, "rotate", false, true},
		{"alias down", id, "down", false, true},
		{"unknown command", id, "jump", true, false},
		{"unknown session", "nope", "left", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Command(ctx, tt.sessionID, tt.command)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Command() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if result.Accepted != tt.wantAccepted {
				t.Errorf("Command() accepted = %v, want %v (%s)", result.Accepted, tt.wantAccepted, result.Message)
			}
			if result.GameState == nil {
				t.Error("Command() returned nil game state")
			}
		})
	}
}

func TestGameService_UnknownCommandError(t *testing.T) {
	svc, id := newTestService(t)

	_, err := svc.Command(context.Background(), id, "teleport")
	if !errors.Is(err, service.ErrUnknownCommand) {
		t.Errorf("Expected ErrUnknownCommand, got %v", err)
	}

	_, err = svc.BulkCommand(context.Background(), id, []string{"left", "teleport"}, false)
	if !errors.Is(err, service.ErrUnknownCommand) {
		t.Errorf("Expected ErrUnknownCommand from bulk, got %v", err)
	}
}

func TestGameService_SessionNotFoundIsWrapped(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetGameState(context.Background(), "missing")
	if !errors.Is(err, errNotFound) {
		t.Errorf("Expected wrapped session error, got %v", err)
	}
}

func TestGameService_PauseGating(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	result, err := svc.Command(ctx, id, "pause")
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !result.GameState.Paused {
		t.Fatal("Expected game to be paused")
	}
	if len(result.Events) != 1 || result.Events[0].Type != "pause" {
		t.Errorf("Expected a pause event, got %+v", result.Events)
	}

	for _, cmd := range []string{"left", "rotate", "hard_drop", "hold", "tick"} {
		result, err := svc.Command(ctx, id, cmd)
		if err != nil {
			t.Fatalf("%s: %v", cmd, err)
		}
		if result.Accepted {
			t.Errorf("Expected %s to be rejected while paused", cmd)
		}
	}

	tick, err := svc.Tick(ctx, id)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if tick.Accepted {
		t.Error("Expected gravity tick to be rejected while paused")
	}

	result, err = svc.Command(ctx, id, "pause")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if result.GameState.Paused || result.Events[0].Type != "resume" {
		t.Errorf("Expected resume, got paused=%v events=%+v", result.GameState.Paused, result.Events)
	}

	result, err = svc.Command(ctx, id, "left")
	if err != nil || !result.Accepted {
		t.Errorf("Expected left after resume to be accepted, got %v err=%v", result.Accepted, err)
	}
}

func TestGameService_ResetWhilePaused(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	svc.Command(ctx, id, "pause")
	result, err := svc.Command(ctx, id, "reset")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !result.Accepted || result.GameState.Status != engine.StatusRunning {
		t.Errorf("Expected reset to run while paused, got accepted=%v status=%s", result.Accepted, result.GameState.Status)
	}
}

func TestGameService_LineClearEvents(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager(), zap.NewNop())
	info, err := svc.CreateSession(ctx, "well")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	result, err := svc.BulkCommand(ctx, info.ID, []string{"left", "left", "left", "drop"}, false)
	if err != nil {
		t.Fatalf("BulkCommand: %v", err)
	}

	if result.LinesDelta != 2 {
		t.Errorf("Expected 2 lines, got %d", result.LinesDelta)
	}
	// hard drop 18 rows (36) + double (300)
	if result.ScoreDelta != 336 {
		t.Errorf("Expected score delta 336, got %d", result.ScoreDelta)
	}

	var types []string
	for _, ev := range result.Events {
		types = append(types, ev.Type)
	}
	want := []string{"hard_drop", "piece_locked", "line_clear"}
	if fmt.Sprint(types) != fmt.Sprint(want) {
		t.Errorf("Expected events %v, got %v", want, types)
	}
}

func TestGameService_BulkCommand(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	result, err := svc.BulkCommand(ctx, id, []string{"left", "left", "left", "left", "right"}, false)
	if err != nil {
		t.Fatalf("BulkCommand: %v", err)
	}
	if !result.Success {
		t.Errorf("Expected success, got stop %s", result.StopReasonCode)
	}
	if result.CommandsExecuted != 5 {
		t.Errorf("Expected 5 executed, got %d", result.CommandsExecuted)
	}
	// O spawns at column 3 and can only move left three times
	if result.CommandsAccepted != 4 {
		t.Errorf("Expected 4 accepted, got %d", result.CommandsAccepted)
	}
	if len(result.Steps) != 5 || result.Steps[3].Accepted {
		t.Errorf("Expected fourth step to be rejected, got %+v", result.Steps)
	}
	if result.GameState.Current.X != 1 {
		t.Errorf("Expected piece at x=1, got %d", result.GameState.Current.X)
	}
}

func TestGameService_BulkCommandTruncates(t *testing.T) {
	svc, id := newTestService(t)

	commands := make([]string, engine.MaxBulkCommands+10)
	for i := range commands {
		commands[i] = "rotate"
	}

	result, err := svc.BulkCommand(context.Background(), id, commands, false)
	if err != nil {
		t.Fatalf("BulkCommand: %v", err)
	}
	if !result.Truncated || result.Limit != engine.MaxBulkCommands {
		t.Errorf("Expected truncation at %d, got truncated=%v limit=%d", engine.MaxBulkCommands, result.Truncated, result.Limit)
	}
	if result.CommandsExecuted != engine.MaxBulkCommands {
		t.Errorf("Expected %d executed, got %d", engine.MaxBulkCommands, result.CommandsExecuted)
	}
	if result.RequestedCommands != engine.MaxBulkCommands+10 {
		t.Errorf("Expected requested %d, got %d", engine.MaxBulkCommands+10, result.RequestedCommands)
	}
}

func TestGameService_BulkCommandStopsOnPause(t *testing.T) {
	svc, id := newTestService(t)

	result, err := svc.BulkCommand(context.Background(), id, []string{"left", "pause", "left"}, false)
	if err != nil {
		t.Fatalf("BulkCommand: %v", err)
	}
	if result.StopReasonCode != "paused" || result.StoppedOnCommand != 2 {
		t.Errorf("Expected stop at command 2 (paused), got %s at %d", result.StopReasonCode, result.StoppedOnCommand)
	}
	if result.Success {
		t.Error("Expected success=false when stopped early")
	}
}

func TestGameService_BulkCommandStopsOnGameOver(t *testing.T) {
	svc, id := newTestService(t)

	commands := make([]string, engine.MaxBulkCommands)
	for i := range commands {
		commands[i] = "drop"
	}

	result, err := svc.BulkCommand(context.Background(), id, commands, false)
	if err != nil {
		t.Fatalf("BulkCommand: %v", err)
	}
	// O pieces stacked in one column: the stack reaches the spawn rows after 10 drops
	if !result.GameOver || result.StopReasonCode != "game_over" {
		t.Fatalf("Expected game over, got %+v", result)
	}
	if result.CommandsExecuted != 10 {
		t.Errorf("Expected 10 commands before game over, got %d", result.CommandsExecuted)
	}

	var sawGameOver bool
	for _, ev := range result.Events {
		if ev.Type == "game_over" {
			sawGameOver = true
		}
	}
	if !sawGameOver {
		t.Error("Expected a game_over event")
	}

	after, err := svc.Command(context.Background(), id, "left")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if after.Accepted {
		t.Error("Expected commands after game over to be rejected")
	}
}

func TestGameService_BulkCommandWithReset(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)
	svc.Command(ctx, id, "drop")

	result, err := svc.BulkCommand(ctx, id, []string{"left"}, true)
	if err != nil {
		t.Fatalf("BulkCommand: %v", err)
	}
	if result.GameState.PiecesPlaced != 0 {
		t.Errorf("Expected reset before commands, pieces placed = %d", result.GameState.PiecesPlaced)
	}
	if result.Events[0].Type != "reset" {
		t.Errorf("Expected reset event first, got %s", result.Events[0].Type)
	}
}

func TestGameService_Reset(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)
	svc.Command(ctx, id, "drop")

	state, err := svc.Reset(ctx, id)
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if state.Score != 0 || state.PiecesPlaced != 0 {
		t.Errorf("Expected fresh state, got score=%d pieces=%d", state.Score, state.PiecesPlaced)
	}

	if _, err := svc.Reset(ctx, "missing"); err == nil {
		t.Error("Expected error for missing session")
	}
}

func TestGameService_GetCommandHistory(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)

	commands := []string{"left", "right", "rotate", "left", "drop"}
	for _, cmd := range commands {
		if _, err := svc.Command(ctx, id, cmd); err != nil {
			t.Fatalf("Command(%s): %v", cmd, err)
		}
	}
	// gravity ticks are not history
	svc.Tick(ctx, id)

	tests := []struct {
		name      string
		opts      service.HistoryOptions
		wantFirst string
		wantLen   int
		wantNext  bool
	}{
		{"desc default", service.HistoryOptions{}, "hard_drop", 5, false},
		{"asc", service.HistoryOptions{Order: "asc"}, "left", 5, false},
		{"paged asc", service.HistoryOptions{Order: "asc", Limit: 2, Page: 2}, "rotate", 2, true},
		{"paged desc last page", service.HistoryOptions{Order: "desc", Limit: 2, Page: 3}, "left", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history, err := svc.GetCommandHistory(ctx, id, tt.opts)
			if err != nil {
				t.Fatalf("GetCommandHistory() error = %v", err)
			}
			if history.TotalCommands != 5 {
				t.Errorf("Expected 5 total commands, got %d", history.TotalCommands)
			}
			if len(history.Commands) != tt.wantLen {
				t.Fatalf("Expected %d commands, got %d", tt.wantLen, len(history.Commands))
			}
			if history.Commands[0].Command != tt.wantFirst {
				t.Errorf("Expected first command %s, got %s", tt.wantFirst, history.Commands[0].Command)
			}
			if history.HasNext != tt.wantNext {
				t.Errorf("Expected has_next %v, got %v", tt.wantNext, history.HasNext)
			}
		})
	}
}

func TestGameService_Suggest(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager(), zap.NewNop())
	info, err := svc.CreateSession(ctx, "well")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	result, err := svc.Suggest(ctx, info.ID)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if result.Plan == nil {
		t.Fatalf("Expected a plan, got message %q", result.Message)
	}
	if result.Plan.LinesCleared != 2 {
		t.Errorf("Expected plan to clear the well, got %d lines", result.Plan.LinesCleared)
	}

	commands := make([]string, len(result.Plan.Commands))
	for i, c := range result.Plan.Commands {
		commands[i] = string(c)
	}
	bulk, err := svc.BulkCommand(ctx, info.ID, commands, false)
	if err != nil {
		t.Fatalf("BulkCommand: %v", err)
	}
	if bulk.LinesDelta != 2 {
		t.Errorf("Expected following the plan to clear 2 lines, got %d", bulk.LinesDelta)
	}
}

func TestGameService_SuggestWhilePaused(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)
	svc.Command(ctx, id, "pause")

	result, err := svc.Suggest(ctx, id)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if result.Plan == nil || result.Plan.Commands[0] != engine.CommandPause {
		t.Errorf("Expected plan to start by resuming, got %+v", result.Plan)
	}
}

func TestGameService_EventListener(t *testing.T) {
	ctx := context.Background()
	var received []string
	svc, id := newTestService(t, service.WithEventListener(func(sessionID string, ev service.GameEvent) {
		received = append(received, sessionID+":"+ev.Type)
	}))

	svc.Command(ctx, id, "hold")
	svc.Reset(ctx, id)

	want := []string{id + ":hold", id + ":reset"}
	if fmt.Sprint(received) != fmt.Sprint(want) {
		t.Errorf("Expected %v, got %v", want, received)
	}
}

func TestGameService_ListAndDeleteSessions(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t)
	if _, err := svc.CreateSession(ctx, "well"); err != nil {
		t.Fatal(err)
	}

	sessions, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("Expected 2 sessions, got %d", len(sessions))
	}

	svc.Command(ctx, id, "left")
	info, err := svc.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if info.CommandCount != 1 {
		t.Errorf("Expected command count 1, got %d", info.CommandCount)
	}

	if err := svc.DeleteSession(ctx, id); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := svc.GetSession(ctx, id); err == nil {
		t.Error("Expected error after delete")
	}
	if err := svc.DeleteSession(ctx, id); err == nil {
		t.Error("Expected error deleting twice")
	}
}

// Run with -race: lookups refresh the access time while listings read it.
func TestGameService_ConcurrentSessionReads(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(session.NewManager(zap.NewNop()), NewMockConfigManager(), zap.NewNop())
	info, err := svc.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := svc.GetSession(ctx, info.ID); err != nil {
					t.Errorf("GetSession failed: %v", err)
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sessions, err := svc.ListSessions(ctx)
				if err != nil || len(sessions) != 1 {
					t.Errorf("ListSessions returned %d sessions, err %v", len(sessions), err)
					return
				}
				_ = sessions[0].LastAccessedAt
			}
		}()
	}
	wg.Wait()

	got, err := svc.GetSession(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.LastAccessedAt.Before(info.LastAccessedAt) {
		t.Errorf("Expected access time to move forward, got %v before %v", got.LastAccessedAt, info.LastAccessedAt)
	}
}

func TestGameService_Configs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	configs, err := svc.ListConfigs(ctx)
	if err != nil || len(configs) != 3 {
		t.Fatalf("Expected 3 configs, got %d (err=%v)", len(configs), err)
	}

	custom := &engine.GameConfig{Name: "custom", Description: "Custom", Gravity: true}
	if err := svc.SaveConfig(ctx, "custom", custom); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}
	loaded, err := svc.LoadConfig(ctx, "custom")
	if err != nil || !loaded.Gravity {
		t.Errorf("Expected saved config to load, got %+v err=%v", loaded, err)
	}

	if err := svc.SaveConfig(ctx, "bad", &engine.GameConfig{}); err == nil {
		t.Error("Expected invalid config to be rejected")
	}
}
