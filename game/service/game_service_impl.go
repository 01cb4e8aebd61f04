package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tetris/game/autoplay"
	"github.com/wricardo/mcp-training/tetris/game/engine"
)

// gameServiceImpl implements the GameService interface. One mutex
// serialises every engine call across sessions.
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   *zap.Logger
	planner  *autoplay.Planner
	listener EventListener
	mu       sync.RWMutex
}

// Option customises the game service
type Option func(*gameServiceImpl)

// WithEventListener forwards every game event to l
func WithEventListener(l EventListener) Option {
	return func(s *gameServiceImpl) { s.listener = l }
}

// WithPlanner replaces the default suggestion planner
func WithPlanner(p *autoplay.Planner) Option {
	return func(s *gameServiceImpl) { s.planner = p }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, logger *zap.Logger, opts ...Option) GameService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.planner == nil {
		s.planner = autoplay.NewPlanner()
	}
	return s
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		CommandCount:   len(sess.History),
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			availableConfigs, listErr := s.configs.ListConfigs()
			if listErr == nil && len(availableConfigs) > 0 {
				configIDs := make([]string, 0, len(availableConfigs))
				for _, cfg := range availableConfigs {
					configIDs = append(configIDs, cfg.ConfigID)
				}
				return nil, fmt.Errorf("config '%s' (available: %v): %w", configName, configIDs, err)
			}
			return nil, fmt.Errorf("config '%s': %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	s.logger.Info("session created",
		zap.String("session", session.ID),
		zap.String("config", configID),
		zap.Bool("gravity", config.Gravity))

	return s.sessionInfo(session, configID), nil
}

// GetSession retrieves session information
// It takes the write lock because it touches the access time that
// sessionInfo reads.
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(session, s.getConfigID(session.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.logger.Info("session deleted", zap.String("session", sessionID))
	return nil
}

// Command executes a single named command for a session
func (s *gameServiceImpl) Command(ctx context.Context, sessionID, command string) (*CommandResult, error) {
	cmd, err := parseCommand(command)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	accepted, message := s.apply(sess, cmd)
	s.record(sess, cmd, accepted)

	s.logger.Debug("command",
		zap.String("session", sess.ID),
		zap.String("command", string(cmd)),
		zap.Bool("accepted", accepted))

	return &CommandResult{
		Command:   string(cmd),
		Accepted:  accepted,
		GameState: sess.Engine.GetState(),
		Message:   message,
		Events:    s.collectEvents(sess),
	}, nil
}

// Tick advances gravity by one row. Ticks are not recorded in the command
// history.
func (s *gameServiceImpl) Tick(ctx context.Context, sessionID string) (*CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	accepted, message := s.apply(sess, engine.CommandTick)
	return &CommandResult{
		Command:   string(engine.CommandTick),
		Accepted:  accepted,
		GameState: sess.Engine.GetState(),
		Message:   message,
		Events:    s.collectEvents(sess),
	}, nil
}

// BulkCommand executes a sequence of commands, stopping early when the game
// ends or is paused.
func (s *gameServiceImpl) BulkCommand(ctx context.Context, sessionID string, commands []string, reset bool) (*BulkCommandResult, error) {
	if len(commands) == 0 && !reset {
		return nil, fmt.Errorf("no commands provided")
	}

	requested := len(commands)
	truncated := false
	if len(commands) > engine.MaxBulkCommands {
		commands = commands[:engine.MaxBulkCommands]
		truncated = true
	}

	parsed := make([]engine.Command, len(commands))
	for i, name := range commands {
		cmd, err := parseCommand(name)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i+1, err)
		}
		parsed[i] = cmd
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	eng := sess.Engine
	if reset {
		eng.Reset()
		s.record(sess, engine.CommandReset, true)
	}

	startScore, startLines := eng.GetScore(), eng.GetLines()
	result := &BulkCommandResult{
		RequestedCommands: requested,
		Truncated:         truncated,
		Steps:             make([]StepInfo, 0, len(parsed)),
	}
	if truncated {
		result.Limit = engine.MaxBulkCommands
	}

	for i, cmd := range parsed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		accepted, message := s.apply(sess, cmd)
		s.record(sess, cmd, accepted)

		result.CommandsExecuted++
		if accepted {
			result.CommandsAccepted++
		}
		cur := eng.Current()
		result.Steps = append(result.Steps, StepInfo{
			Idx:      i + 1,
			Command:  string(cmd),
			Accepted: accepted,
			Piece:    cur.Type.String(),
			X:        cur.X,
			Y:        cur.Y,
			Score:    eng.GetScore(),
			Lines:    eng.GetLines(),
		})
		if message != "" {
			result.Message = message
		}

		if eng.IsGameOver() && cmd != engine.CommandReset {
			result.StopReasonCode = "game_over"
			result.StoppedReason = "Game over"
			result.StoppedOnCommand = i + 1
			break
		}
		if eng.IsPaused() && i < len(parsed)-1 {
			result.StopReasonCode = "paused"
			result.StoppedReason = "Game is paused"
			result.StoppedOnCommand = i + 1
			break
		}
	}

	state := eng.GetState()
	result.Success = result.StopReasonCode == ""
	result.GameState = state
	result.GameOver = state.GameOver
	result.StackRisk = state.StackRisk
	result.ScoreDelta = state.Score - startScore
	result.LinesDelta = state.Lines - startLines
	result.Events = s.collectEvents(sess)

	s.logger.Debug("bulk command",
		zap.String("session", sess.ID),
		zap.Int("executed", result.CommandsExecuted),
		zap.Int("requested", requested),
		zap.String("stop", result.StopReasonCode),
		zap.Int("score_delta", result.ScoreDelta))

	return result, nil
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	state := sess.Engine.Reset()
	s.record(sess, engine.CommandReset, true)
	s.collectEvents(sess)

	return state, nil
}

// GetGameState returns the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	return sess.Engine.GetState(), nil
}

// GetCommandHistory returns paginated command history
func (s *gameServiceImpl) GetCommandHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	history := sess.History
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	commands := []CommandHistoryEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			commands = append(commands, history[i])
		}
	} else if start < total {
		commands = append(commands, history[start:end]...)
	}

	return &HistoryResponse{
		Commands:      commands,
		TotalCommands: total,
		Page:          opts.Page,
		PageSize:      opts.Limit,
		TotalPages:    totalPages,
		HasNext:       opts.Page < totalPages,
		HasPrevious:   opts.Page > 1,
	}, nil
}

// Suggest returns the planner's best placement for the current piece
func (s *gameServiceImpl) Suggest(ctx context.Context, sessionID string) (*SuggestResult, error) {
	// the planner cache is not synchronised, so take the write lock
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	eng := sess.Engine
	result := &SuggestResult{GameState: eng.GetState()}
	if eng.IsGameOver() {
		result.Message = "Game over - reset to play again"
		return result, nil
	}

	plan, ok := s.planner.Best(eng.Board(), eng.Current(), autoplay.HoldCandidate(eng))
	if !ok {
		result.Message = "No placement avoids topping out"
		return result, nil
	}
	if eng.IsPaused() {
		plan.Commands = append([]engine.Command{engine.CommandPause}, plan.Commands...)
	}

	result.Plan = plan
	return result, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// apply runs cmd against the session's engine. While paused only pause and
// reset get through; after game over only reset does.
func (s *gameServiceImpl) apply(sess *Session, cmd engine.Command) (bool, string) {
	eng := sess.Engine
	switch {
	case eng.IsGameOver() && cmd != engine.CommandReset:
		return false, "Game over - reset to play again"
	case eng.IsPaused() && cmd != engine.CommandPause && cmd != engine.CommandReset:
		return false, "Game is paused - send pause to resume"
	}

	if !eng.Apply(cmd) {
		return false, fmt.Sprintf("%s had no effect", cmd)
	}
	return true, ""
}

func (s *gameServiceImpl) record(sess *Session, cmd engine.Command, accepted bool) {
	eng := sess.Engine
	sess.History = append(sess.History, CommandHistoryEntry{
		Index:     len(sess.History) + 1,
		Command:   string(cmd),
		Accepted:  accepted,
		Timestamp: time.Now(),
		Piece:     eng.Current().Type.String(),
		Score:     eng.GetScore(),
		Lines:     eng.GetLines(),
		Level:     eng.GetLevel(),
		Status:    eng.Status(),
	})
}

// collectEvents converts pending engine events and forwards them to the
// listener.
func (s *gameServiceImpl) collectEvents(sess *Session) []GameEvent {
	raw := sess.drainEvents()
	if len(raw) == 0 {
		return nil
	}

	events := make([]GameEvent, 0, len(raw))
	now := time.Now()
	for _, ev := range raw {
		ge := GameEvent{
			Type:      string(ev.Type),
			Message:   eventMessage(ev),
			Timestamp: now,
			Lines:     ev.Lines,
			Points:    ev.Points,
			Level:     ev.Level,
			Distance:  ev.Distance,
		}
		if ev.Piece.Valid() {
			ge.Piece = ev.Piece.String()
		}
		events = append(events, ge)

		if s.listener != nil {
			s.listener(sess.ID, ge)
		}
		if ev.Type == engine.EventGameOver {
			s.logger.Info("game over",
				zap.String("session", sess.ID),
				zap.String("reason", ev.Reason),
				zap.Int("score", sess.Engine.GetScore()))
		}
	}
	return events
}

func eventMessage(ev engine.Event) string {
	switch ev.Type {
	case engine.EventLineClear:
		return fmt.Sprintf("Cleared %d line(s) for %d points", ev.Lines, ev.Points)
	case engine.EventLevelUp:
		return fmt.Sprintf("Level up! Now level %d", ev.Level)
	case engine.EventHold:
		return fmt.Sprintf("Holding %s", ev.Piece)
	case engine.EventHardDrop:
		return fmt.Sprintf("Hard drop %d rows (+%d)", ev.Distance, ev.Points)
	case engine.EventPieceLocked:
		return fmt.Sprintf("%s locked", ev.Piece)
	case engine.EventGameOver:
		if ev.Reason == engine.GameOverTopOut {
			return "Game over: piece locked above the board"
		}
		return "Game over: no room to spawn the next piece"
	case engine.EventPause:
		return "Game paused"
	case engine.EventResume:
		return "Game resumed"
	case engine.EventReset:
		return "Game reset to initial state"
	default:
		return string(ev.Type)
	}
}

func parseCommand(name string) (engine.Command, error) {
	cmd, err := engine.ParseCommand(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return cmd, nil
}
