package engine

import "time"

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Reset() *GameState
	Status() Status
	IsGameOver() bool
	IsPaused() bool
	GetScore() int
	GetLevel() int
	GetLines() int
	GetTickInterval() time.Duration

	// Piece operations
	MoveLeft() bool
	MoveRight() bool
	Tick() bool
	SoftDrop() bool
	HardDrop() (int, bool)
	Rotate() bool
	Hold() bool
	TogglePause() Status
	Apply(cmd Command) bool

	// Observation
	Board() *Board
	Current() *Piece
	Next() *Piece
	Held() *Piece
	CanHold() bool
	GhostY() int
	Subscribe(listener Listener)

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error
}

var _ Engine = (*GameEngine)(nil)

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; callers serialise access.
type GameEngine struct {
	config           *GameConfig
	randomizer       Randomizer
	customRandomizer bool

	board   *Board
	current *Piece
	next    *Piece
	held    *Piece
	canHold bool

	score        int
	level        int
	lines        int
	piecesPlaced int
	status       Status
	tickInterval time.Duration

	listeners []Listener
}

// Option customises a GameEngine at construction
type Option func(*GameEngine)

// WithRandomizer injects the piece source instead of seeding one from the
// config.
func WithRandomizer(r Randomizer) Option {
	return func(e *GameEngine) {
		e.randomizer = r
		e.customRandomizer = true
	}
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{config: config}
	for _, opt := range opts {
		opt(e)
	}
	if e.randomizer == nil {
		e.randomizer = NewSeededRandomizer(config.Seed)
	}

	e.init()
	return e, nil
}

// NewEngineWithDefaults creates a new game engine on an empty board
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	e, err := NewEngine(DefaultGameConfig(), opts...)
	if err != nil {
		// the built-in config always validates
		panic(err)
	}
	return e
}

func (e *GameEngine) init() {
	board, err := BoardFromLayout(e.config.Layout)
	if err != nil {
		board = NewBoard()
	}

	e.board = board
	e.current = Spawn(e.randomizer.Next())
	e.next = Spawn(e.randomizer.Next())
	e.held = nil
	e.canHold = true
	e.score = 0
	e.level = InitialLevel
	e.lines = 0
	e.piecesPlaced = 0
	e.status = StatusRunning
	e.tickInterval = InitialTickInterval
}

// Subscribe registers a callback invoked synchronously for every event
func (e *GameEngine) Subscribe(listener Listener) {
	e.listeners = append(e.listeners, listener)
}

func (e *GameEngine) emit(ev Event) {
	for _, l := range e.listeners {
		l(ev)
	}
}

// GetState returns a snapshot of the current game state
func (e *GameEngine) GetState() *GameState {
	heights := ColumnHeights(e.board)
	state := &GameState{
		Board:          e.board.Rows(),
		Current:        e.current.state(),
		Next:           e.next.state(),
		Held:           e.held.state(),
		CanHold:        e.canHold,
		Score:          e.score,
		Level:          e.level,
		Lines:          e.lines,
		Status:         e.status,
		Paused:         e.status == StatusPaused,
		GameOver:       e.status == StatusGameOver,
		TickIntervalMs: e.tickInterval.Milliseconds(),
		PiecesPlaced:   e.piecesPlaced,
		ConfigName:     e.config.Name,
		ColumnHeights:  heights,
		Holes:          CountHoles(e.board),
		StackRisk:      AnalyzeStackRisk(e.board),
	}
	if e.status != StatusGameOver {
		state.Ghost = &Position{X: e.current.X, Y: e.GhostY()}
	}
	return state
}

// Reset discards the running game and starts a new one
func (e *GameEngine) Reset() *GameState {
	e.init()
	e.emit(Event{Type: EventReset})
	return e.GetState()
}

// Status returns the state machine position
func (e *GameEngine) Status() Status {
	return e.status
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.status == StatusGameOver
}

// IsPaused returns whether the game is paused
func (e *GameEngine) IsPaused() bool {
	return e.status == StatusPaused
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.score
}

// GetLevel returns the current level
func (e *GameEngine) GetLevel() int {
	return e.level
}

// GetLines returns the total number of cleared lines
func (e *GameEngine) GetLines() int {
	return e.lines
}

// GetTickInterval returns the gravity period for the current level
func (e *GameEngine) GetTickInterval() time.Duration {
	return e.tickInterval
}

// Board returns a copy of the playfield
func (e *GameEngine) Board() *Board {
	return e.board.Clone()
}

// Current returns a copy of the falling piece
func (e *GameEngine) Current() *Piece {
	return e.current.Copy()
}

// Next returns a copy of the upcoming piece
func (e *GameEngine) Next() *Piece {
	return e.next.Copy()
}

// Held returns a copy of the held piece, or nil
func (e *GameEngine) Held() *Piece {
	if e.held == nil {
		return nil
	}
	return e.held.Copy()
}

// CanHold reports whether Hold is currently allowed
func (e *GameEngine) CanHold() bool {
	return e.canHold
}

// GhostY returns the lowest row the current piece can reach at its column
func (e *GameEngine) GhostY() int {
	return e.board.DropY(e.current)
}

// MoveLeft shifts the current piece one column left if it fits
func (e *GameEngine) MoveLeft() bool {
	return e.shift(-1)
}

// MoveRight shifts the current piece one column right if it fits
func (e *GameEngine) MoveRight() bool {
	return e.shift(1)
}

func (e *GameEngine) shift(dx int) bool {
	if e.status == StatusGameOver {
		return false
	}
	if !e.board.CanPlace(e.current, e.current.X+dx, e.current.Y) {
		return false
	}
	e.current.X += dx
	return true
}

// Tick moves the current piece down one row, or locks it when it cannot
// move.
func (e *GameEngine) Tick() bool {
	if e.status == StatusGameOver {
		return false
	}
	if e.board.CanPlace(e.current, e.current.X, e.current.Y+1) {
		e.current.Y++
		return true
	}
	e.placeCurrent()
	return true
}

// SoftDrop is the player-initiated form of Tick
func (e *GameEngine) SoftDrop() bool {
	return e.Tick()
}

// HardDrop drops the current piece as far as it goes, awards two points per
// row and locks it. It returns the distance travelled.
func (e *GameEngine) HardDrop() (int, bool) {
	if e.status == StatusGameOver {
		return 0, false
	}

	distance := 0
	for e.board.CanPlace(e.current, e.current.X, e.current.Y+1) {
		e.current.Y++
		distance++
	}

	points := HardDropPoints(distance)
	e.score += points
	e.emit(Event{Type: EventHardDrop, Piece: e.current.Type, Distance: distance, Points: points})

	e.placeCurrent()
	return distance, true
}

// Rotate turns the current piece clockwise, trying the wall kicks when the
// in-place rotation collides.
func (e *GameEngine) Rotate() bool {
	if e.status == StatusGameOver {
		return false
	}

	rotated, ok := e.board.TryRotate(e.current)
	if !ok {
		return false
	}
	e.current = rotated
	return true
}

// Hold sets the current piece aside. Only one hold is allowed per placed
// piece.
func (e *GameEngine) Hold() bool {
	if e.status == StatusGameOver || !e.canHold {
		return false
	}

	if e.held == nil {
		e.held = Spawn(e.current.Type)
		e.current = e.next
		e.next = Spawn(e.randomizer.Next())
	} else {
		swapped := e.current.Type
		e.current = Spawn(e.held.Type)
		e.held = Spawn(swapped)
	}

	e.canHold = false
	e.emit(Event{Type: EventHold, Piece: e.held.Type})
	return true
}

// TogglePause switches between running and paused. The command is always
// accepted but is a no-op in game over, which only Reset leaves.
func (e *GameEngine) TogglePause() Status {
	switch e.status {
	case StatusRunning:
		e.status = StatusPaused
		e.emit(Event{Type: EventPause})
	case StatusPaused:
		e.status = StatusRunning
		e.emit(Event{Type: EventResume})
	}
	return e.status
}

// Apply dispatches a named command and reports whether it changed anything
func (e *GameEngine) Apply(cmd Command) bool {
	switch cmd {
	case CommandLeft:
		return e.MoveLeft()
	case CommandRight:
		return e.MoveRight()
	case CommandTick:
		return e.Tick()
	case CommandSoftDrop:
		return e.SoftDrop()
	case CommandHardDrop:
		_, ok := e.HardDrop()
		return ok
	case CommandRotate:
		return e.Rotate()
	case CommandHold:
		return e.Hold()
	case CommandPause:
		before := e.status
		return e.TogglePause() != before
	case CommandReset:
		e.Reset()
		return true
	default:
		return false
	}
}

// placeCurrent merges the current piece into the board, scores cleared
// lines and promotes the next piece.
func (e *GameEngine) placeCurrent() {
	if e.board.Place(e.current, e.current.X, e.current.Y) {
		e.endGame(GameOverTopOut)
		return
	}

	e.piecesPlaced++
	cleared := e.board.ClearFullLines()
	e.emit(Event{Type: EventPieceLocked, Piece: e.current.Type, Lines: cleared})
	if cleared > 0 {
		e.applyLines(cleared)
	}

	e.current = e.next
	e.next = Spawn(e.randomizer.Next())
	e.canHold = true

	if !e.board.CanPlace(e.current, e.current.X, e.current.Y) {
		e.endGame(GameOverSpawnBlocked)
	}
}

func (e *GameEngine) applyLines(cleared int) {
	points := PointsForLines(cleared, e.level)
	e.score += points
	e.lines += cleared

	previous := e.level
	e.level = LevelForLines(e.lines)
	e.tickInterval = TickIntervalForLevel(e.level)

	e.emit(Event{Type: EventLineClear, Lines: cleared, Points: points, Level: e.level})
	if e.level > previous {
		e.emit(Event{Type: EventLevelUp, Level: e.level})
	}
}

func (e *GameEngine) endGame(reason string) {
	e.status = StatusGameOver
	e.emit(Event{Type: EventGameOver, Reason: reason, Piece: e.current.Type})
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and resets the game
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	e.config = config
	if !e.customRandomizer {
		e.randomizer = NewSeededRandomizer(config.Seed)
	}
	e.init()
	return nil
}
