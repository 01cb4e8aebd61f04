package autoplay

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tetris/game/engine"
)

// Result summarises an autoplay run
type Result struct {
	Pieces   int           `json:"pieces"`
	Score    int           `json:"score"`
	Lines    int           `json:"lines"`
	Level    int           `json:"level"`
	GameOver bool          `json:"game_over"`
	Duration time.Duration `json:"duration"`
}

// Player drives an engine with the planner's best placement for every piece
type Player struct {
	planner *Planner
	logger  *zap.Logger
	useHold bool
}

// NewPlayer creates a player. A nil logger discards output.
func NewPlayer(planner *Planner, logger *zap.Logger, useHold bool) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{planner: planner, logger: logger, useHold: useHold}
}

// HoldCandidate returns the piece a hold would bring into play, at the spawn
// anchor, or nil when holding is not allowed.
func HoldCandidate(eng engine.Engine) *engine.Piece {
	if !eng.CanHold() {
		return nil
	}
	if held := eng.Held(); held != nil {
		return engine.Spawn(held.Type)
	}
	return engine.Spawn(eng.Next().Type)
}

// Play places pieces until the game ends, maxPieces have been placed
// (0 means no limit) or ctx is cancelled.
func (p *Player) Play(ctx context.Context, eng engine.Engine, maxPieces int) (*Result, error) {
	start := time.Now()
	if eng.IsPaused() {
		eng.TogglePause()
	}

	placed := 0
	for !eng.IsGameOver() && (maxPieces == 0 || placed < maxPieces) {
		if err := ctx.Err(); err != nil {
			return p.result(eng, placed, start), err
		}

		var alternative *engine.Piece
		if p.useHold {
			alternative = HoldCandidate(eng)
		}

		plan, ok := p.planner.Best(eng.Board(), eng.Current(), alternative)
		if !ok {
			p.logger.Debug("no safe placement, dropping in place")
			eng.HardDrop()
			placed++
			continue
		}

		for _, cmd := range plan.Commands {
			eng.Apply(cmd)
		}
		placed++

		p.logger.Debug("placed piece",
			zap.String("piece", plan.Piece),
			zap.Bool("hold", plan.UseHold),
			zap.Int("x", plan.X),
			zap.Int("rotations", plan.Rotations),
			zap.Int("lines", plan.LinesCleared),
			zap.Int("score", eng.GetScore()))
	}

	hits, misses, size := p.planner.CacheStats()
	p.logger.Info("autoplay finished",
		zap.Int("pieces", placed),
		zap.Int("score", eng.GetScore()),
		zap.Int("lines", eng.GetLines()),
		zap.Bool("game_over", eng.IsGameOver()),
		zap.Int("cache_hits", hits),
		zap.Int("cache_misses", misses),
		zap.Int("cache_size", size))

	return p.result(eng, placed, start), nil
}

func (p *Player) result(eng engine.Engine, placed int, start time.Time) *Result {
	return &Result{
		Pieces:   placed,
		Score:    eng.GetScore(),
		Lines:    eng.GetLines(),
		Level:    eng.GetLevel(),
		GameOver: eng.IsGameOver(),
		Duration: time.Since(start),
	}
}
