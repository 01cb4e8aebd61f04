package autoplay

import (
	"github.com/kamstrup/intmap"

	"github.com/wricardo/mcp-training/tetris/game/engine"
)

// Weights scores a resulting board. Positive weights reward, negative
// weights penalise.
type Weights struct {
	AggregateHeight float64
	Lines           float64
	Holes           float64
	Bumpiness       float64
}

// DefaultWeights are tuned for survival rather than tetrises
var DefaultWeights = Weights{
	AggregateHeight: -0.510066,
	Lines:           0.760666,
	Holes:           -0.35663,
	Bumpiness:       -0.184483,
}

const defaultCacheSize = 4096

// Plan is one candidate placement and the commands that reach it from the
// piece's current position.
type Plan struct {
	Piece           string           `json:"piece"`
	UseHold         bool             `json:"use_hold"`
	Rotations       int              `json:"rotations"`
	X               int              `json:"x"`
	Y               int              `json:"y"`
	Commands        []engine.Command `json:"commands"`
	Score           float64          `json:"score"`
	LinesCleared    int              `json:"lines_cleared"`
	Holes           int              `json:"holes"`
	AggregateHeight int              `json:"aggregate_height"`
	Bumpiness       int              `json:"bumpiness"`
}

// Planner searches every reachable rotation and column for the current
// piece. Board evaluations are cached by occupancy fingerprint. A Planner is
// not safe for concurrent use.
type Planner struct {
	weights  Weights
	cache    *intmap.Map[uint64, float64]
	maxCache int
	hits     int
	misses   int
}

// PlannerOption customises a Planner
type PlannerOption func(*Planner)

// WithWeights replaces DefaultWeights
func WithWeights(w Weights) PlannerOption {
	return func(p *Planner) { p.weights = w }
}

// WithCacheSize bounds the evaluation cache. It is cleared when full.
func WithCacheSize(n int) PlannerOption {
	return func(p *Planner) { p.maxCache = n }
}

// NewPlanner creates a planner with DefaultWeights
func NewPlanner(opts ...PlannerOption) *Planner {
	p := &Planner{
		weights:  DefaultWeights,
		maxCache: defaultCacheSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cache = intmap.New[uint64, float64](p.maxCache)
	return p
}

// Best returns the highest scoring placement of current on board. When
// alternative is non-nil it is the piece a hold would bring in, and its
// placements are considered too. ok is false when nothing can be placed
// without topping out.
func (p *Planner) Best(board *engine.Board, current, alternative *engine.Piece) (plan *Plan, ok bool) {
	plan, ok = p.best(board, current, false)
	if alternative == nil {
		return plan, ok
	}

	alt, altOK := p.best(board, alternative, true)
	if altOK && (!ok || alt.Score > plan.Score) {
		return alt, true
	}
	return plan, ok
}

// Candidates returns every non-topping placement of piece, in search order
func (p *Planner) Candidates(board *engine.Board, piece *engine.Piece) []*Plan {
	var plans []*Plan
	p.search(board, piece, false, func(plan *Plan) {
		plans = append(plans, plan)
	})
	return plans
}

// CacheStats reports evaluation cache hits, misses and current size
func (p *Planner) CacheStats() (hits, misses, size int) {
	return p.hits, p.misses, p.cache.Len()
}

func (p *Planner) best(board *engine.Board, piece *engine.Piece, useHold bool) (*Plan, bool) {
	var best *Plan
	p.search(board, piece, useHold, func(plan *Plan) {
		if best == nil || plan.Score > best.Score {
			best = plan
		}
	})
	return best, best != nil
}

func (p *Planner) search(board *engine.Board, start *engine.Piece, useHold bool, visit func(*Plan)) {
	piece := start.Copy()
	for rotations := 0; rotations < 4; rotations++ {
		if rotations > 0 {
			rotated, ok := board.TryRotate(piece)
			if !ok {
				return
			}
			piece = rotated
		}
		p.slide(board, piece, rotations, useHold, visit)
	}
}

// slide evaluates the piece at its own column and every column reachable
// by repeated left or right moves.
func (p *Planner) slide(board *engine.Board, piece *engine.Piece, rotations int, useHold bool, visit func(*Plan)) {
	for _, dir := range []int{-1, 1} {
		q := piece.Copy()
		steps := 0
		for {
			if dir < 0 || steps > 0 {
				if plan := p.evaluate(board, q, rotations, dir, steps, useHold); plan != nil {
					visit(plan)
				}
			}
			if !board.CanPlace(q, q.X+dir, q.Y) {
				break
			}
			q.X += dir
			steps++
		}
	}
}

func (p *Planner) evaluate(board *engine.Board, piece *engine.Piece, rotations, dir, steps int, useHold bool) *Plan {
	y := board.DropY(piece)
	after := board.Clone()
	if after.Place(piece, piece.X, y) {
		return nil
	}
	lines := after.ClearFullLines()

	heights := engine.ColumnHeights(after)
	plan := &Plan{
		Piece:           piece.Type.String(),
		UseHold:         useHold,
		Rotations:       rotations,
		X:               piece.X,
		Y:               y,
		Commands:        commandsFor(useHold, rotations, dir, steps),
		LinesCleared:    lines,
		Holes:           engine.CountHoles(after),
		AggregateHeight: engine.AggregateHeight(heights),
		Bumpiness:       engine.Bumpiness(heights),
	}
	plan.Score = p.boardScore(after, plan) + p.weights.Lines*float64(lines)
	return plan
}

func (p *Planner) boardScore(board *engine.Board, plan *Plan) float64 {
	key := board.Fingerprint()
	if score, ok := p.cache.Get(key); ok {
		p.hits++
		return score
	}
	p.misses++

	score := p.weights.AggregateHeight*float64(plan.AggregateHeight) +
		p.weights.Holes*float64(plan.Holes) +
		p.weights.Bumpiness*float64(plan.Bumpiness)

	if p.cache.Len() >= p.maxCache {
		p.cache.Clear()
	}
	p.cache.Put(key, score)
	return score
}

func commandsFor(useHold bool, rotations, dir, steps int) []engine.Command {
	cmds := make([]engine.Command, 0, rotations+steps+2)
	if useHold {
		cmds = append(cmds, engine.CommandHold)
	}
	for i := 0; i < rotations; i++ {
		cmds = append(cmds, engine.CommandRotate)
	}
	move := engine.CommandLeft
	if dir > 0 {
		move = engine.CommandRight
	}
	for i := 0; i < steps; i++ {
		cmds = append(cmds, move)
	}
	return append(cmds, engine.CommandHardDrop)
}
