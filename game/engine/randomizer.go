package engine

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Randomizer produces the sequence of upcoming piece types
type Randomizer interface {
	Next() PieceType
}

// UniformRandomizer draws each piece independently and uniformly from the
// seven types. Repeats are possible; there is no bag.
type UniformRandomizer struct {
	rng *rand.Rand
}

// NewRandomizer wraps an explicit randomness source.
func NewRandomizer(src rand.Source) *UniformRandomizer {
	return &UniformRandomizer{rng: rand.New(src)}
}

// NewSeededRandomizer returns a reproducible randomizer. A zero seed is
// replaced with the current time.
func NewSeededRandomizer(seed uint64) *UniformRandomizer {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return NewRandomizer(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Next returns the next piece type
func (r *UniformRandomizer) Next() PieceType {
	return PieceType(r.rng.IntN(len(AllPieceTypes()))) + PieceI
}

// SequenceRandomizer replays a fixed list of piece types, cycling forever.
// Used by drills and tests that need a known piece order.
type SequenceRandomizer struct {
	types []PieceType
	i     int
	mu    sync.Mutex
}

// NewSequenceRandomizer creates a randomizer cycling through types.
func NewSequenceRandomizer(types ...PieceType) *SequenceRandomizer {
	if len(types) == 0 {
		types = AllPieceTypes()
	}
	return &SequenceRandomizer{types: types}
}

// Next returns the next piece type in the sequence
func (s *SequenceRandomizer) Next() PieceType {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.types[s.i]
	s.i = (s.i + 1) % len(s.types)
	return t
}
