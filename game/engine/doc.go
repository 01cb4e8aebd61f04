// Package engine provides the core game logic for the falling-block puzzle.
//
// The engine package implements the game mechanics including:
//   - The seven-piece catalog with canonical masks and colours
//   - Board collision checks, placement and line clearing
//   - Rotation with a small fixed wall-kick table
//   - Scoring, level and gravity speed progression
//   - The hold/next pipeline and game over detection
//   - Configuration loading and validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState is an immutable snapshot handed to
// adapters, while GameConfig describes a preset (seed, gravity, starting
// layout) loaded from JSON files.
//
// Usage:
//
//	config, err := engine.LoadConfigByName("classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.Rotate()
//	gameEngine.HardDrop()
//	state := gameEngine.GetState()
//
// Game Rules:
//
// Pieces spawn at the top of a 20x10 board and fall one row per tick.
// Completed rows are removed and score 100/300/500/800 times the level.
// Every ten cleared lines raise the level and shorten the tick interval.
// The game ends when a piece locks above the board or the next piece has
// no room to spawn.
//
// GameEngine is not synchronised. The service package serialises access.
package engine
