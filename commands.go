package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tetris/game/autoplay"
	"github.com/wricardo/mcp-training/tetris/game/engine"
)

// ValidationResult captures the outcome of validating a single preset.
// Notes holds informational lines for valid presets and the failures
// otherwise.
type ValidationResult struct {
	File  string
	Valid bool
	Notes []string
}

// validateConfig loads a preset the way the server does and checks that a
// game can start from it.
func validateConfig(path string) ValidationResult {
	result := ValidationResult{File: filepath.Base(path), Valid: true}

	cfg, err := engine.LoadGameConfig(path)
	if err != nil {
		result.Valid = false
		result.Notes = append(result.Notes, err.Error())
		return result
	}

	eng, err := engine.NewEngine(cfg)
	if err != nil {
		result.Valid = false
		result.Notes = append(result.Notes, fmt.Sprintf("engine rejected config: %v", err))
		return result
	}
	if eng.IsGameOver() {
		result.Valid = false
		result.Notes = append(result.Notes, "first piece cannot spawn on the preset layout")
		return result
	}

	board := eng.Board()
	heights := engine.ColumnHeights(board)
	mode := "turn-based"
	if cfg.Gravity {
		mode = "gravity"
	}
	result.Notes = append(result.Notes,
		fmt.Sprintf("✓ %s (%s)", cfg.Name, mode),
		fmt.Sprintf("✓ %d layout rows, %d filled cells, %d holes", len(cfg.Layout), engine.CountFilledCells(board), engine.CountHoles(board)),
		fmt.Sprintf("✓ max height %d, bumpiness %d", engine.MaxHeight(heights), engine.Bumpiness(heights)),
	)
	if cfg.Seed != 0 {
		result.Notes = append(result.Notes, fmt.Sprintf("✓ fixed seed %d", cfg.Seed))
	}
	return result
}

// validateDir validates every *.json preset in dir
func validateDir(dir string) ([]ValidationResult, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("find config files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no config files in %s", dir)
	}

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, validateConfig(file))
	}
	return results, nil
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	results, err := validateDir(cmd.String("config-dir"))
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	if w == nil {
		w = os.Stdout
	}

	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)
		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, note := range result.Notes {
				fmt.Fprintln(w, "  "+note)
			}
			continue
		}
		allValid = false
		fmt.Fprintln(w, "❌ INVALID")
		for _, note := range result.Notes {
			fmt.Fprintln(w, "  ❌ "+note)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if !allValid {
		return cli.Exit("❌ Some configurations have errors", 1)
	}
	fmt.Fprintln(w, "✅ All configurations are valid!")
	return nil
}

// runAutoplay lets the planner play one game. With --server it drives a
// remote session through the REST API instead of a local engine.
func runAutoplay(ctx context.Context, cmd *cli.Command) error {
	logger, err := loggerFor(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	preset := cmd.String("preset")
	maxPieces := cmd.Int("pieces")

	if serverURL := cmd.String("server"); serverURL != "" {
		client := autoplay.NewClient(serverURL)
		if _, err := client.CreateSession(ctx, preset); err != nil {
			return fmt.Errorf("create remote session: %w", err)
		}
		logger.Info("playing remote session",
			zap.String("server", serverURL),
			zap.String("session", client.SessionID()))

		state, err := autoplay.PlayRemote(ctx, client, maxPieces, logger)
		if err != nil {
			return err
		}
		logger.Info("remote game finished",
			zap.String("session", client.SessionID()),
			zap.Int("pieces", state.PiecesPlaced),
			zap.Int("score", state.Score),
			zap.Int("lines", state.Lines),
			zap.Int("level", state.Level),
			zap.Bool("game_over", state.GameOver))
		return nil
	}

	svc, err := initializeServices(cmd.String("config-dir"), logger)
	if err != nil {
		return err
	}
	cfg := svc.configs.GetDefault()
	if preset != "" {
		if cfg, err = svc.configs.LoadConfig(preset); err != nil {
			return err
		}
	}

	eng, err := engine.NewEngine(cfg)
	if err != nil {
		return err
	}

	player := autoplay.NewPlayer(autoplay.NewPlanner(), logger, cmd.Bool("hold"))
	result, err := player.Play(ctx, eng, maxPieces)
	if err != nil {
		return err
	}

	logger.Info("game finished",
		zap.String("config", cfg.Name),
		zap.Int("pieces", result.Pieces),
		zap.Int("score", result.Score),
		zap.Int("lines", result.Lines),
		zap.Int("level", result.Level),
		zap.Bool("game_over", result.GameOver),
		zap.Duration("duration", result.Duration))
	return nil
}
