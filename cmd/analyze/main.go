// Command analyze prints stack statistics for the game presets in the
// configs directory: column heights, holes, bumpiness, wells and rows that
// are one cell away from clearing.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/tetris/game/engine"
)

// Analysis summarises the starting board of one preset.
type Analysis struct {
	Name       string
	Gravity    bool
	Heights    []int
	MaxHeight  int
	Holes      int
	Bumpiness  int
	Filled     int
	Wells      []Well
	NearlyFull []int // board rows with a single gap
	StackRisk  string
	LayoutRows int
	FixedSeed  bool
}

// Well is a column at least MinWellDepth lower than both neighbours (the
// walls count as infinitely high).
type Well struct {
	Column int
	Depth  int
}

const MinWellDepth = 3

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(files) == 0 {
		fmt.Printf("No configs found in %s\n", dir)
		os.Exit(1)
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		cfg, err := engine.LoadGameConfig(file)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			continue
		}
		a, err := analyze(cfg)
		if err != nil {
			fmt.Printf("Error building board: %v\n", err)
			continue
		}
		report(os.Stdout, a)
	}
}

func analyze(cfg *engine.GameConfig) (*Analysis, error) {
	board, err := engine.BoardFromLayout(cfg.Layout)
	if err != nil {
		return nil, err
	}

	heights := engine.ColumnHeights(board)
	return &Analysis{
		Name:       cfg.Name,
		Gravity:    cfg.Gravity,
		Heights:    heights,
		MaxHeight:  engine.MaxHeight(heights),
		Holes:      engine.CountHoles(board),
		Bumpiness:  engine.Bumpiness(heights),
		Filled:     engine.CountFilledCells(board),
		Wells:      findWells(heights),
		NearlyFull: nearlyFullRows(board),
		StackRisk:  engine.AnalyzeStackRisk(board),
		LayoutRows: len(cfg.Layout),
		FixedSeed:  cfg.Seed != 0,
	}, nil
}

func findWells(heights []int) []Well {
	var wells []Well
	for col, h := range heights {
		left, right := engine.BoardHeight, engine.BoardHeight
		if col > 0 {
			left = heights[col-1]
		}
		if col < len(heights)-1 {
			right = heights[col+1]
		}
		depth := min(left, right) - h
		if depth >= MinWellDepth {
			wells = append(wells, Well{Column: col, Depth: depth})
		}
	}
	return wells
}

func nearlyFullRows(b *engine.Board) []int {
	var rows []int
	for row := 0; row < engine.BoardHeight; row++ {
		gaps := 0
		for col := 0; col < engine.BoardWidth; col++ {
			if !b.Occupied(row, col) {
				gaps++
			}
		}
		if gaps == 1 {
			rows = append(rows, row)
		}
	}
	return rows
}

func report(w io.Writer, a *Analysis) {
	mode := "turn-based"
	if a.Gravity {
		mode = "gravity"
	}
	fmt.Fprintf(w, "Name: %s (%s)\n", a.Name, mode)
	fmt.Fprintf(w, "Layout Rows: %d\n", a.LayoutRows)
	if a.FixedSeed {
		fmt.Fprintln(w, "Piece Sequence: fixed seed")
	}
	heights := make([]string, len(a.Heights))
	for i, h := range a.Heights {
		heights[i] = fmt.Sprint(h)
	}
	fmt.Fprintf(w, "Column Heights: %s\n", strings.Join(heights, " "))
	fmt.Fprintf(w, "Max Height: %d | Filled: %d | Holes: %d | Bumpiness: %d\n",
		a.MaxHeight, a.Filled, a.Holes, a.Bumpiness)
	fmt.Fprintf(w, "Stack: %s\n", a.StackRisk)

	for _, well := range a.Wells {
		fmt.Fprintf(w, "Well: column %d, depth %d\n", well.Column, well.Depth)
	}
	if len(a.NearlyFull) > 0 {
		fmt.Fprintf(w, "✅ %d row(s) one cell from clearing\n", len(a.NearlyFull))
	}
	if a.Holes > 0 {
		fmt.Fprintf(w, "⚠️  %d covered hole(s) in the starting stack\n", a.Holes)
	}
}
