package engine

// ColumnHeights returns, per column, the number of rows from the highest
// occupied cell down to the floor. Empty columns are 0.
func ColumnHeights(b *Board) []int {
	heights := make([]int, BoardWidth)
	for col := 0; col < BoardWidth; col++ {
		for row := 0; row < BoardHeight; row++ {
			if b.Occupied(row, col) {
				heights[col] = BoardHeight - row
				break
			}
		}
	}
	return heights
}

// AggregateHeight sums the column heights
func AggregateHeight(heights []int) int {
	total := 0
	for _, h := range heights {
		total += h
	}
	return total
}

// MaxHeight returns the tallest column
func MaxHeight(heights []int) int {
	highest := 0
	for _, h := range heights {
		highest = max(highest, h)
	}
	return highest
}

// Bumpiness sums the absolute height differences of neighbouring columns
func Bumpiness(heights []int) int {
	total := 0
	for i := 1; i < len(heights); i++ {
		d := heights[i] - heights[i-1]
		if d < 0 {
			d = -d
		}
		total += d
	}
	return total
}

// CountHoles counts empty cells that have at least one occupied cell above
// them in the same column.
func CountHoles(b *Board) int {
	holes := 0
	for col := 0; col < BoardWidth; col++ {
		covered := false
		for row := 0; row < BoardHeight; row++ {
			if b.Occupied(row, col) {
				covered = true
			} else if covered {
				holes++
			}
		}
	}
	return holes
}

// CountFilledCells counts occupied cells on the board
func CountFilledCells(b *Board) int {
	count := 0
	for row := 0; row < BoardHeight; row++ {
		for col := 0; col < BoardWidth; col++ {
			if b.Occupied(row, col) {
				count++
			}
		}
	}
	return count
}

// AnalyzeStackRisk assesses how close the stack is to the spawn area
func AnalyzeStackRisk(b *Board) string {
	highest := MaxHeight(ColumnHeights(b))
	free := BoardHeight - highest

	if free < MaskSize {
		return "CRITICAL: Stack reaches the spawn area!"
	} else if free < MaskSize+2 {
		return "DANGER: Stack is close to the spawn area"
	} else if highest > BoardHeight/2 {
		return "CAUTION: Stack above half height, clear lines soon"
	} else if CountHoles(b) > BoardWidth {
		return "LOW: Many covered holes"
	}

	return "SAFE: Stack is low"
}
