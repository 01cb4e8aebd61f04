package engine

import "time"

// PointsForLines returns the score awarded for clearing lines rows at once
// while playing at level. Counts outside 1..4 score nothing.
func PointsForLines(lines, level int) int {
	switch lines {
	case 1:
		return 100 * level
	case 2:
		return 300 * level
	case 3:
		return 500 * level
	case 4:
		return 800 * level
	default:
		return 0
	}
}

// LevelForLines returns the level reached after totalLines cleared rows
func LevelForLines(totalLines int) int {
	return totalLines/LinesPerLevel + 1
}

// TickIntervalForLevel returns the gravity period at level
func TickIntervalForLevel(level int) time.Duration {
	interval := InitialTickInterval - time.Duration(level-1)*TickIntervalStep
	return max(MinTickInterval, interval)
}

// HardDropPoints returns the bonus for a hard drop of distance rows
func HardDropPoints(distance int) int {
	return 2 * distance
}
