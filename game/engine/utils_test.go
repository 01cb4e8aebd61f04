package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardAnalysis(t *testing.T) {
	b, err := BoardFromLayout([]string{
		"..I.......",
		"..I..O....",
		"J.I..O...Z",
		"JJ.......Z",
	})
	require.NoError(t, err)

	heights := ColumnHeights(b)
	assert.Equal(t, []int{2, 1, 4, 0, 0, 3, 0, 0, 0, 2}, heights)
	assert.Equal(t, 12, AggregateHeight(heights))
	assert.Equal(t, 4, MaxHeight(heights))
	assert.Equal(t, 1+3+4+0+3+3+0+0+2, Bumpiness(heights))
	// under the I column and the O column
	assert.Equal(t, 2, CountHoles(b))
	assert.Equal(t, 10, CountFilledCells(b))
}

func TestAnalyzeStackRisk(t *testing.T) {
	tests := []struct {
		name   string
		height int
		prefix string
	}{
		{"empty", 0, "SAFE"},
		{"half", 11, "CAUTION"},
		{"close", 15, "DANGER"},
		{"spawn", 17, "CRITICAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBoard()
			for row := BoardHeight - tt.height; row < BoardHeight; row++ {
				b.cells[row][0] = PieceI
			}
			assert.True(t, strings.HasPrefix(AnalyzeStackRisk(b), tt.prefix), AnalyzeStackRisk(b))
		})
	}
}
