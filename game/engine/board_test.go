package engine

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillRow(b *Board, row int) {
	for col := 0; col < BoardWidth; col++ {
		b.cells[row][col] = PieceL
	}
}

func TestCanPlaceSoundness(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for trial := 0; trial < 2000; trial++ {
		b := NewBoard()
		for row := 0; row < BoardHeight; row++ {
			for col := 0; col < BoardWidth; col++ {
				if rng.IntN(4) == 0 {
					b.cells[row][col] = PieceZ
				}
			}
		}

		p := Spawn(AllPieceTypes()[rng.IntN(7)])
		for r := rng.IntN(4); r > 0; r-- {
			p = p.Rotated()
		}
		x := rng.IntN(BoardWidth+6) - 3
		y := rng.IntN(BoardHeight+8) - 4

		fits := true
		for _, c := range p.CellsAt(x, y) {
			if c.X < 0 || c.X >= BoardWidth || c.Y >= BoardHeight {
				fits = false
				break
			}
			if c.Y >= 0 && b.Occupied(c.Y, c.X) {
				fits = false
				break
			}
		}

		require.Equal(t, fits, b.CanPlace(p, x, y), "piece %s at (%d,%d)", p.Type, x, y)
	}
}

func TestCanPlaceAboveBoard(t *testing.T) {
	b := NewBoard()
	p := Spawn(PieceI)

	assert.True(t, b.CanPlace(p, 0, -3), "rows above the board are only x-checked")
	assert.False(t, b.CanPlace(p, -1, -3))
	assert.False(t, b.CanPlace(p, 7, -3))
}

func TestPlace(t *testing.T) {
	b := NewBoard()
	p := Spawn(PieceT)

	assert.False(t, b.Place(p, 0, 18))
	assert.Equal(t, PieceT, b.CellAt(18, 1))
	assert.Equal(t, PieceT, b.CellAt(19, 0))
	assert.Equal(t, PieceT, b.CellAt(19, 2))
	assert.Equal(t, 4, CountFilledCells(b))
}

func TestPlaceTopOutWritesNothing(t *testing.T) {
	b := NewBoard()
	p := Spawn(PieceJ)

	assert.True(t, b.Place(p, 0, -1))
	assert.Equal(t, 0, CountFilledCells(b))
}

func TestClearFullLinesNonAdjacent(t *testing.T) {
	b := NewBoard()
	fillRow(b, 5)
	fillRow(b, 7)
	b.cells[4][0] = PieceS
	b.cells[6][1] = PieceT
	b.cells[8][2] = PieceO

	assert.Equal(t, 2, b.ClearFullLines())

	// the row between the cleared rows drops by one, the one above by two
	assert.Equal(t, PieceS, b.CellAt(6, 0))
	assert.Equal(t, PieceT, b.CellAt(7, 1))
	assert.Equal(t, PieceO, b.CellAt(8, 2))
	assert.Equal(t, 3, CountFilledCells(b))
	for row := 0; row < BoardHeight; row++ {
		assert.False(t, b.rowFull(row))
	}
}

func TestClearFullLinesAdjacent(t *testing.T) {
	b := NewBoard()
	for row := 16; row < BoardHeight; row++ {
		fillRow(b, row)
	}
	b.cells[15][9] = PieceI

	assert.Equal(t, 4, b.ClearFullLines())
	assert.Equal(t, PieceI, b.CellAt(19, 9))
	assert.Equal(t, 1, CountFilledCells(b))
}

func TestClearFullLinesTopRow(t *testing.T) {
	b := NewBoard()
	fillRow(b, 0)

	assert.Equal(t, 1, b.ClearFullLines())
	assert.Equal(t, 0, CountFilledCells(b))
	assert.Equal(t, 0, b.ClearFullLines())
}

func TestBoardFromLayout(t *testing.T) {
	b, err := BoardFromLayout([]string{
		"I.........",
		"ZZ..OO..LL",
	})
	require.NoError(t, err)

	assert.Equal(t, PieceI, b.CellAt(18, 0))
	assert.Equal(t, PieceZ, b.CellAt(19, 1))
	assert.Equal(t, PieceO, b.CellAt(19, 4))
	assert.Equal(t, NoPiece, b.CellAt(19, 2))

	rows := b.Rows()
	assert.Equal(t, "ZZ..OO..LL", rows[BoardHeight-1])
	assert.Equal(t, strings.Repeat(".", BoardWidth), rows[0])

	_, err = BoardFromLayout([]string{"ZZ"})
	assert.Error(t, err)
	_, err = BoardFromLayout([]string{"ZZ..OO..L#"})
	assert.Error(t, err)
}

func TestBoardCloneIsIndependent(t *testing.T) {
	b := NewBoard()
	c := b.Clone()
	c.cells[0][0] = PieceO

	assert.Equal(t, NoPiece, b.CellAt(0, 0))
	assert.NotEqual(t, b.Fingerprint(), c.Fingerprint())
}

func TestFingerprintIgnoresColour(t *testing.T) {
	a := NewBoard()
	b := NewBoard()
	a.cells[19][0] = PieceI
	b.cells[19][0] = PieceZ

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestPieceCatalog(t *testing.T) {
	letters := ""
	for _, pt := range AllPieceTypes() {
		assert.Equal(t, 4, pt.CanonicalMask().Count(), pt.String())
		letters += pt.String()

		parsed, ok := ParsePieceType(rune(pt.String()[0]))
		assert.True(t, ok)
		assert.Equal(t, pt, parsed)
	}
	assert.Equal(t, "IJLOSTZ", letters)
	assert.Equal(t, "#00f0f0", PieceI.HexColor())
	assert.Equal(t, "#a000f0", PieceT.HexColor())
	assert.Equal(t, ".", NoPiece.String())
}

func TestSpawnCopiesMask(t *testing.T) {
	p := Spawn(PieceS)
	p.Mask[0][0] = true

	assert.Equal(t, 4, PieceS.CanonicalMask().Count(), "catalog must not change")
	assert.Equal(t, []string{".##.", "##..", "....", "...."}, Spawn(PieceS).Mask.Rows())
}
