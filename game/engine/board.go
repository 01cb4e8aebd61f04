package engine

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Board is the fixed-size playfield. Row 0 is the top of the visible area.
type Board struct {
	cells [BoardHeight][BoardWidth]PieceType
}

// NewBoard returns an empty board
func NewBoard() *Board {
	return &Board{}
}

// BoardFromLayout builds a board whose bottom rows are taken from layout.
// Rows use '.' for empty cells and piece letters for occupied ones.
func BoardFromLayout(layout []string) (*Board, error) {
	if len(layout) > BoardHeight {
		return nil, fmt.Errorf("layout has %d rows, board has %d", len(layout), BoardHeight)
	}

	b := NewBoard()
	offset := BoardHeight - len(layout)
	for i, row := range layout {
		if len(row) != BoardWidth {
			return nil, fmt.Errorf("layout row %d must have %d characters, got %d", i+1, BoardWidth, len(row))
		}
		for col, r := range row {
			t, ok := ParsePieceType(r)
			if !ok {
				return nil, fmt.Errorf("invalid character '%c' at row %d, col %d", r, i+1, col+1)
			}
			b.cells[offset+i][col] = t
		}
	}
	return b, nil
}

// CellAt returns the cell content. Callers must stay inside the board.
func (b *Board) CellAt(row, col int) PieceType {
	return b.cells[row][col]
}

// Occupied reports whether the cell holds a block.
func (b *Board) Occupied(row, col int) bool {
	return b.cells[row][col] != NoPiece
}

// CanPlace reports whether p's mask fits with its top-left corner at (x, y).
// Cells above the board (row < 0) are bounds-checked on x only.
func (b *Board) CanPlace(p *Piece, x, y int) bool {
	for i := 0; i < MaskSize; i++ {
		for j := 0; j < MaskSize; j++ {
			if !p.Mask[i][j] {
				continue
			}

			col, row := x+j, y+i
			if col < 0 || col >= BoardWidth || row >= BoardHeight {
				return false
			}
			if row >= 0 && b.cells[row][col] != NoPiece {
				return false
			}
		}
	}
	return true
}

// wallKicks are the x offsets tried, in order, when an in-place rotation
// collides. Each offset is also tried one row up.
var wallKicks = [...]int{-1, 1, -2, 2}

// TryRotate returns p turned clockwise at the first position that fits:
// the current anchor, then each kick offset at the same row and one row up.
func (b *Board) TryRotate(p *Piece) (*Piece, bool) {
	rotated := p.Rotated()
	x, y := p.X, p.Y

	if b.CanPlace(rotated, x, y) {
		return rotated, true
	}

	for _, dx := range wallKicks {
		if b.CanPlace(rotated, x+dx, y) {
			rotated.X = x + dx
			return rotated, true
		}
		if b.CanPlace(rotated, x+dx, y-1) {
			rotated.X = x + dx
			rotated.Y = y - 1
			return rotated, true
		}
	}

	return nil, false
}

// DropY returns the lowest row p can fall to from its current anchor.
func (b *Board) DropY(p *Piece) int {
	y := p.Y
	for b.CanPlace(p, p.X, y+1) {
		y++
	}
	return y
}

// Place writes p into the board at (x, y). If any block would land above
// the visible area the board is left untouched and toppedOut is true.
func (b *Board) Place(p *Piece, x, y int) (toppedOut bool) {
	cells := p.CellsAt(x, y)
	for _, c := range cells {
		if c.Y < 0 {
			return true
		}
	}
	for _, c := range cells {
		b.cells[c.Y][c.X] = p.Type
	}
	return false
}

// ClearFullLines removes every complete row, shifting the rows above it
// down, and returns how many rows were removed.
func (b *Board) ClearFullLines() int {
	cleared := 0
	for row := BoardHeight - 1; row >= 0; {
		if !b.rowFull(row) {
			row--
			continue
		}

		cleared++
		for r := row; r > 0; r-- {
			b.cells[r] = b.cells[r-1]
		}
		b.cells[0] = [BoardWidth]PieceType{}
		// same index again: the row above has moved into it
	}
	return cleared
}

func (b *Board) rowFull(row int) bool {
	for col := 0; col < BoardWidth; col++ {
		if b.cells[row][col] == NoPiece {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// Rows renders the board top to bottom, one string per row.
func (b *Board) Rows() []string {
	rows := make([]string, BoardHeight)
	for r := 0; r < BoardHeight; r++ {
		var sb strings.Builder
		sb.Grow(BoardWidth)
		for c := 0; c < BoardWidth; c++ {
			sb.WriteString(b.cells[r][c].String())
		}
		rows[r] = sb.String()
	}
	return rows
}

// Fingerprint hashes the occupancy pattern (not the colours) of the board.
func (b *Board) Fingerprint() uint64 {
	h := fnv.New64a()
	var buf [BoardWidth]byte
	for r := 0; r < BoardHeight; r++ {
		for c := 0; c < BoardWidth; c++ {
			buf[c] = 0
			if b.cells[r][c] != NoPiece {
				buf[c] = 1
			}
		}
		h.Write(buf[:])
	}
	return h.Sum64()
}

// String renders the board as newline separated rows.
func (b *Board) String() string {
	return strings.Join(b.Rows(), "\n")
}
