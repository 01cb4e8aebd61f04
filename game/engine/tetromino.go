package engine

import (
	"fmt"
	"image/color"
	"strings"
)

// Mask is a 4x4 occupancy grid indexed [row][col]
type Mask [MaskSize][MaskSize]bool

type shapeDef struct {
	letter byte
	mask   Mask
	color  color.RGBA
}

// catalog holds the canonical orientation of every piece type. Entries are
// never mutated; pieces copy their mask on spawn.
var catalog = [...]shapeDef{
	PieceI: {'I', maskOf([2]int{1, 0}, [2]int{1, 1}, [2]int{1, 2}, [2]int{1, 3}), color.RGBA{0, 240, 240, 255}},
	PieceJ: {'J', maskOf([2]int{0, 0}, [2]int{1, 0}, [2]int{1, 1}, [2]int{1, 2}), color.RGBA{0, 0, 240, 255}},
	PieceL: {'L', maskOf([2]int{0, 2}, [2]int{1, 0}, [2]int{1, 1}, [2]int{1, 2}), color.RGBA{240, 160, 0, 255}},
	PieceO: {'O', maskOf([2]int{0, 0}, [2]int{0, 1}, [2]int{1, 0}, [2]int{1, 1}), color.RGBA{240, 240, 0, 255}},
	PieceS: {'S', maskOf([2]int{0, 1}, [2]int{0, 2}, [2]int{1, 0}, [2]int{1, 1}), color.RGBA{0, 240, 0, 255}},
	PieceT: {'T', maskOf([2]int{0, 1}, [2]int{1, 0}, [2]int{1, 1}, [2]int{1, 2}), color.RGBA{160, 0, 240, 255}},
	PieceZ: {'Z', maskOf([2]int{0, 0}, [2]int{0, 1}, [2]int{1, 1}, [2]int{1, 2}), color.RGBA{240, 0, 0, 255}},
}

func maskOf(cells ...[2]int) Mask {
	var m Mask
	for _, c := range cells {
		m[c[0]][c[1]] = true
	}
	return m
}

// AllPieceTypes returns the seven playable piece types in catalog order.
func AllPieceTypes() []PieceType {
	return []PieceType{PieceI, PieceJ, PieceL, PieceO, PieceS, PieceT, PieceZ}
}

// Valid reports whether t names one of the seven pieces.
func (t PieceType) Valid() bool {
	return t >= PieceI && t <= PieceZ
}

// String returns the piece letter, or "." for an empty cell.
func (t PieceType) String() string {
	if !t.Valid() {
		return "."
	}
	return string(catalog[t].letter)
}

// Color returns the display colour of the piece type.
func (t PieceType) Color() color.RGBA {
	if !t.Valid() {
		return color.RGBA{}
	}
	return catalog[t].color
}

// HexColor formats Color as #rrggbb.
func (t PieceType) HexColor() string {
	c := t.Color()
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// CanonicalMask returns a copy of the type's spawn orientation.
func (t PieceType) CanonicalMask() Mask {
	if !t.Valid() {
		return Mask{}
	}
	return catalog[t].mask
}

// ParsePieceType maps a layout/board letter back to its type. '.' and ' '
// are empty cells.
func ParsePieceType(r rune) (PieceType, bool) {
	switch r {
	case '.', ' ':
		return NoPiece, true
	}
	for _, t := range AllPieceTypes() {
		if rune(catalog[t].letter) == r {
			return t, true
		}
	}
	return NoPiece, false
}

// Piece is a live tetromino instance: its type, current orientation and
// the board position of the mask's top-left corner.
type Piece struct {
	Type PieceType
	Mask Mask
	X    int
	Y    int
}

// Spawn creates a piece in canonical orientation at the spawn anchor.
func Spawn(t PieceType) *Piece {
	return &Piece{Type: t, Mask: t.CanonicalMask(), X: SpawnX, Y: SpawnY}
}

// Rotated returns a copy turned 90 degrees clockwise inside the 4x4 frame.
// The anchor is unchanged.
func (p *Piece) Rotated() *Piece {
	r := &Piece{Type: p.Type, X: p.X, Y: p.Y}
	for i := 0; i < MaskSize; i++ {
		for j := 0; j < MaskSize; j++ {
			r.Mask[j][MaskSize-1-i] = p.Mask[i][j]
		}
	}
	return r
}

// Copy returns a deep copy of the piece.
func (p *Piece) Copy() *Piece {
	c := *p
	return &c
}

// CellsAt returns the absolute board coordinates of the set mask cells when
// the piece is anchored at (x, y).
func (p *Piece) CellsAt(x, y int) []Position {
	cells := make([]Position, 0, 4)
	for i := 0; i < MaskSize; i++ {
		for j := 0; j < MaskSize; j++ {
			if p.Mask[i][j] {
				cells = append(cells, Position{X: x + j, Y: y + i})
			}
		}
	}
	return cells
}

// Cells returns the absolute board coordinates at the piece's own anchor.
func (p *Piece) Cells() []Position {
	return p.CellsAt(p.X, p.Y)
}

// Rows renders the mask as four strings of '#' and '.'.
func (m Mask) Rows() []string {
	rows := make([]string, MaskSize)
	for i := 0; i < MaskSize; i++ {
		var b strings.Builder
		for j := 0; j < MaskSize; j++ {
			if m[i][j] {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		rows[i] = b.String()
	}
	return rows
}

// Count returns the number of set cells.
func (m Mask) Count() int {
	n := 0
	for i := range m {
		for j := range m[i] {
			if m[i][j] {
				n++
			}
		}
	}
	return n
}

func (p *Piece) state() *PieceState {
	if p == nil {
		return nil
	}
	return &PieceState{
		Type:  p.Type.String(),
		Color: p.Type.HexColor(),
		X:     p.X,
		Y:     p.Y,
		Mask:  p.Mask.Rows(),
		Cells: p.Cells(),
	}
}
