package chess

import (
	"fmt"
	"strings"
)

const Size = 8

// Square addresses a board cell. Row 0 is black's home rank, column 0 is the a-file.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func Sq(row, col int) Square { return Square{Row: row, Col: col} }

func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row < Size && s.Col >= 0 && s.Col < Size
}

// String returns algebraic notation, e.g. row 6 col 4 is "e2".
func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return string([]byte{byte('a' + s.Col), byte('0' + Size - s.Row)})
}

// ParseSquare parses algebraic notation such as "e4".
func ParseSquare(text string) (Square, error) {
	t := strings.ToLower(strings.TrimSpace(text))
	if len(t) != 2 || t[0] < 'a' || t[0] > 'h' || t[1] < '1' || t[1] > '8' {
		return Square{}, fmt.Errorf("invalid square %q", text)
	}
	return Square{Row: Size - int(t[1]-'0'), Col: int(t[0] - 'a')}, nil
}

// Board is an 8x8 value grid. Assignment copies every cell.
type Board [Size][Size]Piece

var backRank = [Size]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewBoard returns the standard initial layout.
func NewBoard() Board {
	var b Board
	for col, kind := range backRank {
		b[0][col] = NewPiece(Black, kind)
		b[1][col] = BlackPawn
		b[6][col] = WhitePawn
		b[7][col] = NewPiece(White, kind)
	}
	return b
}

func mustValid(sq Square) {
	if !sq.Valid() {
		panic(fmt.Sprintf("chess: square out of range: row=%d col=%d", sq.Row, sq.Col))
	}
}

func (b *Board) Get(sq Square) Piece {
	mustValid(sq)
	return b[sq.Row][sq.Col]
}

func (b *Board) Set(sq Square, p Piece) {
	mustValid(sq)
	b[sq.Row][sq.Col] = p
}

func (b *Board) IsEmpty(sq Square) bool {
	return b.Get(sq).IsEmpty()
}

func (b *Board) Clone() Board {
	return *b
}

// Count returns the number of non-empty cells.
func (b *Board) Count() int {
	n := 0
	for row := range b {
		for _, p := range b[row] {
			if !p.IsEmpty() {
				n++
			}
		}
	}
	return n
}

// Squares returns every square in row-major order.
func Squares() []Square {
	out := make([]Square, 0, Size*Size)
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			out = append(out, Square{Row: row, Col: col})
		}
	}
	return out
}
