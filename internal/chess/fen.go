package chess

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var toLibPiece = map[Piece]nchess.Piece{
	WhitePawn:   nchess.WhitePawn,
	WhiteKnight: nchess.WhiteKnight,
	WhiteBishop: nchess.WhiteBishop,
	WhiteRook:   nchess.WhiteRook,
	WhiteQueen:  nchess.WhiteQueen,
	WhiteKing:   nchess.WhiteKing,
	BlackPawn:   nchess.BlackPawn,
	BlackKnight: nchess.BlackKnight,
	BlackBishop: nchess.BlackBishop,
	BlackRook:   nchess.BlackRook,
	BlackQueen:  nchess.BlackQueen,
	BlackKing:   nchess.BlackKing,
}

var fromLibPiece = func() map[nchess.Piece]Piece {
	m := make(map[nchess.Piece]Piece, len(toLibPiece))
	for p, lp := range toLibPiece {
		m[lp] = p
	}
	return m
}()

func libSquare(sq Square) nchess.Square {
	return nchess.NewSquare(nchess.File(sq.Col), nchess.Rank(Size-1-sq.Row))
}

func fromLibSquare(sq nchess.Square) Square {
	return Square{Row: Size - 1 - int(sq.Rank()), Col: int(sq.File())}
}

func (b *Board) libBoard() *nchess.Board {
	m := make(map[nchess.Square]nchess.Piece, 32)
	for _, sq := range Squares() {
		if p := b.Get(sq); !p.IsEmpty() {
			m[libSquare(sq)] = toLibPiece[p]
		}
	}
	return nchess.NewBoard(m)
}

// FEN encodes the position. Castling and en-passant fields are always empty
// since the variant has neither.
func (b *Board) FEN(turn Side) string {
	t := "w"
	if turn == Black {
		t = "b"
	}
	return fmt.Sprintf("%s %s - - 0 1", b.libBoard().String(), t)
}

// Draw renders a unicode diagram of the board.
func (b *Board) Draw() string {
	return b.libBoard().Draw()
}

// ParseFEN decodes piece placement and side to move from a FEN string. The
// remaining fields are accepted and ignored.
func ParseFEN(fen string) (Board, Side, error) {
	text := strings.TrimSpace(fen)
	if text == "" || text == "startpos" {
		return NewBoard(), White, nil
	}
	opt, err := nchess.FEN(text)
	if err != nil {
		return Board{}, White, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	pos := nchess.NewGame(opt).Position()
	if pos == nil {
		return Board{}, White, fmt.Errorf("%w: no position", ErrInvalidPosition)
	}
	var b Board
	for sq, lp := range pos.Board().SquareMap() {
		p, ok := fromLibPiece[lp]
		if !ok {
			continue
		}
		b.Set(fromLibSquare(sq), p)
	}
	turn := White
	if pos.Turn() == nchess.Black {
		turn = Black
	}
	return b, turn, nil
}
