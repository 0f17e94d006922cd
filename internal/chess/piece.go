package chess

import "fmt"

// Side identifies the owner of a piece and the player to move.
type Side uint8

const (
	White Side = iota
	Black
)

func (s Side) String() string {
	if s == Black {
		return "black"
	}
	return "white"
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == White {
		return Black
	}
	return White
}

// ParseSide accepts "white"/"w" and "black"/"b".
func ParseSide(s string) (Side, error) {
	switch s {
	case "white", "w", "White":
		return White, nil
	case "black", "b", "Black":
		return Black, nil
	default:
		return White, fmt.Errorf("unknown side %q", s)
	}
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(text []byte) error {
	v, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Kind is the movement class of a piece.
type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindNames = [...]string{"none", "pawn", "knight", "bishop", "rook", "queen", "king"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Piece is a (side, kind) pair stamped into board cells. The zero value is an empty cell.
type Piece uint8

const (
	NoPiece Piece = iota
	WhitePawn
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
)

const blackOffset = 6

// NewPiece returns the piece of the given side and kind. NoKind yields NoPiece.
func NewPiece(side Side, kind Kind) Piece {
	if kind == NoKind || kind > King {
		return NoPiece
	}
	if side == Black {
		return Piece(kind) + blackOffset
	}
	return Piece(kind)
}

// Kind returns NoKind for an empty cell.
func (p Piece) Kind() Kind {
	switch {
	case p == NoPiece || p > BlackKing:
		return NoKind
	case p > WhiteKing:
		return Kind(p - blackOffset)
	default:
		return Kind(p)
	}
}

// Side panics on an empty cell; callers check IsEmpty first.
func (p Piece) Side() Side {
	switch {
	case p == NoPiece || p > BlackKing:
		panic("chess: side of empty piece")
	case p > WhiteKing:
		return Black
	default:
		return White
	}
}

func (p Piece) IsEmpty() bool { return p.Kind() == NoKind }

// BelongsTo reports whether p is a non-empty piece of side s.
func (p Piece) BelongsTo(s Side) bool {
	return !p.IsEmpty() && p.Side() == s
}

var pieceValues = [...]int{
	NoKind: 0,
	Pawn:   1,
	Knight: 3,
	Bishop: 3,
	Rook:   5,
	Queen:  9,
	King:   0,
}

// Value is the material a capture of p scores. Kings score nothing.
func (p Piece) Value() int {
	return pieceValues[p.Kind()]
}

var pieceLetters = [...]byte{
	NoPiece:     '.',
	WhitePawn:   'P',
	WhiteKnight: 'N',
	WhiteBishop: 'B',
	WhiteRook:   'R',
	WhiteQueen:  'Q',
	WhiteKing:   'K',
	BlackPawn:   'p',
	BlackKnight: 'n',
	BlackBishop: 'b',
	BlackRook:   'r',
	BlackQueen:  'q',
	BlackKing:   'k',
}

// Letter returns the FEN letter of p, '.' for an empty cell.
func (p Piece) Letter() byte {
	if int(p) < len(pieceLetters) {
		return pieceLetters[p]
	}
	return '.'
}

func (p Piece) String() string {
	if p.IsEmpty() {
		return ""
	}
	return string(p.Letter())
}

// PieceFromLetter parses a FEN letter; '.' and ' ' are empty.
func PieceFromLetter(c byte) (Piece, error) {
	if c == ' ' {
		return NoPiece, nil
	}
	for i, l := range pieceLetters {
		if l == c {
			return Piece(i), nil
		}
	}
	return NoPiece, fmt.Errorf("unknown piece letter %q", c)
}

// MarshalText encodes the piece as its FEN letter, empty cells as "".
func (p Piece) MarshalText() ([]byte, error) {
	if p.IsEmpty() {
		return []byte{}, nil
	}
	return []byte{p.Letter()}, nil
}

func (p *Piece) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*p = NoPiece
		return nil
	}
	if len(b) != 1 {
		return fmt.Errorf("invalid piece %q", string(b))
	}
	parsed, err := PieceFromLetter(b[0])
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
