package chess

// moveRule decides kind-specific legality once the generic checks have passed.
type moveRule func(b *Board, p Piece, from, to Square) bool

var moveRules = map[Kind]moveRule{
	Pawn:   pawnMove,
	Knight: knightMove,
	Bishop: bishopMove,
	Rook:   rookMove,
	Queen:  queenMove,
	King:   kingMove,
}

// IsLegal reports whether the piece on from may move to to. There is no check
// detection: a move that exposes the own king is still legal.
func IsLegal(b *Board, from, to Square) bool {
	if from == to {
		return false
	}
	p := b.Get(from)
	if p.IsEmpty() {
		return false
	}
	if target := b.Get(to); !target.IsEmpty() && target.Side() == p.Side() {
		return false
	}
	rule, ok := moveRules[p.Kind()]
	if !ok {
		return false
	}
	return rule(b, p, from, to)
}

// LegalDestinations lists every legal target of the piece on from in row-major order.
func LegalDestinations(b *Board, from Square) []Square {
	var out []Square
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			to := Square{Row: row, Col: col}
			if IsLegal(b, from, to) {
				out = append(out, to)
			}
		}
	}
	return out
}

// IsCapture reports whether moving from->to lands on an opposing piece.
func IsCapture(b *Board, from, to Square) bool {
	p, target := b.Get(from), b.Get(to)
	return !p.IsEmpty() && !target.IsEmpty() && target.Side() != p.Side()
}

func pawnForward(s Side) int {
	if s == Black {
		return 1
	}
	return -1
}

func pawnStartRow(s Side) int {
	if s == Black {
		return 1
	}
	return 6
}

// pawnMove does not inspect the square skipped by a double step.
func pawnMove(b *Board, p Piece, from, to Square) bool {
	side := p.Side()
	dir := pawnForward(side)
	target := b.Get(to)

	if from.Col == to.Col && target.IsEmpty() {
		if to.Row == from.Row+dir {
			return true
		}
		return from.Row == pawnStartRow(side) && to.Row == from.Row+2*dir
	}
	if abs(from.Col-to.Col) == 1 && to.Row == from.Row+dir {
		return !target.IsEmpty() && target.Side() != side
	}
	return false
}

func knightMove(_ *Board, _ Piece, from, to Square) bool {
	dr, dc := abs(to.Row-from.Row), abs(to.Col-from.Col)
	return (dr == 2 && dc == 1) || (dr == 1 && dc == 2)
}

func rookMove(b *Board, _ Piece, from, to Square) bool {
	if from.Row != to.Row && from.Col != to.Col {
		return false
	}
	return pathClear(b, from, to)
}

func bishopMove(b *Board, _ Piece, from, to Square) bool {
	if abs(to.Row-from.Row) != abs(to.Col-from.Col) {
		return false
	}
	return pathClear(b, from, to)
}

func queenMove(b *Board, p Piece, from, to Square) bool {
	return rookMove(b, p, from, to) || bishopMove(b, p, from, to)
}

func kingMove(_ *Board, _ Piece, from, to Square) bool {
	return abs(to.Row-from.Row) <= 1 && abs(to.Col-from.Col) <= 1
}

// pathClear walks the squares strictly between from and to along a rank, file or
// diagonal. Callers guarantee the two squares share one of those lines.
func pathClear(b *Board, from, to Square) bool {
	dr, dc := sign(to.Row-from.Row), sign(to.Col-from.Col)
	r, c := from.Row+dr, from.Col+dc
	for r != to.Row || c != to.Col {
		if !b[r][c].IsEmpty() {
			return false
		}
		r += dr
		c += dc
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
