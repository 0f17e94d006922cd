package chess

// Policy picks a move for the computer-controlled side.
type Policy interface {
	ChooseMove(b *Board, side Side) (Move, bool)
}

// Greedy prefers captures over quiet moves without any look-ahead.
type Greedy struct{}

// Candidates enumerates the legal moves of side. Each capture is inserted at the
// front as it is found, so the last capture discovered ends up first; quiet
// moves keep discovery order at the back.
func (Greedy) Candidates(b *Board, side Side) []Move {
	var captures, quiet []Move
	for _, from := range Squares() {
		p := b.Get(from)
		if !p.BelongsTo(side) {
			continue
		}
		for _, to := range Squares() {
			if !IsLegal(b, from, to) {
				continue
			}
			mv := Move{From: from, To: to, Piece: p, Captured: b.Get(to)}
			if mv.Captured.BelongsTo(side.Opponent()) {
				captures = append(captures, mv)
			} else {
				quiet = append(quiet, mv)
			}
		}
	}
	out := make([]Move, 0, len(captures)+len(quiet))
	for i := len(captures) - 1; i >= 0; i-- {
		out = append(out, captures[i])
	}
	return append(out, quiet...)
}

// ChooseMove returns the first candidate, or false when side has no legal move.
func (g Greedy) ChooseMove(b *Board, side Side) (Move, bool) {
	cands := g.Candidates(b, side)
	if len(cands) == 0 {
		return Move{}, false
	}
	return cands[0], true
}

// HasLegalMove reports whether side can move at all.
func HasLegalMove(b *Board, side Side) bool {
	for _, from := range Squares() {
		if !b.Get(from).BelongsTo(side) {
			continue
		}
		if len(LegalDestinations(b, from)) > 0 {
			return true
		}
	}
	return false
}
