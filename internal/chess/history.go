package chess

// Scores holds the captured material of each side.
type Scores struct {
	White int `json:"white"`
	Black int `json:"black"`
}

func (s Scores) Of(side Side) int {
	if side == Black {
		return s.Black
	}
	return s.White
}

func (s *Scores) add(side Side, v int) {
	if side == Black {
		s.Black += v
		return
	}
	s.White += v
}

// Move is an applied or candidate move. Captured is NoPiece for quiet moves.
type Move struct {
	From     Square `json:"from"`
	To       Square `json:"to"`
	Piece    Piece  `json:"piece"`
	Captured Piece  `json:"captured"`
}

// UCI returns the move in coordinate notation, e.g. "e2e4".
func (m Move) UCI() string { return m.From.String() + m.To.String() }

// GameState is an immutable snapshot used by the undo and redo stacks.
type GameState struct {
	Board       Board  `json:"board"`
	WhiteToMove bool   `json:"white_to_move"`
	Scores      Scores `json:"scores"`
	Moves       []Move `json:"moves"`
}

// Turn returns the side to move in the snapshot.
func (g GameState) Turn() Side {
	if g.WhiteToMove {
		return White
	}
	return Black
}

func (g GameState) clone() GameState {
	c := g
	c.Moves = append([]Move(nil), g.Moves...)
	return c
}

// History keeps two stacks of snapshots. Saving prunes the redo branch.
type History struct {
	undo []GameState
	redo []GameState
}

// Save pushes a pre-move snapshot and discards any redo history.
func (h *History) Save(state GameState) {
	h.undo = append(h.undo, state.clone())
	h.redo = nil
}

// Undo moves current onto the redo stack and returns the most recent saved state.
func (h *History) Undo(current GameState) (GameState, error) {
	if len(h.undo) == 0 {
		return GameState{}, ErrNothingToUndo
	}
	h.redo = append(h.redo, current.clone())
	return pop(&h.undo), nil
}

// Redo mirrors Undo using the redo stack.
func (h *History) Redo(current GameState) (GameState, error) {
	if len(h.redo) == 0 {
		return GameState{}, ErrNothingToRedo
	}
	h.undo = append(h.undo, current.clone())
	return pop(&h.redo), nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (h *History) Depth() (undo, redo int) { return len(h.undo), len(h.redo) }

func pop(stack *[]GameState) GameState {
	s := *stack
	top := s[len(s)-1]
	s[len(s)-1] = GameState{}
	*stack = s[:len(s)-1]
	return top
}
