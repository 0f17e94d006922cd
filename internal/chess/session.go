package chess

// SelectionStatus is the outcome of selecting a source square.
type SelectionStatus int

const (
	SelectionCleared SelectionStatus = iota
	SelectionStarted
	SelectionRejected
)

func (s SelectionStatus) String() string {
	switch s {
	case SelectionStarted:
		return "started"
	case SelectionRejected:
		return "rejected"
	default:
		return "cleared"
	}
}

type SelectionResult struct {
	Status       SelectionStatus
	From         Square
	Destinations []Square
}

// MoveStatus is the outcome of choosing a destination square.
type MoveStatus int

const (
	MoveRejected MoveStatus = iota
	MoveApplied
	MoveReselected
)

func (s MoveStatus) String() string {
	switch s {
	case MoveApplied:
		return "applied"
	case MoveReselected:
		return "reselected"
	default:
		return "rejected"
	}
}

type MoveResult struct {
	Status MoveStatus
	// Move is set when Status is MoveApplied.
	Move   Move
	Turn   Side
	Scores Scores
	// From and Destinations describe the new selection after MoveReselected.
	From         Square
	Destinations []Square
}

// Session is the live game: board, side to move, scores, selection and history.
// It is not safe for concurrent use.
type Session struct {
	board       Board
	whiteToMove bool
	scores      Scores
	moves       []Move
	history     History
	selected    *Square
}

// NewSession starts from the standard layout with white to move.
func NewSession() *Session {
	return NewSessionFrom(NewBoard(), White)
}

// NewSessionFrom starts from an arbitrary position with zero scores.
func NewSessionFrom(b Board, turn Side) *Session {
	return &Session{board: b, whiteToMove: turn == White}
}

func (s *Session) Board() Board   { return s.board }
func (s *Session) Scores() Scores { return s.scores }
func (s *Session) Moves() []Move  { return append([]Move(nil), s.moves...) }
func (s *Session) CanUndo() bool  { return s.history.CanUndo() }
func (s *Session) CanRedo() bool  { return s.history.CanRedo() }

func (s *Session) Turn() Side {
	if s.whiteToMove {
		return White
	}
	return Black
}

// Selected returns the selected source square while awaiting a destination.
func (s *Session) Selected() (Square, bool) {
	if s.selected == nil {
		return Square{}, false
	}
	return *s.selected, true
}

// State returns a snapshot of the live game.
func (s *Session) State() GameState {
	return GameState{
		Board:       s.board,
		WhiteToMove: s.whiteToMove,
		Scores:      s.scores,
		Moves:       append([]Move(nil), s.moves...),
	}
}

// Select picks the piece to move. Selecting an empty square clears the selection,
// selecting an opposing piece is rejected with ErrWrongTurn.
func (s *Session) Select(sq Square) (SelectionResult, error) {
	p := s.board.Get(sq)
	if p.IsEmpty() {
		s.selected = nil
		return SelectionResult{Status: SelectionCleared}, nil
	}
	if p.Side() != s.Turn() {
		s.selected = nil
		return SelectionResult{Status: SelectionRejected, From: sq}, ErrWrongTurn
	}
	return SelectionResult{Status: SelectionStarted, From: sq, Destinations: s.selectSquare(sq)}, nil
}

// Move attempts to move the selected piece to sq. An illegal target holding a
// piece of the side to move becomes the new selection and ErrSelectionChanged is
// returned; any other illegal target resets the selection with ErrIllegalMove.
func (s *Session) Move(sq Square) (MoveResult, error) {
	if s.selected == nil {
		return MoveResult{Status: MoveRejected, Turn: s.Turn(), Scores: s.scores}, ErrNoSelection
	}
	from := *s.selected
	if IsLegal(&s.board, from, sq) {
		mv := s.apply(from, sq)
		return MoveResult{Status: MoveApplied, Move: mv, Turn: s.Turn(), Scores: s.scores}, nil
	}
	if s.board.Get(sq).BelongsTo(s.Turn()) {
		dests := s.selectSquare(sq)
		return MoveResult{
			Status:       MoveReselected,
			Turn:         s.Turn(),
			Scores:       s.scores,
			From:         sq,
			Destinations: dests,
		}, ErrSelectionChanged
	}
	s.selected = nil
	return MoveResult{Status: MoveRejected, Turn: s.Turn(), Scores: s.scores}, ErrIllegalMove
}

// ClickResult reports which step of the selection state machine a click drove.
type ClickResult struct {
	Selection *SelectionResult
	Move      *MoveResult
}

// Click routes a square click to Select or Move depending on the current state.
func (s *Session) Click(sq Square) (ClickResult, error) {
	if s.selected == nil {
		res, err := s.Select(sq)
		return ClickResult{Selection: &res}, err
	}
	res, err := s.Move(sq)
	return ClickResult{Move: &res}, err
}

// MoveDirect validates and applies from->to without going through selection.
func (s *Session) MoveDirect(from, to Square) (MoveResult, error) {
	p := s.board.Get(from)
	if p.IsEmpty() {
		return MoveResult{Status: MoveRejected, Turn: s.Turn(), Scores: s.scores}, ErrNoSelection
	}
	if p.Side() != s.Turn() {
		return MoveResult{Status: MoveRejected, Turn: s.Turn(), Scores: s.scores}, ErrWrongTurn
	}
	if !IsLegal(&s.board, from, to) {
		return MoveResult{Status: MoveRejected, Turn: s.Turn(), Scores: s.scores}, ErrIllegalMove
	}
	mv := s.apply(from, to)
	return MoveResult{Status: MoveApplied, Move: mv, Turn: s.Turn(), Scores: s.scores}, nil
}

// ComputerMove lets policy pick and apply a move for side, which must be on move.
func (s *Session) ComputerMove(side Side, policy Policy) (Move, error) {
	if side != s.Turn() {
		return Move{}, ErrWrongTurn
	}
	if policy == nil {
		policy = Greedy{}
	}
	mv, ok := policy.ChooseMove(&s.board, side)
	if !ok {
		return Move{}, ErrNoLegalMoves
	}
	return s.apply(mv.From, mv.To), nil
}

// Undo restores the snapshot taken before the most recent move.
func (s *Session) Undo() (GameState, error) {
	prev, err := s.history.Undo(s.State())
	if err != nil {
		return GameState{}, err
	}
	s.adopt(prev)
	return s.State(), nil
}

// Redo re-applies the most recently undone move.
func (s *Session) Redo() (GameState, error) {
	next, err := s.history.Redo(s.State())
	if err != nil {
		return GameState{}, err
	}
	s.adopt(next)
	return s.State(), nil
}

func (s *Session) selectSquare(sq Square) []Square {
	sel := sq
	s.selected = &sel
	return LegalDestinations(&s.board, sq)
}

// apply assumes from->to is legal. The pre-move snapshot is saved before any mutation.
func (s *Session) apply(from, to Square) Move {
	s.history.Save(s.State())

	mover := s.board.Get(from)
	captured := s.board.Get(to)
	if !captured.IsEmpty() {
		s.scores.add(mover.Side(), captured.Value())
	}
	s.board.Set(to, mover)
	s.board.Set(from, NoPiece)
	s.whiteToMove = !s.whiteToMove
	s.selected = nil

	mv := Move{From: from, To: to, Piece: mover, Captured: captured}
	s.moves = append(s.moves, mv)
	return mv
}

func (s *Session) adopt(g GameState) {
	s.board = g.Board
	s.whiteToMove = g.WhiteToMove
	s.scores = g.Scores
	s.moves = append([]Move(nil), g.Moves...)
	s.selected = nil
}

// SessionData is the serializable form of a Session.
type SessionData struct {
	State    GameState   `json:"state"`
	Undo     []GameState `json:"undo"`
	Redo     []GameState `json:"redo"`
	Selected *Square     `json:"selected,omitempty"`
}

// Data exports the session including both history stacks.
func (s *Session) Data() SessionData {
	d := SessionData{State: s.State()}
	for _, g := range s.history.undo {
		d.Undo = append(d.Undo, g.clone())
	}
	for _, g := range s.history.redo {
		d.Redo = append(d.Redo, g.clone())
	}
	if s.selected != nil {
		sel := *s.selected
		d.Selected = &sel
	}
	return d
}

// RestoreSession rebuilds a session from exported data.
func RestoreSession(d SessionData) *Session {
	s := &Session{}
	s.adopt(d.State)
	for _, g := range d.Undo {
		s.history.undo = append(s.history.undo, g.clone())
	}
	for _, g := range d.Redo {
		s.history.redo = append(s.history.redo, g.clone())
	}
	if d.Selected != nil && d.Selected.Valid() {
		sel := *d.Selected
		s.selected = &sel
	}
	return s
}
