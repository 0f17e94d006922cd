package chess

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionOpeningSequence(t *testing.T) {
	s := NewSession()
	require.Equal(t, White, s.Turn())

	sel, err := s.Select(sq(t, "e2"))
	require.NoError(t, err)
	require.Equal(t, SelectionStarted, sel.Status)
	require.Equal(t, []Square{sq(t, "e4"), sq(t, "e3")}, sel.Destinations)

	res, err := s.Move(sq(t, "e4"))
	require.NoError(t, err)
	require.Equal(t, MoveApplied, res.Status)
	require.Equal(t, Black, res.Turn)
	require.Equal(t, NoPiece, res.Move.Captured)

	_, err = s.Select(sq(t, "d7"))
	require.NoError(t, err)
	res, err = s.Move(sq(t, "d5"))
	require.NoError(t, err)
	require.Equal(t, MoveApplied, res.Status)
	require.Equal(t, White, s.Turn())

	// d2 still blocks the queen's file.
	sel, err = s.Select(sq(t, "d1"))
	require.NoError(t, err)
	require.Equal(t, []Square{sq(t, "h5"), sq(t, "g4"), sq(t, "f3"), sq(t, "e2")}, sel.Destinations)
	res, err = s.Move(sq(t, "d4"))
	require.ErrorIs(t, err, ErrIllegalMove)
	require.Equal(t, MoveRejected, res.Status)
	_, selected := s.Selected()
	require.False(t, selected)
	require.Equal(t, White, s.Turn())
	require.Len(t, s.Moves(), 2)
	require.Equal(t, "e2e4", s.Moves()[0].UCI())
}

func TestSessionSelection(t *testing.T) {
	s := NewSession()

	sel, err := s.Select(sq(t, "e4"))
	require.NoError(t, err)
	require.Equal(t, SelectionCleared, sel.Status)

	sel, err = s.Select(sq(t, "e7"))
	require.ErrorIs(t, err, ErrWrongTurn)
	require.Equal(t, SelectionRejected, sel.Status)
	_, selected := s.Selected()
	require.False(t, selected)

	_, err = s.Move(sq(t, "e4"))
	require.ErrorIs(t, err, ErrNoSelection)
}

func TestSessionReselectOwnPiece(t *testing.T) {
	s := NewSession()
	_, err := s.Select(sq(t, "e2"))
	require.NoError(t, err)

	res, err := s.Move(sq(t, "g1"))
	require.ErrorIs(t, err, ErrSelectionChanged)
	require.Equal(t, MoveReselected, res.Status)
	require.Equal(t, sq(t, "g1"), res.From)
	require.Equal(t, []Square{sq(t, "f3"), sq(t, "h3")}, res.Destinations)

	from, ok := s.Selected()
	require.True(t, ok)
	require.Equal(t, sq(t, "g1"), from)
	require.Equal(t, White, s.Turn())
	require.False(t, s.CanUndo())

	res, err = s.Move(sq(t, "f3"))
	require.NoError(t, err)
	require.Equal(t, WhiteKnight, res.Move.Piece)
}

func TestSessionIllegalTargetResetsSelection(t *testing.T) {
	s := NewSession()
	before := s.State()
	_, err := s.Select(sq(t, "e2"))
	require.NoError(t, err)

	res, err := s.Move(sq(t, "e7"))
	require.ErrorIs(t, err, ErrIllegalMove)
	require.Equal(t, MoveRejected, res.Status)
	require.Equal(t, before, s.State())
	_, selected := s.Selected()
	require.False(t, selected)
}

func TestSessionCaptureScoring(t *testing.T) {
	b := boardWith(t, map[string]Piece{"a1": WhiteRook, "a8": BlackQueen, "h8": BlackRook, "h1": WhiteKnight})
	s := NewSessionFrom(b, White)

	res, err := s.MoveDirect(sq(t, "a1"), sq(t, "a8"))
	require.NoError(t, err)
	require.Equal(t, BlackQueen, res.Move.Captured)
	require.Equal(t, Scores{White: 9}, s.Scores())

	res, err = s.MoveDirect(sq(t, "h8"), sq(t, "h7"))
	require.NoError(t, err)
	require.Equal(t, Scores{White: 9}, res.Scores)

	_, err = s.MoveDirect(sq(t, "h1"), sq(t, "g3"))
	require.NoError(t, err)
	_, err = s.MoveDirect(sq(t, "h7"), sq(t, "h1"))
	require.NoError(t, err)
	require.Equal(t, Scores{White: 9}, s.Scores(), "empty h1 scores nothing")
}

func TestSessionMoveDirectValidation(t *testing.T) {
	s := NewSession()
	_, err := s.MoveDirect(sq(t, "e4"), sq(t, "e5"))
	require.ErrorIs(t, err, ErrNoSelection)
	_, err = s.MoveDirect(sq(t, "e7"), sq(t, "e5"))
	require.ErrorIs(t, err, ErrWrongTurn)
	_, err = s.MoveDirect(sq(t, "e2"), sq(t, "e5"))
	require.ErrorIs(t, err, ErrIllegalMove)
}

func TestSessionUndoRedo(t *testing.T) {
	s := NewSession()
	initial := s.State()

	_, err := s.Undo()
	require.ErrorIs(t, err, ErrNothingToUndo)

	_, err = s.MoveDirect(sq(t, "e2"), sq(t, "e4"))
	require.NoError(t, err)
	afterMove := s.State()

	got, err := s.Undo()
	require.NoError(t, err)
	require.Equal(t, initial, got)
	require.Equal(t, White, s.Turn())
	require.True(t, s.CanRedo())

	got, err = s.Redo()
	require.NoError(t, err)
	require.Equal(t, afterMove, got)
	require.Equal(t, Black, s.Turn())

	_, err = s.Redo()
	require.ErrorIs(t, err, ErrNothingToRedo)

	_, err = s.Undo()
	require.NoError(t, err)
	_, err = s.MoveDirect(sq(t, "d2"), sq(t, "d4"))
	require.NoError(t, err)
	require.False(t, s.CanRedo(), "a new move prunes the redo branch")
}

func TestSessionUndoRollsBackScore(t *testing.T) {
	b := boardWith(t, map[string]Piece{"d1": WhiteQueen, "d8": BlackQueen})
	s := NewSessionFrom(b, White)
	_, err := s.MoveDirect(sq(t, "d1"), sq(t, "d8"))
	require.NoError(t, err)
	require.Equal(t, 9, s.Scores().White)

	_, err = s.Undo()
	require.NoError(t, err)
	require.Equal(t, Scores{}, s.Scores())
	require.Equal(t, BlackQueen, func() Piece { b := s.Board(); return b.Get(sq(t, "d8")) }())
}

func TestSessionUndoClearsSelection(t *testing.T) {
	s := NewSession()
	_, err := s.MoveDirect(sq(t, "e2"), sq(t, "e4"))
	require.NoError(t, err)
	_, err = s.Select(sq(t, "e7"))
	require.NoError(t, err)

	_, err = s.Undo()
	require.NoError(t, err)
	_, selected := s.Selected()
	require.False(t, selected)
}

func TestSessionClick(t *testing.T) {
	s := NewSession()
	res, err := s.Click(sq(t, "b1"))
	require.NoError(t, err)
	require.NotNil(t, res.Selection)
	require.Equal(t, SelectionStarted, res.Selection.Status)

	res, err = s.Click(sq(t, "c3"))
	require.NoError(t, err)
	require.NotNil(t, res.Move)
	require.Equal(t, MoveApplied, res.Move.Status)
	require.Equal(t, Black, s.Turn())
}

func TestSessionComputerMove(t *testing.T) {
	s := NewSession()
	_, err := s.ComputerMove(Black, Greedy{})
	require.ErrorIs(t, err, ErrWrongTurn)

	_, err = s.MoveDirect(sq(t, "e2"), sq(t, "e4"))
	require.NoError(t, err)
	mv, err := s.ComputerMove(Black, nil)
	require.NoError(t, err)
	require.Equal(t, "b8a6", mv.UCI())
	require.Equal(t, White, s.Turn())
	require.True(t, s.CanUndo())
}

func TestSessionComputerMoveNoLegalMoves(t *testing.T) {
	b := boardWith(t, map[string]Piece{"e1": WhiteKing, "a2": WhitePawn})
	s := NewSessionFrom(b, Black)
	_, err := s.ComputerMove(Black, Greedy{})
	require.ErrorIs(t, err, ErrNoLegalMoves)
	require.False(t, s.CanUndo())
}

func TestSessionDataRestore(t *testing.T) {
	s := NewSession()
	_, err := s.MoveDirect(sq(t, "e2"), sq(t, "e4"))
	require.NoError(t, err)
	_, err = s.MoveDirect(sq(t, "d7"), sq(t, "d5"))
	require.NoError(t, err)
	_, err = s.Undo()
	require.NoError(t, err)
	_, err = s.Select(sq(t, "d7"))
	require.NoError(t, err)

	raw, err := json.Marshal(s.Data())
	require.NoError(t, err)
	var data SessionData
	require.NoError(t, json.Unmarshal(raw, &data))
	r := RestoreSession(data)

	require.Equal(t, s.State(), r.State())
	from, ok := r.Selected()
	require.True(t, ok)
	require.Equal(t, sq(t, "d7"), from)

	_, err = r.Redo()
	require.NoError(t, err)
	require.Equal(t, BlackPawn, func() Piece { b := r.Board(); return b.Get(sq(t, "d5")) }())
	_, err = r.Undo()
	require.NoError(t, err)
	_, err = r.Undo()
	require.NoError(t, err)
	require.Equal(t, NewBoard(), r.Board())
}
