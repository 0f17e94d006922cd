package chess

import "errors"

var (
	ErrWrongTurn        = errors.New("piece belongs to the side not on move")
	ErrIllegalMove      = errors.New("illegal move")
	ErrSelectionChanged = errors.New("move already committed, selection changed")
	ErrNoSelection      = errors.New("no piece selected")
	ErrNothingToUndo    = errors.New("nothing to undo")
	ErrNothingToRedo    = errors.New("nothing to redo")
	ErrNoLegalMoves     = errors.New("no legal moves")
	ErrInvalidPosition  = errors.New("invalid fen position")
)
