package chessdto

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "chess service error"
}

const (
	CodeSessionNotFound = "session_not_found"
	CodeGameFinished    = "game_finished"
	CodeInvalidMode     = "invalid_mode"
	CodeInvalidSquare   = "invalid_square"
	CodeInvalidPosition = "invalid_position"
	CodeBadRequest      = "bad_request"
	CodeNotFound        = "not_found"
	CodeWrongTurn       = "wrong_turn"
	CodeIllegalMove     = "illegal_move"
	CodeNoSelection     = "no_selection"
	CodeNothingToUndo   = "nothing_to_undo"
	CodeNothingToRedo   = "nothing_to_redo"
	CodeNoLegalMoves    = "no_legal_moves"
	CodeInternal        = "internal"
)
