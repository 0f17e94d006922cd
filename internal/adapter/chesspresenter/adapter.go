package chesspresenter

import (
	"errors"

	"github.com/park285/Cheese-boardchess/internal/chess"
	"github.com/park285/Cheese-boardchess/internal/domain"
	svc "github.com/park285/Cheese-boardchess/internal/service/game"
	"github.com/park285/Cheese-boardchess/pkg/chessdto"
)

func ToDTOState(s *svc.SessionState) *chessdto.SessionState {
	if s == nil {
		return nil
	}
	out := &chessdto.SessionState{
		SessionUUID:  s.SessionUUID,
		Mode:         string(s.Mode),
		WhiteName:    s.WhiteName,
		BlackName:    s.BlackName,
		FEN:          s.FEN,
		Rows:         boardRows(s.Board),
		Turn:         s.Turn.String(),
		TurnName:     s.TurnName,
		Scores:       chessdto.Score{White: s.Scores.White, Black: s.Scores.Black},
		MovesUCI:     movesUCI(s.Moves),
		Destinations: squareList(s.Destinations),
		CanUndo:      s.CanUndo,
		CanRedo:      s.CanRedo,
		Finished:     s.Finished,
		Winner:       s.Winner,
		ResultMethod: s.ResultMethod,
		GameID:       s.GameID,
		StartedAt:    s.StartedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if s.HasComputer {
		out.Computer = s.ComputerSide.String()
	}
	if s.LastMove != nil {
		out.LastMove = s.LastMove.UCI()
	}
	if s.Selected != nil {
		out.Selected = s.Selected.String()
	}
	return out
}

func ToDTOAction(r *svc.ActionResult, err error) *chessdto.ActionResponse {
	out := &chessdto.ActionResponse{}
	if r != nil {
		out.State = ToDTOState(r.State)
		out.Message = r.Message
		out.Reselected = r.Reselected
		if r.Applied != nil {
			out.Applied = r.Applied.UCI()
		}
		if r.Reply != nil {
			out.Reply = r.Reply.UCI()
		}
	}
	if err != nil {
		out.Error = ToDTOError(err, out.Message)
	}
	return out
}

// ToDTOError classifies err into a stable code. message overrides the raw error
// text when the service produced a user-facing one.
func ToDTOError(err error, message string) *chessdto.DomainError {
	if err == nil {
		return nil
	}
	var de chessdto.DomainError
	if errors.As(err, &de) {
		return &de
	}
	code := ErrorCode(err)
	if message == "" {
		message = err.Error()
	}
	return &chessdto.DomainError{Code: code, Message: message, Retryable: code == chessdto.CodeInternal}
}

func ErrorCode(err error) string {
	switch {
	case errors.Is(err, svc.ErrSessionNotFound):
		return chessdto.CodeSessionNotFound
	case errors.Is(err, svc.ErrGameFinished):
		return chessdto.CodeGameFinished
	case errors.Is(err, svc.ErrInvalidMode):
		return chessdto.CodeInvalidMode
	case errors.Is(err, svc.ErrInvalidSquare):
		return chessdto.CodeInvalidSquare
	case errors.Is(err, chess.ErrInvalidPosition):
		return chessdto.CodeInvalidPosition
	case errors.Is(err, svc.ErrGameNotFound), errors.Is(err, svc.ErrProfileNotFound):
		return chessdto.CodeNotFound
	case errors.Is(err, chess.ErrWrongTurn):
		return chessdto.CodeWrongTurn
	case errors.Is(err, chess.ErrIllegalMove):
		return chessdto.CodeIllegalMove
	case errors.Is(err, chess.ErrNoSelection):
		return chessdto.CodeNoSelection
	case errors.Is(err, chess.ErrNothingToUndo):
		return chessdto.CodeNothingToUndo
	case errors.Is(err, chess.ErrNothingToRedo):
		return chessdto.CodeNothingToRedo
	case errors.Is(err, chess.ErrNoLegalMoves):
		return chessdto.CodeNoLegalMoves
	default:
		return chessdto.CodeInternal
	}
}

func ToDTOProfile(p *domain.PlayerProfile) *chessdto.PlayerProfile {
	if p == nil {
		return nil
	}
	cp := *p
	return &chessdto.PlayerProfile{
		Name:         cp.Name,
		GamesPlayed:  cp.GamesPlayed,
		Wins:         cp.Wins,
		Losses:       cp.Losses,
		Streak:       cp.Streak,
		StreakType:   cp.StreakType,
		BestScore:    cp.BestScore,
		LastPlayedAt: cp.LastPlayedAt,
		UpdatedAt:    cp.UpdatedAt,
		CreatedAt:    cp.CreatedAt,
	}
}

func ToDTOGames(list []*domain.GameRecord) []*chessdto.GameRecord {
	out := make([]*chessdto.GameRecord, 0, len(list))
	for _, g := range list {
		if g == nil {
			continue
		}
		out = append(out, ToDTOGame(g))
	}
	return out
}

func ToDTOGame(g *domain.GameRecord) *chessdto.GameRecord {
	if g == nil {
		return nil
	}
	gg := *g
	return &chessdto.GameRecord{
		ID:           gg.ID,
		SessionUUID:  gg.SessionUUID,
		Mode:         gg.Mode,
		WhiteName:    gg.WhiteName,
		BlackName:    gg.BlackName,
		Winner:       gg.Winner,
		ResultMethod: gg.ResultMethod,
		Scores:       chessdto.Score{White: gg.WhiteScore, Black: gg.BlackScore},
		MovesUCI:     append([]string(nil), gg.MovesUCI...),
		FinalFEN:     gg.FinalFEN,
		StartedAt:    gg.StartedAt,
		EndedAt:      gg.EndedAt,
		Duration:     gg.Duration,
	}
}

func boardRows(b chess.Board) []string {
	rows := make([]string, 0, chess.Size)
	for row := 0; row < chess.Size; row++ {
		line := make([]byte, chess.Size)
		for col := 0; col < chess.Size; col++ {
			line[col] = b.Get(chess.Sq(row, col)).Letter()
		}
		rows = append(rows, string(line))
	}
	return rows
}

func movesUCI(moves []chess.Move) []string {
	out := make([]string, 0, len(moves))
	for _, mv := range moves {
		out = append(out, mv.UCI())
	}
	return out
}

func squareList(list []chess.Square) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, sq := range list {
		out = append(out, sq.String())
	}
	return out
}
