package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/park285/Cheese-boardchess/internal/chess"
	"github.com/park285/Cheese-boardchess/internal/domain"
	"github.com/park285/Cheese-boardchess/internal/msgcat"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrSessionNotFound = errors.New("game session not found")
	ErrGameFinished    = errors.New("game already finished")
	ErrInvalidMode     = errors.New("unknown game mode")
	ErrInvalidSquare   = errors.New("invalid square")
	ErrGameNotFound    = errors.New("game record not found")
	ErrProfileNotFound = errors.New("player profile not found")
)

const (
	MethodResign       = "resign"
	MethodNoLegalMoves = "no_legal_moves"

	maxHistoryLimit     = 50
	defaultComputerName = "Computer"
)

// Mode selects who plays the two sides.
type Mode string

const (
	// ModeComputer pits a human against the greedy policy.
	ModeComputer Mode = "computer"
	// ModeFriends is two players sharing one board.
	ModeFriends Mode = "friends"
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "computer", "robot":
		return ModeComputer, nil
	case "friends", "local":
		return ModeFriends, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

type Config struct {
	SessionTTL   time.Duration
	HistoryLimit int
	ComputerSide chess.Side
	WhiteName    string
	BlackName    string
	ComputerName string
	// Policy picks computer moves; nil means chess.Greedy.
	Policy chess.Policy
}

type StartRequest struct {
	Mode      Mode
	WhiteName string
	BlackName string
	// FEN optionally sets up a custom position; empty means the standard layout.
	FEN string
}

// SessionState is the presentation view of a live or just-finished game.
type SessionState struct {
	SessionUUID  string
	Mode         Mode
	WhiteName    string
	BlackName    string
	HasComputer  bool
	ComputerSide chess.Side
	Board        chess.Board
	FEN          string
	Turn         chess.Side
	TurnName     string
	Scores       chess.Scores
	Moves        []chess.Move
	LastMove     *chess.Move
	Selected     *chess.Square
	Destinations []chess.Square
	CanUndo      bool
	CanRedo      bool
	StartedAt    time.Time
	UpdatedAt    time.Time

	Finished     bool
	Winner       string
	ResultMethod string
	GameID       int64
}

// ActionResult is returned by every operation that drives a session. It is
// also returned alongside rule errors so callers can show Message.
type ActionResult struct {
	State   *SessionState
	Applied *chess.Move
	Reply   *chess.Move
	// Reselected is set when a move request picked another own piece instead.
	Reselected bool
	Message    string
}

type sessionPayload struct {
	SessionUUID  string            `json:"session_uuid"`
	Mode         Mode              `json:"mode"`
	WhiteName    string            `json:"white_name"`
	BlackName    string            `json:"black_name"`
	ComputerSide chess.Side        `json:"computer_side"`
	Game         chess.SessionData `json:"game"`
	StartedAt    time.Time         `json:"started_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (p *sessionPayload) nameOf(side chess.Side) string {
	if side == chess.Black {
		return p.BlackName
	}
	return p.WhiteName
}

func (p *sessionPayload) isComputer(side chess.Side) bool {
	return p.Mode == ModeComputer && side == p.ComputerSide
}

type finishInfo struct {
	winner chess.Side
	method string
}

type outcome struct {
	applied    *chess.Move
	reply      *chess.Move
	reselected bool
	messages   []string
	finish     *finishInfo
}

func (o *outcome) say(msg string) {
	if msg = strings.TrimSpace(msg); msg != "" {
		o.messages = append(o.messages, msg)
	}
}

type Service struct {
	store    SessionStore
	repo     Repository
	renderer BoardRenderer
	catalog  *msgcat.Catalog
	policy   chess.Policy
	cfg      Config
	logger   *zap.Logger
	locks    [lockStripes]sync.Mutex
	now      func() time.Time
}

func NewService(store SessionStore, repo Repository, renderer BoardRenderer, catalog *msgcat.Catalog, cfg Config, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("game repository is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("board renderer is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be greater than 0")
	}
	if cfg.HistoryLimit <= 0 || cfg.HistoryLimit > maxHistoryLimit {
		cfg.HistoryLimit = 10
	}
	if strings.TrimSpace(cfg.WhiteName) == "" {
		cfg.WhiteName = "White"
	}
	if strings.TrimSpace(cfg.BlackName) == "" {
		cfg.BlackName = "Black"
	}
	if strings.TrimSpace(cfg.ComputerName) == "" {
		cfg.ComputerName = defaultComputerName
	}
	policy := cfg.Policy
	if policy == nil {
		policy = chess.Greedy{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		repo:     repo,
		renderer: renderer,
		catalog:  catalog,
		policy:   policy,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start creates a new session. In computer mode with the computer on white the
// opening reply is played immediately.
func (s *Service) Start(ctx context.Context, req StartRequest) (*ActionResult, error) {
	mode := req.Mode
	if mode == "" {
		mode = ModeComputer
	}
	if mode != ModeComputer && mode != ModeFriends {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	board, turn, err := chess.ParseFEN(req.FEN)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &sessionPayload{
		SessionUUID:  uuid.NewString(),
		Mode:         mode,
		WhiteName:    normalizeName(req.WhiteName, s.cfg.WhiteName),
		BlackName:    normalizeName(req.BlackName, s.cfg.BlackName),
		ComputerSide: s.cfg.ComputerSide,
		StartedAt:    now,
		UpdatedAt:    now,
	}
	if mode == ModeComputer {
		requested := req.BlackName
		if p.ComputerSide == chess.White {
			requested = req.WhiteName
		}
		if strings.TrimSpace(requested) == "" {
			p.setName(p.ComputerSide, s.cfg.ComputerName)
		}
	}

	unlock := s.lock(p.SessionUUID)
	defer unlock()

	g := chess.NewSessionFrom(board, turn)
	var out outcome
	out.say(s.msg("game.started", map[string]any{"White": p.WhiteName, "Black": p.BlackName}, p.WhiteName+" vs "+p.BlackName))
	s.afterMove(p, g, &out)

	s.logger.Info("game session started",
		zap.String("session_id", p.SessionUUID),
		zap.String("mode", string(mode)),
		zap.String("white", p.WhiteName),
		zap.String("black", p.BlackName),
	)
	return s.commit(ctx, p, g, &out, nil)
}

func (p *sessionPayload) setName(side chess.Side, name string) {
	if side == chess.Black {
		p.BlackName = name
		return
	}
	p.WhiteName = name
}

// Status returns the current state without changing it.
func (s *Service) Status(ctx context.Context, id string) (*SessionState, error) {
	unlock := s.lock(id)
	defer unlock()
	p, g, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.stateFrom(p, g), nil
}

// Select picks the source square of the next move.
func (s *Service) Select(ctx context.Context, id, square string) (*ActionResult, error) {
	sq, err := parseSquare(square)
	if err != nil {
		return s.rejectInput(square, err)
	}
	return s.mutate(ctx, id, func(p *sessionPayload, g *chess.Session, out *outcome) error {
		if err := s.ensureHumanTurn(p, g, out); err != nil {
			return err
		}
		res, err := g.Select(sq)
		return s.handleSelect(p, g, res, err, out)
	})
}

// Move moves the selected piece to square.
func (s *Service) Move(ctx context.Context, id, square string) (*ActionResult, error) {
	sq, err := parseSquare(square)
	if err != nil {
		return s.rejectInput(square, err)
	}
	return s.mutate(ctx, id, func(p *sessionPayload, g *chess.Session, out *outcome) error {
		if err := s.ensureHumanTurn(p, g, out); err != nil {
			return err
		}
		res, err := g.Move(sq)
		return s.handleMove(p, g, res, err, out)
	})
}

// Click drives the select-then-move state machine with a single square.
func (s *Service) Click(ctx context.Context, id, square string) (*ActionResult, error) {
	sq, err := parseSquare(square)
	if err != nil {
		return s.rejectInput(square, err)
	}
	return s.mutate(ctx, id, func(p *sessionPayload, g *chess.Session, out *outcome) error {
		if err := s.ensureHumanTurn(p, g, out); err != nil {
			return err
		}
		res, err := g.Click(sq)
		if res.Selection != nil {
			return s.handleSelect(p, g, *res.Selection, err, out)
		}
		return s.handleMove(p, g, *res.Move, err, out)
	})
}

// MoveDirect applies from->to in one call.
func (s *Service) MoveDirect(ctx context.Context, id, from, to string) (*ActionResult, error) {
	src, err := parseSquare(from)
	if err != nil {
		return s.rejectInput(from, err)
	}
	dst, err := parseSquare(to)
	if err != nil {
		return s.rejectInput(to, err)
	}
	return s.mutate(ctx, id, func(p *sessionPayload, g *chess.Session, out *outcome) error {
		if err := s.ensureHumanTurn(p, g, out); err != nil {
			return err
		}
		res, err := g.MoveDirect(src, dst)
		return s.handleMove(p, g, res, err, out)
	})
}

// ComputerMove asks the computer to play when it owns the side to move, which
// happens for sessions restored mid-turn. Any other turn is ErrWrongTurn.
func (s *Service) ComputerMove(ctx context.Context, id string) (*ActionResult, error) {
	return s.mutate(ctx, id, func(p *sessionPayload, g *chess.Session, out *outcome) error {
		side := g.Turn()
		if !p.isComputer(side) {
			out.say(s.msg("error.wrong_turn", map[string]any{"Name": p.nameOf(side)}, "It is not your turn."))
			return chess.ErrWrongTurn
		}
		mv, err := g.ComputerMove(side, s.policy)
		if errors.Is(err, chess.ErrNoLegalMoves) {
			s.finishStalled(p, side, out)
			return nil
		}
		if err != nil {
			return err
		}
		out.reply = &mv
		s.describeMove(p, mv, true, out)
		if !s.stalled(p, g, out) {
			out.say(s.turnMessage(p, g))
		}
		return nil
	})
}

// Undo steps back one move. In computer mode it keeps stepping back until the
// human is on move again.
func (s *Service) Undo(ctx context.Context, id string) (*ActionResult, error) {
	return s.mutate(ctx, id, func(p *sessionPayload, g *chess.Session, out *outcome) error {
		if _, err := g.Undo(); err != nil {
			out.say(s.msg("error.nothing_to_undo", nil, "Nothing to undo."))
			return err
		}
		steps := 1
		for p.isComputer(g.Turn()) && g.CanUndo() {
			if _, err := g.Undo(); err != nil {
				return err
			}
			steps++
		}
		if p.isComputer(g.Turn()) {
			// the computer opened the game; there is no earlier human position
			for ; steps > 0; steps-- {
				if _, err := g.Redo(); err != nil {
					return err
				}
			}
			out.say(s.msg("error.nothing_to_undo", nil, "Nothing to undo."))
			return chess.ErrNothingToUndo
		}
		out.say(s.msg("game.undone", nil, "Move undone."))
		out.say(s.turnMessage(p, g))
		return nil
	})
}

// Redo re-applies undone moves, in computer mode up to the next human turn.
func (s *Service) Redo(ctx context.Context, id string) (*ActionResult, error) {
	return s.mutate(ctx, id, func(p *sessionPayload, g *chess.Session, out *outcome) error {
		if _, err := g.Redo(); err != nil {
			out.say(s.msg("error.nothing_to_redo", nil, "Nothing to redo."))
			return err
		}
		for p.isComputer(g.Turn()) && g.CanRedo() {
			if _, err := g.Redo(); err != nil {
				return err
			}
		}
		out.say(s.msg("game.redone", nil, "Move redone."))
		s.afterMove(p, g, out)
		return nil
	})
}

// Resign ends the game. The human resigns in computer mode, otherwise the side to move.
func (s *Service) Resign(ctx context.Context, id string) (*ActionResult, error) {
	return s.mutate(ctx, id, func(p *sessionPayload, g *chess.Session, out *outcome) error {
		loser := g.Turn()
		if p.Mode == ModeComputer {
			loser = p.ComputerSide.Opponent()
		}
		out.finish = &finishInfo{winner: loser.Opponent(), method: MethodResign}
		return nil
	})
}

// Render draws the live board as PNG with the current selection highlighted.
func (s *Service) Render(ctx context.Context, id string) ([]byte, error) {
	st, err := s.Status(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.RenderState(ctx, st)
}

// RenderState draws an already loaded state.
func (s *Service) RenderState(ctx context.Context, st *SessionState) ([]byte, error) {
	if st == nil {
		return nil, ErrSessionNotFound
	}
	opts := RenderOptions{
		Selected:     st.Selected,
		Destinations: st.Destinations,
		LastMove:     st.LastMove,
		Scores:       st.Scores,
		WhiteName:    st.WhiteName,
		BlackName:    st.BlackName,
		HUDTurn:      st.TurnName + "'s turn",
	}
	if st.Finished {
		opts.HUDTurn = "finished"
	}
	data, err := s.renderer.RenderPNG(ctx, st.Board, opts)
	if err != nil {
		return nil, fmt.Errorf("render board: %w", err)
	}
	return data, nil
}

// History lists recent finished games involving player.
func (s *Service) History(ctx context.Context, player string, limit int) ([]*domain.GameRecord, error) {
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.repo.GetRecentGames(ctx, strings.TrimSpace(player), limit)
}

func (s *Service) Game(ctx context.Context, id int64) (*domain.GameRecord, error) {
	rec, err := s.repo.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrGameNotFound
	}
	return rec, nil
}

func (s *Service) Profile(ctx context.Context, name string) (*domain.PlayerProfile, error) {
	profile, err := s.repo.GetProfile(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// Message renders a catalog entry; unknown keys yield fallback.
func (s *Service) Message(key string, data map[string]any, fallback string) string {
	return s.msg(key, data, fallback)
}

type mutation func(p *sessionPayload, g *chess.Session, out *outcome) error

// mutate loads, applies fn, then persists or finishes the session. Rule errors
// from fn are returned together with a populated result.
func (s *Service) mutate(ctx context.Context, id string, fn mutation) (*ActionResult, error) {
	unlock := s.lock(id)
	defer unlock()

	p, g, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	var out outcome
	opErr := fn(p, g, &out)
	return s.commit(ctx, p, g, &out, opErr)
}

func (s *Service) commit(ctx context.Context, p *sessionPayload, g *chess.Session, out *outcome, opErr error) (*ActionResult, error) {
	var (
		st  *SessionState
		err error
	)
	if out.finish != nil {
		st, err = s.finish(ctx, p, g, out)
	} else {
		err = s.save(ctx, p, g)
		st = s.stateFrom(p, g)
	}
	if err != nil {
		return nil, err
	}
	res := &ActionResult{
		State:      st,
		Applied:    out.applied,
		Reply:      out.reply,
		Reselected: out.reselected,
		Message:    strings.Join(out.messages, " "),
	}
	if opErr != nil && !isRuleError(opErr) {
		s.logger.Warn("game action failed", zap.String("session_id", p.SessionUUID), zap.Error(opErr))
	}
	return res, opErr
}

func isRuleError(err error) bool {
	return errors.Is(err, chess.ErrWrongTurn) ||
		errors.Is(err, chess.ErrIllegalMove) ||
		errors.Is(err, chess.ErrNoSelection) ||
		errors.Is(err, chess.ErrNothingToUndo) ||
		errors.Is(err, chess.ErrNothingToRedo) ||
		errors.Is(err, chess.ErrNoLegalMoves)
}

func (s *Service) rejectInput(square string, err error) (*ActionResult, error) {
	msg := s.msg("error.invalid_square", map[string]any{"Square": square}, "Unknown square "+square+".")
	return &ActionResult{Message: msg}, fmt.Errorf("%w: %v", ErrInvalidSquare, err)
}

func (s *Service) ensureHumanTurn(p *sessionPayload, g *chess.Session, out *outcome) error {
	if !p.isComputer(g.Turn()) {
		return nil
	}
	out.say(s.msg("error.wrong_turn", map[string]any{"Name": p.nameOf(g.Turn())}, "It is not your turn."))
	return chess.ErrWrongTurn
}

func (s *Service) handleSelect(p *sessionPayload, g *chess.Session, res chess.SelectionResult, err error, out *outcome) error {
	switch res.Status {
	case chess.SelectionStarted:
		board := g.Board()
		out.say(s.msg("game.selected", map[string]any{
			"Piece": board.Get(res.From).Kind().String(),
			"From":  res.From.String(),
			"Count": len(res.Destinations),
		}, res.From.String()+" selected."))
	case chess.SelectionRejected:
		out.say(s.msg("error.not_your_piece", map[string]any{"Name": p.nameOf(g.Turn())}, p.nameOf(g.Turn())+"'s turn!"))
	default:
		out.say(s.msg("game.selection_cleared", nil, "Selection cleared."))
	}
	return err
}

func (s *Service) handleMove(p *sessionPayload, g *chess.Session, res chess.MoveResult, err error, out *outcome) error {
	switch {
	case res.Status == chess.MoveApplied:
		mv := res.Move
		out.applied = &mv
		s.describeMove(p, mv, false, out)
		s.afterMove(p, g, out)
		return nil
	case res.Status == chess.MoveReselected:
		out.reselected = true
		out.say(s.msg("error.selection_changed", map[string]any{"From": res.From.String()}, "Selection moved to "+res.From.String()+"."))
		return nil
	case errors.Is(err, chess.ErrNoSelection):
		out.say(s.msg("error.no_selection", nil, "Select one of your pieces first."))
	case errors.Is(err, chess.ErrWrongTurn):
		out.say(s.msg("error.wrong_turn", map[string]any{"Name": p.nameOf(g.Turn())}, "It is not your turn."))
	default:
		out.say(s.msg("error.illegal_move", nil, "That move is not allowed."))
	}
	return err
}

func (s *Service) describeMove(p *sessionPayload, mv chess.Move, byPolicy bool, out *outcome) {
	mover := mv.Piece.Side()
	data := map[string]any{
		"Name":  p.nameOf(mover),
		"Piece": mv.Piece.Kind().String(),
		"From":  mv.From.String(),
		"To":    mv.To.String(),
	}
	key := "game.moved"
	if byPolicy {
		key = "game.computer_moved"
	}
	out.say(s.msg(key, data, p.nameOf(mover)+" moved "+mv.UCI()+"."))
	if !mv.Captured.IsEmpty() {
		data["Captured"] = mv.Captured.Kind().String()
		data["Points"] = mv.Captured.Value()
		out.say(s.msg("game.captured", data, ""))
	}
}

// afterMove ends the game when the side to move is stuck and plays the
// computer's reply when it is on move.
func (s *Service) afterMove(p *sessionPayload, g *chess.Session, out *outcome) {
	if s.stalled(p, g, out) {
		return
	}
	side := g.Turn()
	if !p.isComputer(side) {
		out.say(s.turnMessage(p, g))
		return
	}
	mv, err := g.ComputerMove(side, s.policy)
	if err != nil {
		s.finishStalled(p, side, out)
		return
	}
	out.reply = &mv
	s.describeMove(p, mv, true, out)
	if !s.stalled(p, g, out) {
		out.say(s.turnMessage(p, g))
	}
}

func (s *Service) stalled(p *sessionPayload, g *chess.Session, out *outcome) bool {
	board := g.Board()
	side := g.Turn()
	if chess.HasLegalMove(&board, side) {
		return false
	}
	s.finishStalled(p, side, out)
	return true
}

func (s *Service) finishStalled(p *sessionPayload, side chess.Side, out *outcome) {
	out.say(s.msg("error.no_legal_moves", map[string]any{"Name": p.nameOf(side)}, p.nameOf(side)+" has no valid moves!"))
	out.finish = &finishInfo{winner: side.Opponent(), method: MethodNoLegalMoves}
}

func (s *Service) turnMessage(p *sessionPayload, g *chess.Session) string {
	name := p.nameOf(g.Turn())
	return s.msg("game.turn", map[string]any{"Name": name}, name+"'s turn!")
}

// finish records the game, updates player profiles and drops the live session.
func (s *Service) finish(ctx context.Context, p *sessionPayload, g *chess.Session, out *outcome) (*SessionState, error) {
	now := s.now()
	board := g.Board()
	scores := g.Scores()
	moves := g.Moves()
	uci := make([]string, 0, len(moves))
	for _, mv := range moves {
		uci = append(uci, mv.UCI())
	}

	rec := &domain.GameRecord{
		SessionUUID:  p.SessionUUID,
		Mode:         string(p.Mode),
		WhiteName:    p.WhiteName,
		BlackName:    p.BlackName,
		Winner:       out.finish.winner.String(),
		ResultMethod: out.finish.method,
		WhiteScore:   scores.White,
		BlackScore:   scores.Black,
		MovesUCI:     uci,
		FinalFEN:     board.FEN(g.Turn()),
		StartedAt:    p.StartedAt,
		EndedAt:      now,
		Duration:     now.Sub(p.StartedAt),
	}

	gameID, err := s.repo.InsertGame(ctx, rec)
	if errors.Is(err, ErrDuplicateGame) {
		existing, fetchErr := s.repo.GetGameBySession(ctx, p.SessionUUID)
		if fetchErr == nil && existing != nil {
			gameID, err = existing.ID, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("record finished game: %w", err)
	}

	s.updateProfiles(ctx, p, out.finish, scores, now)

	if err := s.store.Delete(ctx, p.SessionUUID); err != nil {
		s.logger.Warn("failed to delete finished game session", zap.String("session_id", p.SessionUUID), zap.Error(err))
	}

	winnerName := p.nameOf(out.finish.winner)
	loserName := p.nameOf(out.finish.winner.Opponent())
	out.say(s.msg("game.finished."+out.finish.method, map[string]any{"Winner": winnerName, "Loser": loserName}, winnerName+" wins."))

	s.logger.Info("game finished",
		zap.String("session_id", p.SessionUUID),
		zap.Int64("game_id", gameID),
		zap.String("winner", rec.Winner),
		zap.String("method", rec.ResultMethod),
		zap.Int("moves", len(uci)),
	)

	st := s.stateFrom(p, g)
	st.Finished = true
	st.Winner = rec.Winner
	st.ResultMethod = rec.ResultMethod
	st.GameID = gameID
	st.Selected = nil
	st.Destinations = nil
	st.CanUndo, st.CanRedo = false, false
	return st, nil
}

func (s *Service) updateProfiles(ctx context.Context, p *sessionPayload, info *finishInfo, scores chess.Scores, now time.Time) {
	for _, side := range []chess.Side{chess.White, chess.Black} {
		if p.isComputer(side) {
			continue
		}
		name := p.nameOf(side)
		profile, err := s.repo.GetProfile(ctx, name)
		if err != nil {
			s.logger.Warn("failed to load player profile", zap.String("player", name), zap.Error(err))
			continue
		}
		profile = applyResult(profile, name, side == info.winner, scores.Of(side), now)
		if err := s.repo.UpsertProfile(ctx, profile); err != nil {
			s.logger.Warn("failed to update player profile", zap.String("player", name), zap.Error(err))
		}
	}
}

func applyResult(profile *domain.PlayerProfile, name string, won bool, score int, now time.Time) *domain.PlayerProfile {
	if profile == nil {
		profile = &domain.PlayerProfile{Name: name, CreatedAt: now}
	}
	profile.GamesPlayed++
	result := "loss"
	if won {
		profile.Wins++
		result = "win"
	} else {
		profile.Losses++
	}
	if profile.StreakType == result {
		profile.Streak++
	} else {
		profile.Streak = 1
		profile.StreakType = result
	}
	if score > profile.BestScore {
		profile.BestScore = score
	}
	profile.LastPlayedAt = now
	profile.UpdatedAt = now
	return profile
}

// lockStripes bounds the per-session locks; ids sharing a stripe serialize.
const lockStripes = 64

func lockStripe(id string) int {
	return int(xxhash.Sum64String(strings.TrimSpace(id)) % lockStripes)
}

func (s *Service) lock(id string) func() {
	mu := &s.locks[lockStripe(id)]
	mu.Lock()
	return mu.Unlock
}

func (s *Service) load(ctx context.Context, id string) (*sessionPayload, *chess.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil, ErrSessionNotFound
	}
	raw, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if raw == nil {
		rec, recErr := s.repo.GetGameBySession(ctx, id)
		if recErr == nil && rec != nil {
			return nil, nil, ErrGameFinished
		}
		return nil, nil, ErrSessionNotFound
	}
	var p sessionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, nil, fmt.Errorf("decode session: %w", err)
	}
	return &p, chess.RestoreSession(p.Game), nil
}

func (s *Service) save(ctx context.Context, p *sessionPayload, g *chess.Session) error {
	p.Game = g.Data()
	p.UpdatedAt = s.now()
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.store.Save(ctx, p.SessionUUID, raw, s.cfg.SessionTTL)
}

func (s *Service) stateFrom(p *sessionPayload, g *chess.Session) *SessionState {
	board := g.Board()
	turn := g.Turn()
	st := &SessionState{
		SessionUUID:  p.SessionUUID,
		Mode:         p.Mode,
		WhiteName:    p.WhiteName,
		BlackName:    p.BlackName,
		HasComputer:  p.Mode == ModeComputer,
		ComputerSide: p.ComputerSide,
		Board:        board,
		FEN:          board.FEN(turn),
		Turn:         turn,
		TurnName:     p.nameOf(turn),
		Scores:       g.Scores(),
		Moves:        g.Moves(),
		CanUndo:      g.CanUndo(),
		CanRedo:      g.CanRedo(),
		StartedAt:    p.StartedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if n := len(st.Moves); n > 0 {
		last := st.Moves[n-1]
		st.LastMove = &last
	}
	if sel, ok := g.Selected(); ok {
		st.Selected = &sel
		st.Destinations = chess.LegalDestinations(&board, sel)
	}
	return st
}

func (s *Service) msg(key string, data map[string]any, fallback string) string {
	return s.catalog.RenderOr(key, data, fallback)
}

func parseSquare(text string) (chess.Square, error) {
	return chess.ParseSquare(strings.ToLower(strings.TrimSpace(text)))
}

// normalizeName collapses whitespace and applies NFC so profile keys compare equal.
func normalizeName(raw, fallback string) string {
	name := norm.NFC.String(strings.Join(strings.Fields(raw), " "))
	if name == "" {
		return fallback
	}
	if r := []rune(name); len(r) > 24 {
		name = string(r[:24])
	}
	return name
}
