package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/park285/Cheese-boardchess/internal/adapter/chesspresenter"
	svc "github.com/park285/Cheese-boardchess/internal/service/game"
	"github.com/park285/Cheese-boardchess/pkg/chessdto"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypePNG  = "image/png"

	defaultRequestTimeout = 10 * time.Second
)

// Server exposes the game service as a JSON API.
type Server struct {
	service *svc.Service
	logger  *zap.Logger
	timeout time.Duration
}

type Option func(*Server)

func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewServer(service *svc.Service, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{service: service, logger: logger, timeout: defaultRequestTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the request router.
func (s *Server) Handler() fasthttp.RequestHandler {
	return s.route
}

// ListenAndServe runs the API on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &fasthttp.Server{
		Handler:      s.route,
		Name:         "boardchess",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(addr) }()
	s.logger.Info("http api listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("http api shutting down")
		return srv.ShutdownWithContext(context.Background())
	}
}

func (s *Server) route(rc *fasthttp.RequestCtx) {
	start := time.Now()
	path := strings.Trim(string(rc.Path()), "/")
	parts := strings.Split(path, "/")
	method := string(rc.Method())

	switch {
	case path == "healthz":
		rc.SetStatusCode(fasthttp.StatusOK)
		rc.SetBodyString("ok")
	case len(parts) >= 2 && parts[0] == "api":
		s.routeAPI(rc, method, parts[1:])
	default:
		s.writeError(rc, fasthttp.StatusNotFound, &chessdto.DomainError{Code: chessdto.CodeNotFound, Message: "no such route"})
	}

	s.logger.Debug("http request",
		zap.String("method", method),
		zap.String("path", string(rc.Path())),
		zap.Int("status", rc.Response.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (s *Server) routeAPI(rc *fasthttp.RequestCtx, method string, parts []string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	switch parts[0] {
	case "games":
		switch {
		case len(parts) == 1 && method == fasthttp.MethodPost:
			s.handleStart(ctx, rc)
		case len(parts) == 2 && method == fasthttp.MethodGet:
			s.handleStatus(ctx, rc, parts[1])
		case len(parts) == 3 && parts[2] == "board.png" && method == fasthttp.MethodGet:
			s.handleBoard(ctx, rc, parts[1])
		case len(parts) == 3 && method == fasthttp.MethodPost:
			s.handleAction(ctx, rc, parts[1], parts[2])
		default:
			s.methodNotAllowed(rc)
		}
	case "history":
		if len(parts) != 1 || method != fasthttp.MethodGet {
			s.methodNotAllowed(rc)
			return
		}
		s.handleHistory(ctx, rc)
	case "records":
		if len(parts) != 2 || method != fasthttp.MethodGet {
			s.methodNotAllowed(rc)
			return
		}
		s.handleRecord(ctx, rc, parts[1])
	case "players":
		if len(parts) != 2 || method != fasthttp.MethodGet {
			s.methodNotAllowed(rc)
			return
		}
		s.handleProfile(ctx, rc, parts[1])
	default:
		s.writeError(rc, fasthttp.StatusNotFound, &chessdto.DomainError{Code: chessdto.CodeNotFound, Message: "no such route"})
	}
}

func (s *Server) handleStart(ctx context.Context, rc *fasthttp.RequestCtx) {
	var req chessdto.StartRequest
	if !s.decode(rc, &req) {
		return
	}
	mode, err := svc.ParseMode(req.Mode)
	if err != nil {
		s.writeServiceError(rc, err)
		return
	}
	res, err := s.service.Start(ctx, svc.StartRequest{
		Mode:      mode,
		WhiteName: req.WhiteName,
		BlackName: req.BlackName,
		FEN:       req.FEN,
	})
	if err != nil {
		s.writeServiceError(rc, err)
		return
	}
	s.writeJSON(rc, fasthttp.StatusCreated, chesspresenter.ToDTOAction(res, nil))
}

func (s *Server) handleStatus(ctx context.Context, rc *fasthttp.RequestCtx, id string) {
	st, err := s.service.Status(ctx, id)
	if err != nil {
		s.writeServiceError(rc, err)
		return
	}
	s.writeJSON(rc, fasthttp.StatusOK, chesspresenter.ToDTOState(st))
}

func (s *Server) handleBoard(ctx context.Context, rc *fasthttp.RequestCtx, id string) {
	data, err := s.service.Render(ctx, id)
	if err != nil {
		s.writeServiceError(rc, err)
		return
	}
	rc.SetStatusCode(fasthttp.StatusOK)
	rc.SetContentType(contentTypePNG)
	rc.Response.Header.Set("Cache-Control", "no-store")
	rc.SetBody(data)
}

func (s *Server) handleAction(ctx context.Context, rc *fasthttp.RequestCtx, id, action string) {
	var (
		res *svc.ActionResult
		err error
	)
	switch action {
	case "select", "move", "click":
		var req chessdto.SquareRequest
		if !s.decode(rc, &req) {
			return
		}
		switch {
		case action == "move" && strings.TrimSpace(req.From) != "":
			res, err = s.service.MoveDirect(ctx, id, req.From, req.Square)
		case action == "move":
			res, err = s.service.Move(ctx, id, req.Square)
		case action == "select":
			res, err = s.service.Select(ctx, id, req.Square)
		default:
			res, err = s.service.Click(ctx, id, req.Square)
		}
	case "undo":
		res, err = s.service.Undo(ctx, id)
	case "redo":
		res, err = s.service.Redo(ctx, id)
	case "computer":
		res, err = s.service.ComputerMove(ctx, id)
	case "resign":
		res, err = s.service.Resign(ctx, id)
	default:
		s.writeError(rc, fasthttp.StatusNotFound, &chessdto.DomainError{Code: chessdto.CodeNotFound, Message: "unknown action " + action})
		return
	}

	if err != nil && (res == nil || res.State == nil) {
		msg := ""
		if res != nil {
			msg = res.Message
		}
		s.writeServiceErrorMessage(rc, err, msg)
		return
	}
	resp := chesspresenter.ToDTOAction(res, err)
	status := fasthttp.StatusOK
	if resp.Error != nil {
		status = statusFor(resp.Error.Code)
	}
	s.writeJSON(rc, status, resp)
}

func (s *Server) handleHistory(ctx context.Context, rc *fasthttp.RequestCtx) {
	args := rc.QueryArgs()
	player := strings.TrimSpace(string(args.Peek("player")))
	limit := 0
	if raw := string(args.Peek("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(rc, fasthttp.StatusBadRequest, &chessdto.DomainError{Code: chessdto.CodeBadRequest, Message: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	games, err := s.service.History(ctx, player, limit)
	if err != nil {
		s.writeServiceError(rc, err)
		return
	}
	s.writeJSON(rc, fasthttp.StatusOK, chessdto.HistoryResponse{Player: player, Games: chesspresenter.ToDTOGames(games)})
}

func (s *Server) handleRecord(ctx context.Context, rc *fasthttp.RequestCtx, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(rc, fasthttp.StatusBadRequest, &chessdto.DomainError{Code: chessdto.CodeBadRequest, Message: "invalid game id"})
		return
	}
	game, err := s.service.Game(ctx, id)
	if err != nil {
		s.writeServiceError(rc, err)
		return
	}
	s.writeJSON(rc, fasthttp.StatusOK, chesspresenter.ToDTOGame(game))
}

func (s *Server) handleProfile(ctx context.Context, rc *fasthttp.RequestCtx, name string) {
	profile, err := s.service.Profile(ctx, name)
	if err != nil {
		s.writeServiceError(rc, err)
		return
	}
	s.writeJSON(rc, fasthttp.StatusOK, chesspresenter.ToDTOProfile(profile))
}

func (s *Server) decode(rc *fasthttp.RequestCtx, out any) bool {
	body := rc.PostBody()
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, out); err != nil {
		s.writeError(rc, fasthttp.StatusBadRequest, &chessdto.DomainError{Code: chessdto.CodeBadRequest, Message: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) methodNotAllowed(rc *fasthttp.RequestCtx) {
	s.writeError(rc, fasthttp.StatusMethodNotAllowed, &chessdto.DomainError{Code: chessdto.CodeBadRequest, Message: "method not allowed"})
}

func (s *Server) writeServiceError(rc *fasthttp.RequestCtx, err error) {
	s.writeServiceErrorMessage(rc, err, s.messageFor(err))
}

func (s *Server) writeServiceErrorMessage(rc *fasthttp.RequestCtx, err error, message string) {
	de := chesspresenter.ToDTOError(err, message)
	status := statusFor(de.Code)
	if status >= fasthttp.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", string(rc.Path())), zap.Error(err))
	}
	s.writeError(rc, status, de)
}

// messageFor renders catalog text for errors that have no action result.
func (s *Server) messageFor(err error) string {
	switch {
	case errors.Is(err, svc.ErrSessionNotFound):
		return s.service.Message("error.session_not_found", nil, "")
	case errors.Is(err, svc.ErrGameFinished):
		return s.service.Message("error.game_finished", nil, "")
	default:
		return ""
	}
}

func (s *Server) writeError(rc *fasthttp.RequestCtx, status int, de *chessdto.DomainError) {
	s.writeJSON(rc, status, struct {
		Error *chessdto.DomainError `json:"error"`
	}{Error: de})
}

func (s *Server) writeJSON(rc *fasthttp.RequestCtx, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", zap.Error(err))
		rc.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	rc.SetStatusCode(status)
	rc.SetContentType(contentTypeJSON)
	rc.SetBody(payload)
}

func statusFor(code string) int {
	switch code {
	case chessdto.CodeSessionNotFound, chessdto.CodeNotFound:
		return fasthttp.StatusNotFound
	case chessdto.CodeGameFinished:
		return fasthttp.StatusGone
	case chessdto.CodeInvalidMode, chessdto.CodeInvalidSquare, chessdto.CodeInvalidPosition, chessdto.CodeBadRequest:
		return fasthttp.StatusBadRequest
	case chessdto.CodeIllegalMove:
		return fasthttp.StatusUnprocessableEntity
	case chessdto.CodeWrongTurn, chessdto.CodeNoSelection, chessdto.CodeNothingToUndo,
		chessdto.CodeNothingToRedo, chessdto.CodeNoLegalMoves:
		return fasthttp.StatusConflict
	default:
		return fasthttp.StatusInternalServerError
	}
}
