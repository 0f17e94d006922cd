package main

import (
	"context"

	"github.com/park285/Cheese-boardchess/internal/adapter/chesspresenter"
	svcgame "github.com/park285/Cheese-boardchess/internal/service/game"
	"github.com/park285/Cheese-boardchess/pkg/chessdto"
)

// backend is satisfied by chessclient.Client and by localBackend.
type backend interface {
	Start(ctx context.Context, req chessdto.StartRequest) (*chessdto.ActionResponse, error)
	Status(ctx context.Context, id string) (*chessdto.SessionState, error)
	Select(ctx context.Context, id, square string) (*chessdto.ActionResponse, error)
	Move(ctx context.Context, id, square string) (*chessdto.ActionResponse, error)
	MoveDirect(ctx context.Context, id, from, to string) (*chessdto.ActionResponse, error)
	Click(ctx context.Context, id, square string) (*chessdto.ActionResponse, error)
	Undo(ctx context.Context, id string) (*chessdto.ActionResponse, error)
	Redo(ctx context.Context, id string) (*chessdto.ActionResponse, error)
	ComputerMove(ctx context.Context, id string) (*chessdto.ActionResponse, error)
	Resign(ctx context.Context, id string) (*chessdto.ActionResponse, error)
	BoardPNG(ctx context.Context, id string) ([]byte, error)
	History(ctx context.Context, player string, limit int) ([]*chessdto.GameRecord, error)
	Game(ctx context.Context, id int64) (*chessdto.GameRecord, error)
	Profile(ctx context.Context, name string) (*chessdto.PlayerProfile, error)
}

type localBackend struct {
	svc *svcgame.Service
}

func (b localBackend) Start(ctx context.Context, req chessdto.StartRequest) (*chessdto.ActionResponse, error) {
	mode, err := svcgame.ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	res, err := b.svc.Start(ctx, svcgame.StartRequest{Mode: mode, WhiteName: req.WhiteName, BlackName: req.BlackName, FEN: req.FEN})
	if err != nil {
		return nil, err
	}
	return chesspresenter.ToDTOAction(res, nil), nil
}

func (b localBackend) Status(ctx context.Context, id string) (*chessdto.SessionState, error) {
	st, err := b.svc.Status(ctx, id)
	if err != nil {
		return nil, err
	}
	return chesspresenter.ToDTOState(st), nil
}

func (b localBackend) Select(ctx context.Context, id, square string) (*chessdto.ActionResponse, error) {
	return wrap(b.svc.Select(ctx, id, square))
}

func (b localBackend) Move(ctx context.Context, id, square string) (*chessdto.ActionResponse, error) {
	return wrap(b.svc.Move(ctx, id, square))
}

func (b localBackend) MoveDirect(ctx context.Context, id, from, to string) (*chessdto.ActionResponse, error) {
	return wrap(b.svc.MoveDirect(ctx, id, from, to))
}

func (b localBackend) Click(ctx context.Context, id, square string) (*chessdto.ActionResponse, error) {
	return wrap(b.svc.Click(ctx, id, square))
}

func (b localBackend) Undo(ctx context.Context, id string) (*chessdto.ActionResponse, error) {
	return wrap(b.svc.Undo(ctx, id))
}

func (b localBackend) Redo(ctx context.Context, id string) (*chessdto.ActionResponse, error) {
	return wrap(b.svc.Redo(ctx, id))
}

func (b localBackend) ComputerMove(ctx context.Context, id string) (*chessdto.ActionResponse, error) {
	return wrap(b.svc.ComputerMove(ctx, id))
}

func (b localBackend) Resign(ctx context.Context, id string) (*chessdto.ActionResponse, error) {
	return wrap(b.svc.Resign(ctx, id))
}

func (b localBackend) BoardPNG(ctx context.Context, id string) ([]byte, error) {
	return b.svc.Render(ctx, id)
}

func (b localBackend) History(ctx context.Context, player string, limit int) ([]*chessdto.GameRecord, error) {
	games, err := b.svc.History(ctx, player, limit)
	if err != nil {
		return nil, err
	}
	return chesspresenter.ToDTOGames(games), nil
}

func (b localBackend) Game(ctx context.Context, id int64) (*chessdto.GameRecord, error) {
	g, err := b.svc.Game(ctx, id)
	if err != nil {
		return nil, err
	}
	return chesspresenter.ToDTOGame(g), nil
}

func (b localBackend) Profile(ctx context.Context, name string) (*chessdto.PlayerProfile, error) {
	p, err := b.svc.Profile(ctx, name)
	if err != nil {
		return nil, err
	}
	return chesspresenter.ToDTOProfile(p), nil
}

// wrap keeps the action result when a rule rejected the action. Input errors
// without a state come back as a bare error.
func wrap(res *svcgame.ActionResult, err error) (*chessdto.ActionResponse, error) {
	if res == nil || res.State == nil {
		if err != nil && res != nil && res.Message != "" {
			return &chessdto.ActionResponse{Message: res.Message, Error: chesspresenter.ToDTOError(err, res.Message)}, err
		}
		return nil, err
	}
	return chesspresenter.ToDTOAction(res, err), err
}
