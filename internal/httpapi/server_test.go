package httpapi

import (
	"bytes"
	"encoding/json"
	"image/png"
	"strconv"
	"testing"
	"time"

	"github.com/park285/Cheese-boardchess/internal/chess"
	"github.com/park285/Cheese-boardchess/internal/msgcat"
	svc "github.com/park285/Cheese-boardchess/internal/service/game"
	"github.com/park285/Cheese-boardchess/pkg/chessdto"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) fasthttp.RequestHandler {
	t.Helper()
	cat, err := msgcat.New("")
	require.NoError(t, err)
	service, err := svc.NewService(svc.NewMemoryStore(), svc.NewMemoryRepository(), svc.NewSVGBoardRenderer(), cat,
		svc.Config{SessionTTL: time.Hour, ComputerSide: chess.Black}, zap.NewNop())
	require.NoError(t, err)
	return NewServer(service, zap.NewNop()).Handler()
}

func call(h fasthttp.RequestHandler, method, uri string, body any) *fasthttp.RequestCtx {
	var rc fasthttp.RequestCtx
	rc.Request.Header.SetMethod(method)
	rc.Request.SetRequestURI(uri)
	if body != nil {
		payload, _ := json.Marshal(body)
		rc.Request.Header.SetContentType("application/json")
		rc.Request.SetBody(payload)
	}
	h(&rc)
	return &rc
}

func decodeAction(t *testing.T, rc *fasthttp.RequestCtx) chessdto.ActionResponse {
	t.Helper()
	var resp chessdto.ActionResponse
	require.NoError(t, json.Unmarshal(rc.Response.Body(), &resp), string(rc.Response.Body()))
	return resp
}

func startFriends(t *testing.T, h fasthttp.RequestHandler) string {
	t.Helper()
	rc := call(h, fasthttp.MethodPost, "/api/games", chessdto.StartRequest{Mode: "friends", WhiteName: "Alice", BlackName: "Bob"})
	require.Equal(t, fasthttp.StatusCreated, rc.Response.StatusCode())
	resp := decodeAction(t, rc)
	require.NotNil(t, resp.State)
	require.Equal(t, "white", resp.State.Turn)
	require.Empty(t, resp.State.Computer)
	return resp.State.SessionUUID
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t)
	rc := call(h, fasthttp.MethodGet, "/healthz", nil)
	require.Equal(t, fasthttp.StatusOK, rc.Response.StatusCode())
	require.Equal(t, "ok", string(rc.Response.Body()))
}

func TestClickThenMove(t *testing.T) {
	h := newTestHandler(t)
	id := startFriends(t, h)

	rc := call(h, fasthttp.MethodPost, "/api/games/"+id+"/click", chessdto.SquareRequest{Square: "e2"})
	require.Equal(t, fasthttp.StatusOK, rc.Response.StatusCode())
	resp := decodeAction(t, rc)
	require.Equal(t, "e2", resp.State.Selected)
	require.Equal(t, []string{"e4", "e3"}, resp.State.Destinations)

	rc = call(h, fasthttp.MethodPost, "/api/games/"+id+"/click", chessdto.SquareRequest{Square: "e4"})
	resp = decodeAction(t, rc)
	require.Equal(t, "e2e4", resp.Applied)
	require.Equal(t, "black", resp.State.Turn)
	require.Equal(t, "....P...", resp.State.Rows[4])

	rc = call(h, fasthttp.MethodPost, "/api/games/"+id+"/move", chessdto.SquareRequest{From: "d7", Square: "d5"})
	resp = decodeAction(t, rc)
	require.Equal(t, "d7d5", resp.Applied)

	rc = call(h, fasthttp.MethodPost, "/api/games/"+id+"/move", chessdto.SquareRequest{From: "e4", Square: "d5"})
	resp = decodeAction(t, rc)
	require.Equal(t, chessdto.Score{White: 1}, resp.State.Scores)

	rc = call(h, fasthttp.MethodGet, "/api/games/"+id, nil)
	require.Equal(t, fasthttp.StatusOK, rc.Response.StatusCode())
	var st chessdto.SessionState
	require.NoError(t, json.Unmarshal(rc.Response.Body(), &st))
	require.Equal(t, []string{"e2e4", "d7d5", "e4d5"}, st.MovesUCI)
	require.Equal(t, "e4d5", st.LastMove)
}

func TestRuleErrorsCarryState(t *testing.T) {
	h := newTestHandler(t)
	id := startFriends(t, h)

	rc := call(h, fasthttp.MethodPost, "/api/games/"+id+"/select", chessdto.SquareRequest{Square: "e7"})
	require.Equal(t, fasthttp.StatusConflict, rc.Response.StatusCode())
	resp := decodeAction(t, rc)
	require.NotNil(t, resp.Error)
	require.Equal(t, chessdto.CodeWrongTurn, resp.Error.Code)
	require.Equal(t, "Alice's turn!", resp.Error.Message)
	require.NotNil(t, resp.State)

	rc = call(h, fasthttp.MethodPost, "/api/games/"+id+"/move", chessdto.SquareRequest{From: "e2", Square: "e5"})
	require.Equal(t, fasthttp.StatusUnprocessableEntity, rc.Response.StatusCode())

	rc = call(h, fasthttp.MethodPost, "/api/games/"+id+"/undo", nil)
	require.Equal(t, fasthttp.StatusConflict, rc.Response.StatusCode())
	require.Equal(t, chessdto.CodeNothingToUndo, decodeAction(t, rc).Error.Code)

	rc = call(h, fasthttp.MethodPost, "/api/games/"+id+"/click", chessdto.SquareRequest{Square: "k9"})
	require.Equal(t, fasthttp.StatusBadRequest, rc.Response.StatusCode())
	resp = decodeAction(t, rc)
	require.Equal(t, chessdto.CodeInvalidSquare, resp.Error.Code)
	require.Equal(t, "Unknown square k9.", resp.Error.Message)
}

func TestUnknownSessionAndRoutes(t *testing.T) {
	h := newTestHandler(t)

	rc := call(h, fasthttp.MethodGet, "/api/games/missing", nil)
	require.Equal(t, fasthttp.StatusNotFound, rc.Response.StatusCode())
	resp := decodeAction(t, rc)
	require.Equal(t, chessdto.CodeSessionNotFound, resp.Error.Code)
	require.Equal(t, "No game with that id.", resp.Error.Message)

	rc = call(h, fasthttp.MethodPost, "/api/games", chessdto.StartRequest{Mode: "online"})
	require.Equal(t, fasthttp.StatusBadRequest, rc.Response.StatusCode())
	require.Equal(t, chessdto.CodeInvalidMode, decodeAction(t, rc).Error.Code)

	rc = call(h, fasthttp.MethodPost, "/api/games", chessdto.StartRequest{Mode: "friends", FEN: "bogus"})
	require.Equal(t, fasthttp.StatusBadRequest, rc.Response.StatusCode())
	require.Equal(t, chessdto.CodeInvalidPosition, decodeAction(t, rc).Error.Code)

	rc = call(h, fasthttp.MethodDelete, "/api/games", nil)
	require.Equal(t, fasthttp.StatusMethodNotAllowed, rc.Response.StatusCode())

	rc = call(h, fasthttp.MethodGet, "/nowhere", nil)
	require.Equal(t, fasthttp.StatusNotFound, rc.Response.StatusCode())

	var bad fasthttp.RequestCtx
	bad.Request.Header.SetMethod(fasthttp.MethodPost)
	bad.Request.SetRequestURI("/api/games")
	bad.Request.SetBodyString("{")
	h(&bad)
	require.Equal(t, fasthttp.StatusBadRequest, bad.Response.StatusCode())
}

func TestComputerGameAndBoardImage(t *testing.T) {
	h := newTestHandler(t)
	rc := call(h, fasthttp.MethodPost, "/api/games", chessdto.StartRequest{WhiteName: "Alice"})
	require.Equal(t, fasthttp.StatusCreated, rc.Response.StatusCode())
	resp := decodeAction(t, rc)
	id := resp.State.SessionUUID
	require.Equal(t, "black", resp.State.Computer)
	require.Equal(t, "Computer", resp.State.BlackName)

	rc = call(h, fasthttp.MethodPost, "/api/games/"+id+"/move", chessdto.SquareRequest{From: "e2", Square: "e4"})
	resp = decodeAction(t, rc)
	require.Equal(t, "e2e4", resp.Applied)
	require.Equal(t, "b8a6", resp.Reply)

	rc = call(h, fasthttp.MethodGet, "/api/games/"+id+"/board.png", nil)
	require.Equal(t, fasthttp.StatusOK, rc.Response.StatusCode())
	require.Equal(t, "image/png", string(rc.Response.Header.ContentType()))
	_, err := png.Decode(bytes.NewReader(rc.Response.Body()))
	require.NoError(t, err)
}

func TestResignHistoryRecordProfile(t *testing.T) {
	h := newTestHandler(t)
	id := startFriends(t, h)

	rc := call(h, fasthttp.MethodPost, "/api/games/"+id+"/resign", nil)
	require.Equal(t, fasthttp.StatusOK, rc.Response.StatusCode())
	resp := decodeAction(t, rc)
	require.True(t, resp.State.Finished)
	require.Equal(t, "black", resp.State.Winner)
	gameID := resp.State.GameID
	require.NotZero(t, gameID)

	rc = call(h, fasthttp.MethodGet, "/api/games/"+id, nil)
	require.Equal(t, fasthttp.StatusGone, rc.Response.StatusCode())

	rc = call(h, fasthttp.MethodGet, "/api/history?player=Bob&limit=5", nil)
	require.Equal(t, fasthttp.StatusOK, rc.Response.StatusCode())
	var hist chessdto.HistoryResponse
	require.NoError(t, json.Unmarshal(rc.Response.Body(), &hist))
	require.Len(t, hist.Games, 1)
	require.Equal(t, gameID, hist.Games[0].ID)
	require.Equal(t, "resign", hist.Games[0].ResultMethod)

	rc = call(h, fasthttp.MethodGet, "/api/history?limit=abc", nil)
	require.Equal(t, fasthttp.StatusBadRequest, rc.Response.StatusCode())

	rc = call(h, fasthttp.MethodGet, "/api/records/"+strconv.FormatInt(gameID, 10), nil)
	require.Equal(t, fasthttp.StatusOK, rc.Response.StatusCode())
	var rec chessdto.GameRecord
	require.NoError(t, json.Unmarshal(rc.Response.Body(), &rec))
	require.Equal(t, id, rec.SessionUUID)

	rc = call(h, fasthttp.MethodGet, "/api/records/999", nil)
	require.Equal(t, fasthttp.StatusNotFound, rc.Response.StatusCode())
	rc = call(h, fasthttp.MethodGet, "/api/records/x", nil)
	require.Equal(t, fasthttp.StatusBadRequest, rc.Response.StatusCode())

	rc = call(h, fasthttp.MethodGet, "/api/players/Bob", nil)
	require.Equal(t, fasthttp.StatusOK, rc.Response.StatusCode())
	var profile chessdto.PlayerProfile
	require.NoError(t, json.Unmarshal(rc.Response.Body(), &profile))
	require.Equal(t, 1, profile.Wins)

	rc = call(h, fasthttp.MethodGet, "/api/players/Nobody", nil)
	require.Equal(t, fasthttp.StatusNotFound, rc.Response.StatusCode())
}
