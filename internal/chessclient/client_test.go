package chessclient

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/park285/Cheese-boardchess/internal/chess"
	"github.com/park285/Cheese-boardchess/internal/httpapi"
	"github.com/park285/Cheese-boardchess/internal/msgcat"
	svc "github.com/park285/Cheese-boardchess/internal/service/game"
	"github.com/park285/Cheese-boardchess/pkg/chessdto"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		_ = srv.Shutdown()
		_ = ln.Close()
	})
	return NewClient("http://boardchess.test", WithDialer(func(string) (net.Conn, error) { return ln.Dial() }), WithTimeout(2*time.Second))
}

func apiHandler(t *testing.T) fasthttp.RequestHandler {
	t.Helper()
	cat, err := msgcat.New("")
	require.NoError(t, err)
	service, err := svc.NewService(svc.NewMemoryStore(), svc.NewMemoryRepository(), svc.NewSVGBoardRenderer(), cat,
		svc.Config{SessionTTL: time.Hour, ComputerSide: chess.Black}, zap.NewNop())
	require.NoError(t, err)
	return httpapi.NewServer(service, zap.NewNop()).Handler()
}

func TestClientPlaysAgainstServer(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, apiHandler(t))

	require.NoError(t, c.Health(ctx))

	started, err := c.Start(ctx, chessdto.StartRequest{Mode: "computer", WhiteName: "Alice"})
	require.NoError(t, err)
	id := started.State.SessionUUID

	resp, err := c.Click(ctx, id, "g1")
	require.NoError(t, err)
	require.Equal(t, []string{"f3", "h3"}, resp.State.Destinations)

	resp, err = c.Click(ctx, id, "f3")
	require.NoError(t, err)
	require.Equal(t, "g1f3", resp.Applied)
	require.Equal(t, "b8a6", resp.Reply)

	resp, err = c.Undo(ctx, id)
	require.NoError(t, err)
	require.Empty(t, resp.State.MovesUCI)

	resp, err = c.Redo(ctx, id)
	require.NoError(t, err)
	require.Len(t, resp.State.MovesUCI, 2)

	st, err := c.Status(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "white", st.Turn)

	img, err := c.BoardPNG(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []byte("\x89PNG"), img[:4])

	resp, err = c.Resign(ctx, id)
	require.NoError(t, err)
	require.True(t, resp.State.Finished)
	require.Equal(t, "black", resp.State.Winner)

	games, err := c.History(ctx, "Alice", 5)
	require.NoError(t, err)
	require.Len(t, games, 1)

	rec, err := c.Game(ctx, games[0].ID)
	require.NoError(t, err)
	require.Equal(t, []string{"g1f3", "b8a6"}, rec.MovesUCI)

	profile, err := c.Profile(ctx, "Alice")
	require.NoError(t, err)
	require.Equal(t, 1, profile.Losses)
}

func TestClientRuleErrorKeepsState(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, apiHandler(t))

	started, err := c.Start(ctx, chessdto.StartRequest{Mode: "friends"})
	require.NoError(t, err)

	resp, err := c.MoveDirect(ctx, started.State.SessionUUID, "e2", "e5")
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 422, apiErr.Status)
	require.Equal(t, chessdto.CodeIllegalMove, apiErr.Code)
	require.NotNil(t, resp)
	require.Equal(t, "white", resp.State.Turn)

	_, err = c.Status(ctx, "missing")
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, chessdto.CodeSessionNotFound, apiErr.Code)
	require.Nil(t, ActionOf(err))
}

func TestClientRetriesServerErrors(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(rc *fasthttp.RequestCtx) {
		calls++
		if calls < 3 {
			rc.SetStatusCode(fasthttp.StatusServiceUnavailable)
			return
		}
		rc.SetContentType("application/json")
		rc.SetBodyString(`{"session_id":"abc","turn":"black"}`)
	})

	st, err := c.Status(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, "black", st.Turn)
	require.Equal(t, 3, calls)

	calls = 0
	_, err = c.Undo(context.Background(), "abc")
	require.Error(t, err)
	require.Equal(t, 1, calls, "actions are not retried")
}
