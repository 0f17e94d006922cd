package game

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"testing"
	"time"

	"github.com/park285/Cheese-boardchess/internal/chess"
	"github.com/park285/Cheese-boardchess/internal/msgcat"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	svc   *Service
	store *MemoryStore
	repo  Repository
}

func newTestEnv(t *testing.T, opts ...func(*Config)) *testEnv {
	t.Helper()
	cat, err := msgcat.New("")
	require.NoError(t, err)
	cfg := Config{SessionTTL: time.Hour, ComputerSide: chess.Black}
	for _, o := range opts {
		o(&cfg)
	}
	store := NewMemoryStore()
	repo := NewMemoryRepository()
	svc, err := NewService(store, repo, NewSVGBoardRenderer(), cat, cfg, zap.NewNop())
	require.NoError(t, err)
	return &testEnv{svc: svc, store: store, repo: repo}
}

// seed stores a session built from an arbitrary position.
func (e *testEnv) seed(t *testing.T, mode Mode, board chess.Board, turn chess.Side) string {
	t.Helper()
	p := &sessionPayload{
		SessionUUID:  "seeded-" + t.Name(),
		Mode:         mode,
		WhiteName:    "Alice",
		BlackName:    "Bob",
		ComputerSide: chess.Black,
		Game:         chess.NewSessionFrom(board, turn).Data(),
		StartedAt:    time.Now(),
	}
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	require.NoError(t, e.store.Save(context.Background(), p.SessionUUID, raw, time.Hour))
	return p.SessionUUID
}

func mustSq(t *testing.T, text string) chess.Square {
	t.Helper()
	sq, err := chess.ParseSquare(text)
	require.NoError(t, err)
	return sq
}

func TestStartValidation(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Start(context.Background(), StartRequest{Mode: "online"})
	require.ErrorIs(t, err, ErrInvalidMode)

	_, err = env.svc.Start(context.Background(), StartRequest{Mode: ModeFriends, FEN: "garbage"})
	require.Error(t, err)

	mode, err := ParseMode("Friends")
	require.NoError(t, err)
	require.Equal(t, ModeFriends, mode)
}

func TestFriendsClickFlow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res, err := env.svc.Start(ctx, StartRequest{Mode: ModeFriends, WhiteName: "Alice", BlackName: "Bob"})
	require.NoError(t, err)
	id := res.State.SessionUUID
	require.NotEmpty(t, id)
	require.Equal(t, chess.White, res.State.Turn)
	require.Contains(t, res.Message, "Alice's turn!")
	require.False(t, res.State.HasComputer)

	res, err = env.svc.Click(ctx, id, "e2")
	require.NoError(t, err)
	require.NotNil(t, res.State.Selected)
	require.Equal(t, []chess.Square{mustSq(t, "e4"), mustSq(t, "e3")}, res.State.Destinations)

	res, err = env.svc.Click(ctx, id, "E4")
	require.NoError(t, err)
	require.NotNil(t, res.Applied)
	require.Equal(t, "e2e4", res.Applied.UCI())
	require.Nil(t, res.Reply)
	require.Equal(t, chess.Black, res.State.Turn)
	require.Equal(t, "Bob", res.State.TurnName)
	require.Contains(t, res.Message, "Bob's turn!")

	st, err := env.svc.Status(ctx, id)
	require.NoError(t, err)
	require.Len(t, st.Moves, 1)
	require.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b - - 0 1", st.FEN)
	require.True(t, st.CanUndo)
}

func TestSelectRules(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	res, err := env.svc.Start(ctx, StartRequest{Mode: ModeFriends, WhiteName: "Alice", BlackName: "Bob"})
	require.NoError(t, err)
	id := res.State.SessionUUID

	res, err = env.svc.Select(ctx, id, "e7")
	require.ErrorIs(t, err, chess.ErrWrongTurn)
	require.Equal(t, "Alice's turn!", res.Message)
	require.Nil(t, res.State.Selected)

	res, err = env.svc.Select(ctx, id, "e2")
	require.NoError(t, err)
	require.False(t, res.Reselected)
	res, err = env.svc.Move(ctx, id, "g1")
	require.NoError(t, err, "reselecting an own piece is not an error")
	require.True(t, res.Reselected)
	require.Equal(t, mustSq(t, "g1"), *res.State.Selected)
	require.Contains(t, res.Message, "g1")

	res, err = env.svc.Move(ctx, id, "g5")
	require.ErrorIs(t, err, chess.ErrIllegalMove)
	require.Nil(t, res.State.Selected)
	require.Equal(t, chess.White, res.State.Turn)

	_, err = env.svc.Move(ctx, id, "g3")
	require.ErrorIs(t, err, chess.ErrNoSelection)

	_, err = env.svc.Select(ctx, id, "z9")
	require.ErrorIs(t, err, ErrInvalidSquare)

	_, err = env.svc.Select(ctx, "nope", "e2")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestComputerReplyAndUndo(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res, err := env.svc.Start(ctx, StartRequest{Mode: ModeComputer, WhiteName: "Alice"})
	require.NoError(t, err)
	id := res.State.SessionUUID
	require.Equal(t, "Computer", res.State.BlackName)
	require.True(t, res.State.HasComputer)

	res, err = env.svc.MoveDirect(ctx, id, "e2", "e4")
	require.NoError(t, err)
	require.NotNil(t, res.Reply)
	require.Equal(t, "b8a6", res.Reply.UCI())
	require.Equal(t, chess.White, res.State.Turn)
	require.Len(t, res.State.Moves, 2)

	res, err = env.svc.Undo(ctx, id)
	require.NoError(t, err)
	require.Empty(t, res.State.Moves, "undo steps back over the computer reply")
	require.Equal(t, chess.White, res.State.Turn)
	require.True(t, res.State.CanRedo)

	res, err = env.svc.Redo(ctx, id)
	require.NoError(t, err)
	require.Len(t, res.State.Moves, 2)
	require.Equal(t, chess.White, res.State.Turn)

	_, err = env.svc.Redo(ctx, id)
	require.ErrorIs(t, err, chess.ErrNothingToRedo)
}

func TestUndoOnFreshGame(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	res, err := env.svc.Start(ctx, StartRequest{Mode: ModeFriends})
	require.NoError(t, err)

	res, err = env.svc.Undo(ctx, res.State.SessionUUID)
	require.ErrorIs(t, err, chess.ErrNothingToUndo)
	require.Equal(t, "Nothing to undo.", res.Message)
}

func TestComputerOpensAsWhite(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, func(c *Config) { c.ComputerSide = chess.White })

	res, err := env.svc.Start(ctx, StartRequest{Mode: ModeComputer, BlackName: "Bob"})
	require.NoError(t, err)
	require.Equal(t, "Computer", res.State.WhiteName)
	require.NotNil(t, res.Reply)
	require.Equal(t, "b1a3", res.Reply.UCI())
	require.Equal(t, chess.Black, res.State.Turn)

	res, err = env.svc.Undo(ctx, res.State.SessionUUID)
	require.ErrorIs(t, err, chess.ErrNothingToUndo)
	require.Len(t, res.State.Moves, 1, "the computer's opening stays on the board")

	_, err = env.svc.Select(ctx, res.State.SessionUUID, "a3")
	require.ErrorIs(t, err, chess.ErrWrongTurn)
}

func TestComputerMoveRejectedOffTurn(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	res, err := env.svc.Start(ctx, StartRequest{Mode: ModeComputer, WhiteName: "Alice"})
	require.NoError(t, err)
	id := res.State.SessionUUID

	res, err = env.svc.ComputerMove(ctx, id)
	require.ErrorIs(t, err, chess.ErrWrongTurn)
	require.Nil(t, res.Applied)
	require.Nil(t, res.Reply)
	require.Empty(t, res.State.Moves, "the human's move is never played for them")
	require.Equal(t, chess.White, res.State.Turn)
	require.Contains(t, res.Message, "Alice")

	res, err = env.svc.Start(ctx, StartRequest{Mode: ModeFriends})
	require.NoError(t, err)
	res, err = env.svc.ComputerMove(ctx, res.State.SessionUUID)
	require.ErrorIs(t, err, chess.ErrWrongTurn)
	require.Empty(t, res.State.Moves)
}

func TestComputerMoveOnComputerTurn(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.seed(t, ModeComputer, chess.NewBoard(), chess.Black)

	res, err := env.svc.ComputerMove(ctx, id)
	require.NoError(t, err)
	require.Nil(t, res.Applied)
	require.NotNil(t, res.Reply)
	require.Equal(t, "b8a6", res.Reply.UCI())
	require.Equal(t, chess.White, res.State.Turn)
	require.Contains(t, res.Message, "Alice's turn!")
}

func TestRedoEndingOnComputerTurnPlaysReply(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	res, err := env.svc.Start(ctx, StartRequest{Mode: ModeFriends, WhiteName: "Alice", BlackName: "Bob"})
	require.NoError(t, err)
	id := res.State.SessionUUID

	_, err = env.svc.MoveDirect(ctx, id, "e2", "e4")
	require.NoError(t, err)
	_, err = env.svc.Undo(ctx, id)
	require.NoError(t, err)

	// hand black to the computer; the redo stack now ends on its turn
	p, g, err := env.svc.load(ctx, id)
	require.NoError(t, err)
	p.Mode = ModeComputer
	p.ComputerSide = chess.Black
	require.NoError(t, env.svc.save(ctx, p, g))

	res, err = env.svc.Redo(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, res.Reply, "a fresh computer move follows the exhausted redo stack")
	require.Equal(t, "b8a6", res.Reply.UCI())
	require.Len(t, res.State.Moves, 2)
	require.Equal(t, chess.White, res.State.Turn)
	require.False(t, res.State.CanRedo)
	require.True(t, res.State.CanUndo)

	_, err = env.svc.Redo(ctx, id)
	require.ErrorIs(t, err, chess.ErrNothingToRedo)
}

func TestSessionLocksAreBounded(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	for i := 0; i < 1000; i++ {
		_, err := env.svc.Status(ctx, fmt.Sprintf("missing-%d", i))
		require.ErrorIs(t, err, ErrSessionNotFound)
	}
	for i := range env.svc.locks {
		require.True(t, env.svc.locks[i].TryLock(), "stripe %d left locked", i)
		env.svc.locks[i].Unlock()
	}
	require.Equal(t, lockStripe(" abc "), lockStripe("abc"))
}

func TestResignRecordsGame(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	res, err := env.svc.Start(ctx, StartRequest{Mode: ModeFriends, WhiteName: "Alice", BlackName: "Bob"})
	require.NoError(t, err)
	id := res.State.SessionUUID
	_, err = env.svc.MoveDirect(ctx, id, "e2", "e4")
	require.NoError(t, err)

	res, err = env.svc.Resign(ctx, id)
	require.NoError(t, err)
	require.True(t, res.State.Finished)
	require.Equal(t, "white", res.State.Winner)
	require.Equal(t, MethodResign, res.State.ResultMethod)
	require.NotZero(t, res.State.GameID)
	require.Contains(t, res.Message, "Bob resigned. Alice wins.")

	_, err = env.svc.Status(ctx, id)
	require.ErrorIs(t, err, ErrGameFinished)

	games, err := env.svc.History(ctx, "Alice", 0)
	require.NoError(t, err)
	require.Len(t, games, 1)
	require.Equal(t, []string{"e2e4"}, games[0].MovesUCI)
	require.Equal(t, "friends", games[0].Mode)

	rec, err := env.svc.Game(ctx, res.State.GameID)
	require.NoError(t, err)
	require.Equal(t, id, rec.SessionUUID)
	_, err = env.svc.Game(ctx, 4242)
	require.ErrorIs(t, err, ErrGameNotFound)

	alice, err := env.svc.Profile(ctx, "Alice")
	require.NoError(t, err)
	require.Equal(t, 1, alice.Wins)
	bob, err := env.svc.Profile(ctx, "Bob")
	require.NoError(t, err)
	require.Equal(t, 1, bob.Losses)
	require.Equal(t, "loss", bob.StreakType)
}

func TestComputerWithoutMovesLoses(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	var board chess.Board
	board.Set(mustSq(t, "e5"), chess.BlackPawn)
	board.Set(mustSq(t, "e3"), chess.WhitePawn)
	id := env.seed(t, ModeComputer, board, chess.White)

	res, err := env.svc.MoveDirect(ctx, id, "e3", "e4")
	require.NoError(t, err)
	require.True(t, res.State.Finished)
	require.Equal(t, "white", res.State.Winner)
	require.Equal(t, MethodNoLegalMoves, res.State.ResultMethod)
	require.Nil(t, res.Reply)
	require.Contains(t, res.Message, "Bob has no valid moves!")

	_, err = env.svc.Profile(ctx, "Bob")
	require.ErrorIs(t, err, ErrProfileNotFound, "the computer side has no profile")
	alice, err := env.svc.Profile(ctx, "Alice")
	require.NoError(t, err)
	require.Equal(t, 1, alice.GamesPlayed)
}

func TestCaptureScoresAndMessages(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	var board chess.Board
	board.Set(mustSq(t, "a1"), chess.WhiteRook)
	board.Set(mustSq(t, "a8"), chess.BlackQueen)
	board.Set(mustSq(t, "h8"), chess.BlackRook)
	id := env.seed(t, ModeFriends, board, chess.White)

	res, err := env.svc.MoveDirect(ctx, id, "a1", "a8")
	require.NoError(t, err)
	require.Equal(t, chess.Scores{White: 9}, res.State.Scores)
	require.Contains(t, res.Message, "took queen on a8 (+9)")
	require.False(t, res.State.Finished)
}

func TestRenderLiveSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	res, err := env.svc.Start(ctx, StartRequest{Mode: ModeFriends})
	require.NoError(t, err)
	id := res.State.SessionUUID
	_, err = env.svc.Select(ctx, id, "b1")
	require.NoError(t, err)

	data, err := env.svc.Render(ctx, id)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, imageWidth, img.Bounds().Dx())
}

func TestSessionExpires(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	clock := time.Now()
	env.store.now = func() time.Time { return clock }

	res, err := env.svc.Start(ctx, StartRequest{Mode: ModeFriends})
	require.NoError(t, err)

	clock = clock.Add(2 * time.Hour)
	_, err = env.svc.Status(ctx, res.State.SessionUUID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(nil, NewMemoryRepository(), NewSVGBoardRenderer(), nil, Config{SessionTTL: time.Hour}, nil)
	require.Error(t, err)
	_, err = NewService(NewMemoryStore(), NewMemoryRepository(), NewSVGBoardRenderer(), nil, Config{}, nil)
	require.Error(t, err)

	svc, err := NewService(NewMemoryStore(), NewMemoryRepository(), NewSVGBoardRenderer(), nil, Config{SessionTTL: time.Hour}, nil)
	require.NoError(t, err)
	res, err := svc.Start(context.Background(), StartRequest{Mode: ModeFriends})
	require.NoError(t, err)
	require.Equal(t, "White", res.State.TurnName)
	require.Contains(t, res.Message, "White's turn!", "fallback text is used without a catalog")
}
