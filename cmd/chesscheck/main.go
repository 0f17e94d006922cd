package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/park285/Cheese-boardchess/internal/chessclient"
	"github.com/park285/Cheese-boardchess/pkg/chessdto"
)

// chesscheck smoke-tests a running chess-server: health, then a short friends game.
func main() {
	baseURL := os.Getenv("CHESS_SERVER_URL")
	if baseURL == "" {
		log.Fatal("CHESS_SERVER_URL is required")
	}

	client := chessclient.NewClient(baseURL, chessclient.WithTimeout(8*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := client.Health(ctx); err != nil {
		log.Fatalf("/healthz error: %v", err)
	}
	log.Println("/healthz ok")

	started, err := client.Start(ctx, chessdto.StartRequest{Mode: "friends", WhiteName: "check-white", BlackName: "check-black"})
	if err != nil {
		log.Fatalf("start error: %v", err)
	}
	id := started.State.SessionUUID
	log.Printf("started session=%s turn=%s", id, started.State.Turn)

	moved, err := client.MoveDirect(ctx, id, "e2", "e4")
	if err != nil {
		log.Fatalf("move error: %v", err)
	}
	log.Printf("move ok: applied=%s fen=%s", moved.Applied, moved.State.FEN)

	img, err := client.BoardPNG(ctx, id)
	if err != nil {
		log.Printf("board.png error: %v", err)
	} else {
		log.Printf("board.png ok: %d bytes", len(img))
	}

	resigned, err := client.Resign(ctx, id)
	if err != nil {
		log.Fatalf("resign error: %v", err)
	}
	log.Printf("resign ok: winner=%s game_id=%d", resigned.State.Winner, resigned.State.GameID)
}
