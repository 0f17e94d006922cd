package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcfg "github.com/park285/Cheese-boardchess/internal/config"
	"github.com/park285/Cheese-boardchess/internal/gamebuilder"
	"github.com/park285/Cheese-boardchess/internal/httpapi"
	"github.com/park285/Cheese-boardchess/internal/obslog"
	"go.uber.org/zap"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	deps, err := gamebuilder.New(initCtx, cfg, obslog.Named("game"))
	cancel()
	if err != nil {
		logger.Fatal("chess init error", zap.Error(err))
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("close resources", zap.Error(err))
		}
	}()

	server := httpapi.NewServer(deps.Service, obslog.Named("http"))
	if err := server.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
		logger.Error("http server stopped", zap.Error(err))
		return
	}
	logger.Info("bye")
}
