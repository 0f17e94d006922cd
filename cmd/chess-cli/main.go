package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/park285/Cheese-boardchess/internal/adapter/chesspresenter"
	"github.com/park285/Cheese-boardchess/internal/chessclient"
	appcfg "github.com/park285/Cheese-boardchess/internal/config"
	"github.com/park285/Cheese-boardchess/internal/gamebuilder"
	"github.com/park285/Cheese-boardchess/internal/obslog"
	"github.com/park285/Cheese-boardchess/pkg/chessdto"
	"go.uber.org/zap"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	serverURL := flag.String("server", cfg.ServerURL, "chess-server base URL; empty plays locally")
	mode := flag.String("mode", "computer", "computer or friends")
	white := flag.String("white", "", "white player name")
	black := flag.String("black", "", "black player name")
	fen := flag.String("fen", "", "start from a FEN position")
	flag.Parse()

	// the terminal is the UI, so only warnings reach stderr unless LOG_LEVEL says otherwise
	opts := obslog.OptionsFromEnv()
	if os.Getenv("LOG_LEVEL") == "" {
		opts.Level = "warn"
	}
	logger, err := obslog.Build(opts)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	var be backend
	if strings.TrimSpace(*serverURL) != "" {
		be = chessclient.NewClient(*serverURL)
	} else {
		deps, err := gamebuilder.New(ctx, cfg, logger.Named("game"))
		if err != nil {
			logger.Fatal("chess init error", zap.Error(err))
		}
		defer func() { _ = deps.Close() }()
		be = localBackend{svc: deps.Service}
	}

	out := io.Writer(os.Stdout)
	color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	if color {
		out = colorable.NewColorableStdout()
	}

	c := &cli{
		be:        be,
		out:       out,
		color:     color,
		formatter: chesspresenter.NewFormatter(nil),
		start:     chessdto.StartRequest{Mode: *mode, WhiteName: *white, BlackName: *black, FEN: *fen},
	}
	c.presenter = chesspresenter.NewPresenter(c.formatter, c.print, nil)

	if err := c.newGame(ctx, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	c.run(ctx, os.Stdin)
}

type cli struct {
	be        backend
	out       io.Writer
	color     bool
	formatter *chesspresenter.Formatter
	presenter *chesspresenter.Presenter
	start     chessdto.StartRequest
	session   string
}

func (c *cli) print(message string) error {
	if c.color {
		message = colorizeBoard(message)
	}
	_, err := fmt.Fprintln(c.out, message)
	return err
}

func (c *cli) run(ctx context.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)
	c.prompt()
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 {
			if quit := c.dispatch(ctx, strings.ToLower(fields[0]), fields[1:]); quit {
				return
			}
		}
		c.prompt()
	}
}

func (c *cli) prompt() {
	fmt.Fprint(c.out, "> ")
}

func (c *cli) dispatch(ctx context.Context, cmd string, args []string) bool {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		_ = c.print(c.formatter.Help())
	case "new":
		if err := c.newGame(ctx, args); err != nil {
			_ = c.print(err.Error())
		}
	case "click", "c":
		if len(args) != 1 {
			_ = c.print("usage: click <square>")
			return false
		}
		c.action(c.be.Click(ctx, c.session, args[0]))
	case "select":
		if len(args) != 1 {
			_ = c.print("usage: select <square>")
			return false
		}
		c.action(c.be.Select(ctx, c.session, args[0]))
	case "move", "m":
		switch len(args) {
		case 1:
			c.action(c.be.Move(ctx, c.session, args[0]))
		case 2:
			c.action(c.be.MoveDirect(ctx, c.session, args[0], args[1]))
		default:
			_ = c.print("usage: move <from> <to>")
		}
	case "undo", "u":
		c.action(c.be.Undo(ctx, c.session))
	case "redo", "r":
		c.action(c.be.Redo(ctx, c.session))
	case "computer":
		c.action(c.be.ComputerMove(ctx, c.session))
	case "resign":
		c.action(c.be.Resign(ctx, c.session))
	case "status", "s":
		st, err := c.be.Status(ctx, c.session)
		if err != nil {
			_ = c.print(errorText(err))
			return false
		}
		_ = c.presenter.Board(c.formatter.Status(st), st, nil)
	case "png":
		c.writePNG(ctx, args)
	case "history":
		c.history(ctx, args)
	case "record":
		if len(args) != 1 {
			_ = c.print("usage: record <id>")
			return false
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			_ = c.print("invalid id")
			return false
		}
		rec, err := c.be.Game(ctx, id)
		if err != nil {
			_ = c.print(errorText(err))
			return false
		}
		_ = c.print(c.formatter.Game(rec))
	case "profile":
		if len(args) != 1 {
			_ = c.print("usage: profile <name>")
			return false
		}
		p, err := c.be.Profile(ctx, args[0])
		if err != nil {
			_ = c.print(errorText(err))
			return false
		}
		_ = c.print(c.formatter.Profile(p))
	default:
		// a bare square is a click
		if len(cmd) == 2 && len(args) == 0 {
			c.action(c.be.Click(ctx, c.session, cmd))
			return false
		}
		_ = c.print("unknown command, try `help`")
	}
	return false
}

func (c *cli) newGame(ctx context.Context, args []string) error {
	req := c.start
	if len(args) > 0 {
		req.Mode = args[0]
		req.FEN = ""
	}
	resp, err := c.be.Start(ctx, req)
	if err != nil {
		return fmt.Errorf("start game: %s", errorText(err))
	}
	c.session = resp.State.SessionUUID
	_ = c.presenter.Action(resp, nil)
	return nil
}

func (c *cli) action(resp *chessdto.ActionResponse, err error) {
	if resp == nil {
		if err != nil {
			_ = c.print(errorText(err))
		}
		return
	}
	_ = c.presenter.Action(resp, nil)
	if resp.State != nil && resp.State.Finished {
		_ = c.print("Type `new` to play again or `history` to list games.")
	}
}

func (c *cli) writePNG(ctx context.Context, args []string) {
	path := "board.png"
	if len(args) > 0 {
		path = args[0]
	}
	data, err := c.be.BoardPNG(ctx, c.session)
	if err != nil {
		_ = c.print(errorText(err))
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		_ = c.print("write image: " + err.Error())
		return
	}
	_ = c.print(fmt.Sprintf("wrote %s (%s)", path, humanize.Bytes(uint64(len(data)))))
}

func (c *cli) history(ctx context.Context, args []string) {
	player, limit := "", 0
	for _, a := range args {
		if n, err := strconv.Atoi(a); err == nil {
			limit = n
			continue
		}
		player = a
	}
	games, err := c.be.History(ctx, player, limit)
	if err != nil {
		_ = c.print(errorText(err))
		return
	}
	_ = c.print(c.formatter.History(games))
}

func errorText(err error) string {
	var apiErr *chessclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.DomainError.Error()
	}
	if de := chesspresenter.ToDTOError(err, ""); de != nil {
		return de.Error()
	}
	return ""
}
