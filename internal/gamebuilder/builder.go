package gamebuilder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	_ "github.com/lib/pq"
	"github.com/park285/Cheese-boardchess/internal/config"
	"github.com/park285/Cheese-boardchess/internal/msgcat"
	svcgame "github.com/park285/Cheese-boardchess/internal/service/game"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Deps holds the wired game service and the resources behind it.
type Deps struct {
	Service *svcgame.Service
	Store   svcgame.SessionStore
	Repo    svcgame.Repository
	Catalog *msgcat.Catalog

	closers []func() error
}

// Close releases the Redis client and database handle, if any.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var result *multierror.Error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// New wires the service from configuration. Without REDIS_URL sessions live in
// memory; without DATABASE_URL finished games do too.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	deps := &Deps{}
	fail := func(err error) (*Deps, error) {
		if cerr := deps.Close(); cerr != nil {
			err = multierror.Append(err, cerr)
		}
		return nil, err
	}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return fail(fmt.Errorf("load messages: %w", err))
	}
	deps.Catalog = catalog

	if strings.TrimSpace(cfg.RedisURL) != "" {
		store, err := svcgame.NewRedisStoreFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return fail(fmt.Errorf("init redis session store: %w", err))
		}
		deps.Store = store
		deps.closers = append(deps.closers, store.Close)
		logger.Info("session store: redis")
	} else {
		deps.Store = svcgame.NewMemoryStore()
		logger.Info("session store: memory")
	}

	repo, closeDB, err := openRepository(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fail(err)
	}
	deps.Repo = repo
	if closeDB != nil {
		deps.closers = append(deps.closers, closeDB)
	}

	svcCfg := svcgame.Config{
		SessionTTL:   time.Duration(cfg.SessionTTLSec) * time.Second,
		HistoryLimit: cfg.HistoryLimit,
		ComputerSide: cfg.ComputerSide,
		WhiteName:    cfg.WhiteName,
		BlackName:    cfg.BlackName,
	}
	service, err := svcgame.NewService(deps.Store, deps.Repo, svcgame.NewSVGBoardRenderer(), catalog, svcCfg, logger)
	if err != nil {
		return fail(err)
	}
	deps.Service = service
	return deps, nil
}

// openRepository picks the repository backend from the DATABASE_URL scheme.
func openRepository(ctx context.Context, rawURL string, logger *zap.Logger) (svcgame.Repository, func() error, error) {
	dsn := strings.TrimSpace(rawURL)
	switch {
	case dsn == "":
		logger.Info("game repository: memory")
		return svcgame.NewMemoryRepository(), nil, nil

	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)
		if err := prepare(ctx, db, svcgame.EnsureSchema); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		logger.Info("game repository: postgres")
		return svcgame.NewRepository(db), db.Close, nil

	case strings.HasPrefix(dsn, "sqlite:"):
		path := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite:"), "//")
		if path == "" {
			return nil, nil, fmt.Errorf("sqlite: empty database path")
		}
		db, err := sql.Open("sqlite", path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		// single writer; also keeps ":memory:" on one connection
		db.SetMaxOpenConns(1)
		if err := prepare(ctx, db, svcgame.EnsureSQLiteSchema); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		logger.Info("game repository: sqlite", zap.String("path", path))
		return svcgame.NewSQLiteRepository(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported DATABASE_URL scheme: %q", dsn)
	}
}

func prepare(ctx context.Context, db *sql.DB, ensure func(context.Context, *sql.DB) error) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return ensure(ctx, db)
}
