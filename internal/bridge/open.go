package bridge

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"maintcore/pkg/config"
)

//go:embed migrations
var migrations embed.FS

// sqlOpen is swapped in tests to simulate driver failures.
var sqlOpen = sql.Open

// OverrideSQLOpen replaces the sql.Open implementation and returns a restore func.
func OverrideSQLOpen(fn func(driverName, dsn string) (*sql.DB, error)) func() {
	prev := sqlOpen
	sqlOpen = fn
	return func() { sqlOpen = prev }
}

// ConnectTimeout bounds the connection retry performed by OpenDB.
var ConnectTimeout = 15 * time.Second

// OpenDB opens and pings the relational store for dialect. sqlite targets a
// file path and is limited to one connection; postgres takes a DSN.
func OpenDB(ctx context.Context, dialect Dialect, target string) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case DialectSQLite:
		if target == "" {
			target = "maintcore.db"
		}
		if target != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
				return nil, fmt.Errorf("create dirs: %w", err)
			}
		}
		db, err = sqlOpen("sqlite", sqliteDSN(target))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	case DialectPostgres:
		if target == "" {
			return nil, errors.New("postgres dsn required")
		}
		db, err = sqlOpen("pgx", target)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown dialect %s", dialect)
	}
	if err := ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}

func ping(ctx context.Context, db *sql.DB) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = ConnectTimeout
	return backoff.Retry(func() error {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		return nil
	}, backoff.WithContext(policy, ctx))
}

// Migrate applies the embedded schema migrations for dialect.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	var gooseDialect goose.Dialect
	switch dialect {
	case DialectSQLite:
		gooseDialect = goose.DialectSQLite3
	case DialectPostgres:
		gooseDialect = goose.DialectPostgres
	default:
		return fmt.Errorf("unknown dialect %s", dialect)
	}
	sub, err := fs.Sub(migrations, "migrations/"+string(dialect))
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(gooseDialect, db, sub)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// OpenHandler opens and migrates the configured database and wraps it in a Handler.
func OpenHandler(ctx context.Context, cfg config.RelationalConfig, log *zap.Logger) (*Handler, error) {
	dialect := Dialect(cfg.Dialect)
	target := cfg.SQLitePath
	if dialect == DialectPostgres {
		target = cfg.PostgresDSN
	}
	db, err := OpenDB(ctx, dialect, target)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewHandler(db, dialect, Binding(cfg.Binding), WithHandlerLogger(log)), nil
}

// Close closes the underlying database.
func (h *Handler) Close() error { return h.db.Close() }

// OpenTransport builds the configured transport. The loopback transport
// owns a freshly opened database; the http transport talks to a running
// bridge server.
func OpenTransport(ctx context.Context, cfg config.RelationalConfig, log *zap.Logger) (Transport, error) {
	switch cfg.Transport {
	case config.TransportLoopback, "":
		h, err := OpenHandler(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return NewLoopback(h, h), nil
	case config.TransportHTTP:
		return NewHTTPTransport(cfg.BridgeURL, nil, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown bridge transport %s", cfg.Transport)
	}
}
