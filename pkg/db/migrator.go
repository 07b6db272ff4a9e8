package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// ErrMigrate wraps every goose failure.
var ErrMigrate = errors.New("db: migration failed")

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

// Migrate applies every pending migration found in dir of migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, dir, table string, log *slog.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	// Shares the pool's connections; closing it would close the pool.
	sqlDB := stdlib.OpenDBFromPool(pool)

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(&gooseLogger{log: log})
	goose.SetTableName(table)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%w: dialect: %w", ErrMigrate, err)
	}
	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMigrate, dir, err)
	}
	return nil
}

type gooseLogger struct {
	log *slog.Logger
}

func (g *gooseLogger) Printf(format string, args ...any) {
	if g.log != nil {
		g.log.Info(fmt.Sprintf(format, args...), slog.String("component", "migrations"))
	}
}

// Fatalf only logs; goose returns the error to Migrate afterwards.
func (g *gooseLogger) Fatalf(format string, args ...any) {
	if g.log != nil {
		g.log.Error(fmt.Sprintf(format, args...), slog.String("component", "migrations"))
	}
}
