package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type DBConfig struct {
	Path string `toml:"path"`
}

// DB owns the single-file SQLite cache connection. Opened once at startup
// and closed at shutdown by the top-level process.
type DB struct {
	bunDB *bun.DB
}

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	path := cfg.Path
	if path == "" {
		path = "runs.db"
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// The cache is single-process and mostly read-heavy; one connection
	// keeps SQLite writes serialized.
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	bunDB.AddQueryHook(&queryHook{})

	if err := bunDB.PingContext(ctx); err != nil {
		_ = bunDB.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	slog.Info("Cache database opened",
		slog.String("type", "db"),
		slog.String("path", path))
	return &DB{bunDB: bunDB}, nil
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) Close() error {
	return db.bunDB.Close()
}

// queryHook logs slow and failing cache queries.
type queryHook struct{}

func (queryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (queryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	took := time.Since(event.StartTime)
	if event.Err != nil && event.Err != sql.ErrNoRows {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("query", event.Query),
			slog.Any("error", event.Err))
		return
	}
	if took > 500*time.Millisecond {
		slog.Warn("Slow query",
			slog.String("type", "db"),
			slog.String("query", event.Query),
			slog.Duration("took", took))
	}
}
