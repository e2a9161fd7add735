package localstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/dmoclinic/internal/client/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// RunMigrations applies the embedded client migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite file at dsn and migrates it. The pool is
// limited to one connection so ":memory:" databases stay consistent.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Open is InitDatabase plus a repository on top of it.
func Open(ctx context.Context, dsn string) (*sql.DB, *SQLiteRepository, error) {
	db, err := InitDatabase(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return db, NewSQLiteRepository(db), nil
}
