package client

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/facelock/internal/client/migrations"
	"github.com/dmitrijs2005/facelock/internal/client/repositories/cursors"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

// LocalState is the CLI's on-disk state.
type LocalState struct {
	db      *sql.DB
	Cursors cursors.Repository
}

func (s *LocalState) Close() error {
	return s.db.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

// OpenLocalState opens (creating if needed) the sqlite database at dsn and
// brings its schema up to date.
func OpenLocalState(ctx context.Context, dsn string) (*LocalState, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &LocalState{db: db, Cursors: cursors.NewSQLiteRepository(db)}, nil
}
