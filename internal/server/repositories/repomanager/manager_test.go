package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/facelock/internal/server/models"
	"github.com/dmitrijs2005/facelock/internal/server/repositories/items"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ RepositoryManager = (*PostgresRepositoryManager)(nil)
	_ RepositoryManager = (*MemoryRepositoryManager)(nil)
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestFactories_ReturnRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := NewPostgresRepositoryManagerFromDB(db)
	assert.NotNil(t, m.Items())
	assert.NotNil(t, m.Alerts())
	assert.NotNil(t, m.Faces())

	mem := NewMemoryRepositoryManager()
	assert.NotNil(t, mem.Items())
	assert.NoError(t, mem.RunMigrations(context.Background()))
	assert.NoError(t, mem.Close())
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManagerFromDB(db)
	require.NoError(t, m.RunMigrations(context.Background()))
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManagerFromDB(db)
	err := m.RunMigrations(context.Background())
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}

func TestInTx_CommitsBoundRepositories(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE locked_items SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO verification_logs`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m := NewPostgresRepositoryManagerFromDB(db)
	err := m.InTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		ok, err := repos.Items().CompareAndSwapState(ctx, "i1", items.Transition{
			ExpectedState: models.StateLocked, NewState: models.StateLocked, NewAttempts: 1, At: time.Now(),
		})
		if err != nil || !ok {
			return errors.New("swap failed")
		}
		return repos.Faces().RecordVerification(ctx, &models.VerificationLog{ID: "v1", UserID: "bob", ItemID: "i1"})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_RollsBackOnError(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE locked_items SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO verification_logs`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	m := NewPostgresRepositoryManagerFromDB(db)
	err := m.InTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		if _, err := repos.Items().CompareAndSwapState(ctx, "i1", items.Transition{
			ExpectedState: models.StateLocked, NewState: models.StateLocked, NewAttempts: 1, At: time.Now(),
		}); err != nil {
			return err
		}
		return repos.Faces().RecordVerification(ctx, &models.VerificationLog{ID: "v1", UserID: "bob", ItemID: "i1"})
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryInTx_PropagatesError(t *testing.T) {
	m := NewMemoryRepositoryManager()
	boom := errors.New("boom")
	err := m.InTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		assert.NotNil(t, repos.Alerts())
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
