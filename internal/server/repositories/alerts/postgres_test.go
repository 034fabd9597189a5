package alerts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/facelock/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO intrusion_alerts (id, item_id, owner_id, requester_id, evidence_key, created_at)`)).
		WithArgs("a1", "i1", "alice", "mallory", "evidence/i1/a1.jpg", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.IntrusionAlert{
		ID: "a1", ItemID: "i1", OwnerID: "alice", RequesterID: "mallory",
		EvidenceKey: "evidence/i1/a1.jpg", CreatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListPending(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "item_id", "owner_id", "requester_id", "evidence_key", "created_at"}).
		AddRow("a1", "i1", "alice", "mallory", "k1", t1).
		AddRow("a2", "i2", "alice", "eve", "k2", t1.Add(time.Second))

	mock.ExpectQuery(`SELECT id, item_id, .* FROM intrusion_alerts\s+WHERE owner_id = \$1 AND delivered_at IS NULL\s+ORDER BY created_at, id`).
		WithArgs("alice").
		WillReturnRows(rows)

	got, err := repo.ListPending(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].ID)
	assert.Equal(t, "eve", got[1].RequesterID)
}

func TestListPending_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM intrusion_alerts`).WillReturnError(errors.New("db err"))

	_, err := repo.ListPending(context.Background(), "alice")
	require.Error(t, err)
	assert.Regexp(t, `failed to select alerts: .*db err`, err.Error())
}

func TestMarkDelivered(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	q := `UPDATE intrusion_alerts SET delivered_at = \$1 WHERE id = \$2 AND delivered_at IS NULL`

	t.Run("first delivery", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(q).WithArgs(now, "a1").WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.MarkDelivered(context.Background(), "a1", now)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("already delivered", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(q).WithArgs(now, "a1").WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.MarkDelivered(context.Background(), "a1", now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(q).WithArgs(now, "a1").WillReturnError(errors.New("down"))

		_, err := repo.MarkDelivered(context.Background(), "a1", now)
		require.Error(t, err)
		assert.Regexp(t, `db error: .*down`, err.Error())
	})
}
