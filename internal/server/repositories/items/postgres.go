package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/dbx"
	"github.com/dmitrijs2005/facelock/internal/server/models"
)

// PostgresRepository implements item storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, item *models.LockableItem) error {
	query := `
		INSERT INTO locked_items (id, kind, owner_id, owner_username, recipient_id,
			sealed_payload, nonce, file_name, state, attempt_count, max_attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, string(item.Kind), item.OwnerID, item.OwnerUsername, item.RecipientID,
		item.SealedPayload, item.Nonce, item.FileName, string(item.State),
		item.AttemptCount, item.MaxAttempts, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.LockableItem, error) {
	query := `
		SELECT id, kind, owner_id, owner_username, recipient_id, sealed_payload, nonce,
			file_name, state, attempt_count, max_attempts, created_at, unlocked_at, destroyed_at
		FROM locked_items
		WHERE id = $1
	`
	var (
		item                    models.LockableItem
		kind, state             string
		unlockedAt, destroyedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &kind, &item.OwnerID, &item.OwnerUsername, &item.RecipientID,
		&item.SealedPayload, &item.Nonce, &item.FileName, &state,
		&item.AttemptCount, &item.MaxAttempts, &item.CreatedAt, &unlockedAt, &destroyedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	item.Kind = models.ItemKind(kind)
	item.State = models.ItemState(state)
	item.UnlockedAt = timePtr(unlockedAt)
	item.DestroyedAt = timePtr(destroyedAt)
	return &item, nil
}

// CompareAndSwapState runs a single conditional UPDATE. Destroying an item
// erases its sealed payload in the same statement.
func (r *PostgresRepository) CompareAndSwapState(ctx context.Context, id string, t Transition) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	query := `
		UPDATE locked_items SET
			state = $1,
			attempt_count = $2,
			unlocked_at = COALESCE($3, unlocked_at),
			destroyed_at = COALESCE($4, destroyed_at),
			sealed_payload = CASE WHEN $1 = 'destroyed' THEN NULL ELSE sealed_payload END,
			nonce = CASE WHEN $1 = 'destroyed' THEN NULL ELSE nonce END
		WHERE id = $5 AND state = $6 AND attempt_count = $7
	`
	res, err := r.db.ExecContext(ctx, query,
		string(t.NewState), t.NewAttempts, nullTime(t.unlockedAt()), nullTime(t.destroyedAt()),
		id, string(t.ExpectedState), t.ExpectedAttempts)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	ok, err := dbx.ExpectOneRow(res)
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return ok, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
