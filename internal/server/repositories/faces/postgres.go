package faces

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/dbx"
	"github.com/dmitrijs2005/facelock/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// UpsertReference stores the descriptor as JSONB, keeping the original
// enrollment time on re-enrollment.
func (r *PostgresRepository) UpsertReference(ctx context.Context, ref *models.FaceReference) error {
	descriptor, err := json.Marshal(ref.Descriptor)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO face_references (user_id, descriptor, enrolled_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET descriptor = EXCLUDED.descriptor, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, ref.UserID, descriptor, ref.UpdatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetReference(ctx context.Context, userID string) (*models.FaceReference, error) {
	query := `SELECT user_id, descriptor, enrolled_at, updated_at FROM face_references WHERE user_id = $1`

	var (
		ref        models.FaceReference
		descriptor []byte
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&ref.UserID, &descriptor, &ref.EnrolledAt, &ref.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := json.Unmarshal(descriptor, &ref.Descriptor); err != nil {
		return nil, fmt.Errorf("corrupt descriptor for %s: %w", userID, err)
	}
	return &ref, nil
}

func (r *PostgresRepository) RecordVerification(ctx context.Context, l *models.VerificationLog) error {
	query := `
		INSERT INTO verification_logs (id, user_id, item_id, matched, confidence, reason, probe_fingerprint, created_at)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.ExecContext(ctx, query,
		l.ID, l.UserID, l.ItemID, l.Matched, l.Confidence, string(l.Reason), l.ProbeFingerprint, l.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountFailuresSince(ctx context.Context, userID string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM verification_logs WHERE user_id = $1 AND matched = FALSE AND created_at > $2`
	var n int
	if err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
