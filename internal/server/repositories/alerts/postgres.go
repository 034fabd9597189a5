package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/facelock/internal/dbx"
	"github.com/dmitrijs2005/facelock/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.IntrusionAlert) error {
	query := `
		INSERT INTO intrusion_alerts (id, item_id, owner_id, requester_id, evidence_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query,
		a.ID, a.ItemID, a.OwnerID, a.RequesterID, a.EvidenceKey, a.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListPending(ctx context.Context, ownerID string) ([]*models.IntrusionAlert, error) {
	query := `
		SELECT id, item_id, owner_id, requester_id, evidence_key, created_at
		FROM intrusion_alerts
		WHERE owner_id = $1 AND delivered_at IS NULL
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select alerts: %w", err)
	}
	defer rows.Close()

	var result []*models.IntrusionAlert
	for rows.Next() {
		var a models.IntrusionAlert
		if err := rows.Scan(&a.ID, &a.ItemID, &a.OwnerID, &a.RequesterID, &a.EvidenceKey, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) MarkDelivered(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `UPDATE intrusion_alerts SET delivered_at = $1 WHERE id = $2 AND delivered_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res)
}
