// Package alerts is the intrusion-alert outbox. Alerts are written before
// delivery is attempted and stay pending until an owner session receives them.
package alerts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/facelock/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, alert *models.IntrusionAlert) error
	// ListPending returns undelivered alerts for ownerID, oldest first.
	ListPending(ctx context.Context, ownerID string) ([]*models.IntrusionAlert, error)
	// MarkDelivered reports false if the alert was already delivered.
	MarkDelivered(ctx context.Context, id string, at time.Time) (bool, error)
}
