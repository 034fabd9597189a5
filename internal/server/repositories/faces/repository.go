// Package faces stores enrolled face references and the per-user
// verification log.
package faces

import (
	"context"
	"time"

	"github.com/dmitrijs2005/facelock/internal/server/models"
)

type Repository interface {
	UpsertReference(ctx context.Context, ref *models.FaceReference) error
	// GetReference returns common.ErrorNotFound when userID never enrolled.
	GetReference(ctx context.Context, userID string) (*models.FaceReference, error)
	RecordVerification(ctx context.Context, log *models.VerificationLog) error
	// CountFailuresSince counts unmatched verifications of userID after since.
	CountFailuresSince(ctx context.Context, userID string, since time.Time) (int, error)
}
