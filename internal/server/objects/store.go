// Package objects keeps binary blobs (locked files, intrusion evidence) in
// object storage and hands out short-lived download links for them.
package objects

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// EvidenceKey is where the probe image of an intrusion attempt is kept.
func EvidenceKey(at time.Time, itemID, alertID string) string {
	return fmt.Sprintf("evidence/%d/%02d/%02d/%s/%s", at.Year(), at.Month(), at.Day(), itemID, alertID)
}

// FileKey returns a fresh key for a locked file owned by ownerID.
func FileKey(at time.Time, ownerID string) string {
	return fmt.Sprintf("files/%s/%d/%02d/%02d/%v", ownerID, at.Year(), at.Month(), at.Day(), uuid.New())
}
