// Package services contains server-side business logic: sending and
// unlocking face-locked items, face enrollment and risk assessment.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/cryptox"
	"github.com/dmitrijs2005/facelock/internal/server/models"
	"github.com/dmitrijs2005/facelock/internal/server/objects"
)

// payloads seals item contents at send time and opens them for the
// recipient. The item ID is bound as additional data so a sealed payload
// cannot be moved to another item.
type payloads struct {
	sealer     *cryptox.Sealer
	objects    objects.Store
	presignTTL time.Duration
}

func (p *payloads) seal(itemID string, plaintext []byte) (sealed, nonce []byte, err error) {
	sealed, nonce, err = p.sealer.Seal(plaintext, []byte(itemID))
	if err != nil {
		return nil, nil, fmt.Errorf("seal payload: %w", err)
	}
	return sealed, nonce, nil
}

func (p *payloads) open(item *models.LockableItem) ([]byte, error) {
	if len(item.SealedPayload) == 0 {
		return nil, fmt.Errorf("%w: item %s has no payload", common.ErrorInternal, item.ID)
	}
	plain, err := p.sealer.Open(item.SealedPayload, item.Nonce, []byte(item.ID))
	if err != nil {
		return nil, fmt.Errorf("open payload: %w", err)
	}
	return plain, nil
}

// reveal fills the payload fields of res: message text, or a presigned
// download link for files.
func (p *payloads) reveal(ctx context.Context, item *models.LockableItem, res *models.UnlockResult) error {
	plain, err := p.open(item)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plain)

	switch item.Kind {
	case models.KindFile:
		url, err := p.objects.PresignGet(ctx, string(plain), p.presignTTL)
		if err != nil {
			return fmt.Errorf("presign file: %w", err)
		}
		res.FileURL = url
		res.FileName = item.FileName
	default:
		res.Payload = string(plain)
	}
	return nil
}
