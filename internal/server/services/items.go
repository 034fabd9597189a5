package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/cryptox"
	"github.com/dmitrijs2005/facelock/internal/logging"
	"github.com/dmitrijs2005/facelock/internal/server/config"
	"github.com/dmitrijs2005/facelock/internal/server/messages"
	"github.com/dmitrijs2005/facelock/internal/server/models"
	"github.com/dmitrijs2005/facelock/internal/server/objects"
	"github.com/dmitrijs2005/facelock/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// SendRequest is a new face-locked item. Text is used for messages,
// FileName, FileBody and ContentType for files.
type SendRequest struct {
	RecipientID string
	Kind        models.ItemKind
	Text        string
	FileName    string
	FileBody    []byte
	ContentType string
}

func (r *SendRequest) validate() error {
	if r.RecipientID == "" {
		return fmt.Errorf("%w: recipient is required", common.ErrorValidation)
	}
	switch r.Kind {
	case models.KindMessage:
		if r.Text == "" {
			return fmt.Errorf("%w: message text is required", common.ErrorValidation)
		}
	case models.KindFile:
		if r.FileName == "" || len(r.FileBody) == 0 {
			return fmt.Errorf("%w: file name and content are required", common.ErrorValidation)
		}
	default:
		return fmt.Errorf("%w: unknown item kind %q", common.ErrorValidation, r.Kind)
	}
	return nil
}

// ItemService creates face-locked items and renders their placeholders.
type ItemService struct {
	repos       repomanager.RepositoryManager
	objects     objects.Store
	payloads    *payloads
	log         logging.Logger
	maxAttempts int
	locale      string
	now         func() time.Time
}

func NewItemService(repos repomanager.RepositoryManager, store objects.Store, sealer *cryptox.Sealer, log logging.Logger, cfg *config.Config) *ItemService {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = common.DefaultMaxAttempts
	}
	return &ItemService{
		repos:       repos,
		objects:     store,
		payloads:    &payloads{sealer: sealer, objects: store, presignTTL: cfg.PresignTTL},
		log:         log.With("module", "items"),
		maxAttempts: maxAttempts,
		locale:      cfg.Locale,
		now:         time.Now,
	}
}

// SendLockedItem stores a new Locked item from ownerID to req.RecipientID
// and returns it. File bodies go to object storage; the item keeps only
// the sealed object key.
func (s *ItemService) SendLockedItem(ctx context.Context, ownerID, ownerUsername string, req SendRequest) (*models.LockableItem, error) {
	if ownerID == "" {
		return nil, common.ErrorUnauthorized
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	item := &models.LockableItem{
		ID:            uuid.NewString(),
		Kind:          req.Kind,
		OwnerID:       ownerID,
		OwnerUsername: ownerUsername,
		RecipientID:   req.RecipientID,
		State:         models.StateLocked,
		MaxAttempts:   s.maxAttempts,
		CreatedAt:     now,
	}

	plaintext := []byte(req.Text)
	if req.Kind == models.KindFile {
		key := objects.FileKey(now, ownerID)
		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if err := s.objects.Put(ctx, key, req.FileBody, contentType); err != nil {
			return nil, fmt.Errorf("upload file: %w", err)
		}
		plaintext = []byte(key)
		item.FileName = req.FileName
	}

	sealed, nonce, err := s.payloads.seal(item.ID, plaintext)
	if err != nil {
		return nil, err
	}
	item.SealedPayload, item.Nonce = sealed, nonce

	if err := s.repos.Items().Create(ctx, item); err != nil {
		if req.Kind == models.KindFile {
			if derr := s.objects.Delete(ctx, string(plaintext)); derr != nil {
				s.log.Warn(ctx, "delete orphaned file", "error", derr)
			}
		}
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.log.Info(ctx, "locked item created", "item_id", item.ID, "kind", item.Kind, "owner_id", ownerID, "recipient_id", item.RecipientID)
	return item, nil
}

// GetPlaceholder returns what viewerID sees in place of the item's content.
// Only the owner and the recipient are viewers.
func (s *ItemService) GetPlaceholder(ctx context.Context, itemID, viewerID string) (*models.Placeholder, error) {
	if itemID == "" {
		return nil, fmt.Errorf("%w: item id is required", common.ErrorValidation)
	}
	item, err := s.repos.Items().Get(ctx, itemID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load item: %w", err)
	}
	if !item.IsViewer(viewerID) {
		return nil, common.ErrorUnauthorized
	}

	ph := &models.Placeholder{
		ItemID:        item.ID,
		Kind:          item.Kind,
		OwnerID:       item.OwnerID,
		OwnerUsername: item.OwnerUsername,
		State:         item.State,
		AttemptCount:  item.AttemptCount,
		MaxAttempts:   item.MaxAttempts,
	}
	if item.State == models.StateDestroyed {
		ph.Tombstone = messages.FromContext(ctx, s.locale).Tombstone()
	}
	return ph, nil
}
