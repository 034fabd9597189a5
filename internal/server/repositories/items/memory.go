package items

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/server/models"
)

// MemoryRepository keeps items in process memory. Used by the memory backend
// and in tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*models.LockableItem
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]*models.LockableItem)}
}

func (r *MemoryRepository) Create(_ context.Context, item *models.LockableItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; ok {
		return fmt.Errorf("%w: item %s already exists", common.ErrStateConflict, item.ID)
	}
	r.items[item.ID] = clone(item)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*models.LockableItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(item), nil
}

func (r *MemoryRepository) CompareAndSwapState(_ context.Context, id string, t Transition) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return false, nil
	}
	if item.State != t.ExpectedState || item.AttemptCount != t.ExpectedAttempts {
		return false, nil
	}
	if t.NewAttempts > item.MaxAttempts {
		return false, fmt.Errorf("%w: attempt count exceeds %d", common.ErrorValidation, item.MaxAttempts)
	}

	item.State = t.NewState
	item.AttemptCount = t.NewAttempts
	if at := t.unlockedAt(); at != nil {
		item.UnlockedAt = at
	}
	if at := t.destroyedAt(); at != nil {
		item.DestroyedAt = at
		common.WipeByteArray(item.SealedPayload)
		item.SealedPayload = nil
		item.Nonce = nil
	}
	return true, nil
}

func clone(src *models.LockableItem) *models.LockableItem {
	dst := *src
	dst.SealedPayload = append([]byte(nil), src.SealedPayload...)
	dst.Nonce = append([]byte(nil), src.Nonce...)
	if src.UnlockedAt != nil {
		t := *src.UnlockedAt
		dst.UnlockedAt = &t
	}
	if src.DestroyedAt != nil {
		t := *src.DestroyedAt
		dst.DestroyedAt = &t
	}
	return &dst
}
