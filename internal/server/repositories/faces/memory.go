package faces

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/server/models"
)

type MemoryRepository struct {
	mu   sync.RWMutex
	refs map[string]models.FaceReference
	logs []models.VerificationLog
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{refs: make(map[string]models.FaceReference)}
}

func (r *MemoryRepository) UpsertReference(_ context.Context, ref *models.FaceReference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ref
	cp.Descriptor = append([]float64(nil), ref.Descriptor...)
	if prev, ok := r.refs[ref.UserID]; ok {
		cp.EnrolledAt = prev.EnrolledAt
	} else {
		cp.EnrolledAt = ref.UpdatedAt
	}
	r.refs[ref.UserID] = cp
	return nil
}

func (r *MemoryRepository) GetReference(_ context.Context, userID string) (*models.FaceReference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.refs[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	ref.Descriptor = append([]float64(nil), ref.Descriptor...)
	return &ref, nil
}

func (r *MemoryRepository) RecordVerification(_ context.Context, l *models.VerificationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *l)
	return nil
}

func (r *MemoryRepository) CountFailuresSince(_ context.Context, userID string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, l := range r.logs {
		if l.UserID == userID && !l.Matched && l.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}
