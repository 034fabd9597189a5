package alerts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/facelock/internal/server/models"
)

type MemoryRepository struct {
	mu     sync.Mutex
	alerts map[string]*models.IntrusionAlert
	order  []string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{alerts: make(map[string]*models.IntrusionAlert)}
}

func (r *MemoryRepository) Create(_ context.Context, a *models.IntrusionAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.alerts[a.ID] = &cp
	r.order = append(r.order, a.ID)
	return nil
}

func (r *MemoryRepository) ListPending(_ context.Context, ownerID string) ([]*models.IntrusionAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.IntrusionAlert
	for _, id := range r.order {
		a := r.alerts[id]
		if a.OwnerID == ownerID && a.DeliveredAt == nil {
			cp := *a
			result = append(result, &cp)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *MemoryRepository) MarkDelivered(_ context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok || a.DeliveredAt != nil {
		return false, nil
	}
	a.DeliveredAt = &at
	return true, nil
}
