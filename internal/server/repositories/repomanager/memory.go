package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/facelock/internal/server/repositories/alerts"
	"github.com/dmitrijs2005/facelock/internal/server/repositories/faces"
	"github.com/dmitrijs2005/facelock/internal/server/repositories/items"
)

// MemoryRepositoryManager keeps everything in process memory. InTx blocks are
// serialized against each other but are not rolled back on error, so callers
// put the conditional write first.
type MemoryRepositoryManager struct {
	txMu   sync.Mutex
	items  *items.MemoryRepository
	alerts *alerts.MemoryRepository
	faces  *faces.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		items:  items.NewMemoryRepository(),
		alerts: alerts.NewMemoryRepository(),
		faces:  faces.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Items() items.Repository   { return m.items }
func (m *MemoryRepositoryManager) Alerts() alerts.Repository { return m.alerts }
func (m *MemoryRepositoryManager) Faces() faces.Repository   { return m.faces }

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m)
}

func (m *MemoryRepositoryManager) Close() error { return nil }
