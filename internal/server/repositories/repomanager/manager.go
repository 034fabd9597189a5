// Package repomanager vends the repositories for the configured storage
// backend and runs work that must commit atomically across them.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/facelock/internal/server/repositories/alerts"
	"github.com/dmitrijs2005/facelock/internal/server/repositories/faces"
	"github.com/dmitrijs2005/facelock/internal/server/repositories/items"
)

type Repositories interface {
	Items() items.Repository
	Alerts() alerts.Repository
	Faces() faces.Repository
}

type RepositoryManager interface {
	Repositories
	RunMigrations(ctx context.Context) error
	// InTx runs fn with repositories bound to a single transaction. fn's
	// writes are committed together or not at all.
	InTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Close() error
}
