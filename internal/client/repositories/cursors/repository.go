// Package cursors remembers, per item, the last event sequence number and
// state the CLI has seen, so a watcher can tell when it missed updates.
package cursors

import (
	"context"
	"time"
)

type Cursor struct {
	ItemID    string    `json:"itemId"`
	Seq       uint64    `json:"seq"`
	State     string    `json:"state"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Repository interface {
	// Get returns nil without error for an item never seen.
	Get(ctx context.Context, itemID string) (*Cursor, error)
	// Save inserts or replaces the cursor of c.ItemID.
	Save(ctx context.Context, c Cursor) error
	// List returns all cursors, most recently updated first.
	List(ctx context.Context) ([]Cursor, error)
}
