// Package items stores lockable items. CompareAndSwapState is the only way
// an item's state or attempt counter changes after creation.
package items

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, item *models.LockableItem) error
	Get(ctx context.Context, id string) (*models.LockableItem, error)
	// CompareAndSwapState applies t only if the stored item still has the
	// expected state and attempt count. A mismatch is reported as false with
	// a nil error.
	CompareAndSwapState(ctx context.Context, id string, t Transition) (bool, error)
}

// Transition describes one move of the item state machine.
type Transition struct {
	ExpectedState    models.ItemState
	ExpectedAttempts int
	NewState         models.ItemState
	NewAttempts      int
	At               time.Time
}

// Validate rejects transitions the state machine never produces.
func (t Transition) Validate() error {
	if t.ExpectedState != models.StateLocked {
		return fmt.Errorf("%w: %s is terminal", common.ErrorValidation, t.ExpectedState)
	}
	if t.NewAttempts < t.ExpectedAttempts {
		return fmt.Errorf("%w: attempt count may not decrease", common.ErrorValidation)
	}
	switch t.NewState {
	case models.StateLocked, models.StateUnlocked, models.StateDestroyed:
	default:
		return fmt.Errorf("%w: unknown state %q", common.ErrorValidation, t.NewState)
	}
	return nil
}

func (t Transition) unlockedAt() *time.Time {
	if t.NewState == models.StateUnlocked {
		at := t.At
		return &at
	}
	return nil
}

func (t Transition) destroyedAt() *time.Time {
	if t.NewState == models.StateDestroyed {
		at := t.At
		return &at
	}
	return nil
}
