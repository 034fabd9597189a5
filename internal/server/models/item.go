// Package models defines server-side data models persisted in the database
// or exchanged between services and transports.
package models

import "time"

type ItemKind string

const (
	KindMessage ItemKind = "message"
	KindFile    ItemKind = "file"
)

func (k ItemKind) Valid() bool {
	return k == KindMessage || k == KindFile
}

type ItemState string

const (
	StateLocked    ItemState = "locked"
	StateUnlocked  ItemState = "unlocked"
	StateDestroyed ItemState = "destroyed"
)

// IsTerminal reports whether no further unlock attempts may change the item.
func (s ItemState) IsTerminal() bool {
	return s == StateUnlocked || s == StateDestroyed
}

// LockableItem is a message or file whose content is withheld until the
// recipient passes face verification.
type LockableItem struct {
	ID            string
	Kind          ItemKind
	OwnerID       string
	OwnerUsername string
	RecipientID   string

	// SealedPayload holds the encrypted text for messages and the encrypted
	// object-storage key for files. It is nil once the item is destroyed.
	SealedPayload []byte
	Nonce         []byte
	// FileName is revealed together with the file after unlock.
	FileName string

	State        ItemState
	AttemptCount int
	MaxAttempts  int

	CreatedAt   time.Time
	UnlockedAt  *time.Time
	DestroyedAt *time.Time
}

func (i *LockableItem) AttemptsRemaining() int {
	if n := i.MaxAttempts - i.AttemptCount; n > 0 {
		return n
	}
	return 0
}

// IsViewer reports whether userID may observe the item's state changes.
func (i *LockableItem) IsViewer(userID string) bool {
	return userID == i.OwnerID || userID == i.RecipientID
}

// Placeholder is what viewers see before an item is unlocked.
type Placeholder struct {
	ItemID        string
	Kind          ItemKind
	OwnerID       string
	OwnerUsername string
	State         ItemState
	AttemptCount  int
	MaxAttempts   int
	// Tombstone is set for destroyed items.
	Tombstone string
}
