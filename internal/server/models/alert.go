package models

import "time"

// IntrusionAlert tells an owner that someone other than the recipient tried
// to open one of their items. Alerts are kept until delivered.
type IntrusionAlert struct {
	ID          string
	ItemID      string
	OwnerID     string
	RequesterID string
	// EvidenceKey is the object-storage key of the captured probe image.
	EvidenceKey string
	CreatedAt   time.Time
	DeliveredAt *time.Time
}

// ItemStateChanged is fanned out to every live session of an item's viewers.
// Seq increases per item in the order the transitions were committed.
type ItemStateChanged struct {
	ItemID       string
	NewState     ItemState
	Outcome      Outcome
	AttemptCount int
	Seq          uint64
	OccurredAt   time.Time
}

// Event is one element of a viewer's event stream. Exactly one field is set.
type Event struct {
	StateChanged *ItemStateChanged
	Intrusion    *IntrusionAlert
}
