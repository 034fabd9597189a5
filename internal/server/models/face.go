package models

import "time"

// FaceReference is a user's enrolled face descriptor.
type FaceReference struct {
	UserID     string
	Descriptor []float64
	EnrolledAt time.Time
	UpdatedAt  time.Time
}

// VerificationLog records the outcome of one face verification.
// Probe images are never stored here, only their fingerprint.
type VerificationLog struct {
	ID               string
	UserID           string
	ItemID           string
	Matched          bool
	Confidence       float64
	Reason           FailureReason
	ProbeFingerprint string
	CreatedAt        time.Time
}
