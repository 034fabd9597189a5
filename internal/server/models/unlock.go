package models

import "time"

// Outcome is the typed result of an unlock attempt.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeFailed           Outcome = "failed"
	OutcomeDestroyed        Outcome = "destroyed"
	OutcomeUnauthorized     Outcome = "unauthorized"
	OutcomeBusy             Outcome = "busy"
	OutcomeNotFound         Outcome = "not_found"
	OutcomeAlreadyUnlocked  Outcome = "already_unlocked"
	OutcomeAlreadyDestroyed Outcome = "already_destroyed"
	OutcomeCancelled        Outcome = "cancelled"
)

// ChangesState reports whether the outcome came from a state transition
// that viewers must be told about.
func (o Outcome) ChangesState() bool {
	return o == OutcomeSuccess || o == OutcomeFailed || o == OutcomeDestroyed
}

// FailureReason explains why a verification counted as a failed attempt.
type FailureReason string

const (
	ReasonNone            FailureReason = ""
	ReasonNoMatch         FailureReason = "no_match"
	ReasonVerifierTimeout FailureReason = "verifier_timeout"
	ReasonVerifierError   FailureReason = "verifier_error"
)

// UnlockAttempt is a single request to open an item. It is never persisted;
// only its effect on the item's counters is.
type UnlockAttempt struct {
	ItemID      string
	RequesterID string
	Probe       []byte
	Timestamp   time.Time
	Outcome     Outcome
}

type UnlockResult struct {
	Outcome Outcome
	Reason  FailureReason

	ItemID            string
	State             ItemState
	AttemptCount      int
	AttemptsRemaining int

	// Payload is the revealed message text. Set only for the recipient.
	Payload string
	// FileURL is a short-lived download link for unlocked files.
	FileURL  string
	FileName string

	// Message is a user-facing, localised explanation.
	Message    string
	Confidence float64
}
