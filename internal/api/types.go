// Package api defines the FaceLock wire contract shared by the gRPC server,
// the REST gateway and the client: message types, their JSON schemas, the
// JSON codec and the service descriptor.
package api

import (
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Field names are camelCase. Every request has exactly one schema.

type SendLockedItemRequest struct {
	RecipientID string `json:"recipientId"`
	Kind        string `json:"kind"`
	// Payload is the message text.
	Payload string `json:"payload,omitempty"`
	// FileName, FileContent and ContentType describe a file item.
	FileName    string `json:"fileName,omitempty"`
	FileContent []byte `json:"fileContent,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

type SendLockedItemResponse struct {
	ItemID string `json:"itemId"`
}

// ItemRequest addresses a single item.
type ItemRequest struct {
	ItemID string `json:"itemId"`
}

type Placeholder struct {
	ItemID        string `json:"itemId"`
	Kind          string `json:"kind"`
	OwnerID       string `json:"ownerId"`
	OwnerUsername string `json:"ownerUsername,omitempty"`
	State         string `json:"state"`
	AttemptCount  int    `json:"attemptCount"`
	MaxAttempts   int    `json:"maxAttempts"`
	Tombstone     string `json:"tombstone,omitempty"`
}

type UnlockRequest struct {
	ItemID     string `json:"itemId"`
	ProbeImage []byte `json:"probeImage"`
}

type UnlockResult struct {
	Outcome           string  `json:"outcome"`
	Reason            string  `json:"reason,omitempty"`
	ItemID            string  `json:"itemId"`
	State             string  `json:"state,omitempty"`
	AttemptCount      int     `json:"attemptCount"`
	AttemptsRemaining int     `json:"attemptsRemaining"`
	Payload           string  `json:"payload,omitempty"`
	FileURL           string  `json:"fileUrl,omitempty"`
	FileName          string  `json:"fileName,omitempty"`
	Message           string  `json:"message,omitempty"`
	Confidence        float64 `json:"confidence,omitempty"`
}

// Event is one entry of the Events stream. Exactly one field is set.
type Event struct {
	ItemStateChanged *ItemStateChanged `json:"itemStateChanged,omitempty"`
	IntrusionAlert   *IntrusionAlert   `json:"intrusionAlert,omitempty"`
}

type ItemStateChanged struct {
	ItemID       string                 `json:"itemId"`
	NewState     string                 `json:"newState"`
	Outcome      string                 `json:"outcome"`
	AttemptCount int                    `json:"attemptCount"`
	Seq          uint64                 `json:"seq"`
	OccurredAt   *timestamppb.Timestamp `json:"occurredAt,omitempty"`
}

type IntrusionAlert struct {
	AlertID     string                 `json:"alertId"`
	ItemID      string                 `json:"itemId"`
	RequesterID string                 `json:"requesterId"`
	EvidenceURL string                 `json:"evidenceUrl,omitempty"`
	CreatedAt   *timestamppb.Timestamp `json:"createdAt,omitempty"`
}

type AssessRiskRequest struct {
	DeviceFingerprint  string   `json:"deviceFingerprint,omitempty"`
	KnownDevice        bool     `json:"knownDevice,omitempty"`
	DeviceType         string   `json:"deviceType,omitempty"`
	GeoDeltaKm         *float64 `json:"geoDeltaKm,omitempty"`
	LocalHour          *int     `json:"localHour,omitempty"`
	LoginsLastHour     int      `json:"loginsLastHour,omitempty"`
	RecentFailures     int      `json:"recentFailures,omitempty"`
	DaysSinceLastLogin *int     `json:"daysSinceLastLogin,omitempty"`
	MinLevel           string   `json:"minLevel,omitempty"`
}

type FactorScore struct {
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

type RiskAssessment struct {
	Score           float64                `json:"score"`
	Level           string                 `json:"level"`
	Overridden      bool                   `json:"overridden,omitempty"`
	Factors         map[string]FactorScore `json:"factors"`
	RequiredFactors []string               `json:"requiredFactors"`
}

type EnrollFaceRequest struct {
	Descriptor []float64 `json:"descriptor"`
}

type FaceStatus struct {
	Enrolled   bool                   `json:"enrolled"`
	EnrolledAt *timestamppb.Timestamp `json:"enrolledAt,omitempty"`
	UpdatedAt  *timestamppb.Timestamp `json:"updatedAt,omitempty"`
}

type PingResponse struct {
	Status string `json:"status"`
}
