package client

import (
	"context"

	"github.com/dmitrijs2005/facelock/internal/api"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	SendMessage(ctx context.Context, recipientID, text string) (string, error)
	SendFile(ctx context.Context, recipientID, fileName, contentType string, body []byte) (string, error)
	Placeholder(ctx context.Context, itemID string) (*api.Placeholder, error)
	Unlock(ctx context.Context, itemID string, probe []byte) (*api.UnlockResult, error)
	CancelUnlock(ctx context.Context, itemID string) error
	AssessRisk(ctx context.Context, req *api.AssessRiskRequest) (*api.RiskAssessment, error)
	EnrollFace(ctx context.Context, descriptor []float64) (*api.FaceStatus, error)
	FaceStatus(ctx context.Context) (*api.FaceStatus, error)
	Watch(ctx context.Context, fn func(*api.Event) error) error
}
