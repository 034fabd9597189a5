// Package grpc exposes FaceLockService over gRPC with the JSON codec.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/facelock/internal/api"
	"github.com/dmitrijs2005/facelock/internal/logging"
	"github.com/dmitrijs2005/facelock/internal/server/models"
	"github.com/dmitrijs2005/facelock/internal/server/notify"
	"github.com/dmitrijs2005/facelock/internal/server/risk"
	"github.com/dmitrijs2005/facelock/internal/server/services"
	"google.golang.org/grpc"
)

type ItemService interface {
	SendLockedItem(ctx context.Context, ownerID, ownerUsername string, req services.SendRequest) (*models.LockableItem, error)
	GetPlaceholder(ctx context.Context, itemID, viewerID string) (*models.Placeholder, error)
}

type UnlockService interface {
	AttemptUnlock(ctx context.Context, itemID, requesterID string, probe []byte) (*models.UnlockResult, error)
	CancelUnlock(ctx context.Context, itemID, requesterID string) bool
}

type FaceService interface {
	Enroll(ctx context.Context, userID string, descriptor []float64) (*services.FaceStatus, error)
	Status(ctx context.Context, userID string) (*services.FaceStatus, error)
}

type RiskService interface {
	Assess(ctx context.Context, sc risk.SessionContext) (risk.Assessment, error)
}

type EventSource interface {
	Subscribe(ctx context.Context, userID string) (*notify.Session, error)
	Unsubscribe(s *notify.Session)
	Ack(ctx context.Context, ev models.Event)
}

// EvidenceLinker hands out download links for intrusion evidence.
type EvidenceLinker interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Services bundles what the handlers delegate to.
type Services struct {
	Items    ItemService
	Unlock   UnlockService
	Faces    FaceService
	Risk     RiskService
	Events   EventSource
	Evidence EvidenceLinker
}

type GRPCServer struct {
	address     string
	svc         Services
	logger      logging.Logger
	jwtSecret   []byte
	evidenceTTL time.Duration
}

func NewGRPCServer(a string, l logging.Logger, svc Services, secretKey string, evidenceTTL time.Duration) *GRPCServer {
	return &GRPCServer{
		address:     a,
		logger:      l.With("module", "grpc_server"),
		svc:         svc,
		jwtSecret:   []byte(secretKey),
		evidenceTTL: evidenceTTL,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	// creates gRPC-server
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	)

	// registers service
	api.RegisterFaceLockServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
