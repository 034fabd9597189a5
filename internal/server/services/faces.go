package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/logging"
	"github.com/dmitrijs2005/facelock/internal/server/biometric"
	"github.com/dmitrijs2005/facelock/internal/server/models"
	"github.com/dmitrijs2005/facelock/internal/server/repositories/repomanager"
)

// FaceStatus reports whether a user has an enrolled face reference.
type FaceStatus struct {
	Enrolled   bool
	EnrolledAt time.Time
	UpdatedAt  time.Time
}

type FaceService struct {
	repos repomanager.RepositoryManager
	log   logging.Logger
	now   func() time.Time
}

func NewFaceService(repos repomanager.RepositoryManager, log logging.Logger) *FaceService {
	return &FaceService{repos: repos, log: log.With("module", "faces"), now: time.Now}
}

// Enroll stores or replaces userID's reference descriptor.
func (s *FaceService) Enroll(ctx context.Context, userID string, descriptor []float64) (*FaceStatus, error) {
	if userID == "" {
		return nil, common.ErrorUnauthorized
	}
	if err := biometric.ValidateDescriptor(descriptor); err != nil {
		return nil, err
	}

	now := s.now()
	ref := &models.FaceReference{
		UserID:     userID,
		Descriptor: append([]float64(nil), descriptor...),
		EnrolledAt: now,
		UpdatedAt:  now,
	}
	if err := s.repos.Faces().UpsertReference(ctx, ref); err != nil {
		return nil, fmt.Errorf("store face reference: %w", err)
	}
	s.log.Info(ctx, "face enrolled", "user_id", userID)

	return s.Status(ctx, userID)
}

func (s *FaceService) Status(ctx context.Context, userID string) (*FaceStatus, error) {
	ref, err := s.repos.Faces().GetReference(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &FaceStatus{}, nil
		}
		return nil, fmt.Errorf("load face reference: %w", err)
	}
	return &FaceStatus{Enrolled: true, EnrolledAt: ref.EnrolledAt, UpdatedAt: ref.UpdatedAt}, nil
}
