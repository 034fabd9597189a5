package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/facelock/internal/server/metrics"
	"github.com/dmitrijs2005/facelock/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/facelock/internal/server/risk"
)

// FailureWindow is how far back failed verifications count towards risk.
const FailureWindow = 24 * time.Hour

// RiskService assesses session events, adding the user's recorded
// verification failures to the signals supplied by the caller.
type RiskService struct {
	repos    repomanager.RepositoryManager
	assessor *risk.Assessor
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewRiskService(repos repomanager.RepositoryManager, assessor *risk.Assessor, m *metrics.Metrics) *RiskService {
	return &RiskService{repos: repos, assessor: assessor, metrics: m, now: time.Now}
}

func (s *RiskService) Assess(ctx context.Context, sc risk.SessionContext) (risk.Assessment, error) {
	if sc.UserID != "" {
		n, err := s.repos.Faces().CountFailuresSince(ctx, sc.UserID, s.now().Add(-FailureWindow))
		if err != nil {
			return risk.Assessment{}, fmt.Errorf("count verification failures: %w", err)
		}
		if n > sc.RecentFailures {
			sc.RecentFailures = n
		}
	}

	a := s.assessor.Assess(sc)
	s.metrics.RiskAssessed(string(a.Level))
	return a, nil
}
