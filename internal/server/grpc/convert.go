package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/facelock/internal/api"
	"github.com/dmitrijs2005/facelock/internal/server/models"
	"github.com/dmitrijs2005/facelock/internal/server/risk"
	"github.com/dmitrijs2005/facelock/internal/server/services"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func toAPIResult(r *models.UnlockResult) *api.UnlockResult {
	return &api.UnlockResult{
		Outcome:           string(r.Outcome),
		Reason:            string(r.Reason),
		ItemID:            r.ItemID,
		State:             string(r.State),
		AttemptCount:      r.AttemptCount,
		AttemptsRemaining: r.AttemptsRemaining,
		Payload:           r.Payload,
		FileURL:           r.FileURL,
		FileName:          r.FileName,
		Message:           r.Message,
		Confidence:        r.Confidence,
	}
}

func toAPIPlaceholder(p *models.Placeholder) *api.Placeholder {
	return &api.Placeholder{
		ItemID:        p.ItemID,
		Kind:          string(p.Kind),
		OwnerID:       p.OwnerID,
		OwnerUsername: p.OwnerUsername,
		State:         string(p.State),
		AttemptCount:  p.AttemptCount,
		MaxAttempts:   p.MaxAttempts,
		Tombstone:     p.Tombstone,
	}
}

func toSessionContext(userID string, r *api.AssessRiskRequest) risk.SessionContext {
	return risk.SessionContext{
		UserID:             userID,
		DeviceFingerprint:  r.DeviceFingerprint,
		KnownDevice:        r.KnownDevice,
		DeviceType:         r.DeviceType,
		GeoDeltaKm:         r.GeoDeltaKm,
		LocalHour:          r.LocalHour,
		LoginsLastHour:     r.LoginsLastHour,
		RecentFailures:     r.RecentFailures,
		DaysSinceLastLogin: r.DaysSinceLastLogin,
		MinLevel:           risk.Level(r.MinLevel),
	}
}

func toAPIAssessment(a risk.Assessment) *api.RiskAssessment {
	out := &api.RiskAssessment{
		Score:           a.Score,
		Level:           string(a.Level),
		Overridden:      a.Overridden,
		Factors:         make(map[string]api.FactorScore, len(a.Factors)),
		RequiredFactors: make([]string, 0, len(a.RequiredFactors)),
	}
	for name, f := range a.Factors {
		out.Factors[name] = api.FactorScore{Score: f.Score, Description: f.Description}
	}
	for _, f := range a.RequiredFactors {
		out.RequiredFactors = append(out.RequiredFactors, string(f))
	}
	return out
}

func toAPIFaceStatus(st *services.FaceStatus) *api.FaceStatus {
	out := &api.FaceStatus{Enrolled: st.Enrolled}
	if st.Enrolled {
		out.EnrolledAt = timestamp(st.EnrolledAt)
		out.UpdatedAt = timestamp(st.UpdatedAt)
	}
	return out
}

func (s *GRPCServer) toAPIEvent(ctx context.Context, ev models.Event) *api.Event {
	out := &api.Event{}
	if c := ev.StateChanged; c != nil {
		out.ItemStateChanged = &api.ItemStateChanged{
			ItemID:       c.ItemID,
			NewState:     string(c.NewState),
			Outcome:      string(c.Outcome),
			AttemptCount: c.AttemptCount,
			Seq:          c.Seq,
			OccurredAt:   timestamp(c.OccurredAt),
		}
	}
	if a := ev.Intrusion; a != nil {
		out.IntrusionAlert = &api.IntrusionAlert{
			AlertID:     a.ID,
			ItemID:      a.ItemID,
			RequesterID: a.RequesterID,
			CreatedAt:   timestamp(a.CreatedAt),
		}
		if a.EvidenceKey != "" && s.svc.Evidence != nil {
			url, err := s.svc.Evidence.PresignGet(ctx, a.EvidenceKey, s.evidenceTTL)
			if err != nil {
				s.logger.Warn(ctx, "presign evidence", "alert_id", a.ID, "error", err)
			} else {
				out.IntrusionAlert.EvidenceURL = url
			}
		}
	}
	return out
}

func timestamp(t time.Time) *timestamppb.Timestamp {
	if t.IsZero() {
		return nil
	}
	return timestamppb.New(t)
}
