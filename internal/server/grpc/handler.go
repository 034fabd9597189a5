package grpc

import (
	"context"

	"github.com/dmitrijs2005/facelock/internal/api"
	"github.com/dmitrijs2005/facelock/internal/server/models"
	"github.com/dmitrijs2005/facelock/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

var _ api.FaceLockServer = (*GRPCServer)(nil)

func (s *GRPCServer) SendLockedItem(ctx context.Context, req *api.SendLockedItemRequest) (*api.SendLockedItemResponse, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.svc.Items.SendLockedItem(ctx, id.UserID, id.Username, services.SendRequest{
		RecipientID: req.RecipientID,
		Kind:        models.ItemKind(req.Kind),
		Text:        req.Payload,
		FileName:    req.FileName,
		FileBody:    req.FileContent,
		ContentType: req.ContentType,
	})
	if err != nil {
		return nil, s.fail(ctx, api.MethodSendLockedItem, err)
	}

	return &api.SendLockedItemResponse{ItemID: item.ID}, nil
}

func (s *GRPCServer) GetItemPlaceholder(ctx context.Context, req *api.ItemRequest) (*api.Placeholder, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	ph, err := s.svc.Items.GetPlaceholder(ctx, req.ItemID, id.UserID)
	if err != nil {
		return nil, s.fail(ctx, api.MethodGetItemPlaceholder, err)
	}

	return toAPIPlaceholder(ph), nil
}

func (s *GRPCServer) Unlock(ctx context.Context, req *api.UnlockRequest) (*api.UnlockResult, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.svc.Unlock.AttemptUnlock(ctx, req.ItemID, id.UserID, req.ProbeImage)
	if err != nil {
		return nil, s.fail(ctx, api.MethodUnlock, err)
	}

	return toAPIResult(res), nil
}

// CancelUnlock always succeeds; there may be nothing to cancel.
func (s *GRPCServer) CancelUnlock(ctx context.Context, req *api.ItemRequest) (*emptypb.Empty, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	s.svc.Unlock.CancelUnlock(ctx, req.ItemID, id.UserID)
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) AssessRisk(ctx context.Context, req *api.AssessRiskRequest) (*api.RiskAssessment, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	a, err := s.svc.Risk.Assess(ctx, toSessionContext(id.UserID, req))
	if err != nil {
		return nil, s.fail(ctx, api.MethodAssessRisk, err)
	}

	return toAPIAssessment(a), nil
}

func (s *GRPCServer) EnrollFace(ctx context.Context, req *api.EnrollFaceRequest) (*api.FaceStatus, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	st, err := s.svc.Faces.Enroll(ctx, id.UserID, req.Descriptor)
	if err != nil {
		return nil, s.fail(ctx, api.MethodEnrollFace, err)
	}

	return toAPIFaceStatus(st), nil
}

func (s *GRPCServer) FaceStatus(ctx context.Context, _ *emptypb.Empty) (*api.FaceStatus, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	st, err := s.svc.Faces.Status(ctx, id.UserID)
	if err != nil {
		return nil, s.fail(ctx, api.MethodFaceStatus, err)
	}

	return toAPIFaceStatus(st), nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*api.PingResponse, error) {

	return &api.PingResponse{Status: "OK"}, nil

}

// Events streams state changes of the caller's items and intrusion alerts
// until the client goes away. Alerts pending from while the caller was
// offline go first. An alert is acknowledged only after it was sent, so one
// that never reaches the client stays pending. A session dropped for falling
// behind sends what it still holds and then ends the stream with
// ResourceExhausted; the client reconnects and re-reads.
func (s *GRPCServer) Events(_ *emptypb.Empty, stream api.EventsServer) error {
	ctx := stream.Context()
	id, err := identity(ctx)
	if err != nil {
		return err
	}

	session, err := s.svc.Events.Subscribe(ctx, id.UserID)
	if err != nil {
		return s.fail(ctx, api.MethodEvents, err)
	}
	defer s.svc.Events.Unsubscribe(session)

	s.logger.Info(ctx, "event stream opened", "user_id", id.UserID, "pending_alerts", len(session.Backlog()))

	sent := make(map[string]struct{}, len(session.Backlog()))
	send := func(ev models.Event) error {
		if a := ev.Intrusion; a != nil {
			if _, dup := sent[a.ID]; dup {
				return nil
			}
			sent[a.ID] = struct{}{}
		}
		if err := stream.Send(s.toAPIEvent(ctx, ev)); err != nil {
			return err
		}
		s.svc.Events.Ack(context.WithoutCancel(ctx), ev)
		return nil
	}

	for _, a := range session.Backlog() {
		if err := send(models.Event{Intrusion: a}); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-session.Events():
			if err := send(ev); err != nil {
				return err
			}
		case <-session.Done():
			for {
				select {
				case ev := <-session.Events():
					if err := send(ev); err != nil {
						return err
					}
				default:
					return status.Error(codes.ResourceExhausted, "event session dropped, reconnect")
				}
			}
		}
	}
}
