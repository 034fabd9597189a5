package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/facelock/internal/api"
	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/server/auth"
	"github.com/dmitrijs2005/facelock/internal/server/models"
	"github.com/dmitrijs2005/facelock/internal/server/risk"
	"github.com/dmitrijs2005/facelock/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// ---- fakes ----

type fakeItems struct {
	sent    services.SendRequest
	owner   string
	sendErr error

	placeholder *models.Placeholder
	phErr       error
}

func (f *fakeItems) SendLockedItem(_ context.Context, ownerID, _ string, req services.SendRequest) (*models.LockableItem, error) {
	f.owner, f.sent = ownerID, req
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &models.LockableItem{ID: "item-1"}, nil
}

func (f *fakeItems) GetPlaceholder(context.Context, string, string) (*models.Placeholder, error) {
	return f.placeholder, f.phErr
}

type fakeUnlock struct {
	requester string
	probe     []byte
	res       *models.UnlockResult
	err       error
	cancelled []string
}

func (f *fakeUnlock) AttemptUnlock(_ context.Context, _, requesterID string, probe []byte) (*models.UnlockResult, error) {
	f.requester, f.probe = requesterID, probe
	return f.res, f.err
}

func (f *fakeUnlock) CancelUnlock(_ context.Context, itemID, requesterID string) bool {
	f.cancelled = append(f.cancelled, itemID+"/"+requesterID)
	return false
}

type fakeFaces struct {
	st  *services.FaceStatus
	err error
}

func (f *fakeFaces) Enroll(context.Context, string, []float64) (*services.FaceStatus, error) {
	return f.st, f.err
}

func (f *fakeFaces) Status(context.Context, string) (*services.FaceStatus, error) {
	return f.st, f.err
}

type fakeRisk struct {
	got risk.SessionContext
}

func (f *fakeRisk) Assess(_ context.Context, sc risk.SessionContext) (risk.Assessment, error) {
	f.got = sc
	return risk.Assessment{
		Score:           0.5,
		Level:           risk.LevelMedium,
		Factors:         map[string]risk.FactorScore{risk.FactorDeviceRisk: {Score: 0.3, Description: "Known device"}},
		RequiredFactors: risk.RequiredFactors(risk.LevelMedium),
	}, nil
}

func authed(userID string) context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{UserID: userID, Username: userID})
}

func TestHandlers_RequireIdentity(t *testing.T) {
	s := NewGRPCServer("", nopLogger{}, Services{}, "k", time.Minute)
	ctx := context.Background()

	_, err := s.Unlock(ctx, &api.UnlockRequest{ItemID: "i"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = s.SendLockedItem(ctx, &api.SendLockedItemRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = s.CancelUnlock(ctx, &api.ItemRequest{ItemID: "i"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	pong, err := s.Ping(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "OK", pong.Status)
}

func TestSendLockedItem(t *testing.T) {
	items := &fakeItems{}
	s := NewGRPCServer("", nopLogger{}, Services{Items: items}, "k", time.Minute)

	resp, err := s.SendLockedItem(authed("alice"), &api.SendLockedItemRequest{
		RecipientID: "bob", Kind: "file", FileName: "a.txt", FileContent: []byte("hi"),
	})
	require.NoError(t, err)
	assert.Equal(t, "item-1", resp.ItemID)
	assert.Equal(t, "alice", items.owner, "owner comes from the token")
	assert.Equal(t, models.KindFile, items.sent.Kind)
	assert.Equal(t, []byte("hi"), items.sent.FileBody)

	items.sendErr = fmt.Errorf("%w: recipient is required", common.ErrorValidation)
	_, err = s.SendLockedItem(authed("alice"), &api.SendLockedItemRequest{Kind: "message"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetItemPlaceholder(t *testing.T) {
	items := &fakeItems{placeholder: &models.Placeholder{
		ItemID: "i1", Kind: models.KindMessage, OwnerID: "alice", State: models.StateDestroyed,
		AttemptCount: 3, MaxAttempts: 3, Tombstone: common.TombstoneMessage,
	}}
	s := NewGRPCServer("", nopLogger{}, Services{Items: items}, "k", time.Minute)

	ph, err := s.GetItemPlaceholder(authed("bob"), &api.ItemRequest{ItemID: "i1"})
	require.NoError(t, err)
	assert.Equal(t, "destroyed", ph.State)
	assert.Equal(t, common.TombstoneMessage, ph.Tombstone)

	items.placeholder, items.phErr = nil, common.ErrorUnauthorized
	_, err = s.GetItemPlaceholder(authed("mallory"), &api.ItemRequest{ItemID: "i1"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestUnlock_MapsResultAndErrors(t *testing.T) {
	unlock := &fakeUnlock{res: &models.UnlockResult{
		Outcome: models.OutcomeFailed, Reason: models.ReasonNoMatch, ItemID: "i1",
		State: models.StateLocked, AttemptCount: 1, AttemptsRemaining: 2, Message: "2 left",
	}}
	s := NewGRPCServer("", nopLogger{}, Services{Unlock: unlock}, "k", time.Minute)

	res, err := s.Unlock(authed("bob"), &api.UnlockRequest{ItemID: "i1", ProbeImage: []byte{9}})
	require.NoError(t, err)
	assert.Equal(t, "failed", res.Outcome)
	assert.Equal(t, "no_match", res.Reason)
	assert.Equal(t, 2, res.AttemptsRemaining)
	assert.Equal(t, "bob", unlock.requester, "requester comes from the token")
	assert.Equal(t, []byte{9}, unlock.probe)

	tests := []struct {
		err  error
		code codes.Code
	}{
		{common.ErrorNotEnrolled, codes.FailedPrecondition},
		{fmt.Errorf("%w: bad", common.ErrorInvalidProbe), codes.InvalidArgument},
		{errors.New("connection refused"), codes.Internal},
		{common.ErrVerifierUnavailable, codes.Unavailable},
	}
	for _, tt := range tests {
		unlock.res, unlock.err = nil, tt.err
		_, err := s.Unlock(authed("bob"), &api.UnlockRequest{ItemID: "i1"})
		assert.Equal(t, tt.code, status.Code(err), tt.err.Error())
	}

	// infrastructure detail never reaches the client
	unlock.err = errors.New("pq: password authentication failed")
	_, err = s.Unlock(authed("bob"), &api.UnlockRequest{ItemID: "i1"})
	assert.Equal(t, "internal error", status.Convert(err).Message())
}

func TestCancelUnlock_AlwaysSucceeds(t *testing.T) {
	unlock := &fakeUnlock{}
	s := NewGRPCServer("", nopLogger{}, Services{Unlock: unlock}, "k", time.Minute)

	_, err := s.CancelUnlock(authed("bob"), &api.ItemRequest{ItemID: "i1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"i1/bob"}, unlock.cancelled)
}

func TestAssessRisk(t *testing.T) {
	rk := &fakeRisk{}
	s := NewGRPCServer("", nopLogger{}, Services{Risk: rk}, "k", time.Minute)

	hour := 3
	a, err := s.AssessRisk(authed("bob"), &api.AssessRiskRequest{LocalHour: &hour, MinLevel: "medium"})
	require.NoError(t, err)
	assert.Equal(t, "medium", a.Level)
	assert.Equal(t, []string{"password", "captcha"}, a.RequiredFactors)
	assert.Equal(t, 0.3, a.Factors[risk.FactorDeviceRisk].Score)

	assert.Equal(t, "bob", rk.got.UserID)
	assert.Equal(t, risk.LevelMedium, rk.got.MinLevel)
	require.NotNil(t, rk.got.LocalHour)
	assert.Equal(t, 3, *rk.got.LocalHour)
}

func TestFaceHandlers(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	faces := &fakeFaces{st: &services.FaceStatus{Enrolled: true, EnrolledAt: at, UpdatedAt: at}}
	s := NewGRPCServer("", nopLogger{}, Services{Faces: faces}, "k", time.Minute)

	st, err := s.EnrollFace(authed("bob"), &api.EnrollFaceRequest{Descriptor: []float64{0.1}})
	require.NoError(t, err)
	assert.True(t, st.Enrolled)
	assert.Equal(t, at, st.EnrolledAt.AsTime())

	faces.st = &services.FaceStatus{}
	st, err = s.FaceStatus(authed("bob"), &emptypb.Empty{})
	require.NoError(t, err)
	assert.False(t, st.Enrolled)
	assert.Nil(t, st.EnrolledAt)

	faces.st, faces.err = nil, common.ErrorInvalidProbe
	_, err = s.EnrollFace(authed("bob"), &api.EnrollFaceRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
