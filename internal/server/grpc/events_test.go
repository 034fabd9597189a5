package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/facelock/internal/api"
	"github.com/dmitrijs2005/facelock/internal/logging"
	"github.com/dmitrijs2005/facelock/internal/server/models"
	"github.com/dmitrijs2005/facelock/internal/server/notify"
	"github.com/dmitrijs2005/facelock/internal/server/repositories/alerts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

type fakeEventStream struct {
	grpc.ServerStream
	ctx  context.Context
	send func(*api.Event) error
}

func (f *fakeEventStream) Context() context.Context { return f.ctx }
func (f *fakeEventStream) Send(ev *api.Event) error  { return f.send(ev) }

// offlineAlerts raises n alerts for alice while she has no session.
func offlineAlerts(t *testing.T, bus *notify.Broadcaster, n int) {
	t.Helper()
	base := time.Now()
	for i := 0; i < n; i++ {
		require.NoError(t, bus.NotifyIntrusion(context.Background(), "alice", &models.IntrusionAlert{
			ID:          fmt.Sprintf("a%d", i),
			ItemID:      "i1",
			RequesterID: "mallory",
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}))
	}
}

func TestEvents_BacklogLargerThanBufferIsFullyDelivered(t *testing.T) {
	outbox := alerts.NewMemoryRepository()
	bus := notify.NewBroadcaster(outbox, logging.Discard(), nil, 2)
	offlineAlerts(t, bus, 6)
	s := NewGRPCServer("", nopLogger{}, Services{Events: bus}, "k", time.Minute)

	ctx, cancel := context.WithCancel(authed("alice"))
	defer cancel()
	var got []string
	stream := &fakeEventStream{ctx: ctx, send: func(ev *api.Event) error {
		got = append(got, ev.IntrusionAlert.AlertID)
		if len(got) == 6 {
			cancel()
		}
		return nil
	}}

	require.NoError(t, s.Events(&emptypb.Empty{}, stream))
	assert.Equal(t, []string{"a0", "a1", "a2", "a3", "a4", "a5"}, got)

	pending, err := outbox.ListPending(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, 0, bus.SessionCount("alice"))
}

func TestEvents_UnsentAlertsStayPending(t *testing.T) {
	outbox := alerts.NewMemoryRepository()
	bus := notify.NewBroadcaster(outbox, logging.Discard(), nil, 2)
	offlineAlerts(t, bus, 4)
	s := NewGRPCServer("", nopLogger{}, Services{Events: bus}, "k", time.Minute)

	broken := errors.New("transport is closing")
	sends := 0
	stream := &fakeEventStream{ctx: authed("alice"), send: func(*api.Event) error {
		sends++
		if sends == 2 {
			return broken
		}
		return nil
	}}

	err := s.Events(&emptypb.Empty{}, stream)
	assert.ErrorIs(t, err, broken)

	pending, err := outbox.ListPending(context.Background(), "alice")
	require.NoError(t, err)
	ids := make([]string, 0, len(pending))
	for _, a := range pending {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a1", "a2", "a3"}, ids, "only the alert that was sent leaves the outbox")
}

func TestEvents_LiveAlertAfterBacklog(t *testing.T) {
	outbox := alerts.NewMemoryRepository()
	bus := notify.NewBroadcaster(outbox, logging.Discard(), nil, 4)
	offlineAlerts(t, bus, 1)
	s := NewGRPCServer("", nopLogger{}, Services{Events: bus}, "k", time.Minute)

	ctx, cancel := context.WithCancel(authed("alice"))
	defer cancel()
	got := make(chan string, 4)
	stream := &fakeEventStream{ctx: ctx, send: func(ev *api.Event) error {
		got <- ev.IntrusionAlert.AlertID
		return nil
	}}

	done := make(chan error, 1)
	go func() { done <- s.Events(&emptypb.Empty{}, stream) }()

	assert.Equal(t, "a0", <-got)
	require.NoError(t, bus.NotifyIntrusion(context.Background(), "alice", &models.IntrusionAlert{ID: "live", ItemID: "i1", CreatedAt: time.Now()}))
	select {
	case id := <-got:
		assert.Equal(t, "live", id)
	case <-time.After(time.Second):
		t.Fatal("live alert not sent")
	}

	cancel()
	require.NoError(t, <-done)
	pending, err := outbox.ListPending(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestEvents_ClosedSessionMapsToResourceExhausted(t *testing.T) {
	assert.Equal(t, codes.ResourceExhausted, status.Code(toStatus(fmt.Errorf("subscribe: %w", notify.ErrSessionClosed))))
}
