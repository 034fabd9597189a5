// Package notify fans item state changes out to viewer sessions and delivers
// intrusion alerts to item owners through a persistent outbox.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/facelock/internal/logging"
	"github.com/dmitrijs2005/facelock/internal/server/metrics"
	"github.com/dmitrijs2005/facelock/internal/server/models"
	"github.com/dmitrijs2005/facelock/internal/server/repositories/alerts"
)

const DefaultSessionBuffer = 64

// ErrSessionClosed is returned by Subscribe when the new session was dropped
// before it could be handed out.
var ErrSessionClosed = errors.New("event session closed")

// Session is one live event stream of a user. A session that falls behind
// by more than its buffer is closed rather than skipped, so a client never
// sees a gap in an item's sequence; it reconnects and re-reads placeholders.
type Session struct {
	UserID string

	backlog   []*models.IntrusionAlert
	events    chan models.Event
	done      chan struct{}
	closeOnce sync.Once
}

// Backlog returns the alerts that were pending when the session opened,
// oldest first. They are not queued on Events; the consumer sends them first
// and acknowledges each one with Broadcaster.Ack. An alert raised while
// Subscribe ran may appear both here and on Events.
func (s *Session) Backlog() []*models.IntrusionAlert { return s.backlog }

func (s *Session) Events() <-chan models.Event { return s.events }

// Done is closed when the session is unsubscribed or dropped.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

type Broadcaster struct {
	outbox  alerts.Repository
	log     logging.Logger
	metrics *metrics.Metrics
	buffer  int
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]map[*Session]struct{}
	seq      map[string]uint64
}

func NewBroadcaster(outbox alerts.Repository, log logging.Logger, m *metrics.Metrics, buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultSessionBuffer
	}
	return &Broadcaster{
		outbox:   outbox,
		log:      log.With("module", "notify"),
		metrics:  m,
		buffer:   buffer,
		now:      time.Now,
		sessions: make(map[string]map[*Session]struct{}),
		seq:      make(map[string]uint64),
	}
}

// Subscribe opens a session for userID. Intrusion alerts still pending in
// the outbox are returned through Session.Backlog; they stay pending until
// acknowledged.
func (b *Broadcaster) Subscribe(ctx context.Context, userID string) (*Session, error) {
	s := &Session{
		UserID: userID,
		events: make(chan models.Event, b.buffer),
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	set, ok := b.sessions[userID]
	if !ok {
		set = make(map[*Session]struct{})
		b.sessions[userID] = set
	}
	set[s] = struct{}{}
	b.mu.Unlock()
	b.metrics.SessionOpened()

	pending, err := b.outbox.ListPending(ctx, userID)
	if err != nil {
		b.Unsubscribe(s)
		return nil, err
	}
	s.backlog = pending

	select {
	case <-s.done:
		// overflowed by live events while the backlog was loading
		b.Unsubscribe(s)
		return nil, ErrSessionClosed
	default:
	}
	return s, nil
}

// Ack records that ev reached the client. Intrusion alerts leave the outbox
// only through Ack, so an alert queued on a session that is dropped before
// sending it is delivered again on the next subscribe.
func (b *Broadcaster) Ack(ctx context.Context, ev models.Event) {
	if ev.Intrusion != nil {
		b.markDelivered(ctx, ev.Intrusion.ID)
	}
}

func (b *Broadcaster) Unsubscribe(s *Session) {
	b.mu.Lock()
	removed := b.removeLocked(s)
	b.mu.Unlock()
	if removed {
		b.metrics.SessionClosed()
	}
}

// NotifyItemStateChange assigns the next sequence number for the item and
// queues the event on every live session of its owner and recipient. It is
// called for every attempt outcome, including those that leave the state as
// it was. State-changing outcomes are reported in commit order while the
// caller still holds the item's lease.
func (b *Broadcaster) NotifyItemStateChange(_ context.Context, item *models.LockableItem, outcome models.Outcome) models.ItemStateChanged {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq[item.ID]++
	ev := models.ItemStateChanged{
		ItemID:       item.ID,
		NewState:     item.State,
		Outcome:      outcome,
		AttemptCount: item.AttemptCount,
		Seq:          b.seq[item.ID],
		OccurredAt:   b.now(),
	}
	viewers := []string{item.OwnerID}
	if item.RecipientID != item.OwnerID {
		viewers = append(viewers, item.RecipientID)
	}
	for _, userID := range viewers {
		for s := range b.sessions[userID] {
			b.sendLocked(s, models.Event{StateChanged: &ev})
		}
	}
	return ev
}

// NotifyIntrusion persists alert before attempting delivery. It stays pending
// until an owner session acknowledges it.
func (b *Broadcaster) NotifyIntrusion(ctx context.Context, ownerID string, alert *models.IntrusionAlert) error {
	alert.OwnerID = ownerID
	if err := b.outbox.Create(ctx, alert); err != nil {
		return err
	}
	b.metrics.IntrusionAlert()

	queued := 0
	b.mu.Lock()
	for s := range b.sessions[ownerID] {
		if b.sendLocked(s, models.Event{Intrusion: alert}) {
			queued++
		}
	}
	b.mu.Unlock()

	if queued == 0 {
		b.log.Info(ctx, "owner offline, alert queued", "alert_id", alert.ID, "item_id", alert.ItemID)
	}
	return nil
}

// SessionCount returns the number of live sessions of userID.
func (b *Broadcaster) SessionCount(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions[userID])
}

func (b *Broadcaster) markDelivered(ctx context.Context, alertID string) {
	if _, err := b.outbox.MarkDelivered(ctx, alertID, b.now()); err != nil {
		// The alert stays pending and is sent again on the next subscribe.
		b.log.Warn(ctx, "mark alert delivered", "alert_id", alertID, "error", err)
	}
}

// sendLocked never blocks. A full session is dropped.
func (b *Broadcaster) sendLocked(s *Session, ev models.Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	default:
		b.log.Warn(context.Background(), "dropping slow event session", "user_id", s.UserID)
		if b.removeLocked(s) {
			b.metrics.SessionClosed()
		}
		b.metrics.SlowSessionDropped()
		return false
	}
}

func (b *Broadcaster) removeLocked(s *Session) bool {
	set := b.sessions[s.UserID]
	if _, ok := set[s]; !ok {
		s.close()
		return false
	}
	delete(set, s)
	if len(set) == 0 {
		delete(b.sessions, s.UserID)
	}
	s.close()
	return true
}
