package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/cryptox"
	"github.com/dmitrijs2005/facelock/internal/logging"
	"github.com/dmitrijs2005/facelock/internal/server/biometric"
	"github.com/dmitrijs2005/facelock/internal/server/config"
	"github.com/dmitrijs2005/facelock/internal/server/locks"
	"github.com/dmitrijs2005/facelock/internal/server/messages"
	"github.com/dmitrijs2005/facelock/internal/server/metrics"
	"github.com/dmitrijs2005/facelock/internal/server/models"
	"github.com/dmitrijs2005/facelock/internal/server/notify"
	"github.com/dmitrijs2005/facelock/internal/server/objects"
	"github.com/dmitrijs2005/facelock/internal/server/repositories/items"
	"github.com/dmitrijs2005/facelock/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// UnlockService decides unlock attempts. Attempts on one item run one at a
// time under a lease; the store's compare-and-swap fences out a holder whose
// lease was taken over.
type UnlockService struct {
	repos       repomanager.RepositoryManager
	leases      *locks.Leases
	verifier    biometric.Verifier
	broadcaster *notify.Broadcaster
	objects     objects.Store
	payloads    *payloads
	metrics     *metrics.Metrics
	log         logging.Logger

	verifierTimeout time.Duration
	locale          string
	now             func() time.Time

	mu       sync.Mutex
	inflight map[attemptKey]map[*attemptHandle]struct{}
}

type attemptKey struct {
	itemID      string
	requesterID string
}

type attemptHandle struct {
	cancel context.CancelFunc
}

func NewUnlockService(
	repos repomanager.RepositoryManager,
	leases *locks.Leases,
	verifier biometric.Verifier,
	broadcaster *notify.Broadcaster,
	store objects.Store,
	sealer *cryptox.Sealer,
	m *metrics.Metrics,
	log logging.Logger,
	cfg *config.Config,
) *UnlockService {
	return &UnlockService{
		repos:           repos,
		leases:          leases,
		verifier:        verifier,
		broadcaster:     broadcaster,
		objects:         store,
		payloads:        &payloads{sealer: sealer, objects: store, presignTTL: cfg.PresignTTL},
		metrics:         m,
		log:             log.With("module", "unlock"),
		verifierTimeout: cfg.VerifierTimeout,
		locale:          cfg.Locale,
		now:             time.Now,
		inflight:        make(map[attemptKey]map[*attemptHandle]struct{}),
	}
}

// AttemptUnlock runs one unlock attempt of requesterID on itemID.
//
// Every business outcome is returned as a result. Errors are reserved for
// faults: common.ErrorValidation for a malformed request,
// common.ErrorNotEnrolled and common.ErrorInvalidProbe when no verification
// can take place, and infrastructure failures. None of them changes the
// item's attempt counter.
func (s *UnlockService) AttemptUnlock(ctx context.Context, itemID, requesterID string, probe []byte) (*models.UnlockResult, error) {
	if itemID == "" || requesterID == "" {
		return nil, fmt.Errorf("%w: item id and requester are required", common.ErrorValidation)
	}
	p := messages.FromContext(ctx, s.locale)

	ctx, untrack := s.track(ctx, itemID, requesterID)
	defer untrack()

	item, err := s.repos.Items().Get(ctx, itemID)
	if err != nil {
		return s.loadFailed(ctx, p, itemID, err)
	}
	if item.State.IsTerminal() {
		return s.replay(ctx, p, item, requesterID)
	}
	if requesterID != item.RecipientID {
		return s.reject(ctx, p, item, requesterID, probe)
	}

	release, err := s.leases.Acquire(ctx, itemID)
	switch {
	case errors.Is(err, locks.ErrBusy):
		return s.report(ctx, p, item, resultFor(item, models.OutcomeBusy)), nil
	case err != nil:
		return s.report(ctx, p, item, resultFor(item, models.OutcomeCancelled)), nil
	}
	defer release()

	// another attempt may have decided the item while this one queued
	item, err = s.repos.Items().Get(ctx, itemID)
	if err != nil {
		return s.loadFailed(ctx, p, itemID, err)
	}
	if item.State.IsTerminal() {
		return s.replay(ctx, p, item, requesterID)
	}

	ref, err := s.repos.Faces().GetReference(ctx, item.RecipientID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotEnrolled
		}
		if ctx.Err() != nil {
			return s.report(ctx, p, item, resultFor(item, models.OutcomeCancelled)), nil
		}
		return nil, fmt.Errorf("load face reference: %w", err)
	}

	start := time.Now()
	match, verr := biometric.VerifyWithin(ctx, s.verifier, s.verifierTimeout, probe, ref)
	s.metrics.VerificationDuration(time.Since(start))

	reason := models.ReasonNone
	switch {
	case verr == nil && match.Matched:
	case verr == nil:
		reason = models.ReasonNoMatch
	case ctx.Err() != nil:
		return s.report(ctx, p, item, resultFor(item, models.OutcomeCancelled)), nil
	case errors.Is(verr, common.ErrorInvalidProbe):
		return nil, verr
	case errors.Is(verr, common.ErrVerifierTimeout):
		reason = models.ReasonVerifierTimeout
	default:
		s.log.Warn(ctx, "verifier failed", "item_id", itemID, "error", verr)
		reason = models.ReasonVerifierError
	}

	// the decision is made; cancelling the request no longer undoes it
	return s.decide(context.WithoutCancel(ctx), p, item, match, reason, probe)
}

// CancelUnlock aborts attempts of requesterID on itemID that have not been
// decided yet. It reports whether any attempt was in flight.
func (s *UnlockService) CancelUnlock(ctx context.Context, itemID, requesterID string) bool {
	s.mu.Lock()
	handles := s.inflight[attemptKey{itemID, requesterID}]
	for h := range handles {
		h.cancel()
	}
	s.mu.Unlock()

	if len(handles) > 0 {
		s.log.Info(ctx, "unlock cancelled", "item_id", itemID, "requester_id", requesterID)
	}
	return len(handles) > 0
}

func (s *UnlockService) track(ctx context.Context, itemID, requesterID string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	key := attemptKey{itemID, requesterID}
	h := &attemptHandle{cancel: cancel}

	s.mu.Lock()
	set, ok := s.inflight[key]
	if !ok {
		set = make(map[*attemptHandle]struct{})
		s.inflight[key] = set
	}
	set[h] = struct{}{}
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		delete(set, h)
		if len(set) == 0 {
			delete(s.inflight, key)
		}
		s.mu.Unlock()
		cancel()
	}
}

func (s *UnlockService) decide(ctx context.Context, p *messages.Printer, item *models.LockableItem, match biometric.Match, reason models.FailureReason, probe []byte) (*models.UnlockResult, error) {
	now := s.now()
	t := items.Transition{
		ExpectedState:    item.State,
		ExpectedAttempts: item.AttemptCount,
		NewState:         models.StateUnlocked,
		NewAttempts:      item.AttemptCount,
		At:               now,
	}
	outcome := models.OutcomeSuccess
	if reason != models.ReasonNone {
		t.NewAttempts++
		t.NewState = models.StateLocked
		outcome = models.OutcomeFailed
		if t.NewAttempts >= item.MaxAttempts {
			t.NewState = models.StateDestroyed
			outcome = models.OutcomeDestroyed
		}
	}

	swapped := false
	err := s.repos.InTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		ok, err := repos.Items().CompareAndSwapState(ctx, item.ID, t)
		if err != nil || !ok {
			return err
		}
		swapped = true
		return repos.Faces().RecordVerification(ctx, &models.VerificationLog{
			ID:               uuid.NewString(),
			UserID:           item.RecipientID,
			ItemID:           item.ID,
			Matched:          reason == models.ReasonNone,
			Confidence:       match.Confidence,
			Reason:           reason,
			ProbeFingerprint: cryptox.Fingerprint(probe),
			CreatedAt:        now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("commit unlock attempt: %w", err)
	}

	if !swapped {
		return s.fenced(ctx, p, item.ID)
	}

	if t.NewState == models.StateDestroyed && item.Kind == models.KindFile {
		s.dropFile(ctx, item)
	}

	item.State = t.NewState
	item.AttemptCount = t.NewAttempts
	switch t.NewState {
	case models.StateUnlocked:
		item.UnlockedAt = &now
	case models.StateDestroyed:
		item.DestroyedAt = &now
	}

	s.broadcaster.NotifyItemStateChange(ctx, item, outcome)
	s.log.Info(ctx, "unlock attempt decided",
		"item_id", item.ID, "outcome", outcome, "reason", reason, "attempt_count", item.AttemptCount)

	res := resultFor(item, outcome)
	res.Reason = reason
	res.Confidence = match.Confidence
	if outcome == models.OutcomeSuccess {
		if err := s.payloads.reveal(ctx, item, res); err != nil {
			return nil, err
		}
	} else if outcome == models.OutcomeDestroyed {
		common.WipeByteArray(item.SealedPayload)
		item.SealedPayload, item.Nonce = nil, nil
	}
	return s.finish(ctx, p, res), nil
}

// fenced handles a lost compare-and-swap: the lease was taken over and the
// item moved on without this attempt. The attempt is discarded.
func (s *UnlockService) fenced(ctx context.Context, p *messages.Printer, itemID string) (*models.UnlockResult, error) {
	s.log.Warn(ctx, "unlock attempt discarded after lease takeover", "item_id", itemID)

	current, err := s.repos.Items().Get(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("reload item: %w", err)
	}
	if current.State.IsTerminal() {
		return s.replay(ctx, p, current, current.RecipientID)
	}
	return s.report(ctx, p, current, resultFor(current, models.OutcomeBusy)), nil
}

func (s *UnlockService) dropFile(ctx context.Context, item *models.LockableItem) {
	key, err := s.payloads.open(item)
	if err != nil {
		s.log.Warn(ctx, "open destroyed file key", "item_id", item.ID, "error", err)
		return
	}
	if err := s.objects.Delete(ctx, string(key)); err != nil {
		s.log.Warn(ctx, "delete destroyed file", "item_id", item.ID, "error", err)
	}
}

// replay answers for an item that is already Unlocked or Destroyed without
// touching any counter. Only the recipient gets the revealed payload.
func (s *UnlockService) replay(ctx context.Context, p *messages.Printer, item *models.LockableItem, requesterID string) (*models.UnlockResult, error) {
	if item.State == models.StateDestroyed {
		return s.report(ctx, p, item, resultFor(item, models.OutcomeAlreadyDestroyed)), nil
	}
	res := resultFor(item, models.OutcomeAlreadyUnlocked)
	if requesterID == item.RecipientID {
		if err := s.payloads.reveal(ctx, item, res); err != nil {
			return nil, err
		}
	}
	return s.report(ctx, p, item, res), nil
}

// reject handles an attempt by someone other than the recipient: the probe
// is kept as evidence and the owner is alerted. The budget is untouched.
func (s *UnlockService) reject(ctx context.Context, p *messages.Printer, item *models.LockableItem, requesterID string, probe []byte) (*models.UnlockResult, error) {
	ctx = context.WithoutCancel(ctx)
	now := s.now()

	alert := &models.IntrusionAlert{
		ID:          uuid.NewString(),
		ItemID:      item.ID,
		RequesterID: requesterID,
		CreatedAt:   now,
	}
	if len(probe) > 0 {
		key := objects.EvidenceKey(now, item.ID, alert.ID)
		if err := s.objects.Put(ctx, key, probe, "application/octet-stream"); err != nil {
			s.log.Warn(ctx, "store intrusion evidence", "item_id", item.ID, "error", err)
		} else {
			alert.EvidenceKey = key
		}
	}
	if err := s.broadcaster.NotifyIntrusion(ctx, item.OwnerID, alert); err != nil {
		return nil, fmt.Errorf("record intrusion alert: %w", err)
	}
	s.log.Warn(ctx, "unauthorized unlock attempt", "item_id", item.ID, "requester_id", requesterID, "alert_id", alert.ID)

	return s.report(ctx, p, item, &models.UnlockResult{
		Outcome: models.OutcomeUnauthorized,
		ItemID:  item.ID,
		State:   item.State,
	}), nil
}

func (s *UnlockService) loadFailed(ctx context.Context, p *messages.Printer, itemID string, err error) (*models.UnlockResult, error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return s.finish(ctx, p, &models.UnlockResult{Outcome: models.OutcomeNotFound, ItemID: itemID}), nil
	case ctx.Err() != nil:
		return s.finish(ctx, p, &models.UnlockResult{Outcome: models.OutcomeCancelled, ItemID: itemID}), nil
	}
	return nil, fmt.Errorf("load item: %w", err)
}

// report hands an outcome that left the item as it was to the broadcaster,
// so every viewer sees every attempt.
func (s *UnlockService) report(ctx context.Context, p *messages.Printer, item *models.LockableItem, res *models.UnlockResult) *models.UnlockResult {
	s.broadcaster.NotifyItemStateChange(context.WithoutCancel(ctx), item, res.Outcome)
	return s.finish(ctx, p, res)
}

func (s *UnlockService) finish(ctx context.Context, p *messages.Printer, res *models.UnlockResult) *models.UnlockResult {
	res.Message = p.ForResult(res)
	s.metrics.UnlockOutcome(string(res.Outcome), string(res.Reason))
	s.log.Debug(ctx, "unlock result", "item_id", res.ItemID, "outcome", res.Outcome)
	return res
}

func resultFor(item *models.LockableItem, outcome models.Outcome) *models.UnlockResult {
	return &models.UnlockResult{
		Outcome:           outcome,
		ItemID:            item.ID,
		State:             item.State,
		AttemptCount:      item.AttemptCount,
		AttemptsRemaining: item.AttemptsRemaining(),
	}
}
