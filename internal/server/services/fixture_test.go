package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/cryptox"
	"github.com/dmitrijs2005/facelock/internal/logging"
	"github.com/dmitrijs2005/facelock/internal/server/biometric"
	"github.com/dmitrijs2005/facelock/internal/server/config"
	"github.com/dmitrijs2005/facelock/internal/server/locks"
	"github.com/dmitrijs2005/facelock/internal/server/metrics"
	"github.com/dmitrijs2005/facelock/internal/server/models"
	"github.com/dmitrijs2005/facelock/internal/server/notify"
	"github.com/dmitrijs2005/facelock/internal/server/objects"
	"github.com/dmitrijs2005/facelock/internal/server/repositories/repomanager"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// Probes understood by the scripted verifier.
const (
	probeMatch   = "match"
	probeNoMatch = "nomatch"
	probeBlock   = "block" // waits until the verification context ends
	probeError   = "error"
	probeInvalid = "invalid"
)

type fixture struct {
	cfg     *config.Config
	repos   *repomanager.MemoryRepositoryManager
	store   *objects.MemoryStore
	bus     *notify.Broadcaster
	leases  *locks.Leases
	unlock  *UnlockService
	items   *ItemService
	faces   *FaceService
	started chan string
	// hook runs inside the verifier before it answers, if set
	hook func(ctx context.Context)
}

func newFixture(t *testing.T, tune ...func(*config.Config)) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.VerifierTimeout = 2 * time.Second
	cfg.LockHoldTimeout = 5 * time.Second
	cfg.UnlockQueueWait = 3 * time.Second
	for _, fn := range tune {
		fn(cfg)
	}

	sealer, err := cryptox.NewSealer([]byte("test-seal-key"))
	require.NoError(t, err)

	f := &fixture{
		cfg:     cfg,
		repos:   repomanager.NewMemoryRepositoryManager(),
		store:   objects.NewMemoryStore(),
		started: make(chan string, 16),
	}
	m := metrics.New(prometheus.NewRegistry())
	log := logging.Discard()

	f.bus = notify.NewBroadcaster(f.repos.Alerts(), log, m, 16)
	f.leases = locks.NewLeases(cfg.LockHoldTimeout, cfg.UnlockQueueWait)
	f.unlock = NewUnlockService(f.repos, f.leases, biometric.VerifierFunc(f.verify), f.bus, f.store, sealer, m, log, cfg)
	f.items = NewItemService(f.repos, f.store, sealer, log, cfg)
	f.faces = NewFaceService(f.repos, log)
	return f
}

func (f *fixture) verify(ctx context.Context, probe []byte, _ *models.FaceReference) (biometric.Match, error) {
	select {
	case f.started <- string(probe):
	default:
	}
	if f.hook != nil {
		f.hook(ctx)
	}
	switch string(probe) {
	case probeMatch:
		return biometric.Match{Matched: true, Confidence: 0.92, Distance: 0.08}, nil
	case probeNoMatch:
		return biometric.Match{Confidence: 0.1, Distance: 0.9}, nil
	case probeBlock:
		<-ctx.Done()
		return biometric.Match{}, ctx.Err()
	case probeError:
		return biometric.Match{}, common.ErrVerifierUnavailable
	default:
		return biometric.Match{}, common.ErrorInvalidProbe
	}
}

func descriptorOf(v float64) []float64 {
	d := make([]float64, biometric.DescriptorLength)
	for i := range d {
		d[i] = v
	}
	return d
}

// sendMessage creates a message from alice to bob and enrolls bob.
func (f *fixture) sendMessage(t *testing.T, text string) *models.LockableItem {
	t.Helper()
	ctx := context.Background()

	_, err := f.faces.Enroll(ctx, "bob", descriptorOf(0.1))
	require.NoError(t, err)

	item, err := f.items.SendLockedItem(ctx, "alice", "Alice", SendRequest{
		RecipientID: "bob",
		Kind:        models.KindMessage,
		Text:        text,
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) stored(t *testing.T, id string) *models.LockableItem {
	t.Helper()
	item, err := f.repos.Items().Get(context.Background(), id)
	require.NoError(t, err)
	return item
}

func (f *fixture) attempt(t *testing.T, id, requester, probe string) *models.UnlockResult {
	t.Helper()
	res, err := f.unlock.AttemptUnlock(context.Background(), id, requester, []byte(probe))
	require.NoError(t, err)
	return res
}

func waitStarted(t *testing.T, f *fixture, probe string) {
	t.Helper()
	for {
		select {
		case p := <-f.started:
			if p == probe {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("verification with probe %q never started", probe)
		}
	}
}

func recvEvent(t *testing.T, s *notify.Session) models.Event {
	t.Helper()
	select {
	case ev := <-s.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return models.Event{}
	}
}

// faultyRepos fails every transaction, as an unreachable database would.
type faultyRepos struct {
	*repomanager.MemoryRepositoryManager
	err error
}

func (r *faultyRepos) InTx(context.Context, func(context.Context, repomanager.Repositories) error) error {
	return r.err
}
