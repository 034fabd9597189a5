// Package server assembles the FaceLock server: storage, object store,
// verifier, per-item leases, event broadcaster and risk assessor, exposed
// over gRPC and a REST gateway.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/facelock/internal/buildinfo"
	"github.com/dmitrijs2005/facelock/internal/cryptox"
	"github.com/dmitrijs2005/facelock/internal/logging"
	"github.com/dmitrijs2005/facelock/internal/server/biometric"
	"github.com/dmitrijs2005/facelock/internal/server/config"
	"github.com/dmitrijs2005/facelock/internal/server/httpapi"
	"github.com/dmitrijs2005/facelock/internal/server/locks"
	"github.com/dmitrijs2005/facelock/internal/server/metrics"
	"github.com/dmitrijs2005/facelock/internal/server/notify"
	"github.com/dmitrijs2005/facelock/internal/server/objects"
	"github.com/dmitrijs2005/facelock/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/facelock/internal/server/risk"
	"github.com/dmitrijs2005/facelock/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"

	gs "github.com/dmitrijs2005/facelock/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	repos   repomanager.RepositoryManager
	watcher *risk.Watcher
	grpc    *gs.GRPCServer
	http    *httpapi.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	repos, err := newRepositories(c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	store, err := newObjectStore(ctx, c)
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	sealer, err := cryptox.NewSealer([]byte(c.SealKey))
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	assessor, watcher, err := newAssessor(c, logger, m)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	leases := locks.NewLeases(c.LockHoldTimeout, c.UnlockQueueWait, locks.WithTakeoverHook(func(key string) {
		m.LeaseTakeover()
		logger.Warn(context.Background(), "lease taken over", "item_id", key)
	}))
	broadcaster := notify.NewBroadcaster(repos.Alerts(), logger, m, c.SessionBuffer)

	svc := gs.Services{
		Items:    services.NewItemService(repos, store, sealer, logger, c),
		Unlock:   services.NewUnlockService(repos, leases, newVerifier(c), broadcaster, store, sealer, m, logger, c),
		Faces:    services.NewFaceService(repos, logger),
		Risk:     services.NewRiskService(repos, assessor, m),
		Events:   broadcaster,
		Evidence: store,
	}

	grpcServer := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, svc, c.SecretKey, c.PresignTTL)
	httpServer := httpapi.NewHTTPServer(c.EndpointAddrHTTP, logger, grpcServer, c.SecretKey, registry)

	return &App{
		config:  c,
		logger:  logger,
		repos:   repos,
		watcher: watcher,
		grpc:    grpcServer,
		http:    httpServer,
	}, nil
}

func newRepositories(c *config.Config) (repomanager.RepositoryManager, error) {
	if c.StoreBackend == config.BackendMemory {
		return repomanager.NewMemoryRepositoryManager(), nil
	}
	return repomanager.NewPostgresRepositoryManager(c.DatabaseDSN)
}

func newObjectStore(ctx context.Context, c *config.Config) (objects.Store, error) {
	if c.ObjectBackend != config.BackendS3 {
		return objects.NewMemoryStore(), nil
	}
	return objects.NewS3Store(ctx, objects.S3Config{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
	})
}

func newVerifier(c *config.Config) biometric.Verifier {
	if c.BiometricEndpoint != "" {
		return biometric.NewRemoteVerifier(c.BiometricEndpoint, &http.Client{Timeout: c.VerifierTimeout})
	}
	return biometric.NewDescriptorVerifier(c.FaceMatchThreshold)
}

// newAssessor starts from the built-in policy. With a policy file configured
// the file must load at startup; later edits are applied by the watcher.
func newAssessor(c *config.Config, logger logging.Logger, m *metrics.Metrics) (*risk.Assessor, *risk.Watcher, error) {
	policy := risk.DefaultPolicy()
	if c.RiskPolicyFile != "" {
		p, err := risk.LoadPolicyFile(c.RiskPolicyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("risk policy: %w", err)
		}
		policy = p
	}

	assessor, err := risk.NewAssessor(policy)
	if err != nil {
		return nil, nil, fmt.Errorf("risk policy: %w", err)
	}

	if c.RiskPolicyFile == "" {
		return assessor, nil, nil
	}
	return assessor, risk.NewWatcher(c.RiskPolicyFile, assessor, logger, m), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// runComponent runs fn and cancels the whole app when it fails.
func (app *App) runComponent(ctx context.Context, cancelFunc context.CancelFunc, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		app.logger.Error(ctx, "component failed", "component", name, "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"version", buildinfo.Version, "date", buildinfo.Date, "commit", buildinfo.Commit)

	app.initSignalHandler(cancelFunc)

	components := map[string]func(context.Context) error{
		"grpc": app.grpc.Run,
		"http": app.http.Run,
	}
	if app.watcher != nil {
		components["risk_policy_watcher"] = app.watcher.Run
	}

	var wg sync.WaitGroup
	for name, fn := range components {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.runComponent(ctx, cancelFunc, name, fn)
		}()
	}

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(context.Background(), "closing store", "error", err)
	}
	app.logger.Info(context.Background(), "Stopped", "at", time.Now().UTC())
}
