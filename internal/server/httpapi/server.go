// Package httpapi is the REST gateway in front of FaceLockService. It
// authenticates Bearer tokens and forwards each route to the same handlers
// the gRPC server uses, so both surfaces share validation and error mapping.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/facelock/internal/api"
	"github.com/dmitrijs2005/facelock/internal/logging"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Backend is the unary part of api.FaceLockServer.
type Backend interface {
	SendLockedItem(ctx context.Context, req *api.SendLockedItemRequest) (*api.SendLockedItemResponse, error)
	GetItemPlaceholder(ctx context.Context, req *api.ItemRequest) (*api.Placeholder, error)
	Unlock(ctx context.Context, req *api.UnlockRequest) (*api.UnlockResult, error)
	CancelUnlock(ctx context.Context, req *api.ItemRequest) (*emptypb.Empty, error)
	AssessRisk(ctx context.Context, req *api.AssessRiskRequest) (*api.RiskAssessment, error)
	EnrollFace(ctx context.Context, req *api.EnrollFaceRequest) (*api.FaceStatus, error)
	FaceStatus(ctx context.Context, req *emptypb.Empty) (*api.FaceStatus, error)
	Ping(ctx context.Context, req *emptypb.Empty) (*api.PingResponse, error)
}

type HTTPServer struct {
	address   string
	backend   Backend
	logger    logging.Logger
	jwtSecret []byte
	gatherer  prometheus.Gatherer
}

func NewHTTPServer(a string, l logging.Logger, backend Backend, secretKey string, gatherer prometheus.Gatherer) *HTTPServer {
	return &HTTPServer{
		address:   a,
		backend:   backend,
		logger:    l.With("module", "http_server"),
		jwtSecret: []byte(secretKey),
		gatherer:  gatherer,
	}
}

// Router builds the route table.
func (s *HTTPServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests, withLocale)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(s.requireBearer)
	v1.HandleFunc("/items", s.sendItem).Methods(http.MethodPost)
	v1.HandleFunc("/items/{id}/placeholder", s.placeholder).Methods(http.MethodGet)
	v1.HandleFunc("/items/{id}/unlock", s.unlock).Methods(http.MethodPost)
	v1.HandleFunc("/items/{id}/cancel", s.cancel).Methods(http.MethodPost)
	v1.HandleFunc("/risk", s.assessRisk).Methods(http.MethodGet)
	v1.HandleFunc("/faces/me", s.enrollFace).Methods(http.MethodPut)
	v1.HandleFunc("/faces/me", s.faceStatus).Methods(http.MethodGet)

	return r
}

func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
