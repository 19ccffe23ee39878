// Package rest serves the collection API consumed by the client data layer:
//
//	GET    /api/ping
//	GET    /api/{collection}?page=&size=&filter=&sort=
//	POST   /api/{collection}
//	PUT    /api/{collection}
//	DELETE /api/{collection}/{id}
//
// Collection routes require a bearer token. Prometheus metrics are exposed
// at /metrics.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/admindata/internal/logging"
	"github.com/dmitrijs2005/admindata/internal/metrics"
	"github.com/dmitrijs2005/admindata/internal/models"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Service is the business layer behind the handlers.
type Service interface {
	List(ctx context.Context, collection string, q models.Query) ([]models.Record, error)
	Create(ctx context.Context, collection string, r models.Record) (models.Record, error)
	Update(ctx context.Context, collection string, r models.Record) (models.Record, error)
	Delete(ctx context.Context, collection, id string) error
}

type Server struct {
	address    string
	logger     logging.Logger
	service    Service
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	signingKey []byte
}

func NewServer(addr string, l logging.Logger, svc Service, m *metrics.Metrics, g prometheus.Gatherer, signingKey []byte) *Server {
	return &Server{
		address:    addr,
		logger:     l.With("module", "rest_server"),
		service:    svc,
		metrics:    m,
		gatherer:   g,
		signingKey: signingKey,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.requestID, s.observe)

	if s.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/ping", s.handlePing).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(s.authenticate)
	protected.HandleFunc("/{collection}", s.handleList).Methods(http.MethodGet)
	protected.HandleFunc("/{collection}", s.handleCreate).Methods(http.MethodPost)
	protected.HandleFunc("/{collection}", s.handleUpdate).Methods(http.MethodPut)
	protected.HandleFunc("/{collection}/{id}", s.handleDelete).Methods(http.MethodDelete)

	return router
}

func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting REST server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
