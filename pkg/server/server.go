// Package server exposes upload sessions over a JSON HTTP API.
package server

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"orgmap/pkg/config"
	"orgmap/pkg/metrics"
	"orgmap/pkg/session"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// Options wires a Server.
type Options struct {
	Sessions *session.Manager
	Config   config.ServerConfig
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// Server serves the orgmap API.
type Server struct {
	sessions *session.Manager
	cfg      config.ServerConfig
	logger   *zap.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Config.MaxUploadBytes <= 0 {
		opts.Config.MaxUploadBytes = config.DefaultConfig().Server.MaxUploadBytes
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Server{
		sessions: opts.Sessions,
		cfg:      opts.Config,
		logger:   opts.Logger.Named("http"),
		metrics:  opts.Metrics,
		validate: v,
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.withRequestLogging)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/uploads").Subrouter()
	api.HandleFunc("", s.createUpload).Methods(http.MethodPost)
	api.HandleFunc("/{id}", s.getUpload).Methods(http.MethodGet)
	api.HandleFunc("/{id}", s.deleteUpload).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/file", s.replaceFile).Methods(http.MethodPost)
	api.HandleFunc("/{id}/mapping", s.putMapping).Methods(http.MethodPut)
	api.HandleFunc("/{id}/suggest", s.suggest).Methods(http.MethodPost)
	api.HandleFunc("/{id}/apply", s.apply).Methods(http.MethodPost)
	api.HandleFunc("/{id}/filters", s.putFilters).Methods(http.MethodPut)
	api.HandleFunc("/{id}/filters", s.resetFilters).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/click", s.click).Methods(http.MethodPost)
	api.HandleFunc("/{id}/hierarchy", s.hierarchy).Methods(http.MethodGet)
	api.HandleFunc("/{id}/export.xlsx", s.export).Methods(http.MethodGet)

	r.NotFoundHandler = s.withRequestLogging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = WriteError(w, http.StatusNotFound, "not_found", "route not found", nil)
	}))
	r.MethodNotAllowedHandler = s.withRequestLogging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	}))
	return r
}

// Handler is the router behind gzip and the CORS policy.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, "Content-Disposition"},
	})
	return c.Handler(gziphandler.GzipHandler(s.Router()))
}

// Run listens on the configured address until ctx is done, then shuts down
// gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		s.logger.Info("server stopped")
		return nil
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	}
}
