package proxy

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iptv-italy/iptv-italy/config"
	"github.com/iptv-italy/iptv-italy/logging"
	"github.com/iptv-italy/iptv-italy/registry"
	"github.com/iptv-italy/iptv-italy/resolver"
)

// Server is the redirect/rewrite proxy in front of providers whose stream
// URLs cannot be baked into a static playlist
type Server struct {
	router *mux.Router
	server *http.Server
	logger *logging.Logger
}

// New wires the proxy routes over an immutable registry snapshot
func New(cfg *config.Config, reg *registry.Registry, client *resolver.Client, logger *logging.Logger) *Server {
	h := &handler{
		reg:          reg,
		client:       client,
		skyAPIURL:    cfg.Providers.SkyAPIURL,
		paramountURL: cfg.Providers.ParamountManifestURL,
		logger:       logger,
	}

	router := mux.NewRouter()
	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware(logger))

	router.HandleFunc("/", h.handleResolve).Methods(http.MethodGet)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Printf("Error writing health response: %v", err)
		}
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return &Server{
		router: router,
		server: &http.Server{
			Addr:              cfg.ListenAddr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Handler exposes the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Stop is called or the listener fails
func (s *Server) Start() error {
	s.logger.Info("Starting proxy server", map[string]interface{}{
		"address": s.server.Addr,
	})

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully, force-closing connections that
// outlive the context deadline
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping proxy server", nil)

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("Graceful shutdown timed out, force closing connections", map[string]interface{}{
			"error": err.Error(),
		})
		return s.server.Close()
	}
	return nil
}
