// Package server exposes the recommendation pipeline over an HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/safe-legs/internal/config"
	"github.com/yourusername/safe-legs/internal/pipeline"
	"github.com/yourusername/safe-legs/internal/service"
)

// Server is the HTTP API server for recommendations.
type Server struct {
	cfg        config.ServerConfig
	engine     *pipeline.Engine
	fetchSvc   *service.FetchService // nil disables POST /fetch
	log        *logrus.Logger
	httpServer *http.Server
}

// NewServer creates the API server.
func NewServer(cfg config.ServerConfig, engine *pipeline.Engine, fetchSvc *service.FetchService, log *logrus.Logger) *Server {
	return &Server{
		cfg:      cfg,
		engine:   engine,
		fetchSvc: fetchSvc,
		log:      log,
	}
}

// Router builds the API router. Exposed for handler tests.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/value-bets", s.handleValueBets).Methods(http.MethodGet)
	api.HandleFunc("/recommended-legs", s.handleRecommendedLegs).Methods(http.MethodGet)
	api.HandleFunc("/suggested-parlay", s.handleSuggestedParlay).Methods(http.MethodGet)
	api.HandleFunc("/pipeline-stats", s.handlePipelineStats).Methods(http.MethodGet)
	api.HandleFunc("/weekly-summary", s.handleWeeklySummary).Methods(http.MethodGet)
	api.HandleFunc("/sports", s.handleSports).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.handleSettings).Methods(http.MethodGet)
	api.HandleFunc("/fetch", s.handleFetch).Methods(http.MethodPost)

	allowedOrigins := s.cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(router)
}

// Start runs the API server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.log.WithField("port", s.cfg.Port).Info("API server starting")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop() {
	if s.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.WithError(err).Error("API server shutdown error")
	}
}
