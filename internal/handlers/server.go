package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"hyperwatch/internal/clients/embed"
	"hyperwatch/internal/config"
	"hyperwatch/internal/core"
	"hyperwatch/internal/utils"
	"hyperwatch/web"

	"github.com/gorilla/mux"
)

type Server struct {
	config      *config.Config
	manager     *core.Manager
	logger      *utils.Logger
	policy      *embed.NavigationPolicy
	httpServer  *http.Server
	apiHandler  *APIHandler
	pageHandler *PageHandler
	liveHandler *LiveHandler
}

func NewServer(cfg *config.Config, manager *core.Manager, templates *web.Templates, policy *embed.NavigationPolicy, logger *utils.Logger) *Server {
	return &Server{
		config:      cfg,
		manager:     manager,
		logger:      logger,
		policy:      policy,
		apiHandler:  NewAPIHandler(manager, logger),
		pageHandler: NewPageHandler(cfg, manager, templates, policy, logger),
		liveHandler: NewLiveHandler(manager, logger),
	}
}

// Router builds the full handler tree.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(s.logMiddleware, s.policyMiddleware)

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/suggest", s.apiHandler.Suggest).Methods("GET")
	api.HandleFunc("/search", s.apiHandler.Search).Methods("GET")
	api.HandleFunc("/title/{id}", s.apiHandler.GetTitle).Methods("GET")
	api.HandleFunc("/title/{id}/season/{season:[0-9]+}", s.apiHandler.GetSeason).Methods("GET")
	api.HandleFunc("/player", s.apiHandler.GetPlayer).Methods("GET")
	api.HandleFunc("/status", s.apiHandler.GetSystemStatus).Methods("GET")

	router.Handle("/health", HealthHandler()).Methods("GET")

	// Live channels
	router.HandleFunc("/ws/suggest", s.liveHandler.Suggest)
	router.HandleFunc("/ws/watch", s.liveHandler.Watch)

	// Pages
	router.HandleFunc("/", s.pageHandler.Home).Methods("GET")
	router.HandleFunc("/results", s.pageHandler.Results).Methods("GET")
	router.HandleFunc("/watch", s.pageHandler.Watch).Methods("GET")
	router.PathPrefix("/static/").Handler(http.FileServer(http.FS(web.Files)))

	return router
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.App.Port),
		Handler:           s.Router(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("Starting server on port", s.config.App.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
