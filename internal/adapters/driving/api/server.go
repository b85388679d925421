package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/custodia-labs/docchat/internal/adapters/driven/upload"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// DefaultBodyLimit bounds request bodies, uploads included.
const DefaultBodyLimit = "64M"

// Ports aggregates the driving ports and upload sets the API serves.
type Ports struct {
	// Chat answers questions within a session.
	Chat driving.ChatService

	// Knowledge exposes the indexed files.
	Knowledge driving.KnowledgeService

	// Sessions hands out the ingestion state machine of each session.
	Sessions driving.SessionRegistry

	// Runner drives background ingestion.
	Runner driving.IngestionRunner

	// Uploads holds the files each session has uploaded.
	Uploads *upload.Registry
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}

// Server is the HTTP API.
type Server struct {
	ports   *Ports
	echo    *echo.Echo
	version string

	mu   sync.Mutex
	runs map[string]*run
	wg   sync.WaitGroup
}

// run is one background ingestion run.
type run struct {
	cancel context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by the health endpoint.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates the API and registers its routes.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	if ports.Uploads == nil {
		ports.Uploads = upload.NewRegistry()
	}

	s := &Server{
		ports:   ports,
		echo:    echo.New(),
		version: "dev",
		runs:    make(map[string]*run),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = ErrorHandler
	s.echo.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
	}))
	s.echo.Use(middleware.BodyLimit(DefaultBodyLimit))
	s.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			return !logger.IsVerbose() || strings.HasSuffix(c.Request().URL.Path, "/health")
		},
	}))

	s.registerRoutes()
	return s, nil
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) registerRoutes() {
	api := s.echo.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/sessions", s.handleCreateSession)

	sessions := api.Group("/sessions/:sessionId")
	sessions.POST("/ask", s.handleAsk)
	sessions.GET("/history", s.handleHistory)
	sessions.DELETE("/history", s.handleClearHistory)

	if s.ports.Sessions != nil && s.ports.Runner != nil {
		sessions.GET("/files", s.handleListUploads)
		sessions.POST("/files", s.handleUpload)
		sessions.DELETE("/files/:name", s.handleRemoveUpload)
		sessions.GET("/ingest", s.handleIngestionState)
		sessions.POST("/ingest", s.handleStartIngestion)
		sessions.POST("/ingest/tick", s.handleTickIngestion)
		sessions.POST("/ingest/cancel", s.handleCancelIngestion)
		sessions.POST("/ingest/reset", s.handleResetIngestion)
	}

	if s.ports.Knowledge != nil {
		kb := api.Group("/knowledge")
		kb.GET("/stats", s.handleStats)
		kb.GET("/files", s.handleListFiles)
		kb.GET("/files/:name", s.handleFileInfo)
		kb.DELETE("/files/:name", s.handleRemoveFile)
		kb.GET("/chunks", s.handleInspect)
		kb.DELETE("", s.handleClear)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down and waits for
// background ingestion to stop.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	s.Close()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops every background ingestion run and waits for them.
func (s *Server) Close() {
	s.mu.Lock()
	for id, r := range s.runs {
		r.cancel()
		delete(s.runs, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
