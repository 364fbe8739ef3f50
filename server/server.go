// Package server exposes the vault over HTTP: CRUD for every entity plus
// the inbox and oracle feeds other tools push into.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/existflow/ironvault/internal/events"
	"github.com/existflow/ironvault/internal/ingest"
	"github.com/existflow/ironvault/internal/logger"
	"github.com/existflow/ironvault/internal/oracle"
	"github.com/existflow/ironvault/internal/store"
)

// Options tune New
type Options struct {
	// Token, when set, is required as a Bearer token on /api/v1
	Token string
	// Bus receives refresh and toast events; one is created when nil
	Bus *events.Bus
}

// Server is the vault HTTP API
type Server struct {
	store   *store.Store
	bus     *events.Bus
	oracle  *oracle.Listener
	commits *ingest.Ingestor
	decks   *ingest.Ingestor
	token   string
	echo    *echo.Echo
}

// New creates a server over st
func New(st *store.Store, opts Options) *Server {
	bus := opts.Bus
	if bus == nil {
		bus = events.New()
	}
	s := &Server{
		store:   st,
		bus:     bus,
		oracle:  oracle.NewListener(st, bus),
		commits: ingest.New(st, bus, ingest.CommitHandler{}),
		decks:   ingest.New(st, bus, ingest.DeckHandler{}),
		token:   opts.Token,
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger)
	e.Use(middleware.CORS())

	// Health check
	e.GET("/health", s.handleHealth)

	api := e.Group("/api/v1")
	if s.token != "" {
		api.Use(s.authMiddleware)
	}

	api.GET("/projects", s.handleListProjects)
	api.POST("/projects", s.handleCreateProject)
	api.GET("/projects/:id", s.handleGetProject)
	api.PATCH("/projects/:id", s.handleUpdateProject)
	api.DELETE("/projects/:id", s.handleDeleteProject)
	api.POST("/projects/:id/archive", s.handleArchiveProject)
	api.POST("/projects/:id/unarchive", s.handleUnarchiveProject)
	api.POST("/projects/:id/duplicate", s.handleDuplicateProject)
	api.GET("/projects/:id/stats", s.handleProjectStats)

	api.GET("/tasks", s.handleListTasks)
	api.POST("/tasks", s.handleCreateTask)
	api.GET("/tasks/:id", s.handleGetTask)
	api.PATCH("/tasks/:id", s.handleUpdateTask)
	api.POST("/tasks/:id/move", s.handleMoveTask)
	api.DELETE("/tasks/:id", s.handleDeleteTask)

	api.GET("/notes", s.handleListNotes)
	api.POST("/notes", s.handleCreateNote)
	api.GET("/notes/:id", s.handleGetNote)
	api.PATCH("/notes/:id", s.handleUpdateNote)
	api.DELETE("/notes/:id", s.handleDeleteNote)

	api.GET("/artifacts", s.handleListArtifacts)
	api.POST("/artifacts", s.handleCreateArtifact)
	api.GET("/artifacts/:id", s.handleGetArtifact)
	api.PATCH("/artifacts/:id", s.handleUpdateArtifact)
	api.DELETE("/artifacts/:id", s.handleDeleteArtifact)

	api.GET("/calendar", s.handleListCalendar)
	api.POST("/calendar", s.handleCreateCalendarItem)
	api.GET("/calendar/:id", s.handleGetCalendarItem)
	api.PATCH("/calendar/:id", s.handleUpdateCalendarItem)
	api.DELETE("/calendar/:id", s.handleDeleteCalendarItem)

	api.GET("/mindmaps", s.handleListMindmaps)
	api.POST("/mindmaps", s.handleCreateMindmap)
	api.GET("/mindmaps/:id", s.handleGetMindmap)
	api.PATCH("/mindmaps/:id", s.handleUpdateMindmap)
	api.DELETE("/mindmaps/:id", s.handleDeleteMindmap)
	api.POST("/mindmaps/:id/reset", s.handleResetMindmap)
	api.POST("/mindmaps/:id/nodes", s.handleAddMindmapNode)
	api.PATCH("/mindmaps/:id/nodes/:node", s.handleRenameMindmapNode)
	api.DELETE("/mindmaps/:id/nodes/:node", s.handleDeleteMindmapNode)

	api.GET("/decks", s.handleListDecks)
	api.GET("/decks/:id", s.handleGetDeck)
	api.DELETE("/decks/:id", s.handleDeleteDeck)

	api.GET("/search", s.handleSearch)

	api.POST("/inbox/commit", s.handleInboxCommit)
	api.POST("/inbox/decks", s.handleInboxDecks)
	api.POST("/oracle/events", s.handleOracleEvent)

	s.echo = e
}

// Ingestors returns the inbox ingestors so callers can run them in the
// background with ingest.Run
func (s *Server) Ingestors() []*ingest.Ingestor {
	return []*ingest.Ingestor{s.commits, s.decks}
}

// Bus returns the event bus the server publishes to
func (s *Server) Bus() *events.Bus {
	return s.bus
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	logger.Info("Vault server listening", logger.F("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Close closes the underlying storage
func (s *Server) Close() error {
	return s.store.Storage().Close()
}

func (s *Server) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if _, err := s.store.Load(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
