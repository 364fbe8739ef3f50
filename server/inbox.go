package server

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/existflow/ironvault/internal/ingest"
	"github.com/existflow/ironvault/internal/oracle"
)

// maxPayload bounds inbound bodies
const maxPayload = 8 << 20

func readBody(c echo.Context) ([]byte, error) {
	return io.ReadAll(io.LimitReader(c.Request().Body, maxPayload))
}

// handleInboxCommit queues a commit and drains it right away
func (s *Server) handleInboxCommit(c echo.Context) error {
	var commit ingest.Commit
	if err := c.Bind(&commit); err != nil {
		return badRequest(c, "invalid request")
	}
	ctx := c.Request().Context()
	if err := ingest.EnqueueCommit(ctx, s.store.Storage(), commit); err != nil {
		return fail(c, err)
	}
	res, err := s.commits.Drain(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusAccepted, res)
}

// handleInboxDecks accepts one deck or an array of decks
func (s *Server) handleInboxDecks(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return badRequest(c, "invalid request")
	}
	decks, err := ingest.ParseDecks(body)
	if err != nil {
		return badRequest(c, "invalid deck payload: "+err.Error())
	}

	ctx := c.Request().Context()
	if err := ingest.EnqueueDecks(ctx, s.store.Storage(), decks...); err != nil {
		return fail(c, err)
	}
	res, err := s.decks.Drain(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusAccepted, res)
}

func (s *Server) handleOracleEvent(c echo.Context) error {
	var e oracle.Event
	if err := c.Bind(&e); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := s.oracle.Handle(c.Request().Context(), e); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "applied", "session": s.oracle.ActiveSession()})
}
