package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
)

func queryBool(c echo.Context, name string) (bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

func (s *Server) handleListNotes(c echo.Context) error {
	f := store.NoteFilter{ProjectID: c.QueryParam("project"), TaskID: c.QueryParam("task")}
	var err error
	if f.PinnedOnly, err = queryBool(c, "pinned"); err != nil {
		return badRequest(c, "pinned must be a boolean")
	}
	if f.IncludeTaskNotes, err = queryBool(c, "all"); err != nil {
		return badRequest(c, "all must be a boolean")
	}
	notes, err := s.store.ListNotes(c.Request().Context(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, notes)
}

func (s *Server) handleCreateNote(c echo.Context) error {
	var n model.Note
	if err := c.Bind(&n); err != nil {
		return badRequest(c, "invalid request")
	}
	created, err := s.store.CreateNote(c.Request().Context(), n)
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleGetNote(c echo.Context) error {
	n, err := s.store.GetNote(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

func (s *Server) handleUpdateNote(c echo.Context) error {
	var patch model.NotePatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid request")
	}
	n, err := s.store.UpdateNote(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusOK, n)
}

func (s *Server) handleDeleteNote(c echo.Context) error {
	if err := s.store.DeleteNote(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListArtifacts(c echo.Context) error {
	f := store.ArtifactFilter{ProjectID: c.QueryParam("project"), Type: model.ArtifactType(c.QueryParam("type"))}
	artifacts, err := s.store.ListArtifacts(c.Request().Context(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, artifacts)
}

func (s *Server) handleCreateArtifact(c echo.Context) error {
	var a model.Artifact
	if err := c.Bind(&a); err != nil {
		return badRequest(c, "invalid request")
	}
	created, err := s.store.CreateArtifact(c.Request().Context(), a)
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleGetArtifact(c echo.Context) error {
	a, err := s.store.GetArtifact(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (s *Server) handleUpdateArtifact(c echo.Context) error {
	var patch model.ArtifactPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid request")
	}
	a, err := s.store.UpdateArtifact(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusOK, a)
}

func (s *Server) handleDeleteArtifact(c echo.Context) error {
	if err := s.store.DeleteArtifact(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.NoContent(http.StatusNoContent)
}
