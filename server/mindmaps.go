package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
)

func (s *Server) handleListMindmaps(c echo.Context) error {
	maps, err := s.store.ListMindmaps(c.Request().Context(), c.QueryParam("project"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, maps)
}

func (s *Server) handleCreateMindmap(c echo.Context) error {
	var m model.Mindmap
	if err := c.Bind(&m); err != nil {
		return badRequest(c, "invalid request")
	}
	created, err := s.store.CreateMindmap(c.Request().Context(), m)
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleGetMindmap(c echo.Context) error {
	m, err := s.store.GetMindmap(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) handleUpdateMindmap(c echo.Context) error {
	var patch model.MindmapPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid request")
	}
	m, err := s.store.UpdateMindmap(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusOK, m)
}

func (s *Server) handleDeleteMindmap(c echo.Context) error {
	if err := s.store.DeleteMindmap(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleResetMindmap(c echo.Context) error {
	m, err := s.store.ResetMindmap(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusOK, m)
}

type nodeRequest struct {
	ParentID string `json:"parentId"`
	Label    string `json:"label"`
}

type nodeResponse struct {
	Node    model.MindmapNode `json:"node"`
	Mindmap model.Mindmap     `json:"mindmap"`
}

func (s *Server) handleAddMindmapNode(c echo.Context) error {
	var req nodeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	node, m, err := s.store.AddMindmapNode(c.Request().Context(), c.Param("id"), req.ParentID, req.Label)
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusCreated, nodeResponse{Node: node, Mindmap: m})
}

func (s *Server) handleRenameMindmapNode(c echo.Context) error {
	var req nodeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	m, err := s.store.RenameMindmapNode(c.Request().Context(), c.Param("id"), c.Param("node"), req.Label)
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusOK, m)
}

func (s *Server) handleDeleteMindmapNode(c echo.Context) error {
	m, err := s.store.DeleteMindmapNode(c.Request().Context(), c.Param("id"), c.Param("node"))
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusOK, m)
}

func (s *Server) handleListDecks(c echo.Context) error {
	decks, err := s.store.ListDecks(c.Request().Context(), store.DeckFilter{
		ProjectID: c.QueryParam("project"),
		DeckID:    c.QueryParam("deckId"),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, decks)
}

func (s *Server) handleGetDeck(c echo.Context) error {
	d, err := s.store.GetDeck(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (s *Server) handleDeleteDeck(c echo.Context) error {
	if err := s.store.DeleteDeck(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSearch(c echo.Context) error {
	res, err := s.store.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
