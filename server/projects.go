package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
)

func (s *Server) handleListProjects(c echo.Context) error {
	var f store.ProjectFilter
	if v := c.QueryParam("archived"); v != "" {
		archived, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "archived must be a boolean")
		}
		f.IncludeArchived = archived
	}
	if v := c.QueryParam("status"); v != "" {
		status, err := model.ParseProjectStatus(v)
		if err != nil {
			return badRequest(c, err.Error())
		}
		f.Status = status
	}
	f.Tag = c.QueryParam("tag")

	projects, err := s.store.ListProjects(c.Request().Context(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var p model.Project
	if err := c.Bind(&p); err != nil {
		return badRequest(c, "invalid request")
	}
	created, err := s.store.CreateProject(c.Request().Context(), p)
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleGetProject(c echo.Context) error {
	p, err := s.store.GetProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleUpdateProject(c echo.Context) error {
	var patch model.ProjectPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid request")
	}
	p, err := s.store.UpdateProject(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeleteProject(c echo.Context) error {
	if err := s.store.DeleteProject(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleArchiveProject(c echo.Context) error {
	p, err := s.store.ArchiveProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleUnarchiveProject(c echo.Context) error {
	p, err := s.store.UnarchiveProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleDuplicateProject(c echo.Context) error {
	p, err := s.store.DuplicateProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusCreated, p)
}

type statsResponse struct {
	model.TaskCounts
	Done int `json:"done"`
}

func (s *Server) handleProjectStats(c echo.Context) error {
	counts, err := s.store.ProjectStats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, statsResponse{TaskCounts: counts, Done: counts.Done()})
}
