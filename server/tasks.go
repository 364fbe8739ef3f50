package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
)

func (s *Server) handleListTasks(c echo.Context) error {
	f := store.TaskFilter{ProjectID: c.QueryParam("project")}
	if v := c.QueryParam("status"); v != "" {
		status, err := model.ParseTaskStatus(v)
		if err != nil {
			return badRequest(c, err.Error())
		}
		f.Status = status
	}
	tasks, err := s.store.ListTasks(c.Request().Context(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(c echo.Context) error {
	var t model.Task
	if err := c.Bind(&t); err != nil {
		return badRequest(c, "invalid request")
	}
	created, err := s.store.CreateTask(c.Request().Context(), t)
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleGetTask(c echo.Context) error {
	t, err := s.store.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	var patch model.TaskPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid request")
	}
	t, err := s.store.UpdateTask(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusOK, t)
}

type moveRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleMoveTask(c echo.Context) error {
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	status, err := model.ParseTaskStatus(req.Status)
	if err != nil {
		return badRequest(c, err.Error())
	}
	t, err := s.store.MoveTask(c.Request().Context(), c.Param("id"), status)
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	if err := s.store.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.NoContent(http.StatusNoContent)
}
