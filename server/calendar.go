package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
)

func queryTime(c echo.Context, name string) (time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}

func (s *Server) handleListCalendar(c echo.Context) error {
	f := store.CalendarFilter{ProjectID: c.QueryParam("project"), TaskID: c.QueryParam("task")}
	var err error
	if f.From, err = queryTime(c, "from"); err != nil {
		return badRequest(c, "from must be an RFC 3339 time")
	}
	if f.To, err = queryTime(c, "to"); err != nil {
		return badRequest(c, "to must be an RFC 3339 time")
	}
	items, err := s.store.ListCalendarItems(c.Request().Context(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) handleCreateCalendarItem(c echo.Context) error {
	var item model.CalendarItem
	if err := c.Bind(&item); err != nil {
		return badRequest(c, "invalid request")
	}
	created, err := s.store.CreateCalendarItem(c.Request().Context(), item)
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleGetCalendarItem(c echo.Context) error {
	item, err := s.store.GetCalendarItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (s *Server) handleUpdateCalendarItem(c echo.Context) error {
	var patch model.CalendarPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid request")
	}
	item, err := s.store.UpdateCalendarItem(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.JSON(http.StatusOK, item)
}

func (s *Server) handleDeleteCalendarItem(c echo.Context) error {
	if err := s.store.DeleteCalendarItem(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	s.bus.Refresh()
	return c.NoContent(http.StatusNoContent)
}
