package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/existflow/ironvault/internal/ingest"
	"github.com/existflow/ironvault/internal/logger"
	"github.com/existflow/ironvault/internal/oracle"
	"github.com/existflow/ironvault/internal/store"
)

// authMiddleware checks the Bearer token against the configured one
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if auth == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authorization required"})
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}
		return next(c)
	}
}

// requestLogger logs every request with its status and duration
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		res := c.Response()
		fields := []logger.Field{
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", time.Since(start).String()),
			logger.F("request_id", res.Header().Get(echo.HeaderXRequestID)),
		}
		if res.Status >= http.StatusInternalServerError {
			logger.Error("HTTP Response", fields...)
		} else {
			logger.Info("HTTP Response", fields...)
		}
		return nil
	}
}

// statusOf maps domain errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrProjectNotFound), errors.Is(err, store.ErrTaskNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrInvalid),
		errors.Is(err, ingest.ErrMalformedPayload),
		errors.Is(err, oracle.ErrUnknownEvent):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrConflict), errors.Is(err, oracle.ErrNoSession):
		return http.StatusConflict
	case errors.Is(err, store.ErrLocked):
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error body
func fail(c echo.Context, err error) error {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", logger.Err(err), logger.F("uri", c.Request().RequestURI))
		msg = "internal error"
	}
	return c.JSON(status, map[string]string{"error": msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}
