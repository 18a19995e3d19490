package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/todo-api/internal/apierr"
)

// maxCapturedBody bounds how much of a request body is buffered for error
// logging. Anything larger is skipped rather than truncated mid-JSON.
const maxCapturedBody = 64 << 10

// CaptureBody buffers the request body, stores a sanitized rendering in the
// context for the error handler, and hands the body back to the request
// untouched. Sensitive fields are masked before anything is retained.
func CaptureBody(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		if req.Body == nil || req.ContentLength == 0 || req.ContentLength > maxCapturedBody {
			return next(c)
		}
		raw, err := io.ReadAll(io.LimitReader(req.Body, maxCapturedBody))
		if err != nil {
			return next(c)
		}
		req.Body = io.NopCloser(bytes.NewReader(raw))
		c.Set("sanitized_body", apierr.SanitizeBody(raw))
		return next(c)
	}
}

// RequestLogger writes one structured line per request: method, path,
// status, latency and the resolved user when there is one.
func RequestLogger(logger *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			user, _ := c.Get(ctxUserEmailKey).(string)
			logger.Infow("request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"latency", time.Since(start).String(),
				"user", user,
			)
			return nil
		}
	}
}
