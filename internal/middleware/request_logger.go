package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/logger"
)

// RequestLogger writes one API log entry per request with its status and
// latency.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo write the error response so the status is final
				c.Error(err)
			}
			req := c.Request()
			log.LogAPI(req.Method, req.URL.RequestURI(), c.Response().Status, time.Since(start))
			return nil
		}
	}
}
