package middleware

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
)

// Logging writes one line per request with the outcome and the request id
// assigned by RequestID.
func Logging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			log.Printf("http %s %s status=%d size=%d latency=%s request_id=%s",
				c.Request().Method, c.Request().URL.Path, c.Response().Status, c.Response().Size, latency, RequestIDFromContext(c))

			return err
		}
	}
}
