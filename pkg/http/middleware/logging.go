package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "BoundaryLab/pkg/logger"
)

// RequestLogging logs every request at debug level and slow ones as warnings.
func RequestLogging(l *applogger.Logger, slowThreshold time.Duration) echo.MiddlewareFunc {
	if l == nil {
		l = applogger.Nop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)

			latency := time.Since(start)
			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("route", routeLabel(c)),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", c.Response().Status),
				applogger.Duration("latency", latency),
			}
			if err != nil {
				fields = append(fields, applogger.Error(err))
			}
			if slowThreshold > 0 && latency >= slowThreshold {
				l.Warn("http request slow", fields...)
				return err
			}
			l.Debug("http request", fields...)
			return err
		}
	}
}
