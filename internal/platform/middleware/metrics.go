package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/patientcare/patientcare/internal/platform/metrics"
)

// Metrics records request counts and latency by route template, so
// /patient-records/:patientId is one series regardless of the id.
func Metrics(m *metrics.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(route, c.Request().Method, strconv.Itoa(status), time.Since(start).Seconds())
			return err
		}
	}
}
