package ratelimit

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/labstack/echo/v5"

	applog "github.com/janisto/cv-builder/internal/platform/logging"
	"github.com/janisto/cv-builder/internal/platform/metrics"
	"github.com/janisto/cv-builder/internal/platform/respond"
)

// Middleware limits requests per client IP under scope. Limiter failures are
// logged and the request is let through.
func Middleware(l Limiter, scope string, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			ctx := c.Request().Context()
			key := scope + ":" + c.RealIP()

			d, err := l.Allow(ctx, key)
			if err != nil {
				applog.LogWarn(ctx, "rate limiter unavailable",
					slog.String("scope", scope),
					slog.Any("error", err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
			h.Set("RateLimit-Remaining", strconv.FormatInt(max(d.Limit-d.Count, 0), 10))

			if !d.Allowed {
				m.ObserveRateLimited(scope)
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
				return respond.Error429("rate limit exceeded")
			}
			return next(c)
		}
	}
}
