package routes

import (
	"github.com/labstack/echo/v5"

	"github.com/janisto/cv-builder/internal/http/v1/profile"
	"github.com/janisto/cv-builder/internal/http/v1/profiles"
	"github.com/janisto/cv-builder/internal/http/v1/usernames"
	"github.com/janisto/cv-builder/internal/platform/auth"
	profilesvc "github.com/janisto/cv-builder/internal/service/profile"
)

// Register wires all v1 routes into the provided group. availability is
// applied to the username availability route, typically a rate limiter.
func Register(
	v1 *echo.Group,
	verifier auth.Verifier,
	svc profilesvc.Service,
	availability ...echo.MiddlewareFunc,
) {
	usernames.Register(v1, svc, availability...)
	profiles.Register(v1, svc)

	protected := v1.Group("", auth.Middleware(verifier))
	profile.Register(protected, svc)
}
