package usernames

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v5"

	applog "github.com/janisto/cv-builder/internal/platform/logging"
	"github.com/janisto/cv-builder/internal/platform/respond"
	"github.com/janisto/cv-builder/internal/service/claim"
	profilesvc "github.com/janisto/cv-builder/internal/service/profile"
)

// Register wires username routes into the provided group. Extra middleware,
// typically a rate limiter, applies to the availability route only.
func Register(g *echo.Group, svc profilesvc.Service, mw ...echo.MiddlewareFunc) {
	g.GET("/usernames/:username/availability", availabilityHandler(claim.NewClaimer(svc)), mw...)
}

// availabilityHandler godoc
//
//	@Summary		Check username availability
//	@Description	Reports whether a handle is free to claim. The answer is a hint; the claim itself is authoritative.
//	@Tags			usernames
//	@Produce		json,application/cbor
//	@Param			username	path		string	true	"Handle to check"
//	@Success		200			{object}	Availability
//	@Failure		422			{object}	respond.ProblemDetails
//	@Failure		429			{object}	respond.ProblemDetails
//	@Failure		500			{object}	respond.ProblemDetails
//	@Header			429			{string}	Retry-After	"Seconds until the window resets"
//	@Router			/usernames/{username}/availability [get]
func availabilityHandler(claimer *claim.Claimer) echo.HandlerFunc {
	return func(c *echo.Context) error {
		var input AvailabilityInput
		if err := c.Bind(&input); err != nil {
			return err
		}
		if err := c.Validate(&input); err != nil {
			return err
		}

		ctx := c.Request().Context()
		available, err := claimer.Available(ctx, input.Username)
		if err != nil {
			applog.LogError(ctx, "availability check failed", err,
				slog.String("username", input.Username))
			return respond.Error500("internal error")
		}

		return respond.Negotiate(c, http.StatusOK, Availability{
			Username:  input.Username,
			Available: available,
		})
	}
}
