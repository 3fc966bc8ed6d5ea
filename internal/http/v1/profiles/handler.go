package profiles

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/labstack/echo/v5"

	applog "github.com/janisto/cv-builder/internal/platform/logging"
	"github.com/janisto/cv-builder/internal/platform/pagination"
	"github.com/janisto/cv-builder/internal/platform/respond"
	"github.com/janisto/cv-builder/internal/platform/timeutil"
	"github.com/janisto/cv-builder/internal/service/layout"
	profilesvc "github.com/janisto/cv-builder/internal/service/profile"
)

const cursorType = "profile"

// Register wires public profile routes into the provided group.
func Register(g *echo.Group, svc profilesvc.Service) {
	g.GET("/profiles", listHandler(svc))
	g.GET("/profiles/:username", getHandler(svc))
}

// listHandler godoc
//
//	@Summary		List public profiles
//	@Description	Returns a paginated directory of published profiles ordered by username
//	@Tags			profiles
//	@Produce		json,application/cbor
//	@Param			cursor	query		string	false	"Pagination cursor"
//	@Param			limit	query		int		false	"Profiles per page"	minimum(1)	maximum(100)
//	@Success		200		{object}	ListData
//	@Failure		400		{object}	respond.ProblemDetails
//	@Failure		422		{object}	respond.ProblemDetails
//	@Failure		500		{object}	respond.ProblemDetails
//	@Header			200		{string}	Link	"RFC 8288 pagination links"
//	@Router			/profiles [get]
func listHandler(svc profilesvc.Service) echo.HandlerFunc {
	return func(c *echo.Context) error {
		var input ListInput
		if err := c.Bind(&input); err != nil {
			return err
		}
		if err := c.Validate(&input); err != nil {
			return err
		}

		cursor, err := pagination.DecodeCursor(input.Cursor)
		if err != nil {
			return respond.Error400("invalid cursor format")
		}
		if cursor.Type != "" && cursor.Type != cursorType {
			return respond.Error400("cursor type mismatch")
		}

		ctx := c.Request().Context()
		list, err := svc.ListPublic(ctx)
		if err != nil {
			applog.LogError(ctx, "list public profiles failed", err)
			return respond.Error500("internal error")
		}

		summaries := make([]Summary, len(list))
		for i, p := range list {
			summaries[i] = toSummary(p)
		}

		if cursor.Value != "" && !slices.ContainsFunc(summaries, func(s Summary) bool {
			return s.Username == cursor.Value
		}) {
			return respond.Error400("cursor references unknown profile")
		}

		query := url.Values{}
		if input.Limit > 0 {
			query.Set("limit", strconv.Itoa(input.Limit))
		}

		result := pagination.Paginate(
			summaries,
			cursor,
			pagination.Params{Limit: input.Limit}.DefaultLimit(),
			cursorType,
			func(s Summary) string { return s.Username },
			"/v1/profiles",
			query,
		)

		if result.LinkHeader != "" {
			c.Response().Header().Set("Link", result.LinkHeader)
		}
		return respond.Negotiate(c, http.StatusOK, ListData{
			Items: result.Items,
			Total: result.Total,
		})
	}
}

// getHandler godoc
//
//	@Summary		Get public profile
//	@Description	Returns a published profile and its visible layout blocks. Private and unknown handles are indistinguishable.
//	@Tags			profiles
//	@Produce		json,application/cbor
//	@Param			username	path		string	true	"Profile handle"
//	@Success		200			{object}	PublicProfile
//	@Failure		404			{object}	respond.ProblemDetails
//	@Failure		422			{object}	respond.ProblemDetails
//	@Failure		500			{object}	respond.ProblemDetails
//	@Router			/profiles/{username} [get]
func getHandler(svc profilesvc.Service) echo.HandlerFunc {
	return func(c *echo.Context) error {
		var input GetInput
		if err := c.Bind(&input); err != nil {
			return err
		}
		if err := c.Validate(&input); err != nil {
			return err
		}

		ctx := c.Request().Context()
		p, err := svc.GetByUsername(ctx, input.Username)
		if errors.Is(err, profilesvc.ErrNotFound) {
			return respond.Error404("profile not found")
		}
		if err != nil {
			applog.LogError(ctx, "get public profile failed", err,
				slog.String("username", input.Username))
			return respond.Error500("internal error")
		}

		return respond.Negotiate(c, http.StatusOK, PublicProfile{
			Username:  p.Username,
			Name:      p.Name,
			Blocks:    layout.Visible(layout.Compose(*p, p.SectionsOrder)),
			UpdatedAt: timeutil.NewTime(p.UpdatedAt),
		})
	}
}

func toSummary(p *profilesvc.Profile) Summary {
	return Summary{
		Username: p.Username,
		Name:     p.Name,
		Title:    p.Title,
		Location: p.Location,
		URL:      "/@" + p.Username,
	}
}
