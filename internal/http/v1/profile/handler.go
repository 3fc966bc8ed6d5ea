package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/janisto/cv-builder/internal/platform/auth"
	applog "github.com/janisto/cv-builder/internal/platform/logging"
	"github.com/janisto/cv-builder/internal/platform/respond"
	"github.com/janisto/cv-builder/internal/platform/timeutil"
	"github.com/janisto/cv-builder/internal/service/claim"
	"github.com/janisto/cv-builder/internal/service/layout"
	profilesvc "github.com/janisto/cv-builder/internal/service/profile"
)

// Register wires profile editor routes into the provided group.
// The group is expected to have auth middleware applied.
func Register(g *echo.Group, svc profilesvc.Service) {
	claimer := claim.NewClaimer(svc)

	g.POST("/profile", handleClaimProfile(claimer))
	g.GET("/profile", handleGetProfile(svc))
	g.PUT("/profile", handleReplaceProfile(svc))
	g.POST("/profile/preview", handlePreview)
	g.POST("/profile/reorder", handleReorder)
}

// handleClaimProfile godoc
//
//	@Summary		Claim username
//	@Description	Claims a public username and creates the caller's profile. Uniqueness is checked transactionally.
//	@Tags			profile
//	@Produce		json,application/cbor
//	@Param			body	body		ClaimInput	true	"Username and initial display fields"
//	@Success		201		{object}	Profile
//	@Failure		400		{object}	respond.ProblemDetails
//	@Failure		401		{object}	respond.ProblemDetails
//	@Failure		409		{object}	respond.ProblemDetails	"username taken or profile already exists"
//	@Failure		422		{object}	respond.ProblemDetails
//	@Failure		500		{object}	respond.ProblemDetails
//	@Header			201		{string}	Location	"URI of the created profile"
//	@Security		BearerAuth
//	@Router			/profile [post]
func handleClaimProfile(claimer *claim.Claimer) echo.HandlerFunc {
	return func(c *echo.Context) error {
		var input ClaimInput
		if err := c.Bind(&input); err != nil {
			return err
		}
		if err := c.Validate(&input); err != nil {
			return err
		}

		user, err := auth.UserFromEchoContext(c)
		if err != nil {
			return respond.Error401("unauthorized")
		}

		ctx := c.Request().Context()
		profile, err := claimer.Claim(ctx, user.UID, claim.Request{
			Username: input.Username,
			Fields: profilesvc.Fields{
				Name:     input.Name,
				Title:    input.Title,
				Location: input.Location,
				Bio:      input.Bio,
				Email:    input.Email,
				Website:  input.Website,
				GitHub:   input.GitHub,
				LinkedIn: input.LinkedIn,
				Twitter:  input.Twitter,
			},
		})
		if err != nil {
			return mapServiceError(ctx, err)
		}

		c.Response().Header().Set("Location", "/v1/profile")
		return respond.Negotiate(c, http.StatusCreated, toHTTPProfile(profile))
	}
}

// handleGetProfile godoc
//
//	@Summary		Get profile
//	@Description	Returns the authenticated user's profile
//	@Tags			profile
//	@Produce		json,application/cbor
//	@Success		200	{object}	Profile
//	@Failure		401	{object}	respond.ProblemDetails
//	@Failure		404	{object}	respond.ProblemDetails
//	@Failure		500	{object}	respond.ProblemDetails
//	@Security		BearerAuth
//	@Router			/profile [get]
func handleGetProfile(svc profilesvc.Service) echo.HandlerFunc {
	return func(c *echo.Context) error {
		user, err := auth.UserFromEchoContext(c)
		if err != nil {
			return respond.Error401("unauthorized")
		}

		ctx := c.Request().Context()
		profile, err := svc.Get(ctx, user.UID)
		if err != nil {
			return mapServiceError(ctx, err)
		}

		return respond.Negotiate(c, http.StatusOK, toHTTPProfile(profile))
	}
}

// handleReplaceProfile godoc
//
//	@Summary		Replace profile
//	@Description	Overwrites every mutable field of the authenticated user's profile
//	@Tags			profile
//	@Produce		json,application/cbor
//	@Param			body	body		DraftInput	true	"Complete profile draft"
//	@Success		200		{object}	Profile
//	@Failure		400		{object}	respond.ProblemDetails
//	@Failure		401		{object}	respond.ProblemDetails
//	@Failure		404		{object}	respond.ProblemDetails
//	@Failure		422		{object}	respond.ProblemDetails
//	@Failure		500		{object}	respond.ProblemDetails
//	@Security		BearerAuth
//	@Router			/profile [put]
func handleReplaceProfile(svc profilesvc.Service) echo.HandlerFunc {
	return func(c *echo.Context) error {
		var input DraftInput
		if err := c.Bind(&input); err != nil {
			return err
		}
		if err := c.Validate(&input); err != nil {
			return err
		}

		user, err := auth.UserFromEchoContext(c)
		if err != nil {
			return respond.Error401("unauthorized")
		}

		ctx := c.Request().Context()
		profile, err := svc.Replace(ctx, user.UID, input.replaceParams())
		if err != nil {
			return mapServiceError(ctx, err)
		}

		return respond.Negotiate(c, http.StatusOK, toHTTPProfile(profile))
	}
}

// handlePreview godoc
//
//	@Summary		Preview draft
//	@Description	Composes the section layout of an unsaved draft
//	@Tags			profile
//	@Produce		json,application/cbor
//	@Param			body	body		DraftInput	true	"Profile draft"
//	@Success		200		{object}	PreviewData
//	@Failure		400		{object}	respond.ProblemDetails
//	@Failure		401		{object}	respond.ProblemDetails
//	@Failure		422		{object}	respond.ProblemDetails
//	@Security		BearerAuth
//	@Router			/profile/preview [post]
func handlePreview(c *echo.Context) error {
	var input DraftInput
	if err := c.Bind(&input); err != nil {
		return err
	}
	if err := c.Validate(&input); err != nil {
		return err
	}

	p := input.profile()
	return respond.Negotiate(c, http.StatusOK, PreviewData{
		Order:  layout.EffectiveOrder(p.SectionsOrder),
		Blocks: layout.Compose(p, p.SectionsOrder),
	})
}

// handleReorder godoc
//
//	@Summary		Reorder draft
//	@Description	Applies one drag-and-drop move to a draft. Moves that do not resolve return the draft unchanged.
//	@Tags			profile
//	@Produce		json,application/cbor
//	@Param			body	body		ReorderInput	true	"Draft and move"
//	@Success		200		{object}	ReorderData
//	@Failure		400		{object}	respond.ProblemDetails
//	@Failure		401		{object}	respond.ProblemDetails
//	@Failure		422		{object}	respond.ProblemDetails
//	@Security		BearerAuth
//	@Router			/profile/reorder [post]
func handleReorder(c *echo.Context) error {
	var input ReorderInput
	if err := c.Bind(&input); err != nil {
		return err
	}
	if err := c.Validate(&input); err != nil {
		return err
	}

	moved := layout.ApplyMove(input.Draft.profile(), input.Move.event())
	return respond.Negotiate(c, http.StatusOK, ReorderData{
		Draft:  toDraft(moved),
		Blocks: layout.Compose(moved, moved.SectionsOrder),
	})
}

func mapServiceError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, profilesvc.ErrNotAuthenticated):
		return respond.Error401("unauthorized")
	case errors.Is(err, profilesvc.ErrNotFound):
		return respond.Error404("profile not found")
	case errors.Is(err, profilesvc.ErrUsernameTaken):
		return respond.Conflict("username-taken", "username already taken")
	case errors.Is(err, profilesvc.ErrAlreadyExists):
		return respond.Conflict("profile-exists", "profile already exists")
	case errors.Is(err, claim.ErrInvalidRequest):
		return respond.Error422("username and name are required")
	case errors.Is(err, profilesvc.ErrDuplicateEntryID):
		return respond.Error422("entry ids must be unique within a list")
	case errors.Is(err, profilesvc.ErrDuplicateSkill):
		return respond.Error422("skills must not contain duplicates")
	case errors.Is(err, profilesvc.ErrInvalidProfile):
		return respond.Error422("profile is invalid")
	default:
		applog.LogError(ctx, "unexpected service error", err)
		return respond.Error500("internal error")
	}
}

func (in DraftInput) fields() profilesvc.Fields {
	return profilesvc.Fields{
		Name:     in.Name,
		Title:    in.Title,
		Location: in.Location,
		Bio:      in.Bio,
		Email:    in.Email,
		Website:  in.Website,
		GitHub:   in.GitHub,
		LinkedIn: in.LinkedIn,
		Twitter:  in.Twitter,
	}
}

func (in DraftInput) experience() []profilesvc.Experience {
	out := make([]profilesvc.Experience, len(in.Experience))
	for i, e := range in.Experience {
		out[i] = profilesvc.Experience(e)
	}
	return out
}

func (in DraftInput) education() []profilesvc.Education {
	out := make([]profilesvc.Education, len(in.Education))
	for i, e := range in.Education {
		out[i] = profilesvc.Education(e)
	}
	return out
}

func (in DraftInput) replaceParams() profilesvc.ReplaceParams {
	return profilesvc.ReplaceParams{
		Fields:        in.fields(),
		Experience:    in.experience(),
		Education:     in.education(),
		Skills:        append([]string{}, in.Skills...),
		SectionsOrder: in.SectionsOrder,
		IsPublic:      in.IsPublic,
	}
}

// profile builds an unsaved profile value for composing and reordering.
func (in DraftInput) profile() profilesvc.Profile {
	f := in.fields()
	return profilesvc.Profile{
		Name:          f.Name,
		Title:         f.Title,
		Location:      f.Location,
		Bio:           f.Bio,
		Email:         f.Email,
		Website:       f.Website,
		GitHub:        f.GitHub,
		LinkedIn:      f.LinkedIn,
		Twitter:       f.Twitter,
		Experience:    in.experience(),
		Education:     in.education(),
		Skills:        append([]string{}, in.Skills...),
		SectionsOrder: in.SectionsOrder,
		IsPublic:      in.IsPublic,
	}
}

func toDraft(p profilesvc.Profile) DraftInput {
	d := DraftInput{
		Name:          p.Name,
		Title:         p.Title,
		Location:      p.Location,
		Bio:           p.Bio,
		Email:         p.Email,
		Website:       p.Website,
		GitHub:        p.GitHub,
		LinkedIn:      p.LinkedIn,
		Twitter:       p.Twitter,
		Experience:    make([]ExperienceInput, len(p.Experience)),
		Education:     make([]EducationInput, len(p.Education)),
		Skills:        append([]string{}, p.Skills...),
		SectionsOrder: p.SectionsOrder,
		IsPublic:      p.IsPublic,
	}
	for i, e := range p.Experience {
		d.Experience[i] = ExperienceInput(e)
	}
	for i, e := range p.Education {
		d.Education[i] = EducationInput(e)
	}
	return d
}

func (m MoveInput) event() layout.MoveEvent {
	ev := layout.MoveEvent{
		Active: layout.ItemKey{Kind: layout.Kind(m.Active.Kind), Key: m.Active.Key},
	}
	if m.Over != nil {
		ev.Over = &layout.ItemKey{Kind: layout.Kind(m.Over.Kind), Key: m.Over.Key}
	}
	return ev
}

func toHTTPProfile(p *profilesvc.Profile) Profile {
	out := Profile{
		ID:            p.ID,
		Username:      p.Username,
		Name:          p.Name,
		Title:         p.Title,
		Location:      p.Location,
		Bio:           p.Bio,
		Email:         p.Email,
		Website:       p.Website,
		GitHub:        p.GitHub,
		LinkedIn:      p.LinkedIn,
		Twitter:       p.Twitter,
		Experience:    make([]Experience, len(p.Experience)),
		Education:     make([]Education, len(p.Education)),
		Skills:        append([]string{}, p.Skills...),
		SectionsOrder: layout.EffectiveOrder(p.SectionsOrder),
		IsPublic:      p.IsPublic,
		CreatedAt:     timeutil.Time{Time: p.CreatedAt},
		UpdatedAt:     timeutil.Time{Time: p.UpdatedAt},
	}
	for i, e := range p.Experience {
		out.Experience[i] = Experience(e)
	}
	for i, e := range p.Education {
		out.Education[i] = Education(e)
	}
	return out
}
