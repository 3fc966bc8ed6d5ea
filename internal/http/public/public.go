// Package public serves the server-rendered profile pages at /@{username}.
package public

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v5"

	applog "github.com/janisto/cv-builder/internal/platform/logging"
	"github.com/janisto/cv-builder/internal/platform/validate"
	"github.com/janisto/cv-builder/internal/service/layout"
	profilesvc "github.com/janisto/cv-builder/internal/service/profile"
)

// CacheControl is sent with rendered profiles and not-found pages.
const CacheControl = "public, max-age=300"

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Register wires the public page route. baseURL is the absolute origin used in
// canonical links, without a trailing slash.
func Register(e *echo.Echo, svc profilesvc.Service, baseURL string) {
	h := &handler{svc: svc, baseURL: strings.TrimSuffix(baseURL, "/")}
	e.GET("/u/:username", h.profilePage)
}

// Rewrite maps /@{rest} onto /u/{rest}. It must run as Pre middleware so
// the router sees the rewritten path.
func Rewrite() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			r := c.Request()
			if rest, ok := strings.CutPrefix(r.URL.Path, "/@"); ok {
				r.URL.Path = "/u/" + rest
				r.URL.RawPath = ""
			}
			return next(c)
		}
	}
}

type handler struct {
	svc     profilesvc.Service
	baseURL string
}

func (h *handler) profilePage(c *echo.Context) error {
	username := c.Param("username")
	if u, err := url.PathUnescape(username); err == nil {
		username = u
	}

	ctx := c.Request().Context()
	if !validate.ValidHandle(username) {
		return h.notFound(c, username)
	}

	p, err := h.svc.GetByUsername(ctx, username)
	if errors.Is(err, profilesvc.ErrNotFound) {
		return h.notFound(c, username)
	}
	if err != nil {
		applog.LogError(ctx, "render public profile failed", err,
			slog.String("username", username))
		return render(c, http.StatusInternalServerError, "error", nil)
	}

	view, err := h.newView(p)
	if err != nil {
		applog.LogError(ctx, "build profile view failed", err,
			slog.String("username", username))
		return render(c, http.StatusInternalServerError, "error", nil)
	}

	c.Response().Header().Set("Cache-Control", CacheControl)
	return render(c, http.StatusOK, "profile", view)
}

func (h *handler) notFound(c *echo.Context, username string) error {
	c.Response().Header().Set("Cache-Control", CacheControl)
	return render(c, http.StatusNotFound, "not_found", struct{ Username string }{username})
}

func render(c *echo.Context, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	return c.HTMLBlob(status, buf.Bytes())
}

type view struct {
	Title       string
	Description string
	Keywords    string
	Canonical   string
	Username    string
	FirstName   string
	LastName    string
	JSONLD      template.JS
	Blocks      []layout.Block
}

func (h *handler) newView(p *profilesvc.Profile) (view, error) {
	canonical := h.baseURL + "/@" + p.Username
	description := p.Bio
	if description == "" {
		description = p.Name + "'s professional CV and portfolio"
	}
	first, last, _ := strings.Cut(p.Name, " ")

	ld, err := json.Marshal(newPerson(p, canonical))
	if err != nil {
		return view{}, err
	}

	return view{
		Title:       p.Name + " - CV",
		Description: description,
		Keywords:    strings.Join(append([]string{"CV", "resume", p.Name}, p.Skills...), ", "),
		Canonical:   canonical,
		Username:    p.Username,
		FirstName:   first,
		LastName:    last,
		// json.Marshal escapes <, > and & so the block cannot close the script element.
		JSONLD: template.JS(ld),
		Blocks: layout.Visible(layout.Compose(*p, p.SectionsOrder)),
	}, nil
}

type postalAddress struct {
	Type     string `json:"@type"`
	Locality string `json:"addressLocality"`
}

type person struct {
	Context     string         `json:"@context"`
	Type        string         `json:"@type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url"`
	Email       string         `json:"email,omitempty"`
	JobTitle    string         `json:"jobTitle,omitempty"`
	Address     *postalAddress `json:"address,omitempty"`
	SameAs      []string       `json:"sameAs,omitempty"`
}

func newPerson(p *profilesvc.Profile, canonical string) person {
	out := person{
		Context:     "https://schema.org",
		Type:        "Person",
		Name:        p.Name,
		Description: p.Bio,
		URL:         canonical,
		Email:       p.Email,
		JobTitle:    p.Title,
	}
	if p.Location != "" {
		out.Address = &postalAddress{Type: "PostalAddress", Locality: p.Location}
	}
	for _, link := range layout.ContactLinks(*p) {
		switch link.Kind {
		case "website", "github", "linkedin", "twitter":
			out.SameAs = append(out.SameAs, link.Href)
		}
	}
	return out
}
