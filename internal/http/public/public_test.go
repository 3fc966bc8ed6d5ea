package public

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"

	profilesvc "github.com/janisto/cv-builder/internal/service/profile"
)

type errService struct {
	profilesvc.Service
	err error
}

func (s *errService) GetByUsername(context.Context, string) (*profilesvc.Profile, error) {
	return nil, s.err
}

func setupEcho(svc profilesvc.Service) *echo.Echo {
	e := echo.New()
	e.Pre(Rewrite())
	Register(e, svc, "https://cv.example.com/")
	return e
}

func seed(t *testing.T, params profilesvc.ReplaceParams) profilesvc.Service {
	t.Helper()
	ctx := context.Background()
	svc := profilesvc.NewMockStore()
	if _, err := svc.Create(ctx, "owner-1", profilesvc.CreateParams{
		Username: "alex",
		Fields:   params.Fields,
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Replace(ctx, "owner-1", params); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	return svc
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func fullProfile() profilesvc.ReplaceParams {
	return profilesvc.ReplaceParams{
		Fields: profilesvc.Fields{
			Name:     "Alex Doe",
			Title:    "Engineer",
			Location: "Helsinki",
			Email:    "alex@example.com",
			Website:  "alex.dev",
			GitHub:   "alexd",
		},
		Experience: []profilesvc.Experience{
			{ID: "e1", Role: "Engineer", Company: "Acme", StartDate: "2020-01", Current: true},
		},
		Skills:   []string{"Go", "SQL"},
		IsPublic: true,
	}
}

var jsonLDRe = regexp.MustCompile(`(?s)<script type="application/ld\+json">(.*?)</script>`)

func TestProfilePage_Renders(t *testing.T) {
	e := setupEcho(seed(t, fullProfile()))

	rec := get(e, "/@alex")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected text/html, got %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != CacheControl {
		t.Fatalf("expected %q, got %q", CacheControl, cc)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"<title>Alex Doe - CV</title>",
		`content="Alex Doe&#39;s professional CV and portfolio"`,
		`<link rel="canonical" href="https://cv.example.com/@alex">`,
		`<meta property="profile:first_name" content="Alex">`,
		`<meta property="profile:last_name" content="Doe">`,
		`content="CV, resume, Alex Doe, Go, SQL"`,
		`href="https://alex.dev"`,
		"GitHub: alexd",
		"Jan 2020 - Present",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}

	// header, contact, experience and skills are visible: three separators.
	if n := strings.Count(body, "<hr>"); n != 3 {
		t.Fatalf("expected 3 separators, got %d", n)
	}
	if strings.Index(body, "<h2>Contact</h2>") > strings.Index(body, "<h2>Experience</h2>") {
		t.Fatal("expected default section order")
	}
	if strings.Contains(body, "<h2>Education</h2>") {
		t.Fatal("empty education must not render")
	}
}

func TestProfilePage_JSONLD(t *testing.T) {
	e := setupEcho(seed(t, fullProfile()))

	m := jsonLDRe.FindStringSubmatch(get(e, "/@alex").Body.String())
	if m == nil {
		t.Fatal("expected JSON-LD block")
	}

	var ld map[string]any
	if err := json.Unmarshal([]byte(m[1]), &ld); err != nil {
		t.Fatalf("invalid JSON-LD: %v; raw: %s", err, m[1])
	}
	if ld["@type"] != "Person" || ld["name"] != "Alex Doe" || ld["url"] != "https://cv.example.com/@alex" {
		t.Fatalf("unexpected JSON-LD: %v", ld)
	}
	sameAs, _ := ld["sameAs"].([]any)
	if len(sameAs) != 2 || sameAs[1] != "https://github.com/alexd" {
		t.Fatalf("unexpected sameAs: %v", ld["sameAs"])
	}
}

func TestProfilePage_EscapesUserContent(t *testing.T) {
	params := fullProfile()
	params.Name = `<script>alert("x")</script>`
	params.Bio = `</script><img src=x onerror=alert(1)>`
	params.Website = "javascript:alert(1)"
	e := setupEcho(seed(t, params))

	body := get(e, "/@alex").Body.String()
	if strings.Contains(body, "<script>alert") || strings.Contains(body, "<img src=x") {
		t.Fatal("user content rendered unescaped")
	}
	if strings.Contains(body, `href="javascript:`) {
		t.Fatal("unsafe URL rendered")
	}

	m := jsonLDRe.FindStringSubmatch(body)
	if m == nil {
		t.Fatal("JSON-LD block was terminated early")
	}
	var ld map[string]any
	if err := json.Unmarshal([]byte(m[1]), &ld); err != nil {
		t.Fatalf("invalid JSON-LD: %v", err)
	}
	if ld["description"] != params.Bio {
		t.Fatalf("bio did not round-trip: %v", ld["description"])
	}
}

func TestProfilePage_CustomOrder(t *testing.T) {
	params := fullProfile()
	params.SectionsOrder = []string{"skills", "header"}
	e := setupEcho(seed(t, params))

	body := get(e, "/u/alex").Body.String()
	if strings.Index(body, "<h2>Skills</h2>") > strings.Index(body, "<h1>") {
		t.Fatal("expected skills before header")
	}
	if strings.Contains(body, "<h2>Contact</h2>") {
		t.Fatal("sections outside the order must not render")
	}
	if n := strings.Count(body, "<hr>"); n != 1 {
		t.Fatalf("expected 1 separator, got %d", n)
	}
}

func TestProfilePage_NotFound(t *testing.T) {
	private := fullProfile()
	private.IsPublic = false
	e := setupEcho(seed(t, private))

	for _, path := range []string{"/@alex", "/@nobody", "/@%3Cb%3E"} {
		rec := get(e, path)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rec.Code)
		}
		if cc := rec.Header().Get("Cache-Control"); cc != CacheControl {
			t.Fatalf("%s: expected cache header on 404, got %q", path, cc)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "Profile Not Found") {
			t.Fatalf("%s: expected not found page", path)
		}
		if strings.Contains(body, "<b>") {
			t.Fatalf("%s: handle echoed unescaped", path)
		}
	}
}

func TestProfilePage_StoreError(t *testing.T) {
	e := setupEcho(&errService{Service: profilesvc.NewMockStore(), err: errors.New("down")})

	rec := get(e, "/@alex")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Something went wrong") {
		t.Fatal("expected error page")
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "" {
		t.Fatalf("expected no cache header, got %q", cc)
	}
}

func TestRewrite(t *testing.T) {
	e := echo.New()
	e.Pre(Rewrite())
	e.GET("/u/:username", func(c *echo.Context) error {
		return c.String(http.StatusOK, c.Param("username"))
	})
	e.GET("/other", func(c *echo.Context) error {
		return c.String(http.StatusOK, "other")
	})

	if rec := get(e, "/@alex"); rec.Body.String() != "alex" {
		t.Fatalf("expected rewrite to /u/alex, got %q", rec.Body.String())
	}
	if rec := get(e, "/other"); rec.Body.String() != "other" {
		t.Fatalf("unrelated path changed: %q", rec.Body.String())
	}
}
