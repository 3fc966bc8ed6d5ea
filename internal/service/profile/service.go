package profile

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"
)

// Service errors
var (
	ErrNotFound         = errors.New("profile not found")
	ErrAlreadyExists    = errors.New("profile already exists")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrDuplicateEntryID = errors.New("duplicate entry id")
	ErrDuplicateSkill   = errors.New("duplicate skill")
	ErrInvalidProfile   = errors.New("invalid profile")
)

// Experience is one position in a profile's work history.
type Experience struct {
	ID          string `firestore:"id"          json:"id"`
	Role        string `firestore:"role"        json:"role"`
	Company     string `firestore:"company"     json:"company"`
	StartDate   string `firestore:"startDate"   json:"startDate"`
	EndDate     string `firestore:"endDate"     json:"endDate,omitempty"`
	Current     bool   `firestore:"current"     json:"current"`
	Description string `firestore:"description" json:"description,omitempty"`
}

// Education is one entry in a profile's education history.
type Education struct {
	ID          string `firestore:"id"          json:"id"`
	Degree      string `firestore:"degree"      json:"degree"`
	School      string `firestore:"school"      json:"school"`
	StartDate   string `firestore:"startDate"   json:"startDate"`
	EndDate     string `firestore:"endDate"     json:"endDate,omitempty"`
	Current     bool   `firestore:"current"     json:"current"`
	Description string `firestore:"description" json:"description,omitempty"`
}

// Profile represents stored profile data.
type Profile struct {
	ID       string
	OwnerID  string
	Username string

	Name     string
	Title    string
	Location string
	Bio      string

	Email    string
	Website  string
	GitHub   string
	LinkedIn string
	Twitter  string

	Experience    []Experience
	Education     []Education
	Skills        []string
	SectionsOrder []string
	IsPublic      bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Experience = slices.Clone(p.Experience)
	c.Education = slices.Clone(p.Education)
	c.Skills = slices.Clone(p.Skills)
	c.SectionsOrder = slices.Clone(p.SectionsOrder)
	return &c
}

// Fields holds the owner-editable display fields.
type Fields struct {
	Name     string
	Title    string
	Location string
	Bio      string
	Email    string
	Website  string
	GitHub   string
	LinkedIn string
	Twitter  string
}

// CreateParams for claiming a username and creating a profile.
type CreateParams struct {
	Username string
	Fields
}

// ReplaceParams is the full set of mutable fields. Replace overwrites all of them.
type ReplaceParams struct {
	Fields
	Experience    []Experience
	Education     []Education
	Skills        []string
	SectionsOrder []string
	IsPublic      bool
}

// Service defines profile operations.
//
// Implementations must:
//   - compare usernames as exact strings
//   - normalize Email: lowercase and trim whitespace
//   - check username uniqueness and owner uniqueness atomically in Create,
//     reporting ErrUsernameTaken before ErrAlreadyExists
//   - create profiles with empty lists and IsPublic=false
type Service interface {
	Create(ctx context.Context, ownerID string, params CreateParams) (*Profile, error)
	Get(ctx context.Context, ownerID string) (*Profile, error)
	// GetByUsername returns only public profiles; private ones yield ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*Profile, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Replace(ctx context.Context, ownerID string, params ReplaceParams) (*Profile, error)
	// ListPublic returns public profiles ordered by username.
	ListPublic(ctx context.Context) ([]*Profile, error)
}

// Check reports the first invariant violated by params.
func (p ReplaceParams) Check() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.Join(ErrInvalidProfile, errors.New("name is required"))
	}

	seen := make(map[string]struct{}, len(p.Experience))
	for _, e := range p.Experience {
		if _, dup := seen[e.ID]; dup {
			return errors.Join(ErrDuplicateEntryID, errors.New("experience id "+e.ID))
		}
		seen[e.ID] = struct{}{}
	}

	clear(seen)
	for _, e := range p.Education {
		if _, dup := seen[e.ID]; dup {
			return errors.Join(ErrDuplicateEntryID, errors.New("education id "+e.ID))
		}
		seen[e.ID] = struct{}{}
	}

	clear(seen)
	for _, s := range p.Skills {
		if s == "" {
			return errors.Join(ErrInvalidProfile, errors.New("empty skill"))
		}
		if _, dup := seen[s]; dup {
			return errors.Join(ErrDuplicateSkill, errors.New("skill "+s))
		}
		seen[s] = struct{}{}
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// newProfile builds the initial record for a successful claim.
func newProfile(id, ownerID string, params CreateParams, now time.Time) *Profile {
	p := &Profile{
		ID:            id,
		OwnerID:       ownerID,
		Username:      params.Username,
		Experience:    []Experience{},
		Education:     []Education{},
		Skills:        []string{},
		SectionsOrder: nil,
		IsPublic:      false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	p.applyFields(params.Fields)
	return p
}

func (p *Profile) applyFields(f Fields) {
	p.Name = f.Name
	p.Title = f.Title
	p.Location = f.Location
	p.Bio = f.Bio
	p.Email = normalizeEmail(f.Email)
	p.Website = f.Website
	p.GitHub = f.GitHub
	p.LinkedIn = f.LinkedIn
	p.Twitter = f.Twitter
}

// applyReplace overwrites every mutable field of p.
func (p *Profile) applyReplace(params ReplaceParams, now time.Time) {
	p.applyFields(params.Fields)
	p.Experience = nonNil(params.Experience)
	p.Education = nonNil(params.Education)
	p.Skills = nonNil(params.Skills)
	p.SectionsOrder = slices.Clone(params.SectionsOrder)
	p.IsPublic = params.IsPublic
	p.UpdatedAt = now
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}

// categorizeError returns a safe category string for logs and metrics.
func categorizeError(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrUsernameTaken):
		return "username_taken"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicateEntryID), errors.Is(err, ErrDuplicateSkill), errors.Is(err, ErrInvalidProfile):
		return "invalid"
	default:
		return "internal_error"
	}
}
