// Package claim implements the username claim workflow: optimistic live
// availability checks on the client side and the authoritative, transactional
// create on the server side.
package claim

import (
	"context"
	"errors"
	"strings"

	"github.com/janisto/cv-builder/internal/platform/validate"
	"github.com/janisto/cv-builder/internal/service/profile"
)

// ErrInvalidRequest is returned when the handle or the display name is unusable.
var ErrInvalidRequest = errors.New("invalid claim request")

// Reason is a stable tag describing why a claim failed.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonNotAuthenticated Reason = "not_authenticated"
	ReasonUsernameTaken    Reason = "username_taken"
	ReasonProfileExists    Reason = "profile_exists"
	ReasonInvalid          Reason = "invalid"
	ReasonUnknown          Reason = "unknown"
)

// ReasonOf maps a claim error to its Reason. A nil error yields ReasonNone.
func ReasonOf(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, profile.ErrNotAuthenticated):
		return ReasonNotAuthenticated
	case errors.Is(err, profile.ErrUsernameTaken):
		return ReasonUsernameTaken
	case errors.Is(err, profile.ErrAlreadyExists):
		return ReasonProfileExists
	case errors.Is(err, ErrInvalidRequest):
		return ReasonInvalid
	default:
		return ReasonUnknown
	}
}

// Request carries the handle to claim and the initial display fields.
type Request struct {
	Username string
	profile.Fields
}

// Claimer is the server side of the workflow.
type Claimer struct {
	store profile.Service
}

// NewClaimer creates a Claimer over store.
func NewClaimer(store profile.Service) *Claimer {
	return &Claimer{store: store}
}

// Available reports whether no profile holds username. It never writes.
func (c *Claimer) Available(ctx context.Context, username string) (bool, error) {
	taken, err := c.store.UsernameExists(ctx, username)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// Claim creates the owner's profile under req.Username. Uniqueness is enforced
// by the store's transactional Create; a prior Available result is only a hint.
func (c *Claimer) Claim(ctx context.Context, ownerID string, req Request) (*profile.Profile, error) {
	if ownerID == "" {
		return nil, profile.ErrNotAuthenticated
	}
	if req.Username == "" || strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalidRequest
	}
	if !validate.ValidHandle(req.Username) {
		return nil, errors.Join(ErrInvalidRequest, errors.New("malformed username"))
	}
	return c.store.Create(ctx, ownerID, profile.CreateParams{
		Username: req.Username,
		Fields:   req.Fields,
	})
}
