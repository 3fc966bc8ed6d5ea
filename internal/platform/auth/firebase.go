package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

// Sentinel errors returned by Verifier implementations.
var (
	ErrNoToken          = errors.New("no token provided")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenRevoked     = errors.New("token revoked")
	ErrUserDisabled     = errors.New("user disabled")
	ErrCertificateFetch = errors.New("certificate fetch failed")
)

// FirebaseUser is the authenticated principal extracted from a verified ID token.
type FirebaseUser struct {
	UID           string
	Email         string
	EmailVerified bool
}

// Verifier verifies bearer tokens.
type Verifier interface {
	Verify(ctx context.Context, token string) (*FirebaseUser, error)
}

// FirebaseVerifier verifies Firebase ID tokens and checks revocation.
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier creates a verifier backed by the Firebase Auth client.
func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

// Verify validates the ID token and returns the user it identifies.
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*FirebaseUser, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	t, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		return nil, mapFirebaseError(err)
	}

	user := &FirebaseUser{UID: t.UID}
	if email, ok := t.Claims["email"].(string); ok {
		user.Email = email
	}
	if verified, ok := t.Claims["email_verified"].(bool); ok {
		user.EmailVerified = verified
	}
	return user, nil
}

func mapFirebaseError(err error) error {
	switch {
	case fbauth.IsIDTokenExpired(err):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case fbauth.IsIDTokenRevoked(err):
		return fmt.Errorf("%w: %w", ErrTokenRevoked, err)
	case fbauth.IsUserDisabled(err):
		return fmt.Errorf("%w: %w", ErrUserDisabled, err)
	case fbauth.IsCertificateFetchFailed(err):
		return fmt.Errorf("%w: %w", ErrCertificateFetch, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
}

// ExtractBearerToken returns the token from an Authorization header value.
// The scheme comparison is case-insensitive.
func ExtractBearerToken(header string) (string, error) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrNoToken
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}
