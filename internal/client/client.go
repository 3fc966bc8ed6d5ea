// Package client is a typed HTTP client for the v1 API. Requests are sent as
// JSON and responses are negotiated as CBOR.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	profileapi "github.com/janisto/cv-builder/internal/http/v1/profile"
	"github.com/janisto/cv-builder/internal/http/v1/usernames"
	"github.com/janisto/cv-builder/internal/platform/respond"
	"github.com/janisto/cv-builder/internal/service/claim"
	profilesvc "github.com/janisto/cv-builder/internal/service/profile"
)

const maxBody = 1 << 20

// Client calls the v1 API rooted at BaseURL.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the Firebase ID token sent as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client. baseURL is the API root, e.g. https://cv.example.com/v1.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Error is a non-2xx response decoded as problem details.
type Error struct {
	Problem respond.ProblemDetails
}

func (e *Error) Error() string {
	return "api: " + e.Problem.Error()
}

// Unwrap maps well-known problems onto service sentinels so callers can use
// errors.Is and claim.ReasonOf.
func (e *Error) Unwrap() error {
	switch {
	case e.Problem.Status == http.StatusUnauthorized:
		return profilesvc.ErrNotAuthenticated
	case e.Problem.Type == "urn:problem-type:username-taken":
		return profilesvc.ErrUsernameTaken
	case e.Problem.Type == "urn:problem-type:profile-exists":
		return profilesvc.ErrAlreadyExists
	case e.Problem.Status == http.StatusNotFound:
		return profilesvc.ErrNotFound
	case e.Problem.Status == http.StatusUnprocessableEntity:
		return claim.ErrInvalidRequest
	}
	return nil
}

// Availability reports whether username is free to claim.
func (c *Client) Availability(ctx context.Context, username string) (bool, error) {
	var out usernames.Availability
	path := "/usernames/" + url.PathEscape(username) + "/availability"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return false, err
	}
	return out.Available, nil
}

// CreateProfile claims in.Username for the token's owner.
func (c *Client) CreateProfile(ctx context.Context, in profileapi.ClaimInput) (*profileapi.Profile, error) {
	var out profileapi.Profile
	if err := c.do(ctx, http.MethodPost, "/profile", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/cbor")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{}
		if decodeErr := decode(ct, data, &apiErr.Problem); decodeErr != nil || apiErr.Problem.Status == 0 {
			apiErr.Problem = *respond.NewError(resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := decode(ct, data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decode(contentType string, data []byte, out any) error {
	if len(data) == 0 {
		return errors.New("empty body")
	}
	if strings.Contains(contentType, "cbor") {
		return cbor.Unmarshal(data, out)
	}
	return json.Unmarshal(data, out)
}

var _ claim.Checker = (*Client)(nil)
