package auth

import "context"

// MockVerifier is a Verifier for tests. It returns Error when set, otherwise User.
type MockVerifier struct {
	User  *FirebaseUser
	Error error
}

// Verify implements Verifier.
func (m *MockVerifier) Verify(_ context.Context, _ string) (*FirebaseUser, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	return m.User, nil
}

// TestUser returns a deterministic user for handler tests.
func TestUser() *FirebaseUser {
	return &FirebaseUser{
		UID:           "test-user-123",
		Email:         "test@example.com",
		EmailVerified: true,
	}
}

var _ Verifier = (*MockVerifier)(nil)
