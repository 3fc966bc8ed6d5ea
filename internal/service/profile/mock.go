package profile

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore implements Service with in-memory storage. It backs tests and the
// "memory" store backend.
type MockStore struct {
	mu         sync.RWMutex
	profiles   map[string]*Profile // by owner
	byUsername map[string]string   // username -> owner
}

// NewMockStore creates a new in-memory profile store.
func NewMockStore() *MockStore {
	return &MockStore{
		profiles:   make(map[string]*Profile),
		byUsername: make(map[string]string),
	}
}

func (m *MockStore) Create(_ context.Context, ownerID string, params CreateParams) (*Profile, error) {
	if ownerID == "" {
		return nil, ErrNotAuthenticated
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byUsername[params.Username]; taken {
		return nil, ErrUsernameTaken
	}
	if _, exists := m.profiles[ownerID]; exists {
		return nil, ErrAlreadyExists
	}

	p := newProfile(uuid.NewString(), ownerID, params, time.Now().UTC())
	m.profiles[ownerID] = p
	m.byUsername[params.Username] = ownerID

	return p.Clone(), nil
}

func (m *MockStore) Get(_ context.Context, ownerID string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[ownerID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *MockStore) GetByUsername(_ context.Context, username string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	owner, ok := m.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	p := m.profiles[owner]
	if !p.IsPublic {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *MockStore) UsernameExists(_ context.Context, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.byUsername[username]
	return ok, nil
}

func (m *MockStore) Replace(_ context.Context, ownerID string, params ReplaceParams) (*Profile, error) {
	if err := params.Check(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[ownerID]
	if !ok {
		return nil, ErrNotFound
	}
	p.applyReplace(params, time.Now().UTC())

	return p.Clone(), nil
}

func (m *MockStore) ListPublic(_ context.Context) ([]*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		if p.IsPublic {
			out = append(out, p.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *Profile) int {
		return strings.Compare(a.Username, b.Username)
	})
	return out, nil
}

var _ Service = (*MockStore)(nil)
