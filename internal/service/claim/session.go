package claim

import (
	"context"
	"sync"
)

// Checker answers availability queries, typically over the network.
type Checker interface {
	Availability(ctx context.Context, username string) (bool, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, username string) (bool, error)

func (f CheckerFunc) Availability(ctx context.Context, username string) (bool, error) {
	return f(ctx, username)
}

// Update is emitted on every visible state change.
type Update struct {
	Username string
	State    State
	Err      error
}

// Session drives a Tracker with asynchronous checks. Each check runs in its
// own goroutine; replies that arrive after a newer edit are dropped. Updates
// are delivered one at a time in the order the tracker changed.
type Session struct {
	ctx      context.Context
	tracker  *Tracker
	checker  Checker
	onUpdate func(Update)

	mu sync.Mutex
	wg sync.WaitGroup
}

// NewSession creates a session. onUpdate may be nil.
func NewSession(ctx context.Context, checker Checker, onUpdate func(Update)) *Session {
	if onUpdate == nil {
		onUpdate = func(Update) {}
	}
	return &Session{
		ctx:      ctx,
		tracker:  NewTracker(),
		checker:  checker,
		onUpdate: onUpdate,
	}
}

// Tracker exposes the underlying state machine.
func (s *Session) Tracker() *Tracker {
	return s.tracker
}

// Edit records candidate and starts a check when it is long enough.
func (s *Session) Edit(candidate string) {
	s.mu.Lock()
	tk, check := s.tracker.Edit(candidate)
	s.onUpdate(Update{Username: candidate, State: s.tracker.State()})
	s.mu.Unlock()

	if !check {
		return
	}
	s.wg.Go(func() {
		available, err := s.checker.Availability(s.ctx, tk.Username)

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			if s.tracker.Current(tk) {
				s.onUpdate(Update{Username: tk.Username, State: s.tracker.State(), Err: err})
			}
			return
		}
		if s.tracker.Resolve(tk, available) {
			s.onUpdate(Update{Username: tk.Username, State: s.tracker.State()})
		}
	})
}

// Wait blocks until every in-flight check has returned.
func (s *Session) Wait() {
	s.wg.Wait()
}
