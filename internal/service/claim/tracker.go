package claim

import (
	"strings"
	"sync"
	"unicode/utf8"
)

// MinLength is the candidate length at which availability checks start.
const MinLength = 3

// State is the availability status shown for the current candidate.
type State string

const (
	StateIdle      State = "idle"
	StateChecking  State = "checking"
	StateAvailable State = "available"
	StateTaken     State = "taken"
)

// Ticket identifies one issued availability check.
type Ticket struct {
	Seq      uint64
	Username string
}

// Tracker is the client-observed state machine. Each edit supersedes every
// earlier ticket, so only the reply to the latest check is applied.
type Tracker struct {
	mu       sync.Mutex
	username string
	state    State
	seq      uint64
}

// NewTracker returns a Tracker in the idle state.
func NewTracker() *Tracker {
	return &Tracker{state: StateIdle}
}

// Edit records a new candidate. It returns a ticket and true when a check
// should be issued for it.
func (t *Tracker) Edit(candidate string) (Ticket, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	t.username = candidate
	if utf8.RuneCountInString(candidate) < MinLength {
		t.state = StateIdle
		return Ticket{}, false
	}
	t.state = StateChecking
	return Ticket{Seq: t.seq, Username: candidate}, true
}

// Resolve applies a check result. Results for superseded tickets are ignored
// and Resolve reports false.
func (t *Tracker) Resolve(tk Ticket, available bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tk.Seq != t.seq || tk.Username != t.username {
		return false
	}
	if available {
		t.state = StateAvailable
	} else {
		t.state = StateTaken
	}
	return true
}

// Current reports whether tk is still the latest ticket.
func (t *Tracker) Current(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return tk.Seq == t.seq
}

// State returns the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Username returns the current candidate.
func (t *Tracker) Username() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.username
}

// CanSubmit reports whether a claim may be sent: a candidate, a display name
// and a positive availability result for that exact candidate.
func (t *Tracker) CanSubmit(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.username != "" && strings.TrimSpace(name) != "" && t.state == StateAvailable
}
