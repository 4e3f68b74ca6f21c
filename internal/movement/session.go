package movement

import (
	"context"
	"sync"
	"time"
)

// State is the submission state of a draft.
type State string

const (
	StateIdle                   State = "idle"
	StateValidating             State = "validating"
	StateSubmitting             State = "submitting"
	StateNotifyingAndRefreshing State = "notifying_and_refreshing"
)

// Session owns one draft and its submission state machine. Only one
// submission may be in flight; edits and further submits are rejected with
// ErrSubmissionInFlight until it finishes.
type Session struct {
	id        string
	submitter *Submitter

	now       func() time.Time

	mu         sync.Mutex
	draft      *Draft
	state      State
	lastActive time.Time
}

// NewSession binds a draft to a submitter.
func NewSession(id string, draft *Draft, submitter *Submitter) *Session {
	return newSession(id, draft, submitter, time.Now)
}

func newSession(id string, draft *Draft, submitter *Submitter, now func() time.Time) *Session {
	return &Session{id: id, draft: draft, submitter: submitter, now: now, state: StateIdle, lastActive: now()}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// View returns a copy of the draft and the current state.
func (s *Session) View() (*Draft, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	return s.draft.Clone(), s.state
}

// State returns the current submission state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Edit applies fn to the draft while no submission is running.
func (s *Session) Edit(fn func(d *Draft) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrSubmissionInFlight
	}
	s.lastActive = s.now()
	return fn(s.draft)
}

// idleFor reports how long the session has been untouched. In-flight
// sessions are never idle.
func (s *Session) idleFor(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return 0, false
	}
	return now.Sub(s.lastActive), true
}

// Submit validates and submits the draft. On success the draft is reset;
// on any error it is left exactly as it was.
func (s *Session) Submit(ctx context.Context) (*Outcome, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	s.state = StateValidating
	snapshot := s.draft.Clone()
	s.mu.Unlock()

	outcome, err := s.submitter.Submit(ctx, snapshot, s.transition)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.draft.Reset()
	}
	s.state = StateIdle
	s.lastActive = s.now()
	return outcome, err
}

func (s *Session) transition(next State) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
}
