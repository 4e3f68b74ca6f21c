package movement

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/stockkeeper/internal/domain/models"
)

// SessionManager keeps the open drafts, one session per draft id.
type SessionManager struct {
	submitter           *Submitter
	products            ProductLookup
	defaultStockManager string
	newID               func() string
	now                 func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a new session manager.
func NewSessionManager(submitter *Submitter, products ProductLookup, defaultStockManager string) *SessionManager {
	return &SessionManager{
		submitter:           submitter,
		products:            products,
		defaultStockManager: defaultStockManager,
		newID:               uuid.NewString,
		now:                 time.Now,
		sessions:            make(map[string]*Session),
	}
}

// Create opens a new empty draft. An empty stockManager uses the default.
func (sm *SessionManager) Create(t models.MovementType, stockManager string) (*Session, error) {
	if stockManager == "" {
		stockManager = sm.defaultStockManager
	}
	draft, err := NewDraft(t, stockManager, sm.products)
	if err != nil {
		return nil, err
	}

	session := newSession(sm.newID(), draft, sm.submitter, sm.now)

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[session.ID()] = session
	return session, nil
}

// Get retrieves an open session.
func (sm *SessionManager) Get(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if s, ok := sm.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrDraftNotFound
}

// Discard removes a session unless it is submitting.
func (sm *SessionManager) Discard(id string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	s, ok := sm.sessions[id]
	if !ok {
		return ErrDraftNotFound
	}
	if s.State() != StateIdle {
		return ErrSubmissionInFlight
	}
	delete(sm.sessions, id)
	return nil
}

// PruneIdle discards sessions untouched for longer than maxIdle and returns
// how many were dropped. Sessions with a submission in flight are kept.
func (sm *SessionManager) PruneIdle(maxIdle time.Duration) int {
	now := sm.now()

	sm.mu.Lock()
	defer sm.mu.Unlock()
	pruned := 0
	for id, s := range sm.sessions {
		if idle, ok := s.idleFor(now); ok && idle > maxIdle {
			delete(sm.sessions, id)
			pruned++
		}
	}
	return pruned
}

// Len returns the number of open sessions.
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
