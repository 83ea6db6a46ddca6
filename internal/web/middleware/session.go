package middleware

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/emotion-recognizer/internal/constants"
	"github.com/kozaktomas/emotion-recognizer/internal/smoother"
)

const defaultSessionTTL = 30 * time.Minute

// ErrWindowTooLarge is returned for windows above constants.MaxWindowSize.
var ErrWindowTooLarge = errors.New("window too large")

// Session is a server-side smoothing window that a client feeds through
// repeated predict calls. All methods are safe for concurrent use.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu        sync.Mutex
	expiresAt time.Time
	smoother  *smoother.Smoother[string]
}

// Observe adds label to the window and returns the stabilized label.
func (s *Session) Observe(label string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.smoother.Observe(label)
}

// Current returns the last stabilized label or smoother.ErrNotAvailable.
func (s *Session) Current() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.smoother.Current()
}

// Reset empties the window.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.smoother.Reset()
}

// SessionData is the JSON view of a session.
type SessionData struct {
	ID         string   `json:"id"`
	Window     int      `json:"window"`
	Labels     []string `json:"labels"`
	Stabilized string   `json:"stabilized,omitempty"`
	ExpiresAt  string   `json:"expires_at"`
}

// ToJSON returns a consistent snapshot of the session.
func (s *Session) ToJSON() SessionData {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := SessionData{
		ID:        s.ID.String(),
		Window:    s.smoother.Capacity(),
		Labels:    s.smoother.Window(),
		ExpiresAt: s.expiresAt.Format(time.RFC3339),
	}
	if cur, err := s.smoother.Current(); err == nil {
		data.Stabilized = cur
	}
	return data
}

func (s *Session) expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.After(s.expiresAt)
}

// touch extends the session lifetime, returning false when it already expired.
func (s *Session) touch(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.expiresAt) {
		return false
	}
	s.expiresAt = now.Add(ttl)
	return true
}

// SessionManager keeps smoothing sessions alive for a sliding TTL and
// removes idle ones in the background.
type SessionManager struct {
	ttl      time.Duration
	sessions map[uuid.UUID]*Session
	mu       sync.RWMutex
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSessionManager creates a session manager and starts its cleanup goroutine.
// Call Stop to release it.
func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	sm := &SessionManager{
		ttl:      ttl,
		sessions: make(map[uuid.UUID]*Session),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	go sm.cleanupLoop(min(ttl, time.Minute))
	return sm
}

// CreateSession starts a session with an empty window of the given capacity.
// The error wraps smoother.ErrInvalidConfiguration for window <= 0.
func (sm *SessionManager) CreateSession(window int) (*Session, error) {
	if window > constants.MaxWindowSize {
		return nil, ErrWindowTooLarge
	}
	s, err := smoother.New[string](window)
	if err != nil {
		return nil, err
	}

	now := sm.now()
	session := &Session{
		ID:        uuid.New(),
		CreatedAt: now,
		expiresAt: now.Add(sm.ttl),
		smoother:  s,
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	return session, nil
}

// GetSession returns the live session with the given ID and extends its
// lifetime. It returns nil for malformed, unknown or expired IDs.
func (sm *SessionManager) GetSession(id string) *Session {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil
	}

	sm.mu.RLock()
	session, ok := sm.sessions[uid]
	sm.mu.RUnlock()
	if !ok {
		return nil
	}

	if !session.touch(sm.now(), sm.ttl) {
		sm.DeleteSession(id)
		return nil
	}
	return session
}

// DeleteSession removes a session. It reports whether the session existed.
func (sm *SessionManager) DeleteSession(id string) bool {
	uid, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	_, ok := sm.sessions[uid]
	delete(sm.sessions, uid)
	return ok
}

// Len returns the number of stored sessions, including expired ones not yet cleaned up.
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// TTL returns the idle lifetime of a session.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

func (sm *SessionManager) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sm.cleanup()
		case <-sm.stopCh:
			return
		}
	}
}

// cleanup removes expired sessions and returns how many were dropped.
func (sm *SessionManager) cleanup() int {
	now := sm.now()
	sm.mu.Lock()
	defer sm.mu.Unlock()
	removed := 0
	for id, s := range sm.sessions {
		if s.expired(now) {
			delete(sm.sessions, id)
			removed++
		}
	}
	return removed
}

// Stop terminates the cleanup goroutine. It is safe to call more than once.
func (sm *SessionManager) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.stopCh)
	})
}
