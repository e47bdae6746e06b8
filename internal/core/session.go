package core

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/sheetdash/internal/workbook"
	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Counters are the per-session activity counts shown on the dashboard.
type Counters struct {
	Uploads    int `json:"uploads"`
	Views      int `json:"views"`
	RowsViewed int `json:"rows_viewed"`
	Exports    int `json:"exports"`
}

// Upload is a workbook uploaded into a session.
type Upload struct {
	ID         string
	FileName   string
	Size       int64
	UploadedAt time.Time
	Workbook   *workbook.Workbook
}

// Session is the state of one dashboard user. It is created on the first
// request and discarded after an idle timeout. All methods are safe for
// concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
	counters Counters
	uploads  []*Upload // oldest first
}

// Counters returns a snapshot of the activity counters.
func (s *Session) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Uploads returns the session's uploads, newest first.
func (s *Session) Uploads() []*Upload {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Upload, len(s.uploads))
	for i, u := range s.uploads {
		out[len(s.uploads)-1-i] = u
	}
	return out
}

// Upload returns the upload with this id.
func (s *Session) Upload(id string) (*Upload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.uploads {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) update(fn func(c *Counters)) {
	s.mu.Lock()
	fn(&s.counters)
	s.mu.Unlock()
}

// addUpload stores u and evicts the oldest uploads beyond limit.
func (s *Session) addUpload(u *Upload, limit int) (evicted []*Upload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads = append(s.uploads, u)
	s.counters.Uploads++
	if limit > 0 && len(s.uploads) > limit {
		n := len(s.uploads) - limit
		evicted = append(evicted, s.uploads[:n]...)
		s.uploads = append([]*Upload(nil), s.uploads[n:]...)
	}
	return evicted
}

// SessionManager owns all live sessions.
type SessionManager struct {
	idle         time.Duration
	maxWorkbooks int
	now          func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a manager that expires sessions idle for longer
// than idle and keeps at most maxWorkbooks uploads per session.
func NewSessionManager(idle time.Duration, maxWorkbooks int) *SessionManager {
	return &SessionManager{
		idle:         idle,
		maxWorkbooks: maxWorkbooks,
		now:          time.Now,
		sessions:     make(map[string]*Session),
	}
}

// Create starts a new session.
func (m *SessionManager) Create() *Session {
	now := m.now()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		lastSeen:  now,
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	slog.Debug("session created", "session_id", sess.ID)
	return sess
}

// Get returns a live session and marks it as used. Expired sessions are
// removed and reported as ErrSessionNotFound.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	now := m.now()
	if m.expired(sess, now) {
		m.Delete(id)
		return nil, ErrSessionNotFound
	}
	sess.touch(now)
	return sess, nil
}

// GetOrCreate returns the session for id, or a new one when id is unknown or
// expired. created reports whether a new session was started.
func (m *SessionManager) GetOrCreate(id string) (sess *Session, created bool) {
	if id != "" {
		if sess, err := m.Get(id); err == nil {
			return sess, false
		}
	}
	return m.Create(), true
}

// Delete removes a session. Unknown ids are ignored.
func (m *SessionManager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// IDs returns the tracked session ids in sorted order.
func (m *SessionManager) IDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Len returns the number of tracked sessions, including expired ones not yet
// swept.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (m *SessionManager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sess := range m.sessions {
		if m.expired(sess, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *SessionManager) expired(sess *Session, now time.Time) bool {
	return m.idle > 0 && now.Sub(sess.LastSeen()) > m.idle
}

// StartSweeper removes expired sessions every interval until ctx is
// cancelled. It blocks; run it in its own goroutine.
func (m *SessionManager) StartSweeper(ctx context.Context, interval time.Duration) {
	slog.Info("session sweeper started", "interval", interval, "idle_timeout", m.idle)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.Info("expired sessions removed", "removed", n, "remaining", m.Len())
			}
		}
	}
}
