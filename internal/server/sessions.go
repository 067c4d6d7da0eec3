package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"resumecanvas/internal/canvas"
	"resumecanvas/internal/editor"
	"resumecanvas/internal/errors"
)

// sessionEntry ties an editor session to its backend document and tracks
// when it was last touched so idle sessions can be evicted.
type sessionEntry struct {
	session    *editor.Session
	documentID string
	lastSeen   time.Time
}

// SessionStore holds all live editor sessions keyed by session ID.
type SessionStore struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	ttl     time.Duration
	done    chan struct{}
	logger  *errors.Logger
}

// NewSessionStore creates a store that evicts sessions idle longer than ttl.
func NewSessionStore(ttl time.Duration, logger *errors.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}

	st := &SessionStore{
		entries: make(map[string]*sessionEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
		logger:  logger,
	}

	go st.cleanupRoutine(10 * time.Minute)
	return st
}

// Create opens a new session around the given document and returns its ID.
// documentID may be empty for inline documents that have no backend home.
func (st *SessionStore) Create(doc canvas.Document, documentID string) string {
	sid := uuid.NewString()

	st.mu.Lock()
	st.entries[sid] = &sessionEntry{
		session:    editor.NewSession(doc),
		documentID: documentID,
		lastSeen:   time.Now(),
	}
	st.mu.Unlock()

	if st.logger != nil {
		st.logger.Debug("Editor session created", "session_id", sid, "document_id", documentID)
	}
	return sid
}

// Get returns the session and its backend document ID, or an error when the
// session does not exist (or has been evicted).
func (st *SessionStore) Get(sid string) (*editor.Session, string, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	entry, ok := st.entries[sid]
	if !ok {
		return nil, "", errors.NewDocumentError(errors.ErrCodeSessionNotFound,
			"session not found", nil).WithContext("session_id", sid)
	}
	entry.lastSeen = time.Now()
	return entry.session, entry.documentID, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (st *SessionStore) Delete(sid string) {
	st.mu.Lock()
	delete(st.entries, sid)
	st.mu.Unlock()
}

// Count returns the number of live sessions.
func (st *SessionStore) Count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.entries)
}

// cleanupRoutine periodically evicts idle sessions
func (st *SessionStore) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st.evictIdle()
		case <-st.done:
			return
		}
	}
}

// evictIdle removes sessions that have not been touched within the TTL
func (st *SessionStore) evictIdle() {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now()
	evicted := 0
	for sid, entry := range st.entries {
		if now.Sub(entry.lastSeen) > st.ttl {
			delete(st.entries, sid)
			evicted++
		}
	}

	if evicted > 0 && st.logger != nil {
		st.logger.Info("Evicted idle editor sessions",
			"evicted", evicted,
			"remaining", len(st.entries))
	}
}

// Close stops the cleanup goroutine. Should be called when shutting down the server.
func (st *SessionStore) Close() {
	close(st.done)
}
