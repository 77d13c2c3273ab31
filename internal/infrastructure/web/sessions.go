package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/doeshing/sqlchat/internal/domain"
)

const (
	defaultIdleTimeout = 12 * time.Hour
	defaultMaxSessions = 10000
	sweepInterval      = time.Minute
)

type sessionEntry struct {
	sess     *domain.Session
	lastSeen time.Time
}

// SessionStore keeps signed-in browser sessions in memory, keyed by a cookie.
// Anonymous visitors get a throwaway session that is never stored; a session
// is only kept once Keep is called after a successful login.
type SessionStore struct {
	IdleTimeout time.Duration
	MaxSessions int

	mu        sync.Mutex
	sessions  map[string]*sessionEntry
	cookie    string
	secure    bool
	limit     int
	now       func() time.Time
	lastSweep time.Time
}

// NewSessionStore creates an empty store. limit bounds each session's transcript.
func NewSessionStore(cookie string, secure bool, limit int) *SessionStore {
	if cookie == "" {
		cookie = "sqlchat_session"
	}
	return &SessionStore{
		IdleTimeout: defaultIdleTimeout,
		MaxSessions: defaultMaxSessions,
		sessions:    make(map[string]*sessionEntry),
		cookie:      cookie,
		secure:      secure,
		limit:       limit,
		now:         time.Now,
	}
}

// Resolve returns the caller's stored session, or a fresh unstored one when
// the cookie is missing, unknown or expired.
func (s *SessionStore) Resolve(c *gin.Context) *domain.Session {
	id, err := c.Cookie(s.cookie)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	if err == nil {
		if entry, ok := s.sessions[id]; ok {
			if !s.expired(entry, now) {
				entry.lastSeen = now
				return entry.sess
			}
			delete(s.sessions, id)
		}
	}
	return s.Fresh()
}

// Fresh returns a new unstored session with a new id.
func (s *SessionStore) Fresh() *domain.Session {
	return domain.NewSession(uuid.NewString(), s.limit)
}

// Keep stores sess and points the cookie at it. Login keeps a Fresh session
// so a pre-login id is never promoted.
func (s *SessionStore) Keep(c *gin.Context, sess *domain.Session) {
	s.mu.Lock()
	now := s.now()
	s.sweepLocked(now)
	if s.MaxSessions > 0 && len(s.sessions) >= s.MaxSessions {
		s.evictOldestLocked()
	}
	s.sessions[sess.ID] = &sessionEntry{sess: sess, lastSeen: now}
	s.mu.Unlock()

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookie, sess.ID, 0, "/", "", s.secure, true)
}

// Drop forgets a session.
func (s *SessionStore) Drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(entry *sessionEntry, now time.Time) bool {
	return s.IdleTimeout > 0 && now.Sub(entry.lastSeen) > s.IdleTimeout
}

func (s *SessionStore) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for id, entry := range s.sessions {
		if s.expired(entry, now) {
			delete(s.sessions, id)
		}
	}
}

func (s *SessionStore) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, entry := range s.sessions {
		if oldestID == "" || entry.lastSeen.Before(oldest) {
			oldestID, oldest = id, entry.lastSeen
		}
	}
	delete(s.sessions, oldestID)
}
