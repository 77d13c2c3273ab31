package domain

import "sync"

// Session holds per-browser state for the chat UI.
type Session struct {
	ID            string
	Authenticated bool
	UserName      string
	Buffer        *ConversationBuffer

	busy sync.Mutex
}

// NewSession creates an unauthenticated session with an empty transcript.
func NewSession(id string, limit int) *Session {
	return &Session{ID: id, Buffer: NewConversationBuffer(limit)}
}

// TryBegin claims the session for one orchestration. It returns false when a
// turn is already running.
func (s *Session) TryBegin() bool {
	return s.busy.TryLock()
}

// End releases the claim taken by TryBegin.
func (s *Session) End() {
	s.busy.Unlock()
}

// SignIn marks the session as authenticated for user.
func (s *Session) SignIn(user string) {
	s.Authenticated = true
	s.UserName = user
}

// SignOut clears authentication and the transcript.
func (s *Session) SignOut() {
	s.Authenticated = false
	s.UserName = ""
	if s.Buffer != nil {
		s.Buffer.Reset()
	}
}
