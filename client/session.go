package client

import "sync"

// SessionHolder owns the client side session. It is created on login and cleared on logout,
// nothing else writes to it.
type SessionHolder struct {
	mu      sync.RWMutex
	session *Session
}

func NewSessionHolder() *SessionHolder {
	return &SessionHolder{}
}

func (h *SessionHolder) Get() *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil {
		return nil
	}
	s := *h.session
	return &s
}

func (h *SessionHolder) Set(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := *s
	h.session = &c
}

func (h *SessionHolder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.session = nil
}

// IsAdmin reports the admin flag of the held session
func (h *SessionHolder) IsAdmin() bool {
	s := h.Get()
	return s != nil && s.IsAdmin
}
