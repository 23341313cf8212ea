package wsserver

import (
	"errors"
	"sync"
)

// ErrDuplicateAddress indicates an address already has a live session.
var ErrDuplicateAddress = errors.New("duplicate address")

type registryEntry struct {
	addr    string
	session *Session
}

// Registry maps peer addresses to live sessions. At most one session per
// address exists at any instant; Add enforces this atomically so the
// invariant holds even with concurrent admissions.
type Registry struct {
	lock    sync.Mutex
	entries []registryEntry
}

// Add registers a session under addr. It fails with ErrDuplicateAddress
// if a session for addr is already registered.
func (r *Registry) Add(addr string, s *Session) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, e := range r.entries {
		if e.addr == addr {
			return ErrDuplicateAddress
		}
	}
	r.entries = append(r.entries, registryEntry{addr: addr, session: s})
	return nil
}

// Remove unregisters a session. It is idempotent and a no-op when the
// session is not registered.
func (r *Registry) Remove(s *Session) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for i, e := range r.entries {
		if e.session == s {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// Find returns the live session for addr, or nil.
func (r *Registry) Find(addr string) *Session {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, e := range r.entries {
		if e.addr == addr {
			return e.session
		}
	}
	return nil
}

// AddressOf returns the address a session is registered under.
func (r *Registry) AddressOf(s *Session) (string, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, e := range r.entries {
		if e.session == s {
			return e.addr, true
		}
	}
	return "", false
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.entries)
}

func (r *Registry) sessions() []*Session {
	r.lock.Lock()
	defer r.lock.Unlock()
	sessions := make([]*Session, len(r.entries))
	for i, e := range r.entries {
		sessions[i] = e.session
	}
	return sessions
}
