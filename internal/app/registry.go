package app

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vleray/parley/internal/core"
	"github.com/vleray/parley/internal/domain"
)

// Session is one connected client's server-side state together with the
// transport handle the router fans out through. Room and Nickname are only
// written under the router's serialization lock.
type Session struct {
	ID       domain.SessionID
	Conn     core.Transport
	Room     domain.Room
	Nickname string
}

// Registry tracks every currently connected session. It is the single
// shared mutable resource of the engine; all lookups, inserts and removals
// go through it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.SessionID]*Session)}
}

// Register creates a session for the given transport with no room and no
// nickname, under a fresh connection ID.
func (r *Registry) Register(conn core.Transport) *Session {
	sess := &Session{
		ID:   domain.SessionID(uuid.NewString()),
		Conn: conn,
	}
	r.mu.Lock()
	r.sessions[sess.ID] = sess
	total := len(r.sessions)
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("sid", string(sess.ID)).Int("total", total).Msg("session registered")
	return sess
}

func (r *Registry) Find(id domain.SessionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Remove drops the session. Removing an absent ID is a no-op.
func (r *Registry) Remove(id domain.SessionID) {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	total := len(r.sessions)
	r.mu.Unlock()
	if ok {
		log.Info().Str("module", "app.registry").Str("sid", string(id)).Int("total", total).Msg("session removed")
	}
}

// Snapshot returns the connected sessions for iteration by the router.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
