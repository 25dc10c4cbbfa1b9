// Package registry tracks live chat sessions and their display names.
package registry

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/realtime-chat/broker/internal/model"
)

// MaxNameLen is the display name length limit in runes, applied after trimming.
const MaxNameLen = 20

// Sink is the outbound side of a session's connection. Send must not block;
// it reports false when the delivery was dropped.
type Sink interface {
	Send(data []byte) bool
}

// Target is one fan-out destination from a registry snapshot.
type Target struct {
	ID   string
	Name string
	Sink Sink
}

type session struct {
	id   string
	name string
	sink Sink
}

// Registry is the authoritative mapping of session id to display name and
// outbound sink. A session is registered on connect, named on login, and
// removed on disconnect.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		sessions: make(map[string]*session),
	}
}

// Register creates an unauthenticated session bound to the given sink and
// returns its id. The session is immediately visible to fan-out targeting,
// but does not count toward presence until it logs in.
func (r *Registry) Register(sink Sink) string {
	id := uuid.New().String()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[id] = &session{id: id, sink: sink}
	return id
}

// Login validates and sets the display name for a session, returning the
// trimmed name. Repeated logins overwrite the name silently.
func (r *Registry) Login(id, rawName string) (string, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return "", model.ErrNameEmpty
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return "", model.ErrNameTooLong
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		return "", model.ErrSessionNotFound
	}
	sess.name = name
	return name, nil
}

// Name returns the display name of a session, and whether the session exists.
// An empty name means the session has not logged in.
func (r *Registry) Name(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[id]
	if !ok {
		return "", false
	}
	return sess.name, true
}

// Unregister removes a session and returns the display name it had, if any.
func (r *Registry) Unregister(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		return "", false
	}
	delete(r.sessions, id)
	return sess.name, sess.name != ""
}

// Snapshot returns a consistent point-in-time view of every registered
// session for fan-out.
func (r *Registry) Snapshot() []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := make([]Target, 0, len(r.sessions))
	for _, sess := range r.sessions {
		targets = append(targets, Target{ID: sess.id, Name: sess.name, Sink: sess.sink})
	}
	return targets
}

// ActiveCount returns the number of sessions that have completed login. It is
// derived from the session table, never maintained separately.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.CountBy(lo.Values(r.sessions), func(s *session) bool {
		return s.name != ""
	})
}

// Len returns the total number of registered sessions, named or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
