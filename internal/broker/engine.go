// Package broker implements the broadcast engine that orchestrates sessions,
// history replay, and fan-out for the chat room.
package broker

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/realtime-chat/broker/internal/buffer"
	"github.com/realtime-chat/broker/internal/model"
	"github.com/realtime-chat/broker/internal/registry"
	"github.com/realtime-chat/broker/internal/typing"
)

// Engine owns all shared chat state. Every operation that can affect fan-out
// runs behind a single mutex, so message ids, history, presence counts, and
// the set of fan-out targets are always observed at one consistent point.
// Per-peer delivery is a non-blocking handoff onto the peer's bounded queue;
// a slow peer never stalls the engine or its neighbours.
type Engine struct {
	mu       sync.Mutex
	log      *slog.Logger
	registry *registry.Registry
	history  *buffer.MessageRing
	typing   *typing.Coordinator

	lastID int64
	now    func() time.Time
}

// New creates an Engine with its own typing coordinator using the given idle
// window.
func New(log *slog.Logger, reg *registry.Registry, history *buffer.MessageRing, typingIdle time.Duration) *Engine {
	e := &Engine{
		log:      log,
		registry: reg,
		history:  history,
		now:      time.Now,
	}
	e.typing = typing.New(typingIdle, e.typingExpired)
	return e
}

// OnConnect registers a new session and replays the retained history onto its
// queue. Snapshot and subscription happen inside one critical section, the
// same one OnSend appends under, so a concurrent send is delivered to the
// joiner exactly once: either in the replay or as a live broadcast.
func (e *Engine) OnConnect(sink registry.Sink) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.registry.Register(sink)
	e.sendTo(sink, model.EventMessageHistory, e.history.Snapshot())

	e.log.Debug("session connected", "session", id, "sessions", e.registry.Len())
	return id
}

// OnLogin names a session and announces the join, with the presence count at
// the moment of the event, to every connected session including the joiner.
// Validation failures are returned to the caller and nothing is broadcast.
func (e *Engine) OnLogin(id, rawName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	name, err := e.registry.Login(id, rawName)
	if err != nil {
		return err
	}

	e.broadcast(model.EventUserJoined, model.PresenceEvent{
		Username:   name,
		Time:       e.now().Format(model.TimeLayout),
		UsersCount: e.registry.ActiveCount(),
	}, "")

	e.log.Info("user joined", "session", id, "username", name)
	return nil
}

// OnSend appends a message from an active session to history and fans it out
// to every connected session. The id is assigned under the engine lock and is
// strictly increasing even when several sends land in the same millisecond.
func (e *Engine) OnSend(id, rawText string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	name, ok := e.registry.Name(id)
	if !ok {
		return model.ErrSessionNotFound
	}
	if name == "" {
		return model.ErrNotActive
	}

	text := strings.TrimSpace(rawText)
	if text == "" {
		return model.ErrTextEmpty
	}

	now := e.now()
	msgID := now.UnixMilli()
	if msgID <= e.lastID {
		msgID = e.lastID + 1
	}
	e.lastID = msgID

	msg := model.Message{
		ID:       msgID,
		Username: name,
		Text:     text,
		Time:     now.Format(model.TimeLayout),
		UserID:   id,
	}

	e.history.Append(msg)
	e.broadcast(model.EventNewMessage, msg, "")
	return nil
}

// OnTyping forwards a typing signal for an active session. Start and stop
// transitions are announced to everyone except the originating session,
// filtered by session id so same-named users never suppress each other.
func (e *Engine) OnTyping(id string, isTyping bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	name, ok := e.registry.Name(id)
	if !ok || name == "" {
		return
	}

	if e.typing.Set(id, isTyping) {
		e.broadcast(model.EventUserTyping, model.TypingEvent{
			Username: name,
			IsTyping: isTyping,
		}, id)
	}
}

// OnDisconnect removes a session, cancels its typing timer, and, if it had a
// display name, announces the departure to the remaining sessions.
func (e *Engine) OnDisconnect(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.typing.Cancel(id)

	name, hadName := e.registry.Unregister(id)
	if !hadName {
		e.log.Debug("session disconnected", "session", id)
		return
	}

	e.broadcast(model.EventUserLeft, model.PresenceEvent{
		Username:   name,
		Time:       e.now().Format(model.TimeLayout),
		UsersCount: e.registry.ActiveCount(),
	}, "")

	e.log.Info("user left", "session", id, "username", name)
}

// Stats reports the presence count and retained history length.
func (e *Engine) Stats() (onlineUsers, messages int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.registry.ActiveCount(), e.history.Len()
}

// typingExpired runs from the coordinator's idle timer, with no coordinator
// lock held, when a session went quiet on its own.
func (e *Engine) typingExpired(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	name, ok := e.registry.Name(id)
	if !ok || name == "" {
		return
	}

	e.broadcast(model.EventUserTyping, model.TypingEvent{
		Username: name,
		IsTyping: false,
	}, id)
}

// broadcast fans an event out to every registered session except exclude.
// A delivery that cannot be queued is dropped for that peer only.
func (e *Engine) broadcast(event model.EventName, payload any, exclude string) {
	data, err := model.Encode(event, payload)
	if err != nil {
		e.log.Error("failed to encode event", "event", event, "error", err)
		return
	}

	for _, tgt := range e.registry.Snapshot() {
		if tgt.ID == exclude {
			continue
		}
		if !tgt.Sink.Send(data) {
			e.log.Debug("dropped delivery to unresponsive session", "session", tgt.ID, "event", event)
		}
	}
}

func (e *Engine) sendTo(sink registry.Sink, event model.EventName, payload any) {
	data, err := model.Encode(event, payload)
	if err != nil {
		e.log.Error("failed to encode event", "event", event, "error", err)
		return
	}
	sink.Send(data)
}
