// Package buffer provides the bounded message ring backing history replay.
package buffer

import (
	"sync"

	"github.com/realtime-chat/broker/internal/model"
)

// MessageRing is a thread-safe bounded FIFO of chat messages. Once the ring is
// full, appending evicts the oldest message. Insertion order is send order; the
// ring is only ever appended to and replayed in full, never queried by content.
type MessageRing struct {
	mu       sync.RWMutex
	buf      []model.Message
	head     int
	size     int
	capacity int
}

// NewMessageRing creates a ring holding at most capacity messages.
// A capacity below 1 defaults to 1.
func NewMessageRing(capacity int) *MessageRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &MessageRing{
		buf:      make([]model.Message, capacity),
		capacity: capacity,
	}
}

// Append adds a message, evicting the oldest one if the ring is full.
func (r *MessageRing) Append(msg model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[(r.head+r.size)%r.capacity] = msg
	if r.size < r.capacity {
		r.size++
	} else {
		r.head = (r.head + 1) % r.capacity
	}
}

// Snapshot returns a copy of all retained messages, oldest first. The result
// is always non-nil so it serializes as an empty JSON array when the ring is
// empty, and it is safe to use without holding the lock.
func (r *MessageRing) Snapshot() []model.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Message, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%r.capacity]
	}
	return out
}

// Len returns the number of messages currently retained.
func (r *MessageRing) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.size
}

// Cap returns the maximum number of messages the ring retains.
func (r *MessageRing) Cap() int {
	return r.capacity
}
