// Package realtime fans change hints out to clients watching a job
// request. It is a notification channel over the authoritative store, not
// a system of record: events carry ids, are at-least-once and may arrive
// out of order, and clients reconcile against normal reads.
package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/handshakehq/handshake-core/internal/model"
)

type EventKind string

const (
	EventStatusChanged EventKind = "status_changed"
	EventMessageNew    EventKind = "message_new"
	EventTyping        EventKind = "typing"
)

type Event struct {
	Kind         EventKind       `json:"type"`
	JobRequestID uuid.UUID       `json:"job_request_id"`
	EntityID     uuid.UUID       `json:"entity_id,omitempty"`
	Status       model.JobStatus `json:"status,omitempty"`
	UserID       uuid.UUID       `json:"user_id,omitempty"`
	DisplayName  string          `json:"display_name,omitempty"`
	IsTyping     bool            `json:"is_typing,omitempty"`
}

type subscriber struct {
	userID uuid.UUID
	ch     chan Event
}

// Hub tracks subscribers per job request. Delivery is non-blocking: a slow
// subscriber drops events rather than stalling the publisher, which is fine
// because events are hints, not state.
type Hub struct {
	mu        sync.RWMutex
	subs      map[uuid.UUID]map[*subscriber]struct{}
	typing    map[typingKey]*typingState
	typingTTL time.Duration
	now       func() time.Time
}

type typingKey struct {
	jobRequestID uuid.UUID
	userID       uuid.UUID
}

type typingState struct {
	displayName string
	expiresAt   time.Time
	generation  uint64
}

func NewHub(typingTTL time.Duration) *Hub {
	return &Hub{
		subs:      make(map[uuid.UUID]map[*subscriber]struct{}),
		typing:    make(map[typingKey]*typingState),
		typingTTL: typingTTL,
		now:       time.Now,
	}
}

// Subscribe attaches a watcher to a job request. The returned channel gets
// every subsequent event except the caller's own typing signals; cancel
// detaches and closes it.
func (h *Hub) Subscribe(jobRequestID, userID uuid.UUID) (<-chan Event, func()) {
	sub := &subscriber{userID: userID, ch: make(chan Event, 16)}

	h.mu.Lock()
	if h.subs[jobRequestID] == nil {
		h.subs[jobRequestID] = make(map[*subscriber]struct{})
	}
	h.subs[jobRequestID][sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[jobRequestID]; ok {
			if _, present := set[sub]; present {
				delete(set, sub)
				close(sub.ch)
			}
			if len(set) == 0 {
				delete(h.subs, jobRequestID)
			}
		}
		h.mu.Unlock()
	}
	return sub.ch, cancel
}

// StatusChanged publishes a status hint to everyone watching the job.
func (h *Hub) StatusChanged(jobRequestID uuid.UUID, status model.JobStatus) {
	h.broadcast(jobRequestID, Event{
		Kind:         EventStatusChanged,
		JobRequestID: jobRequestID,
		Status:       status,
	}, uuid.Nil)
}

// MessageNew publishes a new-message hint; clients fetch the row by id.
func (h *Hub) MessageNew(jobRequestID, messageID uuid.UUID) {
	h.broadcast(jobRequestID, Event{
		Kind:         EventMessageNew,
		JobRequestID: jobRequestID,
		EntityID:     messageID,
	}, uuid.Nil)
}

// SetTyping records ephemeral typing presence and tells the other
// participants. Nothing is persisted; state evaporates after the TTL
// unless refreshed. The sender never sees their own indicator.
func (h *Hub) SetTyping(jobRequestID, userID uuid.UUID, displayName string, isTyping bool) {
	key := typingKey{jobRequestID: jobRequestID, userID: userID}

	h.mu.Lock()
	if isTyping {
		generation := uint64(1)
		if prev, ok := h.typing[key]; ok {
			generation = prev.generation + 1
		}
		h.typing[key] = &typingState{
			displayName: displayName,
			expiresAt:   h.now().Add(h.typingTTL),
			generation:  generation,
		}
		// Auto-clear when the TTL lapses without a refresh. The generation
		// check makes a refreshed signal win over a stale timer.
		time.AfterFunc(h.typingTTL, func() {
			h.expireTyping(key, generation, displayName)
		})
	} else {
		delete(h.typing, key)
	}
	h.mu.Unlock()

	h.broadcast(jobRequestID, Event{
		Kind:         EventTyping,
		JobRequestID: jobRequestID,
		UserID:       userID,
		DisplayName:  displayName,
		IsTyping:     isTyping,
	}, userID)
}

func (h *Hub) expireTyping(key typingKey, generation uint64, displayName string) {
	h.mu.Lock()
	state, ok := h.typing[key]
	if !ok || state.generation != generation {
		h.mu.Unlock()
		return
	}
	delete(h.typing, key)
	h.mu.Unlock()

	h.broadcast(key.jobRequestID, Event{
		Kind:         EventTyping,
		JobRequestID: key.jobRequestID,
		UserID:       key.userID,
		DisplayName:  displayName,
		IsTyping:     false,
	}, key.userID)
}

// TypingUsers lists who is currently typing on a job request, excluding the
// asker and anyone whose signal has gone stale.
func (h *Hub) TypingUsers(jobRequestID, excludeUserID uuid.UUID) []uuid.UUID {
	now := h.now()

	h.mu.Lock()
	defer h.mu.Unlock()

	var out []uuid.UUID
	for key, state := range h.typing {
		if key.jobRequestID != jobRequestID {
			continue
		}
		if now.After(state.expiresAt) {
			delete(h.typing, key)
			continue
		}
		if key.userID == excludeUserID {
			continue
		}
		out = append(out, key.userID)
	}
	return out
}

func (h *Hub) broadcast(jobRequestID uuid.UUID, evt Event, excludeUserID uuid.UUID) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[jobRequestID] {
		if excludeUserID != uuid.Nil && sub.userID == excludeUserID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}
