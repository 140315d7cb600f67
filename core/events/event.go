package events

import (
	"sync"

	"stakevault/core/types"
)

// Event represents a structured state change emitted by the ledger.
type Event interface {
	EventType() string
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Ring retains the most recent events in arrival order so the RPC layer can
// expose an observable append-only stream without unbounded growth.
type Ring struct {
	mu    sync.RWMutex
	limit int
	items []*types.Event
}

// NewRing constructs a ring buffer holding at most limit events.
func NewRing(limit int) *Ring {
	if limit <= 0 {
		limit = 256
	}
	return &Ring{limit: limit}
}

// Emit implements the Emitter interface.
func (r *Ring) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	payload := evt.Event()
	if payload == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, payload)
	if len(r.items) > r.limit {
		r.items = r.items[len(r.items)-r.limit:]
	}
}

// Recent returns a snapshot of the retained events, oldest first.
func (r *Ring) Recent() []*types.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*types.Event, len(r.items))
	copy(out, r.items)
	return out
}
