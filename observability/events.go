package observability

import "stakevault/core/events"

// CountingEmitter forwards events to the next emitter while recording a
// per-type counter, so the event stream shows up in Prometheus without the
// engines knowing about metrics.
type CountingEmitter struct {
	next    events.Emitter
	metrics *LedgerMetrics
}

// NewCountingEmitter wraps next with event counting. A nil next discards.
func NewCountingEmitter(next events.Emitter) *CountingEmitter {
	if next == nil {
		next = events.NoopEmitter{}
	}
	return &CountingEmitter{next: next, metrics: Metrics()}
}

// Emit implements events.Emitter.
func (c *CountingEmitter) Emit(evt events.Event) {
	if c == nil || evt == nil {
		return
	}
	c.metrics.RecordEvent(evt.EventType())
	c.next.Emit(evt)
}
