// Package signals bridges the engine's suspend points to the presentation
// layer, which alone can observe real media playback ending.
package signals

import "sync"

// Registry maps an in-flight media id to a one-shot completion channel.
// The engine registers before it suspends; the presentation layer resolves
// when its media element reports the natural end of playback. Each run owns
// its own Registry so signals from an abandoned run can never leak into a
// newer one.
type Registry struct {
	mu      sync.Mutex
	pending map[string]chan struct{}
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		pending: make(map[string]chan struct{}),
	}
}

// Register creates a pending entry for id and returns the channel the engine
// waits on. The channel is closed exactly once, on Resolve. Registering an id
// that is already pending returns the existing channel; at most one entry per
// id exists at a time.
func (r *Registry) Register(id string) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ch, ok := r.pending[id]; ok {
		return ch
	}
	ch := make(chan struct{})
	r.pending[id] = ch
	return ch
}

// Resolve signals completion for id and removes the entry. Resolving an
// unknown or already-resolved id is a no-op.
func (r *Registry) Resolve(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.pending[id]
	if !ok {
		return
	}
	delete(r.pending, id)
	close(ch)
}

// Pending returns the number of unresolved entries
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Abandon drops all pending entries without closing their channels. Waiters
// must additionally select on their run context, which is cancelled whenever
// a run is abandoned.
func (r *Registry) Abandon() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = make(map[string]chan struct{})
}
