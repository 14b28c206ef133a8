package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Health is a point-in-time view of one provider.
type Health struct {
	Name          string
	State         gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// Status returns "healthy", "degraded" (half-open) or "unavailable" (open).
func (h Health) Status() string {
	switch h.State {
	case gobreaker.StateOpen:
		return "unavailable"
	case gobreaker.StateHalfOpen:
		return "degraded"
	default:
		return "healthy"
	}
}

// Available reports whether requests currently reach the provider.
func (h Health) Available() bool {
	return h.State != gobreaker.StateOpen
}

// Registry tracks provider clients for readiness reporting.
// A nil *Registry ignores all calls.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	client    *Client
	successAt *time.Time
	failureAt *time.Time
	lastErr   string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds or replaces the client tracked under name.
func (r *Registry) Register(name string, c *Client) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = &entry{client: c}
}

// Unregister stops tracking name.
func (r *Registry) Unregister(name string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// RecordSuccess stamps the last successful call for name.
func (r *Registry) RecordSuccess(name string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[name]; ok {
		now := time.Now()
		e.successAt = &now
	}
}

// RecordFailure stamps the last failed call for name and keeps its message.
func (r *Registry) RecordFailure(name string, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[name]; ok {
		now := time.Now()
		e.failureAt = &now
		if err != nil {
			e.lastErr = err.Error()
		}
	}
}

// Health returns the view for name, or false if it is not registered.
func (r *Registry) Health(name string) (Health, bool) {
	if r == nil {
		return Health{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return Health{}, false
	}
	return e.health(name), true
}

// Snapshot returns every provider's health sorted by name.
func (r *Registry) Snapshot() []Health {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Health, 0, len(r.entries))
	for name, e := range r.entries {
		out = append(out, e.health(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of tracked providers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (e *entry) health(name string) Health {
	return Health{
		Name:          name,
		State:         e.client.State(),
		Counts:        e.client.Counts(),
		LastSuccessAt: e.successAt,
		LastFailureAt: e.failureAt,
		LastError:     e.lastErr,
	}
}
