// Package lockreg implements advisory, multi-holder locks over named resources.
//
// A resource is identified by its owner and a name (a shop name). Any number
// of actors may hold the same resource at once; the resource counts as locked
// while at least one holder remains. Locks are signals, not barriers: nothing
// blocks, and callers decide what a held lock forbids.
//
// Registries are in-memory only and are lost on restart.
package lockreg

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Kind distinguishes the resource family a registry guards.
type Kind string

const (
	KindShop  Kind = "shop"
	KindVault Kind = "vault"
)

// Registry tracks holders per (owner, resource).
//
// Thread-safety: all methods are safe for concurrent use. Acquire and Release
// share one write lock, so a release that empties a holder set can never race
// a concurrent acquire on the same resource.
type Registry struct {
	kind   Kind
	logger *slog.Logger

	mu      sync.RWMutex
	holders map[uuid.UUID]map[string]map[uuid.UUID]struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for debug records.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// New creates an empty registry for one resource kind.
func New(kind Kind, opts ...Option) *Registry {
	r := &Registry{
		kind:    kind,
		logger:  slog.Default(),
		holders: make(map[uuid.UUID]map[string]map[uuid.UUID]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Kind returns the resource kind this registry guards.
func (r *Registry) Kind() Kind {
	return r.kind
}

// Acquire records actor as a holder of (owner, resource). Acquiring twice is
// a no-op.
func (r *Registry) Acquire(owner uuid.UUID, resource string, actor uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byName, ok := r.holders[owner]
	if !ok {
		byName = make(map[string]map[uuid.UUID]struct{})
		r.holders[owner] = byName
	}
	set, ok := byName[resource]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		byName[resource] = set
	}
	set[actor] = struct{}{}

	r.logger.Debug("lock acquired", "kind", r.kind, "owner", owner, "resource", resource, "actor", actor, "holders", len(set))
}

// Release removes actor from the holders of (owner, resource). The entry is
// dropped once its last holder leaves. Releasing something never acquired is
// a no-op.
func (r *Registry) Release(owner uuid.UUID, resource string, actor uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byName, ok := r.holders[owner]
	if !ok {
		return
	}
	set, ok := byName[resource]
	if !ok {
		return
	}
	delete(set, actor)
	if len(set) == 0 {
		delete(byName, resource)
	}
	if len(byName) == 0 {
		delete(r.holders, owner)
	}

	r.logger.Debug("lock released", "kind", r.kind, "owner", owner, "resource", resource, "actor", actor, "holders", len(set))
}

// IsLocked reports whether (owner, resource) has at least one holder.
func (r *Registry) IsLocked(owner uuid.UUID, resource string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.holders[owner][resource]) > 0
}

// Holders returns the current holders of (owner, resource), sorted.
func (r *Registry) Holders(owner uuid.UUID, resource string) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.holders[owner][resource]
	out := make([]uuid.UUID, 0, len(set))
	for actor := range set {
		out = append(out, actor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Len returns the number of locked resources across all owners.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, byName := range r.holders {
		n += len(byName)
	}
	return n
}
