// Package resolver maps (kind, name) keys to entities, synthesizing phantom
// placeholders for references that were never declared.
package resolver

import (
	"sync"

	"github.com/forgehub/forgehub/pkg/object"
)

// Presence classifies what lookup(K) found.
type Presence int

const (
	// Present means a real entity exists in the expanded namespace.
	Present Presence = iota
	// Phantom means K was referenced but never declared; a placeholder was
	// synthesized carrying only K and the first reference's origin.
	Phantom
	// Discovered means K is not declared but was confirmed to exist on the
	// remote during a read-only probe.
	Discovered
	// Pending marks a deferred-update shadow created by the solver.
	Pending
)

func (p Presence) String() string {
	switch p {
	case Present:
		return "present"
	case Phantom:
		return "phantom"
	case Discovered:
		return "discovered"
	case Pending:
		return "pending"
	default:
		return "unknown"
	}
}

// Phantom is the placeholder object synthesized for an undeclared K. It
// carries no dependency edges of its own and is never itself solved into a
// tier (I2: unresolved edges point to phantoms but impose no ordering
// obligation).
type Phantom struct {
	key    object.K
	origin object.Origin
}

func (p *Phantom) Key() object.K        { return p.key }
func (p *Phantom) Origin() object.Origin { return p.origin }

// Resolver wraps a namespace's expanded entity map and exposes presence
// classification, synthesizing and caching phantoms on first reference.
type Resolver struct {
	mu       sync.Mutex
	expanded map[object.K]object.Entity
	phantoms map[object.K]*Phantom
	// discovered records keys confirmed present on the remote but never
	// declared (populated by read-only workflows; see Promote).
	discovered map[object.K]bool
}

// New builds a Resolver over expanded, the namespace's post-expand map.
// expanded must not be mutated after New is called (§5: the namespace is
// read-only once expansion completes).
func New(expanded map[object.K]object.Entity) *Resolver {
	return &Resolver{
		expanded:   expanded,
		phantoms:   map[object.K]*Phantom{},
		discovered: map[object.K]bool{},
	}
}

// Lookup classifies k and, for a first-seen undeclared reference, records a
// phantom placeholder carrying origin (the referencing entity's own
// position, per §4.2 "first reference's origin").
func (r *Resolver) Lookup(k object.K, origin object.Origin) Presence {
	if _, ok := r.expanded[k]; ok {
		return Present
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.discovered[k] {
		return Discovered
	}
	if _, ok := r.phantoms[k]; !ok {
		r.phantoms[k] = &Phantom{key: k, origin: origin}
	}
	return Phantom
}

// Entity returns the resolved object.Entity for k, or nil if k resolves to
// a phantom, discovered, or unknown key.
func (r *Resolver) Entity(k object.K) object.Entity {
	return r.expanded[k]
}

// Phantoms returns every phantom synthesized so far, for diagnostics.
func (r *Resolver) Phantoms() []*Phantom {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Phantom, 0, len(r.phantoms))
	for _, p := range r.phantoms {
		out = append(out, p)
	}
	return out
}

// PhantomOf returns the phantom placeholder for k, if one was synthesized.
func (r *Resolver) PhantomOf(k object.K) (*Phantom, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.phantoms[k]
	return p, ok
}

// Discovered returns every key promoted from Phantom to Discovered so far.
func (r *Resolver) Discovered() []object.K {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]object.K, 0, len(r.discovered))
	for k := range r.discovered {
		out = append(out, k)
	}
	return out
}

// Promote reclassifies k from Phantom to Discovered, used by workflows that
// confirm a previously-phantom key actually exists on the remote (§9 open
// question: compare may optionally promote discovered entities; this is a
// policy decision left to the caller, never automatic — see
// pkg/config's PromoteDiscovered flag).
func (r *Resolver) Promote(k object.K) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.phantoms, k)
	r.discovered[k] = true
}
