package object

import "fmt"

// Constructor builds a concrete Entity of a registered kind from a raw
// document's data fields (the document's `type` field has already been
// consumed by the caller).
type Constructor func(name string, data map[string]any, pos Origin) (Entity, error)

// Registry holds the kind -> constructor mapping (§4.1 "register-kind").
// It is built once at startup; the namespace consults it during ingest.
type Registry struct {
	constructors map[Kind]Constructor
	started      bool // true once the first expansion has begun
}

// NewRegistry returns a Registry pre-populated with the eleven core kinds.
func NewRegistry() *Registry {
	r := &Registry{constructors: map[Kind]Constructor{}}
	for kind, ctor := range defaultConstructors {
		r.constructors[kind] = ctor
	}
	return r
}

// Register installs or replaces the constructor for kind. Idempotent
// replacement is allowed only before expansion has begun (§4.1).
func (r *Registry) Register(kind Kind, ctor Constructor) error {
	if r.started {
		return fmt.Errorf("object: cannot register kind %q after expansion has begun", kind)
	}
	r.constructors[kind] = ctor
	return nil
}

// MarkStarted freezes the registry against further Register calls. Called
// by the namespace when expand() begins.
func (r *Registry) MarkStarted() { r.started = true }

// Lookup returns the constructor for kind, or ok=false if kind is not a
// core kind (in which case the caller should treat the document as a
// template-call).
func (r *Registry) Lookup(kind Kind) (Constructor, bool) {
	c, ok := r.constructors[kind]
	return c, ok
}

// New builds a zero-value Entity for k via its registered constructor, for
// read-only probes that need an Entity to call EnqueueRead on without a
// declared document (dump/fetch, discovered-dependency promotion).
func (r *Registry) New(k K) (Entity, error) {
	ctor, ok := r.constructors[k.Kind]
	if !ok {
		return nil, fmt.Errorf("object: no constructor registered for kind %q", k.Kind)
	}
	return ctor(k.Name, nil, Origin{})
}

// Kinds returns every registered kind name, for diagnostics.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.constructors))
	for k := range r.constructors {
		out = append(out, k)
	}
	return out
}
