package object

import "github.com/forgehub/forgehub/pkg/remote"

// Entity is the contract every kind must satisfy (§4.3, §9 "single entity
// interface contract"). Implementations are immutable after expansion
// except for the solver's Split, which produces new values rather than
// mutating the receiver.
type Entity interface {
	// Key returns the entity's stable identity.
	Key() K
	// Origin returns the entity's position metadata.
	Origin() Origin

	// DependencyKeys returns every (target, slot) edge this entity
	// declares. Edges whose target is unresolved point to phantoms and
	// contribute no ordering obligation (§4.3 step 1).
	DependencyKeys() []DepEdge
	// CanDefer reports whether slot's edges may be dropped and carried by
	// a deferred-update shadow when breaking a cycle.
	CanDefer(slot DepSlot) bool
	// Split returns a copy of the entity with every edge in dropSlots
	// removed (primary), plus a deferred-update shadow carrying exactly
	// those dropped slots (deferred). If dropSlots is empty, deferred is
	// nil and primary is the receiver unchanged.
	Split(dropSlots map[DepSlot]bool) (primary Entity, deferred Entity)

	// EnqueueRead appends this entity's read probes to b and returns one
	// promise per probe, in an order only this entity's Diff needs to
	// understand.
	EnqueueRead(b remote.Batch) []remote.Promise
	// Diff computes the change list once every promise from EnqueueRead
	// has settled. read is exactly the slice EnqueueRead returned.
	Diff(read []remote.Promise) ([]Change, error)
	// EnqueueWrites appends one call per Change (in order) to b and
	// returns one promise per call.
	EnqueueWrites(b remote.Batch, changes []Change) []remote.Promise
}

// Base is embedded by every concrete kind to provide Key/Origin.
type Base struct {
	K   K
	Pos Origin
}

func (b Base) Key() K        { return b.K }
func (b Base) Origin() Origin { return b.Pos }
