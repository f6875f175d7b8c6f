package object

import (
	"fmt"

	"github.com/forgehub/forgehub/pkg/remote"
)

// DeferredUpdate is the synthetic shadow the solver creates to break a
// cycle (§4.3): it carries only the dependency-slot fragments dropped from
// its primary, and depends on the primary plus every target of those
// dropped edges.
type DeferredUpdate struct {
	Base

	PrimaryKind Kind
	Fragments   map[DepSlot]any // slot -> the original slot value (e.g. []PriorityLink, []string)

	// dependsOn is populated by the solver once it knows the primary's key
	// and the targets of the dropped edges (the primary is always safe to
	// emit in an earlier tier by construction).
	dependsOn []DepEdge
}

// SetDependencies lets the solver attach the computed dependency edges
// (primary + dropped-edge targets) once it has split the original entity.
func (d *DeferredUpdate) SetDependencies(edges []DepEdge) {
	d.dependsOn = edges
}

func (d *DeferredUpdate) DependencyKeys() []DepEdge { return d.dependsOn }
func (d *DeferredUpdate) CanDefer(DepSlot) bool      { return false }
func (d *DeferredUpdate) Split(map[DepSlot]bool) (Entity, Entity) { return d, nil }

func (d *DeferredUpdate) EnqueueRead(b remote.Batch) []remote.Promise {
	// A deferred shadow carries only updates to slots that already exist
	// conceptually on the primary (the primary's own read already proved
	// existence in an earlier tier); no additional read is required.
	return nil
}

func (d *DeferredUpdate) Diff(read []remote.Promise) ([]Change, error) {
	var changes []Change
	for slot, value := range d.Fragments {
		switch v := value.(type) {
		case []PriorityLink:
			changes = append(changes, Change{
				Op:          OpSetInheritance,
				Parameters:  Param("field", string(slot), "links", sortedLinks(v)),
				Description: fmt.Sprintf("deferred set %s on %s", slot, d.K.Name),
			})
		case []string:
			changes = append(changes, Change{
				Op:          OpAddMember,
				Parameters:  Param("field", string(slot), "members", v),
				Description: fmt.Sprintf("deferred set %s on %s", slot, d.K.Name),
			})
		}
	}
	return changes, nil
}

func (d *DeferredUpdate) EnqueueWrites(b remote.Batch, changes []Change) []remote.Promise {
	promises := make([]remote.Promise, len(changes))
	for i, c := range changes {
		promises[i] = b.Submit(remote.CallDescriptor{
			Method: "apply" + string(c.Op),
			Args:   []any{d.K.Name, c.Parameters},
		})
	}
	return promises
}
