package object

import (
	"fmt"

	"github.com/forgehub/forgehub/pkg/remote"
)

// Group is the "group" (package group) kind: members, permissions,
// enabled flag, exact-* policy flags.
type Group struct {
	Base

	Members     []string
	Permissions []string
	Enabled     bool
	ExactMembers bool
	ExactPerms   bool
}

const SlotGroupMembers DepSlot = "members"

func (g *Group) DependencyKeys() []DepEdge {
	edges := make([]DepEdge, 0, len(g.Members))
	for _, m := range g.Members {
		edges = append(edges, DepEdge{Target: K{Kind: KindUser, Name: m}, Slot: SlotGroupMembers})
	}
	return edges
}

func (g *Group) CanDefer(slot DepSlot) bool { return slot == SlotGroupMembers }

func (g *Group) Split(dropSlots map[DepSlot]bool) (Entity, Entity) {
	if !dropSlots[SlotGroupMembers] {
		return g, nil
	}
	primary := *g
	primary.Members = nil
	deferred := &DeferredUpdate{
		Base:        Base{K: K{Kind: DeferredKind(KindGroup), Name: g.K.Name}, Pos: g.Pos},
		PrimaryKind: KindGroup,
		Fragments:   map[DepSlot]any{SlotGroupMembers: g.Members},
	}
	return &primary, deferred
}

type GroupObserved struct {
	Members     []string
	Permissions []string
	Enabled     bool
}

func (g *Group) EnqueueRead(b remote.Batch) []remote.Promise {
	return []remote.Promise{b.Submit(remote.CallDescriptor{Method: "getPackageGroup", Args: []any{g.K.Name}})}
}

func (g *Group) Diff(read []remote.Promise) ([]Change, error) {
	v, err := read[0].Result()
	if err != nil {
		return nil, err
	}
	obs, _ := v.(*GroupObserved)
	exists := obs != nil

	var changes []Change
	if !exists {
		changes = append(changes, Change{
			Op:          OpCreateObject,
			Parameters:  Param("kind", string(KindGroup), "name", g.K.Name),
			Description: fmt.Sprintf("create group %s", g.K.Name),
		})
	}
	observedScalars := map[string]any{}
	var observedMembers, observedPerms []string
	if exists {
		observedScalars["enabled"] = obs.Enabled
		observedMembers = obs.Members
		observedPerms = obs.Permissions
	}
	changes = append(changes, diffScalarFields([]ScalarField{
		{Name: "enabled", Desired: g.Enabled, Default: true},
	}, observedScalars, exists)...)
	changes = append(changes, diffMembers(MemberOps, "members", g.Members, observedMembers, g.ExactMembers)...)
	changes = append(changes, diffPermissionGrants(g.Permissions, observedPerms, g.ExactPerms)...)
	return changes, nil
}

func (g *Group) EnqueueWrites(b remote.Batch, changes []Change) []remote.Promise {
	promises := make([]remote.Promise, len(changes))
	for i, c := range changes {
		promises[i] = b.Submit(remote.CallDescriptor{Method: "apply" + string(c.Op), Args: []any{g.K.Name, c.Parameters}})
	}
	return promises
}
