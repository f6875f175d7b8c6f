package object

import (
	"fmt"

	"github.com/forgehub/forgehub/pkg/remote"
)

// User is the "user" kind: group memberships, permission grants, enabled
// flag, and exact-* policy flags.
type User struct {
	Base

	Groups      []string
	Permissions []string
	Enabled     bool
	ExactGroups bool
	ExactPerms  bool
}

const (
	SlotUserGroups      DepSlot = "groups"
	SlotUserPermissions DepSlot = "permissions"
)

func (u *User) DependencyKeys() []DepEdge {
	edges := make([]DepEdge, 0, len(u.Groups)+len(u.Permissions))
	for _, g := range u.Groups {
		edges = append(edges, DepEdge{Target: K{Kind: KindGroup, Name: g}, Slot: SlotUserGroups})
	}
	for _, p := range u.Permissions {
		edges = append(edges, DepEdge{Target: K{Kind: KindPermission, Name: p}, Slot: SlotUserPermissions})
	}
	return edges
}

// Groups is deferrable because user<->group membership is intentionally
// mutually referential at the declaration level (§3); permissions never
// need deferring since permissions carry no back-edges.
func (u *User) CanDefer(slot DepSlot) bool { return slot == SlotUserGroups }

func (u *User) Split(dropSlots map[DepSlot]bool) (Entity, Entity) {
	if !dropSlots[SlotUserGroups] {
		return u, nil
	}
	primary := *u
	primary.Groups = nil
	deferred := &DeferredUpdate{
		Base:        Base{K: K{Kind: DeferredKind(KindUser), Name: u.K.Name}, Pos: u.Pos},
		PrimaryKind: KindUser,
		Fragments:   map[DepSlot]any{SlotUserGroups: u.Groups},
	}
	return &primary, deferred
}

type UserObserved struct {
	Groups      []string
	Permissions []string
	Enabled     bool
}

func (u *User) EnqueueRead(b remote.Batch) []remote.Promise {
	return []remote.Promise{b.Submit(remote.CallDescriptor{Method: "getUser", Args: []any{u.K.Name}})}
}

func (u *User) Diff(read []remote.Promise) ([]Change, error) {
	v, err := read[0].Result()
	if err != nil {
		return nil, err
	}
	obs, _ := v.(*UserObserved)
	exists := obs != nil

	var changes []Change
	if !exists {
		changes = append(changes, Change{
			Op:          OpCreateObject,
			Parameters:  Param("kind", string(KindUser), "name", u.K.Name),
			Description: fmt.Sprintf("create user %s", u.K.Name),
		})
	}
	observedScalars := map[string]any{}
	var observedGroups, observedPerms []string
	if exists {
		observedScalars["enabled"] = obs.Enabled
		observedGroups = obs.Groups
		observedPerms = obs.Permissions
	}
	changes = append(changes, diffScalarFields([]ScalarField{
		{Name: "enabled", Desired: u.Enabled, Default: true},
	}, observedScalars, exists)...)
	changes = append(changes, diffMembers(MemberOps, "groups", u.Groups, observedGroups, u.ExactGroups)...)
	changes = append(changes, diffPermissionGrants(u.Permissions, observedPerms, u.ExactPerms)...)
	return changes, nil
}

func (u *User) EnqueueWrites(b remote.Batch, changes []Change) []remote.Promise {
	promises := make([]remote.Promise, len(changes))
	for i, c := range changes {
		promises[i] = b.Submit(remote.CallDescriptor{Method: "apply" + string(c.Op), Args: []any{u.K.Name, c.Parameters}})
	}
	return promises
}

// diffPermissionGrants emits a single set-permission-grant change carrying
// the full desired grant set when it differs from observed (exact clears
// grants not in the desired set; non-exact only adds).
func diffPermissionGrants(desired, observed []string, exact bool) []Change {
	desiredSet := toSet(desired)
	observedSet := toSet(observed)
	differs := false
	for name := range desiredSet {
		if !observedSet[name] {
			differs = true
		}
	}
	if exact {
		for name := range observedSet {
			if !desiredSet[name] {
				differs = true
			}
		}
	}
	if !differs {
		return nil
	}
	return []Change{{
		Op:          OpSetPermissionGrant,
		Parameters:  Param("field", "permissions", "value", sortedKeys(desiredSet), "exact", exact),
		Description: "set permission grants",
	}}
}
