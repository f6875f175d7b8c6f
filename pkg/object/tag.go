package object

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/forgehub/forgehub/pkg/remote"
)

// Tag is the "tag" kind: an ordered list of inheritance links, an ordered
// list of external-repo links, an extras map, a group->package-list map,
// an arches set, locked/maven flags, and an optional permission name.
type Tag struct {
	Base

	Inherit       []PriorityLink // deferrable slot "inherit"
	ExternalRepos []PriorityLink // deferrable slot "external-repos"
	Extras        map[string]any
	Packages      map[string][]string // group -> package names
	Arches        []string
	Locked        bool
	Maven         bool
	Permission    string // "" if unset
}

const (
	SlotTagInherit       DepSlot = "inherit"
	SlotTagExternalRepos DepSlot = "external-repos"
)

func (t *Tag) DependencyKeys() []DepEdge {
	var edges []DepEdge
	for _, l := range t.Inherit {
		edges = append(edges, DepEdge{Target: K{Kind: KindTag, Name: l.Name}, Slot: SlotTagInherit})
	}
	for _, l := range t.ExternalRepos {
		edges = append(edges, DepEdge{Target: K{Kind: KindExternalRepo, Name: l.Name}, Slot: SlotTagExternalRepos})
	}
	if t.Permission != "" {
		edges = append(edges, DepEdge{Target: K{Kind: KindPermission, Name: t.Permission}, Slot: ""})
	}
	return edges
}

func (t *Tag) CanDefer(slot DepSlot) bool {
	return slot == SlotTagInherit || slot == SlotTagExternalRepos
}

func (t *Tag) Split(dropSlots map[DepSlot]bool) (Entity, Entity) {
	if len(dropSlots) == 0 {
		return t, nil
	}
	primary := *t
	deferred := &DeferredUpdate{
		Base:        Base{K: K{Kind: DeferredKind(KindTag), Name: t.K.Name}, Pos: t.Pos},
		PrimaryKind: KindTag,
		Fragments:   map[DepSlot]any{},
	}
	if dropSlots[SlotTagInherit] {
		deferred.Fragments[SlotTagInherit] = t.Inherit
		primary.Inherit = nil
	}
	if dropSlots[SlotTagExternalRepos] {
		deferred.Fragments[SlotTagExternalRepos] = t.ExternalRepos
		primary.ExternalRepos = nil
	}
	return &primary, deferred
}

// TagObserved is what a read probe returns for a tag, or nil if the tag
// does not exist remotely.
type TagObserved struct {
	Inherit       []PriorityLink
	ExternalRepos []PriorityLink
	Extras        map[string]any
	Packages      map[string][]string
	Arches        []string
	Locked        bool
	Maven         bool
	Permission    string
}

func (t *Tag) EnqueueRead(b remote.Batch) []remote.Promise {
	return []remote.Promise{b.Submit(remote.CallDescriptor{Method: "getTag", Args: []any{t.K.Name}})}
}

func (t *Tag) Diff(read []remote.Promise) ([]Change, error) {
	v, err := read[0].Result()
	if err != nil {
		return nil, err
	}
	obs, _ := v.(*TagObserved)
	exists := obs != nil

	var changes []Change
	if !exists {
		changes = append(changes, Change{
			Op:          OpCreateObject,
			Parameters:  Param("kind", string(KindTag), "name", t.K.Name),
			Description: fmt.Sprintf("create tag %s", t.K.Name),
		})
	}

	observedScalars := map[string]any{}
	var observedInherit, observedRepos []PriorityLink
	var observedArches []string
	var observedExtras map[string]any
	var observedPackages map[string][]string
	if exists {
		observedScalars["locked"] = obs.Locked
		observedScalars["maven"] = obs.Maven
		observedScalars["permission"] = obs.Permission
		observedInherit = obs.Inherit
		observedRepos = obs.ExternalRepos
		observedArches = obs.Arches
		observedExtras = obs.Extras
		observedPackages = obs.Packages
	}

	changes = append(changes, diffScalarFields([]ScalarField{
		{Name: "locked", Desired: t.Locked, Default: false},
		{Name: "maven", Desired: t.Maven, Default: false},
		{Name: "permission", Desired: t.Permission, Default: ""},
	}, observedScalars, exists)...)

	changes = append(changes, diffLinkList(OpSetInheritance, "inherit", t.Inherit, observedInherit)...)
	changes = append(changes, diffLinkList(OpSetField, "external-repos", t.ExternalRepos, observedRepos)...)

	if !stringSliceEqual(sortedStrings(t.Arches), sortedStrings(observedArches)) {
		changes = append(changes, Change{
			Op:          OpSetField,
			Parameters:  Param("field", "arches", "value", t.Arches),
			Description: "set arches",
		})
	}

	changes = append(changes, diffAnyMap("extras", t.Extras, observedExtras)...)
	changes = append(changes, diffPackageMap("packages", t.Packages, observedPackages)...)

	return changes, nil
}

// diffAnyMap emits one field-set change if desired differs from observed; a
// nil and an empty map are treated as equivalent, matching default-elision
// for every other field.
func diffAnyMap(field string, desired, observed map[string]any) []Change {
	if len(desired) == 0 && len(observed) == 0 {
		return nil
	}
	if reflect.DeepEqual(desired, observed) {
		return nil
	}
	return []Change{{
		Op:          OpSetField,
		Parameters:  Param("field", field, "value", desired),
		Description: fmt.Sprintf("set %s", field),
	}}
}

// diffPackageMap is diffAnyMap's counterpart for the group -> package-list
// shape of a tag's "packages" field.
func diffPackageMap(field string, desired, observed map[string][]string) []Change {
	if len(desired) == 0 && len(observed) == 0 {
		return nil
	}
	if reflect.DeepEqual(desired, observed) {
		return nil
	}
	return []Change{{
		Op:          OpSetField,
		Parameters:  Param("field", field, "value", desired),
		Description: fmt.Sprintf("set %s", field),
	}}
}

func (t *Tag) EnqueueWrites(b remote.Batch, changes []Change) []remote.Promise {
	promises := make([]remote.Promise, len(changes))
	for i, c := range changes {
		promises[i] = b.Submit(remote.CallDescriptor{
			Method: "apply" + string(c.Op),
			Args:   []any{t.K.Name, c.Parameters},
		})
	}
	return promises
}

func sortedStrings(xs []string) []string {
	out := make([]string, len(xs))
	copy(out, xs)
	sort.Strings(out)
	return out
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
