package object

import (
	"fmt"

	"github.com/forgehub/forgehub/pkg/remote"
)

// Target is the "target" kind: a required build-tag and an optional
// dest-tag (defaulting to the target's own name).
type Target struct {
	Base

	BuildTag string
	DestTag  string // already defaulted to K.Name by the loader/namespace if absent
}

const (
	SlotTargetBuildTag DepSlot = "build-tag"
	SlotTargetDestTag  DepSlot = "dest-tag"
)

func (t *Target) DependencyKeys() []DepEdge {
	edges := []DepEdge{{Target: K{Kind: KindTag, Name: t.BuildTag}, Slot: SlotTargetBuildTag}}
	if t.DestTag != "" {
		edges = append(edges, DepEdge{Target: K{Kind: KindTag, Name: t.DestTag}, Slot: SlotTargetDestTag})
	}
	return edges
}

// Targets never admit splitting: both slots reference tags that must exist
// before the target is meaningful, and nothing in the object model forms a
// cycle through a target (targets are leaves in the dependency graph).
func (t *Target) CanDefer(DepSlot) bool { return false }

func (t *Target) Split(map[DepSlot]bool) (Entity, Entity) { return t, nil }

type TargetObserved struct {
	BuildTag string
	DestTag  string
}

func (t *Target) EnqueueRead(b remote.Batch) []remote.Promise {
	return []remote.Promise{b.Submit(remote.CallDescriptor{Method: "getBuildTarget", Args: []any{t.K.Name}})}
}

func (t *Target) Diff(read []remote.Promise) ([]Change, error) {
	v, err := read[0].Result()
	if err != nil {
		return nil, err
	}
	obs, _ := v.(*TargetObserved)
	exists := obs != nil

	var changes []Change
	if !exists {
		changes = append(changes, Change{
			Op:          OpCreateObject,
			Parameters:  Param("kind", string(KindTarget), "name", t.K.Name, "build-tag", t.BuildTag, "dest-tag", t.DestTag),
			Description: fmt.Sprintf("create target %s", t.K.Name),
		})
		return changes, nil
	}

	observed := map[string]any{"build-tag": obs.BuildTag, "dest-tag": obs.DestTag}
	changes = append(changes, diffScalarFields([]ScalarField{
		{Name: "build-tag", Desired: t.BuildTag, Default: ""},
		{Name: "dest-tag", Desired: t.DestTag, Default: t.K.Name},
	}, observed, exists)...)
	return changes, nil
}

func (t *Target) EnqueueWrites(b remote.Batch, changes []Change) []remote.Promise {
	promises := make([]remote.Promise, len(changes))
	for i, c := range changes {
		promises[i] = b.Submit(remote.CallDescriptor{Method: "apply" + string(c.Op), Args: []any{t.K.Name, c.Parameters}})
	}
	return promises
}
