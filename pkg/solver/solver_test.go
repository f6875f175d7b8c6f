package solver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgehub/forgehub/pkg/object"
	"github.com/forgehub/forgehub/pkg/remote"
	"github.com/forgehub/forgehub/pkg/resolver"
)

func tagKey(name string) object.K { return object.K{Kind: object.KindTag, Name: name} }

func tierIndex(tiers []Tier, k object.K) int {
	for i, tier := range tiers {
		for _, e := range tier {
			if e.Key() == k {
				return i
			}
		}
	}
	return -1
}

func TestSolveOrdersSimpleChain(t *testing.T) {
	base := &object.Tag{Base: object.Base{K: tagKey("base")}}
	child := &object.Tag{Base: object.Base{K: tagKey("child")}, Inherit: []object.PriorityLink{{Name: "base", Priority: 0}}}
	expanded := map[object.K]object.Entity{base.K: base, child.K: child}

	tiers, err := Solve(expanded, resolver.New(expanded))
	require.NoError(t, err)
	require.Less(t, tierIndex(tiers, base.K), tierIndex(tiers, child.K), "base tier should precede child tier")
}

func TestSolveTreatsUndeclaredReferenceAsPhantomNotObligation(t *testing.T) {
	child := &object.Tag{Base: object.Base{K: tagKey("child")}, Inherit: []object.PriorityLink{{Name: "missing-base", Priority: 0}}}
	expanded := map[object.K]object.Entity{child.K: child}
	res := resolver.New(expanded)

	tiers, err := Solve(expanded, res)
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	require.Len(t, tiers[0], 1)
	require.Equal(t, resolver.Phantom, res.Lookup(tagKey("missing-base"), object.Origin{}))
}

func TestSolveSplitsMutualTagInheritanceCycle(t *testing.T) {
	a := &object.Tag{Base: object.Base{K: tagKey("a")}, Inherit: []object.PriorityLink{{Name: "b", Priority: 0}}}
	b := &object.Tag{Base: object.Base{K: tagKey("b")}, Inherit: []object.PriorityLink{{Name: "a", Priority: 0}}}
	expanded := map[object.K]object.Entity{a.K: a, b.K: b}

	tiers, err := Solve(expanded, resolver.New(expanded))
	require.NoError(t, err)

	var sawDeferred bool
	for _, tier := range tiers {
		for _, e := range tier {
			if _, ok := object.IsDeferred(e.Key().Kind); ok {
				sawDeferred = true
			}
		}
	}
	require.True(t, sawDeferred, "splitting a mutual inherit cycle should produce a deferred-update shadow")

	// The deferred shadow for each tag must land in a tier after that tag's
	// own primary (it depends on the primary having been created first).
	for _, name := range []string{"a", "b"} {
		primaryTier := tierIndex(tiers, tagKey(name))
		deferredTier := tierIndex(tiers, object.K{Kind: object.DeferredKind(object.KindTag), Name: name})
		if deferredTier == -1 {
			continue
		}
		require.Lessf(t, primaryTier, deferredTier, "%s: primary tier should precede its deferred shadow tier", name)
	}
}

// unbreakableEntity is a minimal object.Entity whose dependency slot never
// admits splitting, used to exercise the UnbreakableCycleError path without
// relying on a core kind that happens to have no such slot.
type unbreakableEntity struct {
	object.Base
	dep object.K
}

func (u *unbreakableEntity) DependencyKeys() []object.DepEdge {
	return []object.DepEdge{{Target: u.dep, Slot: "locked"}}
}
func (u *unbreakableEntity) CanDefer(object.DepSlot) bool { return false }
func (u *unbreakableEntity) Split(map[object.DepSlot]bool) (object.Entity, object.Entity) {
	return u, nil
}
func (u *unbreakableEntity) EnqueueRead(remote.Batch) []remote.Promise      { return nil }
func (u *unbreakableEntity) Diff([]remote.Promise) ([]object.Change, error) { return nil, nil }
func (u *unbreakableEntity) EnqueueWrites(remote.Batch, []object.Change) []remote.Promise {
	return nil
}

func TestSolveReturnsUnbreakableCycleError(t *testing.T) {
	kA := object.K{Kind: "fixture", Name: "a"}
	kB := object.K{Kind: "fixture", Name: "b"}
	a := &unbreakableEntity{Base: object.Base{K: kA}, dep: kB}
	b := &unbreakableEntity{Base: object.Base{K: kB}, dep: kA}
	expanded := map[object.K]object.Entity{kA: a, kB: b}

	_, err := Solve(expanded, resolver.New(expanded))
	require.Error(t, err)
	require.IsType(t, &UnbreakableCycleError{}, err)
}

func TestSolveOrdersTierDeterministicallyByKindThenName(t *testing.T) {
	b := &object.Tag{Base: object.Base{K: tagKey("b")}}
	a := &object.Tag{Base: object.Base{K: tagKey("a")}}
	expanded := map[object.K]object.Entity{b.K: b, a.K: a}

	tiers, err := Solve(expanded, resolver.New(expanded))
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	require.Len(t, tiers[0], 2)
	require.Equal(t, "a", tiers[0][0].Key().Name)
	require.Equal(t, "b", tiers[0][1].Key().Name)
}
