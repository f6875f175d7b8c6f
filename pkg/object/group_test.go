package object

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgehub/forgehub/pkg/remote"
)

func TestGroupDependencyKeysOneEdgePerMember(t *testing.T) {
	g := &Group{Base: Base{K: K{Kind: KindGroup, Name: "build"}}, Members: []string{"alice", "bob"}}
	edges := g.DependencyKeys()
	require.Len(t, edges, 2)
	for _, e := range edges {
		require.Equal(t, KindUser, e.Target.Kind)
		require.Equal(t, SlotGroupMembers, e.Slot)
	}
}

func TestGroupDiffExactMembersRemovesExtras(t *testing.T) {
	g := &Group{
		Base:         Base{K: K{Kind: KindGroup, Name: "build"}},
		Members:      []string{"alice"},
		Enabled:      true,
		ExactMembers: true,
	}
	observed := &GroupObserved{Members: []string{"alice", "stale-user"}, Enabled: true}
	p := resolvedPromise(t, observed, nil)

	changes, err := g.Diff([]remote.Promise{p})
	require.NoError(t, err)

	removed := false
	for _, c := range changes {
		if c.Op == OpRemoveMember && c.Parameters["member"] == "stale-user" {
			removed = true
		}
	}
	require.True(t, removed, "exact-members should remove an observed member absent from desired state")
}
