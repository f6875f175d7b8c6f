package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgehub/forgehub/pkg/changereport"
	"github.com/forgehub/forgehub/pkg/ferr"
	"github.com/forgehub/forgehub/pkg/object"
	"github.com/forgehub/forgehub/pkg/remote"
	"github.com/forgehub/forgehub/pkg/resolver"
	"github.com/forgehub/forgehub/pkg/solver"
)

func tagKey(name string) object.K { return object.K{Kind: object.KindTag, Name: name} }

func newTag(name string, inherit ...string) *object.Tag {
	var links []object.PriorityLink
	for i, n := range inherit {
		links = append(links, object.PriorityLink{Name: n, Priority: i})
	}
	return &object.Tag{Base: object.Base{K: tagKey(name)}, Inherit: links}
}

func everythingMissingHandler(remote.CallDescriptor) (any, error) { return nil, nil }

func TestProcessorAppliesASimpleChain(t *testing.T) {
	base := newTag("base")
	child := newTag("child", "base")
	expanded := map[object.K]object.Entity{base.K: base, child.K: child}
	res := resolver.New(expanded)
	tiers, err := solver.Solve(expanded, res)
	require.NoError(t, err)

	sess := remote.NewFakeSession(everythingMissingHandler)
	p := &Processor{Session: sess, Resolver: res}

	result, err := p.Run(context.Background(), tiers)
	require.NoError(t, err)
	require.Len(t, result.Reports, 2)
	for _, r := range result.Reports {
		require.Equalf(t, changereport.Applied, r.State, "%s", r.Entity.Key())
	}
}

func TestProcessorRefusesApplyWithUnresolvedPhantomByDefault(t *testing.T) {
	child := newTag("child", "missing-base")
	expanded := map[object.K]object.Entity{child.K: child}
	res := resolver.New(expanded)
	tiers, err := solver.Solve(expanded, res)
	require.NoError(t, err)

	p := &Processor{Session: remote.NewFakeSession(everythingMissingHandler), Resolver: res}
	_, err = p.Run(context.Background(), tiers)
	require.Error(t, err)
	require.IsType(t, &ferr.PhantomError{}, err)
}

func TestProcessorSkipPhantomsDropsAffectedEntities(t *testing.T) {
	child := newTag("child", "missing-base")
	expanded := map[object.K]object.Entity{child.K: child}
	res := resolver.New(expanded)
	tiers, err := solver.Solve(expanded, res)
	require.NoError(t, err)

	p := &Processor{Session: remote.NewFakeSession(everythingMissingHandler), Resolver: res, Options: Options{SkipPhantoms: true}}
	result, err := p.Run(context.Background(), tiers)
	require.NoError(t, err)
	require.Empty(t, result.Reports, "the only entity should be dropped")
	require.NotEmpty(t, result.Diagnostics)
	require.Contains(t, result.Diagnostics[0], "missing-base", "the diagnostic must name the phantom key, not just the referencing entity")
}

func TestProcessorPromoteDiscoveredUnblocksConfirmedPhantom(t *testing.T) {
	child := newTag("child", "missing-base")
	expanded := map[object.K]object.Entity{child.K: child}
	res := resolver.New(expanded)
	tiers, err := solver.Solve(expanded, res)
	require.NoError(t, err)

	sess := remote.NewFakeSession(func(d remote.CallDescriptor) (any, error) {
		if d.Method == "getTag" && len(d.Args) == 1 && d.Args[0] == "missing-base" {
			return &object.TagObserved{}, nil
		}
		return nil, nil
	})

	registry := object.NewRegistry()
	p := &Processor{
		Session:  sess,
		Resolver: res,
		Registry: registry,
		Options:  Options{PromoteDiscovered: true},
	}

	result, err := p.Run(context.Background(), tiers)
	require.NoError(t, err, "the phantom was confirmed present, so apply must not be refused")
	require.Len(t, result.Reports, 1)
	require.Equal(t, changereport.Applied, result.Reports[0].State)

	found := false
	for _, d := range result.Diagnostics {
		if d != "" {
			found = true
		}
	}
	require.True(t, found, "expected a promotion diagnostic")
	require.Equal(t, resolver.Discovered, res.Lookup(tagKey("missing-base"), object.Origin{}))
}

func TestProcessorPromoteDiscoveredLeavesUnconfirmedPhantomBlocking(t *testing.T) {
	child := newTag("child", "missing-base")
	expanded := map[object.K]object.Entity{child.K: child}
	res := resolver.New(expanded)
	tiers, err := solver.Solve(expanded, res)
	require.NoError(t, err)

	p := &Processor{
		Session:  remote.NewFakeSession(everythingMissingHandler),
		Resolver: res,
		Registry: object.NewRegistry(),
		Options:  Options{PromoteDiscovered: true},
	}

	_, err = p.Run(context.Background(), tiers)
	require.Error(t, err, "the probe found nothing, so the phantom must still block apply")
	require.IsType(t, &ferr.PhantomError{}, err)
}

func TestProcessorCompareOnlyNeverOpensWriteBatch(t *testing.T) {
	tag := newTag("dist-f40")
	tag.Maven = true
	expanded := map[object.K]object.Entity{tag.K: tag}
	res := resolver.New(expanded)
	tiers, err := solver.Solve(expanded, res)
	require.NoError(t, err)

	writeAttempted := false
	sess := remote.NewFakeSession(func(d remote.CallDescriptor) (any, error) {
		if d.Method != "getTag" {
			writeAttempted = true
		}
		return nil, nil
	})
	p := &Processor{Session: sess, Resolver: res, Options: Options{CompareOnly: true}}

	result, err := p.Run(context.Background(), tiers)
	require.NoError(t, err)
	require.False(t, writeAttempted, "compare-only mode must never submit a write call")
	require.Equal(t, changereport.Applied, result.Reports[0].State, "marked as would-apply")
}

func TestProcessorCascadesUpstreamFailureToDependents(t *testing.T) {
	base := newTag("base")
	child := newTag("child", "base")
	expanded := map[object.K]object.Entity{base.K: base, child.K: child}
	res := resolver.New(expanded)
	tiers, err := solver.Solve(expanded, res)
	require.NoError(t, err)

	sess := remote.NewFakeSession(func(d remote.CallDescriptor) (any, error) {
		if d.Method == "getTag" {
			return nil, nil
		}
		return nil, errors.New("hub rejected")
	})
	p := &Processor{Session: sess, Resolver: res}

	result, err := p.Run(context.Background(), tiers)
	require.NoError(t, err)

	var baseReport, childReport *changereport.Report
	for _, r := range result.Reports {
		switch r.Entity.Key().Name {
		case "base":
			baseReport = r
		case "child":
			childReport = r
		}
	}
	require.Equal(t, changereport.Failed, baseReport.State, "apply rejected")
	require.Equal(t, changereport.Failed, childReport.State)
	require.Equal(t, "upstream failure", childReport.FailReason)
}

func TestProcessorChunksWithinATier(t *testing.T) {
	expanded := map[object.K]object.Entity{}
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		tag := newTag(name)
		expanded[tag.K] = tag
	}
	res := resolver.New(expanded)
	tiers, err := solver.Solve(expanded, res)
	require.NoError(t, err)

	sess := remote.NewFakeSession(everythingMissingHandler)
	sess.MaxConcurrency = 100
	p := &Processor{Session: sess, Resolver: res, Options: Options{ChunkSize: 2}}

	result, err := p.Run(context.Background(), tiers)
	require.NoError(t, err)
	require.Len(t, result.Reports, 5)
}

func TestProcessorRunStopsOnCancelledContext(t *testing.T) {
	base := newTag("base")
	child := newTag("child", "base")
	expanded := map[object.K]object.Entity{base.K: base, child.K: child}
	res := resolver.New(expanded)
	tiers, err := solver.Solve(expanded, res)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Processor{Session: remote.NewFakeSession(everythingMissingHandler), Resolver: res}
	result, err := p.Run(ctx, tiers)
	require.NoError(t, err)
	require.Empty(t, result.Reports, "every tier should be discarded before running")
	require.NotEmpty(t, result.Diagnostics)
}
