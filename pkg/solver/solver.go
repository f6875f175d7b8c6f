// Package solver converts a namespace's expanded entities into an ordered
// stream of tiers, splitting intra-tier cycles via deferred-update shadows
// (spec §4.3).
package solver

import (
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/forgehub/forgehub/pkg/object"
	"github.com/forgehub/forgehub/pkg/resolver"
)

// Tier is an ordered, deterministic (by kind then name) list of entities
// with no dependency edge between any two of them.
type Tier []object.Entity

// UnbreakableCycleError reports a strongly connected set containing an
// entity whose conflicting slot cannot be deferred (e.g. a Target, whose
// slots never admit splitting).
type UnbreakableCycleError struct {
	Keys []object.K
}

func (e *UnbreakableCycleError) Error() string {
	return fmt.Sprintf("unbreakable dependency cycle among %v", e.Keys)
}

// Solve builds the dependency graph over expanded and the resolver's
// phantom classifications, and returns the tier sequence (§4.3).
func Solve(expanded map[object.K]object.Entity, res *resolver.Resolver) ([]Tier, error) {
	// entities is the mutable working set: tiers are drained from it and
	// splits replace an entry with its primary, inserting the deferred
	// shadow for a later round.
	entities := make(map[object.K]object.Entity, len(expanded))
	for k, e := range expanded {
		entities[k] = e
	}

	var tiers []Tier
	for len(entities) > 0 {
		g, edgeSlots, err := buildGraph(entities, expanded, res)
		if err != nil {
			return nil, err
		}

		tier, err := frontier(g, entities)
		if err != nil {
			return nil, err
		}

		if len(tier) > 0 {
			tiers = append(tiers, toTier(entities, tier))
			for _, k := range tier {
				delete(entities, k)
			}
			continue
		}

		// No indegree-zero node but entities remain: a cycle exists (§4.3).
		if err := breakOneCycle(g, entities, edgeSlots); err != nil {
			return nil, err
		}
	}

	return tiers, nil
}

func buildGraph(entities, original map[object.K]object.Entity, res *resolver.Resolver) (graph.Graph[object.K, object.K], map[object.K]map[object.K][]object.DepSlot, error) {
	g := graph.New(func(k object.K) object.K { return k }, graph.Directed())
	edgeSlots := map[object.K]map[object.K][]object.DepSlot{}

	for k := range entities {
		if err := g.AddVertex(k); err != nil && err != graph.ErrVertexAlreadyExists {
			return nil, nil, fmt.Errorf("solver: adding vertex %s: %w", k, err)
		}
	}

	for k, e := range entities {
		for _, edge := range e.DependencyKeys() {
			if _, ok := original[edge.Target]; !ok {
				// Undeclared: a phantom. Record the reference but impose no
				// ordering obligation (I2).
				res.Lookup(edge.Target, e.Origin())
				continue
			}
			if _, stillPending := entities[edge.Target]; !stillPending {
				// Already emitted in a prior tier; its precondition is met.
				continue
			}
			if edge.Target == k {
				continue
			}
			if edgeSlots[k] == nil {
				edgeSlots[k] = map[object.K][]object.DepSlot{}
			}
			edgeSlots[k][edge.Target] = append(edgeSlots[k][edge.Target], edge.Slot)

			if err := g.AddEdge(k, edge.Target); err != nil && err != graph.ErrEdgeAlreadyExists {
				return nil, nil, fmt.Errorf("solver: adding edge %s->%s: %w", k, edge.Target, err)
			}
		}
	}
	return g, edgeSlots, nil
}

// frontier returns every vertex with indegree zero among entities, ordered
// deterministically by (kind, name) (spec §4.3 step 2).
func frontier(g graph.Graph[object.K, object.K], entities map[object.K]object.Entity) ([]object.K, error) {
	pred, err := g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("solver: computing predecessor map: %w", err)
	}

	var tier []object.K
	for k := range entities {
		if len(pred[k]) == 0 {
			tier = append(tier, k)
		}
	}
	sortKeys(tier)
	return tier, nil
}

// breakOneCycle identifies a minimal strongly connected set and splits each
// member that admits it, mutating entities in place (§4.3).
func breakOneCycle(g graph.Graph[object.K, object.K], entities map[object.K]object.Entity, edgeSlots map[object.K]map[object.K][]object.DepSlot) error {
	components, err := graph.StronglyConnectedComponents(g)
	if err != nil {
		return fmt.Errorf("solver: computing strongly connected components: %w", err)
	}

	scc := pickCycle(components, edgeSlots)
	if scc == nil {
		return fmt.Errorf("solver: no indegree-zero entity remains but no cycle was found (%d entities left)", len(entities))
	}

	inSCC := make(map[object.K]bool, len(scc))
	for _, k := range scc {
		inSCC[k] = true
	}

	var unbreakable []object.K
	for _, k := range scc {
		e := entities[k]
		dropSlots := map[object.DepSlot]bool{}
		var droppedEdges []object.DepEdge

		for _, edge := range e.DependencyKeys() {
			if !inSCC[edge.Target] {
				continue
			}
			if !e.CanDefer(edge.Slot) {
				unbreakable = append(unbreakable, k)
				continue
			}
			if !dropSlots[edge.Slot] {
				dropSlots[edge.Slot] = true
				droppedEdges = append(droppedEdges, edge)
			}
		}

		if len(dropSlots) == 0 {
			continue
		}

		primary, deferred := e.Split(dropSlots)
		entities[k] = primary

		if deferred == nil {
			continue
		}
		du, ok := deferred.(*object.DeferredUpdate)
		if !ok {
			return fmt.Errorf("solver: %s produced a deferred shadow of unexpected type %T", k, deferred)
		}
		deps := make([]object.DepEdge, 0, len(droppedEdges)+1)
		deps = append(deps, object.DepEdge{Target: primary.Key()})
		deps = append(deps, droppedEdges...)
		du.SetDependencies(deps)
		entities[du.Key()] = du
	}

	if len(unbreakable) > 0 {
		sortKeys(unbreakable)
		return &UnbreakableCycleError{Keys: unbreakable}
	}
	return nil
}

// pickCycle returns the smallest (by sorted representative) SCC of size
// greater than one, or a single-vertex SCC with a self-loop. Returns nil if
// every component is trivial (shouldn't happen when frontier is empty).
func pickCycle(components [][]object.K, edgeSlots map[object.K]map[object.K][]object.DepSlot) []object.K {
	var best []object.K
	for _, c := range components {
		cycle := len(c) > 1
		if len(c) == 1 {
			if _, selfLoop := edgeSlots[c[0]][c[0]]; selfLoop {
				cycle = true
			}
		}
		if !cycle {
			continue
		}
		sortKeys(c)
		if best == nil || lessKeys(c, best) {
			best = c
		}
	}
	return best
}

func lessKeys(a, b []object.K) bool {
	if len(a) == 0 {
		return false
	}
	if len(b) == 0 {
		return true
	}
	if a[0].Kind != b[0].Kind {
		return a[0].Kind < b[0].Kind
	}
	return a[0].Name < b[0].Name
}

func sortKeys(ks []object.K) {
	sort.Slice(ks, func(i, j int) bool {
		if ks[i].Kind != ks[j].Kind {
			return ks[i].Kind < ks[j].Kind
		}
		return ks[i].Name < ks[j].Name
	})
}

func toTier(entities map[object.K]object.Entity, keys []object.K) Tier {
	t := make(Tier, len(keys))
	for i, k := range keys {
		t[i] = entities[k]
	}
	return t
}
