package object

import (
	"fmt"

	"github.com/forgehub/forgehub/pkg/remote"
)

// ExternalRepo is the "external-repo" kind: just a URL.
type ExternalRepo struct {
	Base
	URL string // http/https
}

func (e *ExternalRepo) DependencyKeys() []DepEdge        { return nil }
func (e *ExternalRepo) CanDefer(DepSlot) bool             { return false }
func (e *ExternalRepo) Split(map[DepSlot]bool) (Entity, Entity) { return e, nil }

type ExternalRepoObserved struct {
	URL string
}

func (e *ExternalRepo) EnqueueRead(b remote.Batch) []remote.Promise {
	return []remote.Promise{b.Submit(remote.CallDescriptor{Method: "getExternalRepo", Args: []any{e.K.Name}})}
}

func (e *ExternalRepo) Diff(read []remote.Promise) ([]Change, error) {
	v, err := read[0].Result()
	if err != nil {
		return nil, err
	}
	obs, _ := v.(*ExternalRepoObserved)
	exists := obs != nil

	var changes []Change
	if !exists {
		changes = append(changes, Change{
			Op:          OpCreateObject,
			Parameters:  Param("kind", string(KindExternalRepo), "name", e.K.Name, "url", e.URL),
			Description: fmt.Sprintf("create external-repo %s", e.K.Name),
		})
		return changes, nil
	}
	changes = append(changes, diffScalarFields([]ScalarField{
		{Name: "url", Desired: e.URL, Default: ""},
	}, map[string]any{"url": obs.URL}, exists)...)
	return changes, nil
}

func (e *ExternalRepo) EnqueueWrites(b remote.Batch, changes []Change) []remote.Promise {
	promises := make([]remote.Promise, len(changes))
	for i, c := range changes {
		promises[i] = b.Submit(remote.CallDescriptor{Method: "apply" + string(c.Op), Args: []any{e.K.Name, c.Parameters}})
	}
	return promises
}
