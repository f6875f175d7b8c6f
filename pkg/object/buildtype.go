package object

import (
	"fmt"

	"github.com/forgehub/forgehub/pkg/remote"
)

// BuildType is the "build-type" kind: a bare named build-type registration.
type BuildType struct {
	Base
}

func (b *BuildType) DependencyKeys() []DepEdge              { return nil }
func (b *BuildType) CanDefer(DepSlot) bool                   { return false }
func (b *BuildType) Split(map[DepSlot]bool) (Entity, Entity) { return b, nil }

type BuildTypeObserved struct{}

func (b *BuildType) EnqueueRead(batch remote.Batch) []remote.Promise {
	return []remote.Promise{batch.Submit(remote.CallDescriptor{Method: "getBuildType", Args: []any{b.K.Name}})}
}

func (bt *BuildType) Diff(read []remote.Promise) ([]Change, error) {
	v, err := read[0].Result()
	if err != nil {
		return nil, err
	}
	if v != nil {
		return nil, nil
	}
	return []Change{{
		Op:          OpCreateObject,
		Parameters:  Param("kind", string(KindBuildType), "name", bt.K.Name),
		Description: fmt.Sprintf("create build-type %s", bt.K.Name),
	}}, nil
}

func (bt *BuildType) EnqueueWrites(b remote.Batch, changes []Change) []remote.Promise {
	promises := make([]remote.Promise, len(changes))
	for i, c := range changes {
		promises[i] = b.Submit(remote.CallDescriptor{Method: "apply" + string(c.Op), Args: []any{bt.K.Name, c.Parameters}})
	}
	return promises
}
