package object

import (
	"fmt"

	"github.com/forgehub/forgehub/pkg/remote"
)

// Permission is the "permission" kind: a bare named grant other kinds can
// reference. It has no fields of its own beyond its name.
type Permission struct {
	Base
}

func (p *Permission) DependencyKeys() []DepEdge              { return nil }
func (p *Permission) CanDefer(DepSlot) bool                   { return false }
func (p *Permission) Split(map[DepSlot]bool) (Entity, Entity) { return p, nil }

type PermissionObserved struct{}

func (p *Permission) EnqueueRead(b remote.Batch) []remote.Promise {
	return []remote.Promise{b.Submit(remote.CallDescriptor{Method: "getPermission", Args: []any{p.K.Name}})}
}

func (p *Permission) Diff(read []remote.Promise) ([]Change, error) {
	v, err := read[0].Result()
	if err != nil {
		return nil, err
	}
	if v != nil {
		return nil, nil
	}
	return []Change{{
		Op:          OpCreateObject,
		Parameters:  Param("kind", string(KindPermission), "name", p.K.Name),
		Description: fmt.Sprintf("create permission %s", p.K.Name),
	}}, nil
}

func (p *Permission) EnqueueWrites(b remote.Batch, changes []Change) []remote.Promise {
	promises := make([]remote.Promise, len(changes))
	for i, c := range changes {
		promises[i] = b.Submit(remote.CallDescriptor{Method: "apply" + string(c.Op), Args: []any{p.K.Name, c.Parameters}})
	}
	return promises
}
