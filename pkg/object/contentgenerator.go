package object

import (
	"fmt"

	"github.com/forgehub/forgehub/pkg/remote"
)

// ContentGenerator is the "content-generator" kind: a named generator plus
// the list of users permitted to invoke it.
type ContentGenerator struct {
	Base
	Users       []string // observed users not desired are removed only when ExactUsers is set
	ExactUsers  bool
}

const SlotContentGeneratorUsers DepSlot = "users"

func (c *ContentGenerator) DependencyKeys() []DepEdge {
	edges := make([]DepEdge, 0, len(c.Users))
	for _, u := range c.Users {
		edges = append(edges, DepEdge{Target: K{Kind: KindUser, Name: u}, Slot: SlotContentGeneratorUsers})
	}
	return edges
}

func (c *ContentGenerator) CanDefer(slot DepSlot) bool { return slot == SlotContentGeneratorUsers }

func (c *ContentGenerator) Split(dropSlots map[DepSlot]bool) (Entity, Entity) {
	if !dropSlots[SlotContentGeneratorUsers] {
		return c, nil
	}
	primary := *c
	primary.Users = nil
	deferred := &DeferredUpdate{
		Base:        Base{K: K{Kind: DeferredKind(KindContentGenerator), Name: c.K.Name}, Pos: c.Pos},
		PrimaryKind: KindContentGenerator,
		Fragments:   map[DepSlot]any{SlotContentGeneratorUsers: c.Users},
	}
	return &primary, deferred
}

type ContentGeneratorObserved struct {
	Users []string
}

func (c *ContentGenerator) EnqueueRead(b remote.Batch) []remote.Promise {
	return []remote.Promise{b.Submit(remote.CallDescriptor{Method: "getContentGenerator", Args: []any{c.K.Name}})}
}

func (c *ContentGenerator) Diff(read []remote.Promise) ([]Change, error) {
	v, err := read[0].Result()
	if err != nil {
		return nil, err
	}
	obs, _ := v.(*ContentGeneratorObserved)
	exists := obs != nil

	var changes []Change
	if !exists {
		changes = append(changes, Change{
			Op:          OpCreateObject,
			Parameters:  Param("kind", string(KindContentGenerator), "name", c.K.Name),
			Description: fmt.Sprintf("create content-generator %s", c.K.Name),
		})
	}
	var observedUsers []string
	if obs != nil {
		observedUsers = obs.Users
	}
	changes = append(changes, diffMembers(MemberOps, "users", c.Users, observedUsers, c.ExactUsers)...)
	return changes, nil
}

func (c *ContentGenerator) EnqueueWrites(b remote.Batch, changes []Change) []remote.Promise {
	promises := make([]remote.Promise, len(changes))
	for i, ch := range changes {
		promises[i] = b.Submit(remote.CallDescriptor{Method: "apply" + string(ch.Op), Args: []any{c.K.Name, ch.Parameters}})
	}
	return promises
}
