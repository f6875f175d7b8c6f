package object

import (
	"fmt"

	"github.com/forgehub/forgehub/pkg/remote"
)

// Channel is the "channel" kind: a list of hosts. Host<->channel is the
// second intentionally mutually referential pair at the declaration level
// (§3), alongside user<->group.
type Channel struct {
	Base

	Hosts      []string
	ExactHosts bool
}

const SlotChannelHosts DepSlot = "hosts"

func (c *Channel) DependencyKeys() []DepEdge {
	edges := make([]DepEdge, 0, len(c.Hosts))
	for _, h := range c.Hosts {
		edges = append(edges, DepEdge{Target: K{Kind: KindHost, Name: h}, Slot: SlotChannelHosts})
	}
	return edges
}

func (c *Channel) CanDefer(slot DepSlot) bool { return slot == SlotChannelHosts }

func (c *Channel) Split(dropSlots map[DepSlot]bool) (Entity, Entity) {
	if !dropSlots[SlotChannelHosts] {
		return c, nil
	}
	primary := *c
	primary.Hosts = nil
	deferred := &DeferredUpdate{
		Base:        Base{K: K{Kind: DeferredKind(KindChannel), Name: c.K.Name}, Pos: c.Pos},
		PrimaryKind: KindChannel,
		Fragments:   map[DepSlot]any{SlotChannelHosts: c.Hosts},
	}
	return &primary, deferred
}

type ChannelObserved struct {
	Hosts []string
}

func (c *Channel) EnqueueRead(b remote.Batch) []remote.Promise {
	return []remote.Promise{b.Submit(remote.CallDescriptor{Method: "getChannel", Args: []any{c.K.Name}})}
}

func (c *Channel) Diff(read []remote.Promise) ([]Change, error) {
	v, err := read[0].Result()
	if err != nil {
		return nil, err
	}
	obs, _ := v.(*ChannelObserved)
	exists := obs != nil

	var changes []Change
	if !exists {
		changes = append(changes, Change{
			Op:          OpCreateObject,
			Parameters:  Param("kind", string(KindChannel), "name", c.K.Name),
			Description: fmt.Sprintf("create channel %s", c.K.Name),
		})
	}
	var observedHosts []string
	if exists {
		observedHosts = obs.Hosts
	}
	changes = append(changes, diffMembers(MemberOps, "hosts", c.Hosts, observedHosts, c.ExactHosts)...)
	return changes, nil
}

func (c *Channel) EnqueueWrites(b remote.Batch, changes []Change) []remote.Promise {
	promises := make([]remote.Promise, len(changes))
	for i, ch := range changes {
		promises[i] = b.Submit(remote.CallDescriptor{Method: "apply" + string(ch.Op), Args: []any{c.K.Name, ch.Parameters}})
	}
	return promises
}
