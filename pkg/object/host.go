package object

import (
	"fmt"

	"github.com/forgehub/forgehub/pkg/remote"
)

// Host is the "host" kind: arches list, capacity, enabled, channel
// membership, exact-channels policy.
type Host struct {
	Base

	Arches        []string
	Capacity      float64
	Enabled       bool
	Channels      []string
	ExactChannels bool
}

const SlotHostChannels DepSlot = "channels"

func (h *Host) DependencyKeys() []DepEdge {
	edges := make([]DepEdge, 0, len(h.Channels))
	for _, c := range h.Channels {
		edges = append(edges, DepEdge{Target: K{Kind: KindChannel, Name: c}, Slot: SlotHostChannels})
	}
	return edges
}

func (h *Host) CanDefer(slot DepSlot) bool { return slot == SlotHostChannels }

func (h *Host) Split(dropSlots map[DepSlot]bool) (Entity, Entity) {
	if !dropSlots[SlotHostChannels] {
		return h, nil
	}
	primary := *h
	primary.Channels = nil
	deferred := &DeferredUpdate{
		Base:        Base{K: K{Kind: DeferredKind(KindHost), Name: h.K.Name}, Pos: h.Pos},
		PrimaryKind: KindHost,
		Fragments:   map[DepSlot]any{SlotHostChannels: h.Channels},
	}
	return &primary, deferred
}

type HostObserved struct {
	Arches   []string
	Capacity float64
	Enabled  bool
	Channels []string
}

func (h *Host) EnqueueRead(b remote.Batch) []remote.Promise {
	return []remote.Promise{b.Submit(remote.CallDescriptor{Method: "getHost", Args: []any{h.K.Name}})}
}

func (h *Host) Diff(read []remote.Promise) ([]Change, error) {
	v, err := read[0].Result()
	if err != nil {
		return nil, err
	}
	obs, _ := v.(*HostObserved)
	exists := obs != nil

	var changes []Change
	if !exists {
		changes = append(changes, Change{
			Op:          OpCreateObject,
			Parameters:  Param("kind", string(KindHost), "name", h.K.Name),
			Description: fmt.Sprintf("create host %s", h.K.Name),
		})
	}
	observedScalars := map[string]any{}
	var observedChannels []string
	if exists {
		observedScalars["capacity"] = obs.Capacity
		observedScalars["enabled"] = obs.Enabled
		observedChannels = obs.Channels
	}
	changes = append(changes, diffScalarFields([]ScalarField{
		{Name: "capacity", Desired: h.Capacity, Default: float64(0)},
		{Name: "enabled", Desired: h.Enabled, Default: true},
	}, observedScalars, exists)...)

	var observedArches []string
	if exists {
		observedArches = obs.Arches
	}
	if !stringSliceEqual(sortedStrings(h.Arches), sortedStrings(observedArches)) {
		changes = append(changes, Change{
			Op:          OpSetField,
			Parameters:  Param("field", "arches", "value", h.Arches),
			Description: "set arches",
		})
	}
	changes = append(changes, diffMembers(OpPair{Add: OpAddMember, Remove: OpRemoveMember}, "channels", h.Channels, observedChannels, h.ExactChannels)...)
	return changes, nil
}

func (h *Host) EnqueueWrites(b remote.Batch, changes []Change) []remote.Promise {
	promises := make([]remote.Promise, len(changes))
	for i, c := range changes {
		promises[i] = b.Submit(remote.CallDescriptor{Method: "apply" + string(c.Op), Args: []any{h.K.Name, c.Parameters}})
	}
	return promises
}
