package object

import (
	"fmt"
	"sort"
	"strings"

	"github.com/forgehub/forgehub/pkg/remote"
)

// ArchiveType is the "archive-type" kind: a deduplicated set of extensions
// (leading dots stripped) plus an optional compression setting.
type ArchiveType struct {
	Base
	Extensions  []string
	Compression string // "" if unset
}

// NormalizeExtensions strips leading dots and deduplicates, preserving
// first-seen order (§3: "extensions with leading-dot stripping and dedup").
func NormalizeExtensions(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		e = strings.TrimPrefix(e, ".")
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

func (a *ArchiveType) DependencyKeys() []DepEdge              { return nil }
func (a *ArchiveType) CanDefer(DepSlot) bool                   { return false }
func (a *ArchiveType) Split(map[DepSlot]bool) (Entity, Entity) { return a, nil }

type ArchiveTypeObserved struct {
	Extensions  []string
	Compression string
}

func (a *ArchiveType) EnqueueRead(b remote.Batch) []remote.Promise {
	return []remote.Promise{b.Submit(remote.CallDescriptor{Method: "getArchiveType", Args: []any{a.K.Name}})}
}

func (a *ArchiveType) Diff(read []remote.Promise) ([]Change, error) {
	v, err := read[0].Result()
	if err != nil {
		return nil, err
	}
	obs, _ := v.(*ArchiveTypeObserved)
	exists := obs != nil

	var changes []Change
	if !exists {
		changes = append(changes, Change{
			Op:          OpCreateObject,
			Parameters:  Param("kind", string(KindArchiveType), "name", a.K.Name),
			Description: fmt.Sprintf("create archive-type %s", a.K.Name),
		})
	}
	changes = append(changes, diffScalarFields([]ScalarField{
		{Name: "compression", Desired: a.Compression, Default: ""},
	}, map[string]any{"compression": safeCompression(obs)}, exists)...)

	var observedExt []string
	if obs != nil {
		observedExt = obs.Extensions
	}
	desired := append([]string(nil), a.Extensions...)
	sort.Strings(desired)
	observedSorted := append([]string(nil), observedExt...)
	sort.Strings(observedSorted)
	if !stringSliceEqual(desired, observedSorted) {
		changes = append(changes, Change{
			Op:          OpSetField,
			Parameters:  Param("field", "extensions", "value", a.Extensions),
			Description: "set extensions",
		})
	}
	return changes, nil
}

func safeCompression(obs *ArchiveTypeObserved) string {
	if obs == nil {
		return ""
	}
	return obs.Compression
}

func (a *ArchiveType) EnqueueWrites(b remote.Batch, changes []Change) []remote.Promise {
	promises := make([]remote.Promise, len(changes))
	for i, c := range changes {
		promises[i] = b.Submit(remote.CallDescriptor{Method: "apply" + string(c.Op), Args: []any{a.K.Name, c.Parameters}})
	}
	return promises
}
