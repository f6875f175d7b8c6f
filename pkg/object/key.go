package object

import (
	"fmt"
	"strings"
)

// Kind is a short lowercase tag identifying an entity type, drawn from the
// registry (e.g. "tag", "target").
type Kind string

const (
	KindTag              Kind = "tag"
	KindTarget           Kind = "target"
	KindExternalRepo     Kind = "external-repo"
	KindUser             Kind = "user"
	KindGroup            Kind = "group"
	KindHost             Kind = "host"
	KindChannel          Kind = "channel"
	KindPermission       Kind = "permission"
	KindBuildType        Kind = "build-type"
	KindContentGenerator Kind = "content-generator"
	KindArchiveType      Kind = "archive-type"
	KindTemplate         Kind = "template"
	KindTemplateCall     Kind = "template-call"
)

// DeferredKind returns the synthetic kind tag used for the deferred-update
// shadow of kind: "deferred-<kind>".
func DeferredKind(k Kind) Kind {
	return Kind("deferred-" + string(k))
}

// IsDeferred reports whether k names a deferred-update shadow kind, and if
// so returns the kind it shadows.
func IsDeferred(k Kind) (Kind, bool) {
	const prefix = "deferred-"
	if len(k) > len(prefix) && string(k)[:len(prefix)] == prefix {
		return Kind(string(k)[len(prefix):]), true
	}
	return "", false
}

// K is the stable identity of every declared entity: (kind, name).
type K struct {
	Kind Kind
	Name string
}

func (k K) String() string {
	return fmt.Sprintf("%s:%s", k.Kind, k.Name)
}

// ParseK parses the "kind:name" form K.String() produces, for command-line
// arguments that name an entity directly rather than declaring it.
func ParseK(s string) (K, error) {
	kind, name, ok := strings.Cut(s, ":")
	if !ok || kind == "" || name == "" {
		return K{}, fmt.Errorf("object: %q is not a valid kind:name reference", s)
	}
	return K{Kind: Kind(kind), Name: name}, nil
}

// DepSlot identifies one named dependency slot on an entity, e.g. the
// "inherit" slot of a tag or the "members" slot of a group. Slots are the
// unit the solver can drop when splitting a cycle.
type DepSlot string

// DepEdge is one dependency edge out of an entity: a reference to Target
// carried in dependency slot Slot.
type DepEdge struct {
	Target K
	Slot   DepSlot
}
