package object

import (
	"fmt"
	"reflect"
	"sort"
)

// PriorityLink is one entry of an ordered, priority-keyed link list (a
// tag's inheritance parents or external-repo attachments). Priorities are
// unique within the owning entity.
type PriorityLink struct {
	Name     string
	Priority int
}

func sortedLinks(links []PriorityLink) []PriorityLink {
	out := make([]PriorityLink, len(links))
	copy(out, links)
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

func linksEqual(a, b []PriorityLink) bool {
	a, b = sortedLinks(a), sortedLinks(b)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ScalarField is one simple desired field value plus the kind's declared
// default for it, used for default-elision (§4.4).
type ScalarField struct {
	Name    string
	Desired any
	Default any
}

// diffScalarFields emits one OpSetField per field whose desired value
// differs from what's observed (or, for a not-yet-created object, whose
// desired value differs from the kind's default — fields equal to their
// default are elided from the create-time payload to minimize noise).
func diffScalarFields(fields []ScalarField, observed map[string]any, exists bool) []Change {
	var changes []Change
	for _, f := range fields {
		if exists {
			obsVal, hasObs := observed[f.Name]
			if hasObs && reflect.DeepEqual(obsVal, f.Desired) {
				continue
			}
		} else if reflect.DeepEqual(f.Desired, f.Default) {
			continue
		}
		changes = append(changes, Change{
			Op:          OpSetField,
			Parameters:  Param("field", f.Name, "value", f.Desired),
			Description: fmt.Sprintf("set %s = %v", f.Name, f.Desired),
		})
	}
	return changes
}

// diffLinkList compares a desired priority-keyed link list against the
// observed one and, if they differ, emits a single change of op carrying
// the full desired list (this mirrors scenario 1/3 of the spec, where
// establishing or updating an ordered link list is one set-inheritance
// change, not one per link).
func diffLinkList(op Op, field string, desired, observed []PriorityLink) []Change {
	if linksEqual(desired, observed) {
		return nil
	}
	return []Change{{
		Op:          op,
		Parameters:  Param("field", field, "links", sortedLinks(desired)),
		Description: fmt.Sprintf("set %s", field),
	}}
}

// diffMembers implements the exact-* semantics (§4.4, P8): desired members
// not present remotely are additions; when exact is true, observed members
// not in desired are removals, otherwise they are left alone.
func diffMembers(op OpPair, field string, desired, observed []string, exact bool) []Change {
	desiredSet := toSet(desired)
	observedSet := toSet(observed)

	var changes []Change
	for _, name := range sortedKeys(desiredSet) {
		if !observedSet[name] {
			changes = append(changes, Change{
				Op:          op.Add,
				Parameters:  Param("field", field, "member", name),
				Description: fmt.Sprintf("add %s %s", field, name),
			})
		}
	}
	if exact {
		for _, name := range sortedKeys(observedSet) {
			if !desiredSet[name] {
				changes = append(changes, Change{
					Op:          op.Remove,
					Parameters:  Param("field", field, "member", name),
					Description: fmt.Sprintf("remove %s %s", field, name),
				})
			}
		}
	}
	return changes
}

// OpPair names the add/remove operation pair used for one exact-* member
// collection.
type OpPair struct {
	Add    Op
	Remove Op
}

var MemberOps = OpPair{Add: OpAddMember, Remove: OpRemoveMember}

// putIfNonDefault records name=val in fields unless val equals def, the
// same default-elision rule Diff applies when building a create payload.
func putIfNonDefault(fields map[string]any, name string, val, def any) {
	if !reflect.DeepEqual(val, def) {
		fields[name] = val
	}
}

// RenderObserved turns the raw result of one kind's read promise into a
// default-elided field map, for read-only workflows (fetch/dump) that want
// the observed state rendered as a document rather than diffed against a
// declared desired state. ok is false when v represents "does not exist
// remotely".
func RenderObserved(v any) (fields map[string]any, ok bool) {
	fields = map[string]any{}
	switch obs := v.(type) {
	case *TagObserved:
		if obs == nil {
			return nil, false
		}
		putIfNonDefault(fields, "locked", obs.Locked, false)
		putIfNonDefault(fields, "maven", obs.Maven, false)
		putIfNonDefault(fields, "permission", obs.Permission, "")
		if len(obs.Inherit) > 0 {
			fields["inherit"] = sortedLinks(obs.Inherit)
		}
		if len(obs.ExternalRepos) > 0 {
			fields["external-repos"] = sortedLinks(obs.ExternalRepos)
		}
		if len(obs.Arches) > 0 {
			fields["arches"] = obs.Arches
		}
		if len(obs.Extras) > 0 {
			fields["extras"] = obs.Extras
		}
		if len(obs.Packages) > 0 {
			fields["packages"] = obs.Packages
		}
	case *TargetObserved:
		if obs == nil {
			return nil, false
		}
		fields["build-tag"] = obs.BuildTag
		fields["dest-tag"] = obs.DestTag
	case *ExternalRepoObserved:
		if obs == nil {
			return nil, false
		}
		fields["url"] = obs.URL
	case *UserObserved:
		if obs == nil {
			return nil, false
		}
		putIfNonDefault(fields, "enabled", obs.Enabled, true)
		if len(obs.Groups) > 0 {
			fields["groups"] = obs.Groups
		}
		if len(obs.Permissions) > 0 {
			fields["permissions"] = obs.Permissions
		}
	case *GroupObserved:
		if obs == nil {
			return nil, false
		}
		putIfNonDefault(fields, "enabled", obs.Enabled, true)
		if len(obs.Members) > 0 {
			fields["members"] = obs.Members
		}
		if len(obs.Permissions) > 0 {
			fields["permissions"] = obs.Permissions
		}
	case *HostObserved:
		if obs == nil {
			return nil, false
		}
		putIfNonDefault(fields, "capacity", obs.Capacity, float64(0))
		putIfNonDefault(fields, "enabled", obs.Enabled, true)
		if len(obs.Arches) > 0 {
			fields["arches"] = obs.Arches
		}
		if len(obs.Channels) > 0 {
			fields["channels"] = obs.Channels
		}
	case *ChannelObserved:
		if obs == nil {
			return nil, false
		}
		if len(obs.Hosts) > 0 {
			fields["hosts"] = obs.Hosts
		}
	case *PermissionObserved:
		if obs == nil {
			return nil, false
		}
	case *BuildTypeObserved:
		if obs == nil {
			return nil, false
		}
	case *ContentGeneratorObserved:
		if obs == nil {
			return nil, false
		}
		if len(obs.Users) > 0 {
			fields["users"] = obs.Users
		}
	case *ArchiveTypeObserved:
		if obs == nil {
			return nil, false
		}
		putIfNonDefault(fields, "compression", obs.Compression, "")
		if len(obs.Extensions) > 0 {
			fields["extensions"] = obs.Extensions
		}
	default:
		return nil, false
	}
	return fields, true
}

func toSet(xs []string) map[string]bool {
	m := make(map[string]bool, len(xs))
	for _, x := range xs {
		m[x] = true
	}
	return m
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
