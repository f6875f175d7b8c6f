package object

// Op names the typed write operation a Change represents.
type Op string

const (
	OpCreateObject       Op = "create-object"
	OpSetField           Op = "set-field"
	OpSetInheritance     Op = "set-inheritance"
	OpAddMember          Op = "add-member"
	OpRemoveMember       Op = "remove-member"
	OpSetPermissionGrant Op = "set-permission-grant"
	OpAddLink            Op = "add-link"
	OpRemoveLink         Op = "remove-link"
)

// Change is a typed write operation produced by diffing desired state
// against observed state (§4.4).
type Change struct {
	Op          Op
	Parameters  map[string]any
	Description string

	// Failed and Err are set by the change-report layer once the
	// corresponding write promise settles; they are not populated by Diff.
	Failed bool
	Err    error
}

// Param is a small constructor helper for building a Change's Parameters
// map inline.
func Param(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}
