package namespace

import "fmt"

// validateSchema applies a small JSON-Schema-like subset sufficient for
// template-call payload validation (spec §4.1): "required" field names and
// per-field "type" checks via "properties". Anything richer belongs to a
// dedicated schema library the expansion engine is not in the business of
// embedding.
func validateSchema(schema map[string]any, data map[string]any) error {
	if schema == nil {
		return nil
	}
	if req, ok := schema["required"].([]any); ok {
		for _, r := range req {
			name, _ := r.(string)
			if _, present := data[name]; !present {
				return fmt.Errorf("missing required field %q", name)
			}
		}
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil
	}
	for field, rawSpec := range props {
		v, present := data[field]
		if !present {
			continue
		}
		spec, ok := rawSpec.(map[string]any)
		if !ok {
			continue
		}
		want, ok := spec["type"].(string)
		if !ok {
			continue
		}
		if !matchesType(v, want) {
			return fmt.Errorf("field %q: expected type %q, got %T", field, want, v)
		}
	}
	return nil
}

func matchesType(v any, want string) bool {
	switch want {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		switch v.(type) {
		case float64, int:
			return true
		}
		return false
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	default:
		return true
	}
}
