package matrikkel

import (
	"fmt"
	"math"
)

// Registry payloads wrap scalars in envelopes such as {"value": x} or
// {"_type": t, "_namespace": ns, "x": v}. These helpers read through them.

const typeUnknown = "unknown"

// TypeOf returns the registry type tag of item, "_type" before "type".
// Tags that are not strings are formatted with fmt. ok is false only when
// item is nil; untagged items report "unknown".
func TypeOf(item any) (typ string, ok bool) {
	if item == nil {
		return "", false
	}
	m, isMap := item.(map[string]any)
	if !isMap {
		return typeUnknown, true
	}
	for _, key := range []string{"_type", "type"} {
		if v := m[key]; truthy(v) {
			return fmt.Sprint(v), true
		}
	}
	return typeUnknown, true
}

// ValueOf unwraps a registry value envelope. The checks run in a fixed
// order: a "value" field, then a single-field object, then a typed
// three-field object. Anything else is returned unchanged.
func ValueOf(item any) any {
	if item == nil {
		return nil
	}
	m, ok := item.(map[string]any)
	if !ok {
		return item
	}

	if v, ok := m["value"]; ok && v != nil {
		return v
	}
	if len(m) == 1 {
		for _, v := range m {
			return v
		}
	}
	if len(m) == 3 && truthy(m["_type"]) && truthy(m["_namespace"]) {
		for key, v := range m {
			if key != "_type" && key != "_namespace" && key != "$" {
				return v
			}
		}
	}
	return item
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	default:
		return true
	}
}
