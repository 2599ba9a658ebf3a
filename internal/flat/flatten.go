// Package flat implements the leaf-path comparison engine: both
// snapshots are flattened into dotted leaf-path → scalar mappings and
// compared key by key, then the changed keys are grouped back to item
// identity by longest-prefix matching.
package flat

import (
	"strconv"

	"github.com/driftwatch/drift/internal/diff"
)

// Flatten reduces a snapshot tree to a mapping of dotted leaf paths to
// scalar values. Map entries contribute their key as a segment and
// sequence elements contribute their index; recursion stops at scalars
// (including null).
func Flatten(v any) map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", diff.Normalize(v))
	return out
}

func flattenInto(out map[string]any, prefix string, v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			flattenInto(out, joinKey(prefix, k), val)
		}
	case []any:
		for i, val := range t {
			flattenInto(out, joinKey(prefix, strconv.Itoa(i)), val)
		}
	default:
		out[prefix] = v
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
