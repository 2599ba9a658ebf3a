package diff

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Kind names the type of a single structural difference.
type Kind string

const (
	ValueChanged        Kind = "value_changed"
	ItemAdded           Kind = "item_added"
	ItemRemoved         Kind = "item_removed"
	IterableItemAdded   Kind = "iterable_item_added"
	IterableItemRemoved Kind = "iterable_item_removed"
	TypeChanged         Kind = "type_changed"
	// Set kinds are never produced from JSON input; they exist so a
	// classifier can route them to the unattributed bucket if a future
	// event source emits them.
	SetAdded   Kind = "set_added"
	SetRemoved Kind = "set_removed"
)

// Path locates a difference within a snapshot tree. Each segment is a
// string map key, an int sequence index, or, for grouped sequences, the
// matched element's grouping-key value.
type Path []any

// String renders the path with a dot separator.
func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	parts := make([]string, len(p))
	for i, seg := range p {
		parts[i] = segmentString(seg)
	}
	return strings.Join(parts, ".")
}

func segmentString(seg any) string {
	switch s := seg.(type) {
	case string:
		return s
	case int:
		return fmt.Sprintf("%d", s)
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%v", s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// child returns a copy of the path extended by one segment. Copying keeps
// emitted events independent of the walk's backtracking.
func (p Path) child(seg any) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = seg
	return out
}

// Event is one structural difference between baseline and current.
// Old and New carry the full values for the affected side so consumers
// never have to re-resolve paths against the original snapshots.
type Event struct {
	Kind Kind `json:"kind"`
	Path Path `json:"path"`
	Old  any  `json:"old_value,omitempty"`
	New  any  `json:"new_value,omitempty"`
}

// SplitPath interprets an event path as (item id, field path, root flag).
// The item id is the first segment; the field path joins the rest with
// dots; isRoot is true when the whole item at the first segment was
// affected. An empty path cannot be attributed and yields (nil, "", false).
func SplitPath(p Path) (itemID any, fieldPath string, isRoot bool) {
	if len(p) == 0 {
		logrus.Warn("cannot attribute change with empty path")
		return nil, "", false
	}
	if len(p) == 1 {
		return p[0], "", true
	}
	return p[0], Path(p[1:]).String(), false
}
