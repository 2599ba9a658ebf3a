package diff

import (
	"errors"
	"sort"

	"github.com/sirupsen/logrus"
)

// ErrInvalidInput is returned when a comparison root is neither a map
// nor a sequence.
var ErrInvalidInput = errors.New("comparison input must be a map or a sequence")

// Diff compares two snapshot trees and returns the structural
// differences between them. The comparison is order-insensitive: map
// keys are matched by name and sequences are matched as unordered
// collections. When groupKey is non-empty, sequences whose elements are
// all maps are matched by the value of that key instead of by content,
// and matched pairs are diffed recursively with the key value as the
// path segment.
func Diff(baseline, current any, groupKey string) ([]Event, error) {
	baseline = Normalize(baseline)
	current = Normalize(current)

	if !isContainer(baseline) || !isContainer(current) {
		return nil, ErrInvalidInput
	}

	var events []Event
	walk(Path{}, baseline, current, groupKey, &events)
	return events, nil
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	default:
		return false
	}
}

func walk(path Path, a, b any, groupKey string, events *[]Event) {
	if Equal(a, b) {
		return
	}

	am, aIsMap := asMap(a)
	bm, bIsMap := asMap(b)
	if aIsMap && bIsMap {
		walkMaps(path, am, bm, groupKey, events)
		return
	}

	as, aIsSeq := asSeq(a)
	bs, bIsSeq := asSeq(b)
	if aIsSeq && bIsSeq {
		if groupKey != "" && allMaps(as) && allMaps(bs) {
			walkGroupedSeqs(path, as, bs, groupKey, events)
		} else {
			walkSeqs(path, as, bs, events)
		}
		return
	}

	if scalarType(a) != scalarType(b) {
		*events = append(*events, Event{Kind: TypeChanged, Path: path, Old: a, New: b})
		return
	}

	*events = append(*events, Event{Kind: ValueChanged, Path: path, Old: a, New: b})
}

func walkMaps(path Path, a, b map[string]any, groupKey string, events *[]Event) {
	for _, k := range sortedKeys(a) {
		bv, ok := b[k]
		if !ok {
			*events = append(*events, Event{Kind: ItemRemoved, Path: path.child(k), Old: a[k]})
			continue
		}
		walk(path.child(k), a[k], bv, groupKey, events)
	}
	for _, k := range sortedKeys(b) {
		if _, ok := a[k]; !ok {
			*events = append(*events, Event{Kind: ItemAdded, Path: path.child(k), New: b[k]})
		}
	}
}

// walkSeqs compares two sequences as unordered multisets. Elements of
// the current sequence are matched against equal, not-yet-claimed
// baseline elements; leftovers on either side become iterable events
// addressed by their original index.
func walkSeqs(path Path, a, b []any, events *[]Event) {
	claimed := make([]bool, len(b))

	for i, av := range a {
		matched := false
		for j, bv := range b {
			if claimed[j] {
				continue
			}
			if Equal(av, bv) {
				claimed[j] = true
				matched = true
				break
			}
		}
		if !matched {
			*events = append(*events, Event{Kind: IterableItemRemoved, Path: path.child(i), Old: av})
		}
	}

	for j, bv := range b {
		if !claimed[j] {
			*events = append(*events, Event{Kind: IterableItemAdded, Path: path.child(j), New: bv})
		}
	}
}

// walkGroupedSeqs treats both sequences as collections keyed by the
// grouping key. Elements sharing a key value are diffed recursively;
// unmatched elements are whole-item additions or removals addressed by
// the key value rather than a positional index.
func walkGroupedSeqs(path Path, a, b []any, groupKey string, events *[]Event) {
	ak := keyElements(a, groupKey)
	bk := keyElements(b, groupKey)

	for _, key := range sortedKeys(ak) {
		bv, ok := bk[key]
		if !ok {
			*events = append(*events, Event{Kind: IterableItemRemoved, Path: path.child(groupValue(ak[key], groupKey)), Old: ak[key]})
			continue
		}
		walk(path.child(groupValue(ak[key], groupKey)), ak[key], bv, groupKey, events)
	}
	for _, key := range sortedKeys(bk) {
		if _, ok := ak[key]; !ok {
			*events = append(*events, Event{Kind: IterableItemAdded, Path: path.child(groupValue(bk[key], groupKey)), New: bk[key]})
		}
	}
}

// keyElements indexes a sequence of maps by the grouping key's rendered
// value. Elements without the key are dropped with a warning; duplicate
// key values keep the last element, also with a warning.
func keyElements(seq []any, groupKey string) map[string]any {
	out := make(map[string]any, len(seq))
	for _, el := range seq {
		m := el.(map[string]any)
		v, ok := m[groupKey]
		if !ok {
			logrus.WithField("group_key", groupKey).Warn("sequence element missing grouping key, excluded from matching")
			continue
		}
		key := segmentString(v)
		if _, dup := out[key]; dup {
			logrus.WithFields(logrus.Fields{"group_key": groupKey, "value": key}).Warn("duplicate grouping key value, keeping last element")
		}
		out[key] = el
	}
	return out
}

// groupValue returns the raw grouping-key value of an element, so paths
// carry the value itself (string or number) rather than its rendering.
func groupValue(el any, groupKey string) any {
	return el.(map[string]any)[groupKey]
}

func allMaps(seq []any) bool {
	for _, el := range seq {
		if _, ok := el.(map[string]any); !ok {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
