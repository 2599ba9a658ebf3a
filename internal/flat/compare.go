package flat

import (
	"sort"

	"github.com/driftwatch/drift/internal/diff"
	"github.com/driftwatch/drift/internal/report"
)

// KeyChange records one flattened key whose value differs between the
// two snapshots.
type KeyChange struct {
	Key       string        `json:"key"`
	Status    report.Status `json:"status"`
	Reference any           `json:"reference_value"`
	Current   any           `json:"current_value"`
}

// Result is the raw output of the flat comparison.
type Result struct {
	HasChanges bool        `json:"has_changes"`
	Changes    []KeyChange `json:"detailed_changes"`
}

// Compare flattens both snapshots and walks the sorted union of their
// key sets. A key present only in current is added, only in baseline is
// removed, present in both with unequal values is changed; equal keys
// are omitted. A key whose stored value is null is indistinguishable
// from an absent key, mirroring the flattened representation.
func Compare(baseline, current any) (*Result, error) {
	if !isContainer(baseline) || !isContainer(current) {
		return nil, diff.ErrInvalidInput
	}

	flatBase := Flatten(baseline)
	flatCurr := Flatten(current)

	keys := make(map[string]struct{}, len(flatBase)+len(flatCurr))
	for k := range flatBase {
		keys[k] = struct{}{}
	}
	for k := range flatCurr {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	res := &Result{}
	for _, key := range sorted {
		ref := flatBase[key]
		curr := flatCurr[key]
		if diff.Equal(ref, curr) {
			continue
		}

		change := KeyChange{Key: key, Reference: ref, Current: curr}
		switch {
		case ref == nil:
			change.Status = report.StatusAdded
		case curr == nil:
			change.Status = report.StatusRemoved
		default:
			change.Status = report.StatusChanged
		}

		res.HasChanges = true
		res.Changes = append(res.Changes, change)
	}

	return res, nil
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	default:
		return false
	}
}
