package flat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/driftwatch/drift/internal/diff"
	"github.com/driftwatch/drift/internal/report"
)

// UngroupedItemID is the synthetic item id collecting changed keys that
// match no known item, and every key when no grouping applies.
const UngroupedItemID = "global"

// TransformByKey converts a sequence of maps into a map keyed by each
// element's grouping-key value. Elements missing the key are skipped
// and duplicate key values overwrite the previous element, both with a
// warning.
func TransformByKey(seq []any, key, entityName string) map[string]any {
	out := make(map[string]any, len(seq))
	for _, el := range seq {
		m, ok := el.(map[string]any)
		if !ok {
			logrus.WithField("entity", entityName).Warn("non-map element in grouped sequence, skipping")
			continue
		}
		id, ok := m[key]
		if !ok {
			logrus.WithFields(logrus.Fields{"entity": entityName, "group_key": key}).Warn("element missing grouping key, skipping")
			continue
		}
		idStr := fmt.Sprintf("%v", diff.Normalize(id))
		if _, dup := out[idStr]; dup {
			logrus.WithFields(logrus.Fields{"entity": entityName, "group_key": key, "value": idStr}).Warn("duplicate grouping key value, overwriting previous element")
		}
		out[idStr] = el
	}
	return out
}

// Summarize groups flat key changes back to item identity and assigns
// per-item status with precedence removed > added > changed.
//
// When the snapshots were transformed from grouped sequences, each
// changed key is matched to the longest known item id that is either
// the whole key or a dot-separated prefix of it; unmatched keys fall
// into the ungrouped bucket. Items whose final status is added or
// removed have their field changes replaced by the whole transformed
// element, looked up in processedCurrent or processedBaseline.
func Summarize(res *Result, transformed bool, topLevelIDs []string, processedBaseline, processedCurrent map[string]any) *report.Summary {
	type itemState struct {
		id      string
		status  report.Status
		changes []report.FieldChange
	}

	items := make(map[string]*itemState)
	var order []string

	// Longest ids first so "10" wins over "1" on key "10.field".
	sortedIDs := append([]string(nil), topLevelIDs...)
	sort.Slice(sortedIDs, func(i, j int) bool { return len(sortedIDs[i]) > len(sortedIDs[j]) })

	for _, change := range res.Changes {
		itemID := UngroupedItemID
		field := change.Key

		if transformed {
			if matched, ok := matchItemID(change.Key, sortedIDs); ok {
				itemID = matched
				field = strings.TrimPrefix(strings.TrimPrefix(change.Key, matched), ".")
			} else {
				logrus.WithField("key", change.Key).Warn("no item id matches changed key, grouping as ungrouped")
			}
		}

		st, ok := items[itemID]
		if !ok {
			st = &itemState{id: itemID, status: change.Status}
			items[itemID] = st
			order = append(order, itemID)
		} else {
			switch {
			case change.Status == report.StatusRemoved:
				st.status = report.StatusRemoved
			case change.Status == report.StatusAdded && st.status != report.StatusRemoved:
				st.status = report.StatusAdded
			}
		}

		fieldCopy := field
		var fieldPtr *string
		if field != "" {
			fieldPtr = &fieldCopy
		}
		st.changes = append(st.changes, report.FieldChange{Field: fieldPtr, Reference: change.Reference, Current: change.Current})
	}

	var relevant []report.EntityChange
	for _, id := range order {
		st := items[id]

		if transformed {
			switch st.status {
			case report.StatusAdded:
				if full, ok := processedCurrent[st.id]; ok {
					st.changes = []report.FieldChange{report.WholeItemAdded(full)}
				} else {
					logrus.WithField("item_id", st.id).Warn("added item not found in current snapshot")
				}
			case report.StatusRemoved:
				if full, ok := processedBaseline[st.id]; ok {
					st.changes = []report.FieldChange{report.WholeItemRemoved(full)}
				} else {
					logrus.WithField("item_id", st.id).Warn("removed item not found in baseline snapshot")
				}
			}
		}

		relevant = append(relevant, report.EntityChange{ItemID: st.id, Status: st.status, Changes: st.changes})
	}

	return report.Summarize(relevant, nil, res)
}

// matchItemID finds the longest id that equals the key or prefixes it at
// a dot boundary. ids must be sorted longest first.
func matchItemID(key string, ids []string) (string, bool) {
	for _, id := range ids {
		if key == id {
			return id, true
		}
		if strings.HasPrefix(key, id) && len(key) > len(id) && key[len(id)] == '.' {
			return id, true
		}
	}
	return "", false
}

// CompareSnapshots runs the flat engine end to end. When groupKey is set
// and a snapshot is a sequence of maps, it is first transformed into a
// map keyed by the grouping value so flattened keys start with item ids.
func CompareSnapshots(baseline, current any, groupKey, entityName string) (*report.Summary, error) {
	transformed := false
	var processedBaseline, processedCurrent map[string]any
	var topLevelIDs []string

	procBase := baseline
	procCurr := current

	if groupKey != "" {
		if seq, ok := baseline.([]any); ok && allMaps(seq) {
			processedBaseline = TransformByKey(seq, groupKey, entityName+" baseline")
			procBase = processedBaseline
			topLevelIDs = appendKeys(topLevelIDs, processedBaseline)
			transformed = true
		}
		if seq, ok := current.([]any); ok && allMaps(seq) {
			processedCurrent = TransformByKey(seq, groupKey, entityName+" current")
			procCurr = processedCurrent
			topLevelIDs = appendKeys(topLevelIDs, processedCurrent)
			transformed = true
		}
	}

	res, err := Compare(procBase, procCurr)
	if err != nil {
		return nil, err
	}

	return Summarize(res, transformed, dedupe(topLevelIDs), processedBaseline, processedCurrent), nil
}

func allMaps(seq []any) bool {
	for _, el := range seq {
		if _, ok := el.(map[string]any); !ok {
			return false
		}
	}
	return true
}

func appendKeys(dst []string, m map[string]any) []string {
	for k := range m {
		dst = append(dst, k)
	}
	return dst
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
