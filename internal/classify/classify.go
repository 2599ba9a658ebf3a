// Package classify turns the structural differ's event stream into
// per-item change reports. Every event is attributed to the logical item
// named by its first path segment; events that cannot be attributed are
// collected separately instead of failing the comparison.
package classify

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/driftwatch/drift/internal/diff"
	"github.com/driftwatch/drift/internal/report"
)

// FullItemField names the field recorded when a root-level item's value
// was replaced wholesale rather than edited field by field.
const FullItemField = "full_item"

type itemState struct {
	id       any
	status   report.Status
	changes  []report.FieldChange
	fullRef  any
	fullCurr any
}

// Classify groups structural diff events by item identity and assigns
// each item a status. Items are emitted in order of first appearance;
// unattributable events land in the other bucket.
func Classify(events []diff.Event) (relevant []report.EntityChange, other []report.OtherChange) {
	items := make(map[string]*itemState)
	var order []string

	item := func(id any) *itemState {
		key := fmt.Sprintf("%v", id)
		st, ok := items[key]
		if !ok {
			st = &itemState{id: id, status: report.StatusChanged}
			items[key] = st
			order = append(order, key)
		}
		return st
	}

	for _, ev := range events {
		if len(ev.Path) == 0 {
			other = append(other, classifyRootEvent(ev, item)...)
			continue
		}

		itemID, fieldPath, isRoot := diff.SplitPath(ev.Path)
		if itemID == nil {
			other = append(other, report.OtherChange{
				Field:     ev.Path.String(),
				Reference: ev.Old,
				Current:   ev.New,
			})
			continue
		}

		switch ev.Kind {
		case diff.ItemAdded, diff.IterableItemAdded:
			if isRoot {
				st := item(itemID)
				st.escalate(report.StatusAdded)
				st.fullCurr = ev.New
				continue
			}
			st := item(itemID)
			st.escalate(report.StatusChanged)
			st.changes = append(st.changes, report.FieldChange{
				Field:     &fieldPath,
				Reference: report.NotAvailable,
				Current:   ev.New,
			})

		case diff.ItemRemoved, diff.IterableItemRemoved:
			if isRoot {
				st := item(itemID)
				st.escalate(report.StatusRemoved)
				st.fullRef = ev.Old
				continue
			}
			st := item(itemID)
			st.escalate(report.StatusChanged)
			st.changes = append(st.changes, report.FieldChange{
				Field:     &fieldPath,
				Reference: ev.Old,
				Current:   report.NotAvailable,
			})

		case diff.ValueChanged, diff.TypeChanged:
			st := item(itemID)
			st.escalate(report.StatusChanged)
			field := fieldPath
			if isRoot {
				// The whole item at this position was replaced, not one
				// of its fields.
				field = FullItemField
			}
			st.changes = append(st.changes, report.FieldChange{
				Field:     &field,
				Reference: ev.Old,
				Current:   ev.New,
			})

		default:
			logrus.WithField("kind", ev.Kind).Debug("routing unhandled event kind to other changes")
			other = append(other, report.OtherChange{
				ItemID:    itemID,
				Field:     ev.Path.String(),
				Reference: ev.Old,
				Current:   ev.New,
			})
		}
	}

	for _, key := range order {
		if ec, ok := items[key].consolidate(); ok {
			relevant = append(relevant, ec)
		}
	}
	return relevant, other
}

// escalate applies the status precedence removed > added > changed.
func (s *itemState) escalate(status report.Status) {
	switch {
	case status == report.StatusRemoved:
		s.status = report.StatusRemoved
	case status == report.StatusAdded && s.status != report.StatusRemoved:
		s.status = report.StatusAdded
	}
}

// consolidate produces the final EntityChange for an item. A fully
// added or removed item carries a single whole-item change; per-field
// edits collected along the way are superseded by the full value.
func (s *itemState) consolidate() (report.EntityChange, bool) {
	switch s.status {
	case report.StatusAdded:
		changes := []report.FieldChange{}
		if s.fullCurr != nil {
			changes = append(changes, report.WholeItemAdded(s.fullCurr))
		}
		return report.EntityChange{ItemID: s.id, Status: s.status, Changes: changes}, true
	case report.StatusRemoved:
		changes := []report.FieldChange{}
		if s.fullRef != nil {
			changes = append(changes, report.WholeItemRemoved(s.fullRef))
		}
		return report.EntityChange{ItemID: s.id, Status: s.status, Changes: changes}, true
	default:
		if len(s.changes) == 0 {
			return report.EntityChange{}, false
		}
		return report.EntityChange{ItemID: s.id, Status: report.StatusChanged, Changes: s.changes}, true
	}
}

// classifyRootEvent handles a difference at the root itself. When either
// side of the replacement is a map, its entries fan out into whole-item
// additions and removals; anything else cannot be attributed.
func classifyRootEvent(ev diff.Event, item func(any) *itemState) []report.OtherChange {
	oldMap, oldIsMap := ev.Old.(map[string]any)
	newMap, newIsMap := ev.New.(map[string]any)

	if !oldIsMap && !newIsMap {
		return []report.OtherChange{{
			Field:     "root",
			Reference: ev.Old,
			Current:   ev.New,
		}}
	}

	if oldIsMap {
		for _, k := range sortedKeys(oldMap) {
			st := item(k)
			st.escalate(report.StatusRemoved)
			st.fullRef = oldMap[k]
		}
	}
	if newIsMap {
		for _, k := range sortedKeys(newMap) {
			st := item(k)
			st.escalate(report.StatusAdded)
			st.fullCurr = newMap[k]
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CompareSnapshots runs the structural engine end to end: diff, classify,
// summarize. An invalid input error passes through so the caller can
// decide how to degrade.
func CompareSnapshots(baseline, current any, groupKey string) (*report.Summary, error) {
	events, err := diff.Diff(baseline, current, groupKey)
	if err != nil {
		return nil, err
	}
	relevant, other := Classify(events)
	return report.Summarize(relevant, other, events), nil
}
