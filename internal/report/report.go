package report

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status classifies what happened to a logical item between the baseline
// and the current snapshot.
type Status string

const (
	StatusAdded   Status = "added"
	StatusRemoved Status = "removed"
	StatusChanged Status = "changed"
	StatusOther   Status = "other"
)

// NotAvailable marks the side of a change that has no value: the reference
// side of an added item, or the current side of a removed one.
const NotAvailable = "N/A"

// FieldChange records a single field-level difference inside an item.
// A nil Field means the whole item was added or removed and the value
// columns carry the full item.
type FieldChange struct {
	Field     *string `json:"field"`
	Reference any     `json:"reference_value"`
	Current   any     `json:"current_value"`
}

// WholeItemAdded builds the single FieldChange carried by a fully added item.
func WholeItemAdded(item any) FieldChange {
	return FieldChange{Field: nil, Reference: NotAvailable, Current: item}
}

// WholeItemRemoved builds the single FieldChange carried by a fully removed item.
func WholeItemRemoved(item any) FieldChange {
	return FieldChange{Field: nil, Reference: item, Current: NotAvailable}
}

// EntityChange groups every difference attributed to one logical item.
// There is at most one EntityChange per item id per comparison.
type EntityChange struct {
	ItemID  any           `json:"item_id"`
	Status  Status        `json:"status"`
	Changes []FieldChange `json:"changes"`
}

// OtherChange is a difference that could not be attributed to any item,
// for example the root being replaced by a non-map value.
type OtherChange struct {
	ItemID    any    `json:"item_id"`
	Field     string `json:"field"`
	Reference any    `json:"reference_value"`
	Current   any    `json:"current_value"`
}

// Counts tallies classified items by status.
type Counts struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Changed int `json:"changed"`
	Other   int `json:"other"`
}

// Summary is the result of comparing one entity's current snapshot
// against the baseline. Built once per (entity, operation) pair and
// never mutated afterwards.
type Summary struct {
	RelevantChanges []EntityChange `json:"relevant_changes"`
	OtherChanges    []OtherChange  `json:"other_changes"`
	RawDiff         any            `json:"raw_diff,omitempty"`
	Counts          Counts         `json:"summary_counts"`
	HasDiffs        bool           `json:"has_diffs"`
}

// Summarize assembles a Summary from classified changes, counting items
// by status. raw carries the engine's unprocessed diff for inspection.
func Summarize(relevant []EntityChange, other []OtherChange, raw any) *Summary {
	s := &Summary{
		RelevantChanges: relevant,
		OtherChanges:    other,
		RawDiff:         raw,
	}
	for _, c := range relevant {
		switch c.Status {
		case StatusAdded:
			s.Counts.Added++
		case StatusRemoved:
			s.Counts.Removed++
		case StatusChanged:
			s.Counts.Changed++
		}
	}
	s.Counts.Other = len(other)
	s.HasDiffs = s.Counts.Added+s.Counts.Removed+s.Counts.Changed+s.Counts.Other > 0
	return s
}

// JSON returns the summary as indented JSON.
func (s *Summary) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Human returns a human-readable rendering of the summary.
func (s *Summary) Human() string {
	if !s.HasDiffs {
		return "No drift detected.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d added, %d removed, %d changed, %d other\n",
		s.Counts.Added, s.Counts.Removed, s.Counts.Changed, s.Counts.Other)

	for _, item := range s.RelevantChanges {
		fmt.Fprintf(&b, "\n  [%s] %v\n", item.Status, item.ItemID)
		for _, ch := range item.Changes {
			if ch.Field == nil {
				fmt.Fprintf(&b, "    %s -> %s\n", formatValue(ch.Reference), formatValue(ch.Current))
				continue
			}
			fmt.Fprintf(&b, "    %s: %s -> %s\n", *ch.Field, formatValue(ch.Reference), formatValue(ch.Current))
		}
	}

	if len(s.OtherChanges) > 0 {
		fmt.Fprintf(&b, "\n  Unattributed changes:\n")
		for _, ch := range s.OtherChanges {
			fmt.Fprintf(&b, "    %s: %s -> %s\n", ch.Field, formatValue(ch.Reference), formatValue(ch.Current))
		}
	}

	return b.String()
}

func formatValue(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}
