package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/driftwatch/drift/internal/compare"
	"github.com/driftwatch/drift/internal/registry"
	"github.com/driftwatch/drift/internal/report"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func okLabel() string   { return green("ok") }
func failLabel() string { return red("FAIL") }

// renderResults prints per-entity comparison outcomes, entities sorted
// by name so runs are comparable.
func renderResults(results map[string]compare.EntityResult) string {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		res := results[name]
		switch {
		case res.Err != "":
			fmt.Fprintf(&b, "%s  %s\n", bold(name), red("error: "+res.Err))
		case res.Summary == nil || !res.Summary.HasDiffs:
			fmt.Fprintf(&b, "%s  %s\n", bold(name), green("no drift"))
		default:
			c := res.Summary.Counts
			fmt.Fprintf(&b, "%s  %s\n", bold(name),
				yellow(fmt.Sprintf("%d added, %d removed, %d changed, %d other", c.Added, c.Removed, c.Changed, c.Other)))
			renderSummary(&b, res.Summary)
		}
	}
	if len(names) == 0 {
		b.WriteString("No entities matched the filters.\n")
	}
	return b.String()
}

func renderSummary(b *strings.Builder, s *report.Summary) {
	for _, item := range s.RelevantChanges {
		fmt.Fprintf(b, "  %s %v\n", statusMarker(item.Status), item.ItemID)
		for _, ch := range item.Changes {
			if ch.Field == nil {
				fmt.Fprintf(b, "      %s -> %s\n", renderValue(ch.Reference), renderValue(ch.Current))
				continue
			}
			fmt.Fprintf(b, "      %s: %s -> %s\n", *ch.Field, renderValue(ch.Reference), renderValue(ch.Current))
		}
	}
	for _, ch := range s.OtherChanges {
		fmt.Fprintf(b, "  %s %s: %s -> %s\n", yellow("?"), ch.Field, renderValue(ch.Reference), renderValue(ch.Current))
	}
}

func statusMarker(status report.Status) string {
	switch status {
	case report.StatusAdded:
		return green("+")
	case report.StatusRemoved:
		return red("-")
	case report.StatusChanged:
		return yellow("~")
	default:
		return yellow("?")
	}
}

func renderValue(v any) string {
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

func renderOperations(ops []registry.Operation) string {
	var b strings.Builder
	if len(ops) == 0 {
		b.WriteString("No operations registered.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "  %-13s  %-22s  %-10s  %s\n", "Scope", "Operation", "Group by", "Description")
	fmt.Fprintf(&b, "  %-13s  %-22s  %-10s  %s\n", "─────", "─────────", "────────", "───────────")
	for _, op := range ops {
		groupBy := op.GroupBy
		if groupBy == "" {
			groupBy = "-"
		}
		fmt.Fprintf(&b, "  %-13s  %-22s  %-10s  %s\n", op.Scope, op.Name, groupBy, op.DisplayName)
	}
	return b.String()
}
