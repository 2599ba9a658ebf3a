// Package history records every store and compare run so past activity
// can be reviewed from the CLI.
package history

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/driftwatch/drift/internal/jsonl"
)

// HistoryDir is the subdirectory within the store root for run records.
const HistoryDir = "history"

// Record captures one store or compare run.
type Record struct {
	Task      string    `json:"task"`
	Scope     string    `json:"scope"`
	Operation string    `json:"operation"`
	File      string    `json:"file,omitempty"`
	Engine    string    `json:"engine,omitempty"`
	Entities  int       `json:"entities,omitempty"`
	Added     int       `json:"added,omitempty"`
	Removed   int       `json:"removed,omitempty"`
	Changed   int       `json:"changed,omitempty"`
	Other     int       `json:"other,omitempty"`
	Errors    int       `json:"errors,omitempty"`
	Duration  int64     `json:"duration_ms"`
	StartedAt time.Time `json:"started_at"`
}

func runsPath(root string) string {
	return filepath.Join(root, HistoryDir, "runs.jsonl")
}

// Append stores a run record.
func Append(root string, rec *Record) error {
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}
	return jsonl.Append(runsPath(root), *rec)
}

// Recent returns up to limit run records, most recent first.
func Recent(root string, limit int) ([]Record, error) {
	records, err := jsonl.Read[Record](runsPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading run history: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// FormatTable renders run records as a human-readable table.
func FormatTable(records []Record) string {
	var b strings.Builder

	if len(records) == 0 {
		b.WriteString("No runs recorded yet.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "  %-19s  %-8s  %-13s  %-20s  %-10s  %s\n", "Started", "Task", "Scope", "Operation", "Duration", "Result")
	fmt.Fprintf(&b, "  %-19s  %-8s  %-13s  %-20s  %-10s  %s\n", "───────", "────", "─────", "─────────", "────────", "──────")

	for _, r := range records {
		result := "-"
		switch r.Task {
		case "store":
			result = r.File
		case "compare":
			result = fmt.Sprintf("%d entities: +%d -%d ~%d ?%d", r.Entities, r.Added, r.Removed, r.Changed, r.Other)
			if r.Errors > 0 {
				result += fmt.Sprintf(" (%d errors)", r.Errors)
			}
		}
		fmt.Fprintf(&b, "  %-19s  %-8s  %-13s  %-20s  %-10s  %s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.Task, r.Scope, r.Operation,
			fmt.Sprintf("%dms", r.Duration), result)
	}

	return b.String()
}
