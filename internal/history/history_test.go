package history

import (
	"strings"
	"testing"
	"time"
)

func TestAppendAndRecent(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		rec := &Record{
			Task:      "compare",
			Scope:     "organization",
			Operation: "admins",
			Entities:  1,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := Append(root, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	records, err := Recent(root, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if !records[0].StartedAt.After(records[1].StartedAt) {
		t.Fatal("records not sorted most recent first")
	}
}

func TestAppendDefaultsStartedAt(t *testing.T) {
	root := t.TempDir()
	if err := Append(root, &Record{Task: "store", Scope: "network", Operation: "ssids"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := Recent(root, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].StartedAt.IsZero() {
		t.Fatal("StartedAt not defaulted")
	}
}

func TestRecentEmpty(t *testing.T) {
	records, err := Recent(t.TempDir(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestFormatTable(t *testing.T) {
	out := FormatTable(nil)
	if out != "No runs recorded yet.\n" {
		t.Fatalf("unexpected empty rendering: %q", out)
	}

	records := []Record{
		{Task: "store", Scope: "organization", Operation: "admins", File: "admins-2026-05-01_12-00-00.json", Duration: 1200, StartedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)},
		{Task: "compare", Scope: "device", Operation: "switch-ports", Entities: 4, Added: 1, Changed: 2, Errors: 1, Duration: 800, StartedAt: time.Date(2026, 5, 1, 12, 5, 0, 0, time.UTC)},
	}
	out = FormatTable(records)

	for _, want := range []string{
		"admins-2026-05-01_12-00-00.json",
		"4 entities: +1 -0 ~2 ?0",
		"(1 errors)",
		"1200ms",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}
