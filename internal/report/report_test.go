package report

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSummarizeCounts(t *testing.T) {
	field := "orgAccess"
	relevant := []EntityChange{
		{ItemID: "carol@example.com", Status: StatusAdded, Changes: []FieldChange{WholeItemAdded(map[string]any{"email": "carol@example.com"})}},
		{ItemID: "dave@example.com", Status: StatusRemoved, Changes: []FieldChange{WholeItemRemoved(map[string]any{"email": "dave@example.com"})}},
		{ItemID: "bob@example.com", Status: StatusChanged, Changes: []FieldChange{{Field: &field, Reference: "read-only", Current: "full"}}},
	}
	other := []OtherChange{{Field: "root", Reference: "a", Current: "b"}}

	s := Summarize(relevant, other, nil)
	if s.Counts.Added != 1 || s.Counts.Removed != 1 || s.Counts.Changed != 1 || s.Counts.Other != 1 {
		t.Fatalf("counts: %+v", s.Counts)
	}
	if !s.HasDiffs {
		t.Fatal("expected HasDiffs")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil, nil)
	if s.HasDiffs {
		t.Fatal("empty summary must not report diffs")
	}
	if s.Human() != "No drift detected.\n" {
		t.Fatalf("unexpected human output: %q", s.Human())
	}
}

func TestSummaryJSON(t *testing.T) {
	field := "vlan"
	s := Summarize([]EntityChange{
		{ItemID: "2", Status: StatusChanged, Changes: []FieldChange{{Field: &field, Reference: float64(10), Current: float64(20)}}},
	}, nil, nil)

	data, err := s.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if decoded["has_diffs"] != true {
		t.Fatal("has_diffs not serialized")
	}
	if _, ok := decoded["summary_counts"]; !ok {
		t.Fatal("summary_counts not serialized")
	}
}

func TestSummaryHuman(t *testing.T) {
	field := "orgAccess"
	s := Summarize([]EntityChange{
		{ItemID: "bob@example.com", Status: StatusChanged, Changes: []FieldChange{{Field: &field, Reference: "read-only", Current: "full"}}},
		{ItemID: "carol@example.com", Status: StatusAdded, Changes: []FieldChange{WholeItemAdded(map[string]any{"email": "carol@example.com"})}},
	}, []OtherChange{{Field: "root", Reference: nil, Current: "x"}}, nil)

	out := s.Human()
	for _, want := range []string{
		"[changed] bob@example.com",
		"orgAccess: read-only -> full",
		"[added] carol@example.com",
		"Unattributed changes:",
		"root: null -> x",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("human output missing %q:\n%s", want, out)
		}
	}
}
