package integration_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/driftwatch/drift/internal/compare"
	"github.com/driftwatch/drift/internal/entity"
	"github.com/driftwatch/drift/internal/history"
	"github.com/driftwatch/drift/internal/registry"
	"github.com/driftwatch/drift/internal/report"
	"github.com/driftwatch/drift/internal/store"
)

// stubDashboard stands in for the live API: fetch operations resolve to
// canned payloads and entity listings come from fixed records.
type stubDashboard struct {
	payloads map[string]any
	entities map[registry.Scope][]entity.Record
}

func (s *stubDashboard) FetchOperation(ctx context.Context, fetchOp string, entityID string) (any, error) {
	data, ok := s.payloads[fetchOp]
	if !ok {
		return nil, fmt.Errorf("unknown fetch operation %q", fetchOp)
	}
	return data, nil
}

func (s *stubDashboard) ListEntities(ctx context.Context, scope registry.Scope) ([]entity.Record, error) {
	return s.entities[scope], nil
}

func (s *stubDashboard) NetworkTagIndex(ctx context.Context) (map[string][]string, error) {
	index := make(map[string][]string)
	for _, n := range s.entities[registry.ScopeNetwork] {
		index[n.ID] = n.Tags
	}
	return index, nil
}

type storeAdapter struct {
	root string
}

func (s storeAdapter) Save(scopeFolder, opFolder, base string, data any) (string, error) {
	return store.Save(s.root, scopeFolder, opFolder, base, data)
}

func (s storeAdapter) Load(scopeFolder, opFolder, name string) (any, error) {
	return store.Load(s.root, scopeFolder, opFolder, name)
}

func admins(rows ...map[string]any) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

// TestEndToEnd exercises the full workflow: init → snapshot → compare
// (clean) → compare (drifted, both engines) → verify → history.
func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	// === 1. Init ===
	root, err := store.Init(dir)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "snapshots")); err != nil {
		t.Fatalf("init: snapshots dir missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "config.json")); err != nil {
		t.Fatalf("init: config.json missing: %v", err)
	}
	if discovered, err := store.DiscoverFrom(dir); err != nil || discovered != root {
		t.Fatalf("discover: got %s (%v), want %s", discovered, err, root)
	}
	t.Log("init: OK")

	// === 2. Snapshot (store baseline) ===
	dash := &stubDashboard{
		payloads: map[string]any{
			registry.FetchOrganizationAdmins: admins(
				map[string]any{"email": "alice@example.com", "name": "Alice", "orgAccess": "full"},
				map[string]any{"email": "bob@example.com", "name": "Bob", "orgAccess": "read-only"},
			),
		},
		entities: map[registry.Scope][]entity.Record{
			registry.ScopeOrganization: {{ID: "123", Name: "Prod Org"}},
		},
	}
	deps := compare.Deps{
		Registry: registry.New(),
		Fetcher:  dash,
		Entities: dash,
		Store:    storeAdapter{root: root},
	}

	out := compare.DataOperation(ctx, deps, compare.Request{
		Scope:     registry.ScopeOrganization,
		Operation: "admins",
		Task:      compare.TaskStore,
	})
	if out.Error != "" {
		t.Fatalf("store: %s", out.Error)
	}
	if out.Filename == "" {
		t.Fatal("store: no filename returned")
	}
	names, err := store.List(root, "organization", "admins")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 1 || names[0] != out.Filename {
		t.Fatalf("list: got %v, want [%s]", names, out.Filename)
	}
	t.Logf("snapshot: stored %s", out.Filename)

	// === 3. Compare, no drift ===
	out = compare.DataOperation(ctx, deps, compare.Request{
		Scope:     registry.ScopeOrganization,
		Operation: "admins",
		Task:      compare.TaskCompare,
		Filename:  names[0],
	})
	if out.Error != "" {
		t.Fatalf("compare: %s", out.Error)
	}
	res, ok := out.Results["Prod Org"]
	if !ok {
		t.Fatalf("compare: missing result for Prod Org, got %v", out.Results)
	}
	if res.Err != "" {
		t.Fatalf("compare: entity error: %s", res.Err)
	}
	if res.Summary.HasDiffs {
		t.Fatalf("compare: expected no drift, got %+v", res.Summary.Counts)
	}
	t.Log("compare clean: OK")

	// === 4. Compare after drift ===
	// Bob's access changes and Carol appears.
	dash.payloads[registry.FetchOrganizationAdmins] = admins(
		map[string]any{"email": "alice@example.com", "name": "Alice", "orgAccess": "full"},
		map[string]any{"email": "bob@example.com", "name": "Bob", "orgAccess": "full"},
		map[string]any{"email": "carol@example.com", "name": "Carol", "orgAccess": "read-only"},
	)

	for _, engine := range []string{"structural", "flat"} {
		out = compare.DataOperation(ctx, deps, compare.Request{
			Scope:     registry.ScopeOrganization,
			Operation: "admins",
			Task:      compare.TaskCompare,
			Filename:  names[0],
			Engine:    engine,
		})
		if out.Error != "" {
			t.Fatalf("compare %s: %s", engine, out.Error)
		}
		summary := out.Results["Prod Org"].Summary
		if summary == nil || !summary.HasDiffs {
			t.Fatalf("compare %s: expected drift", engine)
		}
		if summary.Counts.Added != 1 || summary.Counts.Changed != 1 || summary.Counts.Removed != 0 {
			t.Fatalf("compare %s: counts %+v, want 1 added, 1 changed", engine, summary.Counts)
		}
		assertItemStatus(t, engine, summary, "carol@example.com", report.StatusAdded)
		assertItemStatus(t, engine, summary, "bob@example.com", report.StatusChanged)
	}
	t.Log("compare drifted: OK")

	// === 5. Verify ===
	results, err := store.VerifyAll(root)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(results) != 1 || !results[0].OK {
		t.Fatalf("verify: expected 1 passing snapshot, got %+v", results)
	}

	path := filepath.Join(root, "snapshots", "organization", "admins", names[0])
	if err := os.WriteFile(path, []byte(`{"tampered": true}`), 0644); err != nil {
		t.Fatalf("verify: tampering with snapshot: %v", err)
	}
	results, err = store.VerifyAll(root)
	if err != nil {
		t.Fatalf("verify after tamper: %v", err)
	}
	if len(results) != 1 || results[0].OK {
		t.Fatal("verify: expected tampered snapshot to fail")
	}
	if _, err := store.Load(root, "organization", "admins", names[0]); err == nil {
		t.Fatal("load: expected integrity failure for tampered snapshot")
	}
	t.Log("verify: OK")

	// === 6. History ===
	if err := history.Append(root, &history.Record{Task: "store", Scope: "organization", Operation: "admins", File: names[0]}); err != nil {
		t.Fatalf("history append: %v", err)
	}
	if err := history.Append(root, &history.Record{Task: "compare", Scope: "organization", Operation: "admins", Entities: 1, Added: 1, Changed: 1}); err != nil {
		t.Fatalf("history append: %v", err)
	}
	records, err := history.Recent(root, 10)
	if err != nil {
		t.Fatalf("history recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("history: expected 2 records, got %d", len(records))
	}
	if table := history.FormatTable(records); table == "" {
		t.Fatal("history: empty table")
	}
	t.Log("history: OK")
}

func assertItemStatus(t *testing.T, engine string, summary *report.Summary, itemID string, want report.Status) {
	t.Helper()
	for _, item := range summary.RelevantChanges {
		if fmt.Sprintf("%v", item.ItemID) == itemID {
			if item.Status != want {
				t.Fatalf("%s: item %s has status %s, want %s", engine, itemID, item.Status, want)
			}
			return
		}
	}
	t.Fatalf("%s: item %s not found in %+v", engine, itemID, summary.RelevantChanges)
}

// TestMissingBaseline confirms a compare against an absent baseline
// fails the operation without panicking.
func TestMissingBaseline(t *testing.T) {
	dir := t.TempDir()
	root, err := store.Init(dir)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	dash := &stubDashboard{
		payloads: map[string]any{},
		entities: map[registry.Scope][]entity.Record{},
	}
	deps := compare.Deps{
		Registry: registry.New(),
		Fetcher:  dash,
		Entities: dash,
		Store:    storeAdapter{root: root},
	}

	out := compare.DataOperation(context.Background(), deps, compare.Request{
		Scope:     registry.ScopeOrganization,
		Operation: "admins",
		Task:      compare.TaskCompare,
		Filename:  "admins-2026-01-01_00-00-00.json",
	})
	if out.Error == "" {
		t.Fatal("expected error for missing baseline")
	}
}
