package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftwatch/drift/internal/diff"
	"github.com/driftwatch/drift/internal/report"
)

func field(s string) *string { return &s }

func TestClassifyFieldChange(t *testing.T) {
	events := []diff.Event{
		{Kind: diff.ValueChanged, Path: diff.Path{"bob@example.com", "orgAccess"}, Old: "read-only", New: "full"},
	}

	relevant, other := Classify(events)
	require.Len(t, relevant, 1)
	assert.Empty(t, other)

	assert.Equal(t, "bob@example.com", relevant[0].ItemID)
	assert.Equal(t, report.StatusChanged, relevant[0].Status)
	require.Len(t, relevant[0].Changes, 1)
	assert.Equal(t, field("orgAccess"), relevant[0].Changes[0].Field)
	assert.Equal(t, "read-only", relevant[0].Changes[0].Reference)
	assert.Equal(t, "full", relevant[0].Changes[0].Current)
}

func TestClassifyWholeItemAdded(t *testing.T) {
	carol := map[string]any{"email": "carol@example.com", "name": "Carol"}
	events := []diff.Event{
		{Kind: diff.IterableItemAdded, Path: diff.Path{"carol@example.com"}, New: carol},
	}

	relevant, other := Classify(events)
	require.Len(t, relevant, 1)
	assert.Empty(t, other)

	assert.Equal(t, report.StatusAdded, relevant[0].Status)
	require.Len(t, relevant[0].Changes, 1)
	assert.Nil(t, relevant[0].Changes[0].Field, "whole-item change has no field")
	assert.Equal(t, report.NotAvailable, relevant[0].Changes[0].Reference)
	assert.Equal(t, carol, relevant[0].Changes[0].Current)
}

func TestClassifyWholeItemSupersedesFieldChanges(t *testing.T) {
	// A field-level event and a whole-item addition for the same id: the
	// full item wins and the field edit is dropped.
	full := map[string]any{"portId": "4", "enabled": true}
	events := []diff.Event{
		{Kind: diff.ValueChanged, Path: diff.Path{"4", "enabled"}, Old: false, New: true},
		{Kind: diff.IterableItemAdded, Path: diff.Path{"4"}, New: full},
	}

	relevant, _ := Classify(events)
	require.Len(t, relevant, 1)
	assert.Equal(t, report.StatusAdded, relevant[0].Status)
	require.Len(t, relevant[0].Changes, 1)
	assert.Nil(t, relevant[0].Changes[0].Field)
	assert.Equal(t, full, relevant[0].Changes[0].Current)
}

func TestClassifyRemovedWinsOverAdded(t *testing.T) {
	events := []diff.Event{
		{Kind: diff.IterableItemAdded, Path: diff.Path{"guest"}, New: map[string]any{"name": "guest"}},
		{Kind: diff.IterableItemRemoved, Path: diff.Path{"guest"}, Old: map[string]any{"name": "guest", "vlan": float64(10)}},
	}

	relevant, _ := Classify(events)
	require.Len(t, relevant, 1)
	assert.Equal(t, report.StatusRemoved, relevant[0].Status)
	require.Len(t, relevant[0].Changes, 1)
	assert.Equal(t, report.NotAvailable, relevant[0].Changes[0].Current)
}

func TestClassifyNestedAddRemove(t *testing.T) {
	events := []diff.Event{
		{Kind: diff.ItemAdded, Path: diff.Path{"1", "stpGuard"}, New: "root guard"},
		{Kind: diff.ItemRemoved, Path: diff.Path{"1", "poeEnabled"}, Old: true},
	}

	relevant, _ := Classify(events)
	require.Len(t, relevant, 1)
	assert.Equal(t, report.StatusChanged, relevant[0].Status, "nested additions are field edits, not item additions")
	require.Len(t, relevant[0].Changes, 2)
	assert.Equal(t, field("stpGuard"), relevant[0].Changes[0].Field)
	assert.Equal(t, report.NotAvailable, relevant[0].Changes[0].Reference)
	assert.Equal(t, field("poeEnabled"), relevant[0].Changes[1].Field)
	assert.Equal(t, report.NotAvailable, relevant[0].Changes[1].Current)
}

func TestClassifyPositionalReplacement(t *testing.T) {
	events := []diff.Event{
		{Kind: diff.ValueChanged, Path: diff.Path{2}, Old: "c", New: "d"},
	}

	relevant, _ := Classify(events)
	require.Len(t, relevant, 1)
	assert.Equal(t, 2, relevant[0].ItemID)
	require.Len(t, relevant[0].Changes, 1)
	assert.Equal(t, field(FullItemField), relevant[0].Changes[0].Field)
}

func TestClassifyRootMapReplacedBySequence(t *testing.T) {
	events := []diff.Event{
		{
			Kind: diff.TypeChanged,
			Path: diff.Path{},
			Old:  map[string]any{"alpha": map[string]any{"x": float64(1)}, "beta": "b"},
			New:  []any{"now a list"},
		},
	}

	relevant, other := Classify(events)
	assert.Empty(t, other)
	require.Len(t, relevant, 2)
	for _, item := range relevant {
		assert.Equal(t, report.StatusRemoved, item.Status)
	}
}

func TestClassifyRootScalarReplacement(t *testing.T) {
	events := []diff.Event{
		{Kind: diff.TypeChanged, Path: diff.Path{}, Old: []any{"a"}, New: []any{map[string]any{}}},
	}

	relevant, other := Classify(events)
	assert.Empty(t, relevant)
	require.Len(t, other, 1)
	assert.Equal(t, "root", other[0].Field)
}

func TestClassifyUnknownKindGoesToOther(t *testing.T) {
	events := []diff.Event{
		{Kind: diff.SetAdded, Path: diff.Path{"item", "members"}, New: "x"},
	}

	relevant, other := Classify(events)
	assert.Empty(t, relevant)
	require.Len(t, other, 1)
	assert.Equal(t, "item", other[0].ItemID)
	assert.Equal(t, "item.members", other[0].Field)
}

func TestCompareSnapshotsCounts(t *testing.T) {
	baseline := []any{
		map[string]any{"email": "alice@example.com", "orgAccess": "full"},
		map[string]any{"email": "bob@example.com", "orgAccess": "read-only"},
		map[string]any{"email": "dave@example.com", "orgAccess": "full"},
	}
	current := []any{
		map[string]any{"email": "alice@example.com", "orgAccess": "full"},
		map[string]any{"email": "bob@example.com", "orgAccess": "full"},
		map[string]any{"email": "carol@example.com", "orgAccess": "read-only"},
	}

	summary, err := CompareSnapshots(baseline, current, "email")
	require.NoError(t, err)
	assert.True(t, summary.HasDiffs)
	assert.Equal(t, 1, summary.Counts.Added)
	assert.Equal(t, 1, summary.Counts.Removed)
	assert.Equal(t, 1, summary.Counts.Changed)
	assert.Equal(t, 0, summary.Counts.Other)
	assert.NotNil(t, summary.RawDiff)
}

func TestCompareSnapshotsMapComplementarity(t *testing.T) {
	// Keys only in current are added with their full value; keys only in
	// baseline are removed with their full value.
	baseline := map[string]any{
		"shared": map[string]any{"x": float64(1)},
		"old":    map[string]any{"y": float64(2)},
	}
	current := map[string]any{
		"shared": map[string]any{"x": float64(1)},
		"new":    map[string]any{"z": float64(3)},
	}

	summary, err := CompareSnapshots(baseline, current, "")
	require.NoError(t, err)
	require.Len(t, summary.RelevantChanges, 2)

	byID := make(map[any]report.EntityChange)
	for _, item := range summary.RelevantChanges {
		byID[item.ItemID] = item
	}

	removed := byID["old"]
	assert.Equal(t, report.StatusRemoved, removed.Status)
	require.Len(t, removed.Changes, 1)
	assert.Equal(t, map[string]any{"y": float64(2)}, removed.Changes[0].Reference)

	added := byID["new"]
	assert.Equal(t, report.StatusAdded, added.Status)
	require.Len(t, added.Changes, 1)
	assert.Equal(t, map[string]any{"z": float64(3)}, added.Changes[0].Current)
}

func TestCompareSnapshotsReflexive(t *testing.T) {
	snapshot := map[string]any{"reporting": map[string]any{"enabled": true}}

	summary, err := CompareSnapshots(snapshot, snapshot, "")
	require.NoError(t, err)
	assert.False(t, summary.HasDiffs)
	assert.Empty(t, summary.RelevantChanges)
}

func TestCompareSnapshotsInvalidInput(t *testing.T) {
	_, err := CompareSnapshots("scalar", map[string]any{}, "")
	require.ErrorIs(t, err, diff.ErrInvalidInput)
}
