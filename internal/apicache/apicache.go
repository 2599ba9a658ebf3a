// Package apicache caches entity listings fetched from the dashboard
// API so repeated compare runs within a short window do not re-list the
// whole fleet. Entries live in a JSONL file under the store root and
// expire by age.
package apicache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/driftwatch/drift/internal/jsonl"
)

// CacheDir is the subdirectory within the store root for cached listings.
const CacheDir = "cache"

// Entry is one cached listing keyed by scope and organization.
type Entry struct {
	Key       string          `json:"key"`
	Scope     string          `json:"scope"`
	OrgID     string          `json:"org_id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func cachePath(root string) string {
	return filepath.Join(root, CacheDir, "listings.jsonl")
}

func makeKey(scope, orgID string) string {
	h := sha256.Sum256([]byte(scope + ":" + orgID))
	return hex.EncodeToString(h[:16])
}

// Get returns the cached listing for (scope, orgID) if it is younger
// than maxAge. Returns nil on a miss or an expired entry.
func Get(root, scope, orgID string, maxAge time.Duration) (*Entry, error) {
	entries, err := jsonl.Read[Entry](cachePath(root))
	if err != nil {
		return nil, fmt.Errorf("reading listing cache: %w", err)
	}

	key := makeKey(scope, orgID)
	for i := range entries {
		if entries[i].Key != key {
			continue
		}
		if time.Since(entries[i].CreatedAt) > maxAge {
			return nil, nil
		}
		return &entries[i], nil
	}
	return nil, nil
}

// Put stores a listing, replacing any previous entry for the same
// scope and organization.
func Put(root string, entry *Entry) error {
	entry.Key = makeKey(entry.Scope, entry.OrgID)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	existing, err := jsonl.Read[Entry](cachePath(root))
	if err != nil {
		return fmt.Errorf("reading listing cache: %w", err)
	}

	replaced := false
	for i := range existing {
		if existing[i].Key == entry.Key {
			existing[i] = *entry
			replaced = true
			break
		}
	}
	if !replaced {
		existing = append(existing, *entry)
	}

	sort.Slice(existing, func(i, j int) bool { return existing[i].Key < existing[j].Key })
	return jsonl.Write(cachePath(root), existing)
}

// Invalidate drops every cached listing for the given scope. Returns
// the number of entries removed.
func Invalidate(root, scope string) (int, error) {
	existing, err := jsonl.Read[Entry](cachePath(root))
	if err != nil {
		return 0, fmt.Errorf("reading listing cache: %w", err)
	}
	if len(existing) == 0 {
		return 0, nil
	}

	var kept []Entry
	removed := 0
	for _, e := range existing {
		if e.Scope == scope {
			removed++
			continue
		}
		kept = append(kept, e)
	}

	if removed > 0 {
		if err := jsonl.Write(cachePath(root), kept); err != nil {
			return 0, fmt.Errorf("writing listing cache: %w", err)
		}
	}
	return removed, nil
}
