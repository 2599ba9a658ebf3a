package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const sidecarSuffix = ".meta.json"

// Sidecar is the metadata written next to every snapshot file.
type Sidecar struct {
	ContentHash string    `json:"content_hash"`
	Scope       string    `json:"scope"`
	Operation   string    `json:"operation"`
	CreatedAt   time.Time `json:"created_at"`
}

func sidecarPath(snapshotPath string) string {
	return strings.TrimSuffix(snapshotPath, ".json") + sidecarSuffix
}

func writeSidecar(path string, meta *Sidecar) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling sidecar: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func readSidecar(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta Sidecar
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing sidecar %s: %w", path, err)
	}
	return &meta, nil
}

// VerifyResult reports the integrity state of one stored snapshot.
type VerifyResult struct {
	Path string
	OK   bool
	Err  string
}

// VerifyAll checks every snapshot in the store against its sidecar
// hash. Snapshots without a sidecar are reported as failures since
// their provenance cannot be established.
func VerifyAll(root string) ([]VerifyResult, error) {
	var results []VerifyResult

	base := filepath.Join(root, snapshotsDir)
	err := filepath.WalkDir(base, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") || strings.HasSuffix(path, sidecarSuffix) {
			return nil
		}

		rel, relErr := filepath.Rel(base, path)
		if relErr != nil {
			rel = path
		}
		res := VerifyResult{Path: rel}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			res.Err = readErr.Error()
			results = append(results, res)
			return nil
		}

		meta, metaErr := readSidecar(sidecarPath(path))
		if metaErr != nil {
			res.Err = "no integrity metadata"
			results = append(results, res)
			return nil
		}

		actual := HashContent(data)
		if actual != meta.ContentHash {
			res.Err = fmt.Sprintf("content hash mismatch: expected %s, got %s",
				ShortHash(meta.ContentHash, 12), ShortHash(actual, 12))
			results = append(results, res)
			return nil
		}

		res.OK = true
		results = append(results, res)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("walking snapshot store: %w", err)
	}

	return results, nil
}
