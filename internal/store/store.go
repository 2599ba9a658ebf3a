// Package store persists baseline snapshots as timestamped JSON files
// under a .drift/ directory, organized by scope and operation folder.
// Every snapshot carries a metadata sidecar with its content hash so
// later loads can detect corruption.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// StoreDirName is the snapshot store directory created by Init.
const StoreDirName = ".drift"

// snapshotsDir is the subdirectory holding saved snapshots.
const snapshotsDir = "snapshots"

// ErrNotFound is returned when a requested snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

type Config struct {
	Version string `json:"version"`
}

// Init creates a .drift/ store under dir. Fails if one already exists.
func Init(dir string) (string, error) {
	root := filepath.Join(dir, StoreDirName)

	if _, err := os.Stat(root); err == nil {
		return "", fmt.Errorf("drift store already initialized at %s", root)
	}

	for _, d := range []string{root, filepath.Join(root, snapshotsDir)} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return "", fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := Config{Version: "0.1"}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(root, "config.json"), data, 0644); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}

	return root, nil
}

// Discover walks up from the current directory to find the nearest
// .drift/ directory.
func Discover() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return DiscoverFrom(dir)
}

// DiscoverFrom walks up from dir to find the nearest .drift/ directory.
func DiscoverFrom(dir string) (string, error) {
	for {
		candidate := filepath.Join(dir, StoreDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no drift store found (run 'drift init' to create one)")
		}
		dir = parent
	}
}

func operationDir(root, scopeFolder, opFolder string) string {
	return filepath.Join(root, snapshotsDir, scopeFolder, opFolder)
}

// TimestampedName builds a snapshot filename from a base name and a
// point in time: <base>-<YYYY-MM-DD_HH-MM-SS>.json. The format sorts
// lexically in chronological order.
func TimestampedName(base string, t time.Time) string {
	return fmt.Sprintf("%s-%s.json", base, t.Format("2006-01-02_15-04-05"))
}

// Save writes a snapshot under scopeFolder/opFolder with a timestamped
// name derived from base, plus a metadata sidecar carrying the content
// hash. Returns the filename. Saving content identical to the latest
// existing snapshot is allowed but logged, since the new baseline adds
// nothing.
func Save(root, scopeFolder, opFolder, base string, data any) (string, error) {
	dir := operationDir(root, scopeFolder, opFolder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	hash := HashContent(encoded)
	if prev, err := Latest(root, scopeFolder, opFolder); err == nil {
		if meta, err := readSidecar(sidecarPath(filepath.Join(dir, prev))); err == nil && meta.ContentHash == hash {
			logrus.WithFields(logrus.Fields{"scope": scopeFolder, "operation": opFolder}).Info("snapshot content identical to previous baseline")
		}
	}

	name := TimestampedName(base, time.Now())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}

	meta := &Sidecar{
		ContentHash: hash,
		Scope:       scopeFolder,
		Operation:   opFolder,
		CreatedAt:   time.Now().UTC(),
	}
	if err := writeSidecar(sidecarPath(path), meta); err != nil {
		return "", fmt.Errorf("writing snapshot metadata: %w", err)
	}

	return name, nil
}

// Load reads a snapshot by name and decodes it. When a sidecar exists,
// the content hash is verified before decoding.
func Load(root, scopeFolder, opFolder, name string) (any, error) {
	path := filepath.Join(operationDir(root, scopeFolder, opFolder), name)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("reading snapshot %s: %w", name, err)
	}

	if meta, err := readSidecar(sidecarPath(path)); err == nil {
		actual := HashContent(data)
		if actual != meta.ContentHash {
			return nil, fmt.Errorf("snapshot %s failed integrity check: expected %s, got %s",
				name, ShortHash(meta.ContentHash, 12), ShortHash(actual, 12))
		}
	}

	var snapshot any
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", name, err)
	}
	return snapshot, nil
}

// List returns the snapshot filenames for an operation, oldest first.
func List(root, scopeFolder, opFolder string) ([]string, error) {
	entries, err := os.ReadDir(operationDir(root, scopeFolder, opFolder))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasSuffix(e.Name(), sidecarSuffix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Latest returns the most recent snapshot filename for an operation.
func Latest(root, scopeFolder, opFolder string) (string, error) {
	names, err := List(root, scopeFolder, opFolder)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: no snapshots for %s/%s", ErrNotFound, scopeFolder, opFolder)
	}
	return names[len(names)-1], nil
}
