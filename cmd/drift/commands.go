package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/driftwatch/drift/internal/compare"
	"github.com/driftwatch/drift/internal/dashboard"
	"github.com/driftwatch/drift/internal/history"
	"github.com/driftwatch/drift/internal/registry"
	"github.com/driftwatch/drift/internal/store"
)

var snapshotID string
var compareEngine string
var compareHuman bool
var compareOrgIDs []string
var compareNetworkTags []string
var compareDeviceTags []string
var compareDeviceModels []string
var compareProductTypes []string
var operationsScope string
var historyLimit int

// storeAdapter binds the on-disk snapshot store to one discovered root.
type storeAdapter struct {
	root string
}

func (s storeAdapter) Save(scopeFolder, opFolder, base string, data any) (string, error) {
	return store.Save(s.root, scopeFolder, opFolder, base, data)
}

func (s storeAdapter) Load(scopeFolder, opFolder, name string) (any, error) {
	return store.Load(s.root, scopeFolder, opFolder, name)
}

// loadRegistry returns the built-in operations merged with the optional
// operations.yaml overlay in the store root.
func loadRegistry(root string) (*registry.Registry, error) {
	reg := registry.New()
	if err := reg.LoadFile(filepath.Join(root, "operations.yaml")); err != nil {
		return nil, err
	}
	return reg, nil
}

func newClient(root string) (*dashboard.Client, error) {
	apiKey := viper.GetString("api_key")
	if apiKey == "" {
		return nil, fmt.Errorf("no API key configured (set DRIFT_API_KEY or --api-key)")
	}
	orgID := viper.GetString("org")
	if orgID == "" {
		return nil, fmt.Errorf("no organization configured (set DRIFT_ORG or --org)")
	}

	return dashboard.NewClient(dashboard.Config{
		BaseURL:   viper.GetString("base_url"),
		APIKey:    apiKey,
		OrgID:     orgID,
		CacheRoot: root,
	}), nil
}

func buildDeps(root string) (compare.Deps, error) {
	reg, err := loadRegistry(root)
	if err != nil {
		return compare.Deps{}, err
	}
	client, err := newClient(root)
	if err != nil {
		return compare.Deps{}, err
	}
	return compare.Deps{
		Registry: reg,
		Fetcher:  client,
		Entities: client,
		Store:    storeAdapter{root: root},
	}, nil
}

func recordRun(root string, rec *history.Record) {
	if err := history.Append(root, rec); err != nil {
		logrus.WithError(err).Warn("failed to record run history")
	}
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new drift store",
	Long:  "Create a .drift/ directory in the current working directory with the required subdirectory structure.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		root, err := store.Init(dir)
		if err != nil {
			return err
		}
		fmt.Printf("Initialized drift store at %s\n", root)
		return nil
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <scope> <operation>",
	Short: "Fetch live data and store it as a new baseline",
	Long:  "Fetch the operation's current data from the dashboard API and save it as a timestamped baseline snapshot.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := store.Discover()
		if err != nil {
			return err
		}
		scope, err := registry.ParseScope(args[0])
		if err != nil {
			return err
		}
		if scope != registry.ScopeOrganization && snapshotID == "" {
			return fmt.Errorf("%s-scope snapshots need --id to select the entity", scope)
		}

		deps, err := buildDeps(root)
		if err != nil {
			return err
		}

		started := time.Now()
		out := compare.DataOperation(cmd.Context(), deps, compare.Request{
			Scope:      scope,
			Operation:  args[1],
			Task:       compare.TaskStore,
			Identifier: snapshotID,
		})
		if out.Error != "" {
			return errors.New(out.Error)
		}

		recordRun(root, &history.Record{
			Task:      compare.TaskStore,
			Scope:     string(scope),
			Operation: args[1],
			File:      out.Filename,
			Duration:  time.Since(started).Milliseconds(),
			StartedAt: started.UTC(),
		})

		fmt.Printf("Stored baseline %s\n", out.Filename)
		return nil
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <scope> <operation> [baseline-file]",
	Short: "Compare live data against a stored baseline",
	Long:  "Fetch current data for every entity in scope and compare it against the named baseline snapshot (the most recent one when omitted).",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := store.Discover()
		if err != nil {
			return err
		}
		scope, err := registry.ParseScope(args[0])
		if err != nil {
			return err
		}

		deps, err := buildDeps(root)
		if err != nil {
			return err
		}
		op, ok := deps.Registry.Lookup(scope, args[1])
		if !ok {
			return fmt.Errorf("unknown operation %s/%s", scope, args[1])
		}

		filename := ""
		if len(args) == 3 {
			filename = args[2]
		} else {
			filename, err = store.Latest(root, op.Scope.Folder(), op.Folder)
			if err != nil {
				return err
			}
		}

		started := time.Now()
		out := compare.DataOperation(cmd.Context(), deps, compare.Request{
			Scope:        scope,
			Operation:    args[1],
			Task:         compare.TaskCompare,
			Filename:     filename,
			Engine:       compareEngine,
			OrgIDs:       compareOrgIDs,
			NetworkTags:  compareNetworkTags,
			DeviceTags:   compareDeviceTags,
			DeviceModels: compareDeviceModels,
			ProductTypes: compareProductTypes,
		})
		if out.Error != "" {
			return errors.New(out.Error)
		}

		rec := &history.Record{
			Task:      compare.TaskCompare,
			Scope:     string(scope),
			Operation: args[1],
			File:      filename,
			Engine:    compareEngine,
			Entities:  len(out.Results),
			Duration:  time.Since(started).Milliseconds(),
			StartedAt: started.UTC(),
		}
		for _, res := range out.Results {
			if res.Err != "" {
				rec.Errors++
				continue
			}
			rec.Added += res.Summary.Counts.Added
			rec.Removed += res.Summary.Counts.Removed
			rec.Changed += res.Summary.Counts.Changed
			rec.Other += res.Summary.Counts.Other
		}
		recordRun(root, rec)

		if compareHuman {
			fmt.Printf("Baseline: %s\n\n", filename)
			fmt.Print(renderResults(out.Results))
			return nil
		}
		encoded, err := json.MarshalIndent(out.Results, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
		fmt.Println(string(encoded))
		return nil
	},
}

var operationsCmd = &cobra.Command{
	Use:   "operations",
	Short: "List the known data operations",
	Long:  "List the built-in data operations plus any defined in the store's operations.yaml overlay.",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := registry.New()
		if root, err := store.Discover(); err == nil {
			if reg, err = loadRegistry(root); err != nil {
				return err
			}
		}

		ops := reg.All()
		if operationsScope != "" {
			scope, err := registry.ParseScope(operationsScope)
			if err != nil {
				return err
			}
			ops = reg.ByScope(scope)
		}

		fmt.Print(renderOperations(ops))
		return nil
	},
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots <scope> <operation>",
	Short: "List stored baselines for an operation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := store.Discover()
		if err != nil {
			return err
		}
		scope, err := registry.ParseScope(args[0])
		if err != nil {
			return err
		}
		reg, err := loadRegistry(root)
		if err != nil {
			return err
		}
		op, ok := reg.Lookup(scope, args[1])
		if !ok {
			return fmt.Errorf("unknown operation %s/%s", scope, args[1])
		}

		names, err := store.List(root, op.Scope.Folder(), op.Folder)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Printf("No baselines stored for %s/%s.\n", scope, args[1])
			return nil
		}
		for i, name := range names {
			if i == len(names)-1 {
				fmt.Printf("%s  (latest)\n", name)
			} else {
				fmt.Println(name)
			}
		}
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the integrity of every stored snapshot",
	Long:  "Verify each stored snapshot against the content hash in its metadata sidecar.",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := store.Discover()
		if err != nil {
			return err
		}
		results, err := store.VerifyAll(root)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No snapshots to verify.")
			return nil
		}

		failed := 0
		for _, res := range results {
			if res.OK {
				fmt.Printf("%s  %s\n", okLabel(), res.Path)
				continue
			}
			failed++
			fmt.Printf("%s  %s: %s\n", failLabel(), res.Path, res.Err)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d snapshots failed verification", failed, len(results))
		}
		fmt.Printf("All %d snapshots verified.\n", len(results))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent store and compare runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := store.Discover()
		if err != nil {
			return err
		}
		records, err := history.Recent(root, historyLimit)
		if err != nil {
			return err
		}
		fmt.Print(history.FormatTable(records))
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotID, "id", "", "network or device id to snapshot (required for non-organization scopes)")
	compareCmd.Flags().StringVar(&compareEngine, "engine", "", "comparison engine: structural (default) or flat")
	compareCmd.Flags().BoolVar(&compareHuman, "human", false, "output human-readable summary instead of JSON")
	compareCmd.Flags().StringSliceVar(&compareOrgIDs, "org-ids", nil, "restrict organization comparisons to these org ids")
	compareCmd.Flags().StringSliceVar(&compareNetworkTags, "network-tags", nil, "restrict to networks carrying any of these tags")
	compareCmd.Flags().StringSliceVar(&compareDeviceTags, "device-tags", nil, "restrict to devices carrying any of these tags")
	compareCmd.Flags().StringSliceVar(&compareDeviceModels, "device-models", nil, "restrict to these device models")
	compareCmd.Flags().StringSliceVar(&compareProductTypes, "product-types", nil, "restrict to these product types")
	operationsCmd.Flags().StringVar(&operationsScope, "scope", "", "only list operations for this scope")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of recent runs to display")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(operationsCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(historyCmd)
}
