package compare

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/driftwatch/drift/internal/entity"
	"github.com/driftwatch/drift/internal/registry"
	"github.com/driftwatch/drift/internal/store"
)

// Tasks accepted by DataOperation.
const (
	TaskStore   = "store"
	TaskCompare = "compare"
)

// EntitySource enumerates entities and resolves network tags for
// device filtering.
type EntitySource interface {
	ListEntities(ctx context.Context, scope registry.Scope) ([]entity.Record, error)
	NetworkTagIndex(ctx context.Context) (map[string][]string, error)
}

// SnapshotStore persists and loads baselines.
type SnapshotStore interface {
	Save(scopeFolder, opFolder, base string, data any) (string, error)
	Load(scopeFolder, opFolder, name string) (any, error)
}

// Deps are the injected collaborators of a data operation.
type Deps struct {
	Registry *registry.Registry
	Fetcher  registry.Fetcher
	Entities EntitySource
	Store    SnapshotStore
}

// Request describes one data operation.
type Request struct {
	Scope     registry.Scope
	Operation string
	Task      string
	// Identifier selects the entity to snapshot for network- and
	// device-scope store tasks.
	Identifier string
	// Filename is the baseline to compare against.
	Filename string
	Engine   string
	// Filter allow-lists, applied per scope during compare.
	OrgIDs       []string
	NetworkTags  []string
	DeviceTags   []string
	DeviceModels []string
	ProductTypes []string
}

// Outcome is the structured result of a data operation. Errors are
// carried as values, never raised past this boundary.
type Outcome struct {
	Success  bool                    `json:"success,omitempty"`
	Error    string                  `json:"error,omitempty"`
	Filename string                  `json:"filename,omitempty"`
	Results  map[string]EntityResult `json:"results,omitempty"`
}

// DataOperation is the single orchestration entry point: it stores a
// new baseline or runs a drift comparison for one (scope, operation)
// pair. A failure affects only this operation; the caller may run
// others in the same session.
func DataOperation(ctx context.Context, deps Deps, req Request) Outcome {
	op, ok := deps.Registry.Lookup(req.Scope, req.Operation)
	if !ok {
		return Outcome{Error: fmt.Sprintf("unknown operation %s/%s", req.Scope, req.Operation)}
	}

	switch req.Task {
	case TaskStore:
		return storeBaseline(ctx, deps, req, op)
	case TaskCompare:
		return compareBaseline(ctx, deps, req, op)
	default:
		return Outcome{Error: fmt.Sprintf("unknown task %q (expected store or compare)", req.Task)}
	}
}

func storeBaseline(ctx context.Context, deps Deps, req Request, op registry.Operation) Outcome {
	data, err := deps.Fetcher.FetchOperation(ctx, op.FetchOp, req.Identifier)
	if err != nil {
		return Outcome{Error: fmt.Sprintf("fetching %s/%s: %v", req.Scope, req.Operation, err)}
	}
	if data == nil {
		return Outcome{Error: fmt.Sprintf("no data returned for %s/%s", req.Scope, req.Operation)}
	}

	filename, err := deps.Store.Save(op.Scope.Folder(), op.Folder, op.FileName, data)
	if err != nil {
		return Outcome{Error: fmt.Sprintf("saving baseline: %v", err)}
	}

	logrus.WithFields(logrus.Fields{"scope": req.Scope, "operation": req.Operation, "file": filename}).Info("baseline stored")
	return Outcome{Success: true, Filename: filename}
}

func compareBaseline(ctx context.Context, deps Deps, req Request, op registry.Operation) Outcome {
	engine, err := ParseEngine(req.Engine)
	if err != nil {
		return Outcome{Error: err.Error()}
	}

	baseline, err := deps.Store.Load(op.Scope.Folder(), op.Folder, req.Filename)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Outcome{Error: fmt.Sprintf("baseline not found: %s", req.Filename)}
		}
		return Outcome{Error: fmt.Sprintf("loading baseline: %v", err)}
	}

	entities, err := deps.Entities.ListEntities(ctx, req.Scope)
	if err != nil {
		return Outcome{Error: fmt.Sprintf("listing entities: %v", err)}
	}

	filter, err := buildFilter(ctx, deps, req, op)
	if err != nil {
		return Outcome{Error: err.Error()}
	}

	results, err := Run(ctx, baseline, entities, op, deps.Fetcher, filter, engine)
	if err != nil {
		return Outcome{Error: err.Error()}
	}
	return Outcome{Results: results}
}

func buildFilter(ctx context.Context, deps Deps, req Request, op registry.Operation) (entity.Predicate, error) {
	switch req.Scope {
	case registry.ScopeOrganization:
		return entity.OrganizationAllowList(req.OrgIDs), nil
	case registry.ScopeNetwork:
		return entity.NetworkFilter(req.NetworkTags, op.ProductType), nil
	case registry.ScopeDevice:
		opts := entity.DeviceFilterOptions{
			Tags:         req.DeviceTags,
			Models:       req.DeviceModels,
			ProductTypes: req.ProductTypes,
			NetworkTags:  req.NetworkTags,
		}
		if op.ProductType != "" && len(opts.ProductTypes) == 0 {
			opts.ProductTypes = []string{op.ProductType}
		}
		if len(req.NetworkTags) > 0 {
			index, err := deps.Entities.NetworkTagIndex(ctx)
			if err != nil {
				return nil, fmt.Errorf("building network tag index: %w", err)
			}
			opts.NetworkTagsByID = index
		}
		return entity.DeviceFilter(opts), nil
	default:
		return nil, fmt.Errorf("unknown scope %q", req.Scope)
	}
}
