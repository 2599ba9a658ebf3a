// Package compare orchestrates drift comparison runs: it iterates the
// entities of a scope, fetches each one's current snapshot through the
// injected fetch capability, runs the selected engine against the
// baseline, and aggregates per-entity summaries. One failing entity
// never aborts the batch.
package compare

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/driftwatch/drift/internal/classify"
	"github.com/driftwatch/drift/internal/diff"
	"github.com/driftwatch/drift/internal/entity"
	"github.com/driftwatch/drift/internal/flat"
	"github.com/driftwatch/drift/internal/registry"
	"github.com/driftwatch/drift/internal/report"
)

// EntityResult is the outcome for one entity: either a summary or an
// error message.
type EntityResult struct {
	Summary *report.Summary `json:"summary,omitempty"`
	Err     string          `json:"error,omitempty"`
}

// Run compares the baseline against every entity's live snapshot and
// returns the results keyed by entity display name. Entities rejected
// by the filter or yielding no data are skipped with a warning; fetch
// failures are recorded per entity. The baseline is read-only
// throughout, so entities are independent of each other.
func Run(ctx context.Context, baseline any, entities []entity.Record, op registry.Operation, fetcher registry.Fetcher, filter entity.Predicate, engine Engine) (map[string]EntityResult, error) {
	if _, err := ParseEngine(string(engine)); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = entity.All
	}

	log := logrus.WithFields(logrus.Fields{"scope": op.Scope, "operation": op.Name, "engine": engine})
	if op.GroupBy != "" {
		log.WithField("group_by", op.GroupBy).Info("starting comparison")
	} else {
		log.Info("starting comparison without grouping key")
	}

	results := make(map[string]EntityResult)
	for _, ent := range entities {
		if ent.ID == "" {
			log.WithField("entity", ent.Name).Warn("skipping entity with missing id")
			continue
		}
		if !filter(ent) {
			continue
		}

		name := ent.DisplayName()
		current, err := fetcher.FetchOperation(ctx, op.FetchOp, ent.ID)
		if err != nil {
			log.WithError(err).WithField("entity", name).Warn("fetch failed")
			results[name] = EntityResult{Err: err.Error()}
			continue
		}
		if current == nil {
			log.WithField("entity", name).Warn("no current data for entity, skipping")
			continue
		}

		summary, err := runEngine(engine, baseline, current, op.GroupBy, name)
		if err != nil {
			if errors.Is(err, diff.ErrInvalidInput) {
				// Scalar roots cannot be diffed; report no drift rather
				// than failing the entity.
				log.WithField("entity", name).Warn("comparison input not a map or sequence, recording empty result")
				results[name] = EntityResult{Summary: report.Summarize(nil, nil, nil)}
				continue
			}
			results[name] = EntityResult{Err: err.Error()}
			continue
		}

		results[name] = EntityResult{Summary: summary}
	}

	log.WithField("entities", len(results)).Info("comparison complete")
	return results, nil
}

func runEngine(engine Engine, baseline, current any, groupKey, entityName string) (*report.Summary, error) {
	switch engine {
	case EngineFlat:
		return flat.CompareSnapshots(baseline, current, groupKey, entityName)
	default:
		return classify.CompareSnapshots(baseline, current, groupKey)
	}
}
