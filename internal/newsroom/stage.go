package newsroom

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/oddsdesk/polypress/internal/extract"
	"github.com/oddsdesk/polypress/internal/logger"
	"github.com/oddsdesk/polypress/internal/models"
)

// resultKind classifies how a batch's outputs were obtained.
type resultKind int

const (
	kindSucceeded resultKind = iota
	kindPartial
	kindFallback
)

func (k resultKind) String() string {
	switch k {
	case kindSucceeded:
		return "SUCCEEDED"
	case kindPartial:
		return "PARTIAL"
	default:
		return "FALLBACK"
	}
}

// generationUnit is one (story, prior-stage outputs) pair submitted to a
// stage. Units are stateless and rebuilt fresh for every stage.
type generationUnit struct {
	story models.Story
	prior map[string]string
}

// stageSpec describes one named generation stage.
type stageSpec struct {
	name     string
	system   string
	prompt   func(units []generationUnit) string
	fallback func(m models.Market) string
}

// batchResult carries one batch's outputs plus how they were produced.
// Coalescing to fallback happens here, uniformly, instead of ad hoc
// error handling at each call site.
type batchResult struct {
	outputs map[string]string
	kind    resultKind
}

// runStage fans a stage out over size-bounded batches, runs them
// concurrently with staggered starts, and merges the per-batch maps.
// Batches write to disjoint slots so the merge needs no locking. The
// returned result always contains an entry for every story in the
// blueprint: missing ids are backfilled from the stage's fallback
// generator as a last resort.
func (o *Orchestrator) runStage(ctx context.Context, spec stageSpec, blueprint models.Blueprint, prior map[string]string) models.StageResult {
	units := make([]generationUnit, len(blueprint.Stories))
	for i, s := range blueprint.Stories {
		units[i] = generationUnit{story: s, prior: prior}
	}

	batches := chunk(units, o.config.BatchSize)
	results := make([]batchResult, len(batches))

	logger.Debug("Stage %s dispatched: %d stories in %d batches", spec.name, len(units), len(batches))

	var wg sync.WaitGroup
	for bi := range batches {
		wg.Add(1)
		go func(bi int) {
			defer wg.Done()
			// Stagger batch starts to spread load against the
			// generation service's rate limits.
			if bi > 0 {
				select {
				case <-ctx.Done():
					results[bi] = fallbackBatch(spec, batches[bi])
					return
				case <-time.After(time.Duration(bi) * o.config.Stagger):
				}
			}
			results[bi] = o.runBatch(ctx, spec, batches[bi])
		}(bi)
	}
	wg.Wait()

	merged := make(map[string]string, len(units))
	succeeded, partial, fell := 0, 0, 0
	for _, r := range results {
		for id, text := range r.outputs {
			merged[id] = text
		}
		switch r.kind {
		case kindSucceeded:
			succeeded++
		case kindPartial:
			partial++
		default:
			fell++
		}
	}

	// Totality invariant: every story id has a non-empty entry, whatever
	// happened to its batch.
	backfilled := 0
	for _, s := range blueprint.Stories {
		if merged[s.Market.ID] == "" {
			merged[s.Market.ID] = spec.fallback(s.Market)
			backfilled++
		}
	}
	if backfilled > 0 {
		logger.Warn("Stage %s backfilled %d missing entries", spec.name, backfilled)
	}

	note := fmt.Sprintf("%d/%d batches succeeded", succeeded, len(batches))
	if partial > 0 || fell > 0 {
		note += fmt.Sprintf(" (%d partial, %d fallback)", partial, fell)
	}
	logger.Info("Stage %s complete: %s", spec.name, note)

	return models.StageResult{Outputs: merged, Note: note}
}

// runBatch builds one request for the whole batch, calls the generation
// service, and maps the indexed response fields back to story ids through
// an explicit index table. Response key order is never relied on.
func (o *Orchestrator) runBatch(ctx context.Context, spec stageSpec, units []generationUnit) batchResult {
	text, err := o.completer.Complete(ctx, spec.system, spec.prompt(units))
	if err != nil {
		logger.Warn("Stage %s batch degraded to fallback: %v", spec.name, err)
		return fallbackBatch(spec, units)
	}

	fields, err := extract.StringMap(text)
	if err != nil {
		logger.Warn("Stage %s batch response unusable, using fallback: %v", spec.name, err)
		return fallbackBatch(spec, units)
	}

	outputs := make(map[string]string, len(units))
	missing := 0
	for i, u := range units {
		id := u.story.Market.ID
		if v := fields[strconv.Itoa(i)]; v != "" {
			outputs[id] = v
		} else {
			outputs[id] = spec.fallback(u.story.Market)
			missing++
		}
	}

	kind := kindSucceeded
	if missing > 0 {
		kind = kindPartial
	}
	return batchResult{outputs: outputs, kind: kind}
}

func fallbackBatch(spec stageSpec, units []generationUnit) batchResult {
	outputs := make(map[string]string, len(units))
	for _, u := range units {
		outputs[u.story.Market.ID] = spec.fallback(u.story.Market)
	}
	return batchResult{outputs: outputs, kind: kindFallback}
}

func chunk(units []generationUnit, size int) [][]generationUnit {
	if size <= 0 {
		size = 1
	}
	var out [][]generationUnit
	for start := 0; start < len(units); start += size {
		end := start + size
		if end > len(units) {
			end = len(units)
		}
		out = append(out, units[start:end])
	}
	return out
}
