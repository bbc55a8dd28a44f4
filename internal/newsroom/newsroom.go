// Package newsroom orchestrates the fixed stage sequence that turns a
// candidate set into a finished edition: selection, headlines, articles,
// and review, with per-batch fallbacks so a failed call never sinks the
// paper.
package newsroom

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oddsdesk/polypress/internal/extract"
	"github.com/oddsdesk/polypress/internal/llm"
	"github.com/oddsdesk/polypress/internal/logger"
	"github.com/oddsdesk/polypress/internal/models"
)

// ErrNoCandidates is returned when the upstream data source yields zero
// records. It is fatal for the request, not for the process.
var ErrNoCandidates = errors.New("no candidate markets to build an edition from")

// Config holds the orchestration knobs.
type Config struct {
	// BatchSize bounds how many stories share one generation request.
	BatchSize int
	// Stagger is the per-index start delay between concurrent batches.
	Stagger time.Duration
	// Deadline bounds the whole edition build. Past it the build fails
	// and nothing is persisted.
	Deadline time.Duration
	// FeatureCount is how many stories run as features under the lead.
	FeatureCount int
}

// DefaultConfig returns the standing orchestration policy.
func DefaultConfig() Config {
	return Config{
		BatchSize:    4,
		Stagger:      500 * time.Millisecond,
		Deadline:     90 * time.Second,
		FeatureCount: 3,
	}
}

// Orchestrator builds editions from scored, selected candidate sets.
type Orchestrator struct {
	completer llm.Completer
	config    Config
}

// New creates an orchestrator, filling unset config values from defaults.
// FeatureCount is taken as given: zero means a front page with no feature
// slots, not "use the default".
func New(completer llm.Completer, config Config) *Orchestrator {
	def := DefaultConfig()
	if config.BatchSize == 0 {
		config.BatchSize = def.BatchSize
	}
	if config.Stagger == 0 {
		config.Stagger = def.Stagger
	}
	if config.Deadline == 0 {
		config.Deadline = def.Deadline
	}
	return &Orchestrator{completer: completer, config: config}
}

// BuildEdition runs the full stage sequence over the candidate set.
// Stages run in dependency order: selection first, then headlines, then
// articles (which reference headlines), then review. Dateline assignment
// is deterministic and runs concurrently with the headline stage. The
// whole build is bounded by the configured deadline; on timeout the
// caller gets an error and no partial edition.
func (o *Orchestrator) BuildEdition(ctx context.Context, candidates []models.Market) (*models.Edition, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	ctx, cancel := context.WithTimeout(ctx, o.config.Deadline)
	defer cancel()

	start := time.Now()
	blueprint, reasoning, selectionNote := o.assignLayout(ctx, candidates)

	// Datelines are deterministic and run alongside the network-bound
	// stages. The stages copy Story values, so datelines land in their
	// own slice and are stamped only after every stage has joined.
	datelines := make([]string, len(blueprint.Stories))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assignDatelines(blueprint.Stories, datelines, start)
	}()

	headlines := o.runStage(ctx, stageSpec{
		name:     "headline",
		system:   headlineSystem,
		prompt:   headlinePrompt,
		fallback: fallbackHeadline,
	}, blueprint, nil)

	articles := o.runStage(ctx, stageSpec{
		name:     "article",
		system:   articleSystem,
		prompt:   articlePrompt,
		fallback: fallbackArticle,
	}, blueprint, headlines.Outputs)

	reviews := o.runStage(ctx, stageSpec{
		name:     "review",
		system:   reviewSystem,
		prompt:   reviewPrompt,
		fallback: fallbackReview,
	}, blueprint, articles.Outputs)

	wg.Wait()
	for i := range blueprint.Stories {
		blueprint.Stories[i].Dateline = datelines[i]
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("edition build exceeded deadline: %w", err)
	}

	edition := &models.Edition{
		ID:        uuid.New().String(),
		Blueprint: blueprint,
		Headlines: headlines.Outputs,
		Articles:  articles.Outputs,
		Reviews:   reviews.Outputs,
		StageNotes: map[string]string{
			"selection": selectionNote,
			"headline":  headlines.Note,
			"article":   articles.Note,
			"review":    reviews.Note,
		},
		Reasoning:   reasoning,
		GeneratedAt: time.Now(),
	}

	if err := edition.Validate(); err != nil {
		return nil, fmt.Errorf("assembled edition failed validation: %w", err)
	}

	logger.Info("Edition %s built in %v (%d stories)", edition.ID, time.Since(start), len(blueprint.Stories))
	return edition, nil
}

// layoutResponse is the structured object the selection stage asks for.
type layoutResponse struct {
	Lead      int    `json:"lead"`
	Features  []int  `json:"features"`
	Reasoning string `json:"reasoning"`
}

// assignLayout runs the selection stage: one request over the whole
// candidate set, parsed into slot assignments. Exactly one LEAD is
// enforced here regardless of what the model nominated; any failure
// degrades to the deterministic rank-based layout.
func (o *Orchestrator) assignLayout(ctx context.Context, candidates []models.Market) (models.Blueprint, string, string) {
	text, err := o.completer.Complete(ctx, selectionSystem, selectionPrompt(candidates))
	if err != nil {
		logger.Warn("Selection stage degraded to rank layout: %v", err)
		return fallbackLayout(candidates, o.config.FeatureCount), "", kindFallback.String()
	}

	var resp layoutResponse
	if err := extract.Object(text, &resp); err != nil {
		logger.Warn("Selection response unusable, using rank layout: %v", err)
		return fallbackLayout(candidates, o.config.FeatureCount), "", kindFallback.String()
	}

	lead := resp.Lead
	if lead < 0 || lead >= len(candidates) {
		lead = 0
	}

	features := make(map[int]bool, len(resp.Features))
	for _, i := range resp.Features {
		if i >= 0 && i < len(candidates) && i != lead {
			features[i] = true
		}
	}

	stories := make([]models.Story, len(candidates))
	for i, m := range candidates {
		layout := models.LayoutBrief
		switch {
		case i == lead:
			layout = models.LayoutLead
		case features[i]:
			layout = models.LayoutFeature
		}
		stories[i] = models.Story{Market: m, Layout: layout}
	}

	return models.Blueprint{Stories: stories}, resp.Reasoning, kindSucceeded.String()
}

// assignDatelines fills out with each story's desk and edition date. It
// only reads the stories, never mutates them.
func assignDatelines(stories []models.Story, out []string, now time.Time) {
	date := now.Format("Jan 2, 2006")
	for i := range stories {
		out[i] = fmt.Sprintf("%s DESK — %s", stories[i].Market.Category, date)
	}
}
