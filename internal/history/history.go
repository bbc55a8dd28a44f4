// Package history records which stories ran in the current edition. It is
// a best-effort, write-only side channel: failures are logged and dropped,
// never surfaced to the pipeline.
package history

import (
	"time"

	"github.com/oddsdesk/polypress/internal/logger"
	"github.com/oddsdesk/polypress/internal/models"
)

// ShownStore is the slice of storage the recorder needs.
type ShownStore interface {
	RecordShown(marketID, question string, odds float64, shownAt time.Time) error
	PruneHistory(cutoff time.Time) error
}

// Recorder writes shown-story rows and opportunistically prunes old ones.
type Recorder struct {
	store  ShownStore
	window time.Duration
	now    func() time.Time
}

// New creates a recorder that keeps rows for the given retention window.
func New(store ShownStore, window time.Duration) *Recorder {
	if window <= 0 {
		window = 96 * time.Hour
	}
	return &Recorder{store: store, window: window, now: time.Now}
}

// Record writes one row per story in the edition, then prunes rows older
// than the window. All errors are swallowed after logging; this path must
// never fail the publish.
func (r *Recorder) Record(edition *models.Edition) {
	now := r.now()
	recorded := 0
	for _, s := range edition.Blueprint.Stories {
		m := s.Market
		if err := r.store.RecordShown(m.ID, m.Question, m.YesProbability, now); err != nil {
			logger.Warn("Failed to record shown market %s: %v", m.ID, err)
			continue
		}
		recorded++
	}

	// Pruning rides along on writes rather than running as its own job.
	if err := r.store.PruneHistory(now.Add(-r.window)); err != nil {
		logger.Warn("Failed to prune history: %v", err)
	}

	logger.Debug("Recorded %d shown markets", recorded)
}
