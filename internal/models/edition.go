package models

import (
	"errors"
	"time"
)

// Layout assigns a story its slot on the page.
type Layout string

const (
	LayoutLead    Layout = "LEAD"
	LayoutFeature Layout = "FEATURE"
	LayoutBrief   Layout = "BRIEF"
)

// Story is a market placed into an edition with a layout slot.
type Story struct {
	Market   Market `json:"market"`
	Layout   Layout `json:"layout"`
	Dateline string `json:"dateline,omitempty"`
}

// Blueprint is the ordered list of stories chosen for one edition.
// It is immutable once produced; downstream stages read it, never mutate it.
type Blueprint struct {
	Stories []Story `json:"stories"`
}

// IDs returns the story ids in blueprint order.
func (b *Blueprint) IDs() []string {
	ids := make([]string, len(b.Stories))
	for i, s := range b.Stories {
		ids[i] = s.Market.ID
	}
	return ids
}

// Lead returns the single LEAD story, or nil if the blueprint is empty.
func (b *Blueprint) Lead() *Story {
	for i := range b.Stories {
		if b.Stories[i].Layout == LayoutLead {
			return &b.Stories[i]
		}
	}
	return nil
}

// StageResult holds text generated by one stage, keyed by story id.
// Partial maps are valid mid-stage; the orchestrator backfills missing ids
// before the result is published.
type StageResult struct {
	Outputs map[string]string `json:"outputs"`
	Note    string            `json:"note,omitempty"`
}

// Edition is one finished paper: the blueprint plus every stage's output.
// Built once per cache miss, immutable afterward, superseded by the next
// time bucket's edition rather than mutated.
type Edition struct {
	ID          string            `json:"id"`
	Blueprint   Blueprint         `json:"blueprint"`
	Headlines   map[string]string `json:"headlines"`
	Articles    map[string]string `json:"articles"`
	Reviews     map[string]string `json:"reviews"`
	StageNotes  map[string]string `json:"stage_notes,omitempty"`
	Reasoning   string            `json:"reasoning,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// Validate checks the structural invariants an edition must satisfy before
// it may be cached: a non-empty blueprint with exactly one LEAD, and a
// headline and article entry for every story.
func (e *Edition) Validate() error {
	if len(e.Blueprint.Stories) == 0 {
		return errors.New("edition must contain at least one story")
	}
	leads := 0
	for _, s := range e.Blueprint.Stories {
		if s.Layout == LayoutLead {
			leads++
		}
	}
	if leads != 1 {
		return errors.New("edition must contain exactly one LEAD story")
	}
	for _, s := range e.Blueprint.Stories {
		if e.Headlines[s.Market.ID] == "" {
			return errors.New("every story must have a headline")
		}
		if e.Articles[s.Market.ID] == "" {
			return errors.New("every story must have an article")
		}
	}
	return nil
}

// CacheEntry is one persisted edition row.
type CacheEntry struct {
	BucketKey string    `json:"bucket_key"`
	Edition   Edition   `json:"edition"`
	CreatedAt time.Time `json:"created_at"`
}
