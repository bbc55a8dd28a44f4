// Package selector picks the diversity-constrained candidate set for one
// edition from the full scored market pool.
package selector

import (
	"math"
	"sort"
	"strings"

	"github.com/oddsdesk/polypress/internal/logger"
	"github.com/oddsdesk/polypress/internal/models"
)

// Config holds the selection knobs.
type Config struct {
	// TopKPerCategory overrides the per-category take counts.
	TopKPerCategory map[models.Category]int
	// MoverCount is how many high-swing markets to pull regardless of category.
	MoverCount int
	// SafetyNetCount is the general top-N taken across all categories.
	SafetyNetCount int
	// SportsCap is the hard cap on sports stories in the final set.
	SportsCap int
}

// DefaultConfig returns the standing editorial policy.
func DefaultConfig() Config {
	return Config{
		TopKPerCategory: map[models.Category]int{
			models.CategoryPolitics: 4,
			models.CategoryWorld:    3,
			models.CategoryEconomy:  3,
			models.CategoryCrypto:   3,
			models.CategoryScience:  2,
			models.CategoryCulture:  2,
			models.CategorySports:   2,
		},
		MoverCount:     5,
		SafetyNetCount: 5,
		SportsCap:      2,
	}
}

// Selector builds candidate sets.
type Selector struct {
	config Config
}

// New creates a selector with the given config, filling unset fields from
// the defaults. SportsCap is taken as given: zero means no sports at all,
// not "use the default".
func New(config Config) *Selector {
	def := DefaultConfig()
	if config.TopKPerCategory == nil {
		config.TopKPerCategory = def.TopKPerCategory
	}
	if config.MoverCount == 0 {
		config.MoverCount = def.MoverCount
	}
	if config.SafetyNetCount == 0 {
		config.SafetyNetCount = def.SafetyNetCount
	}
	return &Selector{config: config}
}

// Select assembles the candidate set: per-category top-K, then the biggest
// movers, then a general safety net, deduplicated with a hard sports cap and
// sorted by descending total score. Every id appears at most once.
func (s *Selector) Select(markets []models.Market) []models.Market {
	var groups [][]models.Market

	// Per-category groups first, in desk-priority order.
	byCategory := make(map[models.Category][]models.Market)
	for _, m := range markets {
		byCategory[m.Category] = append(byCategory[m.Category], m)
	}
	for _, cat := range models.Categories {
		k := s.config.TopKPerCategory[cat]
		if k == 0 {
			continue
		}
		pool := byCategory[cat]
		sortByTotal(pool)
		if cat == models.CategorySports {
			groups = append(groups, diverseSample(pool, k))
		} else {
			groups = append(groups, topN(pool, k))
		}
	}

	// Movers: biggest absolute 24h swings. Sports is excluded so a busy
	// game day cannot flood the front page.
	movers := filterOutSports(markets)
	sort.SliceStable(movers, func(i, j int) bool {
		return math.Abs(movers[i].PriceChange24h) > math.Abs(movers[j].PriceChange24h)
	})
	groups = append(groups, topN(movers, s.config.MoverCount))

	// General safety net by total score, again excluding sports.
	net := filterOutSports(markets)
	sortByTotal(net)
	groups = append(groups, topN(net, s.config.SafetyNetCount))

	// Single-pass dedupe with the hard sports cap. Once the cap is hit,
	// further sports entries are skipped, not errors.
	seen := make(map[string]bool)
	sportsCount := 0
	var out []models.Market
	for _, group := range groups {
		for _, m := range group {
			if seen[m.ID] {
				continue
			}
			if m.Category == models.CategorySports {
				if sportsCount >= s.config.SportsCap {
					logger.Debug("Sports cap reached, skipping %s", m.ID)
					continue
				}
				sportsCount++
			}
			seen[m.ID] = true
			out = append(out, m)
		}
	}

	sortByTotal(out)
	logger.Debug("Selected %d candidates from %d markets (%d sports)", len(out), len(markets), sportsCount)
	return out
}

// subTagVocabulary is the coarse grouping vocabulary for within-category
// diversity: two candidates sharing a tag are considered the same beat.
var subTagVocabulary = []string{
	"nfl", "nba", "mlb", "nhl", "ufc", "premier league", "champions league",
	"la liga", "serie a", "world cup", "olympic", "f1", "grand prix",
	"super bowl", "playoff",
}

// diverseSample greedily takes the highest-scored candidates whose coarse
// sub-tag has not been taken yet, up to max. Candidates with no recognized
// tag are always eligible.
func diverseSample(sorted []models.Market, max int) []models.Market {
	var out []models.Market
	taken := make(map[string]bool)
	for _, m := range sorted {
		if len(out) >= max {
			break
		}
		tag := subTag(m.Question)
		if tag != "" && taken[tag] {
			continue
		}
		if tag != "" {
			taken[tag] = true
		}
		out = append(out, m)
	}
	return out
}

// subTag returns the first vocabulary entry found in the question, or "".
func subTag(question string) string {
	q := strings.ToLower(question)
	for _, tag := range subTagVocabulary {
		if strings.Contains(q, tag) {
			return tag
		}
	}
	return ""
}

func filterOutSports(markets []models.Market) []models.Market {
	out := make([]models.Market, 0, len(markets))
	for _, m := range markets {
		if m.Category != models.CategorySports {
			out = append(out, m)
		}
	}
	return out
}

func sortByTotal(markets []models.Market) {
	sort.SliceStable(markets, func(i, j int) bool {
		return markets[i].Score.Total > markets[j].Score.Total
	})
}

func topN(markets []models.Market, n int) []models.Market {
	if len(markets) > n {
		return markets[:n]
	}
	return markets
}
