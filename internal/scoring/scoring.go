// Package scoring converts raw market fields into a bounded composite
// newsworthiness score.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/oddsdesk/polypress/internal/models"
)

const (
	// Weights for the three sub-scores; they sum to 1 before the
	// interest multiplier is applied.
	moneyWeight     = 0.45
	certaintyWeight = 0.30
	speedWeight     = 0.25

	// Volumes below this are treated as noise and score 0.
	minMeaningfulVolume = 1000.0

	// A 24h swing of this many percentage points saturates speed at 1.0.
	maxSwingPoints = 20.0

	// Combined interest multiplier ceiling.
	maxInterest = 1.5

	// Status thresholds.
	confirmedProb = 0.85
	deadProb      = 0.15
	chaosSwing    = 0.15
)

// interestTable is the editorial bias per category.
var interestTable = map[models.Category]float64{
	models.CategoryPolitics: 1.2,
	models.CategoryWorld:    1.1,
	models.CategoryEconomy:  1.1,
	models.CategoryCrypto:   1.0,
	models.CategoryScience:  1.0,
	models.CategoryCulture:  0.9,
	models.CategorySports:   0.6,
}

// hotKeywords boost markets mentioning entities the audience follows closely.
var hotKeywords = []string{
	"trump", "fed", "bitcoin", "election", "war", "nuclear", "ai",
}

// Engine scores one batch of markets at a time. The money sub-score is
// normalized against the batch's maximum 24h volume, so an Engine must be
// built fresh per batch.
type Engine struct {
	maxVolume24hr float64
	now           time.Time
}

// NewEngine builds an engine for one batch of markets.
func NewEngine(markets []models.Market) *Engine {
	e := &Engine{now: time.Now()}
	for _, m := range markets {
		if m.Volume24hr > e.maxVolume24hr {
			e.maxVolume24hr = m.Volume24hr
		}
	}
	return e
}

// Score computes the composite score for a single market. It is a pure
// function of the market fields and the batch maximum volume; it always
// returns a value, degenerating to zeros on missing input.
func (e *Engine) Score(m models.Market) models.Score {
	money := e.moneyScore(m.Volume24hr)
	certainty := certaintyScore(m.YesProbability)
	speed := speedScore(m.PriceChange24h)
	interest := e.interestScore(m)

	total := (money*moneyWeight + certainty*certaintyWeight + speed*speedWeight) * interest
	total = clamp01(total)

	return models.Score{
		Money:     money,
		Certainty: certainty,
		Speed:     speed,
		Interest:  interest,
		Total:     total,
	}
}

// Apply scores every market in place and derives its status.
func (e *Engine) Apply(markets []models.Market) {
	for i := range markets {
		markets[i].Score = e.Score(markets[i])
		markets[i].Status = DeriveStatus(markets[i])
	}
}

// moneyScore is the log-scaled 24h volume normalized against the batch max.
// Below the noise floor, or with no meaningful batch max, it is 0.
func (e *Engine) moneyScore(volume24hr float64) float64 {
	if volume24hr < minMeaningfulVolume || e.maxVolume24hr < minMeaningfulVolume {
		return 0
	}
	score := math.Log10(1+volume24hr) / math.Log10(1+e.maxVolume24hr)
	return clamp01(score)
}

// certaintyScore is 0 at 50/50 odds and 1 at either extreme.
func certaintyScore(yesProb float64) float64 {
	if yesProb < 0 || yesProb > 1 {
		return 0
	}
	return clamp01(math.Abs(2*yesProb - 1))
}

// speedScore is a step function of the absolute 24h price change in
// percentage points, saturating at maxSwingPoints.
func speedScore(change24h float64) float64 {
	points := math.Abs(change24h) * 100
	switch {
	case points == 0 || math.IsNaN(points):
		return 0
	case points >= maxSwingPoints:
		return 1.0
	case points >= 10:
		return 0.75
	case points >= 5:
		return 0.5
	case points >= 2:
		return 0.25
	default:
		return 0.1
	}
}

// interestScore looks up the category multiplier and applies the bounded
// audience boost for soon-ending markets and hot keywords.
func (e *Engine) interestScore(m models.Market) float64 {
	interest, ok := interestTable[m.Category]
	if !ok {
		interest = 1.0
	}

	// Markets resolving within 48 hours read as urgent.
	if !m.EndDate.IsZero() {
		until := m.EndDate.Sub(e.now)
		if until > 0 && until <= 48*time.Hour {
			interest *= 1.2
		}
	}

	question := strings.ToLower(m.Question)
	for _, kw := range hotKeywords {
		if containsWord(question, kw) {
			interest *= 1.15
			break
		}
	}

	if interest > maxInterest {
		interest = maxInterest
	}
	return interest
}

// DeriveStatus classifies a market by its current odds and 24h swing.
func DeriveStatus(m models.Market) models.Status {
	switch {
	case math.Abs(m.PriceChange24h) >= chaosSwing:
		return models.StatusChaos
	case m.YesProbability >= confirmedProb:
		return models.StatusConfirmed
	case m.YesProbability <= deadProb:
		return models.StatusDeadOnArrival
	default:
		return models.StatusContested
	}
}

// containsWord reports whether s contains kw bounded by non-letters, so
// "ai" does not match "maintain".
func containsWord(s, kw string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		beforeOK := start == 0 || !isLetter(s[start-1])
		afterOK := end == len(s) || !isLetter(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
