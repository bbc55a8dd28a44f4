package newsroom

import (
	"fmt"

	"github.com/oddsdesk/polypress/internal/models"
)

// Fallback content is synthesized purely from market fields so a failed
// batch never leaves a story blank. Deterministic by construction: the same
// market always yields the same text.

func fallbackHeadline(m models.Market) string {
	pct := m.YesProbability * 100
	switch m.Status {
	case models.StatusConfirmed:
		return fmt.Sprintf("All But Settled at %.0f%%: %s", pct, m.Question)
	case models.StatusDeadOnArrival:
		return fmt.Sprintf("Market Says No at %.0f%%: %s", pct, m.Question)
	case models.StatusChaos:
		return fmt.Sprintf("Odds Whipsaw %+.0f Points: %s", m.PriceChange24h*100, m.Question)
	default:
		return fmt.Sprintf("Traders Split at %.0f%%: %s", pct, m.Question)
	}
}

func fallbackArticle(m models.Market) string {
	pct := m.YesProbability * 100
	text := fmt.Sprintf(
		"Traders currently price \"%s\" at %.0f%% yes. The market has seen $%.0f in volume over the past 24 hours",
		m.Question, pct, m.Volume24hr)
	if m.PriceChange24h != 0 {
		text += fmt.Sprintf(", with the odds moving %+.1f percentage points in that window", m.PriceChange24h*100)
	}
	text += "."
	if !m.EndDate.IsZero() {
		text += fmt.Sprintf(" The market resolves on %s.", m.EndDate.Format("January 2, 2006"))
	}
	return text
}

func fallbackReview(m models.Market) string {
	return fmt.Sprintf("Editor's note: odds and volume figures reflect market data as of %s; thin liquidity can exaggerate moves.",
		m.LastUpdated.Format("Jan 2 15:04 MST"))
}

// fallbackLayout assigns slots purely by score rank: the top story leads,
// the next featureCount are features, the rest run as briefs.
func fallbackLayout(markets []models.Market, featureCount int) models.Blueprint {
	stories := make([]models.Story, len(markets))
	for i, m := range markets {
		layout := models.LayoutBrief
		switch {
		case i == 0:
			layout = models.LayoutLead
		case i <= featureCount:
			layout = models.LayoutFeature
		}
		stories[i] = models.Story{Market: m, Layout: layout}
	}
	return models.Blueprint{Stories: stories}
}
