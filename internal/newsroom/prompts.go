package newsroom

import (
	"fmt"
	"strings"

	"github.com/oddsdesk/polypress/internal/models"
)

// Prompt text is opaque payload: the pipeline only cares that responses
// carry a JSON object keyed by the [i] indices printed here.

const selectionSystem = `You are the front-page editor of a prediction-market newspaper.
Given a numbered list of markets, choose the page layout.

Respond with JSON only, no other text:
{
  "lead": <index of the single lead story>,
  "features": [<indices of 2-4 feature stories>],
  "reasoning": "one sentence on the page's angle"
}
Every index not listed becomes a brief.`

const headlineSystem = `You are a headline writer for a prediction-market newspaper.
For each numbered market, write one punchy headline under 80 characters.
Treat the odds as the story: what the market believes, not what will happen.

Respond with JSON only, mapping each index to its headline:
{"0": "headline", "1": "headline"}`

const articleSystem = `You are a reporter for a prediction-market newspaper.
For each numbered market, write a 2-3 paragraph article under its headline.
Cite the odds, the 24h move, and the volume. Never predict the outcome;
report what the money says.

Respond with JSON only, mapping each index to its article text:
{"0": "article", "1": "article"}`

const reviewSystem = `You are the copy desk of a prediction-market newspaper.
For each numbered story, write a one-sentence editor's annotation: a caveat,
context note, or watch-item for the reader.

Respond with JSON only, mapping each index to its note:
{"0": "note", "1": "note"}`

// marketLine renders one market's facts for a prompt.
func marketLine(i int, m models.Market) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%d] %s\n", i, m.Question)
	fmt.Fprintf(&sb, "    Odds: %.0f%% yes | 24h change: %+.1f pts | 24h volume: $%.0f | status: %s\n",
		m.YesProbability*100, m.PriceChange24h*100, m.Volume24hr, m.Status)
	if m.Description != "" {
		fmt.Fprintf(&sb, "    About: %s\n", truncate(m.Description, 200))
	}
	return sb.String()
}

func selectionPrompt(markets []models.Market) string {
	var sb strings.Builder
	sb.WriteString("Today's candidate markets:\n\n")
	for i, m := range markets {
		sb.WriteString(marketLine(i, m))
		sb.WriteString("\n")
	}
	return sb.String()
}

func headlinePrompt(units []generationUnit) string {
	var sb strings.Builder
	sb.WriteString("Markets needing headlines:\n\n")
	for i, u := range units {
		sb.WriteString(marketLine(i, u.story.Market))
		fmt.Fprintf(&sb, "    Slot: %s\n\n", u.story.Layout)
	}
	return sb.String()
}

func articlePrompt(units []generationUnit) string {
	var sb strings.Builder
	sb.WriteString("Stories needing articles:\n\n")
	for i, u := range units {
		sb.WriteString(marketLine(i, u.story.Market))
		if h := u.prior[u.story.Market.ID]; h != "" {
			fmt.Fprintf(&sb, "    Headline: %s\n", h)
		}
		fmt.Fprintf(&sb, "    Slot: %s\n\n", u.story.Layout)
	}
	return sb.String()
}

func reviewPrompt(units []generationUnit) string {
	var sb strings.Builder
	sb.WriteString("Stories needing editor annotations:\n\n")
	for i, u := range units {
		sb.WriteString(marketLine(i, u.story.Market))
		if a := u.prior[u.story.Market.ID]; a != "" {
			fmt.Fprintf(&sb, "    Article: %s\n", truncate(a, 300))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
