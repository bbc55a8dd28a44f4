package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/oddsdesk/polypress/internal/models"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello world", "hello world"},
		{"period", "It ends.", "It ends\\."},
		{"percent sign untouched", "62% yes", "62% yes"},
		{"brackets and parens", "[a](b)", "\\[a\\]\\(b\\)"},
		{"dash and bang", "odds-on!", "odds\\-on\\!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeMarkdownV2(tt.input); got != tt.want {
				t.Errorf("escapeMarkdownV2(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFirstSentence(t *testing.T) {
	long := strings.Repeat("a", 300)
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single sentence", "Odds rose. Traders cheered.", "Odds rose."},
		{"no period", "no terminator here", "no terminator here"},
		{"long without period", long, long[:200] + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstSentence(tt.input); got != tt.want {
				t.Errorf("firstSentence() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDigest(t *testing.T) {
	lead := models.Market{ID: "mkt-1", Question: "Will X happen?", YesProbability: 0.62}
	feat := models.Market{ID: "mkt-2", Question: "Will Y happen?", YesProbability: 0.30}
	brief := models.Market{ID: "mkt-3", Question: "Will Z happen?", YesProbability: 0.50}

	edition := &models.Edition{
		ID: "ed-1",
		Blueprint: models.Blueprint{
			Stories: []models.Story{
				{Market: lead, Layout: models.LayoutLead},
				{Market: feat, Layout: models.LayoutFeature},
				{Market: brief, Layout: models.LayoutBrief},
			},
		},
		Headlines: map[string]string{
			"mkt-1": "X All But Settled",
			"mkt-2": "Y Still in Play",
			"mkt-3": "Z Holds Steady",
		},
		Articles: map[string]string{
			"mkt-1": "Traders price X at 62 percent. More detail follows.",
			"mkt-2": "Y article.",
			"mkt-3": "Z article.",
		},
		GeneratedAt: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}

	c := &Client{}
	got := c.formatDigest(edition)

	if !strings.Contains(got, "X All But Settled") {
		t.Errorf("digest missing lead headline: %q", got)
	}
	if !strings.Contains(got, "Traders price X at 62 percent\\.") {
		t.Errorf("digest missing lead first sentence: %q", got)
	}
	if !strings.Contains(got, "1\\. Y Still in Play") {
		t.Errorf("digest missing numbered feature: %q", got)
	}
	if strings.Contains(got, "Z Holds Steady") {
		t.Errorf("digest should omit briefs: %q", got)
	}
	if !strings.Contains(got, "62%") {
		t.Errorf("digest missing lead probability: %q", got)
	}
}
