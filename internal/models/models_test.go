package models

import (
	"testing"
	"time"
)

func TestMarketValidate(t *testing.T) {
	tests := []struct {
		name    string
		market  Market
		wantErr bool
	}{
		{
			name: "valid market",
			market: Market{
				ID:             "mkt-1",
				Question:       "Will X happen?",
				Category:       CategoryPolitics,
				YesProbability: 0.75,
				NoProbability:  0.25,
				LastUpdated:    time.Now(),
			},
			wantErr: false,
		},
		{
			name: "empty ID",
			market: Market{
				Question:       "Will X happen?",
				Category:       CategoryPolitics,
				YesProbability: 0.75,
				NoProbability:  0.25,
			},
			wantErr: true,
		},
		{
			name: "empty question",
			market: Market{
				ID:             "mkt-1",
				Category:       CategoryPolitics,
				YesProbability: 0.75,
				NoProbability:  0.25,
			},
			wantErr: true,
		},
		{
			name: "yes probability out of range",
			market: Market{
				ID:             "mkt-1",
				Question:       "Will X happen?",
				Category:       CategoryPolitics,
				YesProbability: 1.5,
				NoProbability:  0.25,
			},
			wantErr: true,
		},
		{
			name: "negative volume",
			market: Market{
				ID:             "mkt-1",
				Question:       "Will X happen?",
				Category:       CategoryPolitics,
				YesProbability: 0.5,
				NoProbability:  0.5,
				Volume24hr:     -1,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.market.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func storyWith(id string, layout Layout) Story {
	return Story{
		Market: Market{
			ID:             id,
			Question:       "Will " + id + " happen?",
			Category:       CategoryPolitics,
			YesProbability: 0.6,
			NoProbability:  0.4,
		},
		Layout: layout,
	}
}

func TestEditionValidate(t *testing.T) {
	valid := Edition{
		ID: "ed-1",
		Blueprint: Blueprint{Stories: []Story{
			storyWith("a", LayoutLead),
			storyWith("b", LayoutFeature),
		}},
		Headlines:   map[string]string{"a": "A leads", "b": "B follows"},
		Articles:    map[string]string{"a": "body a", "b": "body b"},
		GeneratedAt: time.Now(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid edition rejected: %v", err)
	}

	noLead := valid
	noLead.Blueprint = Blueprint{Stories: []Story{
		storyWith("a", LayoutFeature),
		storyWith("b", LayoutBrief),
	}}
	if err := noLead.Validate(); err == nil {
		t.Error("expected error for edition without a LEAD")
	}

	twoLeads := valid
	twoLeads.Blueprint = Blueprint{Stories: []Story{
		storyWith("a", LayoutLead),
		storyWith("b", LayoutLead),
	}}
	if err := twoLeads.Validate(); err == nil {
		t.Error("expected error for edition with two LEADs")
	}

	missingHeadline := valid
	missingHeadline.Headlines = map[string]string{"a": "A leads"}
	if err := missingHeadline.Validate(); err == nil {
		t.Error("expected error for story without headline")
	}

	empty := Edition{}
	if err := empty.Validate(); err == nil {
		t.Error("expected error for empty edition")
	}
}

func TestBlueprintLead(t *testing.T) {
	b := Blueprint{Stories: []Story{
		storyWith("a", LayoutBrief),
		storyWith("b", LayoutLead),
	}}
	lead := b.Lead()
	if lead == nil || lead.Market.ID != "b" {
		t.Errorf("Lead() = %v, want story b", lead)
	}

	var emptyBP Blueprint
	if emptyBP.Lead() != nil {
		t.Error("Lead() on empty blueprint should be nil")
	}

	ids := b.IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("IDs() = %v, want [a b]", ids)
	}
}
