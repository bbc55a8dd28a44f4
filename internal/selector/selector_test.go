package selector

import (
	"fmt"
	"testing"

	"github.com/oddsdesk/polypress/internal/models"
)

func market(id string, cat models.Category, total float64) models.Market {
	return models.Market{
		ID:             id,
		Question:       "Will " + id + " happen?",
		Category:       cat,
		YesProbability: 0.5,
		NoProbability:  0.5,
		Score:          models.Score{Total: total},
	}
}

func TestSelectNoDuplicates(t *testing.T) {
	s := New(Config{})
	var markets []models.Market
	// High movers that also win their category group and the safety net,
	// so the same ids appear in several upstream groups.
	for i := 0; i < 10; i++ {
		m := market(fmt.Sprintf("p%d", i), models.CategoryPolitics, float64(10-i))
		m.PriceChange24h = 0.5
		markets = append(markets, m)
	}
	out := s.Select(markets)

	seen := make(map[string]bool)
	for _, m := range out {
		if seen[m.ID] {
			t.Errorf("duplicate id %s in candidate set", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestSelectSportsCap(t *testing.T) {
	s := New(Config{SportsCap: 2})
	var markets []models.Market
	// 50 markets: 40% politics, 40% sports, 20% world.
	for i := 0; i < 20; i++ {
		markets = append(markets, market(fmt.Sprintf("pol%d", i), models.CategoryPolitics, float64(100-i)))
	}
	for i := 0; i < 20; i++ {
		m := market(fmt.Sprintf("spt%d", i), models.CategorySports, float64(200-i))
		m.PriceChange24h = 0.3 // swings hard enough to top the movers group too
		markets = append(markets, m)
	}
	for i := 0; i < 10; i++ {
		markets = append(markets, market(fmt.Sprintf("wld%d", i), models.CategoryWorld, float64(50-i)))
	}

	out := s.Select(markets)

	sports := 0
	byCat := make(map[models.Category]int)
	for _, m := range out {
		byCat[m.Category]++
		if m.Category == models.CategorySports {
			sports++
		}
	}
	if sports > 2 {
		t.Errorf("sports count %d exceeds cap 2", sports)
	}
	if byCat[models.CategoryPolitics] == 0 {
		t.Error("politics missing from candidate set")
	}
	if byCat[models.CategoryWorld] == 0 {
		t.Error("world missing from candidate set")
	}

	for i := 1; i < len(out); i++ {
		if out[i].Score.Total > out[i-1].Score.Total {
			t.Errorf("candidate set not sorted by descending total at %d", i)
		}
	}
}

func TestSelectSportsCapZeroBansSports(t *testing.T) {
	// An explicit zero cap means no sports at all, not the default cap.
	s := New(Config{SportsCap: 0})
	var markets []models.Market
	for i := 0; i < 5; i++ {
		m := market(fmt.Sprintf("s%d", i), models.CategorySports, float64(10-i))
		m.PriceChange24h = 0.3
		markets = append(markets, m)
	}
	markets = append(markets, market("p1", models.CategoryPolitics, 1.0))

	out := s.Select(markets)
	for _, m := range out {
		if m.Category == models.CategorySports {
			t.Errorf("sports market %s selected despite zero cap", m.ID)
		}
	}
	if len(out) == 0 {
		t.Error("non-sports markets should still be selected")
	}
}

func TestSelectMoversExcludeSports(t *testing.T) {
	s := New(Config{SportsCap: 1, TopKPerCategory: map[models.Category]int{models.CategoryWorld: 1}})
	markets := []models.Market{
		market("w1", models.CategoryWorld, 1.0),
	}
	// Huge sports swings that must not enter through the movers group.
	for i := 0; i < 5; i++ {
		m := market(fmt.Sprintf("s%d", i), models.CategorySports, 0.1)
		m.PriceChange24h = 0.9
		markets = append(markets, m)
	}
	out := s.Select(markets)
	sports := 0
	for _, m := range out {
		if m.Category == models.CategorySports {
			sports++
		}
	}
	if sports > 1 {
		t.Errorf("movers group leaked %d sports markets past cap 1", sports)
	}
}

func TestDiverseSample(t *testing.T) {
	pool := []models.Market{
		market("a", models.CategorySports, 5),
		market("b", models.CategorySports, 4),
		market("c", models.CategorySports, 3),
		market("d", models.CategorySports, 2),
	}
	pool[0].Question = "Will the Chiefs win the NFL title?"
	pool[1].Question = "Will the Eagles make the NFL playoffs?" // same beat as a
	pool[2].Question = "Will the Lakers win the NBA finals?"
	pool[3].Question = "Will somebody break the marathon record?"

	out := diverseSample(pool, 3)
	if len(out) != 3 {
		t.Fatalf("got %d picks, want 3", len(out))
	}
	if out[0].ID != "a" || out[1].ID != "c" || out[2].ID != "d" {
		t.Errorf("got picks %s,%s,%s; want a,c,d", out[0].ID, out[1].ID, out[2].ID)
	}
}

func TestSelectEmptyInput(t *testing.T) {
	out := New(Config{}).Select(nil)
	if len(out) != 0 {
		t.Errorf("expected empty selection, got %d", len(out))
	}
}
