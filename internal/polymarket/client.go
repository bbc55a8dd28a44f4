// Package polymarket fetches market records from the Polymarket Gamma API
// and normalizes them into domain models. Field parsing quirks (stringified
// JSON arrays for outcomes and prices) are contained here.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oddsdesk/polypress/internal/models"
)

// RecordSource is the upstream collaborator contract: a list of parsed
// market records, nothing more. The pipeline never fetches on its own.
type RecordSource interface {
	FetchMarkets(ctx context.Context, limit int) ([]models.Market, error)
}

// Client provides access to the Polymarket Gamma API.
type Client struct {
	gammaAPIURL    string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// gammaEvent is an event from the Gamma API.
type gammaEvent struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Category   string        `json:"category"`
	Active     bool          `json:"active"`
	Closed     bool          `json:"closed"`
	Volume24hr float64       `json:"volume24hr"`
	Liquidity  float64       `json:"liquidity"`
	Markets    []gammaMarket `json:"markets"`
}

// gammaMarket is a market nested under an event. Outcomes and prices
// arrive as JSON-encoded strings, not arrays.
type gammaMarket struct {
	ID                string  `json:"id"`
	Question          string  `json:"question"`
	Description       string  `json:"description"`
	Outcomes          string  `json:"outcomes"`      // "[\"Yes\", \"No\"]"
	OutcomePrices     string  `json:"outcomePrices"` // "[\"0.75\", \"0.25\"]"
	EndDate           string  `json:"endDate"`
	Volume24hr        float64 `json:"volume24hr"`
	VolumeNum         float64 `json:"volumeNum"`
	LiquidityNum      float64 `json:"liquidityNum"`
	OneDayPriceChange float64 `json:"oneDayPriceChange"`
	Active            bool    `json:"active"`
	Closed            bool    `json:"closed"`
}

// NewClient creates a Gamma API client.
func NewClient(gammaAPIURL string, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		gammaAPIURL:    gammaAPIURL,
		httpClient:     &http.Client{Timeout: timeout},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// FetchMarkets retrieves active markets ordered by 24h volume and flattens
// them into records. Markets with no parseable yes price are skipped.
func (c *Client) FetchMarkets(ctx context.Context, limit int) ([]models.Market, error) {
	u, err := url.Parse(c.gammaAPIURL + "/events")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("active", "true")
	q.Set("closed", "false")
	q.Set("order", "volume24hr")
	q.Set("ascending", "false")
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	resp, err := c.doRequest(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status fetching events: %d", resp.StatusCode)
	}

	var events []gammaEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	var markets []models.Market
	now := time.Now()
	for _, ev := range events {
		if !ev.Active || ev.Closed {
			continue
		}
		category := mapCategory(ev.Category, ev.Title)
		for _, gm := range ev.Markets {
			if gm.Closed {
				continue
			}
			m, ok := flattenMarket(gm, category, now)
			if !ok {
				continue
			}
			markets = append(markets, m)
		}
	}
	return markets, nil
}

func flattenMarket(gm gammaMarket, category models.Category, now time.Time) (models.Market, bool) {
	outcomes, prices, err := parseOutcomes(gm.Outcomes, gm.OutcomePrices)
	if err != nil {
		return models.Market{}, false
	}

	var yesProb, noProb float64
	found := false
	for i, outcome := range outcomes {
		if i >= len(prices) {
			break
		}
		switch outcome {
		case "Yes":
			yesProb = prices[i]
			found = true
		case "No":
			noProb = prices[i]
		}
	}
	if !found {
		return models.Market{}, false
	}

	var endDate time.Time
	if gm.EndDate != "" {
		if t, err := time.Parse(time.RFC3339, gm.EndDate); err == nil {
			endDate = t
		}
	}

	return models.Market{
		ID:             gm.ID,
		Question:       gm.Question,
		Description:    gm.Description,
		Outcomes:       outcomes,
		EndDate:        endDate,
		YesProbability: yesProb,
		NoProbability:  noProb,
		Volume24hr:     gm.Volume24hr,
		VolumeTotal:    gm.VolumeNum,
		Liquidity:      gm.LiquidityNum,
		PriceChange24h: gm.OneDayPriceChange,
		Category:       category,
		LastUpdated:    now,
	}, true
}

// parseOutcomes decodes the stringified outcome and price arrays.
func parseOutcomes(outcomesJSON, pricesJSON string) ([]string, []float64, error) {
	var outcomes []string
	if err := json.Unmarshal([]byte(outcomesJSON), &outcomes); err != nil {
		return nil, nil, fmt.Errorf("failed to parse outcomes: %w", err)
	}
	var priceStrs []string
	if err := json.Unmarshal([]byte(pricesJSON), &priceStrs); err != nil {
		return nil, nil, fmt.Errorf("failed to parse outcome prices: %w", err)
	}
	prices := make([]float64, len(priceStrs))
	for i, ps := range priceStrs {
		p, err := strconv.ParseFloat(ps, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse price %q: %w", ps, err)
		}
		prices[i] = p
	}
	return outcomes, prices, nil
}

// categoryAliases maps Gamma category text fragments to desks.
var categoryAliases = []struct {
	fragment string
	desk     models.Category
}{
	{"politic", models.CategoryPolitics},
	{"election", models.CategoryPolitics},
	{"geopolitic", models.CategoryWorld},
	{"world", models.CategoryWorld},
	{"econom", models.CategoryEconomy},
	{"business", models.CategoryEconomy},
	{"finance", models.CategoryEconomy},
	{"crypto", models.CategoryCrypto},
	{"science", models.CategoryScience},
	{"tech", models.CategoryScience},
	{"culture", models.CategoryCulture},
	{"pop", models.CategoryCulture},
	{"sport", models.CategorySports},
	{"nfl", models.CategorySports},
	{"nba", models.CategorySports},
	{"soccer", models.CategorySports},
}

// mapCategory normalizes the Gamma category text into a desk, falling back
// to the event title when the category field is empty. Unrecognized text
// lands on the world desk.
func mapCategory(category, title string) models.Category {
	text := strings.ToLower(category)
	if text == "" {
		text = strings.ToLower(title)
	}
	for _, alias := range categoryAliases {
		if strings.Contains(text, alias.fragment) {
			return alias.desk
		}
	}
	return models.CategoryWorld
}

// doRequest performs an HTTP GET with backoff retry on transport errors
// and 5xx responses.
func (c *Client) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
		} else {
			return resp, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
