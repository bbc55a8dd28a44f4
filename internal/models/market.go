// Package models defines the core domain entities: markets, stories, and editions.
package models

import (
	"errors"
	"time"
)

// Category classifies a market into one of the paper's fixed desks.
type Category string

const (
	CategoryPolitics Category = "POLITICS"
	CategorySports   Category = "SPORTS"
	CategoryCrypto   Category = "CRYPTO"
	CategoryEconomy  Category = "ECONOMY"
	CategoryScience  Category = "SCIENCE"
	CategoryCulture  Category = "CULTURE"
	CategoryWorld    Category = "WORLD"
)

// Categories lists every known category in desk-priority order.
var Categories = []Category{
	CategoryPolitics,
	CategoryWorld,
	CategoryEconomy,
	CategoryCrypto,
	CategoryScience,
	CategoryCulture,
	CategorySports,
}

// Status describes how settled a market looks from its current odds.
type Status string

const (
	StatusConfirmed     Status = "confirmed"
	StatusDeadOnArrival Status = "dead_on_arrival"
	StatusChaos         Status = "chaos"
	StatusContested     Status = "contested"
)

// Score is the composite newsworthiness score for a market.
// money, certainty, speed, and total sit in [0,1]; interest is a bounded
// category multiplier applied on top of the weighted sub-scores.
type Score struct {
	Money     float64 `json:"money"`
	Certainty float64 `json:"certainty"`
	Speed     float64 `json:"speed"`
	Interest  float64 `json:"interest"`
	Total     float64 `json:"total"`
}

// Market represents a single yes/no prediction market pulled from Polymarket.
type Market struct {
	ID             string    `json:"id"`
	Question       string    `json:"question"`
	Description    string    `json:"description,omitempty"`
	Outcomes       []string  `json:"outcomes,omitempty"`
	EndDate        time.Time `json:"end_date"`
	YesProbability float64   `json:"yes_probability"`
	NoProbability  float64   `json:"no_probability"`
	Volume24hr     float64   `json:"volume_24hr"`
	VolumeTotal    float64   `json:"volume_total"`
	Liquidity      float64   `json:"liquidity"`
	PriceChange24h float64   `json:"price_change_24h"`
	Category       Category  `json:"category"`
	Status         Status    `json:"status,omitempty"`
	Score          Score     `json:"score"`
	LastUpdated    time.Time `json:"last_updated"`
}

// Validate checks market field constraints.
func (m *Market) Validate() error {
	if m.ID == "" {
		return errors.New("market ID must not be empty")
	}
	if m.Question == "" {
		return errors.New("market question must not be empty")
	}
	if m.Category == "" {
		return errors.New("market category must not be empty")
	}
	if m.YesProbability < 0.0 || m.YesProbability > 1.0 {
		return errors.New("yes probability must be between 0.0 and 1.0")
	}
	if m.NoProbability < 0.0 || m.NoProbability > 1.0 {
		return errors.New("no probability must be between 0.0 and 1.0")
	}
	if m.Volume24hr < 0 {
		return errors.New("volume 24hr must not be negative")
	}
	if m.VolumeTotal < 0 {
		return errors.New("total volume must not be negative")
	}
	if m.Liquidity < 0 {
		return errors.New("liquidity must not be negative")
	}
	return nil
}
