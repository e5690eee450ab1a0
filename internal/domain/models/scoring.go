package models

import "time"

// SectorProfile maps a market sector to its ruling bodies and favorable
// signs. Keywords are matched case-insensitively as substrings of the symbol.
type SectorProfile struct {
	ID             string
	Rulers         []Body
	FavorableSigns []string
	Keywords       []string
}

// HasRuler reports whether b is one of the sector's ruling bodies.
func (s *SectorProfile) HasRuler(b Body) bool {
	for _, r := range s.Rulers {
		if r == b {
			return true
		}
	}
	return false
}

// Favors reports whether a sign is in the sector's favorable set.
func (s *SectorProfile) Favors(sign string) bool {
	for _, f := range s.FavorableSigns {
		if f == sign {
			return true
		}
	}
	return false
}

// Rating buckets a total score.
type Rating string

const (
	RatingFeatured    Rating = "featured"
	RatingFavorable   Rating = "favorable"
	RatingNeutral     Rating = "neutral"
	RatingUnfavorable Rating = "unfavorable"
)

// Score thresholds. Totals can exceed 100 with bonuses.
const (
	FeaturedThreshold  = 85.0
	FavorableThreshold = 70.0
	NeutralThreshold   = 50.0
)

// RatingFor buckets a total score by the fixed thresholds.
func RatingFor(total float64) Rating {
	switch {
	case total >= FeaturedThreshold:
		return RatingFeatured
	case total >= FavorableThreshold:
		return RatingFavorable
	case total >= NeutralThreshold:
		return RatingNeutral
	default:
		return RatingUnfavorable
	}
}

// ComponentScores holds the four score components.
type ComponentScores struct {
	IngressPeriod    float64 `json:"ingress_period"`
	PlanetaryAspects float64 `json:"planetary_aspects"`
	LunarPhase       float64 `json:"lunar_phase"`
	CycleBonus       float64 `json:"cycle_bonus"`
}

// ConfidenceScoreRecord is the scoring output for one symbol on one date.
type ConfidenceScoreRecord struct {
	Symbol     string          `json:"symbol"`
	Category   string          `json:"category"`
	Sector     string          `json:"sector,omitempty"`
	Date       time.Time       `json:"date"`
	TotalScore float64         `json:"total_score"`
	BaseScore  float64         `json:"base_score"`
	Rating     Rating          `json:"rating"`
	Components ComponentScores `json:"components"`
	IsFeatured bool            `json:"is_featured"`
}
