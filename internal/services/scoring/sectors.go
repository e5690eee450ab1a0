package scoring

import (
	"strings"

	"AstroPull/internal/domain/models"
	domsvc "AstroPull/internal/domain/service"
)

// SectorProfiles is the ordered sector rule table. Classification scans top
// to bottom and the first keyword hit wins, so declaration order is
// load-bearing.
var SectorProfiles = []models.SectorProfile{
	{
		ID:             "tech",
		Rulers:         []models.Body{models.Uranus, models.Mercury},
		FavorableSigns: []string{"Aquarius", "Gemini", "Virgo"},
		Keywords:       []string{"tech", "software", "innovation", "digital", "ai", "computer"},
	},
	{
		ID:             "athletics",
		Rulers:         []models.Body{models.Mars},
		FavorableSigns: []string{"Aries", "Scorpio"},
		Keywords:       []string{"sport", "athletic", "nike", "fitness", "gym", "energy"},
	},
	{
		ID:             "finance",
		Rulers:         []models.Body{models.Jupiter, models.Venus},
		FavorableSigns: []string{"Taurus", "Sagittarius", "Libra"},
		Keywords:       []string{"bank", "financial", "wealth", "insurance", "capital"},
	},
	{
		ID:             "luxury",
		Rulers:         []models.Body{models.Venus},
		FavorableSigns: []string{"Taurus", "Libra"},
		Keywords:       []string{"luxury", "beauty", "fashion", "jewelry", "cosmetic"},
	},
	{
		ID:             "healthcare",
		Rulers:         []models.Body{models.Neptune, models.Pluto},
		FavorableSigns: []string{"Virgo", "Pisces", "Scorpio"},
		Keywords:       []string{"health", "pharma", "medical", "hospital", "drug", "biotech"},
	},
	{
		ID:             "real_estate",
		Rulers:         []models.Body{models.Saturn},
		FavorableSigns: []string{"Capricorn", "Taurus"},
		Keywords:       []string{"real estate", "construction", "property", "building", "home"},
	},
	{
		ID:             "communication",
		Rulers:         []models.Body{models.Mercury},
		FavorableSigns: []string{"Gemini", "Virgo"},
		Keywords:       []string{"media", "communication", "telecom", "broadcast", "news"},
	},
	{
		ID:             "entertainment",
		Rulers:         []models.Body{models.Sun, models.Venus},
		FavorableSigns: []string{"Leo", "Libra"},
		Keywords:       []string{"entertainment", "movie", "gaming", "music", "streaming"},
	},
}

// categoryDefaults maps a category to its fallback sector when no keyword
// matches. Equities get no default and stay unsectored.
var categoryDefaults = map[string]string{
	"crypto":      "tech",
	"forex":       "finance",
	"rates-macro": "finance",
	"stress":      "finance",
	"commodities": "real_estate",
}

// Classifier resolves symbols to sector profiles.
type Classifier struct{}

func NewClassifier() *Classifier { return &Classifier{} }

// Classify scans the sector table for a keyword contained in the symbol,
// then falls back to the category default. Returns false when neither
// applies; the caller's scorers then use their neutral defaults.
func (c *Classifier) Classify(symbol, category string) (*models.SectorProfile, bool) {
	lower := strings.ToLower(symbol)
	for i := range SectorProfiles {
		for _, kw := range SectorProfiles[i].Keywords {
			if strings.Contains(lower, kw) {
				return &SectorProfiles[i], true
			}
		}
	}
	if id, ok := categoryDefaults[category]; ok {
		return profileByID(id)
	}
	return nil, false
}

func profileByID(id string) (*models.SectorProfile, bool) {
	for i := range SectorProfiles {
		if SectorProfiles[i].ID == id {
			return &SectorProfiles[i], true
		}
	}
	return nil, false
}

var _ domsvc.SectorClassifier = (*Classifier)(nil)
