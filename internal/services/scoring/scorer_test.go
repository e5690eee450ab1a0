package scoring

import (
	"reflect"
	"testing"
	"time"

	"AstroPull/internal/domain/models"
)

var scoringDate = time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)

func sunIngress(date time.Time, sign string) models.IngressEvent {
	var z models.ZodiacSign
	for _, s := range models.ZodiacSigns {
		if s.Name == sign {
			z = s
		}
	}
	return models.IngressEvent{Date: date, Body: models.Sun, Sign: sign, FromSign: "", Ruler: z.Ruler, Element: z.Element}
}

func TestClassifyKeywordPrecedence(t *testing.T) {
	c := NewClassifier()

	// "bank" beats the crypto category default (tech).
	sec, ok := c.Classify("BigBank Coin", "crypto")
	if !ok || sec.ID != "finance" {
		t.Fatalf("expected finance, got %v ok=%v", sec, ok)
	}

	// Category fallbacks.
	for cat, want := range map[string]string{
		"crypto":      "tech",
		"forex":       "finance",
		"rates-macro": "finance",
		"stress":      "finance",
		"commodities": "real_estate",
	} {
		sec, ok := c.Classify("XYZ", cat)
		if !ok || sec.ID != want {
			t.Fatalf("category %s: expected %s, got %v ok=%v", cat, want, sec, ok)
		}
	}

	// Equities without a keyword stay unsectored.
	if _, ok := c.Classify("XYZ", "equities"); ok {
		t.Fatalf("expected no sector for plain equities symbol")
	}
}

func TestIngressScoreValues(t *testing.T) {
	cases := []struct {
		sign string
		want float64
	}{
		{"Aquarius", 30}, // favorable for tech
		{"Leo", 22},      // fire
		{"Taurus", 20},   // earth
		{"Libra", 18},    // air
		{"Cancer", 12},   // water
	}
	for _, c := range cases {
		log := &models.EventLog{Ingresses: []models.IngressEvent{sunIngress(scoringDate.AddDate(0, 0, -5), c.sign)}}
		s := NewScorer(NewClassifier(), log)
		rec := s.Score("techx", "equities", scoringDate)
		if rec.Components.IngressPeriod != c.want {
			t.Fatalf("sign %s: got %v want %v", c.sign, rec.Components.IngressPeriod, c.want)
		}
	}

	// No ingress log, or no sector: neutral 15.
	s := NewScorer(NewClassifier(), &models.EventLog{})
	if got := s.Score("techx", "equities", scoringDate).Components.IngressPeriod; got != 15 {
		t.Fatalf("empty log: got %v", got)
	}
	log := &models.EventLog{Ingresses: []models.IngressEvent{sunIngress(scoringDate.AddDate(0, 0, -5), "Aquarius")}}
	if got := NewScorer(NewClassifier(), log).Score("XYZ", "equities", scoringDate).Components.IngressPeriod; got != 15 {
		t.Fatalf("no sector: got %v", got)
	}

	// Future ingresses are invisible.
	log = &models.EventLog{Ingresses: []models.IngressEvent{sunIngress(scoringDate.AddDate(0, 0, 2), "Aquarius")}}
	if got := NewScorer(NewClassifier(), log).Score("techx", "equities", scoringDate).Components.IngressPeriod; got != 15 {
		t.Fatalf("future ingress leaked: got %v", got)
	}
}

func primaryAspect(date time.Time, b1, b2 models.Body, at models.AspectType, nature models.AspectNature) models.AspectEvent {
	return models.AspectEvent{Date: date, Body1: b1, Body2: b2, Type: at, Nature: nature, Tier: models.TierPrimary}
}

func TestAspectScoreRulerAmplification(t *testing.T) {
	// Mercury rules tech; a Mercury trine scores 20*1.5 on top of the
	// neutral 20 and clamps at 40.
	log := &models.EventLog{Aspects: []models.AspectEvent{
		primaryAspect(scoringDate, models.Mercury, models.Jupiter, models.Trine, models.Harmonious),
	}}
	got := NewScorer(NewClassifier(), log).Score("techx", "equities", scoringDate).Components.PlanetaryAspects
	if got != 40 {
		t.Fatalf("expected clamp at 40, got %v", got)
	}

	// Without ruler involvement the same trine lands at 40 unclamped.
	log = &models.EventLog{Aspects: []models.AspectEvent{
		primaryAspect(scoringDate, models.Sun, models.Jupiter, models.Trine, models.Harmonious),
	}}
	got = NewScorer(NewClassifier(), log).Score("techx", "equities", scoringDate).Components.PlanetaryAspects
	if got != 40 {
		t.Fatalf("expected 20+20=40, got %v", got)
	}
}

func TestAspectScoreClampAndWindow(t *testing.T) {
	// Two amplified squares push the score below zero; it clamps at 0.
	log := &models.EventLog{Aspects: []models.AspectEvent{
		primaryAspect(scoringDate, models.Mercury, models.Mars, models.Square, models.Harsh),
		primaryAspect(scoringDate.AddDate(0, 0, -2), models.Mercury, models.Saturn, models.Square, models.Harsh),
	}}
	got := NewScorer(NewClassifier(), log).Score("techx", "equities", scoringDate).Components.PlanetaryAspects
	if got != 0 {
		t.Fatalf("expected clamp at 0, got %v", got)
	}

	// An aspect four days out is outside the +/-3 day window.
	log = &models.EventLog{Aspects: []models.AspectEvent{
		primaryAspect(scoringDate.AddDate(0, 0, 4), models.Mercury, models.Mars, models.Square, models.Harsh),
	}}
	got = NewScorer(NewClassifier(), log).Score("techx", "equities", scoringDate).Components.PlanetaryAspects
	if got != 20 {
		t.Fatalf("window leak: got %v", got)
	}
}

func TestAspectScoreRetroPenaltyAndBonus(t *testing.T) {
	log := &models.EventLog{
		Aspects: []models.AspectEvent{
			primaryAspect(scoringDate, models.Sun, models.Jupiter, models.Sextile, models.Harmonious),
			{Date: scoringDate, Body1: models.Pluto, Body2: models.Sun, Type: models.Trine,
				Nature: models.Harmonious, Orb: 0.4, Exact: true, Tier: models.TierBonus, InfluenceWeight: 95},
		},
		Retrogrades: []models.RetrogradeEvent{
			{Date: scoringDate.AddDate(0, 0, 1), Body: models.Mercury, Status: models.RetrogradeStarts, Tier: models.TierPrimary},
		},
	}
	// tech: 20 + 15 (sextile) - 10 (mercury rules tech, stations) + 4.75 (95/100*5).
	got := NewScorer(NewClassifier(), log).Score("techx", "equities", scoringDate).Components.PlanetaryAspects
	if got != 29.75 {
		t.Fatalf("expected 29.75, got %v", got)
	}

	// A bonus-tier station must not trigger the ruler penalty.
	log.Retrogrades[0].Tier = models.TierBonus
	got = NewScorer(NewClassifier(), log).Score("techx", "equities", scoringDate).Components.PlanetaryAspects
	if got != 39.75 {
		t.Fatalf("bonus-tier station penalized: got %v", got)
	}
}

func TestAspectScoreNoSector(t *testing.T) {
	log := &models.EventLog{Aspects: []models.AspectEvent{
		primaryAspect(scoringDate, models.Sun, models.Jupiter, models.Trine, models.Harmonious),
	}}
	got := NewScorer(NewClassifier(), log).Score("XYZ", "equities", scoringDate).Components.PlanetaryAspects
	if got != 20 {
		t.Fatalf("no sector must score neutral 20, got %v", got)
	}
}

func TestLunarScoreMapping(t *testing.T) {
	phases := map[models.LunarPhase]float64{
		models.PhaseNew:            18,
		models.PhaseWaxingCrescent: 16,
		models.PhaseFirstQuarter:   15,
		models.PhaseWaxingGibbous:  14,
		models.PhaseFull:           12,
		models.PhaseWaningGibbous:  10,
		models.PhaseLastQuarter:    8,
		models.PhaseWaningCrescent: 6,
	}
	for phase, want := range phases {
		log := &models.EventLog{LunarPhases: []models.LunarPhaseRecord{
			{Date: scoringDate.AddDate(0, 0, -10), Phase: models.PhaseFull},
			{Date: scoringDate.AddDate(0, 0, -1), Phase: phase},
			{Date: scoringDate.AddDate(0, 0, 1), Phase: models.PhaseNew},
		}}
		got := NewScorer(NewClassifier(), log).Score("XYZ", "equities", scoringDate).Components.LunarPhase
		if got != want {
			t.Fatalf("phase %s: got %v want %v", phase, got, want)
		}
	}
	if got := NewScorer(NewClassifier(), &models.EventLog{}).Score("XYZ", "equities", scoringDate).Components.LunarPhase; got != 10 {
		t.Fatalf("empty lunar log: got %v", got)
	}
}

func TestCycleBonusWindow(t *testing.T) {
	eligible := models.NodalCyclePhaseRecord{Date: scoringDate.AddDate(0, 0, -25), Phase: "opposition", BonusEligible: true}
	log := &models.EventLog{NodalPhases: []models.NodalCyclePhaseRecord{eligible}}
	if got := NewScorer(NewClassifier(), log).Score("XYZ", "equities", scoringDate).Components.CycleBonus; got != 10 {
		t.Fatalf("expected bonus 10, got %v", got)
	}

	// Multiple eligible points still grant a single flat 10.
	log.NodalPhases = append(log.NodalPhases, models.NodalCyclePhaseRecord{Date: scoringDate, Phase: "start", BonusEligible: true})
	if got := NewScorer(NewClassifier(), log).Score("XYZ", "equities", scoringDate).Components.CycleBonus; got != 10 {
		t.Fatalf("bonus must be binary, got %v", got)
	}

	far := models.NodalCyclePhaseRecord{Date: scoringDate.AddDate(0, 0, -31), Phase: "opposition", BonusEligible: true}
	log = &models.EventLog{NodalPhases: []models.NodalCyclePhaseRecord{far}}
	if got := NewScorer(NewClassifier(), log).Score("XYZ", "equities", scoringDate).Components.CycleBonus; got != 0 {
		t.Fatalf("31 days out must not score, got %v", got)
	}

	ineligible := models.NodalCyclePhaseRecord{Date: scoringDate, Phase: "fibonacci_38", BonusEligible: false}
	log = &models.EventLog{NodalPhases: []models.NodalCyclePhaseRecord{ineligible}}
	if got := NewScorer(NewClassifier(), log).Score("XYZ", "equities", scoringDate).Components.CycleBonus; got != 0 {
		t.Fatalf("ineligible point scored, got %v", got)
	}
}

func TestRatingThresholds(t *testing.T) {
	cases := []struct {
		total float64
		want  models.Rating
	}{
		{85.0, models.RatingFeatured},
		{84.99, models.RatingFavorable},
		{70.0, models.RatingFavorable},
		{69.99, models.RatingNeutral},
		{50.0, models.RatingNeutral},
		{49.99, models.RatingUnfavorable},
	}
	for _, c := range cases {
		if got := models.RatingFor(c.total); got != c.want {
			t.Fatalf("total %v: got %s want %s", c.total, got, c.want)
		}
	}
}

func TestScoreDeterminism(t *testing.T) {
	log := &models.EventLog{
		Ingresses: []models.IngressEvent{sunIngress(scoringDate.AddDate(0, 0, -12), "Aquarius")},
		Aspects: []models.AspectEvent{
			primaryAspect(scoringDate, models.Mercury, models.Jupiter, models.Sextile, models.Harmonious),
		},
		LunarPhases: []models.LunarPhaseRecord{{Date: scoringDate, Phase: models.PhaseNew}},
		NodalPhases: []models.NodalCyclePhaseRecord{{Date: scoringDate, Phase: "start", BonusEligible: true}},
	}
	s := NewScorer(NewClassifier(), log)
	a := s.Score("techx", "equities", scoringDate)
	b := s.Score("techx", "equities", scoringDate)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("repeated scoring diverged:\n%+v\n%+v", a, b)
	}
	if a.TotalScore != a.BaseScore+a.Components.CycleBonus {
		t.Fatalf("total/base mismatch: %+v", a)
	}
}

func TestSortByTotalDescStable(t *testing.T) {
	recs := []models.ConfidenceScoreRecord{
		{Symbol: "A", TotalScore: 60},
		{Symbol: "B", TotalScore: 90},
		{Symbol: "C", TotalScore: 60},
		{Symbol: "D", TotalScore: 75},
	}
	SortByTotalDesc(recs)
	order := []string{"B", "D", "A", "C"}
	for i, want := range order {
		if recs[i].Symbol != want {
			t.Fatalf("position %d: got %s want %s", i, recs[i].Symbol, want)
		}
	}
}
