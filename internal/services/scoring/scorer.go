package scoring

import (
	"sort"
	"time"

	"AstroPull/internal/domain/models"
	domsvc "AstroPull/internal/domain/service"
	"AstroPull/pkg/util"
)

// Aspect scoring weights. Conjunctions score zero: their quality depends on
// the bodies involved.
var (
	harmoniousScores = map[models.AspectType]float64{
		models.Conjunction: 0,
		models.Sextile:     15,
		models.Trine:       20,
	}
	harshScores = map[models.AspectType]float64{
		models.Square:     -15,
		models.Opposition: -10,
	}
)

// Neutral component defaults used when no sector or no data applies.
const (
	neutralIngressScore = 15.0
	neutralAspectScore  = 20.0
	neutralLunarScore   = 10.0
)

// Scoring windows in days.
const (
	aspectWindowDays = 3
	cycleWindowDays  = 30
)

const rulerMultiplier = 1.5

// Scorer computes confidence scores against a fixed event log snapshot. It is
// a pure per-(symbol, date) computation; all state lives in the log.
type Scorer struct {
	classifier domsvc.SectorClassifier
	log        *models.EventLog
}

func NewScorer(classifier domsvc.SectorClassifier, log *models.EventLog) *Scorer {
	if log == nil {
		log = &models.EventLog{}
	}
	return &Scorer{classifier: classifier, log: log}
}

// Score produces the full record for one symbol on one date.
func (s *Scorer) Score(symbol, category string, date time.Time) models.ConfidenceScoreRecord {
	date = util.DayUTC(date)
	sector, ok := s.classifier.Classify(symbol, category)
	if !ok {
		sector = nil
	}

	ingress := s.scoreIngressPeriod(date, sector)
	aspects := s.scoreAspects(date, sector)
	lunar := s.scoreLunarPhase(date)
	cycle := s.scoreCycleBonus(date)

	base := ingress + aspects + lunar
	total := base + cycle

	rec := models.ConfidenceScoreRecord{
		Symbol:     symbol,
		Category:   category,
		Date:       date,
		TotalScore: util.Round2(total),
		BaseScore:  util.Round2(base),
		Rating:     models.RatingFor(total),
		Components: models.ComponentScores{
			IngressPeriod:    util.Round2(ingress),
			PlanetaryAspects: util.Round2(aspects),
			LunarPhase:       util.Round2(lunar),
			CycleBonus:       util.Round2(cycle),
		},
		IsFeatured: total >= models.FeaturedThreshold,
	}
	if sector != nil {
		rec.Sector = sector.ID
	}
	return rec
}

// scoreIngressPeriod rates the sign period opened by the latest Sun ingress,
// like reading the hour hand of a clock. 0-30.
func (s *Scorer) scoreIngressPeriod(date time.Time, sector *models.SectorProfile) float64 {
	if len(s.log.Ingresses) == 0 || sector == nil {
		return neutralIngressScore
	}
	var current *models.IngressEvent
	for i := range s.log.Ingresses {
		ev := &s.log.Ingresses[i]
		if ev.Body != models.Sun || ev.Date.After(date) {
			continue
		}
		if current == nil || ev.Date.After(current.Date) {
			current = ev
		}
	}
	if current == nil {
		return neutralIngressScore
	}

	if sector.Favors(current.Sign) {
		return 30
	}
	switch current.Element {
	case models.Fire:
		return 22
	case models.Earth:
		return 20
	case models.Air:
		return 18
	default:
		return 12 // water
	}
}

// scoreAspects rates the aspect picture inside a +/-3 day window, clamped to
// [0, 40]. Sector rulers amplify aspects they participate in; a ruler
// stationing retrograde inside the window costs 10; exact outer-body aspects
// add a small influence-weighted bonus.
func (s *Scorer) scoreAspects(date time.Time, sector *models.SectorProfile) float64 {
	if len(s.log.Aspects) == 0 || sector == nil {
		return neutralAspectScore
	}

	score := neutralAspectScore
	for _, a := range s.log.Aspects {
		if !inWindow(a.Date, date, aspectWindowDays) {
			continue
		}
		switch a.Tier {
		case models.TierPrimary:
			var base float64
			switch a.Nature {
			case models.Harmonious:
				base = harmoniousScores[a.Type]
			case models.Harsh:
				base = harshScores[a.Type]
			}
			if sector.HasRuler(a.Body1) || sector.HasRuler(a.Body2) {
				base *= rulerMultiplier
			}
			score += base
		case models.TierBonus:
			if a.Exact {
				score += a.InfluenceWeight / 100 * 5
			}
		}
	}

	for _, rx := range s.log.Retrogrades {
		if rx.Tier != models.TierPrimary || rx.Status != models.RetrogradeStarts {
			continue
		}
		if !inWindow(rx.Date, date, aspectWindowDays) {
			continue
		}
		if sector.HasRuler(rx.Body) {
			score -= 10
		}
	}

	if score < 0 {
		return 0
	}
	if score > 40 {
		return 40
	}
	return score
}

// lunarPhaseScores rates precision timing by phase.
var lunarPhaseScores = map[models.LunarPhase]float64{
	models.PhaseNew:            18,
	models.PhaseWaxingCrescent: 16,
	models.PhaseFirstQuarter:   15,
	models.PhaseWaxingGibbous:  14,
	models.PhaseFull:           12,
	models.PhaseWaningGibbous:  10,
	models.PhaseLastQuarter:    8,
	models.PhaseWaningCrescent: 6,
}

func (s *Scorer) scoreLunarPhase(date time.Time) float64 {
	var current *models.LunarPhaseRecord
	for i := range s.log.LunarPhases {
		rec := &s.log.LunarPhases[i]
		if rec.Date.After(date) {
			continue
		}
		if current == nil || rec.Date.After(current.Date) {
			current = rec
		}
	}
	if current == nil {
		return neutralLunarScore
	}
	if v, ok := lunarPhaseScores[current.Phase]; ok {
		return v
	}
	return neutralLunarScore
}

// scoreCycleBonus grants a flat 10 when a bonus-eligible nodal key point
// falls within 30 days of the scoring date. Binary, not cumulative.
func (s *Scorer) scoreCycleBonus(date time.Time) float64 {
	for _, rec := range s.log.NodalPhases {
		if !rec.BonusEligible {
			continue
		}
		if inWindow(rec.Date, date, cycleWindowDays) {
			return 10
		}
	}
	return 0
}

func inWindow(eventDate, center time.Time, days int) bool {
	d := util.DaysBetween(center, eventDate)
	return d >= -days && d <= days
}

// SortByTotalDesc orders records by total score descending. The sort is
// stable so ties keep their enumeration order and output stays reproducible.
func SortByTotalDesc(records []models.ConfidenceScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TotalScore > records[j].TotalScore
	})
}

var _ domsvc.ConfidenceScorer = (*Scorer)(nil)
