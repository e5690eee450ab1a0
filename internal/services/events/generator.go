package events

import (
	"context"
	"fmt"
	"math"
	"time"

	"AstroPull/internal/domain/models"
	domrepo "AstroPull/internal/domain/repository"
	domsvc "AstroPull/internal/domain/service"
	applogger "AstroPull/pkg/logger"
	"AstroPull/pkg/util"
)

// NodalCycleEpoch is the reference day the cycle position counts from.
var NodalCycleEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Mean node longitude at epoch and its daily (retrograde) rate.
const (
	epochNodeLongitude = 125.04
	nodeRatePerDay     = -0.052954
)

// Generator produces the five event streams from a position provider. The
// daily fold is strictly sequential: ingress and retrograde detection compare
// against the previous day's recorded state.
type Generator struct {
	provider domrepo.PositionProvider
	l        *applogger.Logger
}

func NewGenerator(provider domrepo.PositionProvider) *Generator {
	return &Generator{provider: provider}
}

// SetLogger injects a structured logger.
func (g *Generator) SetLogger(l *applogger.Logger) { g.l = l }

// scanState is the loop-carried edge-detection state. The first day of a
// range has no previous state and emits no ingress or retrograde events.
type scanState struct {
	signs   map[models.Body]string
	retro   map[models.Body]bool
	hasPrev bool
}

func newScanState() scanState {
	return scanState{
		signs: make(map[models.Body]string),
		retro: make(map[models.Body]bool),
	}
}

// Generate folds day by day over [from, to] inclusive.
func (g *Generator) Generate(ctx context.Context, from, to time.Time) (*models.EventLog, error) {
	start := time.Now()
	log := &models.EventLog{}
	st := newScanState()

	for d := util.DayUTC(from); !d.After(util.DayUTC(to)); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pos, err := g.provider.Positions(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("positions for %s: %w", d.Format("2006-01-02"), err)
		}

		log.Aspects = append(log.Aspects, dailyAspects(d, pos)...)
		if st.hasPrev {
			log.Ingresses = append(log.Ingresses, detectIngresses(d, pos, st.signs)...)
		}
		log.Retrogrades = append(log.Retrogrades, detectStations(d, pos, &st)...)

		if lp, ok := lunarPhaseRecord(d, pos); ok {
			log.LunarPhases = append(log.LunarPhases, lp)
		}
		if np, ok := NodalCycleAt(d); ok {
			log.NodalPhases = append(log.NodalPhases, np)
		}

		st.observe(pos)
	}

	if g.l != nil {
		g.l.Info("event generation complete",
			applogger.Int("aspects", len(log.Aspects)),
			applogger.Int("ingresses", len(log.Ingresses)),
			applogger.Int("retrogrades", len(log.Retrogrades)),
			applogger.Int("lunar_phases", len(log.LunarPhases)),
			applogger.Int("nodal_key_points", len(log.NodalPhases)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return log, nil
}

// observe records today's signs and retrograde flags for tomorrow's edge
// detection.
func (s *scanState) observe(pos map[models.Body]models.CelestialPosition) {
	for _, b := range models.PrimaryBodies {
		if p, ok := pos[b]; ok {
			s.signs[b] = p.Sign().Name
		}
	}
	for _, b := range stationBodies() {
		if p, ok := pos[b]; ok {
			s.retro[b] = p.Retrograde
		}
	}
	s.hasPrev = true
}

// stationBodies lists the bodies retrograde detection covers: every primary
// body except Sun and Moon, plus the outer bodies.
func stationBodies() []models.Body {
	out := make([]models.Body, 0, len(models.PrimaryBodies)-2+len(models.OuterBodies))
	out = append(out, models.PrimaryBodies[2:]...)
	out = append(out, models.OuterBodies...)
	return out
}

// MatchAspect tests whether two longitudes form an aspect. The separation is
// folded to at most 180 degrees, so argument order does not matter. Rules are
// tried in table order; the first within orb wins.
func MatchAspect(lon1, lon2 float64) (models.AspectDef, float64, bool) {
	sep := math.Abs(lon1 - lon2)
	sep = math.Mod(sep, 360)
	if sep > 180 {
		sep = 360 - sep
	}
	for _, def := range models.AspectDefs {
		orb := math.Abs(sep - def.Degrees)
		if orb <= def.Orb {
			return def, util.Round2(orb), true
		}
	}
	return models.AspectDef{}, 0, false
}

func dailyAspects(date time.Time, pos map[models.Body]models.CelestialPosition) []models.AspectEvent {
	var out []models.AspectEvent

	// Primary pairs, first tier.
	for i, b1 := range models.PrimaryBodies {
		p1, ok := pos[b1]
		if !ok {
			continue
		}
		for _, b2 := range models.PrimaryBodies[i+1:] {
			p2, ok := pos[b2]
			if !ok {
				continue
			}
			def, orb, hit := MatchAspect(p1.Longitude, p2.Longitude)
			if !hit {
				continue
			}
			out = append(out, models.AspectEvent{
				Date:      date,
				Body1:     b1,
				Body2:     b2,
				Type:      def.Type,
				Nature:    def.Nature,
				Orb:       orb,
				Exact:     orb < models.ExactOrb,
				Body1Sign: p1.Sign().Name,
				Body2Sign: p2.Sign().Name,
				Tier:      models.TierPrimary,
			})
		}
	}

	// Outer x primary, bonus tier, exact hits only.
	for _, outer := range models.OuterBodies {
		po, ok := pos[outer]
		if !ok {
			continue
		}
		for _, primary := range models.PrimaryBodies {
			pp, ok := pos[primary]
			if !ok {
				continue
			}
			def, orb, hit := MatchAspect(po.Longitude, pp.Longitude)
			if !hit || orb >= models.ExactOrb {
				continue
			}
			out = append(out, models.AspectEvent{
				Date:            date,
				Body1:           outer,
				Body2:           primary,
				Type:            def.Type,
				Nature:          def.Nature,
				Orb:             orb,
				Exact:           true,
				Body1Sign:       po.Sign().Name,
				Body2Sign:       pp.Sign().Name,
				Tier:            models.TierBonus,
				InfluenceWeight: po.InfluenceWeight,
			})
		}
	}

	return out
}

func detectIngresses(date time.Time, pos map[models.Body]models.CelestialPosition, prevSigns map[models.Body]string) []models.IngressEvent {
	var out []models.IngressEvent
	for _, b := range models.PrimaryBodies {
		p, ok := pos[b]
		if !ok {
			continue
		}
		prev, ok := prevSigns[b]
		if !ok {
			continue
		}
		sign := p.Sign()
		if sign.Name == prev {
			continue
		}
		out = append(out, models.IngressEvent{
			Date:     date,
			Body:     b,
			Sign:     sign.Name,
			FromSign: prev,
			Ruler:    sign.Ruler,
			Element:  sign.Element,
		})
	}
	return out
}

func detectStations(date time.Time, pos map[models.Body]models.CelestialPosition, st *scanState) []models.RetrogradeEvent {
	var out []models.RetrogradeEvent
	for _, b := range stationBodies() {
		p, ok := pos[b]
		if !ok {
			continue
		}
		prev, seen := st.retro[b]
		if !seen || prev == p.Retrograde {
			continue
		}
		status := models.RetrogradeEnds
		if p.Retrograde {
			status = models.RetrogradeStarts
		}
		ev := models.RetrogradeEvent{
			Date:       date,
			Body:       b,
			Status:     status,
			Sign:       p.Sign().Name,
			Stationary: p.Stationary,
			Tier:       models.TierPrimary,
		}
		if isOuter(b) {
			ev.Tier = models.TierBonus
			ev.BonusEligible = p.Stationary
			ev.InfluenceWeight = p.InfluenceWeight
		}
		out = append(out, ev)
	}
	return out
}

func isOuter(b models.Body) bool {
	for _, o := range models.OuterBodies {
		if o == b {
			return true
		}
	}
	return false
}

// lunarPhaseThresholds bucket the Moon-Sun angle in ascending order.
var lunarPhaseThresholds = []struct {
	Below float64
	Phase models.LunarPhase
}{
	{22.5, models.PhaseNew},
	{67.5, models.PhaseWaxingCrescent},
	{112.5, models.PhaseFirstQuarter},
	{157.5, models.PhaseWaxingGibbous},
	{202.5, models.PhaseFull},
	{247.5, models.PhaseWaningGibbous},
	{292.5, models.PhaseLastQuarter},
	{337.5, models.PhaseWaningCrescent},
	{360, models.PhaseNew},
}

// LunarPhaseOf buckets the signed Moon-Sun angle and derives illumination.
func LunarPhaseOf(sunLon, moonLon float64) (models.LunarPhase, float64) {
	angle := models.NormalizeAngle(moonLon - sunLon)
	illumination := (1 - math.Cos(angle*math.Pi/180)) / 2 * 100

	phase := models.PhaseNew
	for _, t := range lunarPhaseThresholds {
		if angle < t.Below {
			phase = t.Phase
			break
		}
	}
	return phase, math.Round(illumination*10) / 10
}

func lunarPhaseRecord(date time.Time, pos map[models.Body]models.CelestialPosition) (models.LunarPhaseRecord, bool) {
	sun, okS := pos[models.Sun]
	moon, okM := pos[models.Moon]
	if !okS || !okM {
		return models.LunarPhaseRecord{}, false
	}
	phase, illum := LunarPhaseOf(sun.Longitude, moon.Longitude)
	sign := moon.Sign()
	return models.LunarPhaseRecord{
		Date:         date,
		Phase:        phase,
		Illumination: illum,
		Sign:         sign.Name,
		Ruler:        sign.Ruler,
	}, true
}

// NodalCycleAt computes the cycle position for a day and matches it against
// the key-phase table. Only days within a key phase's orb produce a record.
func NodalCycleAt(date time.Time) (models.NodalCyclePhaseRecord, bool) {
	days := util.DaysBetween(NodalCycleEpoch, util.DayUTC(date))
	elapsed := math.Mod(float64(days), models.NodalCyclePeriodDays)
	if elapsed < 0 {
		elapsed += models.NodalCyclePeriodDays
	}
	cyclePos := elapsed / models.NodalCyclePeriodDays * 360
	nodeLon := models.NormalizeAngle(epochNodeLongitude + nodeRatePerDay*float64(days))

	for _, def := range models.NodalPhaseDefs {
		diff := math.Abs(cyclePos - def.Degrees)
		if diff >= def.Orb {
			continue
		}
		bonus := diff < 2 &&
			(def.Name == "opposition" || def.Name == "completion" || def.Name == "start")
		return models.NodalCyclePhaseRecord{
			Date:             date,
			CyclePosition:    util.Round2(cyclePos),
			NodeLongitude:    util.Round2(nodeLon),
			Phase:            def.Name,
			Description:      def.Description,
			Orb:              util.Round2(diff),
			BonusEligible:    bonus,
			CycleDaysElapsed: int(elapsed),
		}, true
	}
	return models.NodalCyclePhaseRecord{}, false
}

var _ domsvc.EventGenerator = (*Generator)(nil)
