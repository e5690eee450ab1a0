package events

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"AstroPull/internal/domain/models"
)

func TestSignAtPeriodicity(t *testing.T) {
	for _, lon := range []float64{0, 29.99, 45, 119.5, 233, 359.9} {
		base := models.SignAt(lon)
		for _, k := range []float64{-2, -1, 1, 3} {
			if got := models.SignAt(lon + 360*k); got.Name != base.Name {
				t.Fatalf("sign(%v+360*%v)=%s, want %s", lon, k, got.Name, base.Name)
			}
		}
	}
	if models.SignAt(31).Name != "Taurus" {
		t.Fatalf("expected Taurus at 31 degrees")
	}
}

func TestMatchAspectSymmetry(t *testing.T) {
	cases := [][2]float64{{10, 130.5}, {0, 178}, {200, 262}, {15, 15.3}}
	for _, c := range cases {
		d1, o1, hit1 := MatchAspect(c[0], c[1])
		d2, o2, hit2 := MatchAspect(c[1], c[0])
		if hit1 != hit2 || d1.Type != d2.Type || o1 != o2 {
			t.Fatalf("asymmetric aspect for %v: (%v,%v,%v) vs (%v,%v,%v)", c, d1.Type, o1, hit1, d2.Type, o2, hit2)
		}
	}
}

func TestMatchAspectWindows(t *testing.T) {
	// 120.5 separation is a trine with 0.5 orb.
	def, orb, hit := MatchAspect(10, 130.5)
	if !hit || def.Type != models.Trine {
		t.Fatalf("expected trine, got %v hit=%v", def.Type, hit)
	}
	if orb != 0.5 {
		t.Fatalf("expected orb 0.5, got %v", orb)
	}
	// 65 separation misses sextile's 4-degree orb.
	if _, _, hit := MatchAspect(0, 65); hit {
		t.Fatalf("expected no aspect at 65 degrees")
	}
	// Folding: 350 separation is a 10-degree conjunction window hit at orb 8? No: folded 10 > 8.
	if _, _, hit := MatchAspect(0, 350); hit {
		t.Fatalf("expected no conjunction at folded 10 degrees")
	}
	if def, _, hit := MatchAspect(0, 354); !hit || def.Type != models.Conjunction {
		t.Fatalf("expected conjunction at folded 6 degrees")
	}
}

func TestLunarPhaseBuckets(t *testing.T) {
	cases := []struct {
		angle float64
		want  models.LunarPhase
	}{
		{0, models.PhaseNew},
		{22.4, models.PhaseNew},
		{22.5, models.PhaseWaxingCrescent},
		{90, models.PhaseFirstQuarter},
		{180, models.PhaseFull},
		{270, models.PhaseLastQuarter},
		{337.5, models.PhaseNew},
		{359.9, models.PhaseNew},
	}
	for _, c := range cases {
		got, _ := LunarPhaseOf(0, c.angle)
		if got != c.want {
			t.Fatalf("phase at %v: got %s want %s", c.angle, got, c.want)
		}
	}
	_, illum := LunarPhaseOf(0, 180)
	if illum != 100 {
		t.Fatalf("full moon illumination: got %v", illum)
	}
	_, illum = LunarPhaseOf(0, 0)
	if illum != 0 {
		t.Fatalf("new moon illumination: got %v", illum)
	}
}

func TestNodalCycleKeyPoints(t *testing.T) {
	// Epoch day sits exactly at the cycle start.
	rec, ok := NodalCycleAt(NodalCycleEpoch)
	if !ok {
		t.Fatalf("expected key point at epoch")
	}
	if rec.Phase != "start" || !rec.BonusEligible {
		t.Fatalf("expected bonus-eligible start, got %+v", rec)
	}

	// Half a period later lands on the opposition.
	half := NodalCycleEpoch.AddDate(0, 0, 3397)
	rec, ok = NodalCycleAt(half)
	if !ok || rec.Phase != "opposition" {
		t.Fatalf("expected opposition, got %+v ok=%v", rec, ok)
	}
	if !rec.BonusEligible {
		t.Fatalf("opposition within 2 degrees must be bonus eligible")
	}

	// A day far from every key phase produces no record.
	if _, ok := NodalCycleAt(NodalCycleEpoch.AddDate(0, 0, 800)); ok {
		t.Fatalf("expected no key point at cycle position %v", 800.0/6793.5*360)
	}
}

func TestNodalCycleFirstMatchOrder(t *testing.T) {
	// Near the wrap the 360-degree completion row is reached only after the
	// 0-degree start row failed; the table is scanned top to bottom.
	rec, ok := NodalCycleAt(NodalCycleEpoch.AddDate(0, 0, 6778))
	if !ok || rec.Phase != "completion" {
		t.Fatalf("expected completion near wrap, got %+v ok=%v", rec, ok)
	}
	if math.Abs(rec.CyclePosition-359.18) > 0.01 {
		t.Fatalf("unexpected cycle position %v", rec.CyclePosition)
	}
}

type stubProvider struct {
	days map[string]map[models.Body]models.CelestialPosition
}

func (s stubProvider) Positions(_ context.Context, date time.Time) (map[models.Body]models.CelestialPosition, error) {
	m, ok := s.days[date.Format("2006-01-02")]
	if !ok {
		return nil, fmt.Errorf("no positions for %s", date.Format("2006-01-02"))
	}
	return m, nil
}

func day(bodies ...models.CelestialPosition) map[models.Body]models.CelestialPosition {
	m := make(map[models.Body]models.CelestialPosition, len(bodies))
	for _, b := range bodies {
		m[b.Body] = b
	}
	return m
}

func TestGenerateEdgeDetection(t *testing.T) {
	d1 := time.Date(2024, 4, 18, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	provider := stubProvider{days: map[string]map[models.Body]models.CelestialPosition{
		d1.Format("2006-01-02"): day(
			models.NewCelestialPosition(models.Sun, 29.9, 1),
			models.NewCelestialPosition(models.Moon, 200, 13),
			models.NewCelestialPosition(models.Mercury, 100, 1.2),
			models.NewCelestialPosition(models.Uranus, 250, -0.005),
		),
		d2.Format("2006-01-02"): day(
			models.NewCelestialPosition(models.Sun, 30.1, 1),
			models.NewCelestialPosition(models.Moon, 205, 13),
			models.NewCelestialPosition(models.Mercury, 101, -0.8),
			models.NewCelestialPosition(models.Uranus, 250.05, 0.005),
		),
	}}

	g := NewGenerator(provider)
	log, err := g.Generate(context.Background(), d1, d2)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Day one has no previous state: the single ingress and both station
	// flips are only visible on day two.
	if len(log.Ingresses) != 1 {
		t.Fatalf("expected 1 ingress, got %d", len(log.Ingresses))
	}
	ing := log.Ingresses[0]
	if ing.Body != models.Sun || ing.Sign != "Taurus" || ing.FromSign != "Aries" {
		t.Fatalf("unexpected ingress %+v", ing)
	}
	if ing.Ruler != models.Venus || ing.Element != models.Earth {
		t.Fatalf("ingress rulership wrong: %+v", ing)
	}

	if len(log.Retrogrades) != 2 {
		t.Fatalf("expected 2 retrograde events, got %d", len(log.Retrogrades))
	}
	for _, ev := range log.Retrogrades {
		if !ev.Date.Equal(d2) {
			t.Fatalf("retrograde event on wrong day: %+v", ev)
		}
		switch ev.Body {
		case models.Mercury:
			if ev.Status != models.RetrogradeStarts || ev.Tier != models.TierPrimary {
				t.Fatalf("unexpected mercury event %+v", ev)
			}
		case models.Uranus:
			if ev.Status != models.RetrogradeEnds || ev.Tier != models.TierBonus {
				t.Fatalf("unexpected uranus event %+v", ev)
			}
			if !ev.BonusEligible || ev.InfluenceWeight != 90 {
				t.Fatalf("stationary uranus station must be bonus eligible: %+v", ev)
			}
		default:
			t.Fatalf("unexpected body %s", ev.Body)
		}
	}

	if len(log.LunarPhases) != 2 {
		t.Fatalf("expected a lunar phase per day, got %d", len(log.LunarPhases))
	}
}

func TestGenerateSunMoonNeverStation(t *testing.T) {
	d1 := time.Date(2024, 4, 18, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	provider := stubProvider{days: map[string]map[models.Body]models.CelestialPosition{
		d1.Format("2006-01-02"): day(
			models.NewCelestialPosition(models.Sun, 10, 1),
			models.NewCelestialPosition(models.Moon, 100, 13),
		),
		d2.Format("2006-01-02"): day(
			models.NewCelestialPosition(models.Sun, 11, -1),
			models.NewCelestialPosition(models.Moon, 113, -13),
		),
	}}
	log, err := NewGenerator(provider).Generate(context.Background(), d1, d2)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(log.Retrogrades) != 0 {
		t.Fatalf("Sun/Moon must never emit retrograde events, got %d", len(log.Retrogrades))
	}
}

func TestGenerateBonusAspects(t *testing.T) {
	d1 := time.Date(2024, 4, 18, 0, 0, 0, 0, time.UTC)
	provider := stubProvider{days: map[string]map[models.Body]models.CelestialPosition{
		d1.Format("2006-01-02"): day(
			// Pluto trine Sun at 0.5 orb: exact, bonus tier.
			models.NewCelestialPosition(models.Sun, 10, 1),
			models.NewCelestialPosition(models.Pluto, 130.5, 0.02),
			// Uranus square Sun at 3 degrees orb: within window but not
			// exact, so no bonus event.
			models.NewCelestialPosition(models.Uranus, 103, 0.03),
		),
	}}
	log, err := NewGenerator(provider).Generate(context.Background(), d1, d1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var bonus []models.AspectEvent
	for _, a := range log.Aspects {
		if a.Tier == models.TierBonus {
			bonus = append(bonus, a)
		}
	}
	if len(bonus) != 1 {
		t.Fatalf("expected 1 bonus aspect, got %d", len(bonus))
	}
	b := bonus[0]
	if b.Body1 != models.Pluto || b.Type != models.Trine || !b.Exact {
		t.Fatalf("unexpected bonus aspect %+v", b)
	}
	if b.InfluenceWeight != 95 {
		t.Fatalf("expected pluto influence 95, got %v", b.InfluenceWeight)
	}
}
