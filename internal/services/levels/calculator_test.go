package levels

import (
	"math"
	"testing"
	"time"

	"AstroPull/internal/domain/models"
	domrepo "AstroPull/internal/domain/repository"
)

func fptr(v float64) *float64 { return &v }

func TestRetracementArithmetic(t *testing.T) {
	if got := Retracement(100, 50, 0.5); got != 75 {
		t.Fatalf("retracement 0.5: got %v", got)
	}
	if got := Retracement(100, 50, 1.0); got != 100 {
		t.Fatalf("retracement 1.0: got %v", got)
	}
	if got := Retracement(100, 50, 1.618); got != 130.9 {
		t.Fatalf("extension 1.618: got %v", got)
	}
	if got := Retracement(100, 50, 0.236); got != 61.8 {
		t.Fatalf("retracement 0.236: got %v", got)
	}
}

func TestFanSlope(t *testing.T) {
	got := FanSlope(50, 100, 90, 0.5)
	if math.Abs(got-0.2778) > 0.0001 {
		t.Fatalf("fan slope: got %v", got)
	}
}

func anchorsAround(base time.Time) []models.SeasonalAnchor {
	return []models.SeasonalAnchor{
		{Date: base, Type: "vernal_equinox", Sign: "Aries", Kind: models.AnchorLow},
		{Date: base.AddDate(0, 0, 92), Type: "summer_solstice", Sign: "Cancer", Kind: models.AnchorHigh},
	}
}

func TestAnchorOffsetProbeOrder(t *testing.T) {
	base := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	// No row on the anchor day; rows at -3 and +1. The probe order picks -3
	// even though +1 is nearer.
	prices := []models.PriceObservation{
		{Symbol: "X", Date: base.AddDate(0, 0, -3), Price: 10},
		{Symbol: "X", Date: base.AddDate(0, 0, 1), Price: 99},
	}
	got, ok := resolvePrice(indexByDay(prices), models.SeasonalAnchor{Date: base, Kind: models.AnchorLow})
	if !ok {
		t.Fatalf("expected a resolved price")
	}
	if got != 10 {
		t.Fatalf("probe order broken: got %v, want 10 (the -3 row)", got)
	}
}

func TestAnchorFieldSelection(t *testing.T) {
	base := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	row := []models.PriceObservation{
		{Symbol: "X", Date: base, Price: 50, High: fptr(55), Low: fptr(45)},
	}
	byDay := indexByDay(row)

	if got, _ := resolvePrice(byDay, models.SeasonalAnchor{Date: base, Kind: models.AnchorHigh}); got != 55 {
		t.Fatalf("solstice must read the high field, got %v", got)
	}
	if got, _ := resolvePrice(byDay, models.SeasonalAnchor{Date: base, Kind: models.AnchorLow}); got != 45 {
		t.Fatalf("equinox must read the low field, got %v", got)
	}

	// Missing and NaN specific fields fall back to the generic price.
	plain := indexByDay([]models.PriceObservation{{Symbol: "X", Date: base, Price: 50}})
	if got, _ := resolvePrice(plain, models.SeasonalAnchor{Date: base, Kind: models.AnchorHigh}); got != 50 {
		t.Fatalf("missing high must fall back to price, got %v", got)
	}
	nan := indexByDay([]models.PriceObservation{{Symbol: "X", Date: base, Price: 50, High: fptr(math.NaN())}})
	if got, _ := resolvePrice(nan, models.SeasonalAnchor{Date: base, Kind: models.AnchorHigh}); got != 50 {
		t.Fatalf("NaN high must fall back to price, got %v", got)
	}
	if _, ok := resolvePrice(indexByDay([]models.PriceObservation{{Symbol: "X", Date: base, Price: math.NaN()}}), models.SeasonalAnchor{Date: base, Kind: models.AnchorLow}); ok {
		t.Fatalf("NaN generic price must not resolve")
	}
}

func TestCalculateRequiresTwoAnchors(t *testing.T) {
	now := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	c := NewCalculator(domrepo.FixedClock{T: now}, 6)
	base := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	// Only the first anchor has a price row in reach.
	prices := []models.PriceObservation{{Symbol: "X", Date: base, Price: 50}}
	if _, ok := c.Calculate("X", "equities", prices, anchorsAround(base)); ok {
		t.Fatalf("one resolved anchor must exclude the symbol")
	}
}

func TestCalculatePairLevels(t *testing.T) {
	now := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	c := NewCalculator(domrepo.FixedClock{T: now}, 6)
	base := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	peak := base.AddDate(0, 0, 92)

	prices := []models.PriceObservation{
		{Symbol: "X", Date: base, Price: 50, Low: fptr(50)},
		{Symbol: "X", Date: peak, Price: 98, High: fptr(100)},
	}
	set, ok := c.Calculate("X", "equities", prices, anchorsAround(base))
	if !ok {
		t.Fatalf("expected a level set")
	}
	if len(set.Pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(set.Pairs))
	}
	p := set.Pairs[0]
	if p.High != 100 || p.Low != 50 || p.Range != 50 || p.SpanDays != 92 {
		t.Fatalf("unexpected pair frame %+v", p)
	}
	if len(p.Retracements) != len(RetracementRatios) {
		t.Fatalf("expected %d retracement levels", len(RetracementRatios))
	}
	for _, lvl := range p.Retracements {
		if lvl.Ratio == 0.5 && lvl.Price != 75 {
			t.Fatalf("0.5 level: got %v", lvl.Price)
		}
		if lvl.Ratio == 1.618 && lvl.Price != 130.9 {
			t.Fatalf("1.618 level: got %v", lvl.Price)
		}
	}
	if len(p.FanLines) != len(FanRatios) {
		t.Fatalf("expected %d fan lines", len(FanRatios))
	}
	if p.FanLines[0].StartPrice != 50 || !p.FanLines[0].StartDate.Equal(base) {
		t.Fatalf("fan origin wrong: %+v", p.FanLines[0])
	}
}

func TestProjectionsFilteredByClock(t *testing.T) {
	base := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	peak := base.AddDate(0, 0, 92)
	prices := []models.PriceObservation{
		{Symbol: "X", Date: base, Price: 50},
		{Symbol: "X", Date: peak, Price: 100},
	}

	// With "now" right after the second anchor every projection survives.
	early := NewCalculator(domrepo.FixedClock{T: peak.AddDate(0, 0, 1)}, 6)
	set, ok := early.Calculate("X", "equities", prices, anchorsAround(base))
	if !ok {
		t.Fatalf("expected a level set")
	}
	all := len(RetracementRatios) * len(TimeRatios)
	if got := len(set.Pairs[0].Projections); got != all {
		t.Fatalf("expected %d projections, got %d", all, got)
	}
	// Floor semantics: 92*1.272 = 117.02 -> 117 days.
	for _, pr := range set.Pairs[0].Projections {
		if pr.TimeRatio == 1.272 && pr.DaysFromAnchor != 117 {
			t.Fatalf("expected floor(92*1.272)=117, got %d", pr.DaysFromAnchor)
		}
	}

	// With "now" past the 1.0-ratio horizon the 92-day projections drop out.
	late := NewCalculator(domrepo.FixedClock{T: peak.AddDate(0, 0, 93)}, 6)
	set, ok = late.Calculate("X", "equities", prices, anchorsAround(base))
	if !ok {
		t.Fatalf("expected a level set")
	}
	for _, pr := range set.Pairs[0].Projections {
		if pr.TimeRatio == 1.0 {
			t.Fatalf("stale projection survived: %+v", pr)
		}
	}
	if got := len(set.Pairs[0].Projections); got != all-len(RetracementRatios) {
		t.Fatalf("expected %d projections, got %d", all-len(RetracementRatios), got)
	}
}

func TestAnalysisWindowExcludesOldAnchors(t *testing.T) {
	now := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	c := NewCalculator(domrepo.FixedClock{T: now}, 6)
	old := now.AddDate(-8, 0, 0)
	recent := anchorsAround(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	anchors := append([]models.SeasonalAnchor{
		{Date: old, Type: "winter_solstice", Sign: "Capricorn", Kind: models.AnchorHigh},
	}, recent...)

	prices := []models.PriceObservation{
		{Symbol: "X", Date: old, Price: 11},
		{Symbol: "X", Date: recent[0].Date, Price: 50},
		{Symbol: "X", Date: recent[1].Date, Price: 100},
	}
	set, ok := c.Calculate("X", "equities", prices, anchors)
	if !ok {
		t.Fatalf("expected a level set")
	}
	if len(set.Anchors) != 2 {
		t.Fatalf("anchor outside the window leaked in: %d anchors", len(set.Anchors))
	}
}
