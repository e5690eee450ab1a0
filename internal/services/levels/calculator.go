package levels

import (
	"math"
	"sort"
	"strconv"
	"time"

	"AstroPull/internal/domain/models"
	domrepo "AstroPull/internal/domain/repository"
	domsvc "AstroPull/internal/domain/service"
	"AstroPull/pkg/util"
)

// Ratio tables. Ratios above 1.0 are extensions beyond the anchor range.
var (
	RetracementRatios = []float64{0.236, 0.382, 0.5, 0.618, 0.786, 1.0, 1.272, 1.618}
	FanRatios         = []float64{0.382, 0.5, 0.618}
	TimeRatios        = []float64{1.0, 1.272, 1.618, 2.618}
)

// probeOffsets is the day-offset order tried when an anchor date has no price
// row. The order is fixed and is not nearest-first.
var probeOffsets = []int{-3, -2, -1, 1, 2, 3}

// DefaultAnalysisYears bounds the trailing anchor window.
const DefaultAnalysisYears = 6

// Calculator derives per-symbol anchor level sets. The clock bounds the
// anchor window and filters time projections, so tests inject a fixed one.
type Calculator struct {
	clock domrepo.Clock
	years int
}

func NewCalculator(clock domrepo.Clock, analysisYears int) *Calculator {
	if analysisYears <= 0 {
		analysisYears = DefaultAnalysisYears
	}
	return &Calculator{clock: clock, years: analysisYears}
}

// Calculate resolves anchors against the symbol's price history and builds
// levels for each consecutive anchor pair. Returns false when fewer than two
// anchors resolve; the symbol is then excluded from level output.
func (c *Calculator) Calculate(symbol, category string, prices []models.PriceObservation, anchors []models.SeasonalAnchor) (*models.AnchorLevelSet, bool) {
	now := c.clock.Now()
	cutoff := now.AddDate(0, 0, -365*c.years)

	recent := make([]models.SeasonalAnchor, 0, len(anchors))
	for _, a := range anchors {
		if !a.Date.Before(cutoff) {
			recent = append(recent, a)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Date.Before(recent[j].Date) })

	byDay := indexByDay(prices)

	resolved := make([]models.ResolvedAnchor, 0, len(recent))
	for _, a := range recent {
		price, ok := resolvePrice(byDay, a)
		if !ok {
			continue
		}
		resolved = append(resolved, models.ResolvedAnchor{SeasonalAnchor: a, Price: price})
	}
	if len(resolved) < 2 {
		return nil, false
	}

	set := &models.AnchorLevelSet{
		Symbol:   symbol,
		Category: category,
		Anchors:  resolved,
	}
	for i := 0; i < len(resolved)-1; i++ {
		set.Pairs = append(set.Pairs, c.pairLevels(resolved[i], resolved[i+1], now))
	}
	return set, true
}

func indexByDay(prices []models.PriceObservation) map[string]models.PriceObservation {
	byDay := make(map[string]models.PriceObservation, len(prices))
	for _, p := range prices {
		k := util.DayUTC(p.Date).Format(util.DayFormat)
		if _, exists := byDay[k]; !exists {
			byDay[k] = p
		}
	}
	return byDay
}

// resolvePrice looks up the anchor day exactly, then probes the fixed offset
// order. Solstice anchors read the high field, equinox anchors the low, both
// falling back to the generic price when the field is absent or NaN.
func resolvePrice(byDay map[string]models.PriceObservation, a models.SeasonalAnchor) (float64, bool) {
	day := util.DayUTC(a.Date)
	row, ok := byDay[day.Format(util.DayFormat)]
	if !ok {
		for _, off := range probeOffsets {
			row, ok = byDay[day.AddDate(0, 0, off).Format(util.DayFormat)]
			if ok {
				break
			}
		}
	}
	if !ok {
		return 0, false
	}

	var field *float64
	if a.Kind == models.AnchorHigh {
		field = row.High
	} else {
		field = row.Low
	}
	price := row.Price
	if field != nil && !math.IsNaN(*field) {
		price = *field
	}
	if math.IsNaN(price) {
		return 0, false
	}
	return price, true
}

func (c *Calculator) pairLevels(from, to models.ResolvedAnchor, now time.Time) models.PairLevels {
	high := math.Max(from.Price, to.Price)
	low := math.Min(from.Price, to.Price)
	span := util.DaysBetween(from.Date, to.Date)

	pair := models.PairLevels{
		From:     from,
		To:       to,
		High:     high,
		Low:      low,
		Range:    high - low,
		SpanDays: span,
	}

	for _, r := range RetracementRatios {
		pair.Retracements = append(pair.Retracements, models.RetracementLevel{
			Ratio: r,
			Price: Retracement(high, low, r),
		})
	}

	if span > 0 {
		for _, r := range FanRatios {
			pair.FanLines = append(pair.FanLines, models.FanLine{
				Ratio:      r,
				Slope:      FanSlope(from.Price, to.Price, span, r),
				StartPrice: from.Price,
				StartDate:  from.Date,
			})
		}
		pair.Projections = projectTimes(pair, now)
	}

	return pair
}

// Retracement interpolates a level between low and high for ratios up to 1.0
// and extrapolates beyond the high for extension ratios.
func Retracement(high, low, ratio float64) float64 {
	diff := high - low
	if ratio <= 1.0 {
		return util.Round2(low + diff*ratio)
	}
	return util.Round2(high + diff*(ratio-1))
}

// FanSlope is the price change per day along a fan line.
func FanSlope(startPrice, endPrice float64, spanDays int, ratio float64) float64 {
	return (endPrice - startPrice) * ratio / float64(spanDays)
}

// projectTimes extends the anchor span forward by each time ratio for every
// retracement level, keeping only dates after the evaluation instant.
func projectTimes(pair models.PairLevels, now time.Time) []models.TimeProjection {
	var out []models.TimeProjection
	key := pair.Key()
	for _, lvl := range pair.Retracements {
		for _, tr := range TimeRatios {
			days := int(float64(pair.SpanDays) * tr)
			target := pair.To.Date.AddDate(0, 0, days)
			if !target.After(now) {
				continue
			}
			out = append(out, models.TimeProjection{
				Level:          strconv.FormatFloat(lvl.Ratio, 'f', 3, 64),
				TargetPrice:    lvl.Price,
				TimeRatio:      tr,
				DaysFromAnchor: days,
				TargetDate:     target,
				AnchorPair:     key,
			})
		}
	}
	return out
}

var _ domsvc.LevelCalculator = (*Calculator)(nil)
