package models

import "time"

// AnchorKind selects which price field a seasonal anchor resolves against.
type AnchorKind string

const (
	AnchorHigh AnchorKind = "high" // solstices
	AnchorLow  AnchorKind = "low"  // equinoxes
)

// SeasonalAnchor is one solstice or equinox date. Exactly four exist per
// calendar year.
type SeasonalAnchor struct {
	Date time.Time
	Type string // vernal_equinox, summer_solstice, autumn_equinox, winter_solstice
	Sign string
	Kind AnchorKind
}

// PriceObservation is one symbol's price row for one day. High and Low are
// nil when the source category does not carry them.
type PriceObservation struct {
	Symbol string
	Date   time.Time
	Price  float64
	High   *float64
	Low    *float64
}

// ResolvedAnchor is a seasonal anchor with its price resolved for a symbol.
type ResolvedAnchor struct {
	SeasonalAnchor
	Price float64
}

// RetracementLevel is one ratio's interpolated (or extrapolated) price.
type RetracementLevel struct {
	Ratio float64
	Price float64
}

// FanLine is a speed-resistance line anchored at the first anchor of a pair.
type FanLine struct {
	Ratio      float64
	Slope      float64 // price units per day
	StartPrice float64
	StartDate  time.Time
}

// TimeProjection projects a retracement level forward by a time ratio of the
// anchor span. Only projections landing after the evaluation instant are kept.
type TimeProjection struct {
	Level          string // ratio formatted to three decimals
	TargetPrice    float64
	TimeRatio      float64
	DaysFromAnchor int
	TargetDate     time.Time
	AnchorPair     string
}

// PairLevels holds everything derived from one consecutive anchor pair.
type PairLevels struct {
	From         ResolvedAnchor
	To           ResolvedAnchor
	High         float64
	Low          float64
	Range        float64
	SpanDays     int
	Retracements []RetracementLevel
	FanLines     []FanLine
	Projections  []TimeProjection
}

// Key identifies the anchor pair in flattened output.
func (p PairLevels) Key() string {
	return p.From.Date.Format("2006-01-02") + "_to_" + p.To.Date.Format("2006-01-02")
}

// AnchorLevelSet is the per-symbol level output. Symbols with fewer than two
// resolved anchors never produce one.
type AnchorLevelSet struct {
	Symbol   string
	Category string
	Anchors  []ResolvedAnchor
	Pairs    []PairLevels
}
