package models

import "time"

// AspectType names an angular relationship between two bodies.
type AspectType string

const (
	Conjunction AspectType = "conjunction"
	Sextile     AspectType = "sextile"
	Square      AspectType = "square"
	Trine       AspectType = "trine"
	Opposition  AspectType = "opposition"
)

// AspectNature classifies an aspect's quality.
type AspectNature string

const (
	Neutral    AspectNature = "neutral"
	Harmonious AspectNature = "harmonious"
	Harsh      AspectNature = "harsh"
)

// Tier separates primary scoring events from bonus-only events.
type Tier string

const (
	TierPrimary Tier = "primary"
	TierBonus   Tier = "bonus"
)

// AspectDef is one row of the aspect rule table.
type AspectDef struct {
	Type    AspectType
	Degrees float64
	Orb     float64
	Nature  AspectNature
}

// AspectDefs is the ordered aspect rule table. Evaluated top to bottom,
// first match wins.
var AspectDefs = []AspectDef{
	{Type: Conjunction, Degrees: 0, Orb: 8, Nature: Neutral},
	{Type: Sextile, Degrees: 60, Orb: 4, Nature: Harmonious},
	{Type: Square, Degrees: 90, Orb: 6, Nature: Harsh},
	{Type: Trine, Degrees: 120, Orb: 6, Nature: Harmonious},
	{Type: Opposition, Degrees: 180, Orb: 6, Nature: Harsh},
}

// ExactOrb is the orb below which an aspect counts as exact.
const ExactOrb = 1.0

// AspectEvent records an active aspect between two bodies on one day.
type AspectEvent struct {
	Date            time.Time
	Body1           Body
	Body2           Body
	Type            AspectType
	Nature          AspectNature
	Orb             float64
	Exact           bool
	Body1Sign       string
	Body2Sign       string
	Tier            Tier
	InfluenceWeight float64 // set on bonus-tier events only
}

// IngressEvent records a primary body crossing into a new sign.
type IngressEvent struct {
	Date     time.Time
	Body     Body
	Sign     string
	FromSign string
	Ruler    Body
	Element  Element
}

// RetrogradeStatus marks the direction of a retrograde transition.
type RetrogradeStatus string

const (
	RetrogradeStarts RetrogradeStatus = "starts"
	RetrogradeEnds   RetrogradeStatus = "ends"
)

// RetrogradeEvent records a retrograde-state flip for a body.
type RetrogradeEvent struct {
	Date            time.Time
	Body            Body
	Status          RetrogradeStatus
	Sign            string
	Stationary      bool
	Tier            Tier
	BonusEligible   bool
	InfluenceWeight float64
}

// LunarPhase is one of the eight phase buckets.
type LunarPhase string

const (
	PhaseNew            LunarPhase = "new"
	PhaseWaxingCrescent LunarPhase = "waxing_crescent"
	PhaseFirstQuarter   LunarPhase = "first_quarter"
	PhaseWaxingGibbous  LunarPhase = "waxing_gibbous"
	PhaseFull           LunarPhase = "full"
	PhaseWaningGibbous  LunarPhase = "waning_gibbous"
	PhaseLastQuarter    LunarPhase = "last_quarter"
	PhaseWaningCrescent LunarPhase = "waning_crescent"
)

// LunarPhaseRecord is the Moon's phase on one day.
type LunarPhaseRecord struct {
	Date         time.Time
	Phase        LunarPhase
	Illumination float64 // percent
	Sign         string
	Ruler        Body
}

// NodalPhaseDef is one row of the nodal cycle key-phase table.
type NodalPhaseDef struct {
	Degrees     float64
	Name        string
	Description string
	Orb         float64
}

// NodalCyclePeriodDays is the length of the long nodal cycle.
const NodalCyclePeriodDays = 6793.5

// NodalPhaseDefs is the ordered key-phase table for the nodal cycle.
// Matching takes the first row within orb, not the closest one; near the
// 359->0 wraparound this can pick a less precise row, which is the
// documented behavior.
var NodalPhaseDefs = []NodalPhaseDef{
	{Degrees: 0, Name: "start", Description: "Ascending Node - Cycle initiation", Orb: 2},
	{Degrees: 90, Name: "first_quadrature", Description: "Interim volatility pivot", Orb: 2},
	{Degrees: 137, Name: "fibonacci_38", Description: "Minor reaction / harmonic pivot", Orb: 3},
	{Degrees: 180, Name: "opposition", Description: "Major volatility / turning point", Orb: 1},
	{Degrees: 223, Name: "fibonacci_61", Description: "Secondary reaction pivot", Orb: 3},
	{Degrees: 270, Name: "second_quadrature", Description: "Intermediate volatility peak", Orb: 2},
	{Degrees: 360, Name: "completion", Description: "Cycle reset / secular trend pivot", Orb: 1},
}

// NodalCyclePhaseRecord is a day that fell within orb of a key phase.
type NodalCyclePhaseRecord struct {
	Date             time.Time
	CyclePosition    float64 // degrees, [0,360)
	NodeLongitude    float64
	Phase            string
	Description      string
	Orb              float64
	BonusEligible    bool
	CycleDaysElapsed int
}

// EventLog bundles the five append-only event streams for one run range.
type EventLog struct {
	Aspects     []AspectEvent
	Ingresses   []IngressEvent
	Retrogrades []RetrogradeEvent
	LunarPhases []LunarPhaseRecord
	NodalPhases []NodalCyclePhaseRecord
}
