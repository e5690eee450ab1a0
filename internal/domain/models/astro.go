package models

import "math"

// Body identifies a celestial body, chart point, or chart angle.
type Body string

const (
	Sun     Body = "Sun"
	Moon    Body = "Moon"
	Mercury Body = "Mercury"
	Venus   Body = "Venus"
	Mars    Body = "Mars"
	Jupiter Body = "Jupiter"
	Saturn  Body = "Saturn"

	Uranus  Body = "Uranus"
	Neptune Body = "Neptune"
	Pluto   Body = "Pluto"

	NorthNode Body = "North_Node"
	SouthNode Body = "South_Node"
	Chiron    Body = "Chiron"
	Lilith    Body = "Lilith"

	MC   Body = "MC"
	IC   Body = "IC"
	ASC  Body = "ASC"
	DESC Body = "DESC"
)

// PrimaryBodies in declaration order. The order matters: retrograde detection
// skips the first two entries (Sun and Moon never station).
var PrimaryBodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn}

// OuterBodies participate only in bonus-tier scoring.
var OuterBodies = []Body{Uranus, Neptune, Pluto}

// ChartPoints and ChartAngles round out the position set a provider must cover.
var (
	ChartPoints = []Body{NorthNode, SouthNode, Chiron, Lilith}
	ChartAngles = []Body{MC, IC, ASC, DESC}
)

// influenceWeights holds the fixed bonus influence per non-primary body.
var influenceWeights = map[Body]float64{
	Uranus:  90,
	Neptune: 85,
	Pluto:   95,

	NorthNode: 50,
	SouthNode: 45,
	Chiron:    35,
	Lilith:    30,

	MC:   65,
	IC:   60,
	ASC:  40,
	DESC: 40,
}

// InfluenceWeight returns the bonus influence weight for a body, or 0 for
// primary bodies.
func InfluenceWeight(b Body) float64 {
	return influenceWeights[b]
}

// Element groups zodiac signs by classical element.
type Element string

const (
	Fire  Element = "fire"
	Earth Element = "earth"
	Air   Element = "air"
	Water Element = "water"
)

// ZodiacSign is one 30-degree segment of the ecliptic with its rulership.
type ZodiacSign struct {
	Name     string
	Ruler    Body
	Element  Element
	Modality string
}

// ZodiacSigns in ecliptic order starting at 0 Aries.
var ZodiacSigns = [12]ZodiacSign{
	{Name: "Aries", Ruler: Mars, Element: Fire, Modality: "cardinal"},
	{Name: "Taurus", Ruler: Venus, Element: Earth, Modality: "fixed"},
	{Name: "Gemini", Ruler: Mercury, Element: Air, Modality: "mutable"},
	{Name: "Cancer", Ruler: Moon, Element: Water, Modality: "cardinal"},
	{Name: "Leo", Ruler: Sun, Element: Fire, Modality: "fixed"},
	{Name: "Virgo", Ruler: Mercury, Element: Earth, Modality: "mutable"},
	{Name: "Libra", Ruler: Venus, Element: Air, Modality: "cardinal"},
	{Name: "Scorpio", Ruler: Mars, Element: Water, Modality: "fixed"},
	{Name: "Sagittarius", Ruler: Jupiter, Element: Fire, Modality: "mutable"},
	{Name: "Capricorn", Ruler: Saturn, Element: Earth, Modality: "cardinal"},
	{Name: "Aquarius", Ruler: Saturn, Element: Air, Modality: "fixed"},
	{Name: "Pisces", Ruler: Jupiter, Element: Water, Modality: "mutable"},
}

// SignAt maps an ecliptic longitude to its zodiac sign. Periodic in 360.
func SignAt(longitude float64) ZodiacSign {
	idx := int(math.Floor(longitude/30)) % 12
	if idx < 0 {
		idx += 12
	}
	return ZodiacSigns[idx]
}

// NormalizeAngle folds an angle into [0, 360).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// StationarySpeed is the |speed| threshold below which a body counts as
// stationary.
const StationarySpeed = 0.01

// CelestialPosition is one body's state on one day.
type CelestialPosition struct {
	Body            Body
	Longitude       float64 // degrees, [0,360)
	Speed           float64 // degrees per day, signed
	Retrograde      bool
	Stationary      bool
	InfluenceWeight float64
}

// NewCelestialPosition derives the retrograde and stationary flags from the
// signed daily speed.
func NewCelestialPosition(body Body, longitude, speed float64) CelestialPosition {
	return CelestialPosition{
		Body:            body,
		Longitude:       NormalizeAngle(longitude),
		Speed:           speed,
		Retrograde:      speed < 0,
		Stationary:      math.Abs(speed) < StationarySpeed,
		InfluenceWeight: InfluenceWeight(body),
	}
}

// Sign returns the zodiac sign the position falls in.
func (p CelestialPosition) Sign() ZodiacSign {
	return SignAt(p.Longitude)
}
