package repository

import (
	"context"
	"time"

	"AstroPull/internal/domain/models"
)

// PositionProvider returns the full body set for one day. Implementations
// read precomputed daily positions; the engine never computes ephemerides.
type PositionProvider interface {
	Positions(ctx context.Context, date time.Time) (map[models.Body]models.CelestialPosition, error)
}

// PriceStore reads per-category price history.
type PriceStore interface {
	// Symbols lists distinct symbols for a category.
	Symbols(ctx context.Context, category Category) ([]string, error)
	// History returns all price rows for a symbol, ascending by date.
	History(ctx context.Context, category Category, symbol string) ([]models.PriceObservation, error)
}

// AnchorStore reads the seasonal anchor table.
type AnchorStore interface {
	AnchorsSince(ctx context.Context, from time.Time) ([]models.SeasonalAnchor, error)
}

// EventStore persists and reads the five event streams.
type EventStore interface {
	ReplaceLog(ctx context.Context, log *models.EventLog) error
	// Load returns the full stored log. Missing individual streams are
	// returned empty, not as errors; scorers degrade to neutral defaults.
	Load(ctx context.Context) (*models.EventLog, error)
}

// ScoreStore persists score records per run.
type ScoreStore interface {
	StoreRun(ctx context.Context, runDate time.Time, records []models.ConfidenceScoreRecord) error
	LatestRun(ctx context.Context) (time.Time, []models.ConfidenceScoreRecord, error)
}

// Publisher emits run output to downstream consumers after a run completes.
type Publisher interface {
	PublishScores(ctx context.Context, runDate time.Time, records []models.ConfidenceScoreRecord) error
	PublishEvents(ctx context.Context, log *models.EventLog) error
	Close() error
}

// Metrics records pipeline and API measurements.
type Metrics interface {
	RecordEventsGenerated(stream string, n int)
	RecordSymbolScored(category string, rating string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

// Clock isolates wall-clock reads so time-dependent output (projection
// filtering, run stamping) is reproducible in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }
