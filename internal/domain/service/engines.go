package service

import (
	"context"
	"time"

	"AstroPull/internal/domain/models"
)

// EventGenerator folds daily positions into the five event streams.
type EventGenerator interface {
	Generate(ctx context.Context, from, to time.Time) (*models.EventLog, error)
}

// LevelCalculator derives per-symbol anchor level sets from price history and
// seasonal anchors.
type LevelCalculator interface {
	Calculate(symbol, category string, prices []models.PriceObservation, anchors []models.SeasonalAnchor) (*models.AnchorLevelSet, bool)
}

// SectorClassifier resolves a symbol and category to a sector profile. The
// second return is false when no sector applies; scorers then fall back to
// their neutral defaults.
type SectorClassifier interface {
	Classify(symbol, category string) (*models.SectorProfile, bool)
}

// ConfidenceScorer computes the composite score for one symbol on one date.
type ConfidenceScorer interface {
	Score(symbol, category string, date time.Time) models.ConfidenceScoreRecord
}
