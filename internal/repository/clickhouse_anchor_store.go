package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"AstroPull/internal/domain/models"
	pkgch "AstroPull/pkg/clickhouse"
	applogger "AstroPull/pkg/logger"
	"AstroPull/pkg/util"
)

// CHAnchorStore implements AnchorStore backed by ClickHouse.
type CHAnchorStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHAnchorStore(ch *pkgch.Client) *CHAnchorStore {
	return &CHAnchorStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHAnchorStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHAnchorStore) AnchorsSince(ctx context.Context, from time.Time) ([]models.SeasonalAnchor, error) {
	start := time.Now()
	const q = `
        SELECT date, type, sign
        FROM astropull.seasonal_anchors
        WHERE date >= ?
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, q, util.DayUTC(from))
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse anchors query error",
				applogger.String("from", from.Format(util.DayFormat)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get anchors: %w", err)
	}
	defer rows.Close()

	out := make([]models.SeasonalAnchor, 0, 32)
	for rows.Next() {
		var a models.SeasonalAnchor
		if err := rows.Scan(&a.Date, &a.Type, &a.Sign); err != nil {
			return nil, fmt.Errorf("scan anchor: %w", err)
		}
		a.Kind = anchorKindFor(a.Type)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse anchors ok",
			applogger.String("from", from.Format(util.DayFormat)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// anchorKindFor maps solstices to highs and equinoxes to lows.
func anchorKindFor(anchorType string) models.AnchorKind {
	if strings.Contains(anchorType, "solstice") {
		return models.AnchorHigh
	}
	return models.AnchorLow
}
