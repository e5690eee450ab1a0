package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"AstroPull/internal/domain/models"
	pkgch "AstroPull/pkg/clickhouse"
	applogger "AstroPull/pkg/logger"
	"AstroPull/pkg/util"
)

// CHPositionStore implements PositionProvider backed by ClickHouse. The
// daily_positions table is loaded out of band from a precomputed ephemeris
// dump; this store only ever reads it.
type CHPositionStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHPositionStore(ch *pkgch.Client, table string) *CHPositionStore {
	if table == "" {
		table = "astropull.daily_positions"
	}
	return &CHPositionStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHPositionStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPositionStore) Positions(ctx context.Context, date time.Time) (map[models.Body]models.CelestialPosition, error) {
	start := time.Now()
	day := util.DayUTC(date)
	const qtpl = `
        SELECT body, longitude, speed
        FROM %s
        WHERE date = ?
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, day)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse positions query error",
				applogger.String("table", s.table),
				applogger.String("date", day.Format(util.DayFormat)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get positions: %w", err)
	}
	defer rows.Close()

	out := make(map[models.Body]models.CelestialPosition, len(models.PrimaryBodies)+len(models.OuterBodies))
	for rows.Next() {
		var body string
		var lon, speed float64
		if err := rows.Scan(&body, &lon, &speed); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse positions scan error",
					applogger.String("table", s.table),
					applogger.String("date", day.Format(util.DayFormat)),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan position: %w", err)
		}
		b := models.Body(body)
		out[b] = models.NewCelestialPosition(b, lon, speed)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse positions rows error",
				applogger.String("table", s.table),
				applogger.String("date", day.Format(util.DayFormat)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no positions for %s", day.Format(util.DayFormat))
	}
	if s.l != nil {
		s.l.Debug("clickhouse positions ok",
			applogger.String("date", day.Format(util.DayFormat)),
			applogger.Int("bodies", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}
