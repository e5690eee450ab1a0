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

// CHScoreStore persists confidence score records per run. Runs append; the
// latest run date marks the active scoreboard.
type CHScoreStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHScoreStore(ch *pkgch.Client) *CHScoreStore {
	return &CHScoreStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHScoreStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHScoreStore) StoreRun(ctx context.Context, runDate time.Time, records []models.ConfidenceScoreRecord) error {
	start := time.Now()
	runDay := util.DayUTC(runDate)

	const q = `
        INSERT INTO astropull.confidence_scores
            (run_date, symbol, category, sector, date, total_score, base_score, rating,
             ingress_period, planetary_aspects, lunar_phase, cycle_bonus, is_featured)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	for _, rec := range records {
		if _, err := s.db.ExecContext(ctx, q,
			runDay, rec.Symbol, rec.Category, rec.Sector, rec.Date,
			rec.TotalScore, rec.BaseScore, string(rec.Rating),
			rec.Components.IngressPeriod, rec.Components.PlanetaryAspects,
			rec.Components.LunarPhase, rec.Components.CycleBonus,
			boolUint8(rec.IsFeatured),
		); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse score insert error",
					applogger.String("symbol", rec.Symbol),
					applogger.String("run_date", runDay.Format(util.DayFormat)),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("insert score: %w", err)
		}
	}

	if s.l != nil {
		s.l.Info("clickhouse scores stored",
			applogger.String("run_date", runDay.Format(util.DayFormat)),
			applogger.Int("rows", len(records)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHScoreStore) LatestRun(ctx context.Context) (time.Time, []models.ConfidenceScoreRecord, error) {
	var runDay time.Time
	err := s.db.QueryRowContext(ctx, `SELECT max(run_date) FROM astropull.confidence_scores`).Scan(&runDay)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, nil, nil
		}
		return time.Time{}, nil, fmt.Errorf("latest run date: %w", err)
	}
	if runDay.IsZero() {
		return time.Time{}, nil, nil
	}

	const q = `
        SELECT symbol, category, sector, date, total_score, base_score, rating,
               ingress_period, planetary_aspects, lunar_phase, cycle_bonus, is_featured
        FROM astropull.confidence_scores
        WHERE run_date = ?
        ORDER BY total_score DESC, symbol ASC
    `
	rows, err := s.db.QueryContext(ctx, q, runDay)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_run query error",
				applogger.String("run_date", runDay.Format(util.DayFormat)),
				applogger.Error(err),
			)
		}
		return time.Time{}, nil, fmt.Errorf("get latest run: %w", err)
	}
	defer rows.Close()

	out := make([]models.ConfidenceScoreRecord, 0, 256)
	for rows.Next() {
		var rec models.ConfidenceScoreRecord
		var rating string
		var featured uint8
		if err := rows.Scan(&rec.Symbol, &rec.Category, &rec.Sector, &rec.Date,
			&rec.TotalScore, &rec.BaseScore, &rating,
			&rec.Components.IngressPeriod, &rec.Components.PlanetaryAspects,
			&rec.Components.LunarPhase, &rec.Components.CycleBonus, &featured); err != nil {
			return time.Time{}, nil, fmt.Errorf("scan score: %w", err)
		}
		rec.Rating = models.Rating(rating)
		rec.IsFeatured = featured != 0
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return time.Time{}, nil, fmt.Errorf("rows: %w", err)
	}
	return runDay, out, nil
}
