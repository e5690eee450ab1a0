package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"AstroPull/internal/domain/models"
	domrepo "AstroPull/internal/domain/repository"
	pkgch "AstroPull/pkg/clickhouse"
	applogger "AstroPull/pkg/logger"
)

// CHPriceStore implements PriceStore backed by ClickHouse. The price_history
// table is ingested from heterogeneous source files, so the close column is
// already normalized at ingest and high/low stay Nullable for categories
// that only publish a single daily value.
type CHPriceStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHPriceStore(ch *pkgch.Client) *CHPriceStore {
	return &CHPriceStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHPriceStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPriceStore) Symbols(ctx context.Context, category domrepo.Category) ([]string, error) {
	start := time.Now()
	const q = `
        SELECT DISTINCT symbol
        FROM astropull.price_history
        WHERE category = ?
        ORDER BY symbol ASC
    `
	rows, err := s.db.QueryContext(ctx, q, string(category))
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse symbols query error",
				applogger.String("category", string(category)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get symbols: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, 64)
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse symbols ok",
			applogger.String("category", string(category)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHPriceStore) History(ctx context.Context, category domrepo.Category, symbol string) ([]models.PriceObservation, error) {
	start := time.Now()
	const q = `
        SELECT date, close, high, low
        FROM astropull.price_history
        WHERE category = ? AND symbol = ?
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, q, string(category), symbol)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse price_history query error",
				applogger.String("category", string(category)),
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get price history: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceObservation, 0, 1024)
	for rows.Next() {
		var obs models.PriceObservation
		var high, low sql.NullFloat64
		if err := rows.Scan(&obs.Date, &obs.Price, &high, &low); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse price_history scan error",
					applogger.String("category", string(category)),
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		obs.Symbol = symbol
		if high.Valid {
			v := high.Float64
			obs.High = &v
		}
		if low.Valid {
			v := low.Float64
			obs.Low = &v
		}
		out = append(out, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse price_history ok",
			applogger.String("category", string(category)),
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}
