package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"AstroPull/internal/domain/models"
	pkgch "AstroPull/pkg/clickhouse"
	applogger "AstroPull/pkg/logger"
)

// CHEventStore persists the five event streams in ClickHouse. Each run
// replaces the full streams; the tables are truncated and reinserted so a
// run is always a consistent snapshot.
type CHEventStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHEventStore(ch *pkgch.Client) *CHEventStore {
	return &CHEventStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHEventStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHEventStore) ReplaceLog(ctx context.Context, log *models.EventLog) error {
	start := time.Now()

	if err := s.replaceAspects(ctx, log.Aspects); err != nil {
		return err
	}
	if err := s.replaceIngresses(ctx, log.Ingresses); err != nil {
		return err
	}
	if err := s.replaceRetrogrades(ctx, log.Retrogrades); err != nil {
		return err
	}
	if err := s.replaceLunarPhases(ctx, log.LunarPhases); err != nil {
		return err
	}
	if err := s.replaceNodalPhases(ctx, log.NodalPhases); err != nil {
		return err
	}

	if s.l != nil {
		s.l.Info("clickhouse event log replaced",
			applogger.Int("aspects", len(log.Aspects)),
			applogger.Int("ingresses", len(log.Ingresses)),
			applogger.Int("retrogrades", len(log.Retrogrades)),
			applogger.Int("lunar_phases", len(log.LunarPhases)),
			applogger.Int("nodal_phases", len(log.NodalPhases)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// Load reads all five streams. A stream whose table is missing or empty
// comes back as an empty slice, never an error; downstream scorers fall
// back to their neutral defaults.
func (s *CHEventStore) Load(ctx context.Context) (*models.EventLog, error) {
	log := &models.EventLog{}

	aspects, err := s.loadAspects(ctx)
	if err == nil {
		log.Aspects = aspects
	} else {
		s.warnStream("aspects", err)
	}
	ingresses, err := s.loadIngresses(ctx)
	if err == nil {
		log.Ingresses = ingresses
	} else {
		s.warnStream("ingresses", err)
	}
	retro, err := s.loadRetrogrades(ctx)
	if err == nil {
		log.Retrogrades = retro
	} else {
		s.warnStream("retrogrades", err)
	}
	lunar, err := s.loadLunarPhases(ctx)
	if err == nil {
		log.LunarPhases = lunar
	} else {
		s.warnStream("lunar_phases", err)
	}
	nodal, err := s.loadNodalPhases(ctx)
	if err == nil {
		log.NodalPhases = nodal
	} else {
		s.warnStream("nodal_phases", err)
	}

	return log, nil
}

func (s *CHEventStore) warnStream(stream string, err error) {
	if s.l != nil {
		s.l.Warn("clickhouse event stream unavailable, treating as empty",
			applogger.String("stream", stream),
			applogger.Error(err),
		)
	}
}

func (s *CHEventStore) replaceAspects(ctx context.Context, events []models.AspectEvent) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE TABLE IF EXISTS astropull.astro_aspects`); err != nil {
		return fmt.Errorf("truncate aspects: %w", err)
	}
	const q = `
        INSERT INTO astropull.astro_aspects
            (date, body1, body2, type, nature, orb, exact, body1_sign, body2_sign, tier, influence_weight)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	for _, ev := range events {
		if _, err := s.db.ExecContext(ctx, q,
			ev.Date, string(ev.Body1), string(ev.Body2), string(ev.Type), string(ev.Nature),
			ev.Orb, boolUint8(ev.Exact), ev.Body1Sign, ev.Body2Sign, string(ev.Tier), ev.InfluenceWeight,
		); err != nil {
			return fmt.Errorf("insert aspect: %w", err)
		}
	}
	return nil
}

func (s *CHEventStore) loadAspects(ctx context.Context) ([]models.AspectEvent, error) {
	const q = `
        SELECT date, body1, body2, type, nature, orb, exact, body1_sign, body2_sign, tier, influence_weight
        FROM astropull.astro_aspects
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get aspects: %w", err)
	}
	defer rows.Close()

	out := make([]models.AspectEvent, 0, 1024)
	for rows.Next() {
		var ev models.AspectEvent
		var body1, body2, atype, nature, tier string
		var exact uint8
		if err := rows.Scan(&ev.Date, &body1, &body2, &atype, &nature,
			&ev.Orb, &exact, &ev.Body1Sign, &ev.Body2Sign, &tier, &ev.InfluenceWeight); err != nil {
			return nil, fmt.Errorf("scan aspect: %w", err)
		}
		ev.Body1 = models.Body(body1)
		ev.Body2 = models.Body(body2)
		ev.Type = models.AspectType(atype)
		ev.Nature = models.AspectNature(nature)
		ev.Exact = exact != 0
		ev.Tier = models.Tier(tier)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *CHEventStore) replaceIngresses(ctx context.Context, events []models.IngressEvent) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE TABLE IF EXISTS astropull.astro_ingresses`); err != nil {
		return fmt.Errorf("truncate ingresses: %w", err)
	}
	const q = `
        INSERT INTO astropull.astro_ingresses
            (date, body, sign, from_sign, ruler, element)
        VALUES (?, ?, ?, ?, ?, ?)
    `
	for _, ev := range events {
		if _, err := s.db.ExecContext(ctx, q,
			ev.Date, string(ev.Body), ev.Sign, ev.FromSign, string(ev.Ruler), string(ev.Element),
		); err != nil {
			return fmt.Errorf("insert ingress: %w", err)
		}
	}
	return nil
}

func (s *CHEventStore) loadIngresses(ctx context.Context) ([]models.IngressEvent, error) {
	const q = `
        SELECT date, body, sign, from_sign, ruler, element
        FROM astropull.astro_ingresses
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get ingresses: %w", err)
	}
	defer rows.Close()

	out := make([]models.IngressEvent, 0, 64)
	for rows.Next() {
		var ev models.IngressEvent
		var body, ruler, element string
		if err := rows.Scan(&ev.Date, &body, &ev.Sign, &ev.FromSign, &ruler, &element); err != nil {
			return nil, fmt.Errorf("scan ingress: %w", err)
		}
		ev.Body = models.Body(body)
		ev.Ruler = models.Body(ruler)
		ev.Element = models.Element(element)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *CHEventStore) replaceRetrogrades(ctx context.Context, events []models.RetrogradeEvent) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE TABLE IF EXISTS astropull.astro_retrogrades`); err != nil {
		return fmt.Errorf("truncate retrogrades: %w", err)
	}
	const q = `
        INSERT INTO astropull.astro_retrogrades
            (date, body, status, sign, stationary, tier, bonus_eligible, influence_weight)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	for _, ev := range events {
		if _, err := s.db.ExecContext(ctx, q,
			ev.Date, string(ev.Body), string(ev.Status), ev.Sign,
			boolUint8(ev.Stationary), string(ev.Tier), boolUint8(ev.BonusEligible), ev.InfluenceWeight,
		); err != nil {
			return fmt.Errorf("insert retrograde: %w", err)
		}
	}
	return nil
}

func (s *CHEventStore) loadRetrogrades(ctx context.Context) ([]models.RetrogradeEvent, error) {
	const q = `
        SELECT date, body, status, sign, stationary, tier, bonus_eligible, influence_weight
        FROM astropull.astro_retrogrades
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get retrogrades: %w", err)
	}
	defer rows.Close()

	out := make([]models.RetrogradeEvent, 0, 64)
	for rows.Next() {
		var ev models.RetrogradeEvent
		var body, status, tier string
		var stationary, bonus uint8
		if err := rows.Scan(&ev.Date, &body, &status, &ev.Sign, &stationary, &tier, &bonus, &ev.InfluenceWeight); err != nil {
			return nil, fmt.Errorf("scan retrograde: %w", err)
		}
		ev.Body = models.Body(body)
		ev.Status = models.RetrogradeStatus(status)
		ev.Stationary = stationary != 0
		ev.Tier = models.Tier(tier)
		ev.BonusEligible = bonus != 0
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *CHEventStore) replaceLunarPhases(ctx context.Context, records []models.LunarPhaseRecord) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE TABLE IF EXISTS astropull.astro_lunar_phases`); err != nil {
		return fmt.Errorf("truncate lunar phases: %w", err)
	}
	const q = `
        INSERT INTO astropull.astro_lunar_phases
            (date, phase, illumination, sign, ruler)
        VALUES (?, ?, ?, ?, ?)
    `
	for _, rec := range records {
		if _, err := s.db.ExecContext(ctx, q,
			rec.Date, string(rec.Phase), rec.Illumination, rec.Sign, string(rec.Ruler),
		); err != nil {
			return fmt.Errorf("insert lunar phase: %w", err)
		}
	}
	return nil
}

func (s *CHEventStore) loadLunarPhases(ctx context.Context) ([]models.LunarPhaseRecord, error) {
	const q = `
        SELECT date, phase, illumination, sign, ruler
        FROM astropull.astro_lunar_phases
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get lunar phases: %w", err)
	}
	defer rows.Close()

	out := make([]models.LunarPhaseRecord, 0, 1024)
	for rows.Next() {
		var rec models.LunarPhaseRecord
		var phase, ruler string
		if err := rows.Scan(&rec.Date, &phase, &rec.Illumination, &rec.Sign, &ruler); err != nil {
			return nil, fmt.Errorf("scan lunar phase: %w", err)
		}
		rec.Phase = models.LunarPhase(phase)
		rec.Ruler = models.Body(ruler)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *CHEventStore) replaceNodalPhases(ctx context.Context, records []models.NodalCyclePhaseRecord) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE TABLE IF EXISTS astropull.astro_nodal_phases`); err != nil {
		return fmt.Errorf("truncate nodal phases: %w", err)
	}
	const q = `
        INSERT INTO astropull.astro_nodal_phases
            (date, cycle_position, node_longitude, phase, description, orb, bonus_eligible, cycle_days_elapsed)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	for _, rec := range records {
		if _, err := s.db.ExecContext(ctx, q,
			rec.Date, rec.CyclePosition, rec.NodeLongitude, rec.Phase, rec.Description,
			rec.Orb, boolUint8(rec.BonusEligible), rec.CycleDaysElapsed,
		); err != nil {
			return fmt.Errorf("insert nodal phase: %w", err)
		}
	}
	return nil
}

func (s *CHEventStore) loadNodalPhases(ctx context.Context) ([]models.NodalCyclePhaseRecord, error) {
	const q = `
        SELECT date, cycle_position, node_longitude, phase, description, orb, bonus_eligible, cycle_days_elapsed
        FROM astropull.astro_nodal_phases
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get nodal phases: %w", err)
	}
	defer rows.Close()

	out := make([]models.NodalCyclePhaseRecord, 0, 64)
	for rows.Next() {
		var rec models.NodalCyclePhaseRecord
		var bonus uint8
		if err := rows.Scan(&rec.Date, &rec.CyclePosition, &rec.NodeLongitude, &rec.Phase,
			&rec.Description, &rec.Orb, &bonus, &rec.CycleDaysElapsed); err != nil {
			return nil, fmt.Errorf("scan nodal phase: %w", err)
		}
		rec.BonusEligible = bonus != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

func boolUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
