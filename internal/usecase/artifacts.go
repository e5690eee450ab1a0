package usecase

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"AstroPull/internal/domain/models"
	applogger "AstroPull/pkg/logger"
	"AstroPull/pkg/util"
)

const stampFormat = "20060102"

// ArtifactWriter dumps run output as date-stamped JSON and CSV files so runs
// are inspectable without a database client.
type ArtifactWriter struct {
	dir string
	l   *applogger.Logger
}

func NewArtifactWriter(dir string) *ArtifactWriter {
	return &ArtifactWriter{dir: dir}
}

// SetLogger injects a structured logger.
func (w *ArtifactWriter) SetLogger(l *applogger.Logger) { w.l = l }

// WriteRun writes all artifacts for one completed run.
func (w *ArtifactWriter) WriteRun(runDate time.Time, records []models.ConfidenceScoreRecord, log *models.EventLog, levels map[string]*models.AnchorLevelSet) error {
	if w.dir == "" {
		return nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	stamp := runDate.Format(stampFormat)

	if err := w.writeJSON("confidence_scores_"+stamp+".json", records); err != nil {
		return err
	}
	featured := make([]models.ConfidenceScoreRecord, 0, 16)
	for _, r := range records {
		if r.IsFeatured {
			featured = append(featured, r)
		}
	}
	if err := w.writeJSON("featured_symbols_"+stamp+".json", featured); err != nil {
		return err
	}
	if err := w.writeScoresCSV("confidence_scores_"+stamp+".csv", records); err != nil {
		return err
	}
	if err := w.writeLevelsCSV("fibonacci_levels_"+stamp+".csv", levels); err != nil {
		return err
	}
	if err := w.writeEventsCSV("astro_events_"+stamp+".csv", log); err != nil {
		return err
	}

	if w.l != nil {
		w.l.Info("run artifacts written",
			applogger.String("dir", w.dir),
			applogger.String("stamp", stamp),
			applogger.Int("scores", len(records)),
			applogger.Int("featured", len(featured)),
		)
	}
	return nil
}

func (w *ArtifactWriter) writeJSON(name string, v interface{}) error {
	f, err := os.Create(filepath.Join(w.dir, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return nil
}

func (w *ArtifactWriter) writeScoresCSV(name string, records []models.ConfidenceScoreRecord) error {
	f, err := os.Create(filepath.Join(w.dir, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{"symbol", "category", "sector", "date", "total_score", "base_score", "rating",
		"ingress_period", "planetary_aspects", "lunar_phase", "cycle_bonus", "is_featured"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Symbol, r.Category, r.Sector, r.Date.Format(util.DayFormat),
			formatScore(r.TotalScore), formatScore(r.BaseScore), string(r.Rating),
			formatScore(r.Components.IngressPeriod), formatScore(r.Components.PlanetaryAspects),
			formatScore(r.Components.LunarPhase), formatScore(r.Components.CycleBonus),
			strconv.FormatBool(r.IsFeatured),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (w *ArtifactWriter) writeLevelsCSV(name string, levels map[string]*models.AnchorLevelSet) error {
	f, err := os.Create(filepath.Join(w.dir, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{"symbol", "category", "anchor_pair", "ratio", "price", "range", "span_days"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	// Map order is random; sort so reruns produce identical files.
	symbols := make([]string, 0, len(levels))
	for sym := range levels {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		set := levels[sym]
		for _, pair := range set.Pairs {
			key := pair.Key()
			for _, lv := range pair.Retracements {
				row := []string{
					set.Symbol, set.Category, key,
					strconv.FormatFloat(lv.Ratio, 'f', 3, 64),
					formatScore(lv.Price),
					formatScore(pair.Range),
					strconv.Itoa(pair.SpanDays),
				}
				if err := cw.Write(row); err != nil {
					return fmt.Errorf("write row: %w", err)
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func (w *ArtifactWriter) writeEventsCSV(name string, log *models.EventLog) error {
	f, err := os.Create(filepath.Join(w.dir, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{"date", "stream", "detail", "tier"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	write := func(date time.Time, stream, detail, tier string) error {
		return cw.Write([]string{date.Format(util.DayFormat), stream, detail, tier})
	}
	for _, ev := range log.Aspects {
		detail := fmt.Sprintf("%s %s %s orb=%.2f", ev.Body1, ev.Type, ev.Body2, ev.Orb)
		if err := write(ev.Date, "aspect", detail, string(ev.Tier)); err != nil {
			return err
		}
	}
	for _, ev := range log.Ingresses {
		detail := fmt.Sprintf("%s %s->%s", ev.Body, ev.FromSign, ev.Sign)
		if err := write(ev.Date, "ingress", detail, ""); err != nil {
			return err
		}
	}
	for _, ev := range log.Retrogrades {
		detail := fmt.Sprintf("%s %s in %s", ev.Body, ev.Status, ev.Sign)
		if err := write(ev.Date, "retrograde", detail, string(ev.Tier)); err != nil {
			return err
		}
	}
	for _, rec := range log.LunarPhases {
		detail := fmt.Sprintf("%s illum=%.1f in %s", rec.Phase, rec.Illumination, rec.Sign)
		if err := write(rec.Date, "lunar_phase", detail, ""); err != nil {
			return err
		}
	}
	for _, rec := range log.NodalPhases {
		detail := fmt.Sprintf("%s pos=%.2f", rec.Phase, rec.CyclePosition)
		if err := write(rec.Date, "nodal_phase", detail, ""); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
