package usecase

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"AstroPull/internal/domain/models"
)

func TestArtifactWriterWritesRunFiles(t *testing.T) {
	dir := t.TempDir()
	w := NewArtifactWriter(dir)

	runDate := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
	records := []models.ConfidenceScoreRecord{
		{
			Symbol: "TechCorp", Category: "equities", Sector: "tech",
			Date: runDate, TotalScore: 88.5, BaseScore: 78.5,
			Rating: models.RatingFeatured, IsFeatured: true,
		},
		{
			Symbol: "BankCo", Category: "equities", Sector: "finance",
			Date: runDate, TotalScore: 42.25, BaseScore: 42.25,
			Rating: models.RatingUnfavorable,
		},
	}
	log := &models.EventLog{
		LunarPhases: []models.LunarPhaseRecord{
			{Date: runDate, Phase: models.PhaseFull, Illumination: 99.8, Sign: "Capricorn", Ruler: models.Saturn},
		},
	}
	levels := map[string]*models.AnchorLevelSet{
		"ZincCo": {
			Symbol:   "ZincCo",
			Category: "commodities",
			Pairs: []models.PairLevels{{
				High: 55, Low: 45, Range: 10,
				Retracements: []models.RetracementLevel{{Ratio: 0.5, Price: 50}},
			}},
		},
		"TechCorp": {
			Symbol:   "TechCorp",
			Category: "equities",
			Pairs: []models.PairLevels{{
				From: models.ResolvedAnchor{
					SeasonalAnchor: models.SeasonalAnchor{Date: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), Kind: models.AnchorLow},
					Price:          90,
				},
				To: models.ResolvedAnchor{
					SeasonalAnchor: models.SeasonalAnchor{Date: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), Kind: models.AnchorHigh},
					Price:          110,
				},
				High: 110, Low: 90, Range: 20,
				Retracements: []models.RetracementLevel{{Ratio: 0.5, Price: 100}},
			}},
		},
	}

	if err := w.WriteRun(runDate, records, log, levels); err != nil {
		t.Fatalf("write run: %v", err)
	}

	for _, name := range []string{
		"confidence_scores_20240710.json",
		"featured_symbols_20240710.json",
		"confidence_scores_20240710.csv",
		"fibonacci_levels_20240710.csv",
		"astro_events_20240710.csv",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, "featured_symbols_20240710.json"))
	if err != nil {
		t.Fatalf("read featured: %v", err)
	}
	var featured []models.ConfidenceScoreRecord
	if err := json.Unmarshal(raw, &featured); err != nil {
		t.Fatalf("decode featured: %v", err)
	}
	if len(featured) != 1 || featured[0].Symbol != "TechCorp" {
		t.Fatalf("featured contents wrong: %+v", featured)
	}

	f, err := os.Open(filepath.Join(dir, "confidence_scores_20240710.csv"))
	if err != nil {
		t.Fatalf("open scores csv: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse scores csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "TechCorp" {
		t.Fatalf("first data row %v", rows[1])
	}

	lf, err := os.Open(filepath.Join(dir, "fibonacci_levels_20240710.csv"))
	if err != nil {
		t.Fatalf("open levels csv: %v", err)
	}
	defer lf.Close()
	levelRows, err := csv.NewReader(lf).ReadAll()
	if err != nil {
		t.Fatalf("parse levels csv: %v", err)
	}
	if len(levelRows) != 3 {
		t.Fatalf("expected header plus 2 level rows, got %d", len(levelRows))
	}
	// Rows come out in symbol order regardless of map iteration.
	if levelRows[1][0] != "TechCorp" || levelRows[2][0] != "ZincCo" {
		t.Fatalf("level rows not sorted by symbol: %v / %v", levelRows[1], levelRows[2])
	}
}

func TestArtifactWriterEmptyDirIsNoop(t *testing.T) {
	w := NewArtifactWriter("")
	if err := w.WriteRun(time.Now(), nil, &models.EventLog{}, nil); err != nil {
		t.Fatalf("expected noop, got %v", err)
	}
}
