package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"AstroPull/internal/domain/models"
	domrepo "AstroPull/internal/domain/repository"
	domsvc "AstroPull/internal/domain/service"
	"AstroPull/internal/services/events"
	"AstroPull/internal/services/levels"
	"AstroPull/internal/services/scoring"
)

// fakePositions serves three fixed days so the generator has edges to detect.
type fakePositions struct{}

func (fakePositions) Positions(_ context.Context, date time.Time) (map[models.Body]models.CelestialPosition, error) {
	base := map[models.Body]float64{
		models.Sun: 10, models.Moon: 100, models.Mercury: 40, models.Venus: 70,
		models.Mars: 130, models.Jupiter: 200, models.Saturn: 260,
		models.Uranus: 30, models.Neptune: 350, models.Pluto: 290,
	}
	out := make(map[models.Body]models.CelestialPosition, len(base))
	day := float64(date.YearDay() % 30)
	for b, lon := range base {
		out[b] = models.NewCelestialPosition(b, lon+day, 1.0)
	}
	return out, nil
}

type fakePriceStore struct {
	histories map[string][]models.PriceObservation
}

func (s *fakePriceStore) Symbols(_ context.Context, cat domrepo.Category) ([]string, error) {
	if cat != domrepo.CatEquities {
		return nil, nil
	}
	out := make([]string, 0, len(s.histories))
	for sym := range s.histories {
		out = append(out, sym)
	}
	return out, nil
}

func (s *fakePriceStore) History(_ context.Context, _ domrepo.Category, symbol string) ([]models.PriceObservation, error) {
	return s.histories[symbol], nil
}

type fakeAnchorStore struct{ anchors []models.SeasonalAnchor }

func (s *fakeAnchorStore) AnchorsSince(_ context.Context, _ time.Time) ([]models.SeasonalAnchor, error) {
	return s.anchors, nil
}

type memEventStore struct{ stored *models.EventLog }

func (s *memEventStore) ReplaceLog(_ context.Context, log *models.EventLog) error {
	s.stored = log
	return nil
}

func (s *memEventStore) Load(context.Context) (*models.EventLog, error) {
	if s.stored == nil {
		return &models.EventLog{}, nil
	}
	return s.stored, nil
}

type memScoreStore struct {
	runDate time.Time
	records []models.ConfidenceScoreRecord
}

func (s *memScoreStore) StoreRun(_ context.Context, runDate time.Time, records []models.ConfidenceScoreRecord) error {
	s.runDate = runDate
	s.records = records
	return nil
}

func (s *memScoreStore) LatestRun(context.Context) (time.Time, []models.ConfidenceScoreRecord, error) {
	return s.runDate, s.records, nil
}

func testAnchors() []models.SeasonalAnchor {
	return []models.SeasonalAnchor{
		{Date: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), Type: "vernal_equinox", Sign: "Aries", Kind: models.AnchorLow},
		{Date: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), Type: "summer_solstice", Sign: "Cancer", Kind: models.AnchorHigh},
	}
}

func dailyPrices(from, to time.Time, price float64) []models.PriceObservation {
	var out []models.PriceObservation
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, models.PriceObservation{Date: d, Price: price})
	}
	return out
}

func newTestPipeline(prices *fakePriceStore) (*Pipeline, *memEventStore, *memScoreStore) {
	clock := domrepo.FixedClock{T: time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)}
	classifier := scoring.NewClassifier()
	factory := func(log *models.EventLog) domsvc.ConfidenceScorer {
		return scoring.NewScorer(classifier, log)
	}
	eventStore := &memEventStore{}
	scoreStore := &memScoreStore{}
	p := NewPipeline(
		events.NewGenerator(fakePositions{}),
		levels.NewCalculator(clock, 6),
		factory,
		eventStore,
		prices,
		&fakeAnchorStore{anchors: testAnchors()},
		scoreStore,
		nil,
		nil,
		clock,
		nil,
		PipelineConfig{
			RangeFrom: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			RangeTo:   time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
			Workers:   2,
		},
	)
	return p, eventStore, scoreStore
}

func TestPipelineRunScoresAndSorts(t *testing.T) {
	prices := &fakePriceStore{histories: map[string][]models.PriceObservation{
		"TechCorp": dailyPrices(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC), 100),
		"BankCo":   dailyPrices(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC), 50),
	}}
	p, eventStore, scoreStore := newTestPipeline(prices)

	runDate := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
	if err := p.Run(context.Background(), runDate); err != nil {
		t.Fatalf("run: %v", err)
	}

	if eventStore.stored == nil {
		t.Fatalf("event log not persisted")
	}
	if len(scoreStore.records) != 2 {
		t.Fatalf("expected 2 scored symbols, got %d", len(scoreStore.records))
	}
	for i := 1; i < len(scoreStore.records); i++ {
		if scoreStore.records[i].TotalScore > scoreStore.records[i-1].TotalScore {
			t.Fatalf("records not sorted descending")
		}
	}
	if !scoreStore.runDate.Equal(runDate) {
		t.Fatalf("run date %v, want %v", scoreStore.runDate, runDate)
	}

	gotDate, records, ok := p.Snapshot()
	if !ok || !gotDate.Equal(runDate) || len(records) != 2 {
		t.Fatalf("snapshot date=%v n=%d ok=%v", gotDate, len(records), ok)
	}
	if _, ok := p.LevelsFor("TechCorp"); !ok {
		t.Fatalf("levels missing for TechCorp")
	}
}

func TestPipelineSkipsSymbolsWithoutAnchors(t *testing.T) {
	// NoHist has no price rows near the anchors, so no levels resolve and
	// the symbol must not be scored.
	prices := &fakePriceStore{histories: map[string][]models.PriceObservation{
		"TechCorp": dailyPrices(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC), 100),
		"NoHist":   dailyPrices(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC), 10),
	}}
	p, _, scoreStore := newTestPipeline(prices)

	if err := p.Run(context.Background(), time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(scoreStore.records) != 1 {
		t.Fatalf("expected 1 scored symbol, got %d", len(scoreStore.records))
	}
	if scoreStore.records[0].Symbol != "TechCorp" {
		t.Fatalf("wrong symbol scored: %s", scoreStore.records[0].Symbol)
	}
	if _, ok := p.LevelsFor("NoHist"); ok {
		t.Fatalf("NoHist should have no levels")
	}
}

func TestPipelineFailsWhenNothingScorable(t *testing.T) {
	prices := &fakePriceStore{histories: map[string][]models.PriceObservation{
		"NoHist": dailyPrices(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC), 10),
	}}
	p, _, _ := newTestPipeline(prices)

	if err := p.Run(context.Background(), time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Fatalf("expected error when no symbol can be scored")
	}
}

func TestScoreboardNoRun(t *testing.T) {
	prices := &fakePriceStore{histories: map[string][]models.PriceObservation{}}
	p, eventStore, scoreStore := newTestPipeline(prices)
	b := NewScoreboard(p, scoreStore, eventStore)

	if _, _, err := b.Scores(context.Background(), "", 0, false); !errors.Is(err, ErrNoRun) {
		t.Fatalf("expected ErrNoRun, got %v", err)
	}
	if _, err := b.Levels(context.Background(), "TechCorp"); !errors.Is(err, ErrNoRun) {
		t.Fatalf("expected ErrNoRun for levels, got %v", err)
	}
}

func TestScoreboardFiltersAndLimits(t *testing.T) {
	prices := &fakePriceStore{histories: map[string][]models.PriceObservation{
		"TechCorp": dailyPrices(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC), 100),
		"BankCo":   dailyPrices(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC), 50),
	}}
	p, eventStore, scoreStore := newTestPipeline(prices)
	if err := p.Run(context.Background(), time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("run: %v", err)
	}

	b := NewScoreboard(p, scoreStore, eventStore)

	_, all, err := b.Scores(context.Background(), "", 0, false)
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}

	_, limited, err := b.Scores(context.Background(), "equities", 1, false)
	if err != nil {
		t.Fatalf("scores limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit ignored: got %d", len(limited))
	}

	_, none, err := b.Scores(context.Background(), "crypto", 0, false)
	if err != nil {
		t.Fatalf("scores crypto: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("category filter leaked: got %d", len(none))
	}

	if _, err := b.Levels(context.Background(), "TechCorp"); err != nil {
		t.Fatalf("levels: %v", err)
	}
	if _, err := b.Levels(context.Background(), "Ghost"); err == nil {
		t.Fatalf("expected error for unknown symbol")
	}

	evs, err := b.Events(context.Background(), "lunar_phases", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if recs, ok := evs.([]models.LunarPhaseRecord); !ok || len(recs) == 0 {
		t.Fatalf("expected lunar phase records, got %T", evs)
	}

	if _, err := b.Events(context.Background(), "bogus", time.Time{}, time.Time{}); err == nil {
		t.Fatalf("expected error for unknown event kind")
	}
}
