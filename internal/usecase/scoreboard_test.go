package usecase

import (
	"context"
	"testing"
	"time"

	"AstroPull/internal/domain/models"
	"AstroPull/pkg/cache"
)

// countingEventStore tracks Load calls so cache hits are observable.
type countingEventStore struct {
	memEventStore
	loads int
}

func (s *countingEventStore) Load(ctx context.Context) (*models.EventLog, error) {
	s.loads++
	return s.memEventStore.Load(ctx)
}

func TestScoreboardEventsServedFromCache(t *testing.T) {
	prices := &fakePriceStore{histories: map[string][]models.PriceObservation{}}
	p, _, scoreStore := newTestPipeline(prices)

	store := &countingEventStore{}
	store.stored = &models.EventLog{
		LunarPhases: []models.LunarPhaseRecord{
			{Date: time.Date(2024, 7, 9, 0, 0, 0, 0, time.UTC), Phase: models.PhaseFull, Illumination: 99.8, Sign: "Capricorn", Ruler: models.Saturn},
		},
	}

	mc := cache.NewMemoryCache()
	defer mc.Close()

	b := NewScoreboard(p, scoreStore, store)
	b.SetCache(mc, 0, 0, time.Minute)

	ctx := context.Background()
	first, err := b.Events(ctx, "lunar_phases", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if recs, ok := first.([]models.LunarPhaseRecord); !ok || len(recs) != 1 {
		t.Fatalf("unexpected first read: %T %v", first, first)
	}
	if store.loads != 1 {
		t.Fatalf("expected 1 store load, got %d", store.loads)
	}

	second, err := b.Events(ctx, "lunar_phases", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("events cached: %v", err)
	}
	recs, ok := second.([]models.LunarPhaseRecord)
	if !ok || len(recs) != 1 || recs[0].Sign != "Capricorn" {
		t.Fatalf("unexpected cached read: %T %v", second, second)
	}
	if store.loads != 1 {
		t.Fatalf("second read hit the store: %d loads", store.loads)
	}
}
