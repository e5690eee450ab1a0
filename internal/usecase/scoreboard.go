package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"AstroPull/internal/domain/models"
	domrepo "AstroPull/internal/domain/repository"
	"AstroPull/pkg/cache"
	applogger "AstroPull/pkg/logger"
	"AstroPull/pkg/util"
)

// ErrNoRun is returned by read paths before any run has completed.
var ErrNoRun = errors.New("no completed run")

const (
	scoreboardCacheKey = "scoreboard:latest"
	levelsCacheKey     = "levels:"
	eventLogCacheKey   = "events:log"
)

// Scoreboard serves the read endpoints from the latest completed run. It
// reads the in-memory pipeline snapshot first, then Redis, then the score
// store, and warms the cache on the way back up.
type Scoreboard struct {
	pipeline   *Pipeline
	scoreStore domrepo.ScoreStore
	eventStore domrepo.EventStore
	cache      cache.Service
	scoresTTL  time.Duration
	levelsTTL  time.Duration
	eventsTTL  time.Duration
	l          *applogger.Logger
}

func NewScoreboard(pipeline *Pipeline, scoreStore domrepo.ScoreStore, eventStore domrepo.EventStore) *Scoreboard {
	return &Scoreboard{
		pipeline:   pipeline,
		scoreStore: scoreStore,
		eventStore: eventStore,
		scoresTTL:  5 * time.Minute,
		levelsTTL:  15 * time.Minute,
		eventsTTL:  10 * time.Minute,
	}
}

// SetCache enables cache-backed scoreboard reads.
func (b *Scoreboard) SetCache(c cache.Service, scoresTTL, levelsTTL, eventsTTL time.Duration) {
	b.cache = c
	if scoresTTL > 0 {
		b.scoresTTL = scoresTTL
	}
	if levelsTTL > 0 {
		b.levelsTTL = levelsTTL
	}
	if eventsTTL > 0 {
		b.eventsTTL = eventsTTL
	}
}

// SetLogger injects a structured logger.
func (b *Scoreboard) SetLogger(l *applogger.Logger) { b.l = l }

type cachedRun struct {
	RunDate time.Time                      `json:"run_date"`
	Records []models.ConfidenceScoreRecord `json:"records"`
}

// Scores returns the latest run filtered by category and featured flag,
// truncated to limit. Records keep their stored order: total descending.
func (b *Scoreboard) Scores(ctx context.Context, category string, limit int, featuredOnly bool) (time.Time, []models.ConfidenceScoreRecord, error) {
	runDate, records, err := b.latestRun(ctx)
	if err != nil {
		return time.Time{}, nil, err
	}

	cat := domrepo.NormalizeCategory(category)
	out := make([]models.ConfidenceScoreRecord, 0, len(records))
	for _, rec := range records {
		if cat != "" && rec.Category != string(cat) {
			continue
		}
		if featuredOnly && !rec.IsFeatured {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return runDate, out, nil
}

// Featured returns only featured records from the latest run.
func (b *Scoreboard) Featured(ctx context.Context, limit int) (time.Time, []models.ConfidenceScoreRecord, error) {
	return b.Scores(ctx, "", limit, true)
}

// Levels returns the latest run's anchor level set for one symbol.
func (b *Scoreboard) Levels(ctx context.Context, symbol string) (*models.AnchorLevelSet, error) {
	if set, ok := b.pipeline.LevelsFor(symbol); ok {
		return set, nil
	}
	if b.cache != nil {
		var set models.AnchorLevelSet
		if err := b.cache.Get(ctx, levelsCacheKey+symbol, &set); err == nil {
			return &set, nil
		}
	}
	return nil, fmt.Errorf("levels for %s: %w", symbol, ErrNoRun)
}

// Events returns one stream of the stored event log, filtered to [from, to]
// when either bound is set.
func (b *Scoreboard) Events(ctx context.Context, kind string, from, to time.Time) (interface{}, error) {
	log, ok := b.pipeline.EventLogSnapshot()
	if !ok {
		log = b.loadEventLog(ctx)
		if log == nil {
			var err error
			log, err = b.eventStore.Load(ctx)
			if err != nil {
				return nil, fmt.Errorf("load events: %w", err)
			}
			if b.cache != nil {
				_ = b.cache.Set(ctx, eventLogCacheKey, log, b.eventsTTL)
			}
		}
	}

	in := func(d time.Time) bool {
		if !from.IsZero() && d.Before(from) {
			return false
		}
		if !to.IsZero() && d.After(to) {
			return false
		}
		return true
	}

	switch kind {
	case "aspects":
		out := make([]models.AspectEvent, 0, len(log.Aspects))
		for _, ev := range log.Aspects {
			if in(ev.Date) {
				out = append(out, ev)
			}
		}
		return out, nil
	case "ingresses":
		out := make([]models.IngressEvent, 0, len(log.Ingresses))
		for _, ev := range log.Ingresses {
			if in(ev.Date) {
				out = append(out, ev)
			}
		}
		return out, nil
	case "retrogrades":
		out := make([]models.RetrogradeEvent, 0, len(log.Retrogrades))
		for _, ev := range log.Retrogrades {
			if in(ev.Date) {
				out = append(out, ev)
			}
		}
		return out, nil
	case "lunar_phases":
		out := make([]models.LunarPhaseRecord, 0, len(log.LunarPhases))
		for _, rec := range log.LunarPhases {
			if in(rec.Date) {
				out = append(out, rec)
			}
		}
		return out, nil
	case "nodal_cycle":
		out := make([]models.NodalCyclePhaseRecord, 0, len(log.NodalPhases))
		for _, rec := range log.NodalPhases {
			if in(rec.Date) {
				out = append(out, rec)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown event kind: %s", kind)
	}
}

// WarmCache pushes the latest run into Redis after a pipeline run. Called by
// the run job so API nodes without the in-memory snapshot still serve fast.
func (b *Scoreboard) WarmCache(ctx context.Context) {
	if b.cache == nil {
		return
	}
	runDate, records, ok := b.pipeline.Snapshot()
	if !ok {
		return
	}
	if err := b.cache.Set(ctx, scoreboardCacheKey, cachedRun{RunDate: runDate, Records: records}, b.scoresTTL); err != nil && b.l != nil {
		b.l.Warn("scoreboard cache warm failed", applogger.Error(err))
	}
	for symbol := range b.pipelineLevels() {
		set, ok := b.pipeline.LevelsFor(symbol)
		if !ok {
			continue
		}
		if err := b.cache.Set(ctx, levelsCacheKey+symbol, set, b.levelsTTL); err != nil && b.l != nil {
			b.l.Warn("levels cache warm failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}
	if log, ok := b.pipeline.EventLogSnapshot(); ok {
		if err := b.cache.Set(ctx, eventLogCacheKey, log, b.eventsTTL); err != nil && b.l != nil {
			b.l.Warn("event log cache warm failed", applogger.Error(err))
		}
	}
	if b.l != nil {
		b.l.Info("scoreboard cache warmed",
			applogger.String("run_date", runDate.Format(util.DayFormat)),
			applogger.Int("records", len(records)),
		)
	}
}

// loadEventLog reads the cached event log, or nil on miss.
func (b *Scoreboard) loadEventLog(ctx context.Context) *models.EventLog {
	if b.cache == nil {
		return nil
	}
	var log models.EventLog
	if err := b.cache.Get(ctx, eventLogCacheKey, &log); err != nil {
		return nil
	}
	return &log
}

func (b *Scoreboard) pipelineLevels() map[string]*models.AnchorLevelSet {
	b.pipeline.mu.RLock()
	defer b.pipeline.mu.RUnlock()
	out := make(map[string]*models.AnchorLevelSet, len(b.pipeline.lastLevel))
	for k, v := range b.pipeline.lastLevel {
		out[k] = v
	}
	return out
}

func (b *Scoreboard) latestRun(ctx context.Context) (time.Time, []models.ConfidenceScoreRecord, error) {
	if runDate, records, ok := b.pipeline.Snapshot(); ok {
		return runDate, records, nil
	}
	if b.cache != nil {
		var cached cachedRun
		if err := b.cache.Get(ctx, scoreboardCacheKey, &cached); err == nil && len(cached.Records) > 0 {
			return cached.RunDate, cached.Records, nil
		}
	}
	runDate, records, err := b.scoreStore.LatestRun(ctx)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("latest run: %w", err)
	}
	if len(records) == 0 {
		return time.Time{}, nil, ErrNoRun
	}
	if b.cache != nil {
		_ = b.cache.Set(ctx, scoreboardCacheKey, cachedRun{RunDate: runDate, Records: records}, b.scoresTTL)
	}
	return runDate, records, nil
}
