package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"AstroPull/internal/domain/models"
	domrepo "AstroPull/internal/domain/repository"
	domsvc "AstroPull/internal/domain/service"
	"AstroPull/internal/services/scoring"
	applogger "AstroPull/pkg/logger"
	"AstroPull/pkg/util"
)

// ScorerFactory builds a scorer bound to one run's event log.
type ScorerFactory func(log *models.EventLog) domsvc.ConfidenceScorer

// PipelineConfig tunes one run.
type PipelineConfig struct {
	// RangeFrom/RangeTo bound event generation. Zero values default to the
	// year up to the run date.
	RangeFrom time.Time
	RangeTo   time.Time
	// Workers bounds concurrent per-symbol level computation.
	Workers int
}

// Pipeline orchestrates a full scoring run: event generation, anchor level
// calculation, scoring, persistence and publication. A Pipeline also holds
// the last completed run in memory for the read endpoints.
type Pipeline struct {
	generator   domsvc.EventGenerator
	calculator  domsvc.LevelCalculator
	scorerFor   ScorerFactory
	eventStore  domrepo.EventStore
	priceStore  domrepo.PriceStore
	anchorStore domrepo.AnchorStore
	scoreStore  domrepo.ScoreStore
	publisher   domrepo.Publisher
	metrics     domrepo.Metrics
	clock       domrepo.Clock
	artifacts   *ArtifactWriter
	cfg         PipelineConfig
	l           *applogger.Logger

	mu        sync.RWMutex
	lastRun   time.Time
	lastLog   *models.EventLog
	lastScore []models.ConfidenceScoreRecord
	lastLevel map[string]*models.AnchorLevelSet
}

func NewPipeline(
	generator domsvc.EventGenerator,
	calculator domsvc.LevelCalculator,
	scorerFor ScorerFactory,
	eventStore domrepo.EventStore,
	priceStore domrepo.PriceStore,
	anchorStore domrepo.AnchorStore,
	scoreStore domrepo.ScoreStore,
	publisher domrepo.Publisher,
	metrics domrepo.Metrics,
	clock domrepo.Clock,
	artifacts *ArtifactWriter,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Pipeline{
		generator:   generator,
		calculator:  calculator,
		scorerFor:   scorerFor,
		eventStore:  eventStore,
		priceStore:  priceStore,
		anchorStore: anchorStore,
		scoreStore:  scoreStore,
		publisher:   publisher,
		metrics:     metrics,
		clock:       clock,
		artifacts:   artifacts,
		cfg:         cfg,
		lastLevel:   make(map[string]*models.AnchorLevelSet),
	}
}

// SetLogger injects a structured logger.
func (p *Pipeline) SetLogger(l *applogger.Logger) { p.l = l }

// Run executes a full scoring run for runDate. Symbols whose anchor levels
// cannot be resolved are skipped: a confidence score without level context
// is not publishable.
func (p *Pipeline) Run(ctx context.Context, runDate time.Time) error {
	start := time.Now()
	runDay := util.DayUTC(runDate)

	from, to := p.cfg.RangeFrom, p.cfg.RangeTo
	if from.IsZero() {
		from = runDay.AddDate(-1, 0, 0)
	}
	if to.IsZero() {
		to = runDay
	}

	log, err := p.generator.Generate(ctx, from, to)
	if err != nil {
		p.recordError("generate")
		return fmt.Errorf("generate events: %w", err)
	}
	if err := p.eventStore.ReplaceLog(ctx, log); err != nil {
		p.recordError("event_store")
		return fmt.Errorf("store events: %w", err)
	}
	if p.metrics != nil {
		p.metrics.RecordEventsGenerated("aspects", len(log.Aspects))
		p.metrics.RecordEventsGenerated("ingresses", len(log.Ingresses))
		p.metrics.RecordEventsGenerated("retrogrades", len(log.Retrogrades))
		p.metrics.RecordEventsGenerated("lunar_phases", len(log.LunarPhases))
		p.metrics.RecordEventsGenerated("nodal_phases", len(log.NodalPhases))
	}

	anchors, err := p.anchorStore.AnchorsSince(ctx, runDay.AddDate(-7, 0, 0))
	if err != nil {
		p.recordError("anchor_store")
		return fmt.Errorf("load anchors: %w", err)
	}

	scorer := p.scorerFor(log)

	levels := make(map[string]*models.AnchorLevelSet)
	var records []models.ConfidenceScoreRecord
	var resMu sync.Mutex

	for _, cat := range domrepo.AllCategories {
		symbols, err := p.priceStore.Symbols(ctx, cat)
		if err != nil {
			p.recordError("price_store")
			return fmt.Errorf("list symbols for %s: %w", cat, err)
		}
		if len(symbols) == 0 {
			continue
		}

		sem := make(chan struct{}, p.cfg.Workers)
		var wg sync.WaitGroup
		for _, sym := range symbols {
			wg.Add(1)
			sem <- struct{}{}
			go func(category domrepo.Category, symbol string) {
				defer wg.Done()
				defer func() { <-sem }()

				set, rec, ok := p.scoreSymbol(ctx, scorer, category, symbol, anchors, runDay)
				if !ok {
					return
				}
				resMu.Lock()
				levels[symbol] = set
				records = append(records, rec)
				resMu.Unlock()
			}(cat, sym)
		}
		wg.Wait()
	}

	if len(records) == 0 {
		p.recordError("empty_run")
		return fmt.Errorf("run produced no scores: no symbol resolved at least two anchors")
	}

	scoring.SortByTotalDesc(records)

	if err := p.scoreStore.StoreRun(ctx, runDay, records); err != nil {
		p.recordError("score_store")
		return fmt.Errorf("store scores: %w", err)
	}
	if p.artifacts != nil {
		if err := p.artifacts.WriteRun(runDay, records, log, levels); err != nil {
			// artifacts are best-effort; the run is already persisted
			p.recordError("artifacts")
			if p.l != nil {
				p.l.Warn("artifact write failed", applogger.Error(err))
			}
		}
	}
	if p.publisher != nil {
		if err := p.publisher.PublishScores(ctx, runDay, records); err != nil {
			p.recordError("publish_scores")
			if p.l != nil {
				p.l.Warn("score publish failed", applogger.Error(err))
			}
		}
		if err := p.publisher.PublishEvents(ctx, log); err != nil {
			p.recordError("publish_events")
			if p.l != nil {
				p.l.Warn("event publish failed", applogger.Error(err))
			}
		}
	}

	p.mu.Lock()
	p.lastRun = runDay
	p.lastLog = log
	p.lastScore = records
	p.lastLevel = levels
	p.mu.Unlock()

	featured, favorable := 0, 0
	var sum float64
	for _, r := range records {
		sum += r.TotalScore
		if r.IsFeatured {
			featured++
		}
		if r.Rating == models.RatingFavorable {
			favorable++
		}
	}
	if p.metrics != nil {
		p.metrics.RecordLatency("pipeline_run", time.Since(start).Seconds())
	}
	if p.l != nil {
		p.l.Info("pipeline run complete",
			applogger.String("run_date", runDay.Format(util.DayFormat)),
			applogger.Int("scored", len(records)),
			applogger.Int("featured", featured),
			applogger.Int("favorable", favorable),
			applogger.Float64("avg_score", util.Round2(sum/float64(len(records)))),
			applogger.Int("aspects", len(log.Aspects)),
			applogger.Int("ingresses", len(log.Ingresses)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
		for i, r := range records {
			if i == 10 {
				break
			}
			p.l.Debug("top symbol",
				applogger.Int("rank", i+1),
				applogger.String("symbol", r.Symbol),
				applogger.String("category", r.Category),
				applogger.Float64("total", r.TotalScore),
				applogger.String("rating", string(r.Rating)),
			)
		}
	}
	return nil
}

func (p *Pipeline) scoreSymbol(ctx context.Context, scorer domsvc.ConfidenceScorer, category domrepo.Category, symbol string, anchors []models.SeasonalAnchor, runDay time.Time) (*models.AnchorLevelSet, models.ConfidenceScoreRecord, bool) {
	history, err := p.priceStore.History(ctx, category, symbol)
	if err != nil {
		p.recordError("price_history")
		if p.l != nil {
			p.l.Warn("price history load failed, skipping symbol",
				applogger.String("symbol", symbol),
				applogger.String("category", string(category)),
				applogger.Error(err),
			)
		}
		return nil, models.ConfidenceScoreRecord{}, false
	}

	set, ok := p.calculator.Calculate(symbol, string(category), history, anchors)
	if !ok {
		if p.l != nil {
			p.l.Debug("insufficient anchors, skipping symbol",
				applogger.String("symbol", symbol),
				applogger.String("category", string(category)),
			)
		}
		return nil, models.ConfidenceScoreRecord{}, false
	}

	rec := scorer.Score(symbol, string(category), runDay)
	if p.metrics != nil {
		p.metrics.RecordSymbolScored(string(category), string(rec.Rating))
	}
	return set, rec, true
}

func (p *Pipeline) recordError(kind string) {
	if p.metrics != nil {
		p.metrics.RecordError(kind)
	}
}

// Snapshot returns the last completed run held in memory. ok is false before
// the first successful run.
func (p *Pipeline) Snapshot() (runDate time.Time, records []models.ConfidenceScoreRecord, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastRun.IsZero() {
		return time.Time{}, nil, false
	}
	return p.lastRun, p.lastScore, true
}

// LevelsFor returns the last run's anchor level set for one symbol.
func (p *Pipeline) LevelsFor(symbol string) (*models.AnchorLevelSet, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set, ok := p.lastLevel[symbol]
	return set, ok
}

// EventLogSnapshot returns the last run's event log.
func (p *Pipeline) EventLogSnapshot() (*models.EventLog, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastLog == nil {
		return nil, false
	}
	return p.lastLog, true
}
