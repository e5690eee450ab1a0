package usecase

import (
	"context"
	"fmt"
	"time"

	domrepo "AstroPull/internal/domain/repository"
	applogger "AstroPull/pkg/logger"
	"AstroPull/pkg/queue"
	"AstroPull/pkg/util"
)

// RunJobType routes queued run requests to the pipeline worker.
const RunJobType = "pipeline.run"

// RunPayload is the queued request for one scoring run.
type RunPayload struct {
	Date string `json:"date"` // YYYY-MM-DD; empty means today
}

// RunJob executes queued pipeline runs. POST /api/run enqueues; the queue
// worker drains, so concurrent triggers serialize instead of racing.
type RunJob struct {
	pipeline   *Pipeline
	scoreboard *Scoreboard
	clock      domrepo.Clock
	l          *applogger.Logger
}

func NewRunJob(pipeline *Pipeline, scoreboard *Scoreboard, clock domrepo.Clock) *RunJob {
	return &RunJob{pipeline: pipeline, scoreboard: scoreboard, clock: clock}
}

// InlineRunner satisfies queue.QueueService without Redis: the job runs in a
// background goroutine on the publishing node. Used when Redis is disabled.
type InlineRunner struct {
	Job *RunJob
}

func (r InlineRunner) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	if msgType != RunJobType {
		return fmt.Errorf("unknown message type: %s", msgType)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		_ = r.Job.Handle(ctx, payload)
	}()
	return nil
}

// SetLogger injects a structured logger.
func (j *RunJob) SetLogger(l *applogger.Logger) { j.l = l }

func (j *RunJob) Name() string { return "pipeline_run" }

func (j *RunJob) Type() string { return RunJobType }

func (j *RunJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RunPayload](payload)
	if err != nil {
		return fmt.Errorf("parse run payload: %w", err)
	}

	runDate := j.clock.Now()
	if p.Date != "" {
		d, ok := util.ParseDay(p.Date)
		if !ok {
			return fmt.Errorf("invalid run date: %q", p.Date)
		}
		runDate = d
	}

	start := time.Now()
	if err := j.pipeline.Run(ctx, runDate); err != nil {
		if j.l != nil {
			j.l.Error("queued run failed",
				applogger.String("date", runDate.Format(util.DayFormat)),
				applogger.Error(err),
			)
		}
		return err
	}
	if j.scoreboard != nil {
		j.scoreboard.WarmCache(ctx)
	}
	if j.l != nil {
		j.l.Info("queued run complete",
			applogger.String("date", runDate.Format(util.DayFormat)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}
