package repository

import (
	"context"
	"fmt"
	"time"

	"AstroPull/internal/domain/models"
	pkgkafka "AstroPull/pkg/kafka"
	applogger "AstroPull/pkg/logger"
	"AstroPull/pkg/util"
)

// KafkaPublisher emits run output to Kafka. Scores are keyed by symbol so a
// hash balancer keeps per-symbol ordering; event streams go to a separate
// topic keyed by stream name.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	scores   string
	events   string
	l        *applogger.Logger
}

func NewKafkaPublisher(producer *pkgkafka.Producer, scoresTopic, eventsTopic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, scores: scoresTopic, events: eventsTopic}
}

// SetLogger injects a structured logger.
func (p *KafkaPublisher) SetLogger(l *applogger.Logger) { p.l = l }

func (p *KafkaPublisher) PublishScores(ctx context.Context, runDate time.Time, records []models.ConfidenceScoreRecord) error {
	if len(records) == 0 {
		return nil
	}
	start := time.Now()

	msgs := make([]pkgkafka.Message, 0, len(records))
	for _, rec := range records {
		msgs = append(msgs, pkgkafka.Message{
			Key: []byte(rec.Symbol),
			Value: struct {
				RunDate string                       `json:"run_date"`
				Score   models.ConfidenceScoreRecord `json:"score"`
			}{RunDate: runDate.Format(util.DayFormat), Score: rec},
		})
	}
	if err := p.producer.PublishBatch(ctx, p.scores, msgs); err != nil {
		return fmt.Errorf("publish scores: %w", err)
	}
	if p.l != nil {
		p.l.Info("kafka scores published",
			applogger.String("topic", p.scores),
			applogger.Int("count", len(msgs)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (p *KafkaPublisher) PublishEvents(ctx context.Context, log *models.EventLog) error {
	if log == nil {
		return nil
	}
	msgs := []pkgkafka.Message{
		{Key: []byte("aspects"), Value: log.Aspects},
		{Key: []byte("ingresses"), Value: log.Ingresses},
		{Key: []byte("retrogrades"), Value: log.Retrogrades},
		{Key: []byte("lunar_phases"), Value: log.LunarPhases},
		{Key: []byte("nodal_phases"), Value: log.NodalPhases},
	}
	if err := p.producer.PublishBatch(ctx, p.events, msgs); err != nil {
		return fmt.Errorf("publish events: %w", err)
	}
	return nil
}

// PublishMessage satisfies the log collector's publisher interface, so
// aggregated error logs ride the same producer.
func (p *KafkaPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher is used when Kafka is disabled in config.
type NopPublisher struct{}

func (NopPublisher) PublishScores(context.Context, time.Time, []models.ConfidenceScoreRecord) error {
	return nil
}
func (NopPublisher) PublishEvents(context.Context, *models.EventLog) error { return nil }
func (NopPublisher) Close() error                                          { return nil }
