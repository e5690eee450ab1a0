package logger

import (
	"context"
	"testing"
	"time"
)

type capturePublisher struct {
	ch chan []AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	logs, ok := payload.([]AggregatedLogEntry)
	if !ok {
		return nil
	}
	p.ch <- logs
	return nil
}

func TestCollectorAggregatesAndFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{ch: make(chan []AggregatedLogEntry, 1)}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 2,
		Topic:          "logs",
		Publisher:      pub,
	})
	defer c.Close()

	c.AddLog("error", "store write failed", map[string]interface{}{"table": "scores"}, "a.go:1")
	c.AddLog("error", "store write failed", map[string]interface{}{"table": "scores"}, "a.go:1")
	c.AddLog("error", "publish failed", nil, "b.go:2")

	select {
	case logs := <-pub.ch:
		if len(logs) != 2 {
			t.Fatalf("expected 2 aggregated entries, got %d", len(logs))
		}
		counts := map[string]int{}
		for _, entry := range logs {
			counts[entry.Message] = entry.Count
		}
		if counts["store write failed"] != 2 {
			t.Fatalf("duplicate not aggregated: %v", counts)
		}
		if counts["publish failed"] != 1 {
			t.Fatalf("unique entry wrong: %v", counts)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("flush never published")
	}
}

func TestCollectorFlushesOnClose(t *testing.T) {
	pub := &capturePublisher{ch: make(chan []AggregatedLogEntry, 1)}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "logs",
		Publisher:      pub,
	})

	c.AddLog("error", "lingering", nil, "c.go:3")
	c.Close()

	select {
	case logs := <-pub.ch:
		if len(logs) != 1 || logs[0].Message != "lingering" {
			t.Fatalf("unexpected flush contents: %+v", logs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("close did not flush")
	}
}
