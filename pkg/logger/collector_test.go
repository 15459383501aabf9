package logger

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingPublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
}

func (p *recordingPublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func TestCollectorDeduplicatesOnClose(t *testing.T) {
	pub := &recordingPublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "digest", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Warn("strategy abstained", String("method", "clustering"), Int("fold", i))
	}
	l.Error("publish failed", Error(nil))
	l.Info("not collected")
	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(pub.batches))
	}
	if pub.topic != "digest" {
		t.Errorf("topic = %q", pub.topic)
	}
	batch := pub.batches[0]
	if len(batch) != 2 {
		t.Fatalf("got %d entries, want 2", len(batch))
	}
	var warn *AggregatedLogEntry
	for i := range batch {
		if batch[i].Level == "warn" {
			warn = &batch[i]
		}
	}
	if warn == nil || warn.Message != "strategy abstained" || warn.Count != 3 {
		t.Fatalf("warn entry = %+v", warn)
	}
	if warn.Fields["fold"] != 2 {
		t.Errorf("fields = %v, want the latest occurrence", warn.Fields)
	}
}

func TestChildLoggersShareCollector(t *testing.T) {
	pub := &recordingPublisher{}
	l := Nop()
	child := l.With("optimizer")
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Publisher: pub})

	child.Warn("no boundaries")
	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.batches) != 1 || pub.batches[0][0].Count != 1 {
		t.Fatalf("batches = %+v", pub.batches)
	}
}
