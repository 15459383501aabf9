package repository

import (
	"context"

	"BoundaryLab/internal/domain/models"
	domrepo "BoundaryLab/internal/domain/repository"
	pkgkafka "BoundaryLab/pkg/kafka"
)

// KafkaResultPublisher emits analysis events keyed by symbol.
type KafkaResultPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domrepo.ResultPublisher = (*KafkaResultPublisher)(nil)

func NewKafkaResultPublisher(producer *pkgkafka.Producer, topic string) *KafkaResultPublisher {
	return &KafkaResultPublisher{producer: producer, topic: topic}
}

func (p *KafkaResultPublisher) Publish(ctx context.Context, ev *models.AnalysisEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev)
}

func (p *KafkaResultPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopResultPublisher drops events. Used when Kafka is disabled.
type NopResultPublisher struct{}

var _ domrepo.ResultPublisher = NopResultPublisher{}

func (NopResultPublisher) Publish(context.Context, *models.AnalysisEvent) error { return nil }

func (NopResultPublisher) Close() error { return nil }
