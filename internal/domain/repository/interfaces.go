package repository

import (
	"context"
	"time"

	"BoundaryLab/internal/domain/models"
)

// MovementStore supplies ordered price-movement records.
type MovementStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreBatch(ctx context.Context, movements []models.PriceMovement) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.PriceMovement, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// ResultPublisher emits a message per completed analysis.
type ResultPublisher interface {
	Publish(ctx context.Context, ev *models.AnalysisEvent) error
	Close() error
}

// OutlierFilter drops anomalous movements before optimization.
type OutlierFilter interface {
	Filter(ctx context.Context, movements []models.PriceMovement) (kept []models.PriceMovement, dropped int, err error)
}

type Metrics interface {
	RecordStrategyRun(method string, seconds float64, boundaries int, abstained bool)
	RecordFold(strategy string, ok bool)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordPublished(backend string)
}
