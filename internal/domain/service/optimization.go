package service

import (
	"context"

	"BoundaryLab/internal/domain/models"
)

// OptimizationStrategy discovers boundaries on a training set. Implementations are
// stateless between calls and safe for concurrent use.
type OptimizationStrategy interface {
	Name() string
	Method() models.OptimizationMethod
	// Optimize returns boundaries for cfg.TargetATRMove. Rejected data comes back as
	// result Errors with no boundaries; the error return is for invalid parameters.
	Optimize(training []models.PriceMovement, cfg models.MLOptimizationConfig) (models.OptimizationResult, error)
	EvaluateBoundaries(boundaries []models.OptimalBoundary, validation []models.PriceMovement, targetATR float64) float64
	ValidateTrainingData(training []models.PriceMovement, cfg models.MLOptimizationConfig) models.DataValidation
}

// OptimizationMethod is what a validation strategy trains and scores per fold.
type OptimizationMethod interface {
	Name() string
	Train(ctx context.Context, training []models.PriceMovement) ([]models.OptimalBoundary, error)
	Evaluate(boundaries []models.OptimalBoundary, data []models.PriceMovement) float64
}
