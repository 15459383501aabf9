package service

import (
	"context"

	"BoundaryLab/internal/domain/models"
)

// ValidationStrategy splits a dataset into train/validation folds and scores an
// OptimizationMethod on each.
type ValidationStrategy interface {
	Name() string
	Type() models.ValidationType
	RequiredMinimum() int
	Validate(ctx context.Context, data []models.PriceMovement, method OptimizationMethod) (models.TimeSeriesCrossValidationResult, error)
}
