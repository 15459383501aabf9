package optimization

import (
	"fmt"
	"sort"

	"BoundaryLab/internal/domain/models"
	"BoundaryLab/internal/services/features"
)

// base carries the checks and scoring every strategy shares.
type base struct {
	method models.OptimizationMethod
}

func (b base) Name() string                      { return string(b.method) }
func (b base) Method() models.OptimizationMethod { return b.method }

// EvaluateBoundaries scores boundaries on held-out rows by sample-weighted hit rate.
func (b base) EvaluateBoundaries(boundaries []models.OptimalBoundary, validation []models.PriceMovement, targetATR float64) float64 {
	return features.EvaluateBoundaries(boundaries, validation, targetATR)
}

// ValidateTrainingData lists blocking errors and non-blocking warnings for training.
func (b base) ValidateTrainingData(training []models.PriceMovement, cfg models.MLOptimizationConfig) models.DataValidation {
	var v models.DataValidation
	if len(training) == 0 {
		v.Errors = append(v.Errors, "no training data")
		return v
	}
	if cfg.TargetATRMove <= 0 {
		v.Errors = append(v.Errors, fmt.Sprintf("target ATR move must be positive, got %.4f", cfg.TargetATRMove))
	}

	// a NaN row would leak into every search range
	if bad := features.CountNonFinite(training); bad > 0 {
		v.Errors = append(v.Errors, fmt.Sprintf("%d rows have a non-finite measurement or ATR move", bad))
		return v
	}

	distinct := features.DistinctMeasurements(training)
	if distinct < 2 {
		v.Errors = append(v.Errors, "measurement value is constant")
	}
	positives := features.CountPositive(training, cfg.TargetATRMove)
	if positives == 0 {
		v.Errors = append(v.Errors, fmt.Sprintf("no movement reaches the target ATR move %.4f", cfg.TargetATRMove))
	}

	if cfg.MinimumSamples > 0 && len(training) < cfg.MinimumSamples {
		v.Warnings = append(v.Warnings, fmt.Sprintf("only %d samples, %d recommended", len(training), cfg.MinimumSamples))
	}
	if ratio := float64(positives) / float64(len(training)); positives > 0 && ratio < 0.05 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("positive class is sparse (%.1f%%)", ratio*100))
	}
	if distinct >= 2 && distinct < 10 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("only %d distinct measurement values", distinct))
	}
	return v
}

// precheck validates training data and returns the abstention result when it fails.
func (b base) precheck(training []models.PriceMovement, cfg models.MLOptimizationConfig) (models.OptimizationResult, bool) {
	v := b.ValidateTrainingData(training, cfg)
	res := models.OptimizationResult{
		Method:     b.method,
		Boundaries: []models.OptimalBoundary{},
		Warnings:   v.Warnings,
	}
	if !v.OK() {
		res.Errors = v.Errors
		return res, false
	}
	return res, true
}

// finish scores the boundaries on the training set and orders them by RangeLow.
func (b base) finish(res models.OptimizationResult, bs []models.OptimalBoundary, training []models.PriceMovement, target float64) models.OptimizationResult {
	sortByLow(bs)
	res.Boundaries = bs
	res.Score = features.EvaluateBoundaries(bs, training, target)
	if len(bs) == 0 {
		res.Warnings = append(res.Warnings, "no boundary met the acceptance criteria")
	}
	return res
}

func sortByLow(bs []models.OptimalBoundary) {
	sort.SliceStable(bs, func(i, j int) bool { return bs[i].RangeLow < bs[j].RangeLow })
}

// sortedValues returns the measurement column sorted ascending.
func sortedValues(rows []models.PriceMovement) []float64 {
	xs := features.Measurements(rows)
	sort.Float64s(xs)
	return xs
}
