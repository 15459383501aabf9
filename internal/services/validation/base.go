package validation

import (
	"context"
	"errors"
	"fmt"
	"math"

	"BoundaryLab/internal/domain/errs"
	"BoundaryLab/internal/domain/models"
	domsvc "BoundaryLab/internal/domain/service"
	"BoundaryLab/internal/services/features"
	"BoundaryLab/pkg/validate"
)

const (
	// UnstableDegradation marks a boundary whose out-of-sample hit rate fell by at
	// least this fraction of its in-sample rate.
	UnstableDegradation = 0.3
	// OverfittingGap is the training minus validation score above which a run is overfit.
	OverfittingGap = 0.1
)

// fold holds row indices into the (sorted) dataset. train and test never share an index.
type fold struct {
	train []int
	test  []int
}

func indexRange(lo, hi int) []int {
	out := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, i)
	}
	return out
}

func pick(rows []models.PriceMovement, idx []int) []models.PriceMovement {
	out := make([]models.PriceMovement, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

// rowsOf returns floor(n*f), nudged so exact products are not lost to rounding.
func rowsOf(n int, f float64) int {
	return int(math.Floor(float64(n)*f + 1e-9))
}

// normalizeConfig applies defaults and checks the fields the strategies depend on.
func normalizeConfig(cfg models.ValidationConfig) (models.ValidationConfig, error) {
	if err := validate.Struct(&cfg); err != nil {
		return cfg, err
	}
	if cfg.MinimumTrainWindowSize+cfg.StepSize > 1 {
		return cfg, errs.InvalidConfigurationf("minimum_train_window_size",
			"train window %.2f plus step %.2f exceeds the dataset", cfg.MinimumTrainWindowSize, cfg.StepSize)
	}
	return cfg, nil
}

// runner executes planned folds against an optimization method and aggregates scores.
type runner struct {
	name  string
	vtype models.ValidationType
	cfg   models.ValidationConfig
}

func (r runner) run(ctx context.Context, rows []models.PriceMovement, plan []fold, method domsvc.OptimizationMethod) (models.CrossValidationResult, error) {
	res := models.CrossValidationResult{
		Strategy: r.vtype,
		Folds:    make([]models.CrossValidationFold, 0, len(plan)),
		Metrics:  map[string]float64{},
	}
	if len(plan) == 0 {
		return res, errs.InsufficientData(r.name, 1, 0).WithParam("folds", 0)
	}

	var lastErr error
	for i, f := range plan {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		train, test := pick(rows, f.train), pick(rows, f.test)

		boundaries, err := method.Train(ctx, train)
		if err != nil {
			if errors.Is(err, errs.ErrInvalidConfiguration) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return res, err
			}
			lastErr = err
			res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("fold %d: %v", i, err))
			continue
		}

		res.Folds = append(res.Folds, models.CrossValidationFold{
			FoldIndex:             i,
			TrainingScore:         method.Evaluate(boundaries, train),
			ValidationScore:       method.Evaluate(boundaries, test),
			TrainingBoundaries:    boundaries,
			ValidationResult:      compareBoundaries(boundaries, train, test, method),
			TrainingSampleCount:   len(train),
			ValidationSampleCount: len(test),
			Period:                foldPeriod(train, test),
		})
	}

	if len(res.Folds) == 0 {
		return res, errs.ConvergenceFailure(r.name, len(plan), res.Diagnostics, lastErr)
	}
	r.aggregate(&res, len(plan))
	return res, nil
}

func (r runner) aggregate(res *models.CrossValidationResult, planned int) {
	n := len(res.Folds)
	trainScores := make([]float64, n)
	res.FoldScores = make([]float64, n)
	var boundaries, degradation float64
	for i, f := range res.Folds {
		trainScores[i] = f.TrainingScore
		res.FoldScores[i] = f.ValidationScore
		boundaries += float64(len(f.TrainingBoundaries))
		degradation += f.ValidationResult.MeanDegradation
	}

	res.MeanScore = features.Mean(res.FoldScores)
	res.StdDevScore = features.StdDev(res.FoldScores)
	half := features.ZScore(r.cfg.ConfidenceLevel) * res.StdDevScore / math.Sqrt(float64(n))
	res.ConfidenceInterval = models.ConfidenceInterval{
		Lower: res.MeanScore - half,
		Upper: res.MeanScore + half,
		Level: r.cfg.ConfidenceLevel,
	}
	res.MeanTrainingScore = features.Mean(trainScores)
	res.MeanValidationScore = res.MeanScore
	res.IsOverfitting = res.MeanTrainingScore-res.MeanValidationScore > OverfittingGap

	res.Metrics["folds"] = float64(n)
	res.Metrics["failed_folds"] = float64(planned - n)
	res.Metrics["mean_boundaries"] = boundaries / float64(n)
	res.Metrics["mean_boundary_degradation"] = degradation / float64(n)
}

// bestLookback is the training size of the fold with the highest validation score.
func bestLookback(folds []models.CrossValidationFold) int {
	best, size := math.Inf(-1), 0
	for _, f := range folds {
		if f.ValidationScore > best {
			best, size = f.ValidationScore, f.TrainingSampleCount
		}
	}
	return size
}

// compareBoundaries measures each boundary on the training and held-out rows.
func compareBoundaries(bs []models.OptimalBoundary, train, test []models.PriceMovement, method domsvc.OptimizationMethod) models.ValidationResult {
	vr := models.ValidationResult{Boundaries: make([]models.BoundaryValidation, 0, len(bs))}
	if len(bs) == 0 {
		return vr
	}
	var sum float64
	for _, b := range bs {
		single := []models.OptimalBoundary{b}
		in, out := method.Evaluate(single, train), method.Evaluate(single, test)
		deg := Degradation(in, out)
		vr.Boundaries = append(vr.Boundaries, models.BoundaryValidation{
			Boundary:               b,
			InSampleHitRate:        in,
			OutOfSampleHitRate:     out,
			InSampleCount:          countIn(b, train),
			OutOfSampleCount:       countIn(b, test),
			PerformanceDegradation: deg,
			IsUnstable:             deg >= UnstableDegradation,
		})
		sum += deg
	}
	vr.MeanDegradation = sum / float64(len(bs))
	vr.IsOverfitted = vr.MeanDegradation >= UnstableDegradation
	return vr
}

// Degradation is |in - out| / in; with in == 0 it is 0 when out is also 0, else 1.
func Degradation(in, out float64) float64 {
	if in == 0 {
		if out == 0 {
			return 0
		}
		return 1
	}
	return math.Abs(in-out) / in
}

func countIn(b models.OptimalBoundary, rows []models.PriceMovement) int {
	n := 0
	for _, r := range rows {
		if b.Contains(r.MeasurementValue) {
			n++
		}
	}
	return n
}

// foldPeriod spans the earliest to the latest timestamp across both partitions.
func foldPeriod(train, test []models.PriceMovement) models.Period {
	p, ok := features.Span(features.Concat(train, test))
	if !ok {
		return models.Period{}
	}
	return p
}
