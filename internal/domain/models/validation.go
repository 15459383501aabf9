package models

// ValidationType selects a cross-validation policy.
type ValidationType string

const (
	ValidationKFold           ValidationType = "kfold"
	ValidationExpandingWindow ValidationType = "expanding_window"
	ValidationRollingWindow   ValidationType = "rolling_window"
)

// BoundaryValidation compares one boundary's in-sample and out-of-sample hit rates.
type BoundaryValidation struct {
	Boundary               OptimalBoundary `json:"boundary"`
	InSampleHitRate        float64         `json:"in_sample_hit_rate"`
	OutOfSampleHitRate     float64         `json:"out_of_sample_hit_rate"`
	InSampleCount          int             `json:"in_sample_count"`
	OutOfSampleCount       int             `json:"out_of_sample_count"`
	PerformanceDegradation float64         `json:"performance_degradation"`
	IsUnstable             bool            `json:"is_unstable"`
}

// ValidationResult aggregates the per-boundary comparisons of one fold.
type ValidationResult struct {
	Boundaries      []BoundaryValidation `json:"boundaries"`
	MeanDegradation float64              `json:"mean_degradation"`
	IsOverfitted    bool                 `json:"is_overfitted"`
}

// CrossValidationFold is one train/validation split and its scores.
type CrossValidationFold struct {
	FoldIndex             int               `json:"fold_index"`
	TrainingScore         float64           `json:"training_score"`
	ValidationScore       float64           `json:"validation_score"`
	TrainingBoundaries    []OptimalBoundary `json:"training_boundaries"`
	ValidationResult      ValidationResult  `json:"validation_result"`
	TrainingSampleCount   int               `json:"training_sample_count"`
	ValidationSampleCount int               `json:"validation_sample_count"`
	Period                Period            `json:"period"`
}

// ConfidenceInterval is a symmetric interval around a mean.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Level float64 `json:"level"`
}

// CrossValidationResult holds aggregate statistics over all folds.
type CrossValidationResult struct {
	Strategy            ValidationType        `json:"strategy"`
	Folds               []CrossValidationFold `json:"folds"`
	FoldScores          []float64             `json:"fold_scores"`
	MeanScore           float64               `json:"mean_score"`
	StdDevScore         float64               `json:"std_dev_score"`
	ConfidenceInterval  ConfidenceInterval    `json:"confidence_interval"`
	MeanTrainingScore   float64               `json:"mean_training_score"`
	MeanValidationScore float64               `json:"mean_validation_score"`
	IsOverfitting       bool                  `json:"is_overfitting"`
	Metrics             map[string]float64    `json:"metrics"`
	Diagnostics         []string              `json:"diagnostics,omitempty"`
}

// TimeSeriesCrossValidationResult adds temporal stability to CrossValidationResult.
type TimeSeriesCrossValidationResult struct {
	CrossValidationResult
	IsStationary          bool    `json:"is_stationary"`
	TemporalDegradation   float64 `json:"temporal_degradation"`
	OptimalLookbackWindow int     `json:"optimal_lookback_window"`
}

// BiasVariance summarizes the gap between training and validation scores.
type BiasVariance struct {
	TrainMean        float64 `json:"train_mean"`
	TrainStdDev      float64 `json:"train_std_dev"`
	ValidationMean   float64 `json:"validation_mean"`
	ValidationStdDev float64 `json:"validation_std_dev"`
	Gap              float64 `json:"bias_variance_gap"`
	OverfittingRisk  float64 `json:"overfitting_risk"`
}

// DataQuality describes the dataset handed to a validation run.
type DataQuality struct {
	Count          int     `json:"count"`
	DistinctValues int     `json:"distinct_values"`
	SparsityRatio  float64 `json:"sparsity_ratio"`
	PositiveRatio  float64 `json:"positive_ratio"`
}

// CrossValidationReport is the CrossValidationService output.
type CrossValidationReport struct {
	TimeSeriesCrossValidationResult
	Method         string       `json:"method"`
	BiasVariance   BiasVariance `json:"bias_variance"`
	StabilityScore float64      `json:"stability_score"`
	DataQuality    DataQuality  `json:"data_quality"`
}
