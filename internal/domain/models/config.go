package models

import "github.com/samber/lo"

const (
	DefaultMinimumHitRate     = 0.1
	DefaultHoldoutFraction    = 0.2
	DefaultMinimumCorrelation = 0.1
)

// MLOptimizationConfig drives the optimization strategies. Zero numeric fields are
// filled from the `default` tags by pkg/validate; the enable flags have no tag
// because false is a meaningful setting. Thresholds where zero is meaningful are
// pointers so an explicit 0 survives defaulting.
type MLOptimizationConfig struct {
	TargetATRMove         float64            `yaml:"target_atr_move" json:"target_atr_move" default:"2.0" validate:"gt=0"`
	MaxRanges             int                `yaml:"max_ranges" json:"max_ranges" default:"5" validate:"gte=1,lte=50"`
	EnableDecisionTree    bool               `yaml:"enable_decision_tree" json:"enable_decision_tree"`
	EnableClustering      bool               `yaml:"enable_clustering" json:"enable_clustering"`
	EnableGradientSearch  bool               `yaml:"enable_gradient_search" json:"enable_gradient_search"`
	MaxIterations         int                `yaml:"max_iterations" json:"max_iterations" default:"1000" validate:"gte=1,lte=100000"`
	ConvergenceThreshold  float64            `yaml:"convergence_threshold" json:"convergence_threshold" default:"0.0001" validate:"gt=0,lt=1"`
	MinimumSamplesPerLeaf int                `yaml:"minimum_samples_per_leaf" json:"minimum_samples_per_leaf" default:"10" validate:"gte=1"`
	MinimumHitRate        *float64           `yaml:"minimum_hit_rate" json:"minimum_hit_rate,omitempty" default:"0.1" validate:"omitempty,gte=0,lt=1"`
	MinimumSamples        int                `yaml:"minimum_samples" json:"minimum_samples" default:"30" validate:"gte=1"`
	AlgorithmParameters   map[string]float64 `yaml:"algorithm_parameters" json:"algorithm_parameters,omitempty"`
}

// DefaultMLOptimizationConfig returns a config with every strategy enabled.
func DefaultMLOptimizationConfig() MLOptimizationConfig {
	return MLOptimizationConfig{
		TargetATRMove:         2.0,
		MaxRanges:             5,
		EnableDecisionTree:    true,
		EnableClustering:      true,
		EnableGradientSearch:  true,
		MaxIterations:         1000,
		ConvergenceThreshold:  0.0001,
		MinimumSamplesPerLeaf: 10,
		MinimumHitRate:        lo.ToPtr(DefaultMinimumHitRate),
		MinimumSamples:        30,
	}
}

// Param returns AlgorithmParameters[key] or def when absent.
func (c MLOptimizationConfig) Param(key string, def float64) float64 {
	if v, ok := c.AlgorithmParameters[key]; ok {
		return v
	}
	return def
}

// HitRateFloor is the hit rate a leaf or cluster must exceed to become a boundary.
func (c MLOptimizationConfig) HitRateFloor() float64 {
	return lo.FromPtrOr(c.MinimumHitRate, DefaultMinimumHitRate)
}

// WithTarget returns a copy of the config aimed at another ATR move.
func (c MLOptimizationConfig) WithTarget(target float64) MLOptimizationConfig {
	c.TargetATRMove = target
	return c
}

// ValidationConfig drives cross-validation and walk-forward window construction.
// MinimumTrainWindowSize and StepSize are fractions of the dataset.
type ValidationConfig struct {
	KFolds                 int      `yaml:"k_folds" json:"k_folds" default:"5" validate:"gte=2,lte=50"`
	MinimumTrainWindowSize float64  `yaml:"minimum_train_window_size" json:"minimum_train_window_size" default:"0.3" validate:"gt=0,lt=1"`
	StepSize               float64  `yaml:"step_size" json:"step_size" default:"0.1" validate:"gt=0,lt=1"`
	ConfidenceLevel        float64  `yaml:"confidence_level" json:"confidence_level" default:"0.95" validate:"gt=0,lt=1"`
	MaxWalkForwardWindows  int      `yaml:"max_walk_forward_windows" json:"max_walk_forward_windows" default:"20" validate:"gte=1,lte=500"`
	TrainingPercentage     float64  `yaml:"training_percentage" json:"training_percentage" default:"0.6" validate:"gt=0,lt=1"`
	TestingPercentage      float64  `yaml:"testing_percentage" json:"testing_percentage" default:"0.4" validate:"gt=0,lt=1"`
	AdvancementFactor      float64  `yaml:"advancement_factor" json:"advancement_factor" default:"1.0" validate:"gt=0,lte=1"`
	MinimumSamples         int      `yaml:"minimum_samples" json:"minimum_samples" default:"50" validate:"gte=2"`
	RiskPerTrade           float64  `yaml:"risk_per_trade" json:"risk_per_trade" default:"0.01" validate:"gt=0,lte=1"`
	HoldoutFraction        *float64 `yaml:"holdout_fraction" json:"holdout_fraction,omitempty" default:"0.2" validate:"omitempty,gte=0,lt=1"`
}

// StatisticalConfig holds significance and stability thresholds.
type StatisticalConfig struct {
	MinimumCorrelation *float64 `yaml:"minimum_correlation" json:"minimum_correlation,omitempty" default:"0.1" validate:"omitempty,gte=0,lt=1"`
	StabilityThreshold float64  `yaml:"stability_threshold" json:"stability_threshold" default:"0.3" validate:"gt=0"`
}

// Holdout is the share of the newest rows kept out of optimization; 0 disables it.
func (c ValidationConfig) Holdout() float64 {
	return lo.FromPtrOr(c.HoldoutFraction, DefaultHoldoutFraction)
}

// CorrelationFloor is the out-of-sample |correlation| a window must exceed to count
// as significant.
func (c StatisticalConfig) CorrelationFloor() float64 {
	return lo.FromPtrOr(c.MinimumCorrelation, DefaultMinimumCorrelation)
}
