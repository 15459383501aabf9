package models

// OptimizationMethod names the strategy family that produced a boundary.
type OptimizationMethod string

const (
	MethodDecisionTree   OptimizationMethod = "decision_tree"
	MethodClustering     OptimizationMethod = "clustering"
	MethodGradientSearch OptimizationMethod = "gradient_search"
	MethodEnsemble       OptimizationMethod = "ensemble"
)

// OptimalBoundary is a contiguous measurement interval with its predictive statistics.
// Created at training time; read-only afterwards.
type OptimalBoundary struct {
	RangeLow        float64            `json:"range_low"`
	RangeHigh       float64            `json:"range_high"`
	ExpectedATRMove float64            `json:"expected_atr_move"`
	HitRate         float64            `json:"hit_rate"`
	SampleCount     int                `json:"sample_count"`
	Confidence      float64            `json:"confidence"`
	Method          OptimizationMethod `json:"method"`
}

// Contains reports whether v lies in the closed interval [RangeLow, RangeHigh].
func (b OptimalBoundary) Contains(v float64) bool {
	return v >= b.RangeLow && v <= b.RangeHigh
}

// TradeDirection is the side a boundary predicts: 1 when ExpectedATRMove >= 0, else -1.
func (b OptimalBoundary) TradeDirection() int {
	if b.ExpectedATRMove < 0 {
		return -1
	}
	return 1
}

// Overlaps reports whether two boundaries share any value.
func (b OptimalBoundary) Overlaps(o OptimalBoundary) bool {
	return b.RangeLow <= o.RangeHigh && o.RangeLow <= b.RangeHigh
}

// DataValidation lists the problems found in a training set. Errors block training,
// warnings do not.
type DataValidation struct {
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// OK reports whether training may proceed.
func (v DataValidation) OK() bool { return len(v.Errors) == 0 }

// OptimizationResult is the output of a single strategy run.
type OptimizationResult struct {
	Method      OptimizationMethod `json:"method"`
	Boundaries  []OptimalBoundary  `json:"boundaries"`
	Score       float64            `json:"score"`
	Iterations  int                `json:"iterations,omitempty"`
	Errors      []string           `json:"errors,omitempty"`
	Warnings    []string           `json:"warnings,omitempty"`
	Diagnostics map[string]float64 `json:"diagnostics,omitempty"`
}

// Abstained reports whether the strategy produced no boundaries.
func (r OptimizationResult) Abstained() bool { return len(r.Boundaries) == 0 }

// OptimizationOutcome is the merged result of all enabled strategies for one target.
type OptimizationOutcome struct {
	TargetATRMove   float64              `json:"target_atr_move"`
	Boundaries      []OptimalBoundary    `json:"boundaries"`
	Score           float64              `json:"score"`
	SampleCount     int                  `json:"sample_count"`
	StrategyResults []OptimizationResult `json:"strategy_results"`
	Diagnostics     []string             `json:"diagnostics,omitempty"`
}
