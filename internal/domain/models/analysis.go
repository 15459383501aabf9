package models

import "time"

// AnalysisReport consolidates every stage of one analysis run.
type AnalysisReport struct {
	ID              string                 `json:"id"`
	Symbol          string                 `json:"symbol"`
	Timestamp       time.Time              `json:"timestamp"`
	TargetATRMove   float64                `json:"target_atr_move"`
	SampleCount     int                    `json:"sample_count"`
	OutliersDropped int                    `json:"outliers_dropped"`
	InSamplePeriod  Period                 `json:"in_sample_period"`
	HoldoutPeriod   *Period                `json:"holdout_period,omitempty"`
	Optimization    *OptimizationOutcome   `json:"optimization,omitempty"`
	Holdout         *BacktestResult        `json:"holdout,omitempty"`
	CrossValidation *CrossValidationReport `json:"cross_validation,omitempty"`
	WalkForward     *WalkForwardResults    `json:"walk_forward,omitempty"`
	Errors          map[string]string      `json:"errors,omitempty"`
}

// AnalysisEvent is the message published when an analysis completes.
type AnalysisEvent struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Timestamp      time.Time `json:"timestamp"`
	TargetATRMove  float64   `json:"target_atr_move"`
	Boundaries     int       `json:"boundaries"`
	Score          float64   `json:"score"`
	HoldoutHitRate float64   `json:"holdout_hit_rate"`
	ValidationMean float64   `json:"validation_mean"`
	IsOverfitting  bool      `json:"is_overfitting"`
	IsStable       bool      `json:"is_stable"`
	FailedStages   []string  `json:"failed_stages,omitempty"`
}
