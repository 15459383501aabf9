package models

import "time"

// WalkForwardWindow is a calendar-ordered in-sample/out-of-sample pair.
type WalkForwardWindow struct {
	Index             int    `json:"index"`
	InSamplePeriod    Period `json:"in_sample_period"`
	OutOfSamplePeriod Period `json:"out_of_sample_period"`
}

// WalkForwardWindowResult is the correlation analysis of one window.
type WalkForwardWindowResult struct {
	Window                 WalkForwardWindow `json:"window"`
	InSampleCount          int               `json:"in_sample_count"`
	OutOfSampleCount       int               `json:"out_of_sample_count"`
	InSampleCorrelation    float64           `json:"in_sample_correlation"`
	OutOfSampleCorrelation float64           `json:"out_of_sample_correlation"`
	PerformanceDegradation float64           `json:"performance_degradation"`
	IsSignificant          bool              `json:"is_significant"`
	// Indeterminate is set when either subset cannot carry a correlation
	// (fewer than three rows or zero variance).
	Indeterminate bool            `json:"indeterminate"`
	Backtest      *BacktestResult `json:"backtest,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// WalkForwardResults aggregates all windows.
type WalkForwardResults struct {
	TargetATRMove          float64                   `json:"target_atr_move"`
	Windows                []WalkForwardWindowResult `json:"windows"`
	AverageInSampleCorr    float64                   `json:"average_in_sample_correlation"`
	AverageOutOfSampleCorr float64                   `json:"average_out_of_sample_correlation"`
	CorrelationStdDev      float64                   `json:"correlation_std_dev"`
	AverageDegradation     float64                   `json:"average_degradation"`
	SignificantWindows     int                       `json:"significant_windows"`
	DeterminateWindows     int                       `json:"determinate_windows"`
	IsStable               bool                      `json:"is_stable"`
	StabilityScore         float64                   `json:"stability_score"`
	Indeterminate          bool                      `json:"indeterminate"`
}

// Trade is one simulated position taken because a movement fell inside a boundary.
type Trade struct {
	Timestamp        time.Time `json:"timestamp"`
	BoundaryIndex    int       `json:"boundary_index"`
	MeasurementValue float64   `json:"measurement_value"`
	Direction        int       `json:"direction"`
	ActualATRMove    float64   `json:"actual_atr_move"`
	Return           float64   `json:"return"`
	Win              bool      `json:"win"`
	Equity           float64   `json:"equity"`
}

// BacktestResult summarizes a boundary backtest.
type BacktestResult struct {
	TotalTrades   int                `json:"total_trades"`
	WinningTrades int                `json:"winning_trades"`
	LosingTrades  int                `json:"losing_trades"`
	HitRate       float64            `json:"hit_rate"`
	AverageReturn float64            `json:"average_return"`
	TotalReturn   float64            `json:"total_return"`
	SharpeRatio   float64            `json:"sharpe_ratio"`
	MaxDrawdown   float64            `json:"max_drawdown"`
	RiskMetrics   map[string]float64 `json:"risk_metrics"`
	Trades        []Trade            `json:"trades,omitempty"`
}
