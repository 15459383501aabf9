package models

// Requests for the HTTP endpoints. Defined in domain for consistency and reuse.

type AnalysisRequest struct {
	Symbol     string  `query:"symbol" json:"symbol" validate:"required"`
	From       string  `query:"from" json:"from"`
	To         string  `query:"to" json:"to"`
	TargetATR  float64 `query:"target_atr" json:"target_atr" default:"2.0" validate:"gt=0,lte=50"`
	Validation string  `query:"validation" json:"validation" default:"expanding_window" validate:"oneof=kfold expanding_window rolling_window"`
	Windows    int     `query:"windows" json:"windows" default:"5" validate:"gte=1,lte=500"`
	Limit      int     `query:"limit" json:"limit" default:"5000" validate:"gte=10,lte=200000"`
}

type WindowsRequest struct {
	From  string `query:"from" json:"from" validate:"required"`
	To    string `query:"to" json:"to" validate:"required"`
	Count int    `query:"count" json:"count" default:"5" validate:"gte=1,lte=500"`
}

type BacktestRequest struct {
	Symbol     string            `json:"symbol" validate:"required"`
	From       string            `json:"from"`
	To         string            `json:"to"`
	TargetATR  float64           `json:"target_atr" default:"2.0" validate:"gt=0,lte=50"`
	Boundaries []OptimalBoundary `json:"boundaries" validate:"required,min=1,dive"`
	Limit      int               `json:"limit" default:"5000" validate:"gte=1,lte=200000"`
}
