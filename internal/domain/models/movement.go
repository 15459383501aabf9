package models

import "time"

// PriceMovement is one observation: the measurement taken at StartTimestamp and the
// ATR-normalized price move that followed it.
type PriceMovement struct {
	StartTimestamp   time.Time          `json:"start_timestamp"`
	Symbol           string             `json:"symbol,omitempty"`
	MeasurementValue float64            `json:"measurement_value"`
	ATRMovement      float64            `json:"atr_movement"`
	Direction        int                `json:"direction"`
	ContextualData   map[string]float64 `json:"contextual_data,omitempty"`
}

// NewPriceMovement builds a movement; Direction is the sign of atrMovement.
func NewPriceMovement(ts time.Time, measurement, atrMovement float64) PriceMovement {
	return PriceMovement{
		StartTimestamp:   ts,
		MeasurementValue: measurement,
		ATRMovement:      atrMovement,
		Direction:        Sign(atrMovement),
	}
}

// Sign returns -1, 0 or 1.
func Sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Period is a half-open calendar interval [Start, End).
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns End - Start.
func (p Period) Duration() time.Duration { return p.End.Sub(p.Start) }

// Contains reports whether t falls in [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// IsValid reports whether the period has positive length.
func (p Period) IsValid() bool { return p.End.After(p.Start) }
