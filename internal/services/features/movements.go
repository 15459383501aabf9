package features

import (
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"BoundaryLab/internal/domain/models"
)

// Measurements extracts the measurement column.
func Measurements(rows []models.PriceMovement) []float64 {
	return lo.Map(rows, func(r models.PriceMovement, _ int) float64 { return r.MeasurementValue })
}

// ATRMoves extracts the signed ATR movement column.
func ATRMoves(rows []models.PriceMovement) []float64 {
	return lo.Map(rows, func(r models.PriceMovement, _ int) float64 { return r.ATRMovement })
}

// IsPositive reports whether a row belongs to the positive class for target.
func IsPositive(r models.PriceMovement, target float64) bool {
	return math.Abs(r.ATRMovement) >= target
}

// CountPositive counts positive-class rows.
func CountPositive(rows []models.PriceMovement, target float64) int {
	return lo.CountBy(rows, func(r models.PriceMovement) bool { return IsPositive(r, target) })
}

// IsFinite reports whether both the measurement and the ATR move are finite.
func IsFinite(r models.PriceMovement) bool {
	return !math.IsNaN(r.MeasurementValue) && !math.IsInf(r.MeasurementValue, 0) &&
		!math.IsNaN(r.ATRMovement) && !math.IsInf(r.ATRMovement, 0)
}

// CountNonFinite counts rows carrying NaN or infinite values.
func CountNonFinite(rows []models.PriceMovement) int {
	return lo.CountBy(rows, func(r models.PriceMovement) bool { return !IsFinite(r) })
}

// DistinctMeasurements counts distinct measurement values.
func DistinctMeasurements(rows []models.PriceMovement) int {
	return len(lo.Uniq(Measurements(rows)))
}

// ValueRange returns the min and max measurement. ok is false for empty input.
func ValueRange(rows []models.PriceMovement) (low, high float64, ok bool) {
	if len(rows) == 0 {
		return 0, 0, false
	}
	low, high = rows[0].MeasurementValue, rows[0].MeasurementValue
	for _, r := range rows[1:] {
		low = math.Min(low, r.MeasurementValue)
		high = math.Max(high, r.MeasurementValue)
	}
	return low, high, true
}

// SortByTime returns a copy of rows stably ordered by StartTimestamp.
func SortByTime(rows []models.PriceMovement) []models.PriceMovement {
	out := make([]models.PriceMovement, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTimestamp.Before(out[j].StartTimestamp)
	})
	return out
}

// InPeriod returns the rows whose timestamp falls in p.
func InPeriod(rows []models.PriceMovement, p models.Period) []models.PriceMovement {
	return lo.Filter(rows, func(r models.PriceMovement, _ int) bool { return p.Contains(r.StartTimestamp) })
}

// Span returns the period covering rows; End is one nanosecond past the last
// timestamp so the last row is inside the half-open period.
func Span(rows []models.PriceMovement) (models.Period, bool) {
	if len(rows) == 0 {
		return models.Period{}, false
	}
	start, end := rows[0].StartTimestamp, rows[0].StartTimestamp
	for _, r := range rows[1:] {
		if r.StartTimestamp.Before(start) {
			start = r.StartTimestamp
		}
		if r.StartTimestamp.After(end) {
			end = r.StartTimestamp
		}
	}
	return models.Period{Start: start, End: end.Add(time.Nanosecond)}, true
}

// Concat joins row slices into a fresh slice.
func Concat(parts ...[]models.PriceMovement) []models.PriceMovement {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]models.PriceMovement, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
