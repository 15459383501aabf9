package features

import (
	"math"
	"sort"

	"BoundaryLab/internal/domain/models"
)

// RangeStats summarizes the rows that fall inside a measurement interval.
type RangeStats struct {
	Count           int
	Positives       int
	ExpectedATRMove float64
	Direction       int
	Hits            int
	HitRate         float64
}

// StatsInRange computes RangeStats for the closed interval [low, high].
//
// ExpectedATRMove is the mean signed move of positive-class rows (all rows when none
// are positive). A hit is a row moving in that direction by at least target.
func StatsInRange(rows []models.PriceMovement, low, high, target float64) RangeStats {
	var st RangeStats
	var sumPos, sumAll float64
	for _, r := range rows {
		if r.MeasurementValue < low || r.MeasurementValue > high {
			continue
		}
		st.Count++
		sumAll += r.ATRMovement
		if IsPositive(r, target) {
			st.Positives++
			sumPos += r.ATRMovement
		}
	}
	if st.Count == 0 {
		st.Direction = 1
		return st
	}
	if st.Positives > 0 {
		st.ExpectedATRMove = sumPos / float64(st.Positives)
	} else {
		st.ExpectedATRMove = sumAll / float64(st.Count)
	}
	st.Direction = 1
	if st.ExpectedATRMove < 0 {
		st.Direction = -1
	}
	for _, r := range rows {
		if r.MeasurementValue < low || r.MeasurementValue > high {
			continue
		}
		if IsHit(st.Direction, r.ATRMovement, target) {
			st.Hits++
		}
	}
	st.HitRate = float64(st.Hits) / float64(st.Count)
	return st
}

// IsHit reports whether an actual move confirms a trade in direction dir.
func IsHit(dir int, actual, target float64) bool {
	return models.Sign(actual) == dir && math.Abs(actual) >= target
}

// SizeConfidence is min(1, n/100).
func SizeConfidence(n int) float64 {
	return math.Min(1, float64(n)/100)
}

// NewBoundary builds a boundary from stats with confidence averaged from size and rate.
func NewBoundary(low, high float64, st RangeStats, method models.OptimizationMethod) models.OptimalBoundary {
	return models.OptimalBoundary{
		RangeLow:        low,
		RangeHigh:       high,
		ExpectedATRMove: st.ExpectedATRMove,
		HitRate:         Clamp(st.HitRate, 0, 1),
		SampleCount:     st.Count,
		Confidence:      Clamp((SizeConfidence(st.Count)+st.HitRate)/2, 0, 1),
		Method:          method,
	}
}

// HitRateOf measures a trained boundary on rows: the fraction of in-range rows that
// move in the boundary's direction by at least target. in is the in-range count.
func HitRateOf(b models.OptimalBoundary, rows []models.PriceMovement, target float64) (rate float64, in int) {
	dir := b.TradeDirection()
	hits := 0
	for _, r := range rows {
		if !b.Contains(r.MeasurementValue) {
			continue
		}
		in++
		if IsHit(dir, r.ATRMovement, target) {
			hits++
		}
	}
	if in == 0 {
		return 0, 0
	}
	return float64(hits) / float64(in), in
}

// EvaluateBoundaries is the sample-weighted mean hit rate of boundaries on rows,
// 0 when no row falls in any boundary.
func EvaluateBoundaries(boundaries []models.OptimalBoundary, rows []models.PriceMovement, target float64) float64 {
	var weighted float64
	total := 0
	for _, b := range boundaries {
		rate, n := HitRateOf(b, rows, target)
		weighted += rate * float64(n)
		total += n
	}
	if total == 0 {
		return 0
	}
	return weighted / float64(total)
}

// RemoveOverlaps keeps, among overlapping boundaries, the one with the higher hit rate.
// Ties keep the earlier boundary. Survivors keep their input order.
func RemoveOverlaps(bs []models.OptimalBoundary) []models.OptimalBoundary {
	order := make([]int, len(bs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return bs[order[a]].HitRate > bs[order[b]].HitRate })

	accepted := make([]int, 0, len(bs))
	for _, idx := range order {
		clash := false
		for _, a := range accepted {
			if bs[idx].Overlaps(bs[a]) {
				clash = true
				break
			}
		}
		if !clash {
			accepted = append(accepted, idx)
		}
	}
	sort.Ints(accepted)

	out := make([]models.OptimalBoundary, 0, len(accepted))
	for _, idx := range accepted {
		out = append(out, bs[idx])
	}
	return out
}
