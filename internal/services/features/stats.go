package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// StdDev returns the Bessel-corrected sample standard deviation, 0 for fewer than 2 values.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// Variance returns the Bessel-corrected sample variance, 0 for fewer than 2 values.
func Variance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.Variance(xs, nil)
}

// Correlation returns the Pearson correlation of x and y. ok is false when the
// coefficient is undefined: fewer than 3 pairs, mismatched lengths, or a constant series.
func Correlation(x, y []float64) (r float64, ok bool) {
	if len(x) != len(y) || len(x) < 3 {
		return 0, false
	}
	if Variance(x) == 0 || Variance(y) == 0 {
		return 0, false
	}
	r = stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

// Slope fits ys against their index by least squares and returns the slope.
func Slope(ys []float64) float64 {
	if len(ys) < 2 {
		return 0
	}
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(beta) {
		return 0
	}
	return beta
}

// ZScore returns the two-sided normal critical value for a confidence level in (0,1).
func ZScore(level float64) float64 {
	if level <= 0 || level >= 1 {
		return 0
	}
	return distuv.UnitNormal.Quantile(1 - (1-level)/2)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
