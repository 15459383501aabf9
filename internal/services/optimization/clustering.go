package optimization

import (
	"math"

	"BoundaryLab/internal/domain/errs"
	"BoundaryLab/internal/domain/models"
	domsvc "BoundaryLab/internal/domain/service"
	"BoundaryLab/internal/services/features"
)

// ClusteringStrategy groups measurement values with 1-D k-means and scores each
// cluster's value span as a candidate boundary.
type ClusteringStrategy struct {
	base
}

var _ domsvc.OptimizationStrategy = (*ClusteringStrategy)(nil)

func NewClusteringStrategy() *ClusteringStrategy {
	return &ClusteringStrategy{base: base{method: models.MethodClustering}}
}

func (s *ClusteringStrategy) Optimize(training []models.PriceMovement, cfg models.MLOptimizationConfig) (models.OptimizationResult, error) {
	k := int(cfg.Param("n_clusters", 3))
	minSize := int(cfg.Param("min_cluster_size", 5))
	if k < 1 || k > 100 {
		return models.OptimizationResult{}, errs.InvalidConfigurationf("n_clusters", "must be in [1,100], got %d", k)
	}
	if minSize < 1 {
		return models.OptimizationResult{}, errs.InvalidConfigurationf("min_cluster_size", "must be >= 1, got %d", minSize)
	}
	res, ok := s.precheck(training, cfg)
	if !ok {
		return res, nil
	}

	xs := sortedValues(training)
	if d := features.DistinctMeasurements(training); k > d {
		k = d
	}
	assign, iterations := kmeans1D(xs, k, cfg.MaxIterations)

	target := cfg.TargetATRMove
	out := make([]models.OptimalBoundary, 0, k)
	dropped := 0
	for c := 0; c < k; c++ {
		low, high, n := math.Inf(1), math.Inf(-1), 0
		for i, a := range assign {
			if a != c {
				continue
			}
			low = math.Min(low, xs[i])
			high = math.Max(high, xs[i])
			n++
		}
		if n < minSize || low >= high {
			dropped++
			continue
		}
		st := features.StatsInRange(training, low, high, target)
		if st.HitRate <= cfg.HitRateFloor() {
			dropped++
			continue
		}
		out = append(out, features.NewBoundary(low, high, st, s.method))
	}

	res = s.finish(res, out, training, target)
	res.Iterations = iterations
	res.Diagnostics = map[string]float64{
		"clusters": float64(k),
		"dropped":  float64(dropped),
	}
	return res, nil
}

// kmeans1D runs Lloyd's algorithm on sorted values with centroids seeded at evenly
// spaced quantiles. It returns the cluster of each value and the iterations used.
func kmeans1D(xs []float64, k, maxIter int) ([]int, int) {
	n := len(xs)
	if maxIter < 1 {
		maxIter = 1
	}
	centroids := make([]float64, k)
	for j := range centroids {
		idx := int(float64(j)*float64(n)/float64(k) + float64(n)/float64(2*k))
		if idx >= n {
			idx = n - 1
		}
		centroids[j] = xs[idx]
	}

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	iter := 0
	for iter < maxIter {
		iter++
		changed := false
		for i, x := range xs {
			best, bestDist := 0, math.Abs(x-centroids[0])
			for j := 1; j < k; j++ {
				if d := math.Abs(x - centroids[j]); d < bestDist {
					best, bestDist = j, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([]float64, k)
		counts := make([]int, k)
		for i, a := range assign {
			sums[a] += xs[i]
			counts[a]++
		}
		for j := range centroids {
			if counts[j] > 0 {
				centroids[j] = sums[j] / float64(counts[j])
			}
		}
	}
	return assign, iter
}
