package optimization

import (
	"math"

	"BoundaryLab/internal/domain/errs"
	"BoundaryLab/internal/domain/models"
	domsvc "BoundaryLab/internal/domain/service"
	"BoundaryLab/internal/services/features"
)

const (
	gradientEpsilon  = 0.01
	gradientPatience = 5
	fullWeightCount  = 30
)

// GradientSearchStrategy hill-climbs (lower, upper) pairs in normalized measurement
// space from several overlapping starting ranges.
type GradientSearchStrategy struct {
	base
}

var _ domsvc.OptimizationStrategy = (*GradientSearchStrategy)(nil)

func NewGradientSearchStrategy() *GradientSearchStrategy {
	return &GradientSearchStrategy{base: base{method: models.MethodGradientSearch}}
}

type gradientParams struct {
	starts       int
	width        float64
	learningRate float64
	minObjective float64
}

func (s *GradientSearchStrategy) params(cfg models.MLOptimizationConfig) (gradientParams, error) {
	p := gradientParams{
		starts:       int(cfg.Param("initial_ranges", 5)),
		width:        cfg.Param("initial_width", 0.4),
		learningRate: cfg.Param("learning_rate", 0.01),
		minObjective: cfg.Param("min_objective", 0.1),
	}
	if p.starts < 1 || p.starts > 100 {
		return p, errs.InvalidConfigurationf("initial_ranges", "must be in [1,100], got %d", p.starts)
	}
	if p.width <= gradientEpsilon || p.width > 1 {
		return p, errs.InvalidConfigurationf("initial_width", "must be in (%.2f,1], got %.4f", gradientEpsilon, p.width)
	}
	if p.learningRate <= 0 || p.learningRate > 1 {
		return p, errs.InvalidConfigurationf("learning_rate", "must be in (0,1], got %.4f", p.learningRate)
	}
	return p, nil
}

// searchSpace maps normalized bounds back to measurement values and scores them.
type searchSpace struct {
	rows   []models.PriceMovement
	low    float64
	width  float64
	target float64
}

func (sp searchSpace) denorm(u float64) float64 { return sp.low + u*sp.width }

// objective is hitRate weighted by min(1, n/30).
func (sp searchSpace) objective(l, u float64) float64 {
	if u <= l {
		return 0
	}
	st := features.StatsInRange(sp.rows, sp.denorm(l), sp.denorm(u), sp.target)
	if st.Count == 0 {
		return 0
	}
	return st.HitRate * math.Min(1, float64(st.Count)/fullWeightCount)
}

func (s *GradientSearchStrategy) Optimize(training []models.PriceMovement, cfg models.MLOptimizationConfig) (models.OptimizationResult, error) {
	p, err := s.params(cfg)
	if err != nil {
		return models.OptimizationResult{}, err
	}
	res, ok := s.precheck(training, cfg)
	if !ok {
		return res, nil
	}

	low, high, _ := features.ValueRange(training)
	sp := searchSpace{rows: training, low: low, width: high - low, target: cfg.TargetATRMove}

	candidates := make([]models.OptimalBoundary, 0, p.starts)
	totalIter, converged, discarded := 0, 0, 0
	for i := 0; i < p.starts; i++ {
		l, u := startRange(i, p.starts, p.width)
		l, u, score, iter, done := s.climb(sp, l, u, p.learningRate, cfg)
		totalIter += iter
		if done {
			converged++
		}
		if score < p.minObjective {
			discarded++
			continue
		}
		lo, hi := sp.denorm(l), sp.denorm(u)
		st := features.StatsInRange(training, lo, hi, cfg.TargetATRMove)
		if st.Count == 0 || lo >= hi {
			discarded++
			continue
		}
		candidates = append(candidates, features.NewBoundary(lo, hi, st, s.method))
	}

	merged := features.RemoveOverlaps(candidates)
	res = s.finish(res, merged, training, cfg.TargetATRMove)
	res.Iterations = totalIter
	res.Diagnostics = map[string]float64{
		"starts":    float64(p.starts),
		"converged": float64(converged),
		"discarded": float64(discarded),
		"merged":    float64(len(candidates) - len(merged)),
	}
	return res, nil
}

// startRange spreads n overlapping ranges of the given width across [0,1].
func startRange(i, n int, width float64) (float64, float64) {
	if n == 1 {
		return 0.5 - width/2, 0.5 + width/2
	}
	center := width/2 + float64(i)*(1-width)/float64(n-1)
	return center - width/2, center + width/2
}

// climb moves both bounds along a symmetric finite-difference gradient until the score
// has changed by less than the convergence threshold for gradientPatience consecutive
// steps, or maxIterations is reached.
func (s *GradientSearchStrategy) climb(sp searchSpace, l, u, lr float64, cfg models.MLOptimizationConfig) (float64, float64, float64, int, bool) {
	score := sp.objective(l, u)
	stable, iter := 0, 0
	for iter < cfg.MaxIterations {
		iter++
		gl := (sp.objective(l+gradientEpsilon, u) - sp.objective(l-gradientEpsilon, u)) / (2 * gradientEpsilon)
		gu := (sp.objective(l, u+gradientEpsilon) - sp.objective(l, u-gradientEpsilon)) / (2 * gradientEpsilon)
		l = features.Clamp(l+lr*gl, 0, 1)
		u = features.Clamp(u+lr*gu, 0, 1)
		if u-l < gradientEpsilon {
			mid := (l + u) / 2
			l = features.Clamp(mid-gradientEpsilon/2, 0, 1-gradientEpsilon)
			u = l + gradientEpsilon
		}

		next := sp.objective(l, u)
		if math.Abs(next-score) < cfg.ConvergenceThreshold {
			stable++
		} else {
			stable = 0
		}
		score = next
		if stable >= gradientPatience {
			return l, u, score, iter, true
		}
	}
	return l, u, score, iter, false
}
