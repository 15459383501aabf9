package optimization

import (
	"fmt"

	"BoundaryLab/internal/domain/models"
	domsvc "BoundaryLab/internal/domain/service"
)

// FactoryFunc builds a strategy.
type FactoryFunc func() domsvc.OptimizationStrategy

var registry = map[models.OptimizationMethod]FactoryFunc{
	models.MethodDecisionTree:   func() domsvc.OptimizationStrategy { return NewDecisionTreeStrategy() },
	models.MethodClustering:     func() domsvc.OptimizationStrategy { return NewClusteringStrategy() },
	models.MethodGradientSearch: func() domsvc.OptimizationStrategy { return NewGradientSearchStrategy() },
}

// order fixes the sequence strategies run and merge in.
var order = []models.OptimizationMethod{
	models.MethodDecisionTree,
	models.MethodClustering,
	models.MethodGradientSearch,
}

// Create returns the strategy for method.
func Create(method models.OptimizationMethod) (domsvc.OptimizationStrategy, error) {
	f, ok := registry[method]
	if !ok {
		return nil, fmt.Errorf("unknown optimization method: %s", method)
	}
	return f(), nil
}

// Available lists every strategy method in run order.
func Available() []models.OptimizationMethod {
	out := make([]models.OptimizationMethod, len(order))
	copy(out, order)
	return out
}

// Enabled returns the strategies switched on in cfg, in run order.
func Enabled(cfg models.MLOptimizationConfig) []domsvc.OptimizationStrategy {
	flags := map[models.OptimizationMethod]bool{
		models.MethodDecisionTree:   cfg.EnableDecisionTree,
		models.MethodClustering:     cfg.EnableClustering,
		models.MethodGradientSearch: cfg.EnableGradientSearch,
	}
	out := make([]domsvc.OptimizationStrategy, 0, len(order))
	for _, m := range order {
		if flags[m] {
			out = append(out, registry[m]())
		}
	}
	return out
}
