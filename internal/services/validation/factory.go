package validation

import (
	"BoundaryLab/internal/domain/errs"
	"BoundaryLab/internal/domain/models"
	domsvc "BoundaryLab/internal/domain/service"
)

// FactoryFunc builds a validation strategy from config.
type FactoryFunc func(cfg models.ValidationConfig) (domsvc.ValidationStrategy, error)

var registry = map[models.ValidationType]FactoryFunc{
	models.ValidationKFold: func(cfg models.ValidationConfig) (domsvc.ValidationStrategy, error) {
		s, err := NewKFold(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	},
	models.ValidationExpandingWindow: func(cfg models.ValidationConfig) (domsvc.ValidationStrategy, error) {
		s, err := NewExpandingWindow(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	},
	models.ValidationRollingWindow: func(cfg models.ValidationConfig) (domsvc.ValidationStrategy, error) {
		s, err := NewRollingWindow(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	},
}

// Create returns the strategy for t configured with cfg.
func Create(t models.ValidationType, cfg models.ValidationConfig) (domsvc.ValidationStrategy, error) {
	f, ok := registry[t]
	if !ok {
		return nil, errs.InvalidConfigurationf("validation", "unknown validation strategy %q", t)
	}
	return f(cfg)
}

// Available lists the supported validation types.
func Available() []models.ValidationType {
	return []models.ValidationType{
		models.ValidationKFold,
		models.ValidationExpandingWindow,
		models.ValidationRollingWindow,
	}
}
