package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"BoundaryLab/internal/domain/models"
	domrepo "BoundaryLab/internal/domain/repository"
	"BoundaryLab/internal/services/features"
)

// HTTPOutlierFilter asks an external detector which movements to drop.
type HTTPOutlierFilter struct {
	base      *HTTPServiceBase
	attempts  int
	threshold float64
}

var _ domrepo.OutlierFilter = (*HTTPOutlierFilter)(nil)

func NewHTTPOutlierFilter(baseURL string, timeout time.Duration, attempts int, threshold float64) *HTTPOutlierFilter {
	return &HTTPOutlierFilter{
		base:      NewHTTPServiceBase(baseURL, timeout),
		attempts:  attempts,
		threshold: threshold,
	}
}

type outlierReq struct {
	Measurements []float64 `json:"measurements"`
	ATRMoves     []float64 `json:"atr_moves"`
	Threshold    float64   `json:"threshold"`
}

type outlierResp struct {
	Indices []int `json:"indices"`
}

// Filter returns the movements whose indices the detector did not flag.
// Out-of-range indices are ignored.
func (f *HTTPOutlierFilter) Filter(ctx context.Context, movements []models.PriceMovement) ([]models.PriceMovement, int, error) {
	if len(movements) == 0 {
		return movements, 0, nil
	}
	var resp outlierResp
	err := f.base.PostJSONWithRetry(ctx, "/outliers/detect", outlierReq{
		Measurements: features.Measurements(movements),
		ATRMoves:     features.ATRMoves(movements),
		Threshold:    f.threshold,
	}, &resp, f.attempts)
	if err != nil {
		return nil, 0, fmt.Errorf("detect outliers: %w", err)
	}
	kept, dropped := dropIndices(movements, resp.Indices)
	return kept, dropped, nil
}

func dropIndices(movements []models.PriceMovement, indices []int) ([]models.PriceMovement, int) {
	drop := lo.SliceToMap(
		lo.Filter(indices, func(i int, _ int) bool { return i >= 0 && i < len(movements) }),
		func(i int) (int, struct{}) { return i, struct{}{} },
	)
	kept := lo.Reject(movements, func(_ models.PriceMovement, i int) bool {
		_, ok := drop[i]
		return ok
	})
	return kept, len(drop)
}

// PassThroughFilter keeps every movement. Used when no detector is configured.
type PassThroughFilter struct{}

var _ domrepo.OutlierFilter = PassThroughFilter{}

func (PassThroughFilter) Filter(_ context.Context, movements []models.PriceMovement) ([]models.PriceMovement, int, error) {
	return movements, 0, nil
}
