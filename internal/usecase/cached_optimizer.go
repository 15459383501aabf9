package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math"
	"time"

	"BoundaryLab/internal/domain/models"
	"BoundaryLab/internal/service/cache"
	applogger "BoundaryLab/pkg/logger"
)

// CachedOptimizer memoizes a BoundaryFinder by a content hash of the movements, the
// optimizer config and the target. Cache failures fall through to the finder.
type CachedOptimizer struct {
	next  BoundaryFinder
	cache cache.BytesCache
	ttl   time.Duration
	log   *applogger.Logger
}

var _ BoundaryFinder = (*CachedOptimizer)(nil)

func NewCachedOptimizer(next BoundaryFinder, c cache.BytesCache, ttl time.Duration, log *applogger.Logger) *CachedOptimizer {
	if log == nil {
		log = applogger.Nop()
	}
	return &CachedOptimizer{next: next, cache: c, ttl: ttl, log: log}
}

func (c *CachedOptimizer) Config() models.MLOptimizationConfig { return c.next.Config() }

func (c *CachedOptimizer) Optimize(ctx context.Context, movements []models.PriceMovement, targetATR float64) (*models.OptimizationOutcome, error) {
	key, err := OptimizationKey(movements, c.next.Config(), targetATR)
	if err != nil {
		return c.next.Optimize(ctx, movements, targetATR)
	}

	if b, ok, err := c.cache.GetBytes(ctx, key); err != nil {
		c.log.Warn("optimizer cache read failed", applogger.Error(err))
	} else if ok {
		var out models.OptimizationOutcome
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, nil
		}
	}

	out, err := c.next.Optimize(ctx, movements, targetATR)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(out); err == nil {
		if err := c.cache.SetBytes(ctx, key, b, c.ttl); err != nil {
			c.log.Warn("optimizer cache write failed", applogger.Error(err))
		}
	}
	return out, nil
}

// OptimizationKey hashes every field the optimizer reads.
func OptimizationKey(movements []models.PriceMovement, cfg models.MLOptimizationConfig, targetATR float64) (string, error) {
	h := sha256.New()
	cfgBytes, err := json.Marshal(cfg.WithTarget(targetATR))
	if err != nil {
		return "", err
	}
	h.Write(cfgBytes)

	var buf [24]byte
	for _, m := range movements {
		binary.LittleEndian.PutUint64(buf[0:8], uint64(m.StartTimestamp.UnixNano()))
		binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(m.MeasurementValue))
		binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(m.ATRMovement))
		h.Write(buf[:])
	}
	return cache.Key("boundaries", hex.EncodeToString(h.Sum(nil))), nil
}
