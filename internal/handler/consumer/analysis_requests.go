package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"BoundaryLab/internal/domain/errs"
	"BoundaryLab/internal/domain/models"
	"BoundaryLab/internal/handler/api"
	"BoundaryLab/internal/usecase"
	pkgkafka "BoundaryLab/pkg/kafka"
	xlogger "BoundaryLab/pkg/logger"
	xutil "BoundaryLab/pkg/util"
	"BoundaryLab/pkg/validate"
)

// AnalysisRequestHandler runs an analysis for every request read from topic. The
// report reaches consumers through the usecase's result publisher.
type AnalysisRequestHandler struct {
	topic    string
	uc       api.Analyzer
	lookback time.Duration
	logger   *xlogger.Logger
}

var _ pkgkafka.MessageHandler = (*AnalysisRequestHandler)(nil)

func NewAnalysisRequestHandler(topic string, uc api.Analyzer, lookback time.Duration, logger *xlogger.Logger) *AnalysisRequestHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &AnalysisRequestHandler{topic: topic, uc: uc, lookback: lookback, logger: logger}
}

func (h *AnalysisRequestHandler) Topic() string { return h.topic }

// Handle returns an error only for failures worth retrying. Malformed requests and
// domain rejections are logged and acknowledged.
func (h *AnalysisRequestHandler) Handle(ctx context.Context, data []byte) error {
	var req models.AnalysisRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.logger.Warn("drop malformed analysis request", xlogger.Error(err))
		return nil
	}
	if err := validate.StructCtx(ctx, &req); err != nil {
		h.logger.Warn("drop invalid analysis request", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return nil
	}
	from, to, err := xutil.ParseRange(req.From, req.To, time.Now().UTC(), h.lookback)
	if err != nil {
		h.logger.Warn("drop analysis request with bad range", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return nil
	}

	report, err := h.uc.Analyze(ctx, usecase.AnalyzeParams{
		Symbol:     req.Symbol,
		From:       from,
		To:         to,
		Limit:      req.Limit,
		TargetATR:  req.TargetATR,
		Validation: models.ValidationType(req.Validation),
		Windows:    req.Windows,
	})
	if err != nil {
		if errs.IsDomain(err) {
			h.logger.Warn("analysis request rejected", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
			return nil
		}
		return fmt.Errorf("analyze %s: %w", req.Symbol, err)
	}
	h.logger.Info("analysis request done",
		xlogger.String("symbol", req.Symbol),
		xlogger.String("id", report.ID),
		xlogger.Int("failed_stages", len(report.Errors)))
	return nil
}
