package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"BoundaryLab/internal/domain/models"
	"BoundaryLab/internal/usecase"
	xhttp "BoundaryLab/pkg/http"
	xlogger "BoundaryLab/pkg/logger"
)

// Analyzer is the usecase surface the HTTP API needs.
type Analyzer interface {
	Analyze(ctx context.Context, p usecase.AnalyzeParams) (*models.AnalysisReport, error)
	Backtest(ctx context.Context, p usecase.BacktestParams) (*models.BacktestResult, error)
	Windows(period models.Period, count int) ([]models.WalkForwardWindow, error)
}

// HealthChecker reports dependency health.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// AnalysisEchoHandler serves analysis, walk-forward window and backtest endpoints.
type AnalysisEchoHandler struct {
	logger   *xlogger.Logger
	uc       Analyzer
	health   HealthChecker
	lookback time.Duration
}

var _ xhttp.Handler = (*AnalysisEchoHandler)(nil)

// NewAnalysisEchoHandler builds the handler. lookback is the default range when a
// request omits from.
func NewAnalysisEchoHandler(logger *xlogger.Logger, uc Analyzer, health HealthChecker, lookback time.Duration) *AnalysisEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &AnalysisEchoHandler{logger: logger, uc: uc, health: health, lookback: lookback}
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	g := e.Group("/api")
	g.GET("/analysis", h.Analysis)
	g.POST("/analysis", h.Analysis)
	g.GET("/walk-forward/windows", h.Windows)
	g.POST("/backtest", h.Backtest)
}

func (h *AnalysisEchoHandler) Health(c echo.Context) error {
	if h.health != nil {
		if err := h.health.Health(c.Request().Context()); err != nil {
			h.logger.Warn("health check failed", xlogger.Error(err))
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, err.Error())
		}
	}
	return xhttp.SuccessResponse(c, "ok")
}

func (h *AnalysisEchoHandler) Analysis(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to, err := xhttp.ParseRange(req.From, req.To, h.lookback)
	if err != nil {
		return xhttp.BadRequestResponse(c, rangeError(err))
	}

	report, err := h.uc.Analyze(c.Request().Context(), usecase.AnalyzeParams{
		Symbol:     req.Symbol,
		From:       from,
		To:         to,
		Limit:      req.Limit,
		TargetATR:  req.TargetATR,
		Validation: models.ValidationType(req.Validation),
		Windows:    req.Windows,
	})
	if err != nil {
		h.logger.Error("analysis usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *AnalysisEchoHandler) Windows(c echo.Context) error {
	req := &models.WindowsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to, err := xhttp.ParseRange(req.From, req.To, h.lookback)
	if err != nil {
		return xhttp.BadRequestResponse(c, rangeError(err))
	}

	windows, err := h.uc.Windows(models.Period{Start: from, End: to}, req.Count)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, windows, int64(len(windows)))
}

func (h *AnalysisEchoHandler) Backtest(c echo.Context) error {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to, err := xhttp.ParseRange(req.From, req.To, h.lookback)
	if err != nil {
		return xhttp.BadRequestResponse(c, rangeError(err))
	}

	res, err := h.uc.Backtest(c.Request().Context(), usecase.BacktestParams{
		Symbol:     req.Symbol,
		From:       from,
		To:         to,
		Limit:      req.Limit,
		TargetATR:  req.TargetATR,
		Boundaries: req.Boundaries,
	})
	if err != nil {
		h.logger.Error("backtest usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func rangeError(err error) []xhttp.ValidationError {
	return []xhttp.ValidationError{{
		Code:    "ERR_TIME_RANGE",
		Field:   "from",
		Message: err.Error(),
	}}
}
