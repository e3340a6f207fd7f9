package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"SmartSignal/internal/domain/models"
	domrepo "SmartSignal/internal/domain/repository"
	"SmartSignal/internal/service/ratelimit"
	"SmartSignal/internal/services/engine"
	"SmartSignal/internal/usecase"
	xhttp "SmartSignal/pkg/http"
	xlogger "SmartSignal/pkg/logger"
	"SmartSignal/pkg/util"

	"github.com/labstack/echo/v4"
)

// signalsService is the use case surface the handler drives.
type signalsService interface {
	Generate(ctx context.Context, p usecase.GenerateParams) (*models.SignalReport, error)
	Submit(ctx context.Context, p usecase.GenerateParams) (string, error)
	Scan(ctx context.Context, symbols []string, mode models.TradingMode) (*models.ScanResult, error)
	List(ctx context.Context, f models.SignalFilter) ([]*models.SignalRecord, error)
	Get(ctx context.Context, id string) (*models.SignalRecord, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.SignalRecord, error)
	Delete(ctx context.Context, id string) error
	History(ctx context.Context, symbol string, limit int) ([]models.ArchivedSignal, error)
	RiskReward(action models.Action, entry, stopLoss, tp1 float64) (float64, error)
}

// SignalsEchoHandler serves the signal endpoints under /api.
type SignalsEchoHandler struct {
	logger  *xlogger.Logger
	signals signalsService
	rl      *ratelimit.Limiter
}

// NewSignalsEchoHandler builds the handler; a nil limiter disables rate limiting.
func NewSignalsEchoHandler(logger *xlogger.Logger, signals signalsService, rl *ratelimit.Limiter) *SignalsEchoHandler {
	return &SignalsEchoHandler{
		logger:  logger.With(xlogger.String("component", "signals_http")),
		signals: signals,
		rl:      rl,
	}
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/signals", h.Generate, h.rateLimited("generate"))
	g.POST("/signals/async", h.Submit, h.rateLimited("generate"))
	g.GET("/signals", h.List)
	g.GET("/signals/scan", h.Scan, h.rateLimited("scan"))
	g.GET("/signals/history/:symbol", h.History)
	g.GET("/signals/:id", h.Get)
	g.PATCH("/signals/:id/status", h.UpdateStatus)
	g.DELETE("/signals/:id", h.Delete)
	g.POST("/risk-reward", h.RiskReward)
}

// rateLimited rejects a client IP that ran out of tokens for route.
func (h *SignalsEchoHandler) rateLimited(route string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !h.rl.Allow(ip + ":" + route) {
				h.logger.Warn("rate limited", xlogger.String("route", route), xlogger.String("remote", ip))
				if d := h.rl.RetryAfter(); d > 0 {
					c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(d.Seconds()))))
				}
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded, retry later"))
			}
			return next(c)
		}
	}
}

func (h *SignalsEchoHandler) Generate(c echo.Context) error {
	req := &models.GenerateSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.signals.Generate(c.Request().Context(), usecase.GenerateParams{
		Symbol:   req.Symbol,
		Mode:     models.TradingMode(req.Mode),
		UserID:   strings.TrimSpace(c.Request().Header.Get(xhttp.HeaderUserID)),
		Interval: domrepo.NormalizeInterval(req.Interval),
		Limit:    req.Limit,
		Seed:     req.Seed,
	})
	if err != nil {
		return h.fail(c, "generate", err)
	}
	if report.RecordID != "" {
		return xhttp.CreatedResponse(c, report)
	}
	return xhttp.SuccessResponse(c, report)
}

type submitResponse struct {
	RequestID string `json:"request_id"`
}

// Submit queues a generation for the async workers and answers 202.
func (h *SignalsEchoHandler) Submit(c echo.Context) error {
	req := &models.GenerateSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	id, err := h.signals.Submit(c.Request().Context(), usecase.GenerateParams{
		Symbol: req.Symbol,
		Mode:   models.TradingMode(req.Mode),
		UserID: strings.TrimSpace(c.Request().Header.Get(xhttp.HeaderUserID)),
		Seed:   req.Seed,
	})
	if err != nil {
		return h.fail(c, "submit", err)
	}
	return xhttp.DataResponse(c, http.StatusAccepted, submitResponse{RequestID: id})
}

func (h *SignalsEchoHandler) Scan(c echo.Context) error {
	req := &models.ScanSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.signals.Scan(c.Request().Context(), util.SplitSymbols(req.Symbols), models.TradingMode(req.Mode))
	if err != nil {
		return h.fail(c, "scan", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) List(c echo.Context) error {
	req := &models.ListSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	since, err := parseSince(req.Since)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("since must be RFC3339 or unix seconds").WithField("since"))
	}

	rows, err := h.signals.List(c.Request().Context(), models.SignalFilter{
		UserID: req.UserID,
		Symbol: req.Symbol,
		Status: models.SignalStatus(req.Status),
		Since:  since,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		return h.fail(c, "list", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *SignalsEchoHandler) Get(c echo.Context) error {
	req := &models.SignalIDRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rec, err := h.signals.Get(c.Request().Context(), req.ID)
	if err != nil {
		return h.fail(c, "get", err)
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *SignalsEchoHandler) UpdateStatus(c echo.Context) error {
	req := &models.UpdateStatusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rec, err := h.signals.UpdateStatus(c.Request().Context(), req.ID, req.Status)
	if err != nil {
		return h.fail(c, "update_status", err)
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *SignalsEchoHandler) Delete(c echo.Context) error {
	req := &models.SignalIDRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.signals.Delete(c.Request().Context(), req.ID); err != nil {
		return h.fail(c, "delete", err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *SignalsEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.signals.History(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		return h.fail(c, "history", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

type riskRewardResponse struct {
	Action     models.Action `json:"action"`
	RiskReward float64       `json:"risk_reward"`
}

func (h *SignalsEchoHandler) RiskReward(c echo.Context) error {
	req := &models.RiskRewardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	action := models.Action(req.Action)
	rr, err := h.signals.RiskReward(action, req.Entry, req.StopLoss, req.TP1)
	if err != nil {
		return h.fail(c, "risk_reward", err)
	}
	return xhttp.SuccessResponse(c, riskRewardResponse{Action: action, RiskReward: rr})
}

// fail maps domain errors onto the envelope; unknown errors are logged and
// reported as 500 without detail.
func (h *SignalsEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= 500 {
		h.logger.Error(op+" usecase error", xlogger.Error(err))
	} else {
		h.logger.Debug(op+" rejected", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, models.ErrNotFound):
		return xhttp.NotFoundError("signal not found")
	case errors.Is(err, models.ErrInvalidStatus):
		return xhttp.BadRequestError(err.Error()).WithField("status")
	case errors.Is(err, engine.ErrInvalidInput), errors.Is(err, engine.ErrDivisionByZero):
		return xhttp.BadRequestError(err.Error())
	case errors.Is(err, engine.ErrInsufficientData):
		return xhttp.UnprocessableError(err.Error())
	case errors.Is(err, usecase.ErrAsyncDisabled):
		return xhttp.ServiceUnavailableError(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.ServiceUnavailableError("market data timed out")
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}

var errBadSince = errors.New("bad since")

func parseSince(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, ok := util.ParseTime(s)
	if !ok {
		return time.Time{}, errBadSince
	}
	return t.UTC(), nil
}
