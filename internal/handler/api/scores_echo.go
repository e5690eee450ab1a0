package api

import (
	"errors"
	"net/http"

	models "AstroPull/internal/domain/models"
	"AstroPull/internal/service/ratelimit"
	"AstroPull/internal/usecase"
	xhttp "AstroPull/pkg/http"
	xlogger "AstroPull/pkg/logger"
	"AstroPull/pkg/queue"
	"AstroPull/pkg/util"

	"github.com/labstack/echo/v4"
)

// ScoresEchoHandler exposes the scoreboard and run trigger over Echo.
type ScoresEchoHandler struct {
	logger     *xlogger.Logger
	scoreboard *usecase.Scoreboard
	runQueue   queue.QueueService
	rl         *ratelimit.Limiter
}

func NewScoresEchoHandler(logger *xlogger.Logger, scoreboard *usecase.Scoreboard, runQueue queue.QueueService) *ScoresEchoHandler {
	return &ScoresEchoHandler{
		logger:     logger,
		scoreboard: scoreboard,
		runQueue:   runQueue,
		rl:         ratelimit.New(),
	}
}

func (h *ScoresEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/scores", h.Scores)
	g.GET("/scores/featured", h.Featured)
	g.GET("/levels/:symbol", h.Levels)
	g.GET("/events/:kind", h.Events)
	g.POST("/run", h.Run)
}

func (h *ScoresEchoHandler) Scores(c echo.Context) error {
	req := &models.ScoresRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	runDate, records, err := h.scoreboard.Scores(c.Request().Context(), req.Category, req.Limit, req.Featured)
	if err != nil {
		if errors.Is(err, usecase.ErrNoRun) {
			return xhttp.NotFoundResponse(c, "no completed run yet")
		}
		h.logger.Error("scores usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, scoreboardResponse{
		RunDate: runDate.Format(util.DayFormat),
		Scores:  records,
	})
}

func (h *ScoresEchoHandler) Featured(c echo.Context) error {
	req := &models.ScoresRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	runDate, records, err := h.scoreboard.Featured(c.Request().Context(), req.Limit)
	if err != nil {
		if errors.Is(err, usecase.ErrNoRun) {
			return xhttp.NotFoundResponse(c, "no completed run yet")
		}
		h.logger.Error("featured usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, scoreboardResponse{
		RunDate: runDate.Format(util.DayFormat),
		Scores:  records,
	})
}

func (h *ScoresEchoHandler) Levels(c echo.Context) error {
	req := &models.LevelsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	set, err := h.scoreboard.Levels(c.Request().Context(), req.Symbol)
	if err != nil {
		if errors.Is(err, usecase.ErrNoRun) {
			return xhttp.NotFoundResponse(c, "no levels for symbol")
		}
		h.logger.Error("levels usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, set)
}

func (h *ScoresEchoHandler) Events(c echo.Context) error {
	req := &models.EventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	// RFC3339 or YYYY-MM-DD; empty or malformed means unbounded.
	from, _ := util.ParseTime(req.From)
	to, _ := util.ParseTime(req.To)

	events, err := h.scoreboard.Events(c.Request().Context(), req.Kind, from, to)
	if err != nil {
		h.logger.Error("events usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, events)
}

// Run enqueues a pipeline run. Rate limited: runs are expensive and the
// queue serializes them anyway, so bursts gain nothing.
func (h *ScoresEchoHandler) Run(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":run", 2, 0.2) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	req := &models.RunRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.runQueue.PublishMessage(c.Request().Context(), usecase.RunJobType, usecase.RunPayload{Date: req.Date}); err != nil {
		h.logger.Error("run enqueue error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.DataResponse(c, http.StatusAccepted, runAccepted{Status: "queued", Date: req.Date})
}

type scoreboardResponse struct {
	RunDate string                         `json:"run_date"`
	Scores  []models.ConfidenceScoreRecord `json:"scores"`
}

type runAccepted struct {
	Status string `json:"status"`
	Date   string `json:"date,omitempty"`
}
