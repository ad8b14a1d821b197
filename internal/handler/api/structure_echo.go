package api

import (
	"time"

	models "StructScan/internal/domain/models"
	domrepo "StructScan/internal/domain/repository"
	"StructScan/internal/usecase"
	xhttp "StructScan/pkg/http"
	xmw "StructScan/pkg/http/middleware"
	xlogger "StructScan/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StructureEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type StructureEchoHandler struct {
	logger *xlogger.Logger
	reader *usecase.StructureReader
	bars   *usecase.BarsUseCase
}

func NewStructureEchoHandler(logger *xlogger.Logger, reader *usecase.StructureReader, bars *usecase.BarsUseCase) *StructureEchoHandler {
	return &StructureEchoHandler{logger: logger, reader: reader, bars: bars}
}

func (h *StructureEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/structure", h.Structure)
	g.GET("/structure/state", h.State)
	g.GET("/runs", h.Runs)
	g.GET("/bars", h.Bars)

	// Legacy plain-mux surface under /v1, instrumented with the
	// net/http metrics middleware.
	legacy := NewStructureHandler(h.reader)
	legacy.SetLogger(h.logger)
	wrap := xmw.Metrics(h.logger, time.Second)
	v1 := e.Group("/v1")
	v1.GET("/structure", echo.WrapHandler(wrap(legacy.Structure())))
	v1.GET("/structure/state", echo.WrapHandler(wrap(legacy.State())))
	v1.GET("/runs", echo.WrapHandler(wrap(legacy.Runs())))
}

func (h *StructureEchoHandler) Structure(c echo.Context) error {
	req := &models.StructureRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	res, err := h.reader.Latest(c.Request().Context(), req.Symbol, req.N, tf)
	if err != nil {
		h.logger.Error("structure usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *StructureEchoHandler) State(c echo.Context) error {
	req := &models.StructureStateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	res, err := h.reader.State(c.Request().Context(), req.Symbol, tf)
	if err != nil {
		h.logger.Error("structure state usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *StructureEchoHandler) Runs(c echo.Context) error {
	req := &models.RunsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.reader.Runs(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		h.logger.Error("runs usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *StructureEchoHandler) Bars(c echo.Context) error {
	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)
	to := time.Unix(req.To, 0)
	if req.To == 0 {
		to = time.Now()
	}

	res, err := h.bars.GetBars(c.Request().Context(), usecase.GetBarsParams{
		Symbol:    req.Symbol,
		From:      time.Unix(req.From, 0),
		To:        to,
		Timeframe: tf,
		Limit:     req.Limit,
	})
	if err != nil {
		h.logger.Error("bars usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	out := make([]models.BarDTO, len(res.Bars))
	for i, b := range res.Bars {
		out[i] = b.ToDTO()
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol": res.Symbol,
		"tf":     res.Timeframe,
		"count":  res.Count,
		"bars":   out,
	})
}
