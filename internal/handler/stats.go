package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/campus-cinema/internal/app"
)

type StatsHandler struct {
	app *app.App
}

func NewStatsHandler(app *app.App) *StatsHandler {
	return &StatsHandler{
		app: app,
	}
}

func (h *StatsHandler) HandleAttendance(ctx *gin.Context) {
	attendance, err := h.app.StatsService.Attendance(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.app.Logger, err, "")
		return
	}
	ctx.JSON(200, attendance)
}

func (h *StatsHandler) HandlePopularMovies(ctx *gin.Context) {
	popular, err := h.app.StatsService.PopularMovies(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.app.Logger, err, "")
		return
	}
	ctx.JSON(200, gin.H{"movies": popular})
}

func (h *StatsHandler) HandleOccupancy(ctx *gin.Context) {
	occupancy, err := h.app.StatsService.Occupancy(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.app.Logger, err, "")
		return
	}
	ctx.JSON(200, gin.H{"occupancy": occupancy})
}

func (h *StatsHandler) HandleDaily(ctx *gin.Context) {
	daily, err := h.app.StatsService.DailyTickets(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.app.Logger, err, "")
		return
	}
	ctx.JSON(200, gin.H{"days": daily})
}

func (h *StatsHandler) HandleSummary(ctx *gin.Context) {
	summary, err := h.app.StatsService.Summary(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.app.Logger, err, "")
		return
	}
	ctx.JSON(200, summary)
}
