package handler

import (
	"bytes"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/campus-cinema/internal/app"
	"github.com/qs-lzh/campus-cinema/internal/repository"
	"github.com/qs-lzh/campus-cinema/internal/service/domain"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

// AdminHandler manages the catalog and reports on reservations.
type AdminHandler struct {
	app *app.App
}

func NewAdminHandler(app *app.App) *AdminHandler {
	return &AdminHandler{
		app: app,
	}
}

/*
* movies
 */

func (h *AdminHandler) HandleCreateMovie(ctx *gin.Context) {
	var req domain.MovieInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}
	movie, err := h.app.MovieService.CreateMovie(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, h.app.Logger, err, "Movie not found")
		return
	}
	ctx.JSON(201, movie)
}

func (h *AdminHandler) HandleUpdateMovie(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req domain.MovieInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}
	movie, err := h.app.MovieService.UpdateMovie(ctx.Request.Context(), id, req)
	if err != nil {
		respondError(ctx, h.app.Logger, err, "Movie not found")
		return
	}
	ctx.JSON(200, movie)
}

func (h *AdminHandler) HandleDeleteMovie(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := h.app.MovieService.DeleteMovie(ctx.Request.Context(), id); err != nil {
		respondError(ctx, h.app.Logger, err, "Movie not found")
		return
	}
	ctx.Status(204)
}

/*
* showings
 */

func (h *AdminHandler) HandleListShowings(ctx *gin.Context) {
	showings, err := h.app.ShowingService.GetAllShowings(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.app.Logger, err, "")
		return
	}
	ctx.JSON(200, gin.H{"showings": showings})
}

func (h *AdminHandler) HandleCreateShowing(ctx *gin.Context) {
	var req domain.ShowingInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}
	showing, err := h.app.ShowingService.CreateShowing(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, h.app.Logger, err, "Movie not found")
		return
	}
	ctx.JSON(201, showing)
}

func (h *AdminHandler) HandleUpdateShowing(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req domain.ShowingInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}
	showing, err := h.app.ShowingService.UpdateShowing(ctx.Request.Context(), id, req)
	if err != nil {
		respondError(ctx, h.app.Logger, err, "Showing not found")
		return
	}
	ctx.JSON(200, showing)
}

func (h *AdminHandler) HandleDeleteShowing(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := h.app.ShowingService.DeleteShowing(ctx.Request.Context(), id); err != nil {
		respondError(ctx, h.app.Logger, err, "Showing not found")
		return
	}
	ctx.Status(204)
}

/*
* reservations
 */

// HandleListReservations lists every reservation, newest first, optionally
// filtered with ?consumed=true|false.
func (h *AdminHandler) HandleListReservations(ctx *gin.Context) {
	var filter repository.ReservationFilter
	if raw, ok := ctx.GetQuery("consumed"); ok {
		consumed, err := strconv.ParseBool(raw)
		if err != nil {
			ctx.JSON(400, gin.H{
				"error":   "invalid_request",
				"message": "consumed must be true or false",
			})
			return
		}
		filter.Consumed = &consumed
	}
	h.listReservations(ctx, filter)
}

func (h *AdminHandler) HandleRecentReservations(ctx *gin.Context) {
	limit := defaultRecentLimit
	if raw, ok := ctx.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxRecentLimit {
			ctx.JSON(400, gin.H{
				"error":   "invalid_request",
				"message": "limit must be between 1 and " + strconv.Itoa(maxRecentLimit),
			})
			return
		}
		limit = n
	}
	h.listReservations(ctx, repository.ReservationFilter{Limit: limit})
}

func (h *AdminHandler) HandleGetReservation(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	reservation, err := h.app.ReservationService.GetReservation(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, h.app.Logger, err, "Reservation not found")
		return
	}
	ctx.JSON(200, reservation)
}

func (h *AdminHandler) listReservations(ctx *gin.Context, filter repository.ReservationFilter) {
	reservations, err := h.app.ReservationService.ListReservations(ctx.Request.Context(), filter)
	if err != nil {
		respondError(ctx, h.app.Logger, err, "")
		return
	}
	ctx.JSON(200, gin.H{"reservations": reservations})
}

func (h *AdminHandler) HandleExportReservations(ctx *gin.Context) {
	var buf bytes.Buffer
	if err := h.app.ReservationService.ExportCSV(ctx.Request.Context(), &buf); err != nil {
		respondError(ctx, h.app.Logger, err, "")
		return
	}
	ctx.Header("Content-Disposition", `attachment; filename="reservations.csv"`)
	ctx.Data(200, "text/csv; charset=utf-8", buf.Bytes())
}
