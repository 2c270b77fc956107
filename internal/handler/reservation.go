package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/campus-cinema/internal/app"
	"github.com/qs-lzh/campus-cinema/internal/service/domain"
)

type ReserveHandler struct {
	app *app.App
}

func NewReserveHandler(app *app.App) *ReserveHandler {
	return &ReserveHandler{
		app: app,
	}
}

type ReserveRequest struct {
	ShowingID   uint   `json:"showing_id" binding:"required"`
	HolderName  string `json:"holder_name"`
	HolderEmail string `json:"holder_email"`
	TicketCount int    `json:"ticket_count"`
}

func (h *ReserveHandler) HandleReserve(ctx *gin.Context) {
	var req ReserveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	reservation, err := h.app.ReservationWorkflow.Reserve(ctx.Request.Context(), domain.ReservationInput{
		ShowingID:   req.ShowingID,
		HolderName:  req.HolderName,
		HolderEmail: req.HolderEmail,
		TicketCount: req.TicketCount,
	})
	if err != nil {
		respondError(ctx, h.app.Logger, err, "Showing not found")
		return
	}
	h.app.Metrics.ReservationCreated(reservation.TicketCount)

	ctx.JSON(201, reservation)
}

// HandleGetReservation lets a holder check a voucher by its token. Ids are
// sequential, so the public route never takes one.
func (h *ReserveHandler) HandleGetReservation(ctx *gin.Context) {
	reservation, err := h.app.RedemptionService.Lookup(ctx.Request.Context(), ctx.Param("token"))
	if err != nil {
		respondError(ctx, h.app.Logger, err, msgInvalidCode)
		return
	}
	ctx.JSON(200, reservation)
}
