package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/campus-cinema/internal/app"
	"github.com/qs-lzh/campus-cinema/internal/metrics"
	"github.com/qs-lzh/campus-cinema/internal/service"
)

// VoucherHandler serves the door staff scanning vouchers.
type VoucherHandler struct {
	app *app.App
}

func NewVoucherHandler(app *app.App) *VoucherHandler {
	return &VoucherHandler{
		app: app,
	}
}

func (h *VoucherHandler) HandleLookup(ctx *gin.Context) {
	reservation, err := h.app.RedemptionService.Lookup(ctx.Request.Context(), ctx.Param("token"))
	if err != nil {
		respondError(ctx, h.app.Logger, err, msgInvalidCode)
		return
	}
	ctx.JSON(200, reservation)
}

func (h *VoucherHandler) HandleRedeem(ctx *gin.Context) {
	reservation, err := h.app.RedemptionWorkflow.Redeem(ctx.Request.Context(), ctx.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyRedeemed):
			h.app.Metrics.Redemption(metrics.OutcomeAlreadyRedeemed)
		case errors.Is(err, service.ErrNotFound):
			h.app.Metrics.Redemption(metrics.OutcomeInvalid)
		}
		respondError(ctx, h.app.Logger, err, msgInvalidCode)
		return
	}
	h.app.Metrics.Redemption(metrics.OutcomeAdmitted)

	ctx.JSON(200, gin.H{
		"message":     "Voucher redeemed, admit holder",
		"reservation": reservation,
	})
}
