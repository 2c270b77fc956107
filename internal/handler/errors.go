package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qs-lzh/campus-cinema/internal/service"
)

const msgInvalidCode = "Invalid code: no voucher matches it"

// respondError writes the JSON error body for err. notFound is the message
// used when the requested resource does not exist.
func respondError(ctx *gin.Context, logger *zap.Logger, err error, notFound string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		ctx.JSON(400, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
	case errors.Is(err, service.ErrNotFound):
		ctx.JSON(404, gin.H{
			"error":   "not_found",
			"message": notFound,
		})
	case errors.Is(err, service.ErrInsufficientCapacity):
		ctx.JSON(409, gin.H{
			"error":   "insufficient_capacity",
			"message": "Not enough tickets left for this showing: " + err.Error(),
		})
	case errors.Is(err, service.ErrShowingClosed):
		ctx.JSON(409, gin.H{
			"error":   "showing_closed",
			"message": "This showing has already started",
		})
	case errors.Is(err, service.ErrAlreadyRedeemed):
		ctx.JSON(409, gin.H{
			"error":   "already_redeemed",
			"message": "This voucher is valid but has already been used: " + err.Error(),
		})
	case errors.Is(err, service.ErrConflict):
		ctx.JSON(409, gin.H{
			"error":   "conflict",
			"message": err.Error(),
		})
	case errors.Is(err, service.ErrStoreUnavailable):
		logger.Error("store unavailable", zap.String("path", ctx.FullPath()), zap.Error(err))
		ctx.JSON(503, gin.H{
			"error":   "unavailable",
			"message": "The service is temporarily unavailable, please try again",
		})
	default:
		logger.Error("unhandled error", zap.String("path", ctx.FullPath()), zap.Error(err))
		ctx.JSON(500, gin.H{
			"error":   "internal_error",
			"message": "Failed to process the request, please try again later",
		})
	}
}

func respondBadRequest(ctx *gin.Context, err error) {
	ctx.JSON(400, gin.H{
		"error":   "invalid_request",
		"message": err.Error(),
	})
}

func paramID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		ctx.JSON(400, gin.H{
			"error":   "invalid_request",
			"message": "invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}
