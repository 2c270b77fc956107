package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qs-lzh/campus-cinema/internal/app"
)

const healthTimeout = 2 * time.Second

func HandleHealth(app *app.App) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), healthTimeout)
		defer cancel()

		if err := app.Ping(pingCtx); err != nil {
			app.Logger.Warn("health check failed", zap.Error(err))
			ctx.JSON(503, gin.H{"status": "unavailable"})
			return
		}
		ctx.JSON(200, gin.H{"status": "ok"})
	}
}
