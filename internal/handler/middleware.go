package handler

import (
	"context"
	"crypto/subtle"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qs-lzh/campus-cinema/internal/metrics"
)

const APIKeyHeader = "X-API-Key"

// RequestLogger logs one line per request and records it in m.
func RequestLogger(logger *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		elapsed := time.Since(start)

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := ctx.Writer.Status()
		m.ObserveRequest(ctx.Request.Method, route, status, elapsed)

		fields := []zap.Field{
			zap.String("method", ctx.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
			zap.String("client_ip", ctx.ClientIP()),
		}
		if status >= 500 {
			logger.Error("request", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}

func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(ctx *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", ctx.Request.URL.Path),
			zap.Stack("stack"),
		)
		ctx.AbortWithStatusJSON(500, gin.H{
			"error":   "internal_error",
			"message": "Failed to process the request, please try again later",
		})
	})
}

// Timeout bounds every downstream database and cache call of a request.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		timeoutCtx, cancel := context.WithTimeout(ctx.Request.Context(), d)
		defer cancel()
		ctx.Request = ctx.Request.WithContext(timeoutCtx)
		ctx.Next()
	}
}

// RequireAPIKey admits requests whose X-API-Key matches one of keys. Empty
// keys are ignored, so a route group with no configured key is closed.
func RequireAPIKey(keys ...string) gin.HandlerFunc {
	accepted := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			accepted = append(accepted, []byte(k))
		}
	}
	return func(ctx *gin.Context) {
		given := []byte(ctx.GetHeader(APIKeyHeader))
		for _, k := range accepted {
			if subtle.ConstantTimeCompare(given, k) == 1 {
				ctx.Next()
				return
			}
		}
		ctx.AbortWithStatusJSON(401, gin.H{
			"error":   "unauthorized",
			"message": "A valid " + APIKeyHeader + " header is required",
		})
	}
}

type Limiter interface {
	Allow(ctx context.Context, scope, client string, limit int, window time.Duration) (bool, error)
}

// RateLimit allows limit requests per client IP and minute within scope.
// When the limiter itself fails the request goes through.
func RateLimit(limiter Limiter, scope string, limit int, logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		allowed, err := limiter.Allow(ctx.Request.Context(), scope, ctx.ClientIP(), limit, time.Minute)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			ctx.Next()
			return
		}
		ctx.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		if !allowed {
			ctx.Header("Retry-After", "60")
			ctx.AbortWithStatusJSON(429, gin.H{
				"error":   "too_many_requests",
				"message": "rate limit exceeded",
			})
			return
		}
		ctx.Next()
	}
}
