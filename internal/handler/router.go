package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/campus-cinema/internal/app"
)

func NewRouter(app *app.App) *gin.Engine {
	cfg := app.Config

	router := gin.New()
	router.Use(Recovery(app.Logger))
	router.Use(RequestLogger(app.Logger, app.Metrics))
	router.Use(Timeout(cfg.RequestTimeout))

	router.GET("/health", HandleHealth(app))
	router.GET("/metrics", gin.WrapH(app.Metrics.Handler()))

	catalog := NewCatalogHandler(app)
	reserve := NewReserveHandler(app)
	voucher := NewVoucherHandler(app)
	admin := NewAdminHandler(app)
	stats := NewStatsHandler(app)

	api := router.Group("/api")
	{
		api.GET("/movies", catalog.HandleListMovies)
		api.GET("/movies/:id", catalog.HandleGetMovie)
		api.GET("/movies/:id/showings", catalog.HandleListShowings)
		api.GET("/showings/:id", catalog.HandleGetShowing)

		api.POST("/reservations", RateLimit(app.Cache, "reserve", cfg.RateLimitPerMinute, app.Logger), reserve.HandleReserve)
		api.GET("/reservations/:token", RateLimit(app.Cache, "lookup", cfg.RateLimitPerMinute, app.Logger), reserve.HandleGetReservation)
	}

	vouchers := api.Group("/vouchers")
	vouchers.Use(RequireAPIKey(cfg.StaffAPIKey, cfg.AdminAPIKey))
	vouchers.Use(RateLimit(app.Cache, "vouchers", cfg.RateLimitPerMinute, app.Logger))
	{
		vouchers.GET("/:token", voucher.HandleLookup)
		vouchers.POST("/:token/redeem", voucher.HandleRedeem)
	}

	adminGroup := api.Group("/admin")
	adminGroup.Use(RequireAPIKey(cfg.AdminAPIKey))
	{
		adminGroup.POST("/movies", admin.HandleCreateMovie)
		adminGroup.PUT("/movies/:id", admin.HandleUpdateMovie)
		adminGroup.DELETE("/movies/:id", admin.HandleDeleteMovie)

		adminGroup.GET("/showings", admin.HandleListShowings)
		adminGroup.POST("/showings", admin.HandleCreateShowing)
		adminGroup.PUT("/showings/:id", admin.HandleUpdateShowing)
		adminGroup.DELETE("/showings/:id", admin.HandleDeleteShowing)

		adminGroup.GET("/reservations", admin.HandleListReservations)
		adminGroup.GET("/reservations/recent", admin.HandleRecentReservations)
		adminGroup.GET("/reservations/export", admin.HandleExportReservations)
		adminGroup.GET("/reservations/:id", admin.HandleGetReservation)

		adminGroup.GET("/stats/attendance", stats.HandleAttendance)
		adminGroup.GET("/stats/popular-movies", stats.HandlePopularMovies)
		adminGroup.GET("/stats/occupancy", stats.HandleOccupancy)
		adminGroup.GET("/stats/daily", stats.HandleDaily)
		adminGroup.GET("/stats/summary", stats.HandleSummary)
	}

	return router
}
