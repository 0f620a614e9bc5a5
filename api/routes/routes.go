package routes

import (
	"net/http"

	"github.com/adbeam/recycling-rewards-backend/internal/config"
	"github.com/adbeam/recycling-rewards-backend/internal/handlers"
	"github.com/adbeam/recycling-rewards-backend/internal/middleware"
	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"
)

// HandlerDependencies holds the handlers mounted by SetupRouter
type HandlerDependencies struct {
	Auth        *handlers.AuthHandler
	Recycling   *handlers.RecyclingHandler
	User        *handlers.UserHandler
	Voucher     *handlers.VoucherHandler
	Leaderboard *handlers.LeaderboardHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies, tokens middleware.TokenValidator, logger *slog.Logger) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.TimeoutMiddleware(cfg.MongoDB.Timeout()))
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedHosts))

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/register", deps.Auth.Register)
			auth.POST("/login", deps.Auth.Login)
		}
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(tokens))
	{
		recycling := protected.Group("/recycling")
		{
			recycling.POST("/events", deps.Recycling.RecordEvent)
			recycling.GET("/history", deps.Recycling.GetHistory)
		}

		me := protected.Group("/users/me")
		{
			me.GET("/stats", deps.User.GetStats)
			me.GET("/impact", deps.User.GetImpact)
			me.GET("/environment", deps.User.GetEnvironment)
			me.GET("/dashboard", deps.User.GetDashboard)
			me.GET("/transactions", deps.User.GetTransactions)
		}

		vouchers := protected.Group("/vouchers")
		{
			vouchers.GET("", deps.Voucher.ListMine)
			vouchers.POST("", deps.Voucher.Generate)
			vouchers.GET("/templates", deps.Voucher.ListTemplates)
			vouchers.GET("/categories", deps.Voucher.ListCategories)
			vouchers.GET("/verify/:code", deps.Voucher.Verify)
			vouchers.POST("/:id/redeem", middleware.RequireRole(models.RoleVendor, models.RoleAdmin), deps.Voucher.Redeem)
		}

		leaderboard := protected.Group("/leaderboard")
		{
			leaderboard.GET("/individuals", deps.Leaderboard.Individuals)
			leaderboard.GET("/universities", deps.Leaderboard.Universities)
			leaderboard.GET("/residences", deps.Leaderboard.Residences)
			leaderboard.GET("/search", deps.Leaderboard.Search)
			leaderboard.GET("/rank", deps.Leaderboard.Rank)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/voucher-templates", deps.Voucher.CreateTemplate)
		}
	}

	return router
}
