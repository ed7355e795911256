package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/packlabs/packvault-backend/internal/authz"
	"github.com/packlabs/packvault-backend/internal/handlers"
	"github.com/packlabs/packvault-backend/internal/middleware"
	"github.com/packlabs/packvault-backend/internal/observability"
)

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	PackHandler    *handlers.PackHandler
	VaultHandler   *handlers.VaultHandler
	AdminHandler   *handlers.AdminHandler
	AuthMiddleware *middleware.AuthMiddleware
	Metrics        *observability.Metrics
	AllowOrigins   []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	router.POST("/auth/token", cfg.AuthHandler.Token)

	// Authenticated
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	packs := api.Group("/packs")
	packs.GET("", cfg.PackHandler.List)
	packs.GET("/:id", cfg.PackHandler.Get)
	packs.GET("/:id/value", cfg.PackHandler.Value)
	packs.GET("/:id/composition", cfg.PackHandler.Composition)
	packs.GET("/:id/positions/:depositor", cfg.PackHandler.UserValue)
	packs.GET("/:id/deposits", cfg.PackHandler.Deposits)
	packs.POST("/:id/deposits", cfg.VaultHandler.Deposit)
	packs.POST("/:id/withdrawals", cfg.VaultHandler.Withdraw)

	// Admin
	admin := api.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireRole(authz.RoleAdmin))
	admin.POST("/packs", cfg.PackHandler.Create)
	admin.POST("/packs/:id/rebalance", cfg.AdminHandler.Rebalance)
	admin.POST("/pause", cfg.AdminHandler.Pause)
	admin.POST("/unpause", cfg.AdminHandler.Unpause)
	admin.POST("/emergency-withdraw", cfg.AdminHandler.EmergencyWithdraw)
	admin.POST("/rotate-oracle", cfg.AdminHandler.RotateOracle)
	admin.POST("/rotate-router", cfg.AdminHandler.RotateRouter)

	return router
}
