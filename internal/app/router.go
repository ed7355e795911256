package app

import (
	"github.com/gin-gonic/gin"

	"github.com/packlabs/packvault-backend/internal/observability"
	"github.com/packlabs/packvault-backend/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers, middlewareset Middleware, metrics *observability.Metrics) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthHandler:    handlerset.Auth,
		PackHandler:    handlerset.Pack,
		VaultHandler:   handlerset.Vault,
		AdminHandler:   handlerset.Admin,
		AuthMiddleware: middlewareset.Auth,
		Metrics:        metrics,
		AllowOrigins:   cfg.AllowOrigins,
	})
}
