package app

import (
	"gorm.io/gorm"

	"github.com/packlabs/packvault-backend/internal/authz"
	"github.com/packlabs/packvault-backend/internal/clients/oracle"
	"github.com/packlabs/packvault-backend/internal/clients/swaprouter"
	"github.com/packlabs/packvault-backend/internal/guard"
	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/observability"
	"github.com/packlabs/packvault-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	Pack         services.PackService
	Vault        services.VaultService
	Admin        services.AdminService
	Capabilities *services.Capabilities
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	capabilities := services.NewCapabilities(clients.Oracle, clients.Router)
	policy := authz.NewPolicy()
	callGuard := services.NewCallGuard()
	priceGuard := guard.New(log, metrics, cfg.MaxSlippageBps, cfg.DeviationBps)

	authService := services.NewAuthService(log, cfg.JWTSecretKey, cfg.TokenTTL)

	packService := services.NewPackService(
		db, log,
		reposet.Pack, reposet.Share, reposet.Record,
		capabilities, policy, callGuard, metrics, clients.Bus,
	)

	vaultService := services.NewVaultService(
		db, log,
		reposet.Pack, reposet.Share, reposet.RateLimit, reposet.Record, reposet.VaultState,
		capabilities, priceGuard, policy, callGuard, metrics, clients.Bus,
		services.VaultConfig{
			SettlementAsset: cfg.SettlementAsset,
			MaxDailyDeposit: cfg.MaxDailyDeposit,
			RateLimitWindow: cfg.RateLimitWindow,
			SwapDeadline:    cfg.SwapDeadline,
		},
	)

	oracleFactory := func(endpoint string) (oracle.PriceOracle, error) {
		return oracle.NewHTTPOracle(log, endpoint, cfg.DeviationBps)
	}
	routerFactory := func(endpoint string) (swaprouter.SwapRouter, error) {
		return swaprouter.NewHTTPRouter(log, endpoint)
	}

	adminService := services.NewAdminService(
		db, log,
		reposet.Pack, reposet.Orphan, reposet.Record, reposet.VaultState,
		capabilities, policy, callGuard, metrics, clients.Bus,
		oracleFactory, routerFactory,
		cfg.RebalanceCooldown,
	)

	return Services{
		Auth:         authService,
		Pack:         packService,
		Vault:        vaultService,
		Admin:        adminService,
		Capabilities: capabilities,
	}
}
