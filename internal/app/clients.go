package app

import (
	"os"

	"github.com/shopspring/decimal"

	"github.com/packlabs/packvault-backend/internal/clients/oracle"
	"github.com/packlabs/packvault-backend/internal/clients/redis"
	"github.com/packlabs/packvault-backend/internal/clients/swaprouter"
	"github.com/packlabs/packvault-backend/internal/logger"
)

type Clients struct {
	Oracle oracle.PriceOracle
	Router swaprouter.SwapRouter
	Bus    redis.RecordBus
}

// wireClients builds the external capability clients. With no oracle URL
// configured the app falls back to a static oracle and an oracle-priced
// router, which is the local development setup.
func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	var (
		priceOracle oracle.PriceOracle
		err         error
	)
	if cfg.OracleURL != "" {
		priceOracle, err = oracle.NewHTTPOracle(log, cfg.OracleURL, cfg.DeviationBps)
		if err != nil {
			return Clients{}, err
		}
	} else {
		log.Warn("No ORACLE_URL configured, using static oracle")
		priceOracle = oracle.NewStaticOracle(map[string]decimal.Decimal{
			cfg.SettlementAsset: decimal.NewFromInt(1),
		}, cfg.DeviationBps)
	}

	var router swaprouter.SwapRouter
	if cfg.RouterURL != "" {
		router, err = swaprouter.NewHTTPRouter(log, cfg.RouterURL)
		if err != nil {
			return Clients{}, err
		}
	} else {
		log.Warn("No ROUTER_URL configured, using oracle-priced router")
		router = swaprouter.NewOracleSwapRouter(priceOracle, cfg.SettlementAsset, cfg.SwapFeeBps)
	}

	var bus redis.RecordBus
	if os.Getenv("REDIS_ADDR") != "" {
		bus, err = redis.NewRecordBus(log)
		if err != nil {
			return Clients{}, err
		}
	} else {
		log.Warn("No REDIS_ADDR configured, record bus disabled")
	}

	return Clients{Oracle: priceOracle, Router: router, Bus: bus}, nil
}
