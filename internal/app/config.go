package app

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/packlabs/packvault-backend/internal/guard"
	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/utils"
)

type Config struct {
	Environment       string
	JWTSecretKey      string
	TokenTTL          time.Duration
	SettlementAsset   string
	MaxDailyDeposit   decimal.Decimal
	RateLimitWindow   time.Duration
	MaxSlippageBps    int64
	DeviationBps      int64
	RebalanceCooldown time.Duration
	SwapDeadline      time.Duration
	SwapFeeBps        int64
	OracleURL         string
	RouterURL         string
	SeedFile          string
	AllowOrigins      []string
}

func LoadConfig(log *logger.Logger) Config {
	environment := utils.GetEnv("APP_ENV", "development", log)
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "", log)
	if jwtSecretKey == "" && environment == "development" {
		if log != nil {
			log.Warn("JWT_SECRET_KEY not set, minting with an insecure development secret")
		}
		jwtSecretKey = "devsecret"
	}
	tokenTTLSeconds := utils.GetEnvAsInt("TOKEN_TTL", 3600, log)
	settlementAsset := utils.GetEnv("SETTLEMENT_ASSET", "USDC", log)
	maxDailyDeposit := utils.GetEnvAsDecimal("MAX_DAILY_DEPOSIT", "100000", log)
	rateLimitWindowSeconds := utils.GetEnvAsInt("RATE_LIMIT_WINDOW", 86400, log)
	maxSlippageBps := utils.GetEnvAsInt("MAX_SLIPPAGE_BPS", int(guard.DefaultMaxSlippageBps), log)
	deviationBps := utils.GetEnvAsInt("PRICE_DEVIATION_BPS", int(guard.DefaultDeviationBps), log)
	rebalanceCooldownSeconds := utils.GetEnvAsInt("REBALANCE_COOLDOWN", 7*86400, log)
	swapDeadlineSeconds := utils.GetEnvAsInt("SWAP_DEADLINE", 60, log)
	swapFeeBps := utils.GetEnvAsInt("SWAP_FEE_BPS", 30, log)
	oracleURL := utils.GetEnv("ORACLE_URL", "", log)
	routerURL := utils.GetEnv("ROUTER_URL", "", log)
	seedFile := utils.GetEnv("SEED_FILE", "", log)
	allowOrigins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log)

	return Config{
		Environment:       environment,
		JWTSecretKey:      jwtSecretKey,
		TokenTTL:          time.Duration(tokenTTLSeconds) * time.Second,
		SettlementAsset:   settlementAsset,
		MaxDailyDeposit:   maxDailyDeposit,
		RateLimitWindow:   time.Duration(rateLimitWindowSeconds) * time.Second,
		MaxSlippageBps:    int64(maxSlippageBps),
		DeviationBps:      int64(deviationBps),
		RebalanceCooldown: time.Duration(rebalanceCooldownSeconds) * time.Second,
		SwapDeadline:      time.Duration(swapDeadlineSeconds) * time.Second,
		SwapFeeBps:        int64(swapFeeBps),
		OracleURL:         oracleURL,
		RouterURL:         routerURL,
		SeedFile:          seedFile,
		AllowOrigins:      utils.SplitAndTrim(allowOrigins, ","),
	}
}

// Validate rejects configurations that must never reach a real deployment.
// Outside development there is no fallback signing secret, so an unset
// JWT_SECRET_KEY fails startup instead of minting forgeable tokens.
func (c Config) Validate() error {
	if c.JWTSecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY must be set when APP_ENV is %q", c.Environment)
	}
	return nil
}
