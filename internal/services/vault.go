package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/packlabs/packvault-backend/internal/authz"
	"github.com/packlabs/packvault-backend/internal/clients/oracle"
	"github.com/packlabs/packvault-backend/internal/clients/redis"
	"github.com/packlabs/packvault-backend/internal/clients/swaprouter"
	"github.com/packlabs/packvault-backend/internal/guard"
	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/observability"
	"github.com/packlabs/packvault-backend/internal/repos"
	"github.com/packlabs/packvault-backend/internal/types"
	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

// VaultConfig carries the deposit/withdrawal engine limits.
type VaultConfig struct {
	SettlementAsset string
	MaxDailyDeposit decimal.Decimal
	RateLimitWindow time.Duration
	SwapDeadline    time.Duration
}

type DepositInput struct {
	PackID      string
	Amount      decimal.Decimal
	Beneficiary string
	ReferenceID string
	SlippageBps int64
}

type WithdrawInput struct {
	PackID              string
	SharesToBurn        decimal.Decimal
	Depositor           string
	Recipient           string
	ConvertToSettlement bool
	SlippageBps         int64
}

type AssetAmount struct {
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

type DepositResult struct {
	Record       *types.DepositRecord
	SharesMinted decimal.Decimal
	Fills        []AssetAmount
}

type WithdrawResult struct {
	Record          *types.WithdrawalRecord
	AmountsReturned []AssetAmount
}

type VaultService interface {
	Deposit(ctx context.Context, input DepositInput) (*DepositResult, error)
	Withdraw(ctx context.Context, input WithdrawInput) (*WithdrawResult, error)
}

type vaultService struct {
	db            *gorm.DB
	log           *logger.Logger
	packRepo      repos.PackRepo
	shareRepo     repos.SharePositionRepo
	rateRepo      repos.RateLimitRepo
	recordRepo    repos.RecordRepo
	stateRepo     repos.VaultStateRepo
	capabilities  *Capabilities
	priceGuard    *guard.Guard
	policy        *authz.Policy
	callGuard     *CallGuard
	metrics       *observability.Metrics
	bus           redis.RecordBus
	cfg           VaultConfig
	now           func() time.Time
}

func NewVaultService(
	db *gorm.DB,
	log *logger.Logger,
	packRepo repos.PackRepo,
	shareRepo repos.SharePositionRepo,
	rateRepo repos.RateLimitRepo,
	recordRepo repos.RecordRepo,
	stateRepo repos.VaultStateRepo,
	capabilities *Capabilities,
	priceGuard *guard.Guard,
	policy *authz.Policy,
	callGuard *CallGuard,
	metrics *observability.Metrics,
	bus redis.RecordBus,
	cfg VaultConfig,
) VaultService {
	serviceLog := log.With("service", "VaultService")
	return &vaultService{
		db:           db,
		log:          serviceLog,
		packRepo:     packRepo,
		shareRepo:    shareRepo,
		rateRepo:     rateRepo,
		recordRepo:   recordRepo,
		stateRepo:    stateRepo,
		capabilities: capabilities,
		priceGuard:   priceGuard,
		policy:       policy,
		callGuard:    callGuard,
		metrics:      metrics,
		bus:          bus,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (vs *vaultService) Deposit(ctx context.Context, input DepositInput) (*DepositResult, error) {
	result, err := vs.deposit(ctx, input)
	if err != nil {
		vs.metrics.IncDeposit("rejected")
		vs.metrics.IncOpError(string(vaulterr.KindOf(err)))
		return nil, err
	}
	vs.metrics.IncDeposit("ok")
	vs.metrics.AddDepositVolume(input.Amount.InexactFloat64())
	vs.publish(ctx, "deposit", result.Record)
	return result, nil
}

func (vs *vaultService) deposit(ctx context.Context, input DepositInput) (*DepositResult, error) {
	rd, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if input.Beneficiary == "" {
		return nil, vaulterr.New(vaulterr.KindValidation, "missing_beneficiary", fmt.Errorf("beneficiary identity required"))
	}
	if err := vs.policy.RequireActFor(rd.Role, rd.Subject, input.Beneficiary); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, vaulterr.Newf(vaulterr.KindValidation, "invalid_amount", "deposit amount must be positive, got %s", input.Amount)
	}
	slippageBps, err := vs.priceGuard.ResolveSlippage(input.SlippageBps)
	if err != nil {
		return nil, err
	}

	ctx, release, err := vs.callGuard.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	// Snapshot both capabilities so a rotation landing mid-flight cannot
	// value the basket with one oracle and price the swaps with another.
	priceOracle := vs.capabilities.Oracle()
	router := vs.capabilities.Router()

	var result *DepositResult

	err = vs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := vs.requireUnpaused(ctx, tx); err != nil {
			return err
		}
		pack, err := vs.activePack(ctx, tx, input.PackID)
		if err != nil {
			return err
		}
		if err := vs.applyRateLimit(ctx, tx, input.PackID, input.Beneficiary, input.Amount); err != nil {
			return err
		}

		// Pre-trade valuation: the depositor's own conversions must not
		// move the price their shares are minted at.
		packValue, err := basketValue(ctx, priceOracle, pack)
		if err != nil {
			return err
		}

		var sharesMinted decimal.Decimal
		switch {
		case pack.TotalShares.IsZero():
			// Bootstrap 1:1: the first depositor defines the share unit.
			sharesMinted = input.Amount
		case packValue.IsZero():
			return vaulterr.Newf(vaulterr.KindValidation, "pack_value_zero",
				"pack %q has outstanding shares but zero basket value", input.PackID)
		default:
			sharesMinted = input.Amount.Mul(pack.TotalShares).Div(packValue)
		}

		position, err := vs.shareRepo.Get(ctx, tx, input.PackID, input.Beneficiary)
		if err != nil {
			return err
		}
		if position == nil {
			position = &types.SharePosition{
				ID:        uuid.New(),
				PackID:    input.PackID,
				Depositor: input.Beneficiary,
				Shares:    decimal.Zero,
			}
		}
		position.Shares = position.Shares.Add(sharesMinted)
		if err := vs.shareRepo.Save(ctx, tx, position); err != nil {
			return err
		}

		pack.TotalShares = pack.TotalShares.Add(sharesMinted)
		pack.TotalValueLocked = pack.TotalValueLocked.Add(input.Amount)
		if err := vs.packRepo.UpdateCounters(ctx, tx, pack); err != nil {
			return err
		}

		fills, err := vs.convertIntoConstituents(ctx, tx, priceOracle, router, pack, input.Amount, slippageBps)
		if err != nil {
			return err
		}

		record := &types.DepositRecord{
			ID:           uuid.New(),
			PackID:       input.PackID,
			Depositor:    input.Beneficiary,
			Amount:       input.Amount,
			SharesMinted: sharesMinted,
			ReferenceID:  input.ReferenceID,
		}
		if err := vs.recordRepo.CreateDeposit(ctx, tx, record); err != nil {
			return err
		}

		result = &DepositResult{Record: record, SharesMinted: sharesMinted, Fills: fills}
		return nil
	})
	if err != nil {
		return nil, err
	}

	vs.log.Info("Deposit settled",
		"pack_id", input.PackID,
		"depositor", input.Beneficiary,
		"amount", input.Amount.String(),
		"shares_minted", result.SharesMinted.String(),
		"reference_id", input.ReferenceID,
	)
	return result, nil
}

// convertIntoConstituents fans one settlement-currency amount out across the
// pack's allocation targets. Any failed conversion fails the whole deposit.
func (vs *vaultService) convertIntoConstituents(ctx context.Context, tx *gorm.DB, priceOracle oracle.PriceOracle, router swaprouter.SwapRouter, pack *types.Pack, amount decimal.Decimal, slippageBps int64) ([]AssetAmount, error) {
	deadline := vs.now().Add(vs.cfg.SwapDeadline)
	weightScale := decimal.NewFromInt(types.WeightScale)

	fills := make([]AssetAmount, 0, len(pack.Allocations))
	for i := range pack.Allocations {
		alloc := &pack.Allocations[i]
		notional := amount.Mul(decimal.NewFromInt(alloc.WeightBps)).Div(weightScale)

		minOut, err := vs.priceGuard.MinimumOutput(ctx, priceOracle, alloc.Asset, notional, slippageBps)
		if err != nil {
			return nil, err
		}
		out, err := router.ExecuteSwap(ctx, swaprouter.SwapRequest{
			FromAsset:    vs.cfg.SettlementAsset,
			ToAsset:      alloc.Asset,
			AmountIn:     notional,
			MinAmountOut: minOut,
			Deadline:     deadline,
		})
		if err != nil {
			return nil, fmt.Errorf("convert %s into %s: %w", vs.cfg.SettlementAsset, alloc.Asset, err)
		}
		if out.LessThan(minOut) {
			return nil, vaulterr.Newf(vaulterr.KindSlippageExceeded, "slippage_exceeded",
				"router delivered %s %s, below minimum %s", out, alloc.Asset, minOut)
		}
		if out.IsPositive() {
			vs.priceGuard.CheckExecution(ctx, priceOracle, alloc.Asset, notional.Div(out))
		}

		alloc.CurrentBalance = alloc.CurrentBalance.Add(out)
		if err := vs.packRepo.SaveAllocation(ctx, tx, alloc); err != nil {
			return nil, err
		}
		fills = append(fills, AssetAmount{Asset: alloc.Asset, Amount: out})
	}
	return fills, nil
}

func (vs *vaultService) Withdraw(ctx context.Context, input WithdrawInput) (*WithdrawResult, error) {
	result, err := vs.withdraw(ctx, input)
	if err != nil {
		vs.metrics.IncWithdrawal("rejected")
		vs.metrics.IncOpError(string(vaulterr.KindOf(err)))
		return nil, err
	}
	vs.metrics.IncWithdrawal("ok")
	vs.publish(ctx, "withdrawal", result.Record)
	return result, nil
}

func (vs *vaultService) withdraw(ctx context.Context, input WithdrawInput) (*WithdrawResult, error) {
	rd, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if input.Depositor == "" {
		input.Depositor = rd.Subject
	}
	if err := vs.policy.RequireActFor(rd.Role, rd.Subject, input.Depositor); err != nil {
		return nil, err
	}
	if input.Recipient == "" {
		input.Recipient = input.Depositor
	}
	if !input.SharesToBurn.IsPositive() {
		return nil, vaulterr.Newf(vaulterr.KindValidation, "invalid_shares", "shares to burn must be positive, got %s", input.SharesToBurn)
	}
	slippageBps, err := vs.priceGuard.ResolveSlippage(input.SlippageBps)
	if err != nil {
		return nil, err
	}

	ctx, release, err := vs.callGuard.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	priceOracle := vs.capabilities.Oracle()
	router := vs.capabilities.Router()

	var result *WithdrawResult

	err = vs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := vs.requireUnpaused(ctx, tx); err != nil {
			return err
		}
		pack, err := vs.activePack(ctx, tx, input.PackID)
		if err != nil {
			return err
		}

		position, err := vs.shareRepo.Get(ctx, tx, input.PackID, input.Depositor)
		if err != nil {
			return err
		}
		if position == nil || position.Shares.LessThan(input.SharesToBurn) {
			return vaulterr.Newf(vaulterr.KindValidation, "insufficient_shares",
				"depositor %q holds fewer than %s shares of %q", input.Depositor, input.SharesToBurn, input.PackID)
		}

		// One fixed-point proportion reused for every constituent, so the
		// redemption is proportional rather than sequentially drifting.
		proportion := input.SharesToBurn.Div(pack.TotalShares)

		position.Shares = position.Shares.Sub(input.SharesToBurn)
		if err := vs.shareRepo.Save(ctx, tx, position); err != nil {
			return err
		}
		pack.TotalShares = pack.TotalShares.Sub(input.SharesToBurn)

		amounts, settlementTotal, err := vs.redeemConstituents(ctx, tx, priceOracle, router, pack, proportion, input.ConvertToSettlement, slippageBps)
		if err != nil {
			return err
		}
		if input.ConvertToSettlement {
			pack.TotalValueLocked = pack.TotalValueLocked.Sub(settlementTotal)
			if pack.TotalValueLocked.IsNegative() {
				pack.TotalValueLocked = decimal.Zero
			}
		}
		if err := vs.packRepo.UpdateCounters(ctx, tx, pack); err != nil {
			return err
		}

		record := &types.WithdrawalRecord{
			ID:              uuid.New(),
			PackID:          input.PackID,
			Depositor:       input.Depositor,
			SharesBurned:    input.SharesToBurn,
			SettlementValue: settlementTotal,
		}
		if err := vs.recordRepo.CreateWithdrawal(ctx, tx, record); err != nil {
			return err
		}

		result = &WithdrawResult{Record: record, AmountsReturned: amounts}
		return nil
	})
	if err != nil {
		return nil, err
	}

	vs.log.Info("Withdrawal settled",
		"pack_id", input.PackID,
		"depositor", input.Depositor,
		"recipient", input.Recipient,
		"shares_burned", input.SharesToBurn.String(),
		"convert_to_settlement", input.ConvertToSettlement,
	)
	return result, nil
}

// redeemConstituents carves proportion out of every constituent balance.
// When converting, proceeds accumulate into one settlement payout instead
// of per-constituent transfers.
func (vs *vaultService) redeemConstituents(ctx context.Context, tx *gorm.DB, priceOracle oracle.PriceOracle, router swaprouter.SwapRouter, pack *types.Pack, proportion decimal.Decimal, convert bool, slippageBps int64) ([]AssetAmount, decimal.Decimal, error) {
	deadline := vs.now().Add(vs.cfg.SwapDeadline)

	amounts := make([]AssetAmount, 0, len(pack.Allocations))
	settlementTotal := decimal.Zero

	for i := range pack.Allocations {
		alloc := &pack.Allocations[i]
		tokenAmount := alloc.CurrentBalance.Mul(proportion)
		if !tokenAmount.IsPositive() {
			continue
		}

		if convert {
			minOut, err := vs.priceGuard.MinimumProceeds(ctx, priceOracle, alloc.Asset, tokenAmount, slippageBps)
			if err != nil {
				return nil, decimal.Zero, err
			}
			out, err := router.ExecuteSwap(ctx, swaprouter.SwapRequest{
				FromAsset:    alloc.Asset,
				ToAsset:      vs.cfg.SettlementAsset,
				AmountIn:     tokenAmount,
				MinAmountOut: minOut,
				Deadline:     deadline,
			})
			if err != nil {
				return nil, decimal.Zero, fmt.Errorf("convert %s into %s: %w", alloc.Asset, vs.cfg.SettlementAsset, err)
			}
			if out.LessThan(minOut) {
				return nil, decimal.Zero, vaulterr.Newf(vaulterr.KindSlippageExceeded, "slippage_exceeded",
					"router delivered %s %s, below minimum %s", out, vs.cfg.SettlementAsset, minOut)
			}
			vs.priceGuard.CheckExecution(ctx, priceOracle, alloc.Asset, out.Div(tokenAmount))
			settlementTotal = settlementTotal.Add(out)
		} else {
			amounts = append(amounts, AssetAmount{Asset: alloc.Asset, Amount: tokenAmount})
		}

		alloc.CurrentBalance = alloc.CurrentBalance.Sub(tokenAmount)
		if err := vs.packRepo.SaveAllocation(ctx, tx, alloc); err != nil {
			return nil, decimal.Zero, err
		}
	}

	if convert {
		amounts = append(amounts, AssetAmount{Asset: vs.cfg.SettlementAsset, Amount: settlementTotal})
	}
	return amounts, settlementTotal, nil
}

// applyRateLimit enforces the rolling-window deposit cap for one
// (depositor, pack) pair. The window resets lazily once expired.
func (vs *vaultService) applyRateLimit(ctx context.Context, tx *gorm.DB, packID, depositor string, amount decimal.Decimal) error {
	state, err := vs.rateRepo.Get(ctx, tx, packID, depositor)
	if err != nil {
		return err
	}
	now := vs.now()
	if state == nil {
		state = &types.RateLimitState{
			ID:          uuid.New(),
			PackID:      packID,
			Depositor:   depositor,
			Volume:      decimal.Zero,
			WindowStart: now,
		}
	}
	if now.Sub(state.WindowStart) >= vs.cfg.RateLimitWindow {
		state.Volume = decimal.Zero
		state.WindowStart = now
	}
	state.Volume = state.Volume.Add(amount)
	if state.Volume.GreaterThan(vs.cfg.MaxDailyDeposit) {
		return vaulterr.Newf(vaulterr.KindLimitExceeded, "daily_limit_exceeded",
			"deposit would take %q to %s in the current window, cap is %s", depositor, state.Volume, vs.cfg.MaxDailyDeposit)
	}
	return vs.rateRepo.Save(ctx, tx, state)
}

func (vs *vaultService) requireUnpaused(ctx context.Context, tx *gorm.DB) error {
	state, err := vs.stateRepo.Get(ctx, tx)
	if err != nil {
		return err
	}
	if state.Paused {
		return vaulterr.Newf(vaulterr.KindPaused, "vault_paused", "vault is paused: %s", state.PauseReason)
	}
	return nil
}

func (vs *vaultService) activePack(ctx context.Context, tx *gorm.DB, packID string) (*types.Pack, error) {
	pack, err := vs.packRepo.GetByID(ctx, tx, packID)
	if err != nil {
		return nil, err
	}
	if pack == nil || !pack.Active {
		return nil, vaulterr.Newf(vaulterr.KindNotFound, "pack_not_found", "no active pack %q", packID)
	}
	return pack, nil
}

func (vs *vaultService) publish(ctx context.Context, kind string, payload interface{}) {
	if vs.bus == nil {
		return
	}
	if err := vs.bus.Publish(ctx, kind, payload); err != nil {
		vs.log.Warn("Failed to publish record", "kind", kind, "error", err)
	}
}
