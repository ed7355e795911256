package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/packlabs/packvault-backend/internal/authz"
	"github.com/packlabs/packvault-backend/internal/clients/oracle"
	"github.com/packlabs/packvault-backend/internal/clients/redis"
	"github.com/packlabs/packvault-backend/internal/clients/swaprouter"
	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/observability"
	"github.com/packlabs/packvault-backend/internal/repos"
	"github.com/packlabs/packvault-backend/internal/types"
	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

// OracleFactory and RouterFactory build fresh capability clients when the
// admin rotates an endpoint.
type (
	OracleFactory func(endpoint string) (oracle.PriceOracle, error)
	RouterFactory func(endpoint string) (swaprouter.SwapRouter, error)
)

type AdminService interface {
	Rebalance(ctx context.Context, packID string, allocations []AllocationSpec) (*types.Pack, error)
	Pause(ctx context.Context, reason string) error
	Unpause(ctx context.Context) error
	EmergencyWithdrawToken(ctx context.Context, asset string, amount decimal.Decimal, recipient string) error
	RotateOracle(ctx context.Context, endpoint string) error
	RotateRouter(ctx context.Context, endpoint string) error
}

type adminService struct {
	db            *gorm.DB
	log           *logger.Logger
	packRepo      repos.PackRepo
	orphanRepo    repos.OrphanedBalanceRepo
	recordRepo    repos.RecordRepo
	stateRepo     repos.VaultStateRepo
	capabilities  *Capabilities
	policy        *authz.Policy
	callGuard     *CallGuard
	metrics       *observability.Metrics
	bus           redis.RecordBus
	oracleFactory OracleFactory
	routerFactory RouterFactory
	cooldown      time.Duration
	now           func() time.Time
}

func NewAdminService(
	db *gorm.DB,
	log *logger.Logger,
	packRepo repos.PackRepo,
	orphanRepo repos.OrphanedBalanceRepo,
	recordRepo repos.RecordRepo,
	stateRepo repos.VaultStateRepo,
	capabilities *Capabilities,
	policy *authz.Policy,
	callGuard *CallGuard,
	metrics *observability.Metrics,
	bus redis.RecordBus,
	oracleFactory OracleFactory,
	routerFactory RouterFactory,
	cooldown time.Duration,
) AdminService {
	serviceLog := log.With("service", "AdminService")
	return &adminService{
		db:            db,
		log:           serviceLog,
		packRepo:      packRepo,
		orphanRepo:    orphanRepo,
		recordRepo:    recordRepo,
		stateRepo:     stateRepo,
		capabilities:  capabilities,
		policy:        policy,
		callGuard:     callGuard,
		metrics:       metrics,
		bus:           bus,
		oracleFactory: oracleFactory,
		routerFactory: routerFactory,
		cooldown:      cooldown,
		now:           time.Now,
	}
}

// Rebalance replaces a pack's allocation list wholesale. Balances of
// surviving constituents carry over; balances of dropped constituents move
// to the orphaned-balance table rather than being liquidated, pending a
// separate convergence trade.
func (as *adminService) Rebalance(ctx context.Context, packID string, allocations []AllocationSpec) (*types.Pack, error) {
	rd, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := as.policy.RequireAdmin(rd.Role); err != nil {
		return nil, err
	}
	if err := validateAllocationSpecs(allocations); err != nil {
		return nil, err
	}

	ctx, release, err := as.callGuard.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var pack *types.Pack

	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pack, err = as.packRepo.GetByID(ctx, tx, packID)
		if err != nil {
			return err
		}
		if pack == nil || !pack.Active {
			return vaulterr.Newf(vaulterr.KindNotFound, "pack_not_found", "no active pack %q", packID)
		}

		now := as.now()
		if !pack.LastRebalanceAt.IsZero() {
			elapsed := now.Sub(pack.LastRebalanceAt)
			if elapsed < as.cooldown {
				return vaulterr.Newf(vaulterr.KindCooldown, "rebalance_cooldown",
					"pack %q rebalanced %s ago, cooldown is %s", packID, elapsed, as.cooldown)
			}
		}

		balanceByAsset := make(map[string]decimal.Decimal, len(pack.Allocations))
		for _, alloc := range pack.Allocations {
			balanceByAsset[alloc.Asset] = alloc.CurrentBalance
		}

		next := make([]*types.TokenAllocation, 0, len(allocations))
		kept := make(map[string]struct{}, len(allocations))
		for i, spec := range allocations {
			balance := decimal.Zero
			if prev, ok := balanceByAsset[spec.Asset]; ok {
				balance = prev
			}
			kept[spec.Asset] = struct{}{}
			next = append(next, &types.TokenAllocation{
				ID:             uuid.New(),
				PackID:         packID,
				Asset:          spec.Asset,
				WeightBps:      spec.WeightBps,
				CurrentBalance: balance,
				Position:       i,
			})
		}

		for _, alloc := range pack.Allocations {
			if _, ok := kept[alloc.Asset]; ok {
				continue
			}
			if !alloc.CurrentBalance.IsPositive() {
				continue
			}
			if err := as.orphanRepo.Create(ctx, tx, &types.OrphanedBalance{
				ID:     uuid.New(),
				PackID: packID,
				Asset:  alloc.Asset,
				Amount: alloc.CurrentBalance,
			}); err != nil {
				return err
			}
			as.log.Warn("Constituent dropped without liquidation",
				"pack_id", packID,
				"asset", alloc.Asset,
				"amount", alloc.CurrentBalance.String(),
			)
		}

		if err := as.packRepo.ReplaceAllocations(ctx, tx, packID, next); err != nil {
			return err
		}

		pack.LastRebalanceAt = now
		if err := as.packRepo.SetLastRebalance(ctx, tx, pack); err != nil {
			return err
		}

		payload, err := json.Marshal(allocations)
		if err != nil {
			return err
		}
		record := &types.RebalanceRecord{ID: uuid.New(), PackID: packID, Allocations: string(payload)}
		if err := as.recordRepo.CreateRebalance(ctx, tx, record); err != nil {
			return err
		}

		refreshed := make([]types.TokenAllocation, 0, len(next))
		for _, alloc := range next {
			refreshed = append(refreshed, *alloc)
		}
		pack.Allocations = refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}

	as.metrics.IncRebalance()
	as.publish(ctx, "rebalance", map[string]interface{}{
		"pack_id":     packID,
		"allocations": allocations,
	})
	as.log.Info("Pack rebalanced", "pack_id", packID, "constituents", len(allocations))
	return pack, nil
}

func (as *adminService) Pause(ctx context.Context, reason string) error {
	return as.setPaused(ctx, true, reason)
}

func (as *adminService) Unpause(ctx context.Context) error {
	return as.setPaused(ctx, false, "")
}

func (as *adminService) setPaused(ctx context.Context, paused bool, reason string) error {
	rd, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if err := as.policy.RequireAdmin(rd.Role); err != nil {
		return err
	}

	ctx, release, err := as.callGuard.Enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	action := "unpaused"
	if paused {
		action = "paused"
	}

	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state, err := as.stateRepo.Get(ctx, tx)
		if err != nil {
			return err
		}
		state.Paused = paused
		state.PauseReason = reason
		if err := as.stateRepo.Save(ctx, tx, state); err != nil {
			return err
		}
		record := &types.PauseRecord{ID: uuid.New(), Action: action, Reason: reason}
		return as.recordRepo.CreatePause(ctx, tx, record)
	})
	if err != nil {
		return err
	}

	as.metrics.IncPause(action)
	as.publish(ctx, action, map[string]string{"reason": reason})
	as.log.Warn("Vault pause switch changed", "action", action, "reason", reason)
	return nil
}

// EmergencyWithdrawToken drains raw custody of one asset irrespective of
// pack accounting: orphaned balances first, then live allocation balances.
// Incident response only; share-proportional logic is deliberately
// bypassed.
func (as *adminService) EmergencyWithdrawToken(ctx context.Context, asset string, amount decimal.Decimal, recipient string) error {
	rd, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if err := as.policy.RequireAdmin(rd.Role); err != nil {
		return err
	}
	if asset == "" || recipient == "" {
		return vaulterr.New(vaulterr.KindValidation, "missing_identifier", fmt.Errorf("asset and recipient required"))
	}
	if !amount.IsPositive() {
		return vaulterr.Newf(vaulterr.KindValidation, "invalid_amount", "amount must be positive, got %s", amount)
	}

	ctx, release, err := as.callGuard.Enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		remaining := amount

		orphans, err := as.orphanRepo.ListByAsset(ctx, tx, asset)
		if err != nil {
			return err
		}
		for _, orphan := range orphans {
			if !remaining.IsPositive() {
				break
			}
			take := decimal.Min(orphan.Amount, remaining)
			orphan.Amount = orphan.Amount.Sub(take)
			remaining = remaining.Sub(take)
			if orphan.Amount.IsZero() {
				if err := as.orphanRepo.Delete(ctx, tx, orphan); err != nil {
					return err
				}
			} else {
				if err := as.orphanRepo.Save(ctx, tx, orphan); err != nil {
					return err
				}
			}
		}

		if remaining.IsPositive() {
			allocs, err := as.packRepo.ListAllocationsByAsset(ctx, tx, asset)
			if err != nil {
				return err
			}
			for _, alloc := range allocs {
				if !remaining.IsPositive() {
					break
				}
				take := decimal.Min(alloc.CurrentBalance, remaining)
				if !take.IsPositive() {
					continue
				}
				alloc.CurrentBalance = alloc.CurrentBalance.Sub(take)
				remaining = remaining.Sub(take)
				if err := as.packRepo.SaveAllocation(ctx, tx, alloc); err != nil {
					return err
				}
			}
		}

		if remaining.IsPositive() {
			return vaulterr.Newf(vaulterr.KindValidation, "insufficient_custody",
				"custody holds less than %s of %s", amount, asset)
		}

		record := &types.EmergencyWithdrawalRecord{
			ID:        uuid.New(),
			Asset:     asset,
			Amount:    amount,
			Recipient: recipient,
		}
		return as.recordRepo.CreateEmergencyWithdrawal(ctx, tx, record)
	})
	if err != nil {
		return err
	}

	as.publish(ctx, "emergency_withdrawal", map[string]string{
		"asset":     asset,
		"amount":    amount.String(),
		"recipient": recipient,
	})
	as.log.Warn("Emergency withdrawal executed", "asset", asset, "amount", amount.String(), "recipient", recipient)
	return nil
}

func (as *adminService) RotateOracle(ctx context.Context, endpoint string) error {
	rd, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if err := as.policy.RequireAdmin(rd.Role); err != nil {
		return err
	}
	if as.oracleFactory == nil {
		return vaulterr.New(vaulterr.KindValidation, "rotation_unavailable", fmt.Errorf("no oracle factory configured"))
	}

	next, err := as.oracleFactory(endpoint)
	if err != nil {
		return vaulterr.New(vaulterr.KindValidation, "invalid_endpoint", err)
	}
	as.capabilities.RotateOracle(next)
	as.log.Warn("Oracle rotated", "endpoint", endpoint)
	return nil
}

func (as *adminService) RotateRouter(ctx context.Context, endpoint string) error {
	rd, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if err := as.policy.RequireAdmin(rd.Role); err != nil {
		return err
	}
	if as.routerFactory == nil {
		return vaulterr.New(vaulterr.KindValidation, "rotation_unavailable", fmt.Errorf("no router factory configured"))
	}

	next, err := as.routerFactory(endpoint)
	if err != nil {
		return vaulterr.New(vaulterr.KindValidation, "invalid_endpoint", err)
	}
	as.capabilities.RotateRouter(next)
	as.log.Warn("Router rotated", "endpoint", endpoint)
	return nil
}

func (as *adminService) publish(ctx context.Context, kind string, payload interface{}) {
	if as.bus == nil {
		return
	}
	if err := as.bus.Publish(ctx, kind, payload); err != nil {
		as.log.Warn("Failed to publish record", "kind", kind, "error", err)
	}
}
