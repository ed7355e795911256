package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/packlabs/packvault-backend/internal/authz"
	"github.com/packlabs/packvault-backend/internal/clients/redis"
	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/observability"
	"github.com/packlabs/packvault-backend/internal/repos"
	"github.com/packlabs/packvault-backend/internal/types"
	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

// AllocationSpec is one requested constituent of a pack.
type AllocationSpec struct {
	Asset     string `json:"asset"`
	WeightBps int64  `json:"weight_bps"`
}

type PackService interface {
	CreatePack(ctx context.Context, id, name string, allocations []AllocationSpec) (*types.Pack, error)
	GetPack(ctx context.Context, packID string) (*types.Pack, error)
	GetPackValue(ctx context.Context, packID string) (decimal.Decimal, error)
	GetUserValue(ctx context.Context, packID, depositor string) (decimal.Decimal, error)
	GetComposition(ctx context.Context, packID string) ([]types.TokenAllocation, error)
	ListDeposits(ctx context.Context, packID string) ([]*types.DepositRecord, error)
	ListPackIDs(ctx context.Context) ([]string, error)
}

type packService struct {
	db           *gorm.DB
	log          *logger.Logger
	packRepo     repos.PackRepo
	shareRepo    repos.SharePositionRepo
	recordRepo   repos.RecordRepo
	capabilities *Capabilities
	policy       *authz.Policy
	callGuard    *CallGuard
	metrics      *observability.Metrics
	bus          redis.RecordBus
}

func NewPackService(
	db *gorm.DB,
	log *logger.Logger,
	packRepo repos.PackRepo,
	shareRepo repos.SharePositionRepo,
	recordRepo repos.RecordRepo,
	capabilities *Capabilities,
	policy *authz.Policy,
	callGuard *CallGuard,
	metrics *observability.Metrics,
	bus redis.RecordBus,
) PackService {
	serviceLog := log.With("service", "PackService")
	return &packService{
		db:           db,
		log:          serviceLog,
		packRepo:     packRepo,
		shareRepo:    shareRepo,
		recordRepo:   recordRepo,
		capabilities: capabilities,
		policy:       policy,
		callGuard:    callGuard,
		metrics:      metrics,
		bus:          bus,
	}
}

func (ps *packService) CreatePack(ctx context.Context, id, name string, allocations []AllocationSpec) (*types.Pack, error) {
	rd, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := ps.policy.RequireAdmin(rd.Role); err != nil {
		return nil, err
	}
	if err := validateAllocationSpecs(allocations); err != nil {
		return nil, err
	}
	if id == "" || name == "" {
		return nil, vaulterr.New(vaulterr.KindValidation, "missing_identifier", fmt.Errorf("pack id and name required"))
	}

	ctx, release, err := ps.callGuard.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	pack := &types.Pack{
		ID:               id,
		Name:             name,
		Active:           true,
		TotalShares:      decimal.Zero,
		TotalValueLocked: decimal.Zero,
	}
	var record *types.PackCreatedRecord

	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := ps.packRepo.Exists(ctx, tx, id)
		if err != nil {
			return err
		}
		if exists {
			return vaulterr.Newf(vaulterr.KindValidation, "pack_exists", "pack %q already exists", id)
		}

		for i, spec := range allocations {
			pack.Allocations = append(pack.Allocations, types.TokenAllocation{
				ID:             uuid.New(),
				PackID:         id,
				Asset:          spec.Asset,
				WeightBps:      spec.WeightBps,
				CurrentBalance: decimal.Zero,
				Position:       i,
			})
		}
		if err := ps.packRepo.Create(ctx, tx, pack); err != nil {
			return err
		}

		record = &types.PackCreatedRecord{ID: uuid.New(), PackID: id, Name: name}
		return ps.recordRepo.CreatePackCreated(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}

	ps.metrics.IncPackCreated()
	ps.publish(ctx, "pack_created", record)
	ps.log.Info("Pack created", "pack_id", id, "constituents", len(allocations))
	return pack, nil
}

func (ps *packService) GetPack(ctx context.Context, packID string) (*types.Pack, error) {
	return ps.activePack(ctx, nil, packID)
}

func (ps *packService) GetPackValue(ctx context.Context, packID string) (decimal.Decimal, error) {
	pack, err := ps.activePack(ctx, nil, packID)
	if err != nil {
		return decimal.Zero, err
	}
	return ps.valueOf(ctx, pack)
}

func (ps *packService) GetUserValue(ctx context.Context, packID, depositor string) (decimal.Decimal, error) {
	pack, err := ps.activePack(ctx, nil, packID)
	if err != nil {
		return decimal.Zero, err
	}

	position, err := ps.shareRepo.Get(ctx, nil, packID, depositor)
	if err != nil {
		return decimal.Zero, err
	}
	if position == nil || position.Shares.IsZero() || pack.TotalShares.IsZero() {
		return decimal.Zero, nil
	}

	packValue, err := ps.valueOf(ctx, pack)
	if err != nil {
		return decimal.Zero, err
	}
	return position.Shares.Div(pack.TotalShares).Mul(packValue), nil
}

func (ps *packService) GetComposition(ctx context.Context, packID string) ([]types.TokenAllocation, error) {
	pack, err := ps.activePack(ctx, nil, packID)
	if err != nil {
		return nil, err
	}
	return pack.Allocations, nil
}

func (ps *packService) ListDeposits(ctx context.Context, packID string) ([]*types.DepositRecord, error) {
	if _, err := ps.activePack(ctx, nil, packID); err != nil {
		return nil, err
	}
	return ps.recordRepo.ListDepositsByPack(ctx, nil, packID)
}

func (ps *packService) ListPackIDs(ctx context.Context) ([]string, error) {
	return ps.packRepo.ListIDs(ctx, nil)
}

func (ps *packService) activePack(ctx context.Context, tx *gorm.DB, packID string) (*types.Pack, error) {
	pack, err := ps.packRepo.GetByID(ctx, tx, packID)
	if err != nil {
		return nil, err
	}
	if pack == nil || !pack.Active {
		return nil, vaulterr.Newf(vaulterr.KindNotFound, "pack_not_found", "no active pack %q", packID)
	}
	return pack, nil
}

func (ps *packService) valueOf(ctx context.Context, pack *types.Pack) (decimal.Decimal, error) {
	return basketValue(ctx, ps.capabilities.Oracle(), pack)
}

func (ps *packService) publish(ctx context.Context, kind string, payload interface{}) {
	if ps.bus == nil {
		return
	}
	if err := ps.bus.Publish(ctx, kind, payload); err != nil {
		ps.log.Warn("Failed to publish record", "kind", kind, "error", err)
	}
}

func validateAllocationSpecs(allocations []AllocationSpec) error {
	if len(allocations) == 0 {
		return vaulterr.New(vaulterr.KindValidation, "empty_allocations", fmt.Errorf("at least one allocation required"))
	}

	seen := make(map[string]struct{}, len(allocations))
	var sum int64
	for _, spec := range allocations {
		if spec.Asset == "" {
			return vaulterr.New(vaulterr.KindValidation, "missing_asset", fmt.Errorf("allocation asset required"))
		}
		if spec.WeightBps <= 0 {
			return vaulterr.Newf(vaulterr.KindValidation, "invalid_weight", "weight for %s must be positive, got %d", spec.Asset, spec.WeightBps)
		}
		if _, dup := seen[spec.Asset]; dup {
			return vaulterr.Newf(vaulterr.KindValidation, "duplicate_asset", "asset %s listed twice", spec.Asset)
		}
		seen[spec.Asset] = struct{}{}
		sum += spec.WeightBps
	}
	if sum != types.WeightScale {
		return vaulterr.Newf(vaulterr.KindValidation, "invalid_weight_sum", "weights sum to %d bps, want %d", sum, types.WeightScale)
	}
	return nil
}
