package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/types"
)

type PackRepo interface {
	Create(ctx context.Context, tx *gorm.DB, pack *types.Pack) error
	GetByID(ctx context.Context, tx *gorm.DB, packID string) (*types.Pack, error)
	Exists(ctx context.Context, tx *gorm.DB, packID string) (bool, error)
	ListIDs(ctx context.Context, tx *gorm.DB) ([]string, error)
	UpdateCounters(ctx context.Context, tx *gorm.DB, pack *types.Pack) error
	SetLastRebalance(ctx context.Context, tx *gorm.DB, pack *types.Pack) error
	SaveAllocation(ctx context.Context, tx *gorm.DB, alloc *types.TokenAllocation) error
	ReplaceAllocations(ctx context.Context, tx *gorm.DB, packID string, allocs []*types.TokenAllocation) error
	ListAllocationsByAsset(ctx context.Context, tx *gorm.DB, asset string) ([]*types.TokenAllocation, error)
}

type packRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPackRepo(db *gorm.DB, baseLog *logger.Logger) PackRepo {
	repoLog := baseLog.With("repo", "PackRepo")
	return &packRepo{db: db, log: repoLog}
}

func (pr *packRepo) Create(ctx context.Context, tx *gorm.DB, pack *types.Pack) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Create(pack).Error
}

func (pr *packRepo) GetByID(ctx context.Context, tx *gorm.DB, packID string) (*types.Pack, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var pack types.Pack
	err := transaction.WithContext(ctx).
		Preload("Allocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", packID).
		First(&pack).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pack, nil
}

func (pr *packRepo) Exists(ctx context.Context, tx *gorm.DB, packID string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Pack{}).
		Where("id = ?", packID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (pr *packRepo) ListIDs(ctx context.Context, tx *gorm.DB) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var ids []string
	if err := transaction.WithContext(ctx).
		Model(&types.Pack{}).
		Where("active = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (pr *packRepo) UpdateCounters(ctx context.Context, tx *gorm.DB, pack *types.Pack) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Pack{}).
		Where("id = ?", pack.ID).
		Updates(map[string]interface{}{
			"total_shares":       pack.TotalShares,
			"total_value_locked": pack.TotalValueLocked,
		}).Error
}

func (pr *packRepo) SetLastRebalance(ctx context.Context, tx *gorm.DB, pack *types.Pack) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Pack{}).
		Where("id = ?", pack.ID).
		Update("last_rebalance_at", pack.LastRebalanceAt).Error
}

func (pr *packRepo) SaveAllocation(ctx context.Context, tx *gorm.DB, alloc *types.TokenAllocation) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Save(alloc).Error
}

func (pr *packRepo) ReplaceAllocations(ctx context.Context, tx *gorm.DB, packID string, allocs []*types.TokenAllocation) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).
		Where("pack_id = ?", packID).
		Delete(&types.TokenAllocation{}).Error; err != nil {
		return err
	}
	if len(allocs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&allocs).Error
}

func (pr *packRepo) ListAllocationsByAsset(ctx context.Context, tx *gorm.DB, asset string) ([]*types.TokenAllocation, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var allocs []*types.TokenAllocation
	if err := transaction.WithContext(ctx).
		Where("asset = ?", asset).
		Order("pack_id ASC").
		Find(&allocs).Error; err != nil {
		return nil, err
	}
	return allocs, nil
}
