package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/types"
)

type OrphanedBalanceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, orphan *types.OrphanedBalance) error
	Save(ctx context.Context, tx *gorm.DB, orphan *types.OrphanedBalance) error
	Delete(ctx context.Context, tx *gorm.DB, orphan *types.OrphanedBalance) error
	ListByAsset(ctx context.Context, tx *gorm.DB, asset string) ([]*types.OrphanedBalance, error)
}

type orphanedBalanceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrphanedBalanceRepo(db *gorm.DB, baseLog *logger.Logger) OrphanedBalanceRepo {
	repoLog := baseLog.With("repo", "OrphanedBalanceRepo")
	return &orphanedBalanceRepo{db: db, log: repoLog}
}

func (or *orphanedBalanceRepo) Create(ctx context.Context, tx *gorm.DB, orphan *types.OrphanedBalance) error {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	return transaction.WithContext(ctx).Create(orphan).Error
}

func (or *orphanedBalanceRepo) Save(ctx context.Context, tx *gorm.DB, orphan *types.OrphanedBalance) error {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	return transaction.WithContext(ctx).Save(orphan).Error
}

func (or *orphanedBalanceRepo) Delete(ctx context.Context, tx *gorm.DB, orphan *types.OrphanedBalance) error {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	return transaction.WithContext(ctx).Delete(orphan).Error
}

func (or *orphanedBalanceRepo) ListByAsset(ctx context.Context, tx *gorm.DB, asset string) ([]*types.OrphanedBalance, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}

	var orphans []*types.OrphanedBalance
	if err := transaction.WithContext(ctx).
		Where("asset = ?", asset).
		Order("created_at ASC").
		Find(&orphans).Error; err != nil {
		return nil, err
	}
	return orphans, nil
}
