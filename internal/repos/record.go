package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/types"
)

type RecordRepo interface {
	CreatePackCreated(ctx context.Context, tx *gorm.DB, record *types.PackCreatedRecord) error
	CreateDeposit(ctx context.Context, tx *gorm.DB, record *types.DepositRecord) error
	CreateWithdrawal(ctx context.Context, tx *gorm.DB, record *types.WithdrawalRecord) error
	CreateRebalance(ctx context.Context, tx *gorm.DB, record *types.RebalanceRecord) error
	CreatePause(ctx context.Context, tx *gorm.DB, record *types.PauseRecord) error
	CreateEmergencyWithdrawal(ctx context.Context, tx *gorm.DB, record *types.EmergencyWithdrawalRecord) error
	ListDepositsByPack(ctx context.Context, tx *gorm.DB, packID string) ([]*types.DepositRecord, error)
}

type recordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecordRepo(db *gorm.DB, baseLog *logger.Logger) RecordRepo {
	repoLog := baseLog.With("repo", "RecordRepo")
	return &recordRepo{db: db, log: repoLog}
}

func (rr *recordRepo) CreatePackCreated(ctx context.Context, tx *gorm.DB, record *types.PackCreatedRecord) error {
	return rr.create(ctx, tx, record)
}

func (rr *recordRepo) CreateDeposit(ctx context.Context, tx *gorm.DB, record *types.DepositRecord) error {
	return rr.create(ctx, tx, record)
}

func (rr *recordRepo) CreateWithdrawal(ctx context.Context, tx *gorm.DB, record *types.WithdrawalRecord) error {
	return rr.create(ctx, tx, record)
}

func (rr *recordRepo) CreateRebalance(ctx context.Context, tx *gorm.DB, record *types.RebalanceRecord) error {
	return rr.create(ctx, tx, record)
}

func (rr *recordRepo) CreatePause(ctx context.Context, tx *gorm.DB, record *types.PauseRecord) error {
	return rr.create(ctx, tx, record)
}

func (rr *recordRepo) CreateEmergencyWithdrawal(ctx context.Context, tx *gorm.DB, record *types.EmergencyWithdrawalRecord) error {
	return rr.create(ctx, tx, record)
}

func (rr *recordRepo) ListDepositsByPack(ctx context.Context, tx *gorm.DB, packID string) ([]*types.DepositRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var records []*types.DepositRecord
	if err := transaction.WithContext(ctx).
		Where("pack_id = ?", packID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (rr *recordRepo) create(ctx context.Context, tx *gorm.DB, record interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	return transaction.WithContext(ctx).Create(record).Error
}
