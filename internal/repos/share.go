package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/types"
)

type SharePositionRepo interface {
	Get(ctx context.Context, tx *gorm.DB, packID, depositor string) (*types.SharePosition, error)
	Save(ctx context.Context, tx *gorm.DB, position *types.SharePosition) error
	ListByPack(ctx context.Context, tx *gorm.DB, packID string) ([]*types.SharePosition, error)
}

type sharePositionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSharePositionRepo(db *gorm.DB, baseLog *logger.Logger) SharePositionRepo {
	repoLog := baseLog.With("repo", "SharePositionRepo")
	return &sharePositionRepo{db: db, log: repoLog}
}

func (sr *sharePositionRepo) Get(ctx context.Context, tx *gorm.DB, packID, depositor string) (*types.SharePosition, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var position types.SharePosition
	err := transaction.WithContext(ctx).
		Where("pack_id = ? AND depositor = ?", packID, depositor).
		First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &position, nil
}

func (sr *sharePositionRepo) Save(ctx context.Context, tx *gorm.DB, position *types.SharePosition) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	return transaction.WithContext(ctx).Save(position).Error
}

func (sr *sharePositionRepo) ListByPack(ctx context.Context, tx *gorm.DB, packID string) ([]*types.SharePosition, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var positions []*types.SharePosition
	if err := transaction.WithContext(ctx).
		Where("pack_id = ?", packID).
		Order("depositor ASC").
		Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}
