package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/types"
)

type RateLimitRepo interface {
	Get(ctx context.Context, tx *gorm.DB, packID, depositor string) (*types.RateLimitState, error)
	Save(ctx context.Context, tx *gorm.DB, state *types.RateLimitState) error
}

type rateLimitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRateLimitRepo(db *gorm.DB, baseLog *logger.Logger) RateLimitRepo {
	repoLog := baseLog.With("repo", "RateLimitRepo")
	return &rateLimitRepo{db: db, log: repoLog}
}

func (rr *rateLimitRepo) Get(ctx context.Context, tx *gorm.DB, packID, depositor string) (*types.RateLimitState, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var state types.RateLimitState
	err := transaction.WithContext(ctx).
		Where("pack_id = ? AND depositor = ?", packID, depositor).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (rr *rateLimitRepo) Save(ctx context.Context, tx *gorm.DB, state *types.RateLimitState) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	return transaction.WithContext(ctx).Save(state).Error
}
