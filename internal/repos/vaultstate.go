package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/types"
)

const vaultStateRowID uint = 1

type VaultStateRepo interface {
	Get(ctx context.Context, tx *gorm.DB) (*types.VaultState, error)
	Save(ctx context.Context, tx *gorm.DB, state *types.VaultState) error
}

type vaultStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVaultStateRepo(db *gorm.DB, baseLog *logger.Logger) VaultStateRepo {
	repoLog := baseLog.With("repo", "VaultStateRepo")
	return &vaultStateRepo{db: db, log: repoLog}
}

func (vr *vaultStateRepo) Get(ctx context.Context, tx *gorm.DB) (*types.VaultState, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	var state types.VaultState
	err := transaction.WithContext(ctx).
		Where("id = ?", vaultStateRowID).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &types.VaultState{ID: vaultStateRowID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (vr *vaultStateRepo) Save(ctx context.Context, tx *gorm.DB, state *types.VaultState) error {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	state.ID = vaultStateRowID
	return transaction.WithContext(ctx).Save(state).Error
}
