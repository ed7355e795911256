package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WeightScale is the basis-point denominator: allocation weights of an
// active pack always sum to exactly this value.
const WeightScale int64 = 10000

type Pack struct {
	ID               string            `gorm:"primaryKey;column:id" json:"id"`
	Name             string            `gorm:"not null;column:name" json:"name"`
	Active           bool              `gorm:"not null;default:true;column:active" json:"active"`
	TotalShares      decimal.Decimal   `gorm:"type:numeric;not null;column:total_shares" json:"total_shares"`
	TotalValueLocked decimal.Decimal   `gorm:"type:numeric;not null;column:total_value_locked" json:"total_value_locked"`
	LastRebalanceAt  time.Time         `gorm:"column:last_rebalance_at" json:"last_rebalance_at"`
	Allocations      []TokenAllocation `gorm:"foreignKey:PackID;references:ID" json:"allocations"`
	CreatedAt        time.Time         `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Pack) TableName() string {
	return "pack"
}

type TokenAllocation struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PackID         string          `gorm:"not null;uniqueIndex:idx_allocation_pack_asset;column:pack_id" json:"pack_id"`
	Asset          string          `gorm:"not null;uniqueIndex:idx_allocation_pack_asset;column:asset" json:"asset"`
	WeightBps      int64           `gorm:"not null;column:weight_bps" json:"weight_bps"`
	CurrentBalance decimal.Decimal `gorm:"type:numeric;not null;column:current_balance" json:"current_balance"`
	Position       int             `gorm:"not null;column:position" json:"position"`
	CreatedAt      time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (TokenAllocation) TableName() string {
	return "token_allocation"
}

// OrphanedBalance holds custody that fell out of pack accounting when a
// rebalance dropped a constituent. It is excluded from pack valuation and
// recoverable only through the emergency path.
type OrphanedBalance struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PackID    string          `gorm:"not null;index;column:pack_id" json:"pack_id"`
	Asset     string          `gorm:"not null;index;column:asset" json:"asset"`
	Amount    decimal.Decimal `gorm:"type:numeric;not null;column:amount" json:"amount"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (OrphanedBalance) TableName() string {
	return "orphaned_balance"
}
